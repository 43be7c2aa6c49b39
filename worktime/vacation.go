/*
vacation.go - Leave-request debit calculation

PURPOSE:
  Converts one VacationInterval into the hours it spans and the signed debit
  it produces against the employee's balances. Annual types debit the annual
  balance in days; compensatory leave debits the compensatory balance in
  hours.

FALLBACK ASYMMETRY:
  When the interval cannot be parsed the two families fail in opposite
  directions, deliberately:

    annual        -> fixed safe default (full 420, AM 120, PM 300 minutes).
                     A zero debit would let malformed input grant unlimited
                     free annual leave.
    compensatory  -> zero debit. Charging a guessed nonzero amount of accrued
                     overtime is the worse failure mode.

SEE ALSO:
  - ledger.go: receives the negative delta
  - monthly.go: recomputes the same per-interval minutes for reporting
*/
package worktime

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// StandardDayMinutes is one standard working day: 7 hours.
const StandardDayMinutes = 420

// Fallback debit minutes applied when an annual-leave interval is malformed.
const (
	fallbackFullDayMinutes   = 420
	fallbackMorningMinutes   = 120
	fallbackAfternoonMinutes = 300
)

var (
	sixty         = decimal.NewFromInt(60)
	minutesPerDay = decimal.NewFromInt(StandardDayMinutes)
)

// =============================================================================
// INTERVAL MINUTES
// =============================================================================

// VacationMinutes returns the minutes the interval spans, applying the
// per-type fallback when the interval cannot be evaluated.
func VacationMinutes(iv VacationInterval) int {
	start, errS := clock.ParseMinutes(iv.Start)
	end, errE := clock.ParseMinutes(iv.End)
	if errS == nil && errE == nil && end > start {
		return end - start
	}

	switch iv.Type {
	case VacationFullDay:
		return fallbackFullDayMinutes
	case VacationMorningHalf:
		return fallbackMorningMinutes
	case VacationAfternoonHalf:
		return fallbackAfternoonMinutes
	case VacationCompensatory:
		return 0
	default:
		return 0
	}
}

// =============================================================================
// DEBIT
// =============================================================================

// VacationDebit returns which balance field the interval debits and the
// (positive) amount in that field's unit: days for annual types, hours for
// compensatory leave. A zero amount means no ledger mutation is due.
func VacationDebit(iv VacationInterval) (BalanceField, decimal.Decimal, error) {
	minutes := decimal.NewFromInt(int64(VacationMinutes(iv)))

	switch iv.Type {
	case VacationFullDay, VacationMorningHalf, VacationAfternoonHalf:
		// 420 minutes = 1.0 day; halves come out as 0.2857 / 0.7143 which
		// sum back to a whole day.
		return FieldAnnual, minutes.DivRound(minutesPerDay, 4), nil
	case VacationCompensatory:
		return FieldCompensatory, minutes.DivRound(sixty, 4), nil
	default:
		return "", decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownVacationType, iv.Type)
	}
}

// vacationWindows converts a day's intervals into clock windows for the net
// duration calculation. Unparseable intervals contribute no window: they
// still debit the ledger via the fallback, but cannot be located in the day.
func vacationWindows(ivs []VacationInterval) []clock.Window {
	var ws []clock.Window
	for _, iv := range ivs {
		start, errS := clock.ParseSeconds(iv.Start)
		end, errE := clock.ParseSeconds(iv.End)
		if errS != nil || errE != nil || end <= start {
			continue
		}
		ws = append(ws, clock.Window{Start: start, End: end})
	}
	return ws
}
