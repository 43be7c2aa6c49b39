/*
monthly.go - Monthly aggregation against the workdays-times-7h standard

PURPOSE:
  Produces the monthly report: standard minutes (weekdays in the month,
  minus holidays, times 420), total worked minutes summed from the stored
  clock-out durations, overtime/shortfall, and vacation usage.

NOTE ON VACATION USAGE:
  The aggregator does NOT read the ledger. It recomputes usage from the
  stored intervals with the same per-interval calculation the debit path
  uses (VacationMinutes), so the reporting figures are independent of the
  ledger. Legacy reports were produced this way and parity matters more
  than a single source of truth here.

SEE ALSO:
  - vacation.go: VacationMinutes
  - store.go: DaysInMonth, Holidays
*/
package worktime

import (
	"context"
	"time"

	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// REPORT
// =============================================================================

// MonthlyReport summarizes one employee-month.
type MonthlyReport struct {
	EmployeeID string
	Year       int
	Month      time.Month

	Workdays         int // weekdays minus holidays
	StandardMinutes  int // Workdays * 420
	WorkedMinutes    int // sum of stored clock-out durations
	OvertimeMinutes  int // max(0, worked - standard)
	ShortfallMinutes int // max(0, standard - worked)

	VacationMinutes int
	VacationByType  map[VacationType]int
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes monthly reports. Read-only: it never mutates balances.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Monthly computes the report for one employee and calendar month.
func (a *Aggregator) Monthly(ctx context.Context, employeeID string, year int, month time.Month) (*MonthlyReport, error) {
	holidays, err := a.store.Holidays(ctx)
	if err != nil {
		return nil, err
	}
	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date] = true
	}

	rep := &MonthlyReport{
		EmployeeID:     employeeID,
		Year:           year,
		Month:          month,
		VacationByType: make(map[VacationType]int),
	}

	// Standard: every weekday of the month that is not a holiday.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if holidaySet[d.Format("2006-01-02")] {
			continue
		}
		rep.Workdays++
	}
	rep.StandardMinutes = rep.Workdays * StandardDayMinutes

	days, err := a.store.DaysInMonth(ctx, employeeID, year, month)
	if err != nil {
		return nil, err
	}

	for _, rec := range days {
		if m := lastStampedDuration(rec); m != nil {
			rep.WorkedMinutes += *m
		}
		for _, iv := range rec.Vacations {
			minutes := VacationMinutes(iv)
			rep.VacationMinutes += minutes
			rep.VacationByType[iv.Type] += minutes
		}
	}

	if rep.WorkedMinutes > rep.StandardMinutes {
		rep.OvertimeMinutes = rep.WorkedMinutes - rep.StandardMinutes
	} else {
		rep.ShortfallMinutes = rep.StandardMinutes - rep.WorkedMinutes
	}
	return rep, nil
}

// lastStampedDuration returns the duration of the last (by clock) clock-out
// event that carries one, or nil if the day has no qualifying clock-out.
// Corrective re-writes may leave unstamped events behind; only stamped
// events qualify.
func lastStampedDuration(rec *DailyRecord) *int {
	best := -1
	bestSec := -1
	for i, ev := range rec.End {
		if ev.DurationMinutes == nil {
			continue
		}
		sec, err := clock.ParseSeconds(ev.Clock)
		if err != nil {
			sec = -1
		}
		if sec >= bestSec {
			best, bestSec = i, sec
		}
	}
	if best < 0 {
		return nil
	}
	return rec.End[best].DurationMinutes
}
