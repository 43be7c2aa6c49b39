/*
Package worktime implements the work-time and leave-balance accounting engine.

PURPOSE:
  Converts raw clock-in/clock-out punches and their work-type annotations into
  daily worked durations, compensatory-leave accrual, and leave-balance debits.
  This is where the business rules live: the 7-hour standard, 15-minute accrual
  blocks, the remote-work cap, and the non-negative balance invariant.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceEvent: one GPS-stamped punch (clock-in, ping, or clock-out)
  - DailyRecord: one employee-day of punches, vacations, and the accrual snapshot
  - VacationInterval: an approved leave interval within one day
  - Balance: the two running balances (annual days, compensatory hours)
  - HistoryEntry: immutable audit record of one balance mutation

DESIGN PRINCIPLES:
  1. Precision: balances use decimal.Decimal, never float64
  2. Typed amounts internally: the "3.5시간"/"12일" suffix strings exist only
     at the persistence and presentation boundary (see codec.go)
  3. Auditability: every balance mutation records before/after/change
  4. Idempotency: re-running a day's accrual replaces the previous day
     snapshot's contribution instead of double-adding

SEE ALSO:
  - ledger.go: atomic balance mutation with audit logging
  - accrual.go: clock-out settlement and the remote-work cap
  - vacation.go: leave-request debit calculation
  - store.go: persistence interfaces
*/
package worktime

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// WORK TYPE - GPS/declaration derived classification of a punch
// =============================================================================

// WorkType classifies where a punch happened. The engine treats it as an
// opaque label with three recognized values; classification itself (office
// proximity, geocoding) happens upstream.
type WorkType string

const (
	WorkOffice WorkType = "내근" // at or near the office
	WorkField  WorkType = "외근" // field work
	WorkRemote WorkType = "재택" // working from home
)

// =============================================================================
// ATTENDANCE EVENTS
// =============================================================================

// Sequence names the three ordered event lists of a DailyRecord.
type Sequence string

const (
	SeqStart Sequence = "start" // clock-ins (practically length 1)
	SeqGPS   Sequence = "gps"   // mid-day location pings
	SeqEnd   Sequence = "end"   // clock-outs; the last by time is authoritative
)

// AttendanceEvent is one GPS-stamped punch.
//
// Clock is a locale clock string ("오전 9:30:00" or "18:30:00"); see the clock
// package for the accepted forms. DurationMinutes is populated only on
// clock-out events, after settlement.
type AttendanceEvent struct {
	Clock           string
	GPSCoordinate   string
	Address         string
	WorkType        WorkType
	Details         string
	DurationMinutes *int
}

// =============================================================================
// VACATION INTERVALS
// =============================================================================

// VacationType discriminates leave requests by how they are debited.
type VacationType string

const (
	VacationFullDay       VacationType = "종일연차" // full-day annual leave
	VacationMorningHalf   VacationType = "오전반휴" // AM half annual leave
	VacationAfternoonHalf VacationType = "오후반휴" // PM half annual leave
	VacationCompensatory  VacationType = "보상휴가" // compensatory leave
)

// IsAnnual reports whether the type debits the annual-leave balance.
func (t VacationType) IsAnnual() bool {
	switch t {
	case VacationFullDay, VacationMorningHalf, VacationAfternoonHalf:
		return true
	}
	return false
}

// VacationInterval is one approved leave interval within a single day.
// Start and End are "HH:MM" clock strings; End must be strictly after Start.
// Immutable once written: exactly one ledger debit is produced at creation.
type VacationInterval struct {
	Start string
	End   string
	Type  VacationType
}

// =============================================================================
// DAILY RECORD
// =============================================================================

// DailyRecord aggregates one employee-day. Created lazily on the first punch
// (or vacation request) of the day; fields are appended over the day and never
// deleted.
//
// DailyCompensatory is the day's accrual snapshot in hours. It exists to make
// recomputation idempotent: settling the same day twice replaces the previous
// snapshot's contribution to the aggregate balance instead of adding again.
type DailyRecord struct {
	Start     []AttendanceEvent
	GPS       []AttendanceEvent
	End       []AttendanceEvent
	Vacations []VacationInterval

	DailyCompensatory decimal.Decimal
}

// LastEnd returns the authoritative clock-out event: the one with the latest
// parseable clock among End, later index winning ties. Returns -1 if there is
// no clock-out.
func (d *DailyRecord) LastEnd() int {
	best := -1
	bestSec := -1
	for i, ev := range d.End {
		sec, err := clock.ParseSeconds(ev.Clock)
		if err != nil {
			// Unparseable re-writes lose to any parseable event but an
			// all-unparseable list still yields the last element.
			sec = -1
		}
		if sec >= bestSec {
			best, bestSec = i, sec
		}
	}
	return best
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceField selects one of the two per-employee balances.
type BalanceField string

const (
	FieldAnnual       BalanceField = "annual"       // whole/half vacation days
	FieldCompensatory BalanceField = "compensatory" // overtime hours
)

// Balance holds the two running balances for one employee.
// Annual is measured in days, Compensatory in hours. Both are non-negative;
// the ledger rejects any mutation that would drive one below zero.
type Balance struct {
	Annual       decimal.Decimal
	Compensatory decimal.Decimal
}

// Get returns the value of the selected field.
func (b Balance) Get(f BalanceField) decimal.Decimal {
	if f == FieldAnnual {
		return b.Annual
	}
	return b.Compensatory
}

// With returns a copy with the selected field replaced.
func (b Balance) With(f BalanceField, v decimal.Decimal) Balance {
	if f == FieldAnnual {
		b.Annual = v
	} else {
		b.Compensatory = v
	}
	return b
}

// =============================================================================
// HISTORY - append-only audit records
// =============================================================================

// HistoryEntry records one balance mutation. Entries are created once per
// mutation, in the same transaction as the balance write, and never mutated
// or deleted. Display order is creation time descending.
type HistoryEntry struct {
	ID         string
	EmployeeID string
	Field      BalanceField
	Before     decimal.Decimal
	After      decimal.Decimal
	Change     decimal.Decimal
	Reason     string
	Details    map[string]string
	CreatedAt  time.Time
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is one non-working calendar date, excluded from the monthly
// standard-hours computation.
type Holiday struct {
	ID   string
	Date string // YYYY-MM-DD
	Name string
}
