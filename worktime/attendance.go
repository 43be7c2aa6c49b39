/*
attendance.go - Recorder: the transactional entry points for one employee-day

PURPOSE:
  The Recorder owns the WithTx boundary for every punch-driven operation:
  clock-in, GPS pings, clock-out, memo edits, vacation requests. Each public
  method is one user action and one transaction; a failure anywhere rolls the
  whole action back.

ORDERING (per clock-out):
  compute duration -> compute accrual -> append audit entry -> write balance
  -> write day record, all inside one transaction. The audit entry's
  before/after values are captured from the same transaction that performed
  the balance write.

SEE ALSO:
  - accrual.go: settleDay (shared by clock-out and memo edits)
  - vacation.go: debit calculation for RequestVacation
*/
package worktime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// RECORDER
// =============================================================================

// Recorder records attendance events and drives settlement.
type Recorder struct {
	store TxStore
	now   func() time.Time
	newID func() string
}

func NewRecorder(store TxStore) *Recorder {
	return &Recorder{store: store, now: time.Now, newID: uuid.NewString}
}

// Day returns the daily record, or ErrDayNotFound if none exists.
func (r *Recorder) Day(ctx context.Context, employeeID, date string) (*DailyRecord, error) {
	rec, err := r.store.Day(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrDayNotFound, employeeID, date)
	}
	return rec, nil
}

// =============================================================================
// PUNCHES
// =============================================================================

// ClockIn appends a clock-in event, creating the daily record lazily.
func (r *Recorder) ClockIn(ctx context.Context, employeeID, date string, ev AttendanceEvent) error {
	return r.store.WithTx(ctx, func(s Store) error {
		rec, err := loadOrNewDay(ctx, s, employeeID, date)
		if err != nil {
			return err
		}
		rec.Start = append(rec.Start, ev)
		return s.PutDay(ctx, employeeID, date, rec)
	})
}

// RecordPing appends a mid-day GPS ping.
func (r *Recorder) RecordPing(ctx context.Context, employeeID, date string, ev AttendanceEvent) error {
	return r.store.WithTx(ctx, func(s Store) error {
		rec, err := loadOrNewDay(ctx, s, employeeID, date)
		if err != nil {
			return err
		}
		rec.GPS = append(rec.GPS, ev)
		return s.PutDay(ctx, employeeID, date, rec)
	})
}

// ClockOut appends a clock-out event and settles the day: the net duration is
// stamped onto the event and the compensatory accrual (or remote cap path)
// is applied, all in one transaction.
//
// A nil Settlement with a nil error means the punches did not form a valid
// span; the event is still recorded, without a duration, and no balance
// mutation occurs.
func (r *Recorder) ClockOut(ctx context.Context, employeeID, date string, ev AttendanceEvent) (*Settlement, error) {
	var st *Settlement
	err := r.store.WithTx(ctx, func(s Store) error {
		rec, err := s.Day(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if rec == nil || len(rec.Start) == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNoClockIn, employeeID, date)
		}
		rec.End = append(rec.End, ev)

		st, err = settleDay(ctx, s, r.now(), r.newID, employeeID, date, rec)
		if err != nil {
			return err
		}
		return s.PutDay(ctx, employeeID, date, rec)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// =============================================================================
// MEMO EDITS
// =============================================================================

// EditMemo mutates workType/details on one event and re-settles the day if it
// has a clock-out. Re-settlement is idempotent: the previous day snapshot's
// contribution is replaced, never double-added.
func (r *Recorder) EditMemo(ctx context.Context, employeeID, date string, seq Sequence, index int, workType *WorkType, details *string) (*Settlement, error) {
	var st *Settlement
	err := r.store.WithTx(ctx, func(s Store) error {
		rec, err := s.Day(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: %s/%s", ErrDayNotFound, employeeID, date)
		}

		ev, err := eventAt(rec, seq, index)
		if err != nil {
			return err
		}
		if workType != nil {
			ev.WorkType = *workType
		}
		if details != nil {
			ev.Details = *details
		}

		st, err = settleDay(ctx, s, r.now(), r.newID, employeeID, date, rec)
		if err != nil {
			return err
		}
		return s.PutDay(ctx, employeeID, date, rec)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// =============================================================================
// VACATION REQUESTS
// =============================================================================

// RequestVacation records one leave interval and produces exactly one ledger
// debit for it, atomically. Insufficient balance rejects the whole request:
// no interval is recorded and no audit entry exists.
//
// A zero-debit request (unparseable compensatory interval) records the
// interval without touching the ledger.
func (r *Recorder) RequestVacation(ctx context.Context, employeeID, date string, iv VacationInterval) (*Mutation, error) {
	field, amount, err := VacationDebit(iv)
	if err != nil {
		return nil, err
	}

	var m *Mutation
	err = r.store.WithTx(ctx, func(s Store) error {
		rec, err := loadOrNewDay(ctx, s, employeeID, date)
		if err != nil {
			return err
		}

		if amount.IsPositive() {
			details := map[string]string{
				"date":     date,
				"type":     string(iv.Type),
				"interval": iv.Start + "-" + iv.End,
			}
			mut, err := applyBalance(ctx, s, r.now(), r.newID(), employeeID, field, amount.Neg(), ReasonVacationUsage, details)
			if err != nil {
				return err
			}
			m = &mut
		}

		rec.Vacations = append(rec.Vacations, iv)
		return s.PutDay(ctx, employeeID, date, rec)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func loadOrNewDay(ctx context.Context, s Store, employeeID, date string) (*DailyRecord, error) {
	rec, err := s.Day(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &DailyRecord{}
	}
	return rec, nil
}

func eventAt(rec *DailyRecord, seq Sequence, index int) (*AttendanceEvent, error) {
	var list []AttendanceEvent
	switch seq {
	case SeqStart:
		list = rec.Start
	case SeqGPS:
		list = rec.GPS
	case SeqEnd:
		list = rec.End
	default:
		return nil, fmt.Errorf("%w: unknown sequence %q", ErrEventNotFound, seq)
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %s[%d]", ErrEventNotFound, seq, index)
	}
	switch seq {
	case SeqStart:
		return &rec.Start[index], nil
	case SeqGPS:
		return &rec.GPS[index], nil
	default:
		return &rec.End[index], nil
	}
}
