/*
accrual.go - Clock-out settlement: overtime accrual and the remote-work cap

PURPOSE:
  Settling a day turns its punches into money, figuratively: the net worked
  duration is stamped onto the authoritative clock-out event, overtime beyond
  the 7-hour standard accrues compensatory leave in completed 15-minute
  blocks, and remote-work days are capped and clawed back.

ACCRUAL RULE:
  overtimeSeconds     = max(0, workedSeconds - 7h)
  compensatoryMinutes = floor(overtimeSeconds / 900) * 15
  A 14-minute excess accrues nothing; 15 minutes accrue 0.25h.

IDEMPOTENCY:
  Each DailyRecord carries a DailyCompensatory snapshot of the hours the day
  has already contributed to the aggregate balance. Settlement applies
  (newHours - snapshot) and then overwrites the snapshot, so re-settling the
  same day - corrective clock-outs, memo edits - replaces the previous
  contribution instead of adding to it. The sum of day snapshots always
  reconciles with the aggregate balance.

REMOTE-WORK CAP:
  A 재택 clock-out with a real duration of 5h or more is stored as exactly
  5 hours regardless of actual time, and routes through the cap path instead
  of ordinary accrual. If the real duration exceeds 7h, the excess beyond 7h
  (computed from the real, pre-cap duration) is clawed back from the
  compensatory balance, floored at zero. Below 5h the duration is stored
  unmodified and ordinary accrual applies (yielding nothing under 7h).

SEE ALSO:
  - attendance.go: owns the WithTx boundary around settleDay
  - ledger.go: applyBalance / deductFloored
*/
package worktime

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// StandardDailySeconds is the 7-hour daily standard.
	StandardDailySeconds = 7 * clock.SecondsPerHour

	// AccrualBlockSeconds is one completed overtime block: 15 minutes.
	AccrualBlockSeconds = 15 * clock.SecondsPerMinute

	// AccrualBlockMinutes is the block size in minutes.
	AccrualBlockMinutes = 15

	// RemoteCapSeconds is the remote-work threshold and stored cap: 5 hours.
	RemoteCapSeconds = 5 * clock.SecondsPerHour

	// RemoteCapMinutes is the capped stored duration for remote days.
	RemoteCapMinutes = 300
)

// Mutation reasons as they appear in the audit history.
const (
	ReasonOvertimeAccrual   = "초과근무 보상휴가 적립"
	ReasonAccrualCorrection = "보상휴가 적립 정정"
	ReasonRemoteClawback    = "재택근무 초과시간 환수"
	ReasonVacationUsage     = "휴가 사용"
	ReasonManualGrant       = "관리자 조정"
)

// =============================================================================
// PURE ACCRUAL MATH
// =============================================================================

// CompensatoryMinutes returns the accruable overtime minutes for a day's net
// worked seconds: time beyond the 7-hour standard, truncated to completed
// 15-minute blocks.
func CompensatoryMinutes(workedSeconds int) int {
	overtime := workedSeconds - StandardDailySeconds
	if overtime <= 0 {
		return 0
	}
	return overtime / AccrualBlockSeconds * AccrualBlockMinutes
}

// compensatoryHours converts accrued minutes to decimal hours (exact for
// 15-minute multiples).
func compensatoryHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).DivRound(sixty, 4)
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// Settlement reports what settling a day did.
type Settlement struct {
	// Duration is the real net worked duration.
	Duration clock.Duration

	// StoredMinutes is what was stamped on the clock-out event; differs from
	// the real duration only on capped remote days.
	StoredMinutes int

	// AccruedHours is the day's new compensatory snapshot.
	AccruedHours decimal.Decimal

	// ClawbackHours is the amount actually deducted by the remote-work
	// clawback (after flooring at zero balance).
	ClawbackHours decimal.Decimal

	// Mutations lists the balance changes performed, in order.
	Mutations []Mutation
}

// settleDay recomputes and applies the accounting consequences of the day's
// authoritative clock-out. It mutates rec in place (duration stamp, snapshot)
// but does not persist it; the caller owns PutDay and the WithTx boundary.
//
// Returns (nil, nil) when there is nothing to settle: no clock-out, or
// punches that do not parse into a valid same-day span. In that case the day
// counts as zero duration and no mutation occurs.
func settleDay(ctx context.Context, s Store, at time.Time, newID func() string, employeeID, date string, rec *DailyRecord) (*Settlement, error) {
	idx := rec.LastEnd()
	if idx < 0 {
		return nil, nil
	}
	if len(rec.Start) == 0 {
		return nil, ErrNoClockIn
	}

	start, err := clock.ParseSeconds(rec.Start[0].Clock)
	if err != nil {
		return nil, nil
	}
	end, err := clock.ParseSeconds(rec.End[idx].Clock)
	if err != nil {
		return nil, nil
	}

	net, err := clock.NetWork(start, end, vacationWindows(rec.Vacations))
	if err != nil {
		return nil, nil
	}

	workType := rec.End[idx].WorkType
	if workType == "" {
		workType = rec.Start[0].WorkType
	}

	details := map[string]string{
		"date":     date,
		"duration": net.String(),
	}

	st := &Settlement{Duration: net}

	if workType == WorkRemote && net.TotalSeconds >= RemoteCapSeconds {
		if err := settleRemote(ctx, s, at, newID, employeeID, rec, net, details, st); err != nil {
			return nil, err
		}
	} else {
		if err := settleStandard(ctx, s, at, newID, employeeID, rec, net, details, st); err != nil {
			return nil, err
		}
	}

	stored := st.StoredMinutes
	rec.End[idx].DurationMinutes = &stored
	return st, nil
}

// settleStandard applies the ordinary overtime accrual, replacing the day's
// previous snapshot contribution.
func settleStandard(ctx context.Context, s Store, at time.Time, newID func() string, employeeID string, rec *DailyRecord, net clock.Duration, details map[string]string, st *Settlement) error {
	newHours := compensatoryHours(CompensatoryMinutes(net.TotalSeconds))
	prev := rec.DailyCompensatory
	delta := newHours.Sub(prev)

	switch {
	case delta.IsPositive():
		m, err := applyBalance(ctx, s, at, newID(), employeeID, FieldCompensatory, delta, ReasonOvertimeAccrual, details)
		if err != nil {
			return err
		}
		st.Mutations = append(st.Mutations, m)
	case delta.IsNegative():
		// Recomputed down (e.g. a corrective clock-out shortened the day).
		// Floored at zero: an already-spent balance does not block the fix.
		m, err := deductFloored(ctx, s, at, newID(), employeeID, FieldCompensatory, delta.Neg(), ReasonAccrualCorrection, details)
		if err != nil {
			return err
		}
		if !m.Change.IsZero() {
			st.Mutations = append(st.Mutations, m)
		}
	}

	rec.DailyCompensatory = newHours
	st.AccruedHours = newHours
	st.StoredMinutes = net.TotalMinutes()
	st.ClawbackHours = decimal.Zero
	return nil
}

// settleRemote applies the 재택 cap path: stored duration pinned to 5 hours,
// any previous accrual snapshot reversed, and time beyond 7 real hours
// clawed back from the compensatory balance.
func settleRemote(ctx context.Context, s Store, at time.Time, newID func() string, employeeID string, rec *DailyRecord, net clock.Duration, details map[string]string, st *Settlement) error {
	// The cap path replaces ordinary accrual, so the day's contribution
	// becomes zero; reverse whatever an earlier settlement added.
	if rec.DailyCompensatory.IsPositive() {
		m, err := deductFloored(ctx, s, at, newID(), employeeID, FieldCompensatory, rec.DailyCompensatory, ReasonAccrualCorrection, details)
		if err != nil {
			return err
		}
		if !m.Change.IsZero() {
			st.Mutations = append(st.Mutations, m)
		}
	}
	rec.DailyCompensatory = decimal.Zero

	st.ClawbackHours = decimal.Zero
	if net.TotalSeconds > StandardDailySeconds {
		// Excess over 7h from the REAL duration, not the capped one.
		excess := decimal.NewFromInt(int64(net.TotalSeconds - StandardDailySeconds)).
			DivRound(decimal.NewFromInt(clock.SecondsPerHour), 4)
		m, err := deductFloored(ctx, s, at, newID(), employeeID, FieldCompensatory, excess, ReasonRemoteClawback, details)
		if err != nil {
			return err
		}
		if !m.Change.IsZero() {
			st.Mutations = append(st.Mutations, m)
			st.ClawbackHours = m.Change.Neg()
		}
	}

	st.AccruedHours = decimal.Zero
	st.StoredMinutes = RemoteCapMinutes
	return nil
}
