/*
ledger.go - Atomic leave-balance mutation with audit logging

PURPOSE:
  The Ledger is the only code that mutates a balance document. One Apply call
  is one read-modify-write inside one transaction: read the balance, compute
  after = before + delta, reject if negative, append the audit entry, write
  the balance. Both writes commit together or not at all.

INVARIANTS:
  1. NON-NEGATIVE: annualLeave and compensatoryLeave never go below zero.
     A mutation that would do so is rejected with no partial state - no
     balance write, no audit entry.
  2. LOG-THEN-COMMIT: the audit entry is appended before the balance write
     inside the same transaction, and its before/after values come from that
     transaction's read, never from a re-read after commit.
  3. NO IMPLICIT DOCUMENTS: a debit against an employee with no balance
     document is a hard stop (BalanceNotFoundError). Only a credit may create
     the document, starting from zero.

CONCURRENCY:
  Two leave-affecting operations for the same employee arriving concurrently
  (clock-out accrual vs. vacation debit) serialize through WithTx; neither
  can observe or overwrite the other's half-applied state.

SEE ALSO:
  - accrual.go: overtime accrual and clawback built on applyBalance
  - vacation.go: leave-request debits
*/
package worktime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MUTATION RESULT
// =============================================================================

// Mutation reports the before/after pair of one balance change, for
// caller-side display refresh.
type Mutation struct {
	Field  BalanceField
	Before decimal.Decimal
	After  decimal.Decimal
	Change decimal.Decimal
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger applies signed balance deltas atomically.
type Ledger struct {
	store TxStore
	now   func() time.Time
	newID func() string
}

func NewLedger(store TxStore) *Ledger {
	return &Ledger{store: store, now: time.Now, newID: uuid.NewString}
}

// Apply mutates one balance field by delta within a single transaction and
// records one audit entry. Returns the before/after pair.
//
// A zero delta is a no-op: nothing is written and Before == After.
func (l *Ledger) Apply(ctx context.Context, employeeID string, field BalanceField, delta decimal.Decimal, reason string, details map[string]string) (Mutation, error) {
	var m Mutation
	err := l.store.WithTx(ctx, func(s Store) error {
		var err error
		m, err = applyBalance(ctx, s, l.now(), l.newID(), employeeID, field, delta, reason, details)
		return err
	})
	return m, err
}

// BalanceOf returns the employee's balance, treating a missing document as
// zero. The returned ok flag distinguishes "zero balance" from "no document".
func (l *Ledger) BalanceOf(ctx context.Context, employeeID string) (Balance, bool, error) {
	b, err := l.store.Balance(ctx, employeeID)
	if err != nil {
		return Balance{}, false, err
	}
	if b == nil {
		return Balance{Annual: decimal.Zero, Compensatory: decimal.Zero}, false, nil
	}
	return *b, true, nil
}

// History returns the employee's audit entries, newest first.
func (l *Ledger) History(ctx context.Context, employeeID string) ([]HistoryEntry, error) {
	return l.store.History(ctx, employeeID)
}

// =============================================================================
// TRANSACTIONAL CORE
// =============================================================================

// applyBalance is the shared read-modify-write used by Apply, the accrual
// engine, and the vacation debit path. s must be a transactional view; the
// caller owns the WithTx boundary.
func applyBalance(ctx context.Context, s Store, at time.Time, id, employeeID string, field BalanceField, delta decimal.Decimal, reason string, details map[string]string) (Mutation, error) {
	if delta.IsZero() {
		b, err := s.Balance(ctx, employeeID)
		if err != nil {
			return Mutation{}, err
		}
		cur := decimal.Zero
		if b != nil {
			cur = b.Get(field)
		}
		return Mutation{Field: field, Before: cur, After: cur, Change: decimal.Zero}, nil
	}

	b, err := s.Balance(ctx, employeeID)
	if err != nil {
		return Mutation{}, err
	}
	if b == nil {
		if delta.IsNegative() {
			return Mutation{}, &BalanceNotFoundError{EmployeeID: employeeID}
		}
		b = &Balance{Annual: decimal.Zero, Compensatory: decimal.Zero}
	}

	before := b.Get(field)
	after := before.Add(delta)
	if after.IsNegative() {
		return Mutation{}, &InsufficientBalanceError{
			EmployeeID: employeeID,
			Field:      field,
			Available:  before,
			Requested:  delta.Neg(),
		}
	}

	// Audit entry first, balance write second; both inside the caller's tx.
	entry := HistoryEntry{
		ID:         id,
		EmployeeID: employeeID,
		Field:      field,
		Before:     before,
		After:      after,
		Change:     delta,
		Reason:     reason,
		Details:    details,
		CreatedAt:  at,
	}
	if err := s.AppendHistory(ctx, entry); err != nil {
		return Mutation{}, err
	}
	if err := s.PutBalance(ctx, employeeID, b.With(field, after)); err != nil {
		return Mutation{}, err
	}

	return Mutation{Field: field, Before: before, After: after, Change: delta}, nil
}

// deductFloored deducts up to amount from the field, flooring at zero
// balance: if less is available, only the available part is deducted; if the
// balance document is missing or empty, nothing happens. Used by the
// remote-work clawback and by downward snapshot corrections, which must not
// fail just because the balance was already spent.
func deductFloored(ctx context.Context, s Store, at time.Time, id, employeeID string, field BalanceField, amount decimal.Decimal, reason string, details map[string]string) (Mutation, error) {
	if !amount.IsPositive() {
		return Mutation{}, nil
	}
	b, err := s.Balance(ctx, employeeID)
	if err != nil {
		return Mutation{}, err
	}
	if b == nil {
		return Mutation{}, nil
	}
	avail := b.Get(field)
	if !avail.IsPositive() {
		return Mutation{}, nil
	}
	if amount.GreaterThan(avail) {
		amount = avail
	}
	return applyBalance(ctx, s, at, id, employeeID, field, amount.Neg(), reason, details)
}
