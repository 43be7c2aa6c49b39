package worktime_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/worktime"
	"github.com/warp/attendance-engine/worktime/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*worktime.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return worktime.NewLedger(mem), mem
}

func grant(t *testing.T, l *worktime.Ledger, employeeID string, field worktime.BalanceField, v string) {
	t.Helper()
	_, err := l.Apply(context.Background(), employeeID, field, decimal.RequireFromString(v), worktime.ReasonManualGrant, nil)
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// APPLY
// =============================================================================

func TestLedger_Apply_CreditCreatesDocument(t *testing.T) {
	// GIVEN: an employee with no balance document
	// WHEN: a positive grant is applied
	// THEN: the document is created starting from zero

	l, _ := newTestLedger(t)
	ctx := context.Background()

	m, err := l.Apply(ctx, "emp-1", worktime.FieldAnnual, dec("12"), worktime.ReasonManualGrant, nil)
	require.NoError(t, err)

	assert.True(t, m.Before.IsZero())
	assert.True(t, m.After.Equal(dec("12")))

	b, ok, err := l.BalanceOf(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b.Annual.Equal(dec("12")))
}

func TestLedger_Apply_DebitWithoutDocumentIsHardStop(t *testing.T) {
	// GIVEN: no balance document
	// WHEN: a debit arrives
	// THEN: rejected with ErrBalanceNotFound, nothing recorded

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Apply(ctx, "ghost", worktime.FieldCompensatory, dec("-1"), worktime.ReasonVacationUsage, nil)
	assert.ErrorIs(t, err, worktime.ErrBalanceNotFound)

	hist, err := l.History(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, hist, "a rejected mutation must leave no audit entry")
}

func TestLedger_Apply_RejectsNegativeResult(t *testing.T) {
	// GIVEN: 2 hours of compensatory leave
	// WHEN: debiting 3 hours
	// THEN: rejected; the balance and history are unchanged

	l, _ := newTestLedger(t)
	ctx := context.Background()
	grant(t, l, "emp-1", worktime.FieldCompensatory, "2")

	_, err := l.Apply(ctx, "emp-1", worktime.FieldCompensatory, dec("-3"), worktime.ReasonVacationUsage, nil)
	assert.ErrorIs(t, err, worktime.ErrInsufficientBalance)

	var insErr *worktime.InsufficientBalanceError
	require.ErrorAs(t, err, &insErr)
	assert.True(t, insErr.Available.Equal(dec("2")))
	assert.True(t, insErr.Requested.Equal(dec("3")))

	b, _, err := l.BalanceOf(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, b.Compensatory.Equal(dec("2")), "rejected debit must not mutate")

	hist, err := l.History(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, hist, 1, "only the grant is logged")
}

func TestLedger_Apply_DebitToExactlyZeroAllowed(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	grant(t, l, "emp-1", worktime.FieldCompensatory, "1.5")

	m, err := l.Apply(ctx, "emp-1", worktime.FieldCompensatory, dec("-1.5"), worktime.ReasonVacationUsage, nil)
	require.NoError(t, err)
	assert.True(t, m.After.IsZero())
}

func TestLedger_Apply_ZeroDeltaIsNoOp(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	grant(t, l, "emp-1", worktime.FieldAnnual, "5")

	m, err := l.Apply(ctx, "emp-1", worktime.FieldAnnual, decimal.Zero, "noop", nil)
	require.NoError(t, err)
	assert.True(t, m.Before.Equal(m.After))

	hist, err := l.History(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestLedger_History_RecordsBeforeAfterChange(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	grant(t, l, "emp-1", worktime.FieldCompensatory, "4")
	_, err := l.Apply(ctx, "emp-1", worktime.FieldCompensatory, dec("-1.5"), worktime.ReasonVacationUsage,
		map[string]string{"date": "2026-03-10"})
	require.NoError(t, err)

	hist, err := l.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	// Newest first.
	latest := hist[0]
	assert.Equal(t, worktime.FieldCompensatory, latest.Field)
	assert.True(t, latest.Before.Equal(dec("4")))
	assert.True(t, latest.After.Equal(dec("2.5")))
	assert.True(t, latest.Change.Equal(dec("-1.5")))
	assert.Equal(t, worktime.ReasonVacationUsage, latest.Reason)
	assert.Equal(t, "2026-03-10", latest.Details["date"])
	assert.NotEmpty(t, latest.ID)
}

// =============================================================================
// NON-NEGATIVE INVARIANT
// =============================================================================

func TestLedger_BalancesNeverNegative(t *testing.T) {
	// GIVEN: an arbitrary sequence of credits and debits
	// THEN: the balance never dips below zero; rejected ops leave it unchanged

	l, _ := newTestLedger(t)
	ctx := context.Background()

	deltas := []string{"2", "-1", "-2", "0.75", "-1.5", "-0.5", "3"}
	running := decimal.Zero
	for _, ds := range deltas {
		d := dec(ds)
		_, err := l.Apply(ctx, "emp-1", worktime.FieldCompensatory, d, "seq", nil)
		if running.Add(d).IsNegative() {
			assert.Error(t, err, "delta %s from %s must be rejected", ds, running)
		} else {
			require.NoError(t, err)
			running = running.Add(d)
		}

		b, _, berr := l.BalanceOf(ctx, "emp-1")
		require.NoError(t, berr)
		assert.False(t, b.Compensatory.IsNegative())
		assert.True(t, b.Compensatory.Equal(running))
	}
}

func TestLedger_BalanceOf_MissingDocumentReadsZero(t *testing.T) {
	l, _ := newTestLedger(t)

	b, ok, err := l.BalanceOf(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, b.Annual.IsZero())
	assert.True(t, b.Compensatory.IsZero())
}
