package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/worktime"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDayRecord_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.Day(ctx, "emp-1", "2026-03-10")
	require.NoError(t, err)
	assert.Nil(t, missing)

	stamped := 420
	rec := &worktime.DailyRecord{
		Start: []worktime.AttendanceEvent{{
			Clock:         "오전 9:30:00",
			GPSCoordinate: "37.5665,126.9780",
			Address:       "서울특별시 중구",
			WorkType:      worktime.WorkOffice,
		}},
		End: []worktime.AttendanceEvent{{
			Clock:           "오후 6:30:00",
			WorkType:        worktime.WorkOffice,
			Details:         "정상 퇴근",
			DurationMinutes: &stamped,
		}},
		Vacations: []worktime.VacationInterval{{
			Start: "14:00", End: "16:00", Type: worktime.VacationCompensatory,
		}},
		DailyCompensatory: dec("1.5"),
	}
	require.NoError(t, s.PutDay(ctx, "emp-1", "2026-03-10", rec))

	got, err := s.Day(ctx, "emp-1", "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, rec.Start, got.Start)
	assert.Equal(t, rec.End, got.End)
	assert.Equal(t, rec.Vacations, got.Vacations)
	assert.True(t, got.DailyCompensatory.Equal(dec("1.5")))
}

func TestDaysInMonth_FiltersByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, date := range []string{"2026-03-02", "2026-03-31", "2026-04-01"} {
		require.NoError(t, s.PutDay(ctx, "emp-1", date, &worktime.DailyRecord{}))
	}
	require.NoError(t, s.PutDay(ctx, "emp-2", "2026-03-05", &worktime.DailyRecord{}))

	days, err := s.DaysInMonth(ctx, "emp-1", 2026, time.March)
	require.NoError(t, err)

	assert.Len(t, days, 2)
	assert.Contains(t, days, "2026-03-02")
	assert.Contains(t, days, "2026-03-31")
}

func TestLedger_OnSQLite(t *testing.T) {
	// The full mutation discipline - document creation on credit, hard stop
	// on debit without document, atomic rejection - against the real store.
	s := newTestStore(t)
	l := worktime.NewLedger(s)
	ctx := context.Background()

	var bnf *worktime.BalanceNotFoundError
	_, err := l.Apply(ctx, "emp-1", worktime.FieldAnnual, dec("-1"), worktime.ReasonVacationUsage, nil)
	require.ErrorAs(t, err, &bnf)

	_, err = l.Apply(ctx, "emp-1", worktime.FieldAnnual, dec("12"), worktime.ReasonManualGrant, nil)
	require.NoError(t, err)

	_, err = l.Apply(ctx, "emp-1", worktime.FieldAnnual, dec("-15"), worktime.ReasonVacationUsage, nil)
	var ib *worktime.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)

	b, ok, err := l.BalanceOf(ctx, "emp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, b.Annual.Equal(dec("12")), "rejected debit must leave no trace")

	hist, err := l.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, worktime.ReasonManualGrant, hist[0].Reason)
}

func TestHistory_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	l := worktime.NewLedger(s)
	ctx := context.Background()

	_, err := l.Apply(ctx, "emp-1", worktime.FieldCompensatory, dec("2"), worktime.ReasonOvertimeAccrual, nil)
	require.NoError(t, err)
	_, err = l.Apply(ctx, "emp-1", worktime.FieldCompensatory, dec("-0.5"), worktime.ReasonVacationUsage, nil)
	require.NoError(t, err)

	hist, err := l.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, worktime.ReasonVacationUsage, hist[0].Reason)
	assert.Equal(t, worktime.ReasonOvertimeAccrual, hist[1].Reason)
}

func TestHolidays_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutHoliday(ctx, worktime.Holiday{ID: "h1", Date: "2026-03-01", Name: "삼일절"}))
	require.NoError(t, s.PutHoliday(ctx, worktime.Holiday{ID: "h1", Date: "2026-03-01", Name: "삼일절 (대체)"}))
	require.NoError(t, s.PutHoliday(ctx, worktime.Holiday{ID: "h2", Date: "2026-05-05", Name: "어린이날"}))

	hs, err := s.Holidays(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "삼일절 (대체)", hs[0].Name)

	require.NoError(t, s.DeleteHoliday(ctx, "h1"))
	hs, err = s.Holidays(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 1)
}

func TestClockOutAccrual_OnSQLite(t *testing.T) {
	// End-to-end through the recorder: the settlement must survive a real
	// transaction boundary.
	s := newTestStore(t)
	r := worktime.NewRecorder(s)
	ctx := context.Background()

	require.NoError(t, r.ClockIn(ctx, "emp-1", "2026-03-10", worktime.AttendanceEvent{Clock: "오전 9:30:00"}))
	st, err := r.ClockOut(ctx, "emp-1", "2026-03-10", worktime.AttendanceEvent{Clock: "오후 8:00:00", WorkType: worktime.WorkOffice})
	require.NoError(t, err)
	require.NotNil(t, st)

	assert.True(t, st.AccruedHours.Equal(dec("1.5")))

	b, err := s.Balance(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.Compensatory.Equal(dec("1.5")))

	rec, err := s.Day(ctx, "emp-1", "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.End, 1)
	require.NotNil(t, rec.End[0].DurationMinutes)
	assert.Equal(t, 510, *rec.End[0].DurationMinutes)
	assert.True(t, rec.DailyCompensatory.Equal(dec("1.5")))
}
