package worktime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/worktime"
	"github.com/warp/attendance-engine/worktime/store"
)

func intp(v int) *int { return &v }

// =============================================================================
// STANDARD MINUTES
// =============================================================================

func TestMonthly_StandardFromWeekdays(t *testing.T) {
	// March 2026 has 22 weekdays.
	mem := store.NewMemory()
	agg := worktime.NewAggregator(mem)

	rep, err := agg.Monthly(context.Background(), "emp-1", 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 22, rep.Workdays)
	assert.Equal(t, 22*420, rep.StandardMinutes)
	assert.Equal(t, rep.StandardMinutes, rep.ShortfallMinutes, "no work recorded")
	assert.Zero(t, rep.OvertimeMinutes)
}

func TestMonthly_HolidaysReduceStandard(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.PutHoliday(ctx, worktime.Holiday{ID: "h1", Date: "2026-03-02", Name: "대체공휴일"}))
	// Weekend holiday must not double-count against the standard.
	require.NoError(t, mem.PutHoliday(ctx, worktime.Holiday{ID: "h2", Date: "2026-03-01", Name: "삼일절"}))

	rep, err := worktime.NewAggregator(mem).Monthly(ctx, "emp-1", 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 21, rep.Workdays)
	assert.Equal(t, 21*420, rep.StandardMinutes)
}

// =============================================================================
// WORKED MINUTES FROM STAMPED DURATIONS
// =============================================================================

func TestMonthly_SumsLastStampedDuration(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	// A normal day and a corrected day where the later stamp wins.
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-03", &worktime.DailyRecord{
		End: []worktime.AttendanceEvent{{Clock: "오후 6:30:00", DurationMinutes: intp(420)}},
	}))
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-04", &worktime.DailyRecord{
		End: []worktime.AttendanceEvent{
			{Clock: "오후 6:30:00", DurationMinutes: intp(420)},
			{Clock: "오후 8:00:00", DurationMinutes: intp(510)},
		},
	}))
	// Unstamped-only day contributes zero.
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-05", &worktime.DailyRecord{
		End: []worktime.AttendanceEvent{{Clock: "오후 6:30:00"}},
	}))
	// Different month must not leak in.
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-04-01", &worktime.DailyRecord{
		End: []worktime.AttendanceEvent{{Clock: "오후 6:30:00", DurationMinutes: intp(420)}},
	}))

	rep, err := worktime.NewAggregator(mem).Monthly(ctx, "emp-1", 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 420+510, rep.WorkedMinutes)
}

func TestMonthly_LaterStampWinsOverUnstampedAuthoritativeEnd(t *testing.T) {
	// The latest end event is unstamped; the latest *stamped* one counts.
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-03", &worktime.DailyRecord{
		End: []worktime.AttendanceEvent{
			{Clock: "오후 6:30:00", DurationMinutes: intp(420)},
			{Clock: "오후 9:00:00"},
		},
	}))

	rep, err := worktime.NewAggregator(mem).Monthly(ctx, "emp-1", 2026, time.March)
	require.NoError(t, err)
	assert.Equal(t, 420, rep.WorkedMinutes)
}

// =============================================================================
// OVERTIME / SHORTFALL SPLIT
// =============================================================================

func TestMonthly_OvertimeAndShortfallExclusive(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.PutHoliday(ctx, worktime.Holiday{ID: "h", Date: "2026-03-02", Name: "x"}))

	// 21 workdays * 420 = 8820 standard; stamp 9000 worked.
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-03", &worktime.DailyRecord{
		End: []worktime.AttendanceEvent{{Clock: "오후 6:30:00", DurationMinutes: intp(9000)}},
	}))

	rep, err := worktime.NewAggregator(mem).Monthly(ctx, "emp-1", 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 180, rep.OvertimeMinutes)
	assert.Zero(t, rep.ShortfallMinutes)
}

// =============================================================================
// VACATION RECOMPUTATION
// =============================================================================

func TestMonthly_VacationRecomputedFromIntervals(t *testing.T) {
	// Usage is recomputed from the stored intervals, not read from the
	// ledger: an unparseable full-day interval reports its 420m fallback
	// even though no balance document exists at all.
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-03", &worktime.DailyRecord{
		Vacations: []worktime.VacationInterval{
			{Start: "09:30", End: "11:30", Type: worktime.VacationMorningHalf},
			{Start: "??", End: "", Type: worktime.VacationFullDay},
		},
	}))
	require.NoError(t, mem.PutDay(ctx, "emp-1", "2026-03-04", &worktime.DailyRecord{
		Vacations: []worktime.VacationInterval{
			{Start: "14:00", End: "16:00", Type: worktime.VacationCompensatory},
		},
	}))

	rep, err := worktime.NewAggregator(mem).Monthly(ctx, "emp-1", 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 120+420+120, rep.VacationMinutes)
	assert.Equal(t, 120, rep.VacationByType[worktime.VacationMorningHalf])
	assert.Equal(t, 420, rep.VacationByType[worktime.VacationFullDay])
	assert.Equal(t, 120, rep.VacationByType[worktime.VacationCompensatory])
}
