// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type dayKey struct {
	EmployeeID string
	Date       string
}

type Memory struct {
	mu       sync.RWMutex
	days     map[dayKey]*worktime.DailyRecord
	balances map[string]worktime.Balance
	history  map[string][]worktime.HistoryEntry
	holidays map[string]worktime.Holiday
}

func NewMemory() *Memory {
	return &Memory{
		days:     make(map[dayKey]*worktime.DailyRecord),
		balances: make(map[string]worktime.Balance),
		history:  make(map[string][]worktime.HistoryEntry),
		holidays: make(map[string]worktime.Holiday),
	}
}

var _ worktime.TxStore = (*Memory)(nil)

// =============================================================================
// DAY RECORDS
// =============================================================================

func (m *Memory) Day(_ context.Context, employeeID, date string) (*worktime.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dayLocked(employeeID, date), nil
}

func (m *Memory) dayLocked(employeeID, date string) *worktime.DailyRecord {
	rec, ok := m.days[dayKey{employeeID, date}]
	if !ok {
		return nil
	}
	// Hand out a copy: callers mutate and PutDay; internal state must not
	// change until then (WithTx rollback depends on it).
	return copyDay(rec)
}

func (m *Memory) PutDay(_ context.Context, employeeID, date string, rec *worktime.DailyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putDayLocked(employeeID, date, rec)
	return nil
}

func (m *Memory) putDayLocked(employeeID, date string, rec *worktime.DailyRecord) {
	m.days[dayKey{employeeID, date}] = copyDay(rec)
}

func (m *Memory) DaysInMonth(_ context.Context, employeeID string, year int, month time.Month) (map[string]*worktime.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	out := make(map[string]*worktime.DailyRecord)
	for k, rec := range m.days {
		if k.EmployeeID == employeeID && len(k.Date) >= len(prefix) && k.Date[:len(prefix)] == prefix {
			out[k.Date] = copyDay(rec)
		}
	}
	return out, nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (m *Memory) Balance(_ context.Context, employeeID string) (*worktime.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceLocked(employeeID), nil
}

func (m *Memory) balanceLocked(employeeID string) *worktime.Balance {
	b, ok := m.balances[employeeID]
	if !ok {
		return nil
	}
	return &b
}

func (m *Memory) PutBalance(_ context.Context, employeeID string, b worktime.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[employeeID] = b
	return nil
}

// =============================================================================
// HISTORY (append-only)
// =============================================================================

func (m *Memory) AppendHistory(_ context.Context, e worktime.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[e.EmployeeID] = append(m.history[e.EmployeeID], e)
	return nil
}

func (m *Memory) History(_ context.Context, employeeID string) ([]worktime.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.history[employeeID]
	out := make([]worktime.HistoryEntry, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- { // newest first
		out = append(out, src[i])
	}
	return out, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) Holidays(_ context.Context) ([]worktime.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]worktime.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	return out, nil
}

func (m *Memory) PutHoliday(_ context.Context, h worktime.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn against the store under one lock. For the memory store
// atomicity is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(worktime.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	days     map[dayKey]*worktime.DailyRecord
	balances map[string]worktime.Balance
	history  map[string][]worktime.HistoryEntry
	holidays map[string]worktime.Holiday
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		days:     make(map[dayKey]*worktime.DailyRecord, len(m.days)),
		balances: make(map[string]worktime.Balance, len(m.balances)),
		history:  make(map[string][]worktime.HistoryEntry, len(m.history)),
		holidays: make(map[string]worktime.Holiday, len(m.holidays)),
	}
	for k, v := range m.days {
		s.days[k] = copyDay(v)
	}
	for k, v := range m.balances {
		s.balances[k] = v
	}
	for k, v := range m.history {
		s.history[k] = append([]worktime.HistoryEntry{}, v...)
	}
	for k, v := range m.holidays {
		s.holidays[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.days = s.days
	m.balances = s.balances
	m.history = s.history
	m.holidays = s.holidays
}

// txView routes Store calls back to the locked parent without re-locking.
type txView struct {
	parent *Memory
}

func (tv *txView) Day(_ context.Context, employeeID, date string) (*worktime.DailyRecord, error) {
	return tv.parent.dayLocked(employeeID, date), nil
}

func (tv *txView) PutDay(_ context.Context, employeeID, date string, rec *worktime.DailyRecord) error {
	tv.parent.putDayLocked(employeeID, date, rec)
	return nil
}

func (tv *txView) DaysInMonth(_ context.Context, employeeID string, year int, month time.Month) (map[string]*worktime.DailyRecord, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	out := make(map[string]*worktime.DailyRecord)
	for k, rec := range tv.parent.days {
		if k.EmployeeID == employeeID && len(k.Date) >= len(prefix) && k.Date[:len(prefix)] == prefix {
			out[k.Date] = copyDay(rec)
		}
	}
	return out, nil
}

func (tv *txView) Balance(_ context.Context, employeeID string) (*worktime.Balance, error) {
	return tv.parent.balanceLocked(employeeID), nil
}

func (tv *txView) PutBalance(_ context.Context, employeeID string, b worktime.Balance) error {
	tv.parent.balances[employeeID] = b
	return nil
}

func (tv *txView) AppendHistory(_ context.Context, e worktime.HistoryEntry) error {
	tv.parent.history[e.EmployeeID] = append(tv.parent.history[e.EmployeeID], e)
	return nil
}

func (tv *txView) History(_ context.Context, employeeID string) ([]worktime.HistoryEntry, error) {
	src := tv.parent.history[employeeID]
	out := make([]worktime.HistoryEntry, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

func (tv *txView) Holidays(_ context.Context) ([]worktime.Holiday, error) {
	out := make([]worktime.Holiday, 0, len(tv.parent.holidays))
	for _, h := range tv.parent.holidays {
		out = append(out, h)
	}
	return out, nil
}

func (tv *txView) PutHoliday(_ context.Context, h worktime.Holiday) error {
	tv.parent.holidays[h.ID] = h
	return nil
}

func (tv *txView) DeleteHoliday(_ context.Context, id string) error {
	delete(tv.parent.holidays, id)
	return nil
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func copyDay(rec *worktime.DailyRecord) *worktime.DailyRecord {
	if rec == nil {
		return nil
	}
	out := &worktime.DailyRecord{
		Start:             copyEvents(rec.Start),
		GPS:               copyEvents(rec.GPS),
		End:               copyEvents(rec.End),
		Vacations:         append([]worktime.VacationInterval(nil), rec.Vacations...),
		DailyCompensatory: rec.DailyCompensatory,
	}
	return out
}

func copyEvents(evs []worktime.AttendanceEvent) []worktime.AttendanceEvent {
	if evs == nil {
		return nil
	}
	out := make([]worktime.AttendanceEvent, len(evs))
	copy(out, evs)
	for i := range out {
		if out[i].DurationMinutes != nil {
			d := *out[i].DurationMinutes
			out[i].DurationMinutes = &d
		}
	}
	return out
}
