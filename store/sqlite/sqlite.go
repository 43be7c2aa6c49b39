/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements worktime.Store and worktime.TxStore using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  day_records: one row per employee+date, the full daily record as JSON
  balances:    one row per employee, decimal values stored as strings
  history:     append-only audit log of every balance mutation
  holidays:    company holiday calendar

APPEND-ONLY ENFORCEMENT:
  The history table has no UPDATE or DELETE path. A wrong mutation is
  corrected by a compensating mutation, never by editing the original row.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := worktime.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - worktime/store.go: interface definitions
  - worktime/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/worktime"
)

// Store implements worktime.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	q  queries
}

var _ worktime.TxStore = (*Store)(nil)

// New creates a SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and it keeps
	// ":memory:" databases from splitting across pool connections.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, q: queries{db: db}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Daily attendance records, one per employee+date.
	CREATE TABLE IF NOT EXISTS day_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		record_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_day_records_date
		ON day_records(date);

	-- Leave balances, one row per employee. Decimals stored as strings.
	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT PRIMARY KEY,
		annual TEXT NOT NULL,
		compensatory TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Audit log (append-only: no UPDATE, no DELETE).
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		field TEXT NOT NULL,
		before_value TEXT NOT NULL,
		after_value TEXT NOT NULL,
		change_value TEXT NOT NULL,
		reason TEXT NOT NULL,
		details_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_employee
		ON history(employee_id, created_at DESC);

	-- Holiday calendar.
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORE INTERFACE (locking wrappers)
// =============================================================================

func (s *Store) Day(ctx context.Context, employeeID, date string) (*worktime.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.day(ctx, employeeID, date)
}

func (s *Store) PutDay(ctx context.Context, employeeID, date string, rec *worktime.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.putDay(ctx, employeeID, date, rec)
}

func (s *Store) DaysInMonth(ctx context.Context, employeeID string, year int, month time.Month) (map[string]*worktime.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.daysInMonth(ctx, employeeID, year, month)
}

func (s *Store) Balance(ctx context.Context, employeeID string) (*worktime.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.balance(ctx, employeeID)
}

func (s *Store) PutBalance(ctx context.Context, employeeID string, b worktime.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.putBalance(ctx, employeeID, b)
}

func (s *Store) AppendHistory(ctx context.Context, e worktime.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.appendHistory(ctx, e)
}

func (s *Store) History(ctx context.Context, employeeID string) ([]worktime.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.history(ctx, employeeID)
}

func (s *Store) Holidays(ctx context.Context) ([]worktime.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.holidays(ctx)
}

func (s *Store) PutHoliday(ctx context.Context, h worktime.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.putHoliday(ctx, h)
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.deleteHoliday(ctx, id)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn within one database transaction. The Store passed to fn
// runs every operation on the same *sql.Tx without re-locking, so fn may call
// it freely while the outer lock is held.
func (s *Store) WithTx(ctx context.Context, fn func(worktime.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: queries{db: sqlTx}}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the lockless transactional view handed to WithTx callbacks.
type txStore struct {
	q queries
}

var _ worktime.Store = (*txStore)(nil)

func (ts *txStore) Day(ctx context.Context, employeeID, date string) (*worktime.DailyRecord, error) {
	return ts.q.day(ctx, employeeID, date)
}

func (ts *txStore) PutDay(ctx context.Context, employeeID, date string, rec *worktime.DailyRecord) error {
	return ts.q.putDay(ctx, employeeID, date, rec)
}

func (ts *txStore) DaysInMonth(ctx context.Context, employeeID string, year int, month time.Month) (map[string]*worktime.DailyRecord, error) {
	return ts.q.daysInMonth(ctx, employeeID, year, month)
}

func (ts *txStore) Balance(ctx context.Context, employeeID string) (*worktime.Balance, error) {
	return ts.q.balance(ctx, employeeID)
}

func (ts *txStore) PutBalance(ctx context.Context, employeeID string, b worktime.Balance) error {
	return ts.q.putBalance(ctx, employeeID, b)
}

func (ts *txStore) AppendHistory(ctx context.Context, e worktime.HistoryEntry) error {
	return ts.q.appendHistory(ctx, e)
}

func (ts *txStore) History(ctx context.Context, employeeID string) ([]worktime.HistoryEntry, error) {
	return ts.q.history(ctx, employeeID)
}

func (ts *txStore) Holidays(ctx context.Context) ([]worktime.Holiday, error) {
	return ts.q.holidays(ctx)
}

func (ts *txStore) PutHoliday(ctx context.Context, h worktime.Holiday) error {
	return ts.q.putHoliday(ctx, h)
}

func (ts *txStore) DeleteHoliday(ctx context.Context, id string) error {
	return ts.q.deleteHoliday(ctx, id)
}

// =============================================================================
// QUERIES (shared between Store and txStore)
// =============================================================================

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db execQuerier
}

// dayDoc is the JSON shape of one day_records row.
type dayDoc struct {
	Start             []eventDoc    `json:"start,omitempty"`
	GPS               []eventDoc    `json:"gps,omitempty"`
	End               []eventDoc    `json:"end,omitempty"`
	Vacations         []vacationDoc `json:"vacations,omitempty"`
	DailyCompensatory string        `json:"dailyCompensatory,omitempty"`
}

type eventDoc struct {
	Clock           string            `json:"clock"`
	GPSCoordinate   string            `json:"gpsCoordinate,omitempty"`
	Address         string            `json:"address,omitempty"`
	WorkType        worktime.WorkType `json:"workType,omitempty"`
	Details         string            `json:"details,omitempty"`
	DurationMinutes *int              `json:"durationMinutes,omitempty"`
}

type vacationDoc struct {
	Start string                `json:"start"`
	End   string                `json:"end"`
	Type  worktime.VacationType `json:"type"`
}

func encodeDay(rec *worktime.DailyRecord) ([]byte, error) {
	doc := dayDoc{
		Start: encodeEvents(rec.Start),
		GPS:   encodeEvents(rec.GPS),
		End:   encodeEvents(rec.End),
	}
	for _, iv := range rec.Vacations {
		doc.Vacations = append(doc.Vacations, vacationDoc{Start: iv.Start, End: iv.End, Type: iv.Type})
	}
	if !rec.DailyCompensatory.IsZero() {
		doc.DailyCompensatory = rec.DailyCompensatory.String()
	}
	return json.Marshal(doc)
}

func encodeEvents(evs []worktime.AttendanceEvent) []eventDoc {
	var out []eventDoc
	for _, ev := range evs {
		out = append(out, eventDoc{
			Clock:           ev.Clock,
			GPSCoordinate:   ev.GPSCoordinate,
			Address:         ev.Address,
			WorkType:        ev.WorkType,
			Details:         ev.Details,
			DurationMinutes: ev.DurationMinutes,
		})
	}
	return out
}

func decodeDay(data []byte) (*worktime.DailyRecord, error) {
	var doc dayDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode day record: %w", err)
	}

	rec := &worktime.DailyRecord{
		Start: decodeEvents(doc.Start),
		GPS:   decodeEvents(doc.GPS),
		End:   decodeEvents(doc.End),
	}
	for _, iv := range doc.Vacations {
		rec.Vacations = append(rec.Vacations, worktime.VacationInterval{Start: iv.Start, End: iv.End, Type: iv.Type})
	}
	if doc.DailyCompensatory != "" {
		d, err := decimal.NewFromString(doc.DailyCompensatory)
		if err != nil {
			return nil, fmt.Errorf("failed to decode daily compensatory snapshot: %w", err)
		}
		rec.DailyCompensatory = d
	}
	return rec, nil
}

func decodeEvents(docs []eventDoc) []worktime.AttendanceEvent {
	var out []worktime.AttendanceEvent
	for _, d := range docs {
		out = append(out, worktime.AttendanceEvent{
			Clock:           d.Clock,
			GPSCoordinate:   d.GPSCoordinate,
			Address:         d.Address,
			WorkType:        d.WorkType,
			Details:         d.Details,
			DurationMinutes: d.DurationMinutes,
		})
	}
	return out
}

func (q queries) day(ctx context.Context, employeeID, date string) (*worktime.DailyRecord, error) {
	var data []byte
	err := q.db.QueryRowContext(ctx,
		"SELECT record_json FROM day_records WHERE employee_id = ? AND date = ?",
		employeeID, date,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query day record: %w", err)
	}
	return decodeDay(data)
}

func (q queries) putDay(ctx context.Context, employeeID, date string, rec *worktime.DailyRecord) error {
	data, err := encodeDay(rec)
	if err != nil {
		return fmt.Errorf("failed to encode day record: %w", err)
	}

	query := `
		INSERT INTO day_records (employee_id, date, record_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			record_json = excluded.record_json,
			updated_at = excluded.updated_at
	`
	_, err = q.db.ExecContext(ctx, query,
		employeeID, date, string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write day record: %w", err)
	}
	return nil
}

func (q queries) daysInMonth(ctx context.Context, employeeID string, year int, month time.Month) (map[string]*worktime.DailyRecord, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	rows, err := q.db.QueryContext(ctx,
		"SELECT date, record_json FROM day_records WHERE employee_id = ? AND date LIKE ? ORDER BY date ASC",
		employeeID, prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query month: %w", err)
	}
	defer rows.Close()

	days := make(map[string]*worktime.DailyRecord)
	for rows.Next() {
		var date string
		var data []byte
		if err := rows.Scan(&date, &data); err != nil {
			return nil, fmt.Errorf("failed to scan day record: %w", err)
		}
		rec, err := decodeDay(data)
		if err != nil {
			return nil, err
		}
		days[date] = rec
	}
	return days, rows.Err()
}

func (q queries) balance(ctx context.Context, employeeID string) (*worktime.Balance, error) {
	var annual, compensatory string
	err := q.db.QueryRowContext(ctx,
		"SELECT annual, compensatory FROM balances WHERE employee_id = ?",
		employeeID,
	).Scan(&annual, &compensatory)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query balance: %w", err)
	}

	a, err := decimal.NewFromString(annual)
	if err != nil {
		return nil, fmt.Errorf("failed to decode annual balance: %w", err)
	}
	c, err := decimal.NewFromString(compensatory)
	if err != nil {
		return nil, fmt.Errorf("failed to decode compensatory balance: %w", err)
	}
	return &worktime.Balance{Annual: a, Compensatory: c}, nil
}

func (q queries) putBalance(ctx context.Context, employeeID string, b worktime.Balance) error {
	query := `
		INSERT INTO balances (employee_id, annual, compensatory, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			annual = excluded.annual,
			compensatory = excluded.compensatory,
			updated_at = excluded.updated_at
	`
	_, err := q.db.ExecContext(ctx, query,
		employeeID, b.Annual.String(), b.Compensatory.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write balance: %w", err)
	}
	return nil
}

func (q queries) appendHistory(ctx context.Context, e worktime.HistoryEntry) error {
	var detailsJSON []byte
	if len(e.Details) > 0 {
		detailsJSON, _ = json.Marshal(e.Details)
	}

	query := `
		INSERT INTO history
		(id, employee_id, field, before_value, after_value, change_value, reason, details_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		e.ID, e.EmployeeID, string(e.Field),
		e.Before.String(), e.After.String(), e.Change.String(),
		e.Reason, nullString(string(detailsJSON)),
		// Fixed-width timestamp: RFC3339Nano drops trailing zeros, which
		// would break the lexical ORDER BY in history().
		e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (q queries) history(ctx context.Context, employeeID string) ([]worktime.HistoryEntry, error) {
	query := `
		SELECT id, employee_id, field, before_value, after_value, change_value, reason, details_json, created_at
		FROM history
		WHERE employee_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := q.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []worktime.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanHistory(rows *sql.Rows) (worktime.HistoryEntry, error) {
	var (
		e           worktime.HistoryEntry
		field       string
		before      string
		after       string
		change      string
		detailsJSON sql.NullString
		createdAt   string
	)

	err := rows.Scan(&e.ID, &e.EmployeeID, &field, &before, &after, &change, &e.Reason, &detailsJSON, &createdAt)
	if err != nil {
		return e, fmt.Errorf("failed to scan history entry: %w", err)
	}

	e.Field = worktime.BalanceField(field)
	if e.Before, err = decimal.NewFromString(before); err != nil {
		return e, fmt.Errorf("failed to decode history amount: %w", err)
	}
	if e.After, err = decimal.NewFromString(after); err != nil {
		return e, fmt.Errorf("failed to decode history amount: %w", err)
	}
	if e.Change, err = decimal.NewFromString(change); err != nil {
		return e, fmt.Errorf("failed to decode history amount: %w", err)
	}
	if detailsJSON.Valid && detailsJSON.String != "" {
		json.Unmarshal([]byte(detailsJSON.String), &e.Details)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

func (q queries) holidays(ctx context.Context) ([]worktime.Holiday, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, date, name FROM holidays ORDER BY date ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []worktime.Holiday
	for rows.Next() {
		var h worktime.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (q queries) putHoliday(ctx context.Context, h worktime.Holiday) error {
	query := `
		INSERT INTO holidays (id, date, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name
	`
	_, err := q.db.ExecContext(ctx, query, h.ID, h.Date, h.Name)
	if err != nil {
		return fmt.Errorf("failed to write holiday: %w", err)
	}
	return nil
}

func (q queries) deleteHoliday(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
