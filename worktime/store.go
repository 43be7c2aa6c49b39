/*
store.go - Persistence interfaces for attendance records, balances, history

PURPOSE:
  Defines the boundary between the accounting engine and the database. The
  engine never talks to a concrete database; it receives a Store (usually a
  TxStore) by injection and performs every read-modify-write inside WithTx.

KEY INTERFACES:
  Store:   day records, balances, append-only history, holiday calendar
  TxStore: adds WithTx for atomic multi-record operations

HISTORY CONTRACT:
  History is APPEND-ONLY. There is no update or delete for history entries;
  a wrong mutation is corrected by a compensating mutation, never by editing
  the record of the original one.

ATOMICITY CONTRACT:
  Concurrent balance-affecting operations for the same employee (a clock-out
  accrual, a vacation debit, a remote-work clawback) must not overwrite one
  another. Every such operation reads and writes the balance inside a single
  WithTx; the transaction either commits fully or leaves no trace.

IMPLEMENTATIONS:
  - worktime/store: in-memory (tests, development)
  - store/sqlite:   production SQLite

SEE ALSO:
  - ledger.go: balance mutation built on these interfaces
*/
package worktime

import (
	"context"
	"time"
)

// =============================================================================
// STORE
// =============================================================================

// Store is the persistence surface of the engine.
//
// Day/Balance return nil (with a nil error) when no record exists; a missing
// balance reads as zero but is a hard stop for debits (see ledger.go).
type Store interface {
	// Day returns the daily record for employee+date, or nil if none exists.
	Day(ctx context.Context, employeeID, date string) (*DailyRecord, error)

	// PutDay writes the full daily record for employee+date.
	PutDay(ctx context.Context, employeeID, date string, rec *DailyRecord) error

	// DaysInMonth returns all daily records of the employee in the given
	// month, keyed by date (YYYY-MM-DD).
	DaysInMonth(ctx context.Context, employeeID string, year int, month time.Month) (map[string]*DailyRecord, error)

	// Balance returns the employee's balance document, or nil if none exists.
	Balance(ctx context.Context, employeeID string) (*Balance, error)

	// PutBalance writes the employee's balance document, creating it if absent.
	PutBalance(ctx context.Context, employeeID string, b Balance) error

	// AppendHistory appends one audit entry. Append-only: no update, no delete.
	AppendHistory(ctx context.Context, e HistoryEntry) error

	// History returns the employee's audit entries, newest first.
	History(ctx context.Context, employeeID string) ([]HistoryEntry, error)

	// Holidays returns the full holiday calendar.
	Holidays(ctx context.Context) ([]Holiday, error)

	// PutHoliday upserts one holiday.
	PutHoliday(ctx context.Context, h Holiday) error

	// DeleteHoliday removes a holiday by ID.
	DeleteHoliday(ctx context.Context, id string) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support. Every balance-affecting
// engine operation runs inside exactly one WithTx call.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view of the store.
	// If fn returns an error the transaction is rolled back and nothing is
	// persisted; otherwise everything fn wrote commits together.
	WithTx(ctx context.Context, fn func(Store) error) error
}
