/*
errors.go - Centralized error types for the accounting engine

PURPOSE:
  All engine error types in one place. Failures here are recovered at the
  boundary of a single user action (one clock-in, one clock-out, one leave
  request): a failed operation leaves no partial state and never crashes the
  host process.

ERROR CATEGORIES:
  1. Input errors    - unparseable clock strings, invalid intervals
  2. Balance errors  - insufficient balance, missing balance document
  3. Record errors   - settling a day that has no clock-in

USAGE:
  if errors.Is(err, worktime.ErrInsufficientBalance) {
      // surface "insufficient leave balance" to the user; nothing was written
  }

SEE ALSO:
  - ledger.go: produces the balance errors
  - api: maps these onto HTTP status codes
*/
package worktime

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when a debit would drive a balance
	// negative. The mutation is rejected before commit; no audit entry exists.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrBalanceNotFound is returned when a debit targets an employee with no
	// balance document. Reads treat a missing document as zero, but the first
	// debit is a hard stop: fabricating a balance implicitly is unsafe.
	ErrBalanceNotFound = errors.New("balance document not found")

	// ErrNoClockIn is returned when settling a day with no clock-in event.
	ErrNoClockIn = errors.New("no clock-in recorded for day")

	// ErrDayNotFound is returned when an edit targets a nonexistent record.
	ErrDayNotFound = errors.New("daily record not found")

	// ErrEventNotFound is returned when an edit targets a nonexistent event.
	ErrEventNotFound = errors.New("attendance event not found")

	// ErrUnknownVacationType is returned for a leave request whose type is not
	// one of the four recognized values. No fallback debit is guessed.
	ErrUnknownVacationType = errors.New("unknown vacation type")

	// ErrInvalidVacationInterval is returned when an annual-leave style check
	// fails outright (e.g. end before start on an otherwise parseable pair).
	ErrInvalidVacationInterval = errors.New("invalid vacation interval")

	// ErrBadBalanceEncoding is returned by the codec for a suffixed string
	// whose numeric part does not parse.
	ErrBadBalanceEncoding = errors.New("bad balance encoding")
)

// =============================================================================
// STRUCTURED ERRORS - carry additional context
// =============================================================================

// InsufficientBalanceError reports a rejected debit with the shortfall.
type InsufficientBalanceError struct {
	EmployeeID string
	Field      BalanceField
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %s: available %s, requested %s",
		e.Field, e.EmployeeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// BalanceNotFoundError reports a debit against a nonexistent balance document.
type BalanceNotFoundError struct {
	EmployeeID string
}

func (e *BalanceNotFoundError) Error() string {
	return fmt.Sprintf("no balance document for %s; refusing to debit", e.EmployeeID)
}

func (e *BalanceNotFoundError) Unwrap() error { return ErrBalanceNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is caused by invalid client input
// or an unsatisfiable request rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrUnknownVacationType) ||
		errors.Is(err, ErrInvalidVacationInterval) ||
		errors.Is(err, ErrNoClockIn)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBalanceNotFound) ||
		errors.Is(err, ErrDayNotFound) ||
		errors.Is(err, ErrEventNotFound)
}
