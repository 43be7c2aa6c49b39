package worktime

// =============================================================================
// SUFFIX-STRING CODEC
// =============================================================================
// Balances are persisted and displayed as human-readable suffixed strings:
// "12일" for annual days, "3.5시간" for compensatory hours. Internally all
// arithmetic runs on decimal.Decimal; the suffix never travels through math.
//
// Parsing tolerates absence: an empty string decodes to zero, matching the
// treat-missing-as-zero read contract. Values that are multiples of 0.1
// round-trip exactly (decimal, not float).

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	suffixDays  = "일"
	suffixHours = "시간"
)

// FormatDays encodes an annual-leave day count, e.g. "12일", "0.5일".
func FormatDays(d decimal.Decimal) string {
	return d.String() + suffixDays
}

// FormatHours encodes a compensatory-leave hour count, e.g. "3.5시간".
func FormatHours(d decimal.Decimal) string {
	return d.String() + suffixHours
}

// ParseDays decodes a "N일" string. Empty input is zero. A bare number
// without the suffix is accepted for tolerance of hand-edited records.
func ParseDays(s string) (decimal.Decimal, error) {
	return parseSuffixed(s, suffixDays)
}

// ParseHours decodes a "N.N시간" string. Empty input is zero.
func ParseHours(s string) (decimal.Decimal, error) {
	return parseSuffixed(s, suffixHours)
}

func parseSuffixed(s, suffix string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrBadBalanceEncoding, s)
	}
	return d, nil
}

// FormatBalance encodes a field value with the unit that field uses.
func FormatBalance(f BalanceField, v decimal.Decimal) string {
	if f == FieldAnnual {
		return FormatDays(v)
	}
	return FormatHours(v)
}
