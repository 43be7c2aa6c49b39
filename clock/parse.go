/*
Package clock provides same-day time arithmetic for attendance punches.

PURPOSE:
  Everything in the attendance engine ultimately reduces to arithmetic over
  seconds-of-day: when did the employee clock in, when did they clock out,
  and how much of that span overlaps lunch, buffers, and approved leave.
  This package owns that arithmetic and nothing else.

KEY CONCEPTS:
  - Second-of-day: an int in [0, 86400). All parsing normalizes to this.
  - Overlap: max(0, min(aEnd,bEnd) - max(aStart,bStart)). Zero if disjoint.
  - Exclusion windows: fixed daily intervals subtracted from every span.

INPUT FORMATS:
  Punch timestamps arrive as locale clock strings:
    "오전 9:30:00"   Korean AM, maps to 09:30:00
    "오후 6:15:00"   Korean PM, maps to 18:15:00
    "18:15:00"       bare 24-hour
    "18:15"          bare 24-hour, no seconds
  PM hours 1-11 gain 12; 12 PM stays 12; 12 AM becomes 0.

ERROR POLICY:
  Malformed input returns an error, never panics. Callers skip or zero-fill;
  a bad punch string must degrade to "no duration recorded", not a crash.

LIMITATION:
  All arithmetic is within one calendar day. Spans that cross midnight are
  not supported; ends at or before starts are rejected.

SEE ALSO:
  - window.go: fixed exclusion windows
  - duration.go: net worked-duration calculation
*/
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	SecondsPerMinute = 60
	SecondsPerHour   = 3600
	SecondsPerDay    = 86400
)

// Korean meridiem markers as produced by toLocaleTimeString in ko-KR.
const (
	meridiemAM = "오전"
	meridiemPM = "오후"
)

// ErrBadClock is returned for any clock string that cannot be parsed.
var ErrBadClock = errors.New("unparsable clock time")

// =============================================================================
// PARSING
// =============================================================================

// ParseSeconds parses a clock string into a second-of-day offset.
//
// Accepted forms:
//   "오전 H:MM[:SS]"  Korean AM
//   "오후 H:MM[:SS]"  Korean PM
//   "HH:MM[:SS]"      24-hour
//
// Returns ErrBadClock (wrapped with the offending input) for anything else.
func ParseSeconds(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrBadClock)
	}

	am, pm := false, false
	switch {
	case strings.HasPrefix(s, meridiemAM):
		am = true
		s = strings.TrimSpace(strings.TrimPrefix(s, meridiemAM))
	case strings.HasPrefix(s, meridiemPM):
		pm = true
		s = strings.TrimSpace(strings.TrimPrefix(s, meridiemPM))
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrBadClock, s)
	}

	// Meridiem adjustment: PM 1-11 -> +12, 12 PM stays 12, 12 AM -> 0.
	if pm && hour >= 1 && hour <= 11 {
		hour += 12
	}
	if am && hour == 12 {
		hour = 0
	}

	return hour*SecondsPerHour + minute*SecondsPerMinute + second, nil
}

// ParseMinutes parses a clock string and truncates to whole minutes-of-day.
// Vacation intervals are stored with minute precision ("HH:MM").
func ParseMinutes(s string) (int, error) {
	sec, err := ParseSeconds(s)
	if err != nil {
		return 0, err
	}
	return sec / SecondsPerMinute, nil
}

// =============================================================================
// INTERVAL ARITHMETIC
// =============================================================================

// Overlap returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd), in the same unit the inputs are expressed in.
// Zero for disjoint or inverted intervals.
func Overlap(aStart, aEnd, bStart, bEnd int) int {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
