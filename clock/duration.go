package clock

import (
	"errors"
	"fmt"
)

// =============================================================================
// NET WORK DURATION
// =============================================================================
// The single canonical worked-duration calculation. Clock-out stamping, memo
// edits, and monthly reporting all go through NetWork; nothing else in the
// repository re-derives worked time from punches.

// ErrInvalidSpan is returned when end is not strictly after start, or either
// endpoint falls outside the day.
var ErrInvalidSpan = errors.New("invalid work span")

// Duration is a net worked duration decomposed for display.
// Hours and Minutes are the integer decomposition of TotalSeconds; residual
// seconds are discarded, not rounded.
type Duration struct {
	Hours        int
	Minutes      int
	TotalSeconds int
}

// TotalMinutes returns the duration truncated to whole minutes.
func (d Duration) TotalMinutes() int { return d.TotalSeconds / SecondsPerMinute }

func (d Duration) String() string {
	return fmt.Sprintf("%d시간 %d분", d.Hours, d.Minutes)
}

func newDuration(totalSeconds int) Duration {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return Duration{
		Hours:        totalSeconds / SecondsPerHour,
		Minutes:      (totalSeconds % SecondsPerHour) / SecondsPerMinute,
		TotalSeconds: totalSeconds,
	}
}

// NetWork computes the net worked duration for one day:
//
//	net = (end - start) - exclusion overlap - vacation overlap
//
// start and end are seconds-of-day; vacations are same-day windows in
// seconds-of-day (already validated by the caller). The result is floored
// at zero: over-subtraction of overlapping windows cannot go negative.
//
// Returns ErrInvalidSpan if end <= start or either endpoint is outside the
// day. Callers log and treat the day as zero-duration; no panic, ever.
func NetWork(start, end int, vacations []Window) (Duration, error) {
	if start < 0 || end > SecondsPerDay || end <= start {
		return Duration{}, fmt.Errorf("%w: start=%d end=%d", ErrInvalidSpan, start, end)
	}

	net := end - start
	net -= TotalExclusion(start, end)
	for _, v := range vacations {
		net -= Overlap(start, end, v.Start, v.End)
	}

	return newDuration(net), nil
}

// NetWorkStrings is NetWork over raw punch strings. It parses both endpoints
// and fails with ErrBadClock before any arithmetic happens.
func NetWorkStrings(startClock, endClock string, vacations []Window) (Duration, error) {
	start, err := ParseSeconds(startClock)
	if err != nil {
		return Duration{}, err
	}
	end, err := ParseSeconds(endClock)
	if err != nil {
		return Duration{}, err
	}
	return NetWork(start, end, vacations)
}
