package clock

// =============================================================================
// EXCLUSION WINDOWS
// =============================================================================
// Fixed daily time-of-day windows that never count as worked time, no matter
// when the employee punched. These mirror the company work rules:
//
//   09:30-09:45  arrival prep
//   11:30-13:00  lunch
//   18:00-18:15  departure wrap-up
//
// A standard 09:30-18:30 day nets exactly 7 hours after subtracting all
// three windows. The windows are company-wide constants, not per-employee
// configuration.

// Window is a half-open [Start, End) interval in seconds-of-day.
type Window struct {
	Start int
	End   int
}

// Len returns the window length in seconds.
func (w Window) Len() int { return w.End - w.Start }

// Exclusions is the fixed, ordered list of non-working windows.
var Exclusions = []Window{
	{Start: 9*SecondsPerHour + 30*SecondsPerMinute, End: 9*SecondsPerHour + 45*SecondsPerMinute},
	{Start: 11*SecondsPerHour + 30*SecondsPerMinute, End: 13 * SecondsPerHour},
	{Start: 18 * SecondsPerHour, End: 18*SecondsPerHour + 15*SecondsPerMinute},
}

// TotalExclusion returns the number of seconds of [start, end) covered by
// exclusion windows. The windows are pairwise disjoint, so summing per-window
// overlap is exact and order-independent.
func TotalExclusion(start, end int) int {
	total := 0
	for _, w := range Exclusions {
		total += Overlap(start, end, w.Start, w.End)
	}
	return total
}
