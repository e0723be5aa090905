package timeutil

import "time"

// HMS is a duration magnitude broken into clock components.
type HMS struct {
	Hours   int
	Minutes int
	Seconds int
}

// MinutesBetween returns the whole-minute difference between two timestamps.
// Both timestamps are truncated down to their minute boundary before
// differencing, so comparing 13:45:59 to 13:15:00 yields 30, not 31.
// The result is symmetric: MinutesBetween(a, b) == MinutesBetween(b, a).
func MinutesBetween(a, b time.Time) int {
	a = a.Truncate(time.Minute)
	b = b.Truncate(time.Minute)

	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Seconds()) / 60
}

// MidnightToday returns the start of the current local day for the given time.
func MidnightToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// MidnightTomorrow returns the start of the next local day for the given time.
func MidnightTomorrow(now time.Time) time.Time {
	return MidnightToday(now).Add(24 * time.Hour)
}

// AddMinutes returns date shifted by n minutes. Negative n shifts backwards.
func AddMinutes(date time.Time, n int) time.Time {
	return date.Add(time.Duration(n) * time.Minute)
}

// RoundToStep rounds the minute component of date to the nearest multiple of
// step minutes, dropping seconds and sub-second precision. If rounding up
// would pass max, the result is pulled back down one step instead.
func RoundToStep(date time.Time, step int, max time.Time) time.Time {
	if step <= 0 {
		return date.Truncate(time.Minute)
	}

	rounded := ((date.Minute() + step/2) / step) * step
	result := time.Date(date.Year(), date.Month(), date.Day(), date.Hour(), rounded, 0, 0, date.Location())
	if result.After(max) {
		result = result.Add(-time.Duration(step) * time.Minute)
	}
	return result
}

// HMSBetween returns the magnitude of the difference between two timestamps
// as hours, minutes and seconds, with hours taken mod 24.
func HMSBetween(a, b time.Time) HMS {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}

	seconds := int(diff.Seconds())
	return HMS{
		Hours:   (seconds / 3600) % 24,
		Minutes: (seconds / 60) % 60,
		Seconds: seconds % 60,
	}
}

// IsBetween reports whether now falls inside the (start, end] window.
func IsBetween(now, start, end time.Time) bool {
	return start.Before(now) && !now.After(end)
}
