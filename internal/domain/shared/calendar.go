package shared

import "time"

// AddMonths adds n calendar months to t, keeping the time of day and
// location. When the day of month does not exist in the target month the
// result is clamped to that month's last day: Jan 31 + 1 month is Feb 28
// (Feb 29 in leap years), never Mar 3.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := DaysIn(firstOfTarget.Year(), firstOfTarget.Month())
	if day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay truncates t to midnight in its location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole days from a to b (negative when b is before a)
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
