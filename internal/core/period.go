package core

import (
	"fmt"
	"time"
)

// MonthBounds returns the first and last instant of t's calendar month in
// t's location. The end is 23:59:59.999 on the last day, both ends inclusive.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// DayBounds returns 00:00:00.000 and 23:59:59.999 of t's day.
func DayBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// MonthsElapsed counts calendar months from since to asOf, never less than one.
// An account created this month yields 1, one created two calendar months ago yields 2.
func MonthsElapsed(since, asOf time.Time) int {
	since = since.In(asOf.Location())
	months := (asOf.Year()-since.Year())*12 + int(asOf.Month()) - int(since.Month())
	if months < 1 {
		return 1
	}
	return months
}

// ReportPeriodStart is the first day of the month `back` months before now.
func ReportPeriodStart(now time.Time, back int) time.Time {
	return time.Date(now.Year(), now.Month()-time.Month(back), 1, 0, 0, 0, 0, now.Location())
}

// MonthKey formats the trend bucket key, e.g. "2025-03".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
