package utils

import "time"

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last instant of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// PreviousMonth returns the first day of the month before t's month.
func PreviousMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, -1, 0)
}

// PeriodStart returns the beginning of the current budget period containing
// t: the current calendar month, ISO week (Monday) or calendar year.
func PeriodStart(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		weekday := int(t.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return day.AddDate(0, 0, -(weekday - 1))
	case "yearly":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default: // monthly
		return StartOfMonth(t)
	}
}
