// Package clock holds the date calculations shared by the cached read
// paths. Functions take an explicit now so callers stay testable.
package clock

import "time"

// Today returns the calendar date of now in now's location.
func Today(now time.Time) string {
	return now.Format("2006-01-02")
}

// OneMonthBefore returns the instant one calendar month before now.
func OneMonthBefore(now time.Time) time.Time {
	return now.AddDate(0, -1, 0)
}

// UntilEndOfDay returns the duration from now until the next local
// midnight. Used as the TTL for date-scoped cache keys so they roll
// over with the calendar day.
func UntilEndOfDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}
