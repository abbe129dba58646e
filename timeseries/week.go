package timeseries

import (
	"math"
	"time"
)

const week = 7 * 24 * time.Hour

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek is the preceding (or same) Sunday at midnight
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekOfYear numbers weeks the way the dashboard's charts always have: in
// UTC, weeks run Sunday to Saturday, week 1 is the week holding Jan 1, and
// the last days of December belong to week 1 when their week already holds
// the next Jan 1. This is not ISO 8601, time.ISOWeek would shift the
// weekly buckets by a day.
func WeekOfYear(t time.Time) int {
	t = t.UTC()
	if t.Month() == time.December && t.Day() > 25 {
		nextYearStart := time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		endOfWeek := startOfWeek(t).Add(week - time.Millisecond)
		if nextYearStart.Before(endOfWeek) {
			return 1
		}
	}
	yearStart := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearStartWeek := startOfWeek(yearStart).Add(-time.Millisecond)
	diff := float64(t.Sub(yearStartWeek)) / float64(week)
	return int(math.Ceil(diff))
}
