package timeseries

import "math"

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PercentChange returns (current-previous)/previous*100. Every call site
// gets the same policy: a zero or missing previous value, or anything
// non-finite, is reported as 0 (no change) so the panels always render.
func PercentChange(current, previous float64) float64 {
	if previous == 0 || !finite(current) || !finite(previous) {
		return 0
	}
	c := (current - previous) / previous * 100
	if !finite(c) {
		return 0
	}
	return c
}

// TwoPointPercentChange takes three readings of a cumulative counter (now,
// 24h ago, 48h ago) and returns the last 24h delta and its percent change
// against the 24h before it.
func TwoPointPercentChange(latest, oneDayAgo, twoDaysAgo float64) (float64, float64) {
	current := latest - oneDayAgo
	previous := oneDayAgo - twoDaysAgo
	if !finite(current) {
		current = 0
	}
	return current, PercentChange(current, previous)
}
