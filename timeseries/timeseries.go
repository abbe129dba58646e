// Package timeseries turns sparse subgraph day data into the dense series the
// charts expect, and computes the change metrics shown in the stat panels.
//
// Everything in here is a pure function of its arguments, the current time
// is always passed in.
package timeseries

import (
	"sort"
	"time"

	"github.com/emiswap/info-api/models"
)

// OneDay in seconds, the subgraph's day bucket size
const OneDay = int64(24 * 60 * 60)

// DayIndex is floor(date / OneDay)
func DayIndex(date int64) int64 {
	if date < 0 && date%OneDay != 0 {
		return date/OneDay - 1
	}
	return date / OneDay
}

// carry holds the values copied forward onto synthesized days
type carry struct {
	liquidity  *float64
	price      *float64
	mostLiquid []string
}

func carryFrom(p models.DailyDataPoint) carry {
	return carry{liquidity: p.LiquidityUSD, price: p.PriceUSD, mostLiquid: p.MostLiquid}
}

func (c carry) point(date int64) models.DailyDataPoint {
	p := models.DailyDataPoint{Date: date}
	if c.liquidity != nil {
		l := *c.liquidity
		p.LiquidityUSD = &l
	}
	if c.price != nil {
		pr := *c.price
		p.PriceUSD = &pr
	}
	if len(c.mostLiquid) > 0 {
		p.MostLiquid = append([]string(nil), c.mostLiquid...)
	}
	return p
}

// FillDailyGaps returns points plus one synthesized point for every missing
// day up to the last complete day before now. Synthesized points have zero
// volume and carry forward liquidity, price and most liquid entities from
// the last day seen, they are never interpolated. When earliest falls on a
// day before the first point the series starts on earliest's day, at the
// first point's time of day, with absent carry values until the first real
// day.
//
// The result is a new slice and is not sorted.
func FillDailyGaps(points []models.DailyDataPoint, earliest int64, now time.Time) []models.DailyDataPoint {
	ret := make([]models.DailyDataPoint, len(points))
	copy(ret, points)

	present := make(map[int64]models.DailyDataPoint, len(points))
	var start int64
	haveStart := false
	for _, p := range points {
		di := DayIndex(p.Date)
		if _, ok := present[di]; !ok {
			present[di] = p
		}
		if !haveStart || p.Date < start {
			start = p.Date
			haveStart = true
		}
	}
	if earliest > 0 {
		e := DayIndex(earliest)
		switch {
		case !haveStart:
			start = e * OneDay
			haveStart = true
		case e < DayIndex(start):
			// step back whole days so synthesized dates keep the real points' time of day
			start -= (DayIndex(start) - e) * OneDay
		}
	}
	if !haveStart {
		// no points and no window, nothing to anchor on
		return ret
	}

	var latest carry
	if p, ok := present[DayIndex(start)]; ok {
		latest = carryFrom(p)
	}

	end := now.Unix() - OneDay
	for ts := start; ts < end; ts += OneDay {
		next := ts + OneDay
		if p, ok := present[DayIndex(next)]; ok {
			latest = carryFrom(p)
			continue
		}
		ret = append(ret, latest.point(next))
	}
	return ret
}

// SortByDateAscending returns a sorted copy. The sort is stable so equal
// dates keep their input order.
func SortByDateAscending(points []models.DailyDataPoint) []models.DailyDataPoint {
	ret := make([]models.DailyDataPoint, len(points))
	copy(ret, points)
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Date < ret[j].Date
	})
	return ret
}

// BucketWeekly sums volume per week of year over an ascending daily series.
// A new bucket starts whenever the week number changes, its date is the
// first daily point of that week.
func BucketWeekly(sorted []models.DailyDataPoint) []models.WeeklyBucket {
	var ret []models.WeeklyBucket
	currentWeek := -1
	for _, p := range sorted {
		week := WeekOfYear(time.Unix(p.Date, 0))
		if week != currentWeek || len(ret) == 0 {
			currentWeek = week
			ret = append(ret, models.WeeklyBucket{Date: p.Date})
		}
		ret[len(ret)-1].WeeklyVolumeUSD += p.VolumeUSD
	}
	return ret
}

// BuildChart runs the full pipeline: fill, sort, then bucket by week
func BuildChart(points []models.DailyDataPoint, earliest int64, now time.Time) ([]models.DailyDataPoint, []models.WeeklyBucket) {
	daily := SortByDateAscending(FillDailyGaps(points, earliest, now))
	return daily, BucketWeekly(daily)
}

// TrimDaily drops points before from, the input must be sorted
func TrimDaily(daily []models.DailyDataPoint, from int64) []models.DailyDataPoint {
	i := sort.Search(len(daily), func(i int) bool { return daily[i].Date >= from })
	return daily[i:]
}

// TrimWeekly drops buckets that start before the week containing from
func TrimWeekly(weekly []models.WeeklyBucket, from int64) []models.WeeklyBucket {
	i := sort.Search(len(weekly), func(i int) bool { return weekly[i].Date >= from })
	if i > 0 && from-weekly[i-1].Date < 7*OneDay {
		// keep the bucket from was inside of
		i--
	}
	return weekly[i:]
}
