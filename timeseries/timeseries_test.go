package timeseries

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2021-03-01 00:00 UTC, a Monday
const base = int64(1614556800)

func day(n int) int64 {
	return base + int64(n)*OneDay
}

func TestFillDailyGapsDensity(t *testing.T) {
	tests := []struct {
		name     string
		points   []models.DailyDataPoint
		earliest int64
		now      int64
	}{
		{"empty", nil, base, day(10)},
		{"empty unaligned window", nil, base + 3600, day(10) + 7200},
		{"single point", []models.DailyDataPoint{{Date: base, VolumeUSD: 1}}, base, day(5)},
		{"sparse", []models.DailyDataPoint{
			{Date: day(0), VolumeUSD: 1},
			{Date: day(4), VolumeUSD: 2},
			{Date: day(9), VolumeUSD: 3},
		}, base, day(20)},
		{"unordered", []models.DailyDataPoint{
			{Date: day(9), VolumeUSD: 3},
			{Date: day(0), VolumeUSD: 1},
			{Date: day(4), VolumeUSD: 2},
		}, base, day(12)},
		{"window before first point", []models.DailyDataPoint{
			{Date: day(5), VolumeUSD: 1},
		}, base - 1, day(14)},
		{"window before unaligned point", []models.DailyDataPoint{
			{Date: 1000000000, VolumeUSD: 50},
		}, 1000000000 - 2*OneDay, 1000000000 + 3*OneDay},
		{"point on last day", []models.DailyDataPoint{
			{Date: day(0), VolumeUSD: 1},
			{Date: day(7), VolumeUSD: 1},
		}, base, day(8) + 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			now := time.Unix(test.now, 0)
			series := SortByDateAscending(FillDailyGaps(test.points, test.earliest, now))
			require.NotEmpty(t, series)

			for i := 0; i+1 < len(series); i++ {
				require.Equal(t, OneDay, series[i+1].Date-series[i].Date, "gap at %d", i)
			}
			assert.LessOrEqual(t, series[0].Date, test.earliest+OneDay)
			assert.GreaterOrEqual(t, series[len(series)-1].Date, test.now-2*OneDay)
		})
	}
}

func TestFillDailyGapsKeepsTimeOfDay(t *testing.T) {
	t0 := int64(1000000000)
	points := []models.DailyDataPoint{{Date: t0, VolumeUSD: 50}}
	series := SortByDateAscending(FillDailyGaps(points, t0-2*OneDay, time.Unix(t0+3*OneDay, 0)))

	want := []int64{t0 - OneDay, t0, t0 + OneDay, t0 + 2*OneDay}
	require.Len(t, series, len(want))
	for i, p := range series {
		assert.Equal(t, want[i], p.Date, "point %d", i)
	}
	assert.Equal(t, 50.0, series[1].VolumeUSD)
}

func TestFillDailyGapsCarryForward(t *testing.T) {
	points := []models.DailyDataPoint{
		{Date: day(0), VolumeUSD: 10, LiquidityUSD: utils.FloatPtr(100), PriceUSD: utils.FloatPtr(1), MostLiquid: []string{"0xa"}},
		{Date: day(3), VolumeUSD: 40, LiquidityUSD: utils.FloatPtr(400), PriceUSD: utils.FloatPtr(4), MostLiquid: []string{"0xb"}},
	}
	series := SortByDateAscending(FillDailyGaps(points, day(0), time.Unix(day(6), 0)))
	require.Len(t, series, 6)

	byDay := map[int64]models.DailyDataPoint{}
	for _, p := range series {
		byDay[p.Date] = p
	}
	for _, d := range []int{1, 2} {
		p := byDay[day(d)]
		require.NotNil(t, p.LiquidityUSD)
		assert.Equal(t, 100.0, *p.LiquidityUSD, "day %d", d)
		assert.Equal(t, 1.0, *p.PriceUSD, "day %d", d)
		assert.Equal(t, []string{"0xa"}, p.MostLiquid)
	}
	for _, d := range []int{4, 5} {
		p := byDay[day(d)]
		require.NotNil(t, p.LiquidityUSD)
		assert.Equal(t, 400.0, *p.LiquidityUSD, "day %d", d)
	}
}

func TestFillDailyGapsZeroVolume(t *testing.T) {
	points := []models.DailyDataPoint{
		{Date: day(0), VolumeUSD: 10},
		{Date: day(2), VolumeUSD: 20},
		{Date: day(8), VolumeUSD: 30},
	}
	real := map[int64]bool{day(0): true, day(2): true, day(8): true}

	series := FillDailyGaps(points, day(0), time.Unix(day(12), 0))
	synthesized := 0
	for _, p := range series {
		if real[p.Date] {
			continue
		}
		synthesized++
		assert.Equal(t, 0.0, p.VolumeUSD, "date %d", p.Date)
	}
	assert.Equal(t, 9, synthesized)
}

func TestFillDailyGapsDoesNotMutate(t *testing.T) {
	liq := utils.FloatPtr(5)
	points := []models.DailyDataPoint{{Date: day(0), VolumeUSD: 1, LiquidityUSD: liq}}
	series := FillDailyGaps(points, day(0), time.Unix(day(4), 0))
	require.Len(t, points, 1)
	require.Len(t, series, 4)

	*series[2].LiquidityUSD = 99
	assert.Equal(t, 5.0, *liq)
}

func TestFillDailyGapsEmptyHasAbsentCarry(t *testing.T) {
	series := FillDailyGaps(nil, base, time.Unix(day(4), 0))
	require.Len(t, series, 3)
	for _, p := range series {
		assert.Nil(t, p.LiquidityUSD)
		assert.Nil(t, p.PriceUSD)
		assert.Zero(t, p.VolumeUSD)
	}
}

func TestFillDailyGapsMoreGapsThanPoints(t *testing.T) {
	// a long run of synthetic days after a couple of real ones
	points := []models.DailyDataPoint{
		{Date: day(0), LiquidityUSD: utils.FloatPtr(1)},
		{Date: day(1), LiquidityUSD: utils.FloatPtr(2)},
	}
	series := SortByDateAscending(FillDailyGaps(points, day(0), time.Unix(day(60), 0)))
	require.Len(t, series, 60)
	assert.Equal(t, 2.0, *series[59].LiquidityUSD)
}

func TestFillDailyGapsNoAnchor(t *testing.T) {
	assert.Empty(t, FillDailyGaps(nil, 0, time.Unix(day(3), 0)))
}

func TestSortByDateAscendingIdempotent(t *testing.T) {
	series := SortByDateAscending(FillDailyGaps([]models.DailyDataPoint{
		{Date: day(3), VolumeUSD: 3},
		{Date: day(0), VolumeUSD: 1},
	}, day(0), time.Unix(day(9), 0)))

	again := SortByDateAscending(series)
	assert.Equal(t, series, again)
}

func TestSortByDateAscendingStable(t *testing.T) {
	points := []models.DailyDataPoint{
		{Date: day(1), VolumeUSD: 1},
		{Date: day(0), VolumeUSD: 2},
		{Date: day(1), VolumeUSD: 3},
	}
	sorted := SortByDateAscending(points)
	assert.Equal(t, []float64{2, 1, 3}, []float64{sorted[0].VolumeUSD, sorted[1].VolumeUSD, sorted[2].VolumeUSD})
	// input untouched
	assert.Equal(t, day(1), points[0].Date)
}

func TestBucketWeekly(t *testing.T) {
	// 2021-03-07 is a Sunday, the 7 days through Saturday 03-13 are one week
	sunday := int64(1615075200)
	var week []models.DailyDataPoint
	for i := 0; i < 7; i++ {
		week = append(week, models.DailyDataPoint{Date: sunday + int64(i)*OneDay, VolumeUSD: 10})
	}
	buckets := BucketWeekly(week)
	require.Len(t, buckets, 1)
	assert.Equal(t, 70.0, buckets[0].WeeklyVolumeUSD)
	assert.Equal(t, sunday, buckets[0].Date)

	// one more day starts the next bucket
	week = append(week, models.DailyDataPoint{Date: sunday + 7*OneDay, VolumeUSD: 5})
	buckets = BucketWeekly(week)
	require.Len(t, buckets, 2)
	assert.Equal(t, 5.0, buckets[1].WeeklyVolumeUSD)
	assert.Equal(t, sunday+7*OneDay, buckets[1].Date)
}

func TestBucketWeeklyConservation(t *testing.T) {
	var points []models.DailyDataPoint
	for i := 0; i < 400; i += 3 {
		points = append(points, models.DailyDataPoint{Date: day(i), VolumeUSD: float64(i%17) + 0.25})
	}
	daily, weekly := BuildChart(points, day(0), time.Unix(day(420), 0))

	var dailySum, weeklySum float64
	for _, p := range daily {
		dailySum += p.VolumeUSD
	}
	for _, w := range weekly {
		weeklySum += w.WeeklyVolumeUSD
	}
	assert.InDelta(t, dailySum, weeklySum, 1e-9)

	// every 7 consecutive days at most 2 buckets, so ~60 weeks over 420 days
	assert.InDelta(t, 60, len(weekly), 2)
	for i := 0; i+1 < len(weekly); i++ {
		assert.Less(t, weekly[i].Date, weekly[i+1].Date)
	}
}

func TestBucketWeeklyYearBoundary(t *testing.T) {
	// Thu 2020-12-31 and Fri 2021-01-01 share a Sunday-started week, both
	// are week 1 so they land in one bucket
	dec31 := int64(1609372800)
	points := []models.DailyDataPoint{
		{Date: dec31 - OneDay, VolumeUSD: 1},
		{Date: dec31, VolumeUSD: 2},
		{Date: dec31 + OneDay, VolumeUSD: 3},
	}
	buckets := BucketWeekly(points)
	require.Len(t, buckets, 1)
	assert.Equal(t, 6.0, buckets[0].WeeklyVolumeUSD)
}

func TestWeekOfYear(t *testing.T) {
	tests := []struct {
		date string
		exp  int
	}{
		{"2021-01-01", 1}, // friday
		{"2021-01-02", 1}, // saturday
		{"2021-01-03", 2}, // sunday starts week 2
		{"2021-03-01", 10},
		{"2020-12-26", 52},
		{"2020-12-27", 1}, // the week holding 2021-01-01
		{"2023-01-01", 1}, // sunday
		{"2023-01-08", 2},
		{"2022-12-31", 53}, // saturday, next jan 1 is the following week
		{"2024-12-29", 1},
	}
	for i, test := range tests {
		d, err := time.Parse("2006-01-02", test.date)
		require.NoError(t, err)
		if got := WeekOfYear(d); got != test.exp {
			t.Errorf("test %v | %v: expected week %v, got %v", i, test.date, test.exp, got)
		}
	}
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 50.0, PercentChange(150, 100))
	assert.Equal(t, -25.0, PercentChange(75, 100))
	assert.Equal(t, 0.0, PercentChange(10, 0))
	assert.Equal(t, 0.0, PercentChange(math.NaN(), 10))
	assert.Equal(t, 0.0, PercentChange(10, math.Inf(1)))
}

func TestTwoPointPercentChange(t *testing.T) {
	oneDay, change := TwoPointPercentChange(100, 50, 50)
	assert.Equal(t, 50.0, oneDay)
	assert.Equal(t, 0.0, change)
	assert.False(t, math.IsNaN(change) || math.IsInf(change, 0))

	oneDay, change = TwoPointPercentChange(300, 200, 150)
	assert.Equal(t, 100.0, oneDay)
	assert.Equal(t, 100.0, change)

	oneDay, change = TwoPointPercentChange(0, 0, 0)
	assert.Equal(t, 0.0, oneDay)
	assert.Equal(t, 0.0, change)
}

func TestBuildChartScenario(t *testing.T) {
	// raw subgraph row with a string volume, as the fetch layer hands it over
	const t0 = int64(1000000000)
	raw := []byte(`[{"date": 1000000000, "dailyVolumeUSD": "50", "totalLiquidityUSD": 1000}]`)
	points := decodePoints(t, raw)

	daily, weekly := BuildChart(points, t0, time.Unix(t0+3*OneDay, 0))
	require.Len(t, daily, 3)

	var dates []int64
	var vols, liqs []float64
	for _, p := range daily {
		dates = append(dates, p.Date)
		vols = append(vols, p.VolumeUSD)
		require.NotNil(t, p.LiquidityUSD)
		liqs = append(liqs, *p.LiquidityUSD)
	}
	assert.Equal(t, []int64{t0, t0 + OneDay, t0 + 2*OneDay}, dates)
	assert.Equal(t, []float64{50, 0, 0}, vols)
	assert.Equal(t, []float64{1000, 1000, 1000}, liqs)

	var sum float64
	for _, w := range weekly {
		sum += w.WeeklyVolumeUSD
	}
	assert.Equal(t, 50.0, sum)
}

func TestTrim(t *testing.T) {
	daily, weekly := BuildChart([]models.DailyDataPoint{{Date: day(0), VolumeUSD: 1}}, day(0), time.Unix(day(30), 0))
	trimmed := TrimDaily(daily, day(20))
	require.NotEmpty(t, trimmed)
	assert.Equal(t, day(20), trimmed[0].Date)

	tw := TrimWeekly(weekly, day(20))
	require.NotEmpty(t, tw)
	assert.LessOrEqual(t, tw[0].Date, day(20))
	assert.Greater(t, tw[0].Date, day(20)-7*OneDay)
}

func decodePoints(t *testing.T, raw []byte) []models.DailyDataPoint {
	t.Helper()
	var dds []*models.DayData
	require.NoError(t, json.Unmarshal(raw, &dds))
	return models.Points(dds)
}
