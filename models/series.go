package models

import (
	"github.com/emiswap/info-api/utils"
)

// DailyDataPoint is one day of chart data. Liquidity and price are nil when
// unknown, which happens for synthesized days before the first real one.
type DailyDataPoint struct {
	Date         int64    `json:"date"`
	VolumeUSD    float64  `json:"dailyVolumeUSD"`
	LiquidityUSD *float64 `json:"totalLiquidityUSD,omitempty"`
	PriceUSD     *float64 `json:"priceUSD,omitempty"`
	MostLiquid   []string `json:"mostLiquid,omitempty"`
}

// WeeklyBucket is the volume summed over one week of daily points
type WeeklyBucket struct {
	Date            int64   `json:"date"`
	WeeklyVolumeUSD float64 `json:"weeklyVolumeUSD"`
}

// Point coerces the raw day row into the numeric form used for charts
func (d *DayData) Point() DailyDataPoint {
	p := DailyDataPoint{
		Date:         d.Date,
		VolumeUSD:    utils.DecToFloat(d.DailyVolumeUSD),
		LiquidityUSD: utils.NullDecToFloatPtr(d.TotalLiquidityUSD),
		PriceUSD:     utils.NullDecToFloatPtr(d.PriceUSD),
	}
	for _, r := range d.MostLiquidTokens {
		p.MostLiquid = append(p.MostLiquid, r.ID)
	}
	for _, r := range d.MostLiquidPairs {
		p.MostLiquid = append(p.MostLiquid, r.ID)
	}
	return p
}

// Points converts a whole day data list
func Points(dds []*DayData) []DailyDataPoint {
	ret := make([]DailyDataPoint, 0, len(dds))
	for _, d := range dds {
		if d == nil {
			continue
		}
		ret = append(ret, d.Point())
	}
	return ret
}
