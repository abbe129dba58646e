package models

// EthPrice is the native token price now and a day ago
type EthPrice struct {
	Price       float64 `json:"ethPrice"`
	OneDayPrice float64 `json:"oneDayPrice"`
	Change      float64 `json:"ethPriceChange"`
}

// GlobalStats is the overview panel
type GlobalStats struct {
	PairCount          int     `json:"pairCount"`
	TotalVolumeUSD     float64 `json:"totalVolumeUSD"`
	TotalVolumeETH     float64 `json:"totalVolumeETH"`
	TotalLiquidityUSD  float64 `json:"totalLiquidityUSD"`
	TotalLiquidityETH  float64 `json:"totalLiquidityETH"`
	TxCount            float64 `json:"txCount"`
	OneDayVolumeUSD    float64 `json:"oneDayVolumeUSD"`
	VolumeChangeUSD    float64 `json:"volumeChangeUSD"`
	OneDayVolumeETH    float64 `json:"oneDayVolumeETH"`
	VolumeChangeETH    float64 `json:"volumeChangeETH"`
	LiquidityChangeUSD float64 `json:"liquidityChangeUSD"`
	OneDayTxns         float64 `json:"oneDayTxns"`
	TxnChange          float64 `json:"txnChange"`
}

// TokenStats is a token row / token page header
type TokenStats struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Symbol             string  `json:"symbol"`
	PriceUSD           float64 `json:"priceUSD"`
	PriceChangeUSD     float64 `json:"priceChangeUSD"`
	TotalLiquidityUSD  float64 `json:"totalLiquidityUSD"`
	LiquidityChangeUSD float64 `json:"liquidityChangeUSD"`
	TradeVolumeUSD     float64 `json:"tradeVolumeUSD"`
	OneDayVolumeUSD    float64 `json:"oneDayVolumeUSD"`
	VolumeChangeUSD    float64 `json:"volumeChangeUSD"`
	OneDayVolumeETH    float64 `json:"oneDayVolumeETH"`
	OneDayTxns         float64 `json:"oneDayTxns"`
	TxnChange          float64 `json:"txnChange"`
}

// PairStats is a pair row / pair page header
type PairStats struct {
	ID                 string   `json:"id"`
	Token0             TokenRef `json:"token0"`
	Token1             TokenRef `json:"token1"`
	Reserve0           float64  `json:"reserve0"`
	Reserve1           float64  `json:"reserve1"`
	ReserveUSD         float64  `json:"reserveUSD"`
	LiquidityChangeUSD float64  `json:"liquidityChangeUSD"`
	VolumeUSD          float64  `json:"volumeUSD"`
	OneDayVolumeUSD    float64  `json:"oneDayVolumeUSD"`
	VolumeChangeUSD    float64  `json:"volumeChangeUSD"`
	OneWeekVolumeUSD   float64  `json:"oneWeekVolumeUSD"`
	OneDayTxns         float64  `json:"oneDayTxns"`
	TxnChange          float64  `json:"txnChange"`
	OneDayFeesUSD      float64  `json:"oneDayFeesUSD"`
}

// Chart is what the chart endpoints return
type Chart struct {
	Daily  []DailyDataPoint `json:"daily"`
	Weekly []WeeklyBucket   `json:"weekly,omitempty"`
}
