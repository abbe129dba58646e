package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntityRef is a bare subgraph entity reference, eg: mostLiquidTokens { id }
type EntityRef struct {
	ID string `json:"id"`
}

// TokenRef is the token summary embedded in pairs and the all tokens list
type TokenRef struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Token represents an ERC20 as indexed by the subgraph. Numbers come over
// the wire as strings (BigDecimal/BigInt), decimal handles both forms.
type Token struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`

	DerivedETH        decimal.Decimal `json:"derivedETH"`
	DerivedUSD        decimal.Decimal `json:"derivedUSD"`
	TradeVolume       decimal.Decimal `json:"tradeVolume"`
	TradeVolumeUSD    decimal.Decimal `json:"tradeVolumeUSD"`
	TotalLiquidity    decimal.Decimal `json:"totalLiquidity"`
	TotalLiquidityUSD decimal.Decimal `json:"totalLiquidityUSD"`
	TxCount           decimal.Decimal `json:"txCount"`
}

func (t *Token) String() string {
	return fmt.Sprintf("%v", t.Symbol)
}

// Address normalizes the token id for map keys and urls
func (t *Token) Address() string {
	return strings.ToLower(t.ID)
}

// PairRef is the short form returned by the all pairs listing
type PairRef struct {
	ID     string   `json:"id"`
	Token0 TokenRef `json:"token0"`
	Token1 TokenRef `json:"token1"`
}

func (p *PairRef) String() string {
	return fmt.Sprintf("%v-%v", p.Token0.Symbol, p.Token1.Symbol)
}

// Pair represents a pool as indexed by the subgraph
type Pair struct {
	ID     string   `json:"id"`
	Token0 TokenRef `json:"token0"`
	Token1 TokenRef `json:"token1"`

	Reserve0    decimal.Decimal `json:"reserve0"`
	Reserve1    decimal.Decimal `json:"reserve1"`
	ReserveUSD  decimal.Decimal `json:"reserveUSD"`
	ReserveETH  decimal.Decimal `json:"reserveETH"`
	Token0Price decimal.Decimal `json:"token0Price"`
	Token1Price decimal.Decimal `json:"token1Price"`
	VolumeUSD   decimal.Decimal `json:"volumeUSD"`
	TxCount     decimal.Decimal `json:"txCount"`
}

func (p *Pair) String() string {
	return fmt.Sprintf("%v-%v", p.Token0.Symbol, p.Token1.Symbol)
}

// ValUSD returns the pool value, reserveUSD when the subgraph tracked it,
// otherwise reserveETH at the given eth price.
func (p *Pair) ValUSD(ethPrice decimal.Decimal) decimal.Decimal {
	if !p.ReserveUSD.IsZero() {
		return p.ReserveUSD
	}
	return p.ReserveETH.Mul(ethPrice)
}

// Factory holds the cumulative, exchange wide counters
type Factory struct {
	ID                string          `json:"id"`
	PairCount         int             `json:"pairCount"`
	TotalVolumeUSD    decimal.Decimal `json:"totalVolumeUSD"`
	TotalVolumeETH    decimal.Decimal `json:"totalVolumeETH"`
	TotalLiquidityUSD decimal.Decimal `json:"totalLiquidityUSD"`
	TotalLiquidityETH decimal.Decimal `json:"totalLiquidityETH"`
	TxCount           decimal.Decimal `json:"txCount"`
}

// DayData is a raw day row as returned by the factory, token and pair day
// data queries. Pair queries alias reserveUSD to totalLiquidityUSD so all
// three share this shape.
type DayData struct {
	Date              int64               `json:"date"`
	DailyVolumeUSD    decimal.Decimal     `json:"dailyVolumeUSD"`
	TotalLiquidityUSD decimal.NullDecimal `json:"totalLiquidityUSD"`
	PriceUSD          decimal.NullDecimal `json:"priceUSD"`
	MostLiquidTokens  []EntityRef         `json:"mostLiquidTokens"`
	MostLiquidPairs   []EntityRef         `json:"mostLiquidPairs"`
}

// TxRef is the transaction a mint, burn or swap belongs to
type TxRef struct {
	ID        string          `json:"id"`
	Timestamp decimal.Decimal `json:"timestamp"`
}

func (t TxRef) Time() time.Time {
	return time.Unix(t.Timestamp.IntPart(), 0)
}

// LiquidityEvent is a mint or a burn
type LiquidityEvent struct {
	Transaction TxRef           `json:"transaction"`
	Pair        PairRef         `json:"pair"`
	Sender      string          `json:"sender,omitempty"`
	To          string          `json:"to,omitempty"`
	Liquidity   decimal.Decimal `json:"liquidity"`
	Amount0     decimal.Decimal `json:"amount0"`
	Amount1     decimal.Decimal `json:"amount1"`

	// AmountUSD is filled in after the fact from external USD prices, it
	// stays null when either side has no price.
	AmountUSD decimal.NullDecimal `json:"amountUSD"`
}

// Swap is a trade through a pair
type Swap struct {
	Transaction TxRef           `json:"transaction"`
	Pair        PairRef         `json:"pair"`
	Sender      string          `json:"sender,omitempty"`
	To          string          `json:"to,omitempty"`
	SrcAmount   decimal.Decimal `json:"srcAmount"`
	DestAmount  decimal.Decimal `json:"destAmount"`

	AmountUSD decimal.NullDecimal `json:"amountUSD"`
}

type Transactions struct {
	Mints []*LiquidityEvent `json:"mints"`
	Burns []*LiquidityEvent `json:"burns"`
	Swaps []*Swap           `json:"swaps"`
}

// Count returns the total number of events
func (t *Transactions) Count() int {
	if t == nil {
		return 0
	}
	return len(t.Mints) + len(t.Burns) + len(t.Swaps)
}
