// Package stats derives everything the dashboard shows from raw subgraph
// entities: day over day changes, charts, listings and USD values.
package stats

import (
	"context"
	"errors"
	"time"

	"github.com/emiswap/info-api/backend"
	"github.com/emiswap/info-api/config"
	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/state"
	"github.com/emiswap/info-api/timeseries"
	"github.com/emiswap/info-api/utils"
	"github.com/shopspring/decimal"
	"github.com/treeder/gcputils"
	"github.com/treeder/gotils"
	gotils2 "github.com/treeder/gotils/v2"
)

// PriceSource returns USD prices for tokens that the subgraph can't price
type PriceSource interface {
	TokenPriceUSD(ctx context.Context, platform, address string) (decimal.Decimal, error)
}

// Service answers queries for one network. Results are kept in the state
// store until it is reset.
type Service struct {
	network *config.Network
	db      backend.StatsBackend
	store   *state.Store
	prices  PriceSource

	now           func() time.Time
	allTimeMonths int
	concurrency   int
}

type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAllTimeMonths sets how far back the "all" chart window goes
func WithAllTimeMonths(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.allTimeMonths = n
		}
	}
}

// WithConcurrency limits parallel subgraph lookups per request
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(network *config.Network, db backend.StatsBackend, store *state.Store, prices PriceSource, opts ...Option) *Service {
	s := &Service{
		network:       network,
		db:            db,
		store:         store,
		prices:        prices,
		now:           time.Now,
		allTimeMonths: 3,
		concurrency:   8,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reset drops everything fetched so far
func (s *Service) Reset() error {
	return s.store.Dispatch(state.Action{Type: state.Reset})
}

func (s *Service) dispatch(ctx context.Context, a state.Action) {
	if err := s.store.Dispatch(a); err != nil {
		// the result is still good, it just won't be remembered
		gotils2.C(ctx).Printf("error on dispatch %v: %v", a.Type, err)
	}
}

// degraded logs a failed lookup the caller can answer without. Degraded
// results are never stored so the next request tries again.
func (s *Service) degraded(what string, err error) {
	gcputils.With("network", s.network.Name).Error().Printf("error on %v, degrading: %v", what, err)
}

func f(d decimal.Decimal) float64 {
	return utils.DecToFloat(d)
}

// notFound turns a missing history entity into nil
func notFound(err error) bool {
	return errors.Is(err, gotils.ErrNotFound)
}

type history struct {
	oneDay  int64
	twoDay  int64
	oneWeek int64
}

// historyBlocks finds the blocks 1 day, 2 days and 1 week back. Times are
// truncated to the minute so the block lookups cache well.
func (s *Service) historyBlocks(ctx context.Context) (history, error) {
	now := s.now().UTC().Truncate(time.Minute)
	blocks, err := s.db.GetBlocks(ctx, []time.Time{
		now.AddDate(0, 0, -1),
		now.AddDate(0, 0, -2),
		now.AddDate(0, 0, -7),
	})
	if err != nil {
		return history{}, err
	}
	if len(blocks) != 3 {
		return history{}, gotils2.C(ctx).Errorf("expected 3 blocks, got %v", len(blocks))
	}
	return history{oneDay: blocks[0], twoDay: blocks[1], oneWeek: blocks[2]}, nil
}

// EthPrice returns the native token price now and a day ago
func (s *Service) EthPrice(ctx context.Context) (*models.EthPrice, error) {
	ep, _, err := s.ethPrice(ctx)
	return ep, err
}

// ethPrice also reports whether the day old price was found. When it
// wasn't the change is zero and the result is not stored.
func (s *Service) ethPrice(ctx context.Context) (*models.EthPrice, bool, error) {
	if st := s.store.State(); st.EthPrice != nil {
		return st.EthPrice, true, nil
	}

	ep := &models.EthPrice{}
	complete := true
	if s.network.HasFixedEthPrice() {
		ep.Price = s.network.FixedEthPrice
		ep.OneDayPrice = s.network.FixedOneDayEthPrice
		if ep.OneDayPrice == 0 {
			ep.OneDayPrice = ep.Price
		}
	} else {
		cur, err := s.db.GetEthPrice(ctx, 0)
		if err != nil {
			return nil, false, err
		}
		ep.Price = f(cur)
		old, err := s.oneDayEthPrice(ctx)
		if err != nil {
			s.degraded("eth price history", err)
			old = ep.Price
			complete = false
		}
		ep.OneDayPrice = old
	}
	ep.Change = timeseries.PercentChange(ep.Price, ep.OneDayPrice)

	if complete {
		s.dispatch(ctx, state.Action{Type: state.UpdateEthPrice, EthPrice: ep})
	}
	return ep, complete, nil
}

func (s *Service) oneDayEthPrice(ctx context.Context) (float64, error) {
	h, err := s.historyBlocks(ctx)
	if err != nil {
		return 0, err
	}
	old, err := s.db.GetEthPrice(ctx, h.oneDay)
	if notFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return f(old), nil
}

func (s *Service) factoryAt(ctx context.Context, block int64) (*models.Factory, error) {
	fac, err := s.db.GetFactory(ctx, block)
	if notFound(err) {
		return &models.Factory{}, nil
	}
	return fac, err
}

// Global returns the overview panel
func (s *Service) Global(ctx context.Context) (*models.GlobalStats, error) {
	if st := s.store.State(); st.Global != nil {
		return st.Global, nil
	}

	eth, complete, err := s.ethPrice(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.db.GetFactory(ctx, 0)
	if err != nil {
		return nil, err
	}
	oneDay, twoDay, err := s.factoryHistory(ctx)
	if err != nil {
		// compare against now so every delta comes out zero
		s.degraded("global history", err)
		oneDay, twoDay = data, data
		complete = false
	}

	g := globalStats(data, oneDay, twoDay, eth)
	if complete {
		s.dispatch(ctx, state.Action{Type: state.Update, Global: g})
	}
	return g, nil
}

func (s *Service) factoryHistory(ctx context.Context) (oneDay, twoDay *models.Factory, err error) {
	h, err := s.historyBlocks(ctx)
	if err != nil {
		return nil, nil, err
	}
	if oneDay, err = s.factoryAt(ctx, h.oneDay); err != nil {
		return nil, nil, err
	}
	if twoDay, err = s.factoryAt(ctx, h.twoDay); err != nil {
		return nil, nil, err
	}
	return oneDay, twoDay, nil
}

func globalStats(data, oneDay, twoDay *models.Factory, eth *models.EthPrice) *models.GlobalStats {
	g := &models.GlobalStats{
		PairCount:         data.PairCount,
		TotalVolumeUSD:    f(data.TotalVolumeUSD),
		TotalVolumeETH:    f(data.TotalVolumeETH),
		TotalLiquidityUSD: f(data.TotalLiquidityUSD),
		TotalLiquidityETH: f(data.TotalLiquidityETH),
		TxCount:           f(data.TxCount),
	}
	g.OneDayVolumeUSD, g.VolumeChangeUSD = timeseries.TwoPointPercentChange(
		g.TotalVolumeUSD, f(oneDay.TotalVolumeUSD), f(twoDay.TotalVolumeUSD))
	g.OneDayVolumeETH, g.VolumeChangeETH = timeseries.TwoPointPercentChange(
		g.TotalVolumeETH, f(oneDay.TotalVolumeETH), f(twoDay.TotalVolumeETH))
	g.OneDayTxns, g.TxnChange = timeseries.TwoPointPercentChange(
		g.TxCount, f(oneDay.TxCount), f(twoDay.TxCount))

	if g.TotalLiquidityUSD == 0 {
		g.TotalLiquidityUSD = g.TotalLiquidityETH * eth.Price
	}
	g.LiquidityChangeUSD = timeseries.PercentChange(
		g.TotalLiquidityETH*eth.Price, f(oneDay.TotalLiquidityETH)*eth.OneDayPrice)
	return g
}

// Window is how far back the global chart goes
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// Start returns the unix time the window begins at. It is truncated to the
// hour and one second is taken off so the first hour is included.
func (w Window) Start(now time.Time, allTimeMonths int) int64 {
	now = now.UTC()
	var t time.Time
	switch w {
	case WindowWeek:
		t = now.AddDate(0, 0, -7).Truncate(24 * time.Hour)
	case WindowMonth:
		t = now.AddDate(0, -1, 0)
	default:
		t = now.AddDate(0, -allTimeMonths, 0)
	}
	return t.Truncate(time.Hour).Unix() - 1
}

// GlobalChart returns the exchange's daily and weekly volume and liquidity
// for the window. Day data is fetched once for the widest window asked for
// so far, narrower windows are cut from it.
func (s *Service) GlobalChart(ctx context.Context, w Window) (*models.Chart, error) {
	now := s.now()
	start := w.Start(now, s.allTimeMonths)

	chart := s.store.State().Chart
	if chart == nil || chart.OldestFetched > start {
		dds, err := s.db.GetFactoryDayDatas(ctx, start)
		if err != nil {
			s.degraded("global chart", err)
			daily, weekly := timeseries.BuildChart(nil, start, now)
			return &models.Chart{Daily: daily, Weekly: weekly}, nil
		}
		daily, weekly := timeseries.BuildChart(models.Points(dds), start, now)
		chart = &state.Chart{Daily: daily, Weekly: weekly, OldestFetched: start}
		s.dispatch(ctx, state.Action{Type: state.UpdateChart, Chart: chart})
	}

	daily := timeseries.TrimDaily(chart.Daily, start)
	if chart.OldestFetched == start {
		return &models.Chart{Daily: daily, Weekly: timeseries.TrimWeekly(chart.Weekly, start)}, nil
	}
	return &models.Chart{Daily: daily, Weekly: timeseries.BucketWeekly(daily)}, nil
}

// chartFrom is where token and pair charts start, a year back
func (s *Service) chartFrom() int64 {
	return s.now().UTC().AddDate(-1, 0, 0).Truncate(time.Minute).Unix() - 1
}

// entityChart fills an entity's day rows. The series starts at its first
// row, or at from when there are none.
func (s *Service) entityChart(dds []*models.DayData, from int64) []models.DailyDataPoint {
	points := models.Points(dds)
	earliest := int64(0)
	if len(points) == 0 {
		earliest = from
	}
	daily, _ := timeseries.BuildChart(points, earliest, s.now())
	return daily
}
