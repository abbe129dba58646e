package stats

import (
	"context"
	"strings"

	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/state"
	"github.com/emiswap/info-api/timeseries"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func (s *Service) pairAt(ctx context.Context, address string, block int64) (*models.Pair, error) {
	p, err := s.db.GetPair(ctx, address, block)
	if notFound(err) {
		return nil, nil
	}
	return p, err
}

type pairHistory struct {
	oneDay, twoDay, oneWeek *models.Pair
}

func (s *Service) pairHistory(ctx context.Context, address string, h history) (pairHistory, error) {
	var ph pairHistory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ph.oneDay, err = s.pairAt(gctx, address, h.oneDay)
		return err
	})
	g.Go(func() error {
		var err error
		ph.twoDay, err = s.pairAt(gctx, address, h.twoDay)
		return err
	})
	g.Go(func() error {
		var err error
		ph.oneWeek, err = s.pairAt(gctx, address, h.oneWeek)
		return err
	})
	return ph, g.Wait()
}

func (s *Service) pairStats(cur *models.Pair, ph pairHistory, eth *models.EthPrice) *models.PairStats {
	ps := &models.PairStats{
		ID:         strings.ToLower(cur.ID),
		Token0:     s.alias(cur.Token0),
		Token1:     s.alias(cur.Token1),
		Reserve0:   f(cur.Reserve0),
		Reserve1:   f(cur.Reserve1),
		ReserveUSD: f(cur.ValUSD(decimal.NewFromFloat(eth.Price))),
		VolumeUSD:  f(cur.VolumeUSD),
	}

	if ph.oneDay == nil {
		ps.OneDayVolumeUSD = ps.VolumeUSD
		ps.OneDayTxns = f(cur.TxCount)
	} else {
		var twoVol, twoTxns float64
		if ph.twoDay != nil {
			twoVol = f(ph.twoDay.VolumeUSD)
			twoTxns = f(ph.twoDay.TxCount)
		}
		ps.OneDayVolumeUSD, ps.VolumeChangeUSD = timeseries.TwoPointPercentChange(
			ps.VolumeUSD, f(ph.oneDay.VolumeUSD), twoVol)
		ps.OneDayTxns, ps.TxnChange = timeseries.TwoPointPercentChange(
			f(cur.TxCount), f(ph.oneDay.TxCount), twoTxns)
		ps.LiquidityChangeUSD = timeseries.PercentChange(
			ps.ReserveUSD, f(ph.oneDay.ValUSD(decimal.NewFromFloat(eth.OneDayPrice))))
	}

	if ph.oneWeek == nil {
		ps.OneWeekVolumeUSD = ps.VolumeUSD
	} else {
		ps.OneWeekVolumeUSD = ps.VolumeUSD - f(ph.oneWeek.VolumeUSD)
	}
	ps.OneDayFeesUSD = ps.OneDayVolumeUSD * s.network.FeeRate
	return ps
}

// TopPairs returns the deepest pairs with their day over day changes
func (s *Service) TopPairs(ctx context.Context) ([]*models.PairStats, error) {
	if st := s.store.State(); st.TopPairs != nil {
		ret := make([]*models.PairStats, 0, len(st.TopPairs))
		for _, id := range st.TopPairs {
			if p := st.Pair(id); p != nil && p.Data != nil {
				ret = append(ret, p.Data)
			}
		}
		return ret, nil
	}

	eth, complete, err := s.ethPrice(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.historyBlocks(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.db.GetTopPairs(ctx, 0)
	if err != nil {
		return nil, err
	}

	ret := make([]*models.PairStats, len(current))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range current {
		i, p := i, p
		g.Go(func() error {
			ph, err := s.pairHistory(gctx, p.ID, h)
			if err != nil {
				return err
			}
			ret[i] = s.pairStats(p, ph, eth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if complete {
		s.dispatch(ctx, state.Action{Type: state.UpdateTopPairs, PairList: ret})
	}
	return ret, nil
}

// Pair returns one pair's stats, gotils.ErrNotFound if it doesn't exist
func (s *Service) Pair(ctx context.Context, address string) (*models.PairStats, error) {
	address = strings.ToLower(address)
	if p := s.store.State().Pair(address); p != nil && p.Data != nil {
		return p.Data, nil
	}

	cur, err := s.db.GetPair(ctx, address, 0)
	if err != nil {
		return nil, err
	}
	eth, complete, err := s.ethPrice(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.historyBlocks(ctx)
	if err != nil {
		return nil, err
	}
	ph, err := s.pairHistory(ctx, address, h)
	if err != nil {
		return nil, err
	}

	ps := s.pairStats(cur, ph, eth)
	if complete {
		s.dispatch(ctx, state.Action{Type: state.UpdatePair, Address: address, Pair: ps})
	}
	return ps, nil
}

// PairChart returns a year of the pair's daily volume and liquidity
func (s *Service) PairChart(ctx context.Context, address string) (*models.Chart, error) {
	address = strings.ToLower(address)
	if p := s.store.State().Pair(address); p != nil && p.Chart != nil {
		return &models.Chart{Daily: p.Chart}, nil
	}

	from := s.chartFrom()
	dds, err := s.db.GetPairDayDatas(ctx, address, from)
	if err != nil {
		s.degraded("pair chart "+address, err)
		return &models.Chart{Daily: s.entityChart(nil, from)}, nil
	}
	daily := s.entityChart(dds, from)
	s.dispatch(ctx, state.Action{Type: state.UpdatePairChart, Address: address, Daily: daily})
	return &models.Chart{Daily: daily}, nil
}

// AllPairs lists every pair for search
func (s *Service) AllPairs(ctx context.Context) ([]*models.PairRef, error) {
	if st := s.store.State(); st.AllPairs != nil {
		return st.AllPairs, nil
	}
	pairs, err := s.db.GetAllPairs(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*models.PairRef, 0, len(pairs))
	for _, p := range pairs {
		ret = append(ret, &models.PairRef{
			ID:     p.ID,
			Token0: s.alias(p.Token0),
			Token1: s.alias(p.Token1),
		})
	}
	s.dispatch(ctx, state.Action{Type: state.UpdateAllPairs, AllPairs: ret})
	return ret, nil
}
