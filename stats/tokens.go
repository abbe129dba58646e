package stats

import (
	"context"
	"strings"

	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/state"
	"github.com/emiswap/info-api/timeseries"
	"golang.org/x/sync/errgroup"
)

// tokenAt returns nil if the token did not exist yet at block
func (s *Service) tokenAt(ctx context.Context, address string, block int64) (*models.Token, error) {
	t, err := s.db.GetToken(ctx, address, block)
	if notFound(err) {
		return nil, nil
	}
	return t, err
}

func byAddress(tokens []*models.Token) map[string]*models.Token {
	ret := make(map[string]*models.Token, len(tokens))
	for _, t := range tokens {
		ret[t.Address()] = t
	}
	return ret
}

// tokenPriceUSD prefers the subgraph's eth price route
func tokenPriceUSD(t *models.Token, ethPrice float64) float64 {
	if t == nil {
		return 0
	}
	if !t.DerivedETH.IsZero() && ethPrice > 0 {
		return f(t.DerivedETH) * ethPrice
	}
	return f(t.DerivedUSD)
}

func tokenLiquidityUSD(t *models.Token, price float64) float64 {
	if t == nil {
		return 0
	}
	if l := f(t.TotalLiquidityUSD); l != 0 {
		return l
	}
	return f(t.TotalLiquidity) * price
}

func tokenVolumeETH(t *models.Token) float64 {
	if t == nil {
		return 0
	}
	return f(t.TradeVolume.Mul(t.DerivedETH))
}

// tokenStats compares the token now against one and two days back. oneDay
// and twoDay are nil when the token did not exist yet.
func (s *Service) tokenStats(cur, oneDay, twoDay *models.Token, eth *models.EthPrice) *models.TokenStats {
	ts := &models.TokenStats{
		ID:             cur.Address(),
		Name:           cur.Name,
		Symbol:         cur.Symbol,
		PriceUSD:       tokenPriceUSD(cur, eth.Price),
		TradeVolumeUSD: f(cur.TradeVolumeUSD),
	}
	if a, ok := s.network.Aliases[ts.ID]; ok {
		ts.Name = a.Name
		ts.Symbol = a.Symbol
	}
	ts.TotalLiquidityUSD = tokenLiquidityUSD(cur, ts.PriceUSD)

	if oneDay == nil {
		// new token, everything it ever did happened today
		ts.OneDayVolumeUSD = ts.TradeVolumeUSD
		ts.OneDayVolumeETH = tokenVolumeETH(cur)
		ts.OneDayTxns = f(cur.TxCount)
		return ts
	}

	var twoVolUSD, twoTxns float64
	if twoDay != nil {
		twoVolUSD = f(twoDay.TradeVolumeUSD)
		twoTxns = f(twoDay.TxCount)
	}
	ts.OneDayVolumeUSD, ts.VolumeChangeUSD = timeseries.TwoPointPercentChange(
		ts.TradeVolumeUSD, f(oneDay.TradeVolumeUSD), twoVolUSD)
	ts.OneDayTxns, ts.TxnChange = timeseries.TwoPointPercentChange(
		f(cur.TxCount), f(oneDay.TxCount), twoTxns)
	ts.OneDayVolumeETH = tokenVolumeETH(cur) - tokenVolumeETH(oneDay)

	oldPrice := tokenPriceUSD(oneDay, eth.OneDayPrice)
	ts.PriceChangeUSD = timeseries.PercentChange(ts.PriceUSD, oldPrice)
	ts.LiquidityChangeUSD = timeseries.PercentChange(ts.TotalLiquidityUSD, tokenLiquidityUSD(oneDay, oldPrice))
	return ts
}

// TopTokens returns the most traded tokens with their day over day changes
func (s *Service) TopTokens(ctx context.Context) ([]*models.TokenStats, error) {
	if st := s.store.State(); st.TopTokens != nil {
		ret := make([]*models.TokenStats, 0, len(st.TopTokens))
		for _, id := range st.TopTokens {
			if t := st.Token(id); t != nil && t.Data != nil {
				ret = append(ret, t.Data)
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
	current, err := s.db.GetTopTokens(ctx, 0)
	if err != nil {
		return nil, err
	}
	oneDayTokens, err := s.db.GetTopTokens(ctx, h.oneDay)
	if err != nil {
		return nil, err
	}
	twoDayTokens, err := s.db.GetTopTokens(ctx, h.twoDay)
	if err != nil {
		return nil, err
	}
	oneDayByAddr := byAddress(oneDayTokens)
	twoDayByAddr := byAddress(twoDayTokens)

	ret := make([]*models.TokenStats, len(current))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, t := range current {
		i, t := i, t
		g.Go(func() error {
			// tokens that dropped out of an older top list are looked up directly
			oneDay, ok := oneDayByAddr[t.Address()]
			if !ok {
				var err error
				if oneDay, err = s.tokenAt(gctx, t.Address(), h.oneDay); err != nil {
					return err
				}
			}
			twoDay, ok := twoDayByAddr[t.Address()]
			if !ok {
				var err error
				if twoDay, err = s.tokenAt(gctx, t.Address(), h.twoDay); err != nil {
					return err
				}
			}
			ret[i] = s.tokenStats(t, oneDay, twoDay, eth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if complete {
		s.dispatch(ctx, state.Action{Type: state.UpdateTopTokens, Tokens: ret})
	}
	return ret, nil
}

// Token returns one token's stats, gotils.ErrNotFound if it doesn't exist
func (s *Service) Token(ctx context.Context, address string) (*models.TokenStats, error) {
	address = strings.ToLower(address)
	if t := s.store.State().Token(address); t != nil && t.Data != nil {
		return t.Data, nil
	}

	cur, err := s.db.GetToken(ctx, address, 0)
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

	var oneDay, twoDay *models.Token
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		oneDay, err = s.tokenAt(gctx, address, h.oneDay)
		return err
	})
	g.Go(func() error {
		var err error
		twoDay, err = s.tokenAt(gctx, address, h.twoDay)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ts := s.tokenStats(cur, oneDay, twoDay, eth)
	if complete {
		s.dispatch(ctx, state.Action{Type: state.UpdateToken, Address: address, Token: ts})
	}
	return ts, nil
}

// TokenChart returns a year of the token's daily volume, liquidity and price
func (s *Service) TokenChart(ctx context.Context, address string) (*models.Chart, error) {
	address = strings.ToLower(address)
	if t := s.store.State().Token(address); t != nil && t.Chart != nil {
		return &models.Chart{Daily: t.Chart}, nil
	}

	from := s.chartFrom()
	dds, err := s.db.GetTokenDayDatas(ctx, address, from)
	if err != nil {
		s.degraded("token chart "+address, err)
		return &models.Chart{Daily: s.entityChart(nil, from)}, nil
	}
	daily := s.entityChart(dds, from)
	s.dispatch(ctx, state.Action{Type: state.UpdateTokenChart, Address: address, Daily: daily})
	return &models.Chart{Daily: daily}, nil
}

// TokenPairs returns the ids of the pairs the token trades in
func (s *Service) TokenPairs(ctx context.Context, address string) ([]string, error) {
	address = strings.ToLower(address)
	if t := s.store.State().Token(address); t != nil && t.Pairs != nil {
		return t.Pairs, nil
	}
	pairs, err := s.db.GetTokenPairs(ctx, address)
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs = []string{}
	}
	s.dispatch(ctx, state.Action{Type: state.UpdateTokenPairs, Address: address, PairIDs: pairs})
	return pairs, nil
}

// TokenTransactions returns recent activity in the token's pairs
func (s *Service) TokenTransactions(ctx context.Context, address string) (*models.Transactions, error) {
	address = strings.ToLower(address)
	if t := s.store.State().Token(address); t != nil && t.Txns != nil {
		return t.Txns, nil
	}
	pairs, err := s.TokenPairs(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		// an empty filter would mean every pair
		return &models.Transactions{}, nil
	}
	txns, err := s.db.GetTransactions(ctx, pairs)
	if err != nil {
		return nil, err
	}
	ret := s.withUSD(ctx, txns)
	s.dispatch(ctx, state.Action{Type: state.UpdateTokenTxns, Address: address, Txns: ret})
	return ret, nil
}

// AllTokens lists every token for search
func (s *Service) AllTokens(ctx context.Context) ([]*models.TokenRef, error) {
	if st := s.store.State(); st.AllTokens != nil {
		return st.AllTokens, nil
	}
	tokens, err := s.db.GetAllTokens(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*models.TokenRef, 0, len(tokens))
	for _, t := range tokens {
		r := s.alias(*t)
		ret = append(ret, &r)
	}
	s.dispatch(ctx, state.Action{Type: state.UpdateAllTokens, AllTokens: ret})
	return ret, nil
}

// alias renames wrapped native tokens, t is a copy
func (s *Service) alias(t models.TokenRef) models.TokenRef {
	if a, ok := s.network.Aliases[strings.ToLower(t.ID)]; ok {
		t.Name = a.Name
		t.Symbol = a.Symbol
	}
	return t
}
