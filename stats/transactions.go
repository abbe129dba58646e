package stats

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/prices"
	"github.com/emiswap/info-api/state"
	"github.com/shopspring/decimal"
	"github.com/treeder/gcputils"
	"golang.org/x/sync/errgroup"
)

// GlobalTransactions returns recent mints, burns and swaps across the
// exchange
func (s *Service) GlobalTransactions(ctx context.Context) (*models.Transactions, error) {
	if st := s.store.State(); st.Txns != nil {
		return st.Txns, nil
	}
	txns, err := s.db.GetTransactions(ctx, nil)
	if err != nil {
		return nil, err
	}
	ret := s.withUSD(ctx, txns)
	s.dispatch(ctx, state.Action{Type: state.UpdateTxns, Txns: ret})
	return ret, nil
}

// usdPrices looks up every token in the pairs once
func (s *Service) usdPrices(ctx context.Context, pairs []models.PairRef) map[string]decimal.Decimal {
	want := map[string]bool{}
	for _, p := range pairs {
		want[strings.ToLower(p.Token0.ID)] = true
		want[strings.ToLower(p.Token1.ID)] = true
	}

	var mu sync.Mutex
	ret := make(map[string]decimal.Decimal, len(want))
	if s.prices == nil {
		return ret
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for addr := range want {
		addr := addr
		g.Go(func() error {
			p, err := s.prices.TokenPriceUSD(gctx, s.network.CoingeckoPlatform, addr)
			if err != nil {
				if !errors.Is(err, prices.ErrNoPrice) {
					gcputils.Error().Printf("error getting usd price for %v: %v", addr, err)
				}
				// an unpriced token leaves amountUSD null, it never fails the request
				return nil
			}
			mu.Lock()
			ret[addr] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ret
}

// amountUSD is null unless both sides of the pair are priced
func amountUSD(usd map[string]decimal.Decimal, pair models.PairRef, amount0, amount1 decimal.Decimal) decimal.NullDecimal {
	p0, ok0 := usd[strings.ToLower(pair.Token0.ID)]
	p1, ok1 := usd[strings.ToLower(pair.Token1.ID)]
	if !ok0 || !ok1 {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: amount0.Mul(p0).Add(amount1.Mul(p1)), Valid: true}
}

// withUSD returns a copy of txns with amountUSD filled in. The input may be
// shared with the backend cache so it is never written to.
func (s *Service) withUSD(ctx context.Context, txns *models.Transactions) *models.Transactions {
	ret := &models.Transactions{
		Mints: make([]*models.LiquidityEvent, 0, len(txns.Mints)),
		Burns: make([]*models.LiquidityEvent, 0, len(txns.Burns)),
		Swaps: make([]*models.Swap, 0, len(txns.Swaps)),
	}

	var pairs []models.PairRef
	for _, e := range txns.Mints {
		pairs = append(pairs, e.Pair)
	}
	for _, e := range txns.Burns {
		pairs = append(pairs, e.Pair)
	}
	for _, e := range txns.Swaps {
		pairs = append(pairs, e.Pair)
	}
	usd := s.usdPrices(ctx, pairs)

	liquidity := func(events []*models.LiquidityEvent) []*models.LiquidityEvent {
		out := make([]*models.LiquidityEvent, 0, len(events))
		for _, e := range events {
			c := *e
			c.Pair = s.aliasPair(e.Pair)
			c.AmountUSD = amountUSD(usd, e.Pair, e.Amount0, e.Amount1)
			out = append(out, &c)
		}
		return out
	}
	ret.Mints = liquidity(txns.Mints)
	ret.Burns = liquidity(txns.Burns)
	for _, e := range txns.Swaps {
		c := *e
		c.Pair = s.aliasPair(e.Pair)
		c.AmountUSD = amountUSD(usd, e.Pair, e.SrcAmount, e.DestAmount)
		ret.Swaps = append(ret.Swaps, &c)
	}
	return ret
}

func (s *Service) aliasPair(p models.PairRef) models.PairRef {
	p.Token0 = s.alias(p.Token0)
	p.Token1 = s.alias(p.Token1)
	return p
}
