package backend

import (
	"context"
	"strings"
	"time"

	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/subgraph"
	"github.com/shopspring/decimal"
	"github.com/treeder/gcputils"
	"github.com/treeder/gotils"
)

// BlockSource maps timestamps to block numbers
type BlockSource interface {
	BlocksAt(ctx context.Context, ts []time.Time) ([]int64, error)
}

type blocksSubgraph struct {
	c *subgraph.Client
}

// NewBlocksSubgraph looks blocks up in a blocks subgraph
func NewBlocksSubgraph(c *subgraph.Client) BlockSource {
	return &blocksSubgraph{c: c}
}

func (b *blocksSubgraph) BlocksAt(ctx context.Context, ts []time.Time) ([]int64, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	var resp map[string][]struct {
		Number decimal.Decimal `json:"number"`
	}
	if err := b.c.Query(ctx, "blocks", subgraph.BlocksQuery(ts), nil, &resp); err != nil {
		return nil, err
	}
	ret := make([]int64, len(ts))
	for i, t := range ts {
		rows := resp[subgraph.BlockAlias(t)]
		if len(rows) == 0 {
			// nothing mined yet that close to t, fall back to latest
			gcputils.Error().Printf("no block found for timestamp %v", t.Unix())
			continue
		}
		ret[i] = rows[0].Number.IntPart()
	}
	return ret, nil
}

// Subgraph reads everything from the emiswap subgraph
type Subgraph struct {
	factory string
	c       *subgraph.Client
	blocks  BlockSource
}

// compiler yelling
var _ StatsBackend = new(Subgraph)

func NewSubgraph(factoryAddress string, c *subgraph.Client, blocks BlockSource) *Subgraph {
	return &Subgraph{
		factory: strings.ToLower(factoryAddress),
		c:       c,
		blocks:  blocks,
	}
}

func (s *Subgraph) GetFactory(ctx context.Context, block int64) (*models.Factory, error) {
	var resp struct {
		Factories []*models.Factory `json:"emiswapFactories"`
	}
	err := s.c.Query(ctx, "factory", subgraph.FactoryQuery, map[string]interface{}{
		"id":    s.factory,
		"block": subgraph.BlockVar(block),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Factories) == 0 {
		return nil, gotils.ErrNotFound
	}
	return resp.Factories[0], nil
}

// dayDatas pages through a day data query until a short page
func (s *Subgraph) dayDatas(ctx context.Context, name, query, field string, vars map[string]interface{}) ([]*models.DayData, error) {
	var ret []*models.DayData
	for skip := 0; ; skip += subgraph.PageSize {
		vars["skip"] = skip
		var resp map[string][]*models.DayData
		if err := s.c.Query(ctx, name, query, vars, &resp); err != nil {
			return nil, err
		}
		page := resp[field]
		ret = append(ret, page...)
		if len(page) < subgraph.PageSize {
			break
		}
	}
	return ret, nil
}

func (s *Subgraph) GetFactoryDayDatas(ctx context.Context, from int64) ([]*models.DayData, error) {
	return s.dayDatas(ctx, "factoryDayDatas", subgraph.FactoryDayDatasQuery, "emiswapDayDatas", map[string]interface{}{
		"from": from,
	})
}

func (s *Subgraph) GetEthPrice(ctx context.Context, block int64) (decimal.Decimal, error) {
	var resp struct {
		Bundles []struct {
			EthPrice decimal.Decimal `json:"ethPrice"`
		} `json:"bundles"`
	}
	err := s.c.Query(ctx, "ethPrice", subgraph.EthPriceQuery, map[string]interface{}{
		"block": subgraph.BlockVar(block),
	}, &resp)
	if err != nil {
		return decimal.Zero, err
	}
	if len(resp.Bundles) == 0 {
		return decimal.Zero, gotils.ErrNotFound
	}
	return resp.Bundles[0].EthPrice, nil
}

func (s *Subgraph) GetTopTokens(ctx context.Context, block int64) ([]*models.Token, error) {
	var resp struct {
		Tokens []*models.Token `json:"tokens"`
	}
	err := s.c.Query(ctx, "topTokens", subgraph.TopTokensQuery, map[string]interface{}{
		"block": subgraph.BlockVar(block),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

func (s *Subgraph) GetToken(ctx context.Context, address string, block int64) (*models.Token, error) {
	var resp struct {
		Tokens []*models.Token `json:"tokens"`
	}
	err := s.c.Query(ctx, "token", subgraph.TokenQuery, map[string]interface{}{
		"id":    strings.ToLower(address),
		"block": subgraph.BlockVar(block),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Tokens) == 0 {
		return nil, gotils.ErrNotFound
	}
	return resp.Tokens[0], nil
}

func (s *Subgraph) GetTokenPairs(ctx context.Context, address string) ([]string, error) {
	var resp struct {
		Pairs0 []models.EntityRef `json:"pairs0"`
		Pairs1 []models.EntityRef `json:"pairs1"`
	}
	err := s.c.Query(ctx, "tokenPairs", subgraph.TokenPairsQuery, map[string]interface{}{
		"id": strings.ToLower(address),
	}, &resp)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, p := range append(resp.Pairs0, resp.Pairs1...) {
		ret = append(ret, p.ID)
	}
	return ret, nil
}

func (s *Subgraph) GetTokenDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error) {
	return s.dayDatas(ctx, "tokenDayDatas", subgraph.TokenDayDatasQuery, "tokenDayDatas", map[string]interface{}{
		"token": strings.ToLower(address),
		"from":  from,
	})
}

func (s *Subgraph) GetTopPairs(ctx context.Context, block int64) ([]*models.Pair, error) {
	var resp struct {
		Pairs []*models.Pair `json:"pairs"`
	}
	err := s.c.Query(ctx, "topPairs", subgraph.TopPairsQuery, map[string]interface{}{
		"block": subgraph.BlockVar(block),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

func (s *Subgraph) GetPair(ctx context.Context, address string, block int64) (*models.Pair, error) {
	var resp struct {
		Pairs []*models.Pair `json:"pairs"`
	}
	err := s.c.Query(ctx, "pair", subgraph.PairQuery, map[string]interface{}{
		"id":    strings.ToLower(address),
		"block": subgraph.BlockVar(block),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Pairs) == 0 {
		return nil, gotils.ErrNotFound
	}
	return resp.Pairs[0], nil
}

func (s *Subgraph) GetPairDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error) {
	return s.dayDatas(ctx, "pairDayDatas", subgraph.PairDayDatasQuery, "pairDayDatas", map[string]interface{}{
		"pair": strings.ToLower(address),
		"from": from,
	})
}

func (s *Subgraph) GetAllPairs(ctx context.Context) ([]*models.PairRef, error) {
	var ret []*models.PairRef
	for skip := 0; ; skip += subgraph.PageSize {
		var resp struct {
			Pairs []*models.PairRef `json:"pairs"`
		}
		err := s.c.Query(ctx, "allPairs", subgraph.AllPairsQuery, map[string]interface{}{"skip": skip}, &resp)
		if err != nil {
			return nil, err
		}
		ret = append(ret, resp.Pairs...)
		if len(resp.Pairs) < subgraph.PageSize {
			return ret, nil
		}
	}
}

func (s *Subgraph) GetAllTokens(ctx context.Context) ([]*models.TokenRef, error) {
	var ret []*models.TokenRef
	for skip := 0; ; skip += subgraph.PageSize {
		var resp struct {
			Tokens []*models.TokenRef `json:"tokens"`
		}
		err := s.c.Query(ctx, "allTokens", subgraph.AllTokensQuery, map[string]interface{}{"skip": skip}, &resp)
		if err != nil {
			return nil, err
		}
		ret = append(ret, resp.Tokens...)
		if len(resp.Tokens) < subgraph.PageSize {
			return ret, nil
		}
	}
}

func (s *Subgraph) GetTransactions(ctx context.Context, pairs []string) (*models.Transactions, error) {
	if len(pairs) == 0 {
		var resp struct {
			Transactions []*models.Transactions `json:"transactions"`
		}
		if err := s.c.Query(ctx, "transactions", subgraph.GlobalTransactionsQuery, nil, &resp); err != nil {
			return nil, err
		}
		// flatten, the subgraph groups events by transaction
		ret := &models.Transactions{}
		for _, t := range resp.Transactions {
			ret.Mints = append(ret.Mints, t.Mints...)
			ret.Burns = append(ret.Burns, t.Burns...)
			ret.Swaps = append(ret.Swaps, t.Swaps...)
		}
		return ret, nil
	}

	ret := &models.Transactions{}
	err := s.c.Query(ctx, "filteredTransactions", subgraph.FilteredTransactionsQuery, map[string]interface{}{
		"allPairs": pairs,
	}, ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Subgraph) GetBlocks(ctx context.Context, ts []time.Time) ([]int64, error) {
	return s.blocks.BlocksAt(ctx, ts)
}
