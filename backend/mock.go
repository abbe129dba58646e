package backend

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/emiswap/info-api/models"
	"github.com/shopspring/decimal"
	"github.com/treeder/gotils"
)

// MockBlock is the indexed state of the exchange as of one block
type MockBlock struct {
	Block    int64
	Time     time.Time
	Factory  *models.Factory
	EthPrice decimal.Decimal
	Tokens   []*models.Token
	Pairs    []*models.Pair
}

// TokenDayDatas seeds the mock's token day rows by token address
type TokenDayDatas map[string][]*models.DayData

// PairDayDatas seeds the mock's pair day rows by pair address
type PairDayDatas map[string][]*models.DayData

// TokenPairs seeds the pairs each token trades in
type TokenPairs map[string][]string

type mock struct {
	blocks        []*MockBlock
	dayDatas      []*models.DayData
	tokenDayDatas TokenDayDatas
	pairDayDatas  PairDayDatas
	tokenPairs    TokenPairs
	allPairs      []*models.PairRef
	allTokens     []*models.TokenRef
	txns          *models.Transactions
	err           error
}

// NewMock returns a mock database, for use in testing. An error argument
// makes every call fail with it.
func NewMock(args ...interface{}) StatsBackend {
	m := &mock{txns: &models.Transactions{}}
	for _, arg := range args {
		switch arg := arg.(type) {
		case *MockBlock:
			m.blocks = append(m.blocks, arg)
		case []*MockBlock:
			m.blocks = append(m.blocks, arg...)
		case []*models.DayData:
			m.dayDatas = byDate(arg)
		case TokenDayDatas:
			m.tokenDayDatas = TokenDayDatas{}
			for k, v := range arg {
				m.tokenDayDatas[k] = byDate(v)
			}
		case PairDayDatas:
			m.pairDayDatas = PairDayDatas{}
			for k, v := range arg {
				m.pairDayDatas[k] = byDate(v)
			}
		case TokenPairs:
			m.tokenPairs = arg
		case []*models.PairRef:
			m.allPairs = arg
		case []*models.TokenRef:
			m.allTokens = arg
		case *models.Transactions:
			m.txns = arg
		case error:
			m.err = arg
		}
	}
	sort.Slice(m.blocks, func(i, j int) bool {
		return m.blocks[i].Block < m.blocks[j].Block
	})
	return m
}

// byDate returns a copy sorted by date, like the subgraph returns them
func byDate(dds []*models.DayData) []*models.DayData {
	ret := make([]*models.DayData, len(dds))
	copy(ret, dds)
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Date < ret[j].Date
	})
	return ret
}

// at returns the state as of block, block 0 is the newest seeded block
func (m *mock) at(block int64) *MockBlock {
	var ret *MockBlock
	for _, b := range m.blocks {
		if block > 0 && b.Block > block {
			break
		}
		ret = b
	}
	return ret
}

func after(dds []*models.DayData, from int64) []*models.DayData {
	var ret []*models.DayData
	for _, d := range dds {
		if d.Date > from {
			ret = append(ret, d)
		}
	}
	return ret
}

func (m *mock) GetFactory(ctx context.Context, block int64) (*models.Factory, error) {
	if m.err != nil {
		return nil, m.err
	}
	b := m.at(block)
	if b == nil || b.Factory == nil {
		return nil, gotils.ErrNotFound
	}
	return b.Factory, nil
}

func (m *mock) GetFactoryDayDatas(ctx context.Context, from int64) ([]*models.DayData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return after(m.dayDatas, from), nil
}

func (m *mock) GetEthPrice(ctx context.Context, block int64) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	b := m.at(block)
	if b == nil {
		return decimal.Zero, gotils.ErrNotFound
	}
	return b.EthPrice, nil
}

func (m *mock) GetTopTokens(ctx context.Context, block int64) ([]*models.Token, error) {
	if m.err != nil {
		return nil, m.err
	}
	b := m.at(block)
	if b == nil {
		return nil, nil
	}
	return b.Tokens, nil
}

func (m *mock) GetToken(ctx context.Context, address string, block int64) (*models.Token, error) {
	if m.err != nil {
		return nil, m.err
	}
	if b := m.at(block); b != nil {
		for _, t := range b.Tokens {
			if t.Address() == strings.ToLower(address) {
				return t, nil
			}
		}
	}
	return nil, gotils.ErrNotFound
}

func (m *mock) GetTokenPairs(ctx context.Context, address string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tokenPairs[strings.ToLower(address)], nil
}

func (m *mock) GetTokenDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return after(m.tokenDayDatas[strings.ToLower(address)], from), nil
}

func (m *mock) GetTopPairs(ctx context.Context, block int64) ([]*models.Pair, error) {
	if m.err != nil {
		return nil, m.err
	}
	b := m.at(block)
	if b == nil {
		return nil, nil
	}
	return b.Pairs, nil
}

func (m *mock) GetPair(ctx context.Context, address string, block int64) (*models.Pair, error) {
	if m.err != nil {
		return nil, m.err
	}
	if b := m.at(block); b != nil {
		for _, p := range b.Pairs {
			if strings.ToLower(p.ID) == strings.ToLower(address) {
				return p, nil
			}
		}
	}
	return nil, gotils.ErrNotFound
}

func (m *mock) GetPairDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return after(m.pairDayDatas[strings.ToLower(address)], from), nil
}

func (m *mock) GetAllPairs(ctx context.Context) ([]*models.PairRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.allPairs, nil
}

func (m *mock) GetAllTokens(ctx context.Context) ([]*models.TokenRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.allTokens, nil
}

func (m *mock) GetTransactions(ctx context.Context, pairs []string) (*models.Transactions, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(pairs) == 0 {
		return m.txns, nil
	}
	in := map[string]bool{}
	for _, p := range pairs {
		in[strings.ToLower(p)] = true
	}
	ret := &models.Transactions{}
	for _, e := range m.txns.Mints {
		if in[strings.ToLower(e.Pair.ID)] {
			ret.Mints = append(ret.Mints, e)
		}
	}
	for _, e := range m.txns.Burns {
		if in[strings.ToLower(e.Pair.ID)] {
			ret.Burns = append(ret.Burns, e)
		}
	}
	for _, e := range m.txns.Swaps {
		if in[strings.ToLower(e.Pair.ID)] {
			ret.Swaps = append(ret.Swaps, e)
		}
	}
	return ret, nil
}

// GetBlocks returns the first seeded block at or after each timestamp
func (m *mock) GetBlocks(ctx context.Context, ts []time.Time) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	ret := make([]int64, len(ts))
	for i, t := range ts {
		for _, b := range m.blocks {
			if !b.Time.Before(t) {
				ret[i] = b.Block
				break
			}
		}
	}
	return ret, nil
}
