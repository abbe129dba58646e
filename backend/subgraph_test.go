package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emiswap/info-api/subgraph"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treeder/gotils"
)

type fakeGraph struct {
	t       *testing.T
	queries []string
	vars    []map[string]interface{}
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
		return
	}
	f.queries = append(f.queries, req.Query)
	f.vars = append(f.vars, req.Variables)

	var data string
	switch {
	case strings.Contains(req.Query, "query factory("):
		if req.Variables["block"] != nil {
			data = `{"emiswapFactories": []}`
		} else {
			data = `{"emiswapFactories": [{"id": "0x1771dff85160768255f0a44d20965665806cbf48", "pairCount": 12, "totalVolumeUSD": "1000.5", "totalLiquidityETH": "10", "txCount": "77"}]}`
		}
	case strings.Contains(req.Query, "query factoryDayDatas("):
		n := 3
		if req.Variables["skip"].(float64) == 0 {
			n = subgraph.PageSize
		}
		rows := make([]string, n)
		for i := range rows {
			rows[i] = fmt.Sprintf(`{"date": %d, "dailyVolumeUSD": "1", "totalLiquidityUSD": "5", "mostLiquidTokens": [{"id": "0xa"}]}`, 1600000000+i*86400)
		}
		data = `{"emiswapDayDatas": [` + strings.Join(rows, ",") + `]}`
	case strings.Contains(req.Query, "query token("):
		data = `{"tokens": []}`
	case strings.Contains(req.Query, "query tokenPairs("):
		data = `{"pairs0": [{"id": "0xp1"}], "pairs1": [{"id": "0xp2"}, {"id": "0xp3"}]}`
	case strings.Contains(req.Query, "query transactions"):
		data = `{"transactions": [
			{"mints": [{"transaction": {"id": "0xt1", "timestamp": "1600000000"}, "pair": {"id": "0xp1"}, "amount0": "1", "amount1": "2"}], "burns": [], "swaps": []},
			{"mints": [], "burns": [], "swaps": [{"transaction": {"id": "0xt2", "timestamp": "1600000100"}, "pair": {"id": "0xp1"}, "srcAmount": "3", "destAmount": "4"}]}
		]}`
	case strings.Contains(req.Query, "query blocks"):
		data = `{"t1600000000": [{"number": "11000000"}], "t1600086400": []}`
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	fmt.Fprintf(w, `{"data": %v}`, data)
}

func newFakeSubgraph(t *testing.T) (*Subgraph, *fakeGraph) {
	f := &fakeGraph{t: t}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c := subgraph.New("main", srv.URL, 0, nil, srv.Client())
	c.Attempts = 1
	return NewSubgraph("0x1771dff85160768255F0a44D20965665806cBf48", c, NewBlocksSubgraph(c)), f
}

func TestSubgraphFactory(t *testing.T) {
	s, f := newFakeSubgraph(t)
	ctx := context.Background()

	fac, err := s.GetFactory(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, fac.PairCount)
	assert.True(t, fac.TotalVolumeUSD.Equal(decimal.RequireFromString("1000.5")))
	assert.True(t, fac.TxCount.Equal(decimal.NewFromInt(77)))
	assert.Equal(t, "0x1771dff85160768255f0a44d20965665806cbf48", f.vars[0]["id"])

	_, err = s.GetFactory(ctx, 123)
	assert.Equal(t, gotils.ErrNotFound, err)
}

func TestSubgraphDayDatasPaging(t *testing.T) {
	s, f := newFakeSubgraph(t)

	dds, err := s.GetFactoryDayDatas(context.Background(), 1500000000)
	require.NoError(t, err)
	assert.Len(t, dds, subgraph.PageSize+3)
	require.Len(t, f.vars, 2)
	assert.EqualValues(t, subgraph.PageSize, f.vars[1]["skip"])
	assert.EqualValues(t, 1500000000, f.vars[1]["from"])

	p := dds[0].Point()
	assert.Equal(t, 1.0, p.VolumeUSD)
	assert.Equal(t, 5.0, *p.LiquidityUSD)
	assert.Nil(t, p.PriceUSD)
	assert.Equal(t, []string{"0xa"}, p.MostLiquid)
}

func TestSubgraphTokenNotFound(t *testing.T) {
	s, _ := newFakeSubgraph(t)
	_, err := s.GetToken(context.Background(), "0xABC", 0)
	assert.Equal(t, gotils.ErrNotFound, err)
}

func TestSubgraphTokenPairs(t *testing.T) {
	s, _ := newFakeSubgraph(t)
	pairs, err := s.GetTokenPairs(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xp1", "0xp2", "0xp3"}, pairs)
}

func TestSubgraphGlobalTransactions(t *testing.T) {
	s, _ := newFakeSubgraph(t)
	txns, err := s.GetTransactions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, txns.Mints, 1)
	require.Len(t, txns.Swaps, 1)
	assert.Equal(t, int64(1600000100), txns.Swaps[0].Transaction.Time().Unix())
	assert.True(t, txns.Swaps[0].DestAmount.Equal(decimal.NewFromInt(4)))
	assert.False(t, txns.Mints[0].AmountUSD.Valid)
}

func TestSubgraphBlocks(t *testing.T) {
	s, _ := newFakeSubgraph(t)
	blocks, err := s.GetBlocks(context.Background(), []time.Time{time.Unix(1600000000, 0), time.Unix(1600086400, 0)})
	require.NoError(t, err)
	assert.Equal(t, []int64{11000000, 0}, blocks)
}
