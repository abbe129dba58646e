package backend

import (
	"context"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/emiswap/info-api/metrics"
	"github.com/emiswap/info-api/models"
	"github.com/shopspring/decimal"
	"github.com/treeder/gotils"
)

// key prefix format:
// -------------------------------------------
// 1 byte endpoint id  | 8 bytes block | 8 bytes from | N bytes rest of key
//                       (use 0 if n/a)
//
// IMPORTANT!!!:
// * latest (block 0) entries go stale with the ttl, historical blocks never
// change but share the same ttl to keep memory bounded.
// * all cache entries MUST use fixed key size, this doesn't effect performance much and
// callers can send in mostly zero values easily enough

type epID uint8

const (
	factoryEP epID = 1 + iota
	factoryDayDatasEP
	ethPriceEP
	topTokensEP
	tokenEP
	tokenPairsEP
	tokenDayDatasEP
	topPairsEP
	pairEP
	pairDayDatasEP
	allPairsEP
	allTokensEP
	transactionsEP
	blocksEP
)

var epNames = map[epID]string{
	factoryEP:         "factory",
	factoryDayDatasEP: "factoryDayDatas",
	ethPriceEP:        "ethPrice",
	topTokensEP:       "topTokens",
	tokenEP:           "token",
	tokenPairsEP:      "tokenPairs",
	tokenDayDatasEP:   "tokenDayDatas",
	topPairsEP:        "topPairs",
	pairEP:            "pair",
	pairDayDatasEP:    "pairDayDatas",
	allPairsEP:        "allPairs",
	allTokensEP:       "allTokens",
	transactionsEP:    "transactions",
	blocksEP:          "blocks",
}

func (e epID) String() string {
	return epNames[e]
}

func key(endpoint epID, block, from int64, key string) string {
	var prefix [17]byte

	prefix[0] = byte(endpoint)
	binary.LittleEndian.PutUint64(prefix[1:9], uint64(block))
	binary.LittleEndian.PutUint64(prefix[9:], uint64(from))

	return string(prefix[:]) + key
}

type cache struct {
	cache   *ristretto.Cache
	ttl     time.Duration
	metrics *metrics.Metrics

	db StatsBackend
}

// compiler yelling
var cacheType StatsBackend = new(cache)

// NewCacheBackend returns a caching stats backend wrapping the given stats
// backend. m may be nil.
func NewCacheBackend(ctx context.Context, db StatsBackend, ttl time.Duration, m *metrics.Metrics) (StatsBackend, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,           // number of keys to track frequency of (1M).
		MaxCost:     1 << (10 * 2), // maximum number of entries, every entry costs 1
		BufferItems: 64,            // number of keys per Get buffer.
	})
	if err != nil {
		return nil, gotils.C(ctx).Errorf("error on NewCache: %v", err)
	}

	return &cache{
		cache:   c,
		db:      db,
		ttl:     ttl,
		metrics: m,
	}, nil
}

func (c *cache) check(ep epID, key string, fill func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.cache.Get(key); ok {
		c.metrics.CacheLookup(ep.String(), true)
		return v, nil
	}
	c.metrics.CacheLookup(ep.String(), false)

	v, err := fill()
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(key, v, 1, c.ttl)
	return v, nil
}

func (c *cache) GetFactory(ctx context.Context, block int64) (*models.Factory, error) {
	v, err := c.check(factoryEP, key(factoryEP, block, 0, ""), func() (interface{}, error) {
		return c.db.GetFactory(ctx, block)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Factory), nil
}

func (c *cache) GetFactoryDayDatas(ctx context.Context, from int64) ([]*models.DayData, error) {
	v, err := c.check(factoryDayDatasEP, key(factoryDayDatasEP, 0, from, ""), func() (interface{}, error) {
		return c.db.GetFactoryDayDatas(ctx, from)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.DayData), nil
}

func (c *cache) GetEthPrice(ctx context.Context, block int64) (decimal.Decimal, error) {
	v, err := c.check(ethPriceEP, key(ethPriceEP, block, 0, ""), func() (interface{}, error) {
		return c.db.GetEthPrice(ctx, block)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

func (c *cache) GetTopTokens(ctx context.Context, block int64) ([]*models.Token, error) {
	v, err := c.check(topTokensEP, key(topTokensEP, block, 0, ""), func() (interface{}, error) {
		return c.db.GetTopTokens(ctx, block)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Token), nil
}

func (c *cache) GetToken(ctx context.Context, address string, block int64) (*models.Token, error) {
	address = strings.ToLower(address)
	v, err := c.check(tokenEP, key(tokenEP, block, 0, address), func() (interface{}, error) {
		return c.db.GetToken(ctx, address, block)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Token), nil
}

func (c *cache) GetTokenPairs(ctx context.Context, address string) ([]string, error) {
	address = strings.ToLower(address)
	v, err := c.check(tokenPairsEP, key(tokenPairsEP, 0, 0, address), func() (interface{}, error) {
		return c.db.GetTokenPairs(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (c *cache) GetTokenDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error) {
	address = strings.ToLower(address)
	v, err := c.check(tokenDayDatasEP, key(tokenDayDatasEP, 0, from, address), func() (interface{}, error) {
		return c.db.GetTokenDayDatas(ctx, address, from)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.DayData), nil
}

func (c *cache) GetTopPairs(ctx context.Context, block int64) ([]*models.Pair, error) {
	v, err := c.check(topPairsEP, key(topPairsEP, block, 0, ""), func() (interface{}, error) {
		return c.db.GetTopPairs(ctx, block)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Pair), nil
}

func (c *cache) GetPair(ctx context.Context, address string, block int64) (*models.Pair, error) {
	address = strings.ToLower(address)
	v, err := c.check(pairEP, key(pairEP, block, 0, address), func() (interface{}, error) {
		return c.db.GetPair(ctx, address, block)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Pair), nil
}

func (c *cache) GetPairDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error) {
	address = strings.ToLower(address)
	v, err := c.check(pairDayDatasEP, key(pairDayDatasEP, 0, from, address), func() (interface{}, error) {
		return c.db.GetPairDayDatas(ctx, address, from)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.DayData), nil
}

func (c *cache) GetAllPairs(ctx context.Context) ([]*models.PairRef, error) {
	v, err := c.check(allPairsEP, key(allPairsEP, 0, 0, ""), func() (interface{}, error) {
		return c.db.GetAllPairs(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.PairRef), nil
}

func (c *cache) GetAllTokens(ctx context.Context) ([]*models.TokenRef, error) {
	v, err := c.check(allTokensEP, key(allTokensEP, 0, 0, ""), func() (interface{}, error) {
		return c.db.GetAllTokens(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.TokenRef), nil
}

func (c *cache) GetTransactions(ctx context.Context, pairs []string) (*models.Transactions, error) {
	v, err := c.check(transactionsEP, key(transactionsEP, 0, 0, strings.Join(pairs, ",")), func() (interface{}, error) {
		return c.db.GetTransactions(ctx, pairs)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Transactions), nil
}

// GetBlocks is keyed by the minute, callers asking for "a day ago" within
// the same minute share a lookup.
func (c *cache) GetBlocks(ctx context.Context, ts []time.Time) ([]int64, error) {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatInt(t.Truncate(time.Minute).Unix(), 10)
	}
	v, err := c.check(blocksEP, key(blocksEP, 0, 0, strings.Join(parts, ",")), func() (interface{}, error) {
		return c.db.GetBlocks(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	return v.([]int64), nil
}
