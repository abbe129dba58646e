// Package prices looks up USD token prices from coingecko
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/emiswap/info-api/metrics"
	"github.com/shopspring/decimal"
	"github.com/treeder/gotils/v2"
	"golang.org/x/time/rate"
)

// ErrNoPrice is returned when coingecko does not list the token
var ErrNoPrice = errors.New("no usd price for token")

type Coingecko struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
	cache   *ristretto.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCoingecko returns a client for the public API at baseURL. Prices are
// memoized for ttl, misses included.
func NewCoingecko(ctx context.Context, baseURL string, rps float64, ttl time.Duration, m *metrics.Metrics, hc *http.Client) (*Coingecko, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, gotils.C(ctx).Errorf("error on NewCache: %v", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Coingecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		limiter: rate.NewLimiter(limit, 1),
		cache:   c,
		ttl:     ttl,
		metrics: m,
	}, nil
}

type cached struct {
	price decimal.Decimal
	ok    bool
}

// TokenPriceUSD returns the USD price of a token on the given asset platform
func (c *Coingecko) TokenPriceUSD(ctx context.Context, platform, address string) (decimal.Decimal, error) {
	address = strings.ToLower(address)
	k := platform + "/" + address
	if v, ok := c.cache.Get(k); ok {
		p := v.(cached)
		if !p.ok {
			return decimal.Zero, ErrNoPrice
		}
		return p.price, nil
	}

	price, err := c.fetch(ctx, platform, address)
	switch {
	case err == ErrNoPrice:
		// an unlisted token is still a good answer
		c.metrics.CoingeckoCall(nil)
		c.cache.SetWithTTL(k, cached{}, 1, c.ttl)
		return decimal.Zero, err
	case err != nil:
		c.metrics.CoingeckoCall(err)
		return decimal.Zero, err
	}
	c.metrics.CoingeckoCall(nil)
	c.cache.SetWithTTL(k, cached{price: price, ok: true}, 1, c.ttl)
	return price, nil
}

func (c *Coingecko) fetch(ctx context.Context, platform, address string) (decimal.Decimal, error) {
	ctx = gotils.With(ctx, "token", address)
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	q := url.Values{}
	q.Set("contract_addresses", address)
	q.Set("vs_currencies", "usd")
	u := fmt.Sprintf("%v/simple/token_price/%v?%v", c.baseURL, url.PathEscape(platform), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, gotils.C(ctx).Errorf("error building request: %v", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return decimal.Zero, gotils.C(ctx).Errorf("error on coingecko request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, gotils.C(ctx).Errorf("coingecko returned %v", resp.StatusCode)
	}

	var body map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, gotils.C(ctx).Errorf("error decoding coingecko response: %v", err)
	}
	p, ok := body[address]["usd"]
	if !ok {
		return decimal.Zero, ErrNoPrice
	}
	return p, nil
}
