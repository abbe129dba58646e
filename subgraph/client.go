// Package subgraph is the GraphQL transport to the indexing service. Every
// query is rate limited, retried and measured.
package subgraph

import (
	"context"
	"net/http"
	"time"

	"github.com/emiswap/info-api/metrics"
	"github.com/gochain-io/explorer/server/utils"
	"github.com/machinebox/graphql"
	"github.com/treeder/gotils/v2"
	"golang.org/x/time/rate"
)

// PageSize is the largest page the hosted service hands out
const PageSize = 1000

type Client struct {
	network string
	gql     *graphql.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics

	// Attempts and Sleep are passed to the retry loop
	Attempts int
	Sleep    time.Duration
}

// New returns a client for one subgraph endpoint. rps <= 0 disables the
// limiter. m may be nil.
func New(network, url string, rps float64, m *metrics.Metrics, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		network:  network,
		gql:      graphql.NewClient(url, graphql.WithHTTPClient(hc)),
		limiter:  rate.NewLimiter(limit, 1),
		metrics:  m,
		Attempts: 5,
		Sleep:    2 * time.Second,
	}
}

// Query runs a named GraphQL document and decodes the data field into out
func (c *Client) Query(ctx context.Context, name, query string, vars map[string]interface{}, out interface{}) error {
	ctx = gotils.With(ctx, "network", c.network)
	ctx = gotils.With(ctx, "query", name)
	started := time.Now()

	err := utils.Retry(ctx, c.Attempts, c.Sleep, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req := graphql.NewRequest(query)
		for k, v := range vars {
			req.Var(k, v)
		}
		return c.gql.Run(ctx, req, out)
	})
	c.metrics.ObserveSubgraph(c.network, name, started, err)
	if err != nil {
		return gotils.C(ctx).Errorf("error on subgraph query %v: %v", name, err)
	}
	return nil
}

// BlockVar is the block argument for time travel queries, 0 means latest
func BlockVar(block int64) interface{} {
	if block <= 0 {
		return nil
	}
	return map[string]interface{}{"number": block}
}
