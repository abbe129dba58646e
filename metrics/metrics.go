// Package metrics holds the prometheus collectors for outbound calls and the
// backend cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emiswap_info"

// Metrics is registered on its own registry, never the global one, so tests
// can build as many as they like. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	SubgraphRequests *prometheus.CounterVec
	SubgraphDuration *prometheus.HistogramVec
	CacheRequests    *prometheus.CounterVec
	CoingeckoCalls   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SubgraphRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subgraph_requests_total",
			Help:      "Subgraph queries by network, query name and outcome",
		}, []string{"network", "query", "status"}),
		SubgraphDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subgraph_request_duration_seconds",
			Help:      "Subgraph query latency including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network", "query"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_cache_requests_total",
			Help:      "Backend cache lookups by endpoint and hit or miss",
		}, []string{"endpoint", "result"}),
		CoingeckoCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coingecko_requests_total",
			Help:      "Coingecko token price requests by outcome",
		}, []string{"status"}),
	}
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSubgraph records one finished subgraph query
func (m *Metrics) ObserveSubgraph(network, query string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.SubgraphRequests.WithLabelValues(network, query, status(err)).Inc()
	m.SubgraphDuration.WithLabelValues(network, query).Observe(time.Since(started).Seconds())
}

// CacheLookup records a backend cache hit or miss
func (m *Metrics) CacheLookup(endpoint string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(endpoint, result).Inc()
}

// CoingeckoCall records one coingecko request
func (m *Metrics) CoingeckoCall(err error) {
	if m == nil {
		return
	}
	m.CoingeckoCalls.WithLabelValues(status(err)).Inc()
}
