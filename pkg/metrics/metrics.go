// Package metrics defines the Prometheus collectors used by wordindex and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CacheBreakerOpen     prometheus.Gauge
	DocsIndexedTotal     prometheus.Counter
	DocsSkippedTotal     prometheus.Counter
	TokensIndexedTotal   prometheus.Counter
	IndexDistinctWords   prometheus.Gauge
	IndexTrieNodes       prometheus.Gauge
	IndexBuildSeconds    prometheus.Gauge
	IndexReady           prometheus.Gauge
}

// New creates all collectors and registers them with reg. A nil reg means
// the Prometheus default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordindex_queries_total",
				Help: "Total index queries by kind (search, frequency) and result (found, not_found).",
			},
			[]string{"kind", "result"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordindex_query_latency_seconds",
				Help:    "Index query latency in seconds.",
				Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"kind", "cache_status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		CacheBreakerOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_cache_breaker_open",
				Help: "1 while the query cache circuit breaker is open.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_documents_indexed_total",
				Help: "Documents indexed during the build.",
			},
		),
		DocsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_documents_skipped_total",
				Help: "Documents skipped during the build because they could not be read.",
			},
		),
		TokensIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_tokens_indexed_total",
				Help: "Tokens indexed during the build.",
			},
		),
		IndexDistinctWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_distinct_words",
				Help: "Number of distinct keys in the frequency tree.",
			},
		),
		IndexTrieNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_trie_nodes",
				Help: "Number of nodes in the prefix index.",
			},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_build_duration_seconds",
				Help: "Wall time of the index build.",
			},
		),
		IndexReady: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_ready",
				Help: "1 once the index is built and at least one document was indexed.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.QueriesTotal,
		m.QueryLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheBreakerOpen,
		m.DocsIndexedTotal,
		m.DocsSkippedTotal,
		m.TokensIndexedTotal,
		m.IndexDistinctWords,
		m.IndexTrieNodes,
		m.IndexBuildSeconds,
		m.IndexReady,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for g. A nil g means
// the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
