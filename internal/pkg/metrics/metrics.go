package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banking/risk-engine/internal/pkg/logger"
)

// Collector holds the service's Prometheus metrics on a private registry
type Collector struct {
	registry      *prometheus.Registry
	queriesTotal  *prometheus.CounterVec
	queryDuration prometheus.Histogram
	riskRecords   *prometheus.CounterVec
	truncations   prometheus.Counter
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	log           *logger.Logger
}

// NewCollector registers the metrics
func NewCollector(log *logger.Logger) *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		queriesTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "risk_queries_total",
			Help: "Total number of risk analysis queries by outcome",
		}, []string{"status"}),
		queryDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_query_duration_seconds",
			Help:    "Time taken to serve a risk analysis query",
			Buckets: prometheus.DefBuckets,
		}),
		riskRecords: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "risk_records_total",
			Help: "Total number of returned risk records by tier",
		}, []string{"tier"}),
		truncations: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "risk_working_set_truncations_total",
			Help: "Total number of queries whose candidate working set was truncated",
		}),
		cacheHits: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "risk_cache_hits_total",
			Help: "Total number of response cache hits",
		}),
		cacheMisses: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "risk_cache_misses_total",
			Help: "Total number of response cache misses",
		}),
		log: log.Named("metrics"),
	}
}

// RecordQuery tracks one served query and its latency
func (m *Collector) RecordQuery(duration time.Duration, status string) {
	m.queriesTotal.WithLabelValues(status).Inc()
	m.queryDuration.Observe(duration.Seconds())
}

// RecordTier tracks returned records by tier
func (m *Collector) RecordTier(tier string, count int) {
	if count > 0 {
		m.riskRecords.WithLabelValues(tier).Add(float64(count))
	}
}

// RecordTruncation tracks a truncated working set
func (m *Collector) RecordTruncation() {
	m.truncations.Inc()
}

// RecordCache tracks a cache lookup outcome
func (m *Collector) RecordCache(hit bool) {
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// Handler exposes the registry for scraping
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on its own listener
func (m *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.log.Info("starting metrics server", logger.StringField("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.log.Error("metrics server failed", logger.ErrorField(err))
		}
	}()

	return server
}

// Shutdown stops the metrics server
func (m *Collector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
