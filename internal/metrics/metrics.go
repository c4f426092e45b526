// Package metrics provides Prometheus metrics for the zone query service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Manager owns the service's collectors and the registry they live on.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	queries        *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	loadedSamples  *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	analyzerBuilds prometheus.Counter
}

// NewManager creates a Manager with its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cszones",
		subsystem:        "query",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.queries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_total",
		Help:      "Zone queries by kind and outcome",
	}, []string{"kind", "outcome"})

	m.queryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "query_duration_milliseconds",
		Help:      "Zone query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})

	m.loadedSamples = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loaded_samples",
		Help:      "Samples held in memory per dataset",
	}, []string{"dataset"})

	m.analyzerBuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyzer_builds_total",
		Help:      "Analyzers built from stored samples (cache misses)",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// ObserveQuery records one zone query.
func (m *Manager) ObserveQuery(kind, outcome string, d time.Duration) {
	m.queries.WithLabelValues(kind, outcome).Inc()
	m.queryLatency.WithLabelValues(kind).Observe(float64(d) / float64(time.Millisecond))
}

// SetLoadedSamples records the in-memory sample count of a dataset.
func (m *Manager) SetLoadedSamples(dataset string, n int) {
	m.loadedSamples.WithLabelValues(dataset).Set(float64(n))
}

// IncAnalyzerBuilds counts an analyzer built from storage.
func (m *Manager) IncAnalyzerBuilds() {
	m.analyzerBuilds.Inc()
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(float64(d) / float64(time.Millisecond))
}

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
