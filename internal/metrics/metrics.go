package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

const namespace = "scorer"

// Metrics holds the service's Prometheus collectors.
// Each instance owns its registry so tests can create as many as they need.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	batchSize   prometheus.Histogram
	cache       *prometheus.CounterVec
	modelReady  prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Scored records by decision label and request source.",
		}, []string{"label", "source"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed scoring requests by error kind.",
		}, []string{"kind"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Wall time of a scoring call.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"source"}),

		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Records per batch request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}),

		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Prediction cache lookups by result (hit, miss, error).",
		}, []string{"result"}),

		modelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_ready",
			Help:      "1 when scoring artifacts are loaded, 0 when degraded.",
		}),
	}

	m.registry.MustRegister(
		m.predictions, m.errors, m.latency, m.batchSize, m.cache, m.modelReady,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePrediction records one scored record
func (m *Metrics) ObservePrediction(source string, label contracts.Label) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(string(label), source).Inc()
}

// ObserveError records a failed request by kind
func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(string(contracts.KindOf(err))).Inc()
}

// ObserveDuration records the elapsed time since start
func (m *Metrics) ObserveDuration(source string, start time.Time) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// ObserveBatch records a batch size
func (m *Metrics) ObserveBatch(n int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

// SetModelReady flips the readiness gauge
func (m *Metrics) SetModelReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.modelReady.Set(1)
	} else {
		m.modelReady.Set(0)
	}
}
