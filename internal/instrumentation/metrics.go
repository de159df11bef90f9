package instrumentation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label names.
const (
	labelOperation = "operation"
	labelClass     = "class"
	labelOutcome   = "outcome"
	labelResult    = "result"
)

// Metrics records dispatch and client pool activity. It satisfies the
// metrics interfaces of both the dispatcher and the pool, so one instance is
// shared across the server.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	readonlyDenials   *prometheus.CounterVec
	inFlight          prometheus.Gauge

	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	constructions *prometheus.CounterVec
	poolSize      prometheus.Gauge
}

// NewMetrics creates all collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "k8s_pilot_operations_total",
			Help: "Dispatched operations by name, mutation class and outcome.",
		}, []string{labelOperation, labelClass, labelOutcome}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "k8s_pilot_operation_duration_seconds",
			Help:    "End to end dispatch duration in seconds.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{labelOperation, labelOutcome}),
		readonlyDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "k8s_pilot_readonly_denials_total",
			Help: "Write operations refused by the read-only gate.",
		}, []string{labelOperation}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "k8s_pilot_operations_in_flight",
			Help: "Operations currently being dispatched.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "k8s_pilot_client_cache_hits_total",
			Help: "Client pool lookups served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "k8s_pilot_client_cache_misses_total",
			Help: "Client pool lookups that required construction.",
		}),
		constructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "k8s_pilot_client_constructions_total",
			Help: "Client constructions by result.",
		}, []string{labelResult}),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "k8s_pilot_client_pool_size",
			Help: "Number of cached per-context clients.",
		}),
	}

	reg.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.readonlyDenials,
		m.inFlight,
		m.cacheHits,
		m.cacheMisses,
		m.constructions,
		m.poolSize,
	)
	return m
}

// ObserveDispatch records one completed dispatch.
func (m *Metrics) ObserveDispatch(operation, class, outcome string, duration time.Duration) {
	m.operationsTotal.WithLabelValues(operation, class, outcome).Inc()
	m.operationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// OnReadOnlyDenial records a write refused by the read-only gate.
func (m *Metrics) OnReadOnlyDenial(operation string) {
	m.readonlyDenials.WithLabelValues(operation).Inc()
}

// OnInFlightChange adjusts the in-flight gauge.
func (m *Metrics) OnInFlightChange(delta int) {
	m.inFlight.Add(float64(delta))
}

// OnHit records a client pool cache hit. Context names stay out of the
// labels.
func (m *Metrics) OnHit(string) {
	m.cacheHits.Inc()
}

// OnMiss records a client pool cache miss.
func (m *Metrics) OnMiss(string) {
	m.cacheMisses.Inc()
}

// OnConstruction records the outcome of one client construction.
func (m *Metrics) OnConstruction(_ string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.constructions.WithLabelValues(result).Inc()
}

// OnSizeChange updates the pool size gauge.
func (m *Metrics) OnSizeChange(size int) {
	m.poolSize.Set(float64(size))
}
