// Package metrics holds the prometheus instrumentation shared by the cache,
// the MyAnimeList client and the pagination sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric name constants.
const (
	metricCacheLookups       = "anilumina_cache_lookups_total"
	metricUpstreamRequests   = "anilumina_upstream_requests_total"
	metricUpstreamDuration   = "anilumina_upstream_request_duration_seconds"
	metricSessionTransitions = "anilumina_session_transitions_total"
	metricSessionsActive     = "anilumina_sessions_active"
)

// DefaultUpstreamDurationBuckets are histogram buckets for upstream request durations.
var DefaultUpstreamDurationBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15,
}

// Metrics groups all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// CacheLookups counts cache reads by operation and result (hit, miss).
	CacheLookups *prometheus.CounterVec

	// UpstreamRequests counts upstream API calls by endpoint and outcome.
	UpstreamRequests *prometheus.CounterVec

	// UpstreamDuration tracks upstream API latency by endpoint.
	UpstreamDuration *prometheus.HistogramVec

	// SessionTransitions counts navigation events by direction and outcome.
	SessionTransitions *prometheus.CounterVec

	// SessionsActive is the number of live pagination sessions.
	SessionsActive prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricCacheLookups,
			Help: "Cache lookups by operation and result",
		}, []string{"op", "result"}),

		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricUpstreamRequests,
			Help: "Upstream API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricUpstreamDuration,
			Help:    "Upstream API request duration in seconds",
			Buckets: DefaultUpstreamDurationBuckets,
		}, []string{"endpoint"}),

		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricSessionTransitions,
			Help: "Pagination navigation events by direction and outcome",
		}, []string{"direction", "outcome"}),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricSessionsActive,
			Help: "Number of live pagination sessions",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheLookups,
			m.UpstreamRequests,
			m.UpstreamDuration,
			m.SessionTransitions,
			m.SessionsActive,
		)
	}

	return m
}

// CacheHit records a cache hit for op
func (m *Metrics) CacheHit(op string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(op, "hit").Inc()
}

// CacheMiss records a cache miss for op
func (m *Metrics) CacheMiss(op string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(op, "miss").Inc()
}

// ObserveUpstream records one upstream call
func (m *Metrics) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Transition records one navigation event
func (m *Metrics) Transition(direction, outcome string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(direction, outcome).Inc()
}

// SetSessionsActive sets the live session gauge
func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}
