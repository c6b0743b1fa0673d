// Package metrics exposes Prometheus instruments for the count aggregators.
//
// A nil *Metrics is valid and records nothing, so tests and tools can skip it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeSkipped      = "skipped"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
	OutcomeStale        = "stale"
)

// Metrics bundles the hrdesk collectors.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	sourceFailures  *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	eventsApplied   *prometheus.CounterVec
	aggregators     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrdesk",
			Name:      "count_refreshes_total",
			Help:      "Count refresh attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrdesk",
			Name:      "count_source_failures_total",
			Help:      "Sub-fetches that fell back to zero, by role, field and reason.",
		}, []string{"role", "field", "reason"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrdesk",
			Name:      "count_refresh_duration_seconds",
			Help:      "Wall time of a full count refresh.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrdesk",
			Name:      "count_events_applied_total",
			Help:      "Optimistic count updates applied, by event kind.",
		}, []string{"kind"}),
		aggregators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hrdesk",
			Name:      "count_aggregators",
			Help:      "Live per-user count aggregators.",
		}),
	}
	reg.MustRegister(m.refreshes, m.sourceFailures, m.refreshDuration, m.eventsApplied, m.aggregators)
	return m
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRefresh records a refresh outcome; d is ignored for skipped refreshes.
func (m *Metrics) ObserveRefresh(role, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(role, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.refreshDuration.WithLabelValues(role).Observe(d.Seconds())
	}
}

// SourceFailed records a sub-fetch that was mapped to zero.
func (m *Metrics) SourceFailed(role, field, reason string) {
	if m == nil {
		return
	}
	m.sourceFailures.WithLabelValues(role, field, reason).Inc()
}

// EventApplied records an optimistic update.
func (m *Metrics) EventApplied(kind string) {
	if m == nil {
		return
	}
	m.eventsApplied.WithLabelValues(kind).Inc()
}

// SetAggregators sets the live aggregator gauge.
func (m *Metrics) SetAggregators(n int) {
	if m == nil {
		return
	}
	m.aggregators.Set(float64(n))
}
