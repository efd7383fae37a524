// Package metrics exposes Prometheus instruments for backend operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors; a nil *Metrics records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
	events      *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epta_operations_total",
			Help: "Backend operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epta_operation_duration_seconds",
			Help:    "Backend operation latency including the simulated delay.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "epta_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epta_events_total",
			Help: "Domain events by type and delivery stage.",
		}, []string{"type", "stage"}),
	}
}

// Operation records one completed backend operation. outcome is "ok" or an error kind.
func (m *Metrics) Operation(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Event counts a domain event at a stage such as "published" or "delivered".
func (m *Metrics) Event(eventType, stage string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, stage).Inc()
}
