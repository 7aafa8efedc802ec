package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records webhook reconciliation outcomes.
type ReconciliationMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewReconciliationMetrics registers the reconciliation metrics on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconciliation_duration_seconds",
		Help:    "Duration of payment reconciliation attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_outcomes_total",
		Help: "Payment reconciliation attempts by outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &ReconciliationMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records how long one reconciliation attempt took.
func (m *ReconciliationMetrics) ObserveDuration(event string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for the named event/outcome pair.
func (m *ReconciliationMetrics) IncOutcome(event, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
