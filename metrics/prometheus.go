// Package metrics provides a Prometheus-backed facts.Sink, one concrete
// implementation of the metrics-sink interface spec.md treats as an
// external collaborator. Wiring it in is optional: facts.NopSink is the
// zero-configuration default.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/axiomrules/axiom/facts"
)

// PrometheusSink records fetcher events (spec.md section 6) as
// Prometheus metrics: a counter of successes/failures labeled by fetcher
// kind and outcome, a histogram of fetch durations, and a counter of SLA
// breaches.
type PrometheusSink struct {
	fetches     *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	slaBreaches *prometheus.CounterVec
}

// NewPrometheusSink builds a PrometheusSink and registers its collectors
// with reg. Pass prometheus.DefaultRegisterer to use the global registry.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axiom",
			Subsystem: "facts",
			Name:      "fetch_total",
			Help:      "Total fact fetches, labeled by fetcher kind and outcome.",
		}, []string{"kind", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "axiom",
			Subsystem: "facts",
			Name:      "fetch_duration_seconds",
			Help:      "Fact fetch duration in seconds, labeled by fetcher kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		slaBreaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axiom",
			Subsystem: "facts",
			Name:      "sla_breach_total",
			Help:      "Total SLA breaches, labeled by fetcher kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(s.fetches, s.durations, s.slaBreaches)
	return s
}

var _ facts.Sink = (*PrometheusSink)(nil)

// OnSuccess implements facts.Sink.
func (s *PrometheusSink) OnSuccess(fetcherKind, _ string, duration time.Duration) {
	s.fetches.WithLabelValues(fetcherKind, "success").Inc()
	s.durations.WithLabelValues(fetcherKind).Observe(duration.Seconds())
}

// OnFailure implements facts.Sink.
func (s *PrometheusSink) OnFailure(fetcherKind, _ string, _ error, duration time.Duration) {
	s.fetches.WithLabelValues(fetcherKind, "failure").Inc()
	s.durations.WithLabelValues(fetcherKind).Observe(duration.Seconds())
}

// OnSLABreach implements facts.Sink.
func (s *PrometheusSink) OnSLABreach(fetcherKind, _ string, _, _ time.Duration) {
	s.slaBreaches.WithLabelValues(fetcherKind).Inc()
}
