package facts

import "time"

// Sink receives fetcher telemetry events (spec.md section 6). The
// concrete Prometheus-backed implementation lives in package
// github.com/axiomrules/axiom/metrics, kept separate so that importing
// facts never pulls in the Prometheus client.
type Sink interface {
	OnSuccess(fetcherKind, requestKey string, duration time.Duration)
	OnFailure(fetcherKind, requestKey string, err error, duration time.Duration)
	OnSLABreach(fetcherKind, requestKey string, sla, actual time.Duration)
}

// NopSink discards every event. It is the default Sink when none is
// configured, so metrics collection is opt-in and never required to run
// the engine.
type NopSink struct{}

func (NopSink) OnSuccess(string, string, time.Duration)              {}
func (NopSink) OnFailure(string, string, error, time.Duration)       {}
func (NopSink) OnSLABreach(string, string, time.Duration, time.Duration) {}
