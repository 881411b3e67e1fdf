// Package facts implements the fact registry and per-fetcher caching layer
// (components C2/C3 of the engine's design): a named fact is backed by a
// pluggable, possibly-async Fetcher, and each fetcher owns a bounded,
// TTL-evicted Cache keyed by a request fingerprint so that a fact is
// fetched at most once per evaluation.
package facts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context is the per-evaluation context handed to a Fetcher: the data the
// fetcher needs to produce (or look up) a fact value, and to compute its
// request key.
type Context struct {
	// EvalID identifies the evaluation this fetch belongs to; useful for
	// fetchers whose request key is derived from the evaluation as a
	// whole rather than from individual fields of Input.
	EvalID string

	// Input is the caller-supplied evaluation input (the same map/struct
	// passed to Evaluator.Evaluate), available to fetchers that need more
	// than the fact key to resolve a value (e.g. a fetcher keyed by a
	// tenant ID found elsewhere in Input).
	Input any
}

// FetchResponse is the outcome of a single fetch.
type FetchResponse struct {
	// Data is the resolved fact value. A nil Data is a valid response: it
	// represents a fact that resolved to "no value", distinct from an
	// error.
	Data any
}

// Fetcher resolves a single named fact, potentially asynchronously and
// potentially backed by an external system. Implementations should be
// safe for concurrent use: the same Fetcher instance is shared across
// evaluations and may be called concurrently by sibling leaves within one
// evaluation.
type Fetcher interface {
	// FetchResponse retrieves the fact value for the given context. The
	// returned error, if any, is surfaced as a FAILED outcome on the leaf
	// rule that requested it (spec.md section 4.2).
	FetchResponse(ctx context.Context, fctx Context) (FetchResponse, error)

	// CalculateRequestKey derives the cache key under which this fetch's
	// result is memoized. Two calls with the same key within the cache's
	// TTL resolve to a single underlying fetch.
	CalculateRequestKey(fctx Context) string
}

// SLAObserver is an optional capability a Fetcher may implement to be
// notified directly when its rolling average fetch time exceeds its
// configured SLA (spec.md section 4.2). Implementing this is optional;
// the Sink event (OnSLABreach) always fires regardless.
type SLAObserver interface {
	WhenFailingSLA(key string, sla, avg time.Duration)
}

// BaseFetcher can be embedded by a Fetcher implementation that does not
// want to opt into deterministic caching. Its CalculateRequestKey returns
// a fresh random key per call, which disables caching for that fetcher
// unless the embedding type overrides the method with a deterministic
// implementation. This preserves, verbatim, the documented behavior from
// spec.md section 9: the default key generator produces a fresh random
// string, an explicit opt-in model for caching rather than an accident.
type BaseFetcher struct{}

func (BaseFetcher) CalculateRequestKey(Context) string {
	return "req-" + uuid.NewString()
}
