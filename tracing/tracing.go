// Package tracing attaches OpenTelemetry spans to the engine's two
// suspension points: fetcher invocation and combinator join (spec.md
// section 5). Tracing is entirely opt-in: an Evaluator with no Tracer
// configured never touches this package.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry trace.Tracer with the two span shapes the
// evaluator needs.
type Tracer struct {
	tr trace.Tracer
}

// New wraps tr for use by an Evaluator (see axiom.WithTracer).
func New(tr trace.Tracer) *Tracer {
	return &Tracer{tr: tr}
}

// FetchSpan is the handle returned by StartFetch; call End once the fetch
// completes.
type FetchSpan interface {
	End(err error)
}

type span struct {
	s trace.Span
}

func (s *span) End(err error) {
	if err != nil {
		s.s.RecordError(err)
		s.s.SetStatus(codes.Error, err.Error())
	}
	s.s.End()
}

// StartFetch starts a span around one fact fetch.
func (t *Tracer) StartFetch(ctx context.Context, key string) (context.Context, FetchSpan) {
	ctx, s := t.tr.Start(ctx, "axiom.fetch", trace.WithAttributes(attribute.String("fact.key", key)))
	return ctx, &span{s: s}
}

// JoinSpan is the handle returned by StartJoin; call End with the
// resulting outcome string once the combinator has decided.
type JoinSpan interface {
	End(outcome string)
}

type joinSpan struct {
	s trace.Span
}

func (j *joinSpan) End(outcome string) {
	j.s.SetAttributes(attribute.String("outcome", outcome))
	j.s.End()
}

// StartJoin starts a span around a combinator's wait for its children.
func (t *Tracer) StartJoin(ctx context.Context, kind string, childCount int) (context.Context, JoinSpan) {
	ctx, s := t.tr.Start(ctx, "axiom.join", trace.WithAttributes(
		attribute.String("rule.kind", kind),
		attribute.Int("children", childCount),
	))
	return ctx, &joinSpan{s: s}
}
