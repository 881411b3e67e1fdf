package axiom

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomrules/axiom/facts"
	"github.com/axiomrules/axiom/tracing"
)

// Registry is the subset of *facts.Registry the Evaluator depends on,
// narrowed to an interface so tests can supply a fake without pulling in
// the cache/metrics machinery.
type Registry interface {
	Fetch(ctx context.Context, key string, fctx facts.Context) (any, error)
}

// Evaluator walks a Rule tree against an evaluation input, implementing
// the three-valued, short-circuiting boolean algebra described in
// spec.md section 4.4 (component C4).
type Evaluator struct {
	registry       Registry
	logger         zerolog.Logger
	dispatcher     func(func())
	maxConcurrency int
	tracer         *tracing.Tracer
}

// Option configures an Evaluator at construction time.
type Option func(*Evaluator)

// WithLogger sets the logger used for action-callback panics and other
// diagnostic events. The default is a disabled (no-op) logger, so
// logging costs nothing unless explicitly enabled.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithDispatcher sets the function used to run action callbacks. When
// unset, callbacks run
// synchronously on the goroutine that determined the node's outcome.
func WithDispatcher(d func(func())) Option {
	return func(e *Evaluator) { e.dispatcher = d }
}

// WithMaxConcurrency bounds how many children of a single combinator are
// evaluated concurrently. Zero (the default) means unbounded: every child
// is launched as its own goroutine immediately, mirroring indigo's
// default (unbatched) parallel evaluation.
func WithMaxConcurrency(n int) Option {
	return func(e *Evaluator) { e.maxConcurrency = n }
}

// WithTracer attaches OpenTelemetry spans to fact fetches and combinator
// joins. When unset, tracing is skipped entirely.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Evaluator) { e.tracer = t }
}

// NewEvaluator builds an Evaluator backed by registry, which resolves
// facts referenced by leaf rules. registry may be nil if the rule tree
// contains no leaves that need fact resolution (e.g. CONSTANT-only
// trees), though any attempt to evaluate a fact-bearing leaf without one
// configured fails with ErrNoRegistry.
func NewEvaluator(registry Registry, opts ...Option) *Evaluator {
	e := &Evaluator{registry: registry, logger: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// evalOptions carries per-call overrides; currently only concurrency, but
// kept as a struct (and EvalOption as a functional-option type) so new
// per-call knobs can be added without breaking Evaluate's signature,
// mirroring indigo's EvalOption shape in engine.go.
type evalOptions struct {
	maxConcurrency int
}

// EvalOption overrides Evaluator-level defaults for a single Evaluate
// call.
type EvalOption func(*evalOptions)

// MaxConcurrency overrides the evaluator's default concurrency bound for
// one Evaluate call.
func MaxConcurrency(n int) EvalOption {
	return func(o *evalOptions) { o.maxConcurrency = n }
}

// Evaluate walks rule against input, returning the result tree. The
// returned error is non-nil only for evaluator misuse (a nil rule tree,
// or a fact-bearing leaf with no registry configured) or for cancellation
// of ctx itself; every other failure (a fetch error, an unsupported
// operator, a coercion failure) is represented structurally as an
// Outcome on the relevant Result node, never as a Go error.
func (e *Evaluator) Evaluate(ctx context.Context, rule *Rule, input any, opts ...EvalOption) (*Result, error) {
	if rule == nil {
		return nil, ErrNilRule{}
	}
	o := evalOptions{maxConcurrency: e.maxConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	fctx := facts.Context{EvalID: uuid.NewString(), Input: input}
	return e.eval(ctx, rule, fctx, o)
}

// eval computes r's Result and dispatches its Action exactly once, with
// the outcome it just computed. It is the entry point for nodes whose
// Action must fire immediately: the root of Evaluate, and a NOT node's
// single child (which is never short-circuited). Children of an AND/OR
// combinator do NOT go through eval directly — see evalCombinator.
func (e *Evaluator) eval(ctx context.Context, r *Rule, fctx facts.Context, o evalOptions) (*Result, error) {
	res, err := e.evalNode(ctx, r, fctx, o)
	if err != nil {
		return nil, err
	}
	if res.Rule != nil {
		e.dispatch(res.Rule.Action, res)
	}
	return res, nil
}

// evalNode computes r's Result without dispatching its Action. Combinator
// children call this directly so the combinator itself can decide, after
// it knows whether a child was actually resolved or short-circuited away,
// what outcome to dispatch for it (spec.md section 4.5).
func (e *Evaluator) evalNode(ctx context.Context, r *Rule, fctx facts.Context, o evalOptions) (*Result, error) {
	if r == nil {
		return &Result{Outcome: Failed, Message: "nil rule node"}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Ignore {
		return &Result{Rule: r, Outcome: Ignored, Ignored: true}, nil
	}
	switch r.Kind {
	case KindAnd, KindOr:
		return e.evalCombinator(ctx, r, fctx, o)
	case KindNot:
		return e.evalNot(ctx, r, fctx, o)
	default:
		return e.evalLeaf(ctx, r, fctx)
	}
}

func (e *Evaluator) evalNot(ctx context.Context, r *Rule, fctx facts.Context, o evalOptions) (*Result, error) {
	if len(r.Children) != 1 {
		return &Result{Rule: r, Outcome: Failed, Message: "NOT rule must have exactly one child"}, nil
	}
	child, err := e.eval(ctx, r.Children[0], fctx, o)
	if err != nil {
		return nil, err
	}
	return &Result{
		Rule:     r,
		Outcome:  not(child.Outcome),
		Message:  child.Message,
		Children: []*Result{child},
	}, nil
}

type indexedResult struct {
	idx int
	res *Result
	err error
}

// evalCombinator evaluates an AND/OR node. Children are launched
// concurrently, in declared order, and the combinator's running outcome
// is updated as results arrive; once the outcome is decisive (INVALID for
// AND, VALID for OR) the combinator stops waiting on the remaining
// children (their Result entries stay Maybe) and cancels a context shared
// only with its own children — never the caller's ctx (spec.md
// section 5, mirroring the internal/caller context split in indigo's
// engine.go evalChildren).
func (e *Evaluator) evalCombinator(ctx context.Context, r *Rule, fctx facts.Context, o evalOptions) (*Result, error) {
	n := len(r.Children)
	results := make([]*Result, n)
	for i, c := range r.Children {
		results[i] = newMaybe(c)
	}
	if n == 0 {
		// The empty combinator is its own identity: an empty AND is
		// vacuously true, an empty OR is vacuously false.
		outcome := Valid
		if r.Kind == KindOr {
			outcome = Invalid
		}
		return &Result{Rule: r, Outcome: outcome}, nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var join tracing.JoinSpan
	if e.tracer != nil {
		childCtx, join = e.tracer.StartJoin(childCtx, string(r.Kind), n)
	}

	resultsCh := make(chan indexedResult, n)
	sem := e.semaphore(o)
	for i, c := range r.Children {
		i, c := i, c
		go func() {
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-childCtx.Done():
					select {
					case resultsCh <- indexedResult{i, newMaybe(c), nil}:
					case <-childCtx.Done():
					}
					return
				}
			}
			res, err := e.evalNode(childCtx, c, fctx, o)
			select {
			case resultsCh <- indexedResult{i, res, err}:
			case <-childCtx.Done():
			}
		}()
	}

	acc := Valid
	if r.Kind == KindOr {
		acc = Invalid
	}
	resolved := make([]bool, n)
	received := 0
receive:
	for {
		select {
		case <-ctx.Done():
			if join != nil {
				join.End(Maybe.String())
			}
			return nil, ctx.Err()
		case ir := <-resultsCh:
			if ir.err != nil {
				if join != nil {
					join.End(Maybe.String())
				}
				return nil, ir.err
			}
			results[ir.idx] = ir.res
			resolved[ir.idx] = true
			received++
			if ir.res.Outcome.effective() {
				if r.Kind == KindAnd {
					acc = and(acc, ir.res.Outcome)
				} else {
					acc = or(acc, ir.res.Outcome)
				}
			}
			if isDecisive(r.Kind, acc) || received == n {
				break receive
			}
		}
	}

	if join != nil {
		join.End(acc.String())
	}

	// Every child's Action fires exactly once here, after the combinator's
	// own outcome is final: the real outcome for a child that resolved
	// before the decision, MAYBE for one short-circuited away. Children
	// evaluated through evalNode above never dispatch on their own, which
	// also suppresses a straggler goroutine still running in the
	// background (it will unblock on childCtx.Done() without ever
	// reaching a dispatch call once this function returns and cancel
	// fires).
	for i, c := range r.Children {
		if c == nil {
			continue
		}
		if !resolved[i] {
			results[i] = newMaybe(c)
		}
		e.dispatch(c.Action, results[i])
	}

	return &Result{Rule: r, Outcome: acc, Children: results}, nil
}

func (e *Evaluator) semaphore(o evalOptions) chan struct{} {
	if o.maxConcurrency <= 0 {
		return nil
	}
	return make(chan struct{}, o.maxConcurrency)
}

func (e *Evaluator) evalLeaf(ctx context.Context, r *Rule, fctx facts.Context) (*Result, error) {
	if r.Kind == KindConstant {
		return &Result{Rule: r, Outcome: r.ConstantOutcome}, nil
	}
	if e.registry == nil {
		return nil, ErrNoRegistry{}
	}

	var span tracing.FetchSpan
	if e.tracer != nil {
		ctx, span = e.tracer.StartFetch(ctx, r.Key)
	}
	val, err := e.registry.Fetch(ctx, r.Key, fctx)
	if span != nil {
		span.End(err)
	}

	res := &Result{Rule: r, Key: r.Key, Operator: r.Operator, Expected: r.Expected}
	if err != nil {
		res.Outcome = Failed
		var unknown facts.ErrUnknownFact
		if errors.As(err, &unknown) {
			err = ErrUnknownFact{Key: unknown.Key}
		}
		res.Message = fmt.Sprintf("%T: %v", err, err)
		return res, nil
	}
	res.Actual = val
	res.Outcome, res.Message = evaluateLeaf(r, val)
	return res, nil
}
