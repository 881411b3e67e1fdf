package facts_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/axiomrules/axiom/facts"
)

type recordingSink struct {
	mu       sync.Mutex
	breaches []string
}

func (s *recordingSink) OnSuccess(string, string, time.Duration)        {}
func (s *recordingSink) OnFailure(string, string, error, time.Duration) {}
func (s *recordingSink) OnSLABreach(kind, reqKey string, sla, actual time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breaches = append(s.breaches, kind)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.breaches)
}

type constFetcher struct {
	facts.BaseFetcher
	value any
}

func (f constFetcher) FetchResponse(context.Context, facts.Context) (facts.FetchResponse, error) {
	return facts.FetchResponse{Data: f.value}, nil
}

func (f constFetcher) CalculateRequestKey(facts.Context) string { return "const" }

// sleepFetcher sleeps for a fixed duration before resolving, used to
// exercise SLA breach detection against a real facts.Registry.
type sleepFetcher struct {
	facts.BaseFetcher
	delay time.Duration
	value any
}

func (s sleepFetcher) FetchResponse(ctx context.Context, fctx facts.Context) (facts.FetchResponse, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return facts.FetchResponse{}, ctx.Err()
	}
	return facts.FetchResponse{Data: s.value}, nil
}

func TestRegistryLookupAndFetch(t *testing.T) {
	reg := facts.NewRegistry(nil)
	reg.Register("greeting", constFetcher{value: "hello"}, facts.FetcherConfig{Kind: "static"})

	mf, ok := reg.Lookup("greeting")
	if !ok || mf == nil {
		t.Fatal("expected greeting to be registered")
	}

	v, err := reg.Fetch(context.Background(), "greeting", facts.Context{EvalID: "e1"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if v != "hello" {
		t.Errorf("v = %v, want %q", v, "hello")
	}
}

func TestRegistryUnknownFact(t *testing.T) {
	reg := facts.NewRegistry(nil)
	_, err := reg.Fetch(context.Background(), "missing", facts.Context{})
	if _, ok := err.(facts.ErrUnknownFact); !ok {
		t.Errorf("err = %v (%T), want facts.ErrUnknownFact", err, err)
	}
}

func TestRegistryUnregisterRemovesFetcher(t *testing.T) {
	reg := facts.NewRegistry(nil)
	reg.Register("k", constFetcher{value: 1}, facts.FetcherConfig{})
	reg.Unregister("k")
	if _, ok := reg.Lookup("k"); ok {
		t.Error("expected k to be gone after Unregister")
	}
}

func TestRegistryHotSwap(t *testing.T) {
	reg := facts.NewRegistry(nil)
	reg.Register("k", constFetcher{value: "old"}, facts.FetcherConfig{})
	v1, err := reg.Fetch(context.Background(), "k", facts.Context{EvalID: "e1"})
	if err != nil {
		t.Fatal(err)
	}
	if v1 != "old" {
		t.Fatalf("v1 = %v, want %q", v1, "old")
	}

	reg.Register("k", constFetcher{value: "new"}, facts.FetcherConfig{})
	v2, err := reg.Fetch(context.Background(), "k", facts.Context{EvalID: "e2"})
	if err != nil {
		t.Fatal(err)
	}
	if v2 != "new" {
		t.Errorf("v2 = %v, want %q after re-Register", v2, "new")
	}
}

func TestRegistrySLABreach(t *testing.T) {
	sink := &recordingSink{}
	reg := facts.NewRegistry(sink)
	reg.Register("slow", sleepFetcher{delay: 30 * time.Millisecond, value: "v"}, facts.FetcherConfig{
		Kind:                 "slow-backend",
		SLAFetchTime:         1 * time.Millisecond,
		MetricsTimesToSample: 1,
	})

	// A single fetch's duration already exceeds the 1ms SLA, and the
	// rolling window has capacity 1, so the breach is detected as soon
	// as that one observation lands.
	if _, err := reg.Fetch(context.Background(), "slow", facts.Context{EvalID: "e"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if sink.count() == 0 {
		t.Error("expected at least one OnSLABreach event")
	}
}
