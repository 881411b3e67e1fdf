package axiom_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axiomrules/axiom/facts"
)

var contextBG = context.Background()

// fakeRegistry is a minimal axiom.Registry backed by a static value map,
// used by tests that only need straightforward fact resolution.
type fakeRegistry struct {
	values map[string]any
}

func newFakeRegistry(values map[string]any) *fakeRegistry {
	return &fakeRegistry{values: values}
}

func (f *fakeRegistry) Fetch(ctx context.Context, key string, fctx facts.Context) (any, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, fmt.Errorf("fake registry: no value for %q", key)
	}
	return v, nil
}

// countingRegistry records how many times each key was fetched, used by
// the fetch-once tests (spec.md section 8, invariant 3 / scenario 4).
type countingRegistry struct {
	mu     sync.Mutex
	values map[string]any
	counts map[string]int
}

func newCountingRegistry(values map[string]any) *countingRegistry {
	return &countingRegistry{values: values, counts: map[string]int{}}
}

func (c *countingRegistry) Fetch(ctx context.Context, key string, fctx facts.Context) (any, error) {
	c.mu.Lock()
	c.counts[key]++
	c.mu.Unlock()
	return c.values[key], nil
}

func (c *countingRegistry) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// blockingRegistry blocks indefinitely (until ctx is cancelled) for any key
// in slowKeys, and resolves immediately for everything else. Used to prove
// short-circuit never waits on a sibling (spec.md section 8, invariant 6).
type blockingRegistry struct {
	values   map[string]any
	slowKeys map[string]bool
	fetched  atomic.Int32
}

func newBlockingRegistry(values map[string]any, slowKeys ...string) *blockingRegistry {
	s := map[string]bool{}
	for _, k := range slowKeys {
		s[k] = true
	}
	return &blockingRegistry{values: values, slowKeys: s}
}

func (b *blockingRegistry) Fetch(ctx context.Context, key string, fctx facts.Context) (any, error) {
	if b.slowKeys[key] {
		b.fetched.Add(1)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.values[key], nil
}

// failingRegistry fails every fetch for a configured key, succeeding for
// everything else.
type failingRegistry struct {
	values   map[string]any
	failKeys map[string]bool
}

func newFailingRegistry(values map[string]any, failKeys ...string) *failingRegistry {
	f := map[string]bool{}
	for _, k := range failKeys {
		f[k] = true
	}
	return &failingRegistry{values: values, failKeys: f}
}

func (f *failingRegistry) Fetch(ctx context.Context, key string, fctx facts.Context) (any, error) {
	if f.failKeys[key] {
		return nil, errors.New("fake fetch failure")
	}
	return f.values[key], nil
}

// sleepFetcher is a facts.Fetcher that sleeps for a fixed duration before
// resolving, under a fixed request key.
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

func (s sleepFetcher) CalculateRequestKey(facts.Context) string {
	return "sleep"
}
