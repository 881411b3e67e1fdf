package facts

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// FetcherConfig configures the SLA and metrics sampling for one managed
// fetcher (spec.md section 6).
type FetcherConfig struct {
	// Kind labels this fetcher in Sink events and logs (e.g. "http",
	// "sql", "redis"). Purely descriptive.
	Kind string

	// SLAFetchTime is the agreed upper bound on the rolling average fetch
	// time. Zero disables the SLA check.
	SLAFetchTime time.Duration

	// MetricsTimesToSample is the size of the rolling window used to
	// compute the average fetch time. Defaults to 20 if zero or negative.
	MetricsTimesToSample int

	// Cache configures the per-fetcher cache. A zero value yields an
	// unbounded, non-expiring TTLCache.
	Cache CacheConfig
}

// ManagedFetcher pairs a Fetcher with its configuration, rolling metrics
// window and cache (spec.md section 4.2).
type ManagedFetcher struct {
	Fetcher Fetcher
	Config  FetcherConfig
	cache   Cache
	window  *window
}

func newManagedFetcher(f Fetcher, cfg FetcherConfig) *ManagedFetcher {
	samples := cfg.MetricsTimesToSample
	if samples <= 0 {
		samples = 20
	}
	return &ManagedFetcher{
		Fetcher: f,
		Config:  cfg,
		cache:   NewTTLCache(cfg.Cache),
		window:  newWindow(samples),
	}
}

// AverageFetchTime returns the current rolling mean fetch duration.
func (m *ManagedFetcher) AverageFetchTime() time.Duration {
	return time.Duration(m.window.mean() * float64(time.Millisecond))
}

// Close releases the fetcher's cache resources (its background sweep
// goroutine, if any).
func (m *ManagedFetcher) Close() {
	m.cache.Close()
}

// Registry maps fact keys to their ManagedFetcher. Updates are lock-free
// for readers: Registry swaps an immutable snapshot map behind an
// atomic.Pointer, the same pattern indigo's Vault uses to hot-swap a rule
// tree without blocking concurrent evaluations (vault.go), here retargeted
// from a rule tree to a fact-fetcher map.
type Registry struct {
	snapshot atomic.Pointer[map[string]*ManagedFetcher]
	sink     Sink
	logger   zerolog.Logger
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for SLA-breach warnings. The
// default is a disabled (no-op) logger.
func WithRegistryLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry builds an empty Registry. Use Register to add fetchers.
func NewRegistry(sink Sink, opts ...RegistryOption) *Registry {
	if sink == nil {
		sink = NopSink{}
	}
	r := &Registry{sink: sink, logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	empty := map[string]*ManagedFetcher{}
	r.snapshot.Store(&empty)
	return r
}

// Register installs (or replaces) the fetcher for key. Safe to call
// concurrently with Fetch: in-flight fetches against the old fetcher for
// key are unaffected; new lookups see the new fetcher immediately after
// Register returns.
func (r *Registry) Register(key string, f Fetcher, cfg FetcherConfig) {
	if cfg.Kind == "" {
		cfg.Kind = key
	}
	mf := newManagedFetcher(f, cfg)
	r.swap(func(next map[string]*ManagedFetcher) {
		if old, ok := next[key]; ok {
			old.Close()
		}
		next[key] = mf
	})
}

// Unregister removes the fetcher for key, closing its cache.
func (r *Registry) Unregister(key string) {
	r.swap(func(next map[string]*ManagedFetcher) {
		if old, ok := next[key]; ok {
			old.Close()
			delete(next, key)
		}
	})
}

func (r *Registry) swap(mutate func(map[string]*ManagedFetcher)) {
	for {
		cur := r.snapshot.Load()
		next := make(map[string]*ManagedFetcher, len(*cur))
		for k, v := range *cur {
			next[k] = v
		}
		mutate(next)
		if r.snapshot.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Lookup returns the ManagedFetcher registered for key, if any.
func (r *Registry) Lookup(key string) (*ManagedFetcher, bool) {
	m := *r.snapshot.Load()
	mf, ok := m[key]
	return mf, ok
}

// Fetch resolves the fact named key for the given evaluation context: it
// computes the fetcher's request key, asks the fetcher's cache for a
// value keyed by it, and on a cache miss invokes the fetcher, recording
// duration into the rolling metrics window and checking the SLA
// (spec.md section 4.2).
func (r *Registry) Fetch(ctx context.Context, key string, fctx Context) (any, error) {
	mf, ok := r.Lookup(key)
	if !ok {
		return nil, ErrUnknownFact{Key: key}
	}
	reqKey := mf.Fetcher.CalculateRequestKey(fctx)

	return mf.cache.Get(ctx, reqKey, func(ctx context.Context) (any, error) {
		start := time.Now()
		resp, err := mf.Fetcher.FetchResponse(ctx, fctx)
		dur := time.Since(start)
		if err != nil {
			r.sink.OnFailure(mf.Config.Kind, reqKey, err, dur)
			return nil, err
		}
		mf.window.add(float64(dur.Microseconds()) / 1000.0)
		r.sink.OnSuccess(mf.Config.Kind, reqKey, dur)
		r.checkSLA(mf, key, reqKey)
		return resp.Data, nil
	})
}

func (r *Registry) checkSLA(mf *ManagedFetcher, key, reqKey string) {
	if mf.Config.SLAFetchTime <= 0 {
		return
	}
	avg := mf.AverageFetchTime()
	if avg <= mf.Config.SLAFetchTime {
		return
	}
	r.sink.OnSLABreach(mf.Config.Kind, reqKey, mf.Config.SLAFetchTime, avg)
	r.logger.Warn().
		Str("fact", key).
		Str("kind", mf.Config.Kind).
		Str("sla_us", humanize.Comma(mf.Config.SLAFetchTime.Microseconds())).
		Str("average_us", humanize.Comma(avg.Microseconds())).
		Msg("axiom: fetcher exceeded its SLA")
	if obs, ok := mf.Fetcher.(SLAObserver); ok {
		obs.WhenFailingSLA(key, mf.Config.SLAFetchTime, avg)
	}
}

// ErrUnknownFact is returned by Fetch when key has no registered fetcher.
type ErrUnknownFact struct {
	Key string
}

func (e ErrUnknownFact) Error() string {
	return fmt.Sprintf("facts: unknown fact %q", e.Key)
}
