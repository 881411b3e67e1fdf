package facts

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes the result of a keyed loader (component C3 of the
// engine's design). Implementations must guarantee: at most one in-flight
// load per key; persistence of a completed value until TTL expiry or
// explicit invalidation; immediate removal of a failed load so the next
// caller retries; and a bounded maximum size.
type Cache interface {
	// Get returns the cached value for key, invoking load on a miss. If
	// multiple callers race on the same key before load completes, all
	// of them observe the single underlying call's result.
	Get(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error)

	// Invalidate evicts key, if present, so the next Get call misses.
	Invalidate(key string)

	// Close stops the cache's background eviction sweep. Safe to call
	// more than once.
	Close()
}

// CacheConfig configures a TTLCache.
type CacheConfig struct {
	// MaximumSize is the maximum number of entries retained; the
	// least-recently-used entry is evicted to make room for a new one.
	// Zero means unbounded.
	MaximumSize int

	// ExpireAfterWrite is how long a completed entry remains valid after
	// it was written. Zero means entries never expire on their own (they
	// are still subject to MaximumSize eviction).
	ExpireAfterWrite time.Duration

	// Executor, if set, runs each loader's continuation (the code that
	// stores the result and signals waiters) on it instead of the
	// calling goroutine. Left nil, loaders run inline; singleflight
	// already serializes duplicate concurrent callers for the same key.
	Executor func(func())
}

type entry struct {
	key     string
	value   any
	expires time.Time // zero means "never"
	elem    *list.Element
}

// TTLCache is a bounded, TTL-evicting Cache backed by
// golang.org/x/sync/singleflight for in-flight deduplication and a
// container/list-based LRU for bounded retention. No third-party bounded
// cache library appears anywhere in the reference corpus this engine was
// built against, so the LRU eviction uses the standard library's
// canonical doubly-linked-list idiom rather than an external dependency;
// see DESIGN.md.
type TTLCache struct {
	cfg   CacheConfig
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // front = most recently used

	stop chan struct{}
	once sync.Once
}

// NewTTLCache builds a TTLCache and, if cfg.ExpireAfterWrite is set,
// starts a background goroutine that sweeps expired entries every
// ExpireAfterWrite/4 (floor 1 second). Call Close to stop the sweep.
func NewTTLCache(cfg CacheConfig) *TTLCache {
	c := &TTLCache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		order:   list.New(),
		stop:    make(chan struct{}),
	}
	if cfg.ExpireAfterWrite > 0 {
		interval := cfg.ExpireAfterWrite / 4
		if interval < time.Second {
			interval = time.Second
		}
		go c.sweepLoop(interval)
	}
	return c
}

func (c *TTLCache) sweepLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.sweepExpired()
		}
	}
}

func (c *TTLCache) sweepExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			c.order.Remove(e.elem)
			delete(c.entries, k)
		}
	}
}

// Get implements Cache.
func (c *TTLCache) Get(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the singleflight key: another caller may have
		// populated the cache between our lookup and Do taking the lock.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		if c.cfg.Executor == nil {
			return c.loadAndStore(ctx, key, load)
		}
		type outcome struct {
			v   any
			err error
		}
		done := make(chan outcome, 1)
		c.cfg.Executor(func() {
			v, err := c.loadAndStore(ctx, key, load)
			done <- outcome{v, err}
		})
		o := <-done
		return o.v, o.err
	})
	return v, err
}

// loadAndStore runs load and, on success, inserts its result into the
// cache. It is the continuation CacheConfig.Executor, when set, runs in
// place of the calling goroutine.
func (c *TTLCache) loadAndStore(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	result, err := load(ctx)
	if err != nil {
		// Failure non-persistence (spec.md section 4.3 invariant 3):
		// never insert a failed load into the cache.
		return nil, err
	}
	c.insert(key, result)
	return result, nil
}

func (c *TTLCache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.order.Remove(e.elem)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(e.elem)
	return e.value, true
}

func (c *TTLCache) insert(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.order.Remove(old.elem)
		delete(c.entries, key)
	}

	var expires time.Time
	if c.cfg.ExpireAfterWrite > 0 {
		expires = time.Now().Add(c.cfg.ExpireAfterWrite)
	}
	e := &entry{key: key, value: value, expires: expires}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e

	if c.cfg.MaximumSize > 0 {
		for len(c.entries) > c.cfg.MaximumSize {
			back := c.order.Back()
			if back == nil {
				break
			}
			lru := back.Value.(*entry)
			c.order.Remove(back)
			delete(c.entries, lru.key)
		}
	}
}

// Invalidate implements Cache.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.order.Remove(e.elem)
		delete(c.entries, key)
	}
}

// Close implements Cache.
func (c *TTLCache) Close() {
	c.once.Do(func() { close(c.stop) })
}
