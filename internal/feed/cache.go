package feed

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	state   FetchState
	expires time.Time
}

// CachingFetcher wraps another Fetcher with a TTL-based in-memory cache
// keyed by tag. Failed states pass through uncached so the next request
// retries; degraded empty collections are cached like any other result.
type CachingFetcher struct {
	base Fetcher
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// CacheOption customises a CachingFetcher.
type CacheOption func(*CachingFetcher)

// WithNowFunc overrides the cache clock, primarily for tests.
func WithNowFunc(now func() time.Time) CacheOption {
	return func(c *CachingFetcher) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCachingFetcher returns a Fetcher that caches loads for the provided TTL.
func NewCachingFetcher(base Fetcher, ttl time.Duration, opts ...CacheOption) *CachingFetcher {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &CachingFetcher{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached state when fresh, otherwise it delegates to the
// underlying fetcher and stores the result.
func (c *CachingFetcher) Load(ctx context.Context, tag string) FetchState {
	if c == nil || c.base == nil {
		return Loaded(nil)
	}

	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[tag]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.state
	}

	state := c.base.Load(ctx, tag)
	if state.Phase == PhaseFailed {
		return state
	}

	c.mu.Lock()
	c.items[tag] = cacheEntry{state: state, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return state
}
