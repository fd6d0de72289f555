// Package memo memoizes catalog requests in front of a domain.Fetcher.
package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/telemetry"
)

// Options configures a Cache.
type Options struct {
	MaxEntries int
	// TTL bounds entry age; zero keeps entries until evicted.
	TTL     time.Duration
	Now     func() time.Time
	Metrics domain.Metrics
	Logger  *zap.Logger
}

type entry struct {
	value    json.RawMessage
	storedAt time.Time
}

// Cache is a bounded LRU of successful responses with single-flight
// deduplication of concurrent identical requests. Returned documents are
// shared between callers and must not be modified.
type Cache struct {
	next    domain.Fetcher
	entries *lru.Cache
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time
	metrics domain.Metrics
	logger  *zap.Logger
}

// New wraps next with a memoizing cache.
func New(next domain.Fetcher, opts Options) (*Cache, error) {
	if next == nil {
		return nil, fmt.Errorf("memo: fetcher is required")
	}
	size := opts.MaxEntries
	if size <= 0 {
		size = domain.DefaultCacheMaxEntries
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("memo: create lru: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		next:    next,
		entries: entries,
		ttl:     ttl,
		now:     now,
		metrics: metrics,
		logger:  logger.Named("memo"),
	}, nil
}

// Fetch returns the cached document for req or fetches it once for all
// concurrent callers. Failures are returned to every waiter and never stored.
func (c *Cache) Fetch(ctx context.Context, req domain.CatalogRequest) (json.RawMessage, error) {
	key := req.Key()
	if value, ok := c.lookup(key); ok {
		c.metrics.ObserveCacheLookup(domain.CacheResultHit)
		return value, nil
	}

	led := false
	ch := c.group.DoChan(key, func() (any, error) {
		led = true
		// A flight that finished between lookup and DoChan may have stored it.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		value, err := c.next.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		c.store(key, value)
		return value, nil
	})

	select {
	case res := <-ch:
		if led {
			c.metrics.ObserveCacheLookup(domain.CacheResultMiss)
		} else {
			c.metrics.ObserveCacheLookup(domain.CacheResultShared)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) lookup(key string) (json.RawMessage, bool) {
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		c.entries.Remove(key)
		c.metrics.ObserveCacheLookup(domain.CacheResultExpired)
		c.metrics.SetCacheEntries(c.entries.Len())
		c.logger.Debug("cache entry expired", telemetry.CacheField(key))
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, value json.RawMessage) {
	if evicted := c.entries.Add(key, entry{value: value, storedAt: c.now()}); evicted {
		c.metrics.ObserveCacheEviction()
	}
	c.metrics.SetCacheEntries(c.entries.Len())
}

// Len reports the number of stored entries, including any not yet found expired.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every stored entry. In-flight fetches are unaffected.
func (c *Cache) Purge() {
	c.entries.Purge()
	c.metrics.SetCacheEntries(0)
}

var _ domain.Fetcher = (*Cache)(nil)
