// Package cache keeps query responses in Redis. The index never changes after
// it is built, so an entry stays valid until the process is rebuilt; the TTL
// only bounds memory use.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/resilience"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "wordindex:"

// Store is the subset of the Redis client used by the cache.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// get decodes the entry for kind/word into dst. Any failure counts as a miss.
func (c *QueryCache) get(ctx context.Context, kind, word string, dst any) bool {
	key := buildKey(kind, word)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		switch {
		case pkgredis.IsNilError(err):
		case errors.Is(err, resilience.ErrCircuitOpen):
			c.logger.Debug("cache bypassed", "key", key, "error", err)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return false
	}
	c.hit()
	c.logger.Debug("cache hit", "kind", kind, "word", word)
	return true
}

func (c *QueryCache) set(ctx context.Context, kind, word string, value any) {
	key := buildKey(kind, word)
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached value for kind/word, or runs compute once
// for all concurrent callers asking for the same key and caches its result.
// The bool reports a cache hit.
func GetOrCompute[T any](ctx context.Context, c *QueryCache, kind, word string, compute func() (T, error)) (T, bool, error) {
	var cached T
	if c.get(ctx, kind, word, &cached) {
		return cached, true, nil
	}
	val, err, _ := c.group.Do(buildKey(kind, word), func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, kind, word, result)
		return result, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

// Invalidate removes every entry written by any QueryCache.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the word so arbitrary query text cannot break the key
// namespace. Words are used verbatim: frequency lookups are case sensitive.
func buildKey(kind, word string) string {
	return fmt.Sprintf("%s%s:%016x", keyPrefix, strings.ToLower(kind), xxhash.Sum64String(word))
}
