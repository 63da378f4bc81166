package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/resilience"
)

// BreakerStore fails fast while the wrapped store is unhealthy, so a dead
// Redis costs each query one rejected call instead of a network timeout.
type BreakerStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

// NewBreakerStore wraps store. Cache misses do not count as failures.
func NewBreakerStore(store Store, cfg resilience.CircuitBreakerConfig) *BreakerStore {
	cfg.IsFailure = func(err error) bool {
		return err != nil && !pkgredis.IsNilError(err)
	}
	return &BreakerStore{
		store:   store,
		breaker: resilience.NewCircuitBreaker("query-cache", cfg),
	}
}

func (b *BreakerStore) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := b.breaker.Execute(func() error {
		var err error
		val, err = b.store.Get(ctx, key)
		return err
	})
	return val, err
}

func (b *BreakerStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return b.breaker.Execute(func() error {
		return b.store.Set(ctx, key, value, ttl)
	})
}

func (b *BreakerStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := b.breaker.Execute(func() error {
		var err error
		n, err = b.store.FlushByPattern(ctx, pattern)
		return err
	})
	return n, err
}

func (b *BreakerStore) State() resilience.State {
	return b.breaker.State()
}
