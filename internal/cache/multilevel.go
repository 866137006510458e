package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// MultiLevelCache reads through an in-process L1 to an optional Redis L2.
// L2 failures are logged and absorbed; the cache degrades to L1 only.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	breaker *CircuitBreaker
	l1TTL   time.Duration
	log     zerolog.Logger
}

type MultiLevelOption func(*MultiLevelCache)

func WithL1TTL(ttl time.Duration) MultiLevelOption {
	return func(c *MultiLevelCache) { c.l1TTL = ttl }
}

func WithBreaker(cb *CircuitBreaker) MultiLevelOption {
	return func(c *MultiLevelCache) { c.breaker = cb }
}

func WithLogger(l zerolog.Logger) MultiLevelOption {
	return func(c *MultiLevelCache) { c.log = l }
}

// NewMultiLevelCache builds the cache; l2 may be nil when Redis is disabled.
func NewMultiLevelCache(l1 *MemoryCache, l2 Cache, opts ...MultiLevelOption) *MultiLevelCache {
	c := &MultiLevelCache{
		l1:      l1,
		l2:      l2,
		breaker: NewCircuitBreaker(nil),
		l1TTL:   time.Minute,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MultiLevelCache) remote(op string, fn func() error) error {
	if c.l2 == nil {
		return nil
	}
	// a miss is a healthy answer and must not trip the breaker
	var miss bool
	err := c.breaker.Execute(func() error {
		err := fn()
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("l2 cache unavailable")
		return err
	}
	if miss {
		return ErrCacheMiss
	}
	return nil
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.l1TTL {
		return c.l1TTL
	}
	return ttl
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, c.l1Expiry(ttl)); err != nil {
		return err
	}
	_ = c.remote("set", func() error { return c.l2.Set(ctx, key, value, ttl) })
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	if c.l2 == nil {
		return ErrCacheMiss
	}

	if err := c.remote("get", func() error { return c.l2.Get(ctx, key, dest) }); err != nil {
		return ErrCacheMiss
	}

	_ = c.l1.Set(ctx, key, dest, c.l1TTL)
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	return c.remote("delete", func() error { return c.l2.Delete(ctx, key) })
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	if err := c.l1.DeletePattern(ctx, pattern); err != nil {
		return err
	}
	return c.remote("delete_pattern", func() error { return c.l2.DeletePattern(ctx, pattern) })
}

func (c *MultiLevelCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.l1.Exists(ctx, key); ok {
		return true, nil
	}
	var found bool
	err := c.remote("exists", func() (err error) {
		found, err = c.l2.Exists(ctx, key)
		return err
	})
	return found, err
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":      c.l1.Stats(),
		"breaker": c.breaker.GetStats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 == nil {
		return nil
	}
	if c.breaker.GetState() == CircuitBreakerOpen {
		return ErrCircuitBreakerOpen
	}
	return c.l2.Health(ctx)
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
