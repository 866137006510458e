// Package cache provides the two-level cache used for per-user task lists:
// an in-process L1 and an optional Redis L2 guarded by a circuit breaker.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, key string) (bool, error)
	Stats() map[string]interface{}
	Health(ctx context.Context) error
	Close() error
}
