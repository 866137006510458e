package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"task-matrix/internal/config"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client  *redis.Client
	prefix  string
	metrics *CacheMetrics
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func CacheConfigFrom(cfg *config.Config) *CacheConfig {
	return &CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
}

// NewRedisClient opens a client that the cache and the job queue share.
func NewRedisClient(config *CacheConfig) *redis.Client {
	if config == nil {
		config = DefaultCacheConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, metrics: NewCacheMetrics()}
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := r.client.Set(ctx, r.key(key), data, expiration).Err(); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to set cache: %w", err)
	}
	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.metrics.RecordMiss()
		return ErrCacheMiss
	}
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	r.metrics.RecordHit()
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	r.metrics.RecordDelete()
	return r.client.Del(ctx, r.key(key)).Err()
}

// DeletePattern removes every key matching a Redis glob, scanning with SCAN
// rather than blocking the server with KEYS. Deletion starts once the scan
// has finished.
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, r.key(pattern), 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys for pattern %s: %w", pattern, err)
	}

	for start := 0; start < len(keys); start += 100 {
		end := min(start+100, len(keys))
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	pool := r.client.PoolStats()

	return map[string]interface{}{
		"metrics":       r.metrics.GetStats(),
		"pool_hits":     pool.Hits,
		"pool_misses":   pool.Misses,
		"pool_timeouts": pool.Timeouts,
		"pool_total":    pool.TotalConns,
		"pool_idle":     pool.IdleConns,
		"pool_stale":    pool.StaleConns,
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
