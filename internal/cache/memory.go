package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local cache storing JSON encoded values.
// DeletePattern takes doublestar globs; cache keys are ':' separated, so a
// single '*' spans any number of key segments.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
	metrics    *CacheMetrics
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		metrics:    NewCacheMetrics(),
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = entry
	m.metrics.RecordSet()
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry when
// nothing has expired yet.
func (m *MemoryCache) evictLocked() {
	now := m.now()
	var (
		victim  string
		soonest time.Time
	)
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			continue
		}
		if victim == "" || (!e.expiresAt.IsZero() && (soonest.IsZero() || e.expiresAt.Before(soonest))) {
			victim, soonest = k, e.expiresAt
		}
	}
	if len(m.entries) >= m.maxEntries && victim != "" {
		delete(m.entries, victim)
	}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || entry.expired(m.now()) {
		if ok {
			m.mu.Lock()
			delete(m.entries, key)
			m.mu.Unlock()
		}
		m.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	m.metrics.RecordHit()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	m.metrics.RecordDelete()
	return nil
}

func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid cache key pattern %q", pattern)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if ok, _ := doublestar.Match(pattern, k); ok {
			delete(m.entries, k)
			m.metrics.RecordDelete()
		}
	}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	return ok && !entry.expired(m.now()), nil
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"entries":  m.Len(),
		"metrics":  m.metrics.GetStats(),
		"hit_rate": m.metrics.HitRate(),
	}
}

func (m *MemoryCache) Health(context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
