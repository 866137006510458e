package cache

import (
	"sync/atomic"
	"time"
)

// CacheMetrics counts cache operations for one cache level.
type CacheMetrics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	started time.Time
}

type MetricsSnapshot struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Errors    int64     `json:"errors"`
	Sets      int64     `json:"sets"`
	Deletes   int64     `json:"deletes"`
	HitRate   float64   `json:"hit_rate"`
	StartedAt time.Time `json:"started_at"`
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{started: time.Now()}
}

func (m *CacheMetrics) RecordHit()    { m.hits.Add(1) }
func (m *CacheMetrics) RecordMiss()   { m.misses.Add(1) }
func (m *CacheMetrics) RecordError()  { m.errors.Add(1) }
func (m *CacheMetrics) RecordSet()    { m.sets.Add(1) }
func (m *CacheMetrics) RecordDelete() { m.deletes.Add(1) }

func (m *CacheMetrics) GetStats() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Errors:    m.errors.Load(),
		Sets:      m.sets.Load(),
		Deletes:   m.deletes.Load(),
		HitRate:   m.HitRate(),
		StartedAt: m.started,
	}
}

// HitRate is the percentage of lookups served from the cache.
func (m *CacheMetrics) HitRate() float64 {
	hits, misses := m.hits.Load(), m.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}
