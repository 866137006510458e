package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMemoryCache(0)
	m.now = clock.now

	require.NoError(t, m.Set(ctx, "task:1", cachedTask{ID: "1", Title: "Call"}, time.Minute))

	var got cachedTask
	require.NoError(t, m.Get(ctx, "task:1", &got))
	assert.Equal(t, "Call", got.Title)

	clock.advance(time.Minute)
	assert.ErrorIs(t, m.Get(ctx, "task:1", &got), ErrCacheMiss)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCache_ValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache(0)

	in := []cachedTask{{ID: "1"}}
	require.NoError(t, m.Set(ctx, "list", in, 0))
	in[0].ID = "mutated"

	var out []cachedTask
	require.NoError(t, m.Get(ctx, "list", &out))
	assert.Equal(t, "1", out[0].ID)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache(0)

	for _, k := range []string{"tasks:alice:all", "tasks:alice:q=Q1", "tasks:bob:all", "stats:alice"} {
		require.NoError(t, m.Set(ctx, k, 1, 0))
	}

	require.NoError(t, m.DeletePattern(ctx, "tasks:alice:*"))

	for k, want := range map[string]bool{"tasks:alice:all": false, "tasks:alice:q=Q1": false, "tasks:bob:all": true, "stats:alice": true} {
		ok, _ := m.Exists(ctx, k)
		assert.Equal(t, want, ok, k)
	}

	assert.Error(t, m.DeletePattern(ctx, "tasks:[alice"))
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache(2)

	require.NoError(t, m.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "b", 1, time.Hour))
	require.NoError(t, m.Set(ctx, "c", 1, time.Hour))

	assert.Equal(t, 2, m.Len())
	ok, _ := m.Exists(ctx, "a")
	assert.False(t, ok)

	// overwriting an existing key never evicts
	require.NoError(t, m.Set(ctx, "c", 2, time.Hour))
	assert.Equal(t, 2, m.Len())
}

func TestMemoryCache_Metrics(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache(0)

	var v int
	require.NoError(t, m.Set(ctx, "k", 1, 0))
	require.NoError(t, m.Get(ctx, "k", &v))
	_ = m.Get(ctx, "missing", &v)

	snap := m.metrics.GetStats()
	assert.Equal(t, int64(1), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.Equal(t, 50.0, snap.HitRate)
}
