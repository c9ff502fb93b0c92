// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetPut(t *testing.T) {
	s := NewMemoryStore(0, 0)
	defer func() { _ = s.Close() }()

	s.Put("seg-1", []byte("abcd"))

	val, ok := s.Get("seg-1")
	require.True(t, ok, "expected to find seg-1")
	assert.Equal(t, []byte("abcd"), val)
	assert.Equal(t, int64(4), s.Size())

	_, ok = s.Get("nonexistent")
	assert.False(t, ok)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.Entries)
}

func TestMemoryStore_OverwriteAndDelete(t *testing.T) {
	s := NewMemoryStore(0, 0)
	defer func() { _ = s.Close() }()

	s.Put("seg", make([]byte, 10))
	s.Put("seg", make([]byte, 4))
	assert.Equal(t, int64(4), s.Size())

	s.Delete("seg")
	s.Delete("seg")
	assert.Equal(t, int64(0), s.Size())
	_, ok := s.Get("seg")
	assert.False(t, ok)
}

func TestMemoryStore_Expiration(t *testing.T) {
	s := NewMemoryStore(50*time.Millisecond, 0)
	defer func() { _ = s.Close() }()

	s.Put("shortlived", []byte("v"))
	_, ok := s.Get("shortlived")
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	_, ok = s.Get("shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryStore_Janitor(t *testing.T) {
	s := NewMemoryStore(20*time.Millisecond, 10*time.Millisecond)
	defer func() { _ = s.Close() }()

	s.Put("a", []byte("xx"))
	s.Put("b", []byte("yy"))

	require.Eventually(t, func() bool {
		return s.Stats().Entries == 0
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), s.Stats().Evictions)
	assert.Equal(t, int64(0), s.Size())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(0, 0)
	defer func() { _ = s.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				s.Put(key, []byte{byte(j)})
				s.Get(key)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int64(8), s.Size())
}

func TestNoopStore(t *testing.T) {
	s := NewNoopStore()
	s.Put("k", []byte("v"))
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Zero(t, s.Size())
	assert.NoError(t, s.Close())
}

func TestBudgetStore(t *testing.T) {
	_, err := NewBudgetStore(0)
	require.Error(t, err)

	s, err := NewBudgetStore(1 << 20)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	bs := s.(*budgetStore)
	s.Put("seg-1", make([]byte, 1024))
	bs.Wait()

	val, ok := s.Get("seg-1")
	require.True(t, ok)
	assert.Len(t, val, 1024)
	assert.Positive(t, s.Size())

	s.Delete("seg-1")
	bs.Wait()
	_, ok = s.Get("seg-1")
	assert.False(t, ok)
}

func newTestRedisStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "movie.mpd", RedisConfig{Addr: mr.Addr(), TTL: ttl}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return mr, s
}

func TestRedisStore_PutGet(t *testing.T) {
	mr, s := newTestRedisStore(t, 0)

	s.Put("seg-1", []byte("payload"))
	val, ok := s.Get("seg-1")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), val)
	assert.True(t, mr.Exists("playctl:cache:movie.mpd:seg-1"))
	assert.Equal(t, int64(7), s.Size())

	_, ok = s.Get("missing")
	assert.False(t, ok)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestRedisStore_Delete(t *testing.T) {
	_, s := newTestRedisStore(t, 0)

	s.Put("seg-1", []byte("payload"))
	s.Delete("seg-1")
	_, ok := s.Get("seg-1")
	assert.False(t, ok)
	assert.Equal(t, int64(0), s.Size())
}

func TestRedisStore_TTL(t *testing.T) {
	mr, s := newTestRedisStore(t, time.Minute)

	s.Put("seg-1", []byte("payload"))
	mr.FastForward(2 * time.Minute)

	_, ok := s.Get("seg-1")
	assert.False(t, ok)
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), "ns", RedisConfig{Addr: addr}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}
