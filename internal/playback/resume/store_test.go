// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resume

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := "https://cdn.example.test/vod/master.m3u8"

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{Cursor: Cursor{ItemIndex: 1, Position: 95 * time.Second, HasPosition: true}, UpdatedAt: now}
	require.NoError(t, s.Put(ctx, key, entry))

	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Cursor, got.Cursor)
	assert.True(t, now.Equal(got.UpdatedAt))

	entry.Cursor.Position = 120 * time.Second
	require.NoError(t, s.Put(ctx, key, entry))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 120*time.Second, got.Cursor.Position)

	require.NoError(t, s.Delete(ctx, key))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	require.NoError(t, s.Close())
	assert.Error(t, s.Put(context.Background(), "k", Entry{}))
}

func TestSqliteStore(t *testing.T) {
	s, err := NewStore(context.Background(), Options{Backend: BackendSqlite, Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &SqliteStore{}, s)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSqliteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewStore(ctx, Options{Backend: BackendSqlite, Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, "a", Entry{Cursor: Cursor{Position: time.Minute, HasPosition: true}, UpdatedAt: time.Now()}))
	require.NoError(t, s1.Close())

	s2, err := NewStore(ctx, Options{Backend: BackendSqlite, Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Minute, got.Cursor.Position)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewStore(context.Background(), Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisStore(ctx, mr.Addr(), time.Hour)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, "live", Entry{Cursor: Cursor{ItemIndex: 0}}))
	assert.True(t, mr.Exists(redisKeyPrefix+"live"))

	mr.FastForward(2 * time.Hour)

	got, err := s.Get(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewStore_Backends(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s, "sqlite without dir falls back to memory")

	s, err = NewStore(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(ctx, Options{Backend: BackendRedis})
	require.Error(t, err)

	_, err = NewStore(ctx, Options{Backend: "bolt"})
	require.ErrorContains(t, err, "unknown resume store backend: bolt")
}
