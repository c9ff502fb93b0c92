// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SharesStorePerNamespace(t *testing.T) {
	r := NewRegistry(Options{Policy: PolicyUnbounded})
	defer r.Close()

	a, err := r.Acquire(context.Background(), "movie.mpd")
	require.NoError(t, err)
	b, err := r.Acquire(context.Background(), "movie.mpd")
	require.NoError(t, err)
	c, err := r.Acquire(context.Background(), "other.m3u8")
	require.NoError(t, err)

	a.Put("seg", []byte("data"))
	val, ok := b.Get("seg")
	require.True(t, ok, "handles on one namespace share a store")
	assert.Equal(t, []byte("data"), val)

	_, ok = c.Get("seg")
	assert.False(t, ok, "namespaces are isolated")

	assert.Equal(t, 2, r.Refs("movie.mpd"))
	assert.Equal(t, []string{"movie.mpd", "other.m3u8"}, r.Namespaces())
}

func TestRegistry_LastReleaseClosesStore(t *testing.T) {
	r := NewRegistry(Options{Policy: PolicyUnbounded})
	defer r.Close()

	a, err := r.Acquire(context.Background(), "ns")
	require.NoError(t, err)
	b, err := r.Acquire(context.Background(), "ns")
	require.NoError(t, err)
	a.Put("seg", []byte("x"))

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "double close must not drop another holder's reference")
	assert.Equal(t, 1, r.Refs("ns"))

	require.NoError(t, b.Close())
	assert.Equal(t, 0, r.Refs("ns"))
	assert.Empty(t, r.Namespaces())

	fresh, err := r.Acquire(context.Background(), "ns")
	require.NoError(t, err)
	_, ok := fresh.Get("seg")
	assert.False(t, ok, "a released namespace starts empty")
}

func TestRegistry_Policies(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, opts := range []Options{
		{Policy: PolicyNone},
		{Policy: PolicyBudget, MaxBytes: 1 << 20},
		{Policy: PolicyRedis, Redis: RedisConfig{Addr: mr.Addr()}},
		{Policy: PolicyDisk, Dir: t.TempDir()},
	} {
		r := NewRegistry(opts)
		h, err := r.Acquire(context.Background(), "ns")
		require.NoError(t, err, opts.Policy)
		require.NoError(t, h.Close())
		r.Close()
	}

	r := NewRegistry(Options{Policy: "lru"})
	_, err := r.Acquire(context.Background(), "ns")
	assert.ErrorContains(t, err, "unknown policy")

	_, err = r.Acquire(context.Background(), "")
	assert.Error(t, err)
}

func TestRegistry_DiskNamespaceSurvivesRelease(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{Policy: PolicyDisk, Dir: dir})
	defer r.Close()

	h, err := r.Acquire(context.Background(), "movie.mpd")
	require.NoError(t, err)
	h.Put("seg-1", []byte("payload"))
	require.NoError(t, h.Close())
	assert.DirExists(t, filepath.Join(dir, "movie.mpd"))

	h, err = r.Acquire(context.Background(), "movie.mpd")
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	val, ok := h.Get("seg-1")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), val)
}

func TestNamespaceFor(t *testing.T) {
	tests := []struct {
		uri, explicit, want string
	}{
		{"https://cdn.example/vod/movie/master.m3u8", "", "master.m3u8"},
		{"https://cdn.example/vod/movie/master.m3u8?token=abc", "", "master.m3u8"},
		{"https://cdn.example/live/", "", "live"},
		{"file:///media/clip.mp4", "", "clip.mp4"},
		{"https://cdn.example/a.mpd", "shared", "shared"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NamespaceFor(tt.uri, tt.explicit), tt.uri)
	}
}
