// SPDX-License-Identifier: MIT

package cache

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewDiskStore(dir, "movie.mpd", 0, zerolog.Nop())
	require.NoError(t, err)
	s.Put("seg-1", []byte("first"))
	s.Put("seg-2", []byte("second"))
	s.Delete("seg-2")
	require.NoError(t, s.Close())

	s, err = NewDiskStore(dir, "movie.mpd", 0, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	val, ok := s.Get("seg-1")
	require.True(t, ok)
	assert.Equal(t, []byte("first"), val)

	_, ok = s.Get("seg-2")
	assert.False(t, ok)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestDiskStore_NamespacesAreIsolated(t *testing.T) {
	dir := t.TempDir()

	a, err := NewDiskStore(dir, "a.mpd", 0, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := NewDiskStore(dir, "b.mpd", 0, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	a.Put("seg", []byte("x"))
	_, ok := b.Get("seg")
	assert.False(t, ok)
}

func TestDiskStore_RejectsBadNamespace(t *testing.T) {
	dir := t.TempDir()
	for _, ns := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := NewDiskStore(dir, ns, 0, zerolog.Nop())
		assert.Error(t, err, ns)
	}

	_, err := NewDiskStore("", "movie.mpd", 0, zerolog.Nop())
	assert.Error(t, err)
}
