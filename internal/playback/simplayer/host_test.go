// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package simplayer

import (
	"context"
	"testing"

	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDRM_OpenAndRelease(t *testing.T) {
	fw := &DRM{Level: 28}
	sess, err := fw.OpenSession(context.Background(), drm.Request{
		Scheme:        drm.SchemeWidevine,
		SecurityLevel: drm.SecurityLevelSoftware,
	})
	require.NoError(t, err)
	assert.Equal(t, drm.SecurityLevelSoftware, sess.SecurityLevel())
	assert.Equal(t, 1, fw.Open())

	sess.Release()
	sess.Release()
	assert.Equal(t, 0, fw.Open())
}

func TestDRM_UnsupportedScheme(t *testing.T) {
	fw := &DRM{Level: 28, Schemes: []uuid.UUID{drm.SchemeClearKey}}
	_, err := fw.OpenSession(context.Background(), drm.Request{Scheme: drm.SchemeWidevine})
	assert.ErrorIs(t, err, drm.ErrUnsupportedScheme)

	_, err = fw.OpenSession(context.Background(), drm.Request{Scheme: drm.SchemeClearKey})
	assert.NoError(t, err)
}

func TestDRM_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&DRM{Level: 28}).OpenSession(ctx, drm.Request{Scheme: drm.SchemeWidevine})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFocus(t *testing.T) {
	f := &Focus{}
	var got []player.FocusChange
	require.True(t, f.Request(func(c player.FocusChange) { got = append(got, c) }))

	f.Change(player.FocusLossTransient)
	f.Abandon()
	f.Change(player.FocusGain)
	assert.Equal(t, []player.FocusChange{player.FocusLossTransient}, got)

	f.Deny = true
	assert.False(t, f.Request(func(player.FocusChange) {}))
}

func TestSurface(t *testing.T) {
	s := &Surface{}
	p := newPlayer(Media{}, player.BuildOptions{}, 0)
	require.NoError(t, s.AttachPlayer(p))
	assert.Same(t, p, s.Attached())
	s.DetachPlayer()
	assert.Nil(t, s.Attached())
}
