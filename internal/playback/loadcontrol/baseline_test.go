// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package loadcontrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseline_Hysteresis(t *testing.T) {
	cfg := DefaultBufferConfig()
	cfg.MinBuffer = 10 * time.Second
	cfg.MaxBuffer = 30 * time.Second
	b := NewBaseline(cfg)

	assert.True(t, b.ShouldContinueLoading(0, 5*time.Second, 1), "below min starts loading")
	assert.True(t, b.ShouldContinueLoading(0, 20*time.Second, 1), "between thresholds keeps loading")
	assert.False(t, b.ShouldContinueLoading(0, 30*time.Second, 1), "max stops loading")
	assert.False(t, b.ShouldContinueLoading(0, 20*time.Second, 1), "between thresholds stays stopped")
	assert.True(t, b.ShouldContinueLoading(0, 9*time.Second, 1), "below min resumes")

	b.Reset()
	assert.False(t, b.ShouldContinueLoading(0, 20*time.Second, 1))
}

func TestBaseline_TargetBytes(t *testing.T) {
	cfg := DefaultBufferConfig()
	cfg.TargetBufferBytes = 1000
	b := NewBaseline(cfg)

	assert.False(t, b.ShouldContinueLoading(1000, time.Second, 1), "size target wins when time is not prioritized")

	cfg.PrioritizeTimeOverSize = true
	b = NewBaseline(cfg)
	assert.True(t, b.ShouldContinueLoading(1000, time.Second, 1))
}

func TestBaseline_SpeedRaisesMinBuffer(t *testing.T) {
	cfg := DefaultBufferConfig()
	cfg.MinBuffer = 10 * time.Second
	cfg.MaxBuffer = 40 * time.Second
	b := NewBaseline(cfg)

	require.True(t, b.ShouldContinueLoading(0, 5*time.Second, 1))
	require.False(t, b.ShouldContinueLoading(0, 40*time.Second, 1))
	require.False(t, b.ShouldContinueLoading(0, 15*time.Second, 1))
	// At 2x speed the effective min buffer is 20s, so 15s resumes loading.
	assert.True(t, b.ShouldContinueLoading(0, 15*time.Second, 2))
}

func TestBaseline_ShouldStartPlayback(t *testing.T) {
	cfg := DefaultBufferConfig()
	cfg.TargetBufferBytes = 1 << 30
	b := NewBaseline(cfg)

	assert.False(t, b.ShouldStartPlayback(0, 2*time.Second, 1, false))
	assert.True(t, b.ShouldStartPlayback(0, 2500*time.Millisecond, 1, false))
	assert.False(t, b.ShouldStartPlayback(0, 4*time.Second, 1, true))
	assert.True(t, b.ShouldStartPlayback(0, 5*time.Second, 1, true))
	assert.False(t, b.ShouldStartPlayback(0, 4*time.Second, 2, false), "buffered media plays out faster at 2x")
	assert.True(t, b.ShouldStartPlayback(1<<30, 0, 1, false), "size target starts playback")
}

func TestBufferConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultBufferConfig().Validate())

	cfg := DefaultBufferConfig()
	cfg.MaxBuffer = time.Second
	cfg.MaxHeapAllocationPercent = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxBuffer")
	assert.Contains(t, err.Error(), "maxHeapAllocationPercent")

	cfg = DefaultBufferConfig()
	cfg.BufferForPlayback = time.Hour
	assert.ErrorContains(t, cfg.Validate(), "bufferForPlayback")
}
