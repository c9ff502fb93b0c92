// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package loadcontrol

import (
	"sync"
	"time"
)

// minBufferFloor is the smallest min-buffer the baseline honors.
const minBufferFloor = 500 * time.Millisecond

// Baseline is the duration/size threshold policy.
// It keeps loading until MaxBuffer (or the byte target) is reached and
// resumes once the buffer falls below MinBuffer.
type Baseline struct {
	cfg BufferConfig

	mu        sync.Mutex
	isLoading bool
}

// NewBaseline creates a baseline policy for cfg.
func NewBaseline(cfg BufferConfig) *Baseline {
	return &Baseline{cfg: cfg}
}

// ShouldContinueLoading applies the threshold hysteresis.
func (b *Baseline) ShouldContinueLoading(allocated int64, buffered time.Duration, speed float64) bool {
	targetReached := allocated >= b.cfg.targetBytes()

	minBuffer := b.cfg.MinBuffer
	if speed > 1 {
		minBuffer = min(time.Duration(float64(minBuffer)*speed), b.cfg.MaxBuffer)
	}
	minBuffer = max(minBuffer, minBufferFloor)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case buffered < minBuffer:
		b.isLoading = b.cfg.PrioritizeTimeOverSize || !targetReached
	case buffered >= b.cfg.MaxBuffer || targetReached:
		b.isLoading = false
	}
	return b.isLoading
}

// ShouldStartPlayback reports whether enough media is buffered to (re)start playback.
func (b *Baseline) ShouldStartPlayback(allocated int64, buffered time.Duration, speed float64, rebuffering bool) bool {
	if speed > 0 {
		buffered = time.Duration(float64(buffered) / speed)
	}
	need := b.cfg.BufferForPlayback
	if rebuffering {
		need = b.cfg.BufferForPlaybackAfterRebuffer
	}
	return need <= 0 ||
		buffered >= need ||
		(!b.cfg.PrioritizeTimeOverSize && allocated >= b.cfg.targetBytes())
}

// Reset clears the loading hysteresis.
func (b *Baseline) Reset() {
	b.mu.Lock()
	b.isLoading = false
	b.mu.Unlock()
}
