// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package loadcontrol

import (
	"errors"
	"fmt"
	"time"
)

// Default buffer thresholds.
const (
	DefaultMinBuffer                      = 50 * time.Second
	DefaultMaxBuffer                      = 50 * time.Second
	DefaultBufferForPlayback              = 2500 * time.Millisecond
	DefaultBufferForPlaybackAfterRebuffer = 5 * time.Second
	DefaultBufferSegmentSize              = 64 * 1024

	// DefaultTargetBufferBytes covers one video and one audio renderer.
	DefaultTargetBufferBytes int64 = (2000 + 200) * DefaultBufferSegmentSize
)

// BufferConfig tunes how much media the player keeps ahead of (and behind) the playhead.
type BufferConfig struct {
	MinBuffer                      time.Duration `yaml:"minBuffer"`
	MaxBuffer                      time.Duration `yaml:"maxBuffer"`
	BufferForPlayback              time.Duration `yaml:"bufferForPlayback"`
	BufferForPlaybackAfterRebuffer time.Duration `yaml:"bufferForPlaybackAfterRebuffer"`
	BackBuffer                     time.Duration `yaml:"backBuffer"`

	// TargetBufferBytes <= 0 selects DefaultTargetBufferBytes.
	TargetBufferBytes      int64 `yaml:"targetBufferBytes"`
	PrioritizeTimeOverSize bool  `yaml:"prioritizeTimeOverSize"`

	MaxHeapAllocationPercent          float64 `yaml:"maxHeapAllocationPercent"`
	MinBackBufferMemoryReservePercent float64 `yaml:"minBackBufferMemoryReservePercent"`
	MinBufferMemoryReservePercent     float64 `yaml:"minBufferMemoryReservePercent"`

	DisableBuffering bool `yaml:"disableBuffering"`
}

// DefaultBufferConfig returns the stock thresholds with no memory reserves.
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{
		MinBuffer:                      DefaultMinBuffer,
		MaxBuffer:                      DefaultMaxBuffer,
		BufferForPlayback:              DefaultBufferForPlayback,
		BufferForPlaybackAfterRebuffer: DefaultBufferForPlaybackAfterRebuffer,
		TargetBufferBytes:              DefaultTargetBufferBytes,
		MaxHeapAllocationPercent:       1.0,
	}
}

// Validate checks threshold ordering and percentage ranges.
func (c BufferConfig) Validate() error {
	var errs []error
	if c.MinBuffer < 0 || c.MaxBuffer < 0 || c.BufferForPlayback < 0 || c.BufferForPlaybackAfterRebuffer < 0 || c.BackBuffer < 0 {
		errs = append(errs, errors.New("buffer durations must not be negative"))
	}
	if c.MaxBuffer < c.MinBuffer {
		errs = append(errs, fmt.Errorf("maxBuffer (%s) must be >= minBuffer (%s)", c.MaxBuffer, c.MinBuffer))
	}
	if c.BufferForPlayback > c.MinBuffer {
		errs = append(errs, fmt.Errorf("bufferForPlayback (%s) must be <= minBuffer (%s)", c.BufferForPlayback, c.MinBuffer))
	}
	if c.BufferForPlaybackAfterRebuffer > c.MinBuffer {
		errs = append(errs, fmt.Errorf("bufferForPlaybackAfterRebuffer (%s) must be <= minBuffer (%s)", c.BufferForPlaybackAfterRebuffer, c.MinBuffer))
	}
	for name, v := range map[string]float64{
		"maxHeapAllocationPercent":          c.MaxHeapAllocationPercent,
		"minBackBufferMemoryReservePercent": c.MinBackBufferMemoryReservePercent,
		"minBufferMemoryReservePercent":     c.MinBufferMemoryReservePercent,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	return errors.Join(errs...)
}

func (c BufferConfig) targetBytes() int64 {
	if c.TargetBufferBytes <= 0 {
		return DefaultTargetBufferBytes
	}
	return c.TargetBufferBytes
}
