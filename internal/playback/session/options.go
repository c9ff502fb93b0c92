// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/loadcontrol"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/progress"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/ManuGH/playctl/internal/playback/tracks"
)

const (
	// DefaultInitDelay coalesces setter bursts into one initialization.
	DefaultInitDelay = time.Millisecond
	// DefaultBandwidthInterval throttles bandwidth reports.
	DefaultBandwidthInterval = time.Second

	shutdownTimeout = 5 * time.Second
	persistTimeout  = 2 * time.Second

	duckVolumeFactor = 0.8
)

// CodeInitFailure is surfaced when the player cannot be created or attached.
const CodeInitFailure = 1001

var (
	ErrNoRenderTarget = errors.New("no render target attached")
	ErrClosed         = errors.New("session closed")
	ErrNoPlayer       = errors.New("no player instance")
)

// InitError reports a failed player initialization.
type InitError struct {
	Code int
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("player initialization failed (code %d): %v", e.Code, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// hostErrorCode maps a player error code to the code reported to the host.
func hostErrorCode(code int) int {
	n, err := strconv.Atoi("2" + strconv.Itoa(code))
	if err != nil {
		return code
	}
	return n
}

// Source identifies the media to play. A different URI is a different source.
type Source struct {
	URI            string
	ContainerHint  string
	Headers        map[string]string
	CacheNamespace string
}

// Options wire a session to its collaborators. Players and Sink are required.
type Options struct {
	Players     player.Factory
	Sink        events.Sink
	DataSources datasource.Factory
	Caches      *cache.Registry
	Oracle      tracks.Capabilities
	DRM         drm.Framework
	DRMPolicy   drm.Policy
	Prober      datasource.ManifestProber
	Resume      resume.Store
	Focus       player.AudioFocus
	Memory      loadcontrol.MemoryProbe

	Buffer            loadcontrol.BufferConfig
	MinLoadRetryCount int
	ProgressInterval  time.Duration
	InitDelay         time.Duration
	BandwidthInterval time.Duration

	Locale            string
	CaptioningEnabled bool
}

func (o *Options) normalize() error {
	if o.Players == nil {
		return errors.New("session: player factory is required")
	}
	if o.Sink == nil {
		return errors.New("session: event sink is required")
	}
	if o.DataSources == nil {
		o.DataSources = datasource.NewHTTPFactory(datasource.HTTPOptions{})
	}
	if o.Oracle == nil {
		o.Oracle = tracks.AllSupported
	}
	if o.DRMPolicy == (drm.Policy{}) {
		o.DRMPolicy = drm.DefaultPolicy()
	}
	if o.Resume == nil {
		o.Resume = resume.NewMemoryStore()
	}
	if o.Memory == nil {
		o.Memory = &loadcontrol.RuntimeProbe{}
	}
	if o.Buffer == (loadcontrol.BufferConfig{}) {
		o.Buffer = loadcontrol.DefaultBufferConfig()
	}
	if err := o.Buffer.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if o.MinLoadRetryCount <= 0 {
		o.MinLoadRetryCount = datasource.DefaultMinLoadRetryCount
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = progress.DefaultInterval
	}
	if o.InitDelay <= 0 {
		o.InitDelay = DefaultInitDelay
	}
	if o.BandwidthInterval <= 0 {
		o.BandwidthInterval = DefaultBandwidthInterval
	}
	return nil
}
