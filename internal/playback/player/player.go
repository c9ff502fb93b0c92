// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player defines the capabilities the session consumes from a media
// player implementation and the events the player reports back.
package player

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/loadcontrol"
	"github.com/ManuGH/playctl/internal/playback/tracks"
)

// State is the player's own playback state.
type State int

const (
	StateIdle State = iota + 1
	StateBuffering
	StateReady
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// ParseRepeatMode maps "off", "one" and "all".
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "", "off":
		return RepeatOff, nil
	case "one":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	default:
		return RepeatOff, errors.New("repeat mode must be off, one or all")
	}
}

// MediaSource is what the session hands the player for one source.
type MediaSource struct {
	URI           string
	ContainerHint string
	Headers       map[string]string
	Data          datasource.DataSource
	DRM           drm.Session
	Cache         cache.Store
}

// BuildOptions configure a new player instance.
type BuildOptions struct {
	Buffer          loadcontrol.BufferConfig
	LoadControl     *loadcontrol.Policy
	BackBuffer      time.Duration
	LoadErrorPolicy datasource.LoadErrorPolicy
	Listener        Listener
}

// Factory constructs players. Build may block; the session calls it off the owner goroutine.
type Factory interface {
	Build(ctx context.Context, opts BuildOptions) (Player, error)
}

// Player is the media engine under control.
type Player interface {
	SetMediaSource(src MediaSource, resetPosition bool)
	Prepare()
	SeekTo(itemIndex int, position time.Duration)
	SeekToDefault()
	SetPlayWhenReady(play bool)
	PlayWhenReady() bool
	State() State
	IsPlaying() bool

	Position() time.Duration
	BufferedPosition() time.Duration
	Duration() time.Duration
	CurrentItemIndex() int
	IsCurrentItemSeekable() bool
	// WindowStartTime is the wall clock at position zero for live windows.
	WindowStartTime() (time.Time, bool)

	TrackGroups(t tracks.Type) []tracks.Group
	ApplySelection(t tracks.Type, sel tracks.Selection)
	Selection(t tracks.Type) tracks.Selection
	VideoFormat() (tracks.Variant, bool)

	SetRepeatMode(mode RepeatMode)
	SetVolume(v float64)
	Volume() float64
	SetPlaybackRate(rate float64)
	PlaybackRate() float64
	SetMaxVideoBitrate(bps int)

	Stop()
	ClearMediaItems()
	Release()
}

// RenderTarget is the surface the player draws into.
type RenderTarget interface {
	AttachPlayer(p Player) error
	DetachPlayer()
}

// FocusChange is an audio focus notification from the platform.
type FocusChange int

const (
	FocusGain FocusChange = iota + 1
	FocusLoss
	FocusLossTransient
	FocusLossTransientCanDuck
)

// AudioFocus arbitrates audio output with other applications.
type AudioFocus interface {
	Request(onChange func(FocusChange)) bool
	Abandon()
}

// Listener receives player events. Implementations must not block.
type Listener interface {
	OnPlayerEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnPlayerEvent(e Event) { f(e) }
