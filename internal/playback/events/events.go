// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package events defines the host-facing event stream of a playback session.
package events

import (
	"time"

	"github.com/ManuGH/playctl/internal/playback/tracks"
)

// Event is one host notification. The set of variants is closed.
type Event interface {
	Name() string
	isEvent()
}

type LoadStart struct{}

// NaturalSize is the decoded video frame size.
type NaturalSize struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Orientation string `json:"orientation"`
}

type Load struct {
	Duration        time.Duration `json:"duration"`
	CurrentPosition time.Duration `json:"currentPosition"`
	NaturalSize     NaturalSize   `json:"naturalSize"`
	AudioTracks     []tracks.Info `json:"audioTracks"`
	TextTracks      []tracks.Info `json:"textTracks"`
	VideoTracks     []tracks.Info `json:"videoTracks"`
}

type Progress struct {
	CurrentTime         time.Duration `json:"currentTime"`
	PlayableDuration    time.Duration `json:"playableDuration"`
	SeekableDuration    time.Duration `json:"seekableDuration"`
	CurrentPlaybackTime time.Time     `json:"currentPlaybackTime,omitzero"`
}

type Seek struct {
	CurrentTime time.Duration `json:"currentTime"`
	SeekTime    time.Duration `json:"seekTime"`
}

type Buffering struct {
	IsBuffering bool `json:"isBuffering"`
}

type Ready struct{}

type Idle struct{}

type End struct{}

// Error is a surfaced failure. Code follows the host error taxonomy
// (1001 init, 2xxxx player, 3xxx DRM).
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Trace   string `json:"trace,omitempty"`
}

type AudioFocusChanged struct {
	HasFocus bool `json:"hasAudioFocus"`
}

type AudioBecomingNoisy struct{}

type BandwidthReport struct {
	Bitrate int64  `json:"bitrate"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	TrackID string `json:"trackId,omitempty"`
}

type PlaybackRateChange struct {
	Rate float64 `json:"playbackRate"`
}

type PlaybackStateChanged struct {
	IsPlaying bool `json:"isPlaying"`
}

// MetadataEntry is one timed metadata frame.
type MetadataEntry struct {
	Identifier string `json:"identifier"`
	Value      string `json:"value"`
}

type TimedMetadata struct {
	Entries []MetadataEntry `json:"metadata"`
}

type StateChanged struct {
	Old string `json:"oldState"`
	New string `json:"newState"`
}

func (LoadStart) Name() string            { return "load-start" }
func (Load) Name() string                 { return "load" }
func (Progress) Name() string             { return "progress" }
func (Seek) Name() string                 { return "seek" }
func (Buffering) Name() string            { return "buffering" }
func (Ready) Name() string                { return "ready" }
func (Idle) Name() string                 { return "idle" }
func (End) Name() string                  { return "end" }
func (Error) Name() string                { return "error" }
func (AudioFocusChanged) Name() string    { return "audio-focus-changed" }
func (AudioBecomingNoisy) Name() string   { return "audio-becoming-noisy" }
func (BandwidthReport) Name() string      { return "bandwidth-report" }
func (PlaybackRateChange) Name() string   { return "playback-rate-change" }
func (PlaybackStateChanged) Name() string { return "playback-state-changed" }
func (TimedMetadata) Name() string        { return "timed-metadata" }
func (StateChanged) Name() string         { return "state-changed" }

func (LoadStart) isEvent()            {}
func (Load) isEvent()                 {}
func (Progress) isEvent()             {}
func (Seek) isEvent()                 {}
func (Buffering) isEvent()            {}
func (Ready) isEvent()                {}
func (Idle) isEvent()                 {}
func (End) isEvent()                  {}
func (Error) isEvent()                {}
func (AudioFocusChanged) isEvent()    {}
func (AudioBecomingNoisy) isEvent()   {}
func (BandwidthReport) isEvent()      {}
func (PlaybackRateChange) isEvent()   {}
func (PlaybackStateChanged) isEvent() {}
func (TimedMetadata) isEvent()        {}
func (StateChanged) isEvent()         {}
