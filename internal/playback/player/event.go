// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"fmt"

	"github.com/ManuGH/playctl/internal/playback/events"
)

// Event is a player notification. The set of variants is closed.
type Event interface {
	playerEvent()
}

// StateChanged reports a change of the player state or play-when-ready flag.
type StateChanged struct {
	PlayWhenReady bool
	State         State
}

type IsPlayingChanged struct {
	IsPlaying bool
}

// Error is a playback failure. Code is one of the Error* constants.
type Error struct {
	Code           int
	Message        string
	Cause          error
	RequiresReinit bool
}

func (e Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

type DiscontinuityReason int

const (
	DiscontinuityAutoTransition DiscontinuityReason = iota
	DiscontinuitySeek
	DiscontinuitySeekAdjustment
	DiscontinuitySkip
	DiscontinuityRemove
	DiscontinuityInternal
)

type PositionDiscontinuity struct {
	Reason  DiscontinuityReason
	OldItem int
	NewItem int
}

type TimelineChanged struct{}

type TracksChanged struct{}

type PlaybackParametersChanged struct {
	Speed float64
}

type Metadata struct {
	Entries []events.MetadataEntry
}

// BandwidthSample is a bandwidth meter estimate in bits per second.
type BandwidthSample struct {
	Bitrate int64
}

type AudioBecomingNoisy struct{}

func (StateChanged) playerEvent()              {}
func (IsPlayingChanged) playerEvent()          {}
func (Error) playerEvent()                     {}
func (PositionDiscontinuity) playerEvent()     {}
func (TimelineChanged) playerEvent()           {}
func (TracksChanged) playerEvent()             {}
func (PlaybackParametersChanged) playerEvent() {}
func (Metadata) playerEvent()                  {}
func (BandwidthSample) playerEvent()           {}
func (AudioBecomingNoisy) playerEvent()        {}
