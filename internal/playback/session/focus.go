// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/player"
)

// HostResume is called when the host returns to the foreground.
func (s *Session) HostResume() {
	s.post(func() {
		s.initialize(false)
		if !s.playInBackground || !s.inBackground {
			s.setPlayWhenReady(!s.paused)
		}
		s.inBackground = false
	})
}

// HostPause is called when the host goes to the background. Playback stops
// unless background playback is enabled.
func (s *Session) HostPause() {
	s.post(func() {
		s.inBackground = true
		if s.playInBackground {
			return
		}
		s.teardown("host_pause", false)
	})
}

// HostDestroy releases the player. The session stays usable.
func (s *Session) HostDestroy() {
	s.post(func() { s.teardown("host_destroy", false) })
}

func (s *Session) startPlayback() {
	switch s.player.State() {
	case player.StateIdle:
		if s.needsSource {
			s.initialize(false)
			return
		}
		s.player.Prepare()
		s.setPlayWhenReady(true)
	case player.StateEnded:
		s.player.SeekToDefault()
		s.setPlayWhenReady(true)
	default:
		if !s.player.PlayWhenReady() {
			s.setPlayWhenReady(true)
		}
	}
}

func (s *Session) pausePlayback() {
	if s.player != nil && s.player.PlayWhenReady() {
		s.setPlayWhenReady(false)
	}
}

// setPlayWhenReady starts playback only while audio focus is held.
// Pausing an ended player is a no-op.
func (s *Session) setPlayWhenReady(play bool) {
	if s.player == nil {
		return
	}
	if play {
		if s.requestFocus() {
			s.player.SetPlayWhenReady(true)
		}
	} else if s.player.State() != player.StateEnded {
		s.player.SetPlayWhenReady(false)
	}
	s.updateEffectiveRate()
}

func (s *Session) requestFocus() bool {
	if s.disableFocus || !s.hasSource || s.hasFocus {
		return true
	}
	if s.opts.Focus == nil {
		s.hasFocus = true
		return true
	}
	s.hasFocus = s.opts.Focus.Request(func(c player.FocusChange) {
		s.post(func() { s.onFocusChange(c) })
	})
	if !s.hasFocus {
		s.logger.Info().Str(log.FieldEvent, "session.focus_denied").Msg("audio focus denied")
	}
	return s.hasFocus
}

func (s *Session) abandonFocus() {
	if s.hasFocus && s.opts.Focus != nil {
		s.opts.Focus.Abandon()
	}
	s.hasFocus = false
}

func (s *Session) onFocusChange(c player.FocusChange) {
	switch c {
	case player.FocusLoss:
		s.publish(events.AudioFocusChanged{HasFocus: false})
		s.pausePlayback()
		s.abandonFocus()
	case player.FocusLossTransient:
		s.publish(events.AudioFocusChanged{HasFocus: false})
	case player.FocusGain:
		s.hasFocus = true
		s.publish(events.AudioFocusChanged{HasFocus: true})
		s.applyVolume()
	case player.FocusLossTransientCanDuck:
		if s.player != nil && !s.muted {
			s.player.SetVolume(s.volume * duckVolumeFactor)
		}
	}
}
