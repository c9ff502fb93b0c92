// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"maps"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/loadcontrol"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/resume"
)

// SetSource replaces the source. The same URI again is ignored; an empty URI
// clears the source.
func (s *Session) SetSource(src Source) {
	src.Headers = maps.Clone(src.Headers)
	s.post(func() {
		if src.URI == "" {
			s.clearSource()
			return
		}
		if s.hasSource && src.URI == s.src.URI {
			return
		}
		s.gen++
		s.inflight = 0
		s.stopRetryTimer()
		s.progress.Stop()
		s.src = src
		s.hasSource = true
		s.needsSource = true
		s.lookupResume = true
		s.cursor.Clear()
		s.loadErrors = 0
		s.contentMode = false
		s.reselectOnReady = false
		s.firstLoad = false
		s.forceInit = true
		s.logger.Info().Str(log.FieldEvent, "session.source").Str(log.FieldSourceURI, src.URI).Msg("source set")
		s.scheduleInit()
	})
}

// ClearSource stops playback and forgets the source and its cursor.
func (s *Session) ClearSource() {
	s.post(s.clearSource)
}

func (s *Session) clearSource() {
	s.gen++
	s.inflight = 0
	s.stopInitTimer()
	s.stopRetryTimer()
	s.progress.Stop()
	if s.player != nil {
		s.player.Stop()
		s.player.ClearMediaItems()
	}
	s.src = Source{}
	s.hasSource = false
	s.needsSource = true
	s.lookupResume = false
	s.cursor.Clear()
	s.releaseSourceResources()
	s.firstLoad = false
	s.collecting = false
	s.terminal = false
	if s.fire(EvTeardown) {
		s.publish(events.Idle{})
	}
}

// SetDRM configures protection for the next attached source. Nil disables DRM.
func (s *Session) SetDRM(cfg *drm.Config) {
	var c *drm.Config
	if cfg != nil {
		cp := *cfg
		cp.Headers = maps.Clone(cfg.Headers)
		c = &cp
	}
	s.post(func() { s.drmConfig = c })
}

// SetBufferConfig validates cfg and rebuilds the player with it.
func (s *Session) SetBufferConfig(cfg loadcontrol.BufferConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.post(func() {
		if cfg == s.buffer {
			return
		}
		s.buffer = cfg
		s.rebuild("buffer_config")
	})
	return nil
}

// SetMinLoadRetryCount sets the retry budget for ordinary load errors and rebuilds the player.
func (s *Session) SetMinLoadRetryCount(n int) {
	s.post(func() {
		if n <= 0 || n == s.minLoadRetry {
			return
		}
		s.minLoadRetry = n
		s.rebuild("min_load_retry_count")
	})
}

// rebuild releases the current player so the next initialization builds one
// with the new options. The cursor carries the playhead across.
func (s *Session) rebuild(reason string) {
	if s.player == nil {
		return
	}
	s.teardown(reason, false)
	s.scheduleInit()
}

func (s *Session) SetRepeat(mode player.RepeatMode) {
	s.post(func() {
		s.repeat = mode
		if s.player != nil {
			s.player.SetRepeatMode(mode)
		}
	})
}

func (s *Session) SetMuted(muted bool) {
	s.post(func() {
		s.muted = muted
		s.applyVolume()
	})
}

// SetVolume sets the output volume in [0, 1].
func (s *Session) SetVolume(v float64) {
	v = min(max(v, 0), 1)
	s.post(func() {
		s.volume = v
		s.applyVolume()
	})
}

// SetRate sets the playback speed. Non-positive rates are ignored.
func (s *Session) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.post(func() {
		s.rate = rate
		if s.player != nil {
			s.player.SetPlaybackRate(rate)
			s.updateEffectiveRate()
		}
	})
}

// SetMaxBitrate caps the video bitrate in bits per second. Zero removes the cap.
func (s *Session) SetMaxBitrate(bps int) {
	s.post(func() {
		s.maxBitrate = max(bps, 0)
		if s.player != nil {
			s.player.SetMaxVideoBitrate(s.maxBitrate)
		}
	})
}

func (s *Session) SetPaused(paused bool) {
	s.post(func() {
		s.paused = paused
		if s.player == nil {
			if !paused {
				s.scheduleInit()
			}
			return
		}
		if paused {
			s.pausePlayback()
		} else {
			s.startPlayback()
		}
	})
}

func (s *Session) SetProgressInterval(d time.Duration) {
	s.post(func() { s.progress.SetInterval(d) })
}

func (s *Session) SetReportBandwidth(enabled bool) {
	s.post(func() { s.reportBandwidth = enabled })
}

func (s *Session) SetPlayInBackground(enabled bool) {
	s.post(func() { s.playInBackground = enabled })
}

func (s *Session) SetDisableFocus(disabled bool) {
	s.post(func() { s.disableFocus = disabled })
}

// SetContentStartTime enables content-driven resolution for the next load.
// A negative value disables it.
func (s *Session) SetContentStartTime(d time.Duration) {
	s.post(func() { s.contentStart = d })
}

// Seek moves the playhead. While the source awaits reattachment the target
// becomes the resume cursor instead.
func (s *Session) Seek(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	s.post(func() {
		if s.player == nil || s.needsSource {
			item := 0
			current := time.Duration(0)
			if c, ok := s.cursor.Peek().Get(); ok {
				item = c.ItemIndex
				current = c.Position
			}
			s.cursor.Set(resume.Cursor{ItemIndex: item, Position: pos, HasPosition: true})
			s.publish(events.Seek{CurrentTime: current, SeekTime: pos})
			return
		}
		s.publish(events.Seek{CurrentTime: s.player.Position(), SeekTime: pos})
		s.player.SeekTo(s.player.CurrentItemIndex(), pos)
	})
}

// Reload reattaches the source from the current position. It also leaves a terminal Error.
func (s *Session) Reload() {
	s.post(func() {
		if s.player != nil && !s.needsSource {
			s.saveCursor()
		}
		s.needsSource = true
		s.initialize(true)
	})
}

// AttachRenderTarget sets the output surface and schedules initialization.
func (s *Session) AttachRenderTarget(rt player.RenderTarget) {
	s.post(func() {
		if s.target == rt {
			s.scheduleInit()
			return
		}
		if s.target != nil && s.player != nil {
			s.target.DetachPlayer()
		}
		s.target = rt
		if rt != nil && s.player != nil {
			if err := rt.AttachPlayer(s.player); err != nil {
				s.reportInitFailure(&InitError{Code: CodeInitFailure, Err: err})
				return
			}
		}
		s.scheduleInit()
	})
}

// DetachRenderTarget removes the output surface. Playback continues headless.
func (s *Session) DetachRenderTarget() {
	s.post(func() {
		if s.target != nil && s.player != nil {
			s.target.DetachPlayer()
		}
		s.target = nil
	})
}

func (s *Session) applyModifiers() {
	if s.player == nil {
		return
	}
	s.player.SetRepeatMode(s.repeat)
	s.applyVolume()
	s.player.SetPlaybackRate(s.rate)
	s.player.SetMaxVideoBitrate(s.maxBitrate)
}

func (s *Session) applyVolume() {
	if s.player == nil {
		return
	}
	if s.muted {
		s.player.SetVolume(0)
		return
	}
	s.player.SetVolume(s.volume)
}
