// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"fmt"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/progress"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"golang.org/x/sync/errgroup"
)

// onPlayerEvent is the single dispatch point for player notifications.
// Events from a released player instance are dropped.
func (s *Session) onPlayerEvent(token uint64, e player.Event) {
	if s.player == nil || token != s.playerToken {
		return
	}

	switch ev := e.(type) {
	case player.StateChanged:
		s.onPlayerState(ev)
	case player.IsPlayingChanged:
		if ev.IsPlaying != s.isPlaying {
			s.isPlaying = ev.IsPlaying
			s.publish(events.PlaybackStateChanged{IsPlaying: ev.IsPlaying})
		}
	case player.Error:
		s.onPlayerError(ev)
	case player.PositionDiscontinuity:
		s.onDiscontinuity(ev)
	case player.TimelineChanged:
		s.logger.Debug().Str(log.FieldEvent, "player.timeline_changed").Dur("duration", s.player.Duration()).Msg("timeline changed")
	case player.TracksChanged:
		s.reselect(tracks.Types...)
	case player.PlaybackParametersChanged:
		s.updateEffectiveRate()
	case player.Metadata:
		if len(ev.Entries) > 0 {
			s.publish(events.TimedMetadata{Entries: ev.Entries})
		}
	case player.BandwidthSample:
		s.onBandwidth(ev)
	case player.AudioBecomingNoisy:
		s.publish(events.AudioBecomingNoisy{})
		s.pausePlayback()
	}
}

func (s *Session) onPlayerState(ev player.StateChanged) {
	s.updateEffectiveRate()

	switch ev.State {
	case player.StateIdle:
		s.progress.Stop()
	case player.StateBuffering:
		s.progress.Stop()
		s.setBuffering(true)
		switch s.machine.State() {
		case StateReady, StateEnded:
			s.fire(EvStall)
		}
	case player.StateReady:
		s.onReady()
	case player.StateEnded:
		s.progress.Stop()
		s.setBuffering(false)
		if s.fire(EvEnd) {
			s.publish(events.End{})
			s.abandonFocus()
		}
	}
}

func (s *Session) onReady() {
	switch s.machine.State() {
	case StateReady:
		if !s.progress.Running() {
			s.progress.Start()
		}
		return
	case StateBuffering, StateEnded:
	default:
		return
	}

	if !s.firstLoad {
		s.enterReady()
		return
	}
	if s.collecting {
		return
	}
	s.collecting = true
	s.collectLoad()
}

type loadSnapshot struct {
	gen         uint64
	duration    time.Duration
	position    time.Duration
	format      tracks.Variant
	hasFormat   bool
	groups      map[tracks.Type][]tracks.Group
	probe       bool
	uri         string
	headers     map[string]string
	contentMode bool
}

// collectLoad gathers the load event off the owner goroutine: track
// enumeration queries decoder capabilities and the manifest probe hits the network.
func (s *Session) collectLoad() {
	snap := loadSnapshot{
		gen:      s.gen,
		duration: s.player.Duration(),
		position: s.player.Position(),
		groups:   make(map[tracks.Type][]tracks.Group, len(tracks.Types)),
		probe:    s.contentStart >= 0 && s.opts.Prober != nil,
		uri:      s.src.URI,
		headers:  s.src.Headers,
	}
	snap.format, snap.hasFormat = s.player.VideoFormat()
	for _, t := range tracks.Types {
		snap.groups[t] = s.player.TrackGroups(t)
	}

	caps := s.opts.Oracle
	prober := s.opts.Prober
	s.workers.Go(func() {
		load := events.Load{Duration: snap.duration, CurrentPosition: snap.position}
		if snap.hasFormat {
			load.NaturalSize = naturalSize(snap.format)
		}

		g, gctx := errgroup.WithContext(s.ctx)
		g.Go(func() error {
			load.AudioTracks = tracks.Enumerate(tracks.TypeAudio, snap.groups[tracks.TypeAudio], caps)
			return nil
		})
		g.Go(func() error {
			load.TextTracks = tracks.Enumerate(tracks.TypeText, snap.groups[tracks.TypeText], caps)
			return nil
		})
		g.Go(func() error {
			if snap.probe {
				variants, err := prober.Probe(gctx, snap.uri, snap.headers)
				if err == nil && len(variants) > 0 {
					load.VideoTracks = tracks.Enumerate(tracks.TypeVideo, []tracks.Group{{Variants: variants}}, caps)
					snap.contentMode = true
					return nil
				}
				s.logger.Warn().Err(err).Str(log.FieldSourceURI, snap.uri).Msg("manifest probe failed, using player tracks")
			}
			load.VideoTracks = tracks.Enumerate(tracks.TypeVideo, snap.groups[tracks.TypeVideo], caps)
			return nil
		})
		_ = g.Wait()

		s.rejoin(func() { s.finishLoad(snap, load) }, nil)
	})
}

func (s *Session) finishLoad(snap loadSnapshot, load events.Load) {
	s.collecting = false
	if snap.gen != s.gen || s.player == nil {
		return
	}
	if s.player.State() != player.StateReady || s.machine.State() == StateReady {
		return
	}

	s.firstLoad = false
	if snap.contentMode && !s.contentMode {
		s.contentMode = true
		s.reselect(tracks.TypeVideo)
	}
	s.publish(load)
	metrics.ObserveTimeToReady(time.Since(s.attachedAt))
	s.enterReady()
}

func (s *Session) enterReady() {
	if !s.fire(EvReady) {
		return
	}
	s.publish(events.Ready{})
	s.setBuffering(false)
	s.loadErrors = 0
	s.progress.Start()
	s.updateEffectiveRate()
	if s.reselectOnReady {
		s.reselectOnReady = false
		s.reselect(tracks.TypeVideo)
	}
}

func naturalSize(v tracks.Variant) events.NaturalSize {
	orientation := "landscape"
	if v.Height > v.Width {
		orientation = "portrait"
	}
	return events.NaturalSize{Width: v.Width, Height: v.Height, Orientation: orientation}
}

func (s *Session) onPlayerError(e player.Error) {
	s.progress.Stop()
	if s.player != nil && !s.needsSource && e.Code != player.ErrorBehindLiveWindow {
		s.saveCursor()
	}
	s.needsSource = true
	s.firstLoad = false
	s.collecting = false

	logger := s.logger.With().
		Int(log.FieldCode, e.Code).
		Str(log.FieldReason, player.CodeName(e.Code)).
		Logger()

	switch {
	case e.Code == player.ErrorBehindLiveWindow:
		s.cursor.Clear()
		metrics.RecordPlayerError("behind_live_window")
		logger.Info().Str(log.FieldEvent, "player.behind_live_window").Msg("fell behind live window, restarting at live edge")
		s.fire(EvFail)
		s.initialize(false)
		return

	case s.drm.NoteFailure(e.Code):
		metrics.RecordPlayerError("drm_downgrade")
		logger.Warn().Err(e).Str(log.FieldEvent, "player.drm_downgrade").Msg("retrying with software security level")
		s.fire(EvFail)
		s.initialize(false)
		return

	case isLoadError(e.Code):
		s.loadErrors++
		cause := e.Cause
		if cause == nil {
			cause = e
		}
		policy := datasource.LoadErrorPolicy{MinLoadRetryCount: s.minLoadRetry}
		if delay, ok := policy.RetryDelay(cause, s.loadErrors); ok {
			class := datasource.Classify(cause)
			metrics.RecordLoadRetry(class)
			metrics.RecordPlayerError("load_retry")
			logger.Warn().Err(cause).
				Str(log.FieldEvent, "player.load_retry").
				Int(log.FieldAttempt, s.loadErrors).
				Dur("delay", delay).
				Str("class", class).
				Msg("load failed, retrying")
			s.fire(EvFail)
			s.scheduleRetry(delay)
			return
		}
	}

	metrics.RecordPlayerError("surfaced")
	logger.Error().Err(e).Str(log.FieldEvent, "player.error").Msg("playback error")
	s.fire(EvFail)
	s.publish(events.Error{
		Message: fmt.Sprintf("%s: %s", player.CodeName(e.Code), e.Message),
		Code:    hostErrorCode(e.Code),
		Trace:   errorTrace(e.Cause),
	})
	if e.RequiresReinit {
		s.initialize(false)
		return
	}
	s.terminal = true
}

func isLoadError(code int) bool {
	return code >= 2000 && code < 3000
}

func (s *Session) scheduleRetry(delay time.Duration) {
	s.stopRetryTimer()
	gen := s.gen
	s.retryTimer = time.AfterFunc(delay, func() {
		s.post(func() {
			if gen != s.gen {
				return
			}
			s.retryTimer = nil
			s.initialize(false)
		})
	})
}

func (s *Session) onDiscontinuity(ev player.PositionDiscontinuity) {
	if s.needsSource {
		s.saveCursor()
	}
	if s.contentMode {
		s.reselectOnReady = true
	}
	if ev.Reason == player.DiscontinuityAutoTransition && s.repeat == player.RepeatOne {
		s.publish(events.End{})
	}
}

func (s *Session) onBandwidth(ev player.BandwidthSample) {
	if !s.reportBandwidth || !s.bandwidth.Allow() {
		return
	}
	report := events.BandwidthReport{Bitrate: ev.Bitrate}
	if f, ok := s.player.VideoFormat(); ok {
		report.Width = f.Width
		report.Height = f.Height
		report.TrackID = f.ID
	}
	s.publish(report)
}

// updateEffectiveRate reports the rate the playhead actually advances at.
func (s *Session) updateEffectiveRate() {
	eff := 0.0
	if s.player != nil && s.player.PlayWhenReady() && s.player.State() == player.StateReady {
		eff = s.player.PlaybackRate()
	}
	if eff != s.effectiveRate {
		s.effectiveRate = eff
		s.publish(events.PlaybackRateChange{Rate: eff})
	}
}

func (s *Session) setBuffering(b bool) {
	if b == s.buffering {
		return
	}
	s.buffering = b
	s.publish(events.Buffering{IsBuffering: b})
}

func (s *Session) pollProgress() (progress.Snapshot, bool) {
	if s.player == nil || s.machine.State() != StateReady {
		return progress.Snapshot{}, false
	}
	snap := progress.Snapshot{
		Position: s.player.Position(),
		Buffered: s.player.BufferedPosition(),
		Duration: s.player.Duration(),
	}
	if start, ok := s.player.WindowStartTime(); ok {
		snap.PlaybackTime = start.Add(snap.Position)
	}
	return snap, true
}

func (s *Session) emitProgress(snap progress.Snapshot) {
	s.publish(events.Progress{
		CurrentTime:         snap.Position,
		PlayableDuration:    snap.Buffered,
		SeekableDuration:    snap.Duration,
		CurrentPlaybackTime: snap.PlaybackTime,
	})
}
