// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/samber/lo"
)

// SetTrackRequest sets the host preference for one renderer and reapplies it.
func (s *Session) SetTrackRequest(t tracks.Type, req tracks.Request) {
	s.post(func() {
		s.requests[t] = req
		s.reselect(t)
	})
}

// SetCaptioning toggles the platform captioning preference used by default text selection.
func (s *Session) SetCaptioning(enabled bool) {
	s.post(func() {
		s.captioning = enabled
		s.reselect(tracks.TypeText)
	})
}

// SetLocale sets the device locale used by default audio and text selection.
func (s *Session) SetLocale(locale string) {
	s.post(func() {
		s.locale = locale
		s.reselect(tracks.TypeAudio, tracks.TypeText)
	})
}

func (s *Session) selectionContext() tracks.Context {
	return tracks.Context{
		ContentResolution: s.contentMode,
		CaptioningEnabled: s.captioning,
		Locale:            s.locale,
	}
}

type selectionJob struct {
	t      tracks.Type
	groups []tracks.Group
	req    tracks.Request
}

// reselect computes selections on a worker, since capability queries may
// block, and applies them on the owner if the same player is still current.
func (s *Session) reselect(types ...tracks.Type) {
	if s.player == nil {
		return
	}
	jobs := lo.Map(types, func(t tracks.Type, _ int) selectionJob {
		return selectionJob{t: t, groups: s.player.TrackGroups(t), req: s.requests[t]}
	})
	sctx := s.selectionContext()
	caps := s.opts.Oracle
	gen, token := s.gen, s.playerToken

	s.workers.Go(func() {
		selections := make([]tracks.Selection, len(jobs))
		for i, j := range jobs {
			selections[i] = tracks.Select(j.t, j.groups, j.req, sctx, caps)
		}
		s.rejoin(func() {
			if gen != s.gen || token != s.playerToken || s.player == nil {
				return
			}
			for i, j := range jobs {
				sel := selections[i]
				s.player.ApplySelection(j.t, sel)
				s.logger.Debug().
					Str(log.FieldEvent, "session.track_selected").
					Str(log.FieldTrackType, string(j.t)).
					Str("kind", string(sel.Kind)).
					Str(log.FieldReason, string(sel.Reason)).
					Ints("tracks", sel.Tracks).
					Msg("track selection applied")
			}
		}, nil)
	})
}

// Tracks lists the supported variants of one renderer with the active ones marked.
func (s *Session) Tracks(ctx context.Context, t tracks.Type) ([]tracks.Info, error) {
	var out []tracks.Info
	err := s.query(ctx, func() {
		if s.player == nil {
			return
		}
		sel := s.player.Selection(t)
		out = tracks.Enumerate(t, s.player.TrackGroups(t), s.opts.Oracle)
		for i := range out {
			out[i].Selected = sel.Kind == tracks.SelectionOverride &&
				out[i].GroupIndex == sel.Group &&
				lo.Contains(sel.Tracks, out[i].TrackIndex)
		}
	})
	return out, err
}
