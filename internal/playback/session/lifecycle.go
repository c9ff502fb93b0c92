// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/loadcontrol"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/ManuGH/playctl/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type initRequest struct {
	gen         uint64
	buildPlayer bool
	attach      bool
	lookup      bool
	src         Source
	drm         *drm.Config
	build       player.BuildOptions
}

type initResult struct {
	gen    uint64
	attach bool
	err    error

	player  player.Player
	data    datasource.DataSource
	cache   *cache.Handle
	drm     drm.Session
	looked  bool
	resumed *resume.Entry
}

// release frees everything a discarded result still holds.
func (r *initResult) release() {
	if r.player != nil {
		r.player.Release()
		r.player = nil
	}
	if r.drm != nil {
		r.drm.Release()
		r.drm = nil
	}
	if r.cache != nil {
		_ = r.cache.Close()
		r.cache = nil
	}
}

// scheduleInit arms one coalesced initialization after InitDelay.
func (s *Session) scheduleInit() {
	if s.initTimer != nil {
		return
	}
	s.initTimer = time.AfterFunc(s.opts.InitDelay, func() {
		s.post(func() {
			s.initTimer = nil
			s.initialize(false)
		})
	})
}

// initialize builds the player and attaches the pending source, whichever is
// missing. force also leaves a terminal Error state.
func (s *Session) initialize(force bool) {
	force = force || s.forceInit
	s.forceInit = false
	s.stopInitTimer()

	if s.machine.State() == StateError && s.terminal && !force {
		return
	}
	if s.target == nil {
		s.reportInitFailure(&InitError{Code: CodeInitFailure, Err: ErrNoRenderTarget})
		return
	}

	needPlayer := s.player == nil
	needSource := s.hasSource && s.needsSource
	if !needPlayer && !needSource {
		return
	}
	if s.inflight != 0 && !force {
		return
	}

	s.gen++
	s.inflight = s.gen
	s.terminal = false
	if s.machine.State() != StateInitializing {
		s.fire(EvInit)
	}

	req := initRequest{
		gen:         s.gen,
		buildPlayer: needPlayer,
		attach:      needSource,
		lookup:      needSource && s.lookupResume,
		src:         s.src,
	}
	if needPlayer {
		req.build = s.buildOptions(s.gen)
	}
	if needSource && s.drmConfig != nil {
		cfg := *s.drmConfig
		req.drm = &cfg
	}

	s.logger.Debug().
		Str(log.FieldEvent, "session.init").
		Uint64(log.FieldGeneration, req.gen).
		Bool("build_player", needPlayer).
		Bool("attach_source", needSource).
		Msg("initializing")

	if !s.workers.Go(func() { s.prepare(req) }) {
		s.inflight = 0
	}
}

func (s *Session) buildOptions(token uint64) player.BuildOptions {
	alloc := loadcontrol.NewAllocator(loadcontrol.DefaultBufferSegmentSize)
	return player.BuildOptions{
		Buffer:          s.buffer,
		LoadControl:     loadcontrol.NewPolicy(s.buffer, alloc, s.opts.Memory),
		BackBuffer:      loadcontrol.EffectiveBackBuffer(s.buffer, s.opts.Memory),
		LoadErrorPolicy: datasource.LoadErrorPolicy{MinLoadRetryCount: s.minLoadRetry},
		Listener: player.ListenerFunc(func(e player.Event) {
			s.post(func() { s.onPlayerEvent(token, e) })
		}),
	}
}

// prepare runs on a worker and performs the blocking half of initialization.
func (s *Session) prepare(req initRequest) {
	ctx, span := telemetry.Tracer().Start(s.ctx, "session.initialize",
		trace.WithAttributes(telemetry.SessionAttributes(s.id, req.gen, req.src.URI)...))
	defer span.End()

	res := &initResult{gen: req.gen, attach: req.attach}
	g, gctx := errgroup.WithContext(ctx)

	if req.buildPlayer {
		g.Go(func() error {
			p, err := s.opts.Players.Build(gctx, req.build)
			if err != nil {
				return &InitError{Code: CodeInitFailure, Err: err}
			}
			res.player = p
			return nil
		})
	}
	if req.attach {
		g.Go(func() error {
			ds, err := s.opts.DataSources.Create(req.src.Headers)
			if err != nil {
				return &InitError{Code: CodeInitFailure, Err: err}
			}
			res.data = ds
			return nil
		})
		if s.opts.Caches != nil {
			g.Go(func() error {
				ns := cache.NamespaceFor(req.src.URI, req.src.CacheNamespace)
				h, err := s.opts.Caches.Acquire(gctx, ns)
				if err != nil {
					s.logger.Warn().Err(err).Str(log.FieldNamespace, ns).Msg("cache unavailable, playing uncached")
					return nil
				}
				res.cache = h
				return nil
			})
		}
		if req.drm != nil {
			g.Go(func() error {
				sess, err := s.drm.Acquire(gctx, *req.drm)
				if err != nil {
					return err
				}
				res.drm = sess
				return nil
			})
		}
		if req.lookup {
			g.Go(func() error {
				entry, err := s.opts.Resume.Get(gctx, req.src.URI)
				if err != nil {
					s.logger.Warn().Err(err).Str(log.FieldSourceURI, req.src.URI).Msg("resume lookup failed")
				}
				res.resumed = entry
				res.looked = true
				return nil
			})
		}
	}

	res.err = g.Wait()
	if res.err != nil {
		telemetry.RecordError(span, res.err, failureCode(res.err))
	}
	s.rejoin(func() { s.finishInit(res) }, res.release)
}

func (s *Session) finishInit(res *initResult) {
	if res.gen != s.gen {
		res.release()
		return
	}
	s.inflight = 0

	if res.err != nil {
		res.release()
		if errors.Is(res.err, context.Canceled) {
			return
		}
		s.reportInitFailure(res.err)
		return
	}

	if res.player != nil {
		if err := s.adoptPlayer(res.player, res.gen); err != nil {
			res.release()
			s.reportInitFailure(err)
			return
		}
		res.player = nil
	}
	if res.looked {
		s.lookupResume = false
		if res.resumed != nil && !s.cursor.IsSet() {
			s.cursor.Set(res.resumed.Cursor)
		}
	}
	if res.attach {
		s.attachSource(res)
	}
}

func (s *Session) adoptPlayer(p player.Player, token uint64) error {
	if s.target == nil {
		return &InitError{Code: CodeInitFailure, Err: ErrNoRenderTarget}
	}
	if err := s.target.AttachPlayer(p); err != nil {
		return &InitError{Code: CodeInitFailure, Err: err}
	}
	s.player = p
	s.playerToken = token
	s.setCurrent(p)
	s.applyModifiers()
	return nil
}

func (s *Session) attachSource(res *initResult) {
	s.releaseSourceResources()
	s.drmSession = res.drm
	s.cacheHandle = res.cache

	src := player.MediaSource{
		URI:           s.src.URI,
		ContainerHint: s.src.ContainerHint,
		Headers:       s.src.Headers,
		Data:          res.data,
	}
	if res.drm != nil {
		src.DRM = res.drm
	}
	if res.cache != nil {
		src.Cache = res.cache
	}

	if s.player.State() != player.StateIdle {
		s.player.Stop()
	}
	c, haveCursor := s.cursor.Take()
	if haveCursor {
		if c.HasPosition {
			s.player.SeekTo(c.ItemIndex, c.Position)
		} else {
			s.player.SeekToDefault()
		}
	}
	s.player.SetMediaSource(src, !haveCursor)
	s.player.Prepare()

	s.needsSource = false
	s.firstLoad = true
	s.attachedAt = time.Now()
	s.fire(EvPrepared)
	s.publish(events.LoadStart{})
	s.logger.Info().
		Str(log.FieldEvent, "session.source_attached").
		Str(log.FieldSourceURI, s.src.URI).
		Bool("resumed", haveCursor).
		Msg("source attached")

	s.applyModifiers()
	s.reselect(tracks.Types...)
	s.setPlayWhenReady(!s.paused && (s.playInBackground || !s.inBackground))
}

// teardown releases the player and every per-source resource, leaving the
// session Idle with the source still pending.
func (s *Session) teardown(reason string, sync bool) {
	s.gen++
	s.inflight = 0
	s.stopRetryTimer()
	s.progress.Stop()

	if s.player != nil {
		if s.hasSource && !s.needsSource {
			s.saveCursor()
		}
		s.player.Release()
		if s.target != nil {
			s.target.DetachPlayer()
		}
		s.player = nil
		s.playerToken = 0
		s.setCurrent(nil)
	}
	// The stored cursor is only overwritten once it has been read.
	if s.hasSource && !s.lookupResume {
		s.persistCursor(sync)
	}

	s.abandonFocus()
	s.releaseSourceResources()
	s.needsSource = true
	s.firstLoad = false
	s.collecting = false
	s.buffering = false
	s.isPlaying = false
	s.effectiveRate = 0

	s.logger.Info().Str(log.FieldEvent, "session.teardown").Str(log.FieldReason, reason).Msg("player released")
	if s.fire(EvTeardown) {
		s.publish(events.Idle{})
	}
}

// saveCursor records the playhead. An ended item restarts from its default position.
func (s *Session) saveCursor() {
	if s.player == nil {
		return
	}
	if s.player.State() == player.StateEnded {
		s.cursor.Clear()
		return
	}
	s.cursor.Set(resume.FromPlayback(s.player.CurrentItemIndex(), s.player.Position(), s.player.IsCurrentItemSeekable()))
}

func (s *Session) persistCursor(sync bool) {
	key := s.src.URI
	c, ok := s.cursor.Peek().Get()
	store := s.opts.Resume
	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		var err error
		if ok {
			err = store.Put(ctx, key, resume.Entry{Cursor: c, UpdatedAt: time.Now()})
		} else {
			err = store.Delete(ctx, key)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str(log.FieldSourceURI, key).Msg("resume cursor not persisted")
		}
	}
	if sync || !s.workers.Go(write) {
		write()
	}
}

func (s *Session) releaseSourceResources() {
	if s.drmSession != nil {
		s.drmSession.Release()
		s.drmSession = nil
	}
	if s.cacheHandle != nil {
		_ = s.cacheHandle.Close()
		s.cacheHandle = nil
	}
}

func (s *Session) reportInitFailure(err error) {
	code := failureCode(err)
	var f *drm.Failure
	if errors.As(err, &f) {
		s.terminal = true
	}
	s.logger.Error().Err(err).Str(log.FieldEvent, "session.init_failed").Int(log.FieldCode, code).Msg("initialization failed")
	s.publish(events.Error{Message: err.Error(), Code: code, Trace: errorTrace(errors.Unwrap(err))})
	if s.machine.Can(EvFail) {
		s.fire(EvFail)
	}
}

func failureCode(err error) int {
	var f *drm.Failure
	if errors.As(err, &f) {
		return f.Code
	}
	var ie *InitError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return CodeInitFailure
}

// errorTrace renders err and its wrapped causes, outermost first.
func errorTrace(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\ncaused by: ")
}
