// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session drives one native player through its lifecycle.
//
// A Session serializes every mutation on a single owner goroutine (Run).
// Host setters and player callbacks are posted to an unbounded mailbox and
// never block; blocking work (player construction, DRM acquisition,
// capability queries, manifest probes) runs on workers whose results rejoin
// the owner tagged with a generation. Results from an older generation are
// dropped and their resources released.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/fsm"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/loadcontrol"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/progress"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/mo"
	"golang.org/x/time/rate"
)

// Session is a playback session. Create it with New and drive it with Run.
type Session struct {
	id        string
	opts      Options
	logger    zerolog.Logger
	mbox      *mailbox
	workers   workerGroup
	events    *events.Dispatcher
	drm       *drm.Manager
	machine   *fsm.Machine[State, Event]
	progress  *progress.Reporter
	bandwidth *rate.Limiter

	running     atomic.Bool
	done        chan struct{}
	playerReady chan struct{}
	readyOnce   sync.Once
	pmu         sync.RWMutex
	current     player.Player

	// Owner goroutine only below this line.
	ctx        context.Context
	gen        uint64
	inflight   uint64
	forceInit  bool
	initTimer  *time.Timer
	retryTimer *time.Timer

	target      player.RenderTarget
	player      player.Player
	playerToken uint64

	src          Source
	hasSource    bool
	needsSource  bool
	lookupResume bool
	drmConfig    *drm.Config
	drmSession   drm.Session
	cacheHandle  *cache.Handle
	cursor       resume.Holder
	terminal     bool
	loadErrors   int

	firstLoad       bool
	collecting      bool
	attachedAt      time.Time
	contentMode     bool
	reselectOnReady bool

	buffer           loadcontrol.BufferConfig
	minLoadRetry     int
	requests         map[tracks.Type]tracks.Request
	locale           string
	captioning       bool
	repeat           player.RepeatMode
	muted            bool
	volume           float64
	rate             float64
	paused           bool
	maxBitrate       int
	reportBandwidth  bool
	playInBackground bool
	disableFocus     bool
	contentStart     time.Duration
	inBackground     bool
	hasFocus         bool

	buffering     bool
	isPlaying     bool
	effectiveRate float64
}

// New validates opts and creates an idle session. Nothing runs until Run.
func New(opts Options) (*Session, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		id:           id,
		opts:         opts,
		logger:       log.WithComponent("session").With().Str(log.FieldSessionID, id).Logger(),
		mbox:         newMailbox(),
		drm:          drm.NewManager(opts.DRM, opts.DRMPolicy),
		machine:      newMachine(),
		bandwidth:    rate.NewLimiter(rate.Every(opts.BandwidthInterval), 1),
		done:         make(chan struct{}),
		playerReady:  make(chan struct{}),
		needsSource:  true,
		buffer:       opts.Buffer,
		minLoadRetry: opts.MinLoadRetryCount,
		requests:     make(map[tracks.Type]tracks.Request),
		locale:       opts.Locale,
		captioning:   opts.CaptioningEnabled,
		volume:       1,
		rate:         1,
		contentStart: -1,
	}
	s.machine.Observe(s.onTransition)
	s.progress = progress.New(progress.Options{
		Interval:  opts.ProgressInterval,
		Poll:      s.pollProgress,
		Emit:      s.emitProgress,
		Scheduler: progress.SchedulerFunc(s.afterFunc),
	})
	return s, nil
}

// ID identifies the session in logs and traces.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state. Safe from any goroutine.
func (s *Session) State() State { return s.machine.State() }

// Done is closed when Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run executes the owner loop until ctx is canceled, then tears the session
// down, joins its workers and flushes pending events.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session: already running")
	}
	defer close(s.done)

	workerCtx, cancel := context.WithCancel(log.ContextWithSessionID(context.WithoutCancel(ctx), s.id))
	s.ctx = workerCtx
	s.events = events.NewDispatcher(s.opts.Sink)
	s.logger.Info().Str(log.FieldEvent, "session.start").Msg("session started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown(cancel)
			return nil
		case <-s.mbox.notify:
			for _, msg := range s.mbox.drain() {
				msg.run()
			}
		}
	}
}

func (s *Session) shutdown(cancel context.CancelFunc) {
	s.stopInitTimer()
	s.teardown("shutdown", true)
	cancel()

	for _, msg := range s.mbox.close() {
		if msg.discard != nil {
			msg.discard()
		}
	}

	ctx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := s.workers.CloseAndWait(ctx); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "session.shutdown").Msg("workers still running")
	}
	s.events.Close()
	s.logger.Info().Str(log.FieldEvent, "session.stop").Msg("session stopped")
}

// WaitPlayer blocks until the first player instance has been built and attached.
func (s *Session) WaitPlayer(ctx context.Context) (player.Player, error) {
	select {
	case <-s.playerReady:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}
	s.pmu.RLock()
	defer s.pmu.RUnlock()
	if s.current == nil {
		return nil, ErrNoPlayer
	}
	return s.current, nil
}

// Player returns the live player instance, or nil.
func (s *Session) Player() player.Player {
	s.pmu.RLock()
	defer s.pmu.RUnlock()
	return s.current
}

func (s *Session) setCurrent(p player.Player) {
	s.pmu.Lock()
	s.current = p
	s.pmu.Unlock()
	if p != nil {
		s.readyOnce.Do(func() { close(s.playerReady) })
	}
}

func (s *Session) post(fn func()) bool {
	return s.mbox.post(message{run: fn})
}

// rejoin hands a worker result to the owner. discard runs when the session
// is gone before the result could be applied.
func (s *Session) rejoin(run, discard func()) {
	if !s.mbox.post(message{run: run, discard: discard}) && discard != nil {
		discard()
	}
}

// query runs fn on the owner and waits for it.
func (s *Session) query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !s.post(func() {
		fn()
		close(done)
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// afterFunc schedules f on the owner goroutine after d.
func (s *Session) afterFunc(d time.Duration, f func()) progress.Timer {
	return time.AfterFunc(d, func() { s.post(f) })
}

func (s *Session) publish(e events.Event) {
	s.events.Publish(e)
}

func (s *Session) fire(ev Event) bool {
	if _, err := s.machine.Fire(s.ctx, ev); err != nil {
		s.logger.Debug().Err(err).Str(log.FieldEvent, "session.transition_skipped").Msg("no transition")
		return false
	}
	return true
}

func (s *Session) onTransition(from, to State, ev Event) {
	s.logger.Info().
		Str(log.FieldEvent, "session.transition").
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Str(log.FieldReason, string(ev)).
		Uint64(log.FieldGeneration, s.gen).
		Msg("state transition")
	metrics.RecordTransition(string(from), string(to))
	s.publish(events.StateChanged{Old: string(from), New: string(to)})
}

// Cursor returns the pending resume cursor.
func (s *Session) Cursor(ctx context.Context) (mo.Option[resume.Cursor], error) {
	var out mo.Option[resume.Cursor]
	err := s.query(ctx, func() { out = s.cursor.Peek() })
	return out, err
}

func (s *Session) stopInitTimer() {
	if s.initTimer != nil {
		s.initTimer.Stop()
		s.initTimer = nil
	}
}

func (s *Session) stopRetryTimer() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}
