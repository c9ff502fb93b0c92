// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package progress emits periodic position reports while playback is active.
package progress

import (
	"sync"
	"time"

	"github.com/ManuGH/playctl/internal/metrics"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 250 * time.Millisecond

// Snapshot is one reading of the player clock.
type Snapshot struct {
	Position time.Duration
	Buffered time.Duration
	Duration time.Duration
	// PlaybackTime is the wall-clock time of Position for live windows, zero otherwise.
	PlaybackTime time.Time
}

func (s Snapshot) sameReport(o Snapshot) bool {
	return s.Position == o.Position && s.Buffered == o.Buffered && s.Duration == o.Duration
}

// PollFunc reads the player. ok=false skips the tick without emitting.
type PollFunc func() (snap Snapshot, ok bool)

// Options configures a Reporter.
type Options struct {
	Interval  time.Duration
	Poll      PollFunc
	Emit      func(Snapshot)
	Scheduler Scheduler
}

// Reporter polls on a fixed interval and emits only changed snapshots.
type Reporter struct {
	poll  PollFunc
	emit  func(Snapshot)
	sched Scheduler

	mu       sync.Mutex
	interval time.Duration
	running  bool
	gen      uint64
	timer    Timer
	last     Snapshot
	hasLast  bool
}

// New creates a stopped reporter.
func New(opts Options) *Reporter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimeScheduler
	}
	return &Reporter{
		poll:     opts.Poll,
		emit:     opts.Emit,
		sched:    opts.Scheduler,
		interval: opts.Interval,
	}
}

// Start begins reporting with an immediate tick. Calling Start while running
// restarts the cadence.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
	r.running = true
	r.scheduleLocked(0)
}

// Stop cancels the pending tick. In-flight ticks from before Stop are dropped.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
	r.running = false
}

// Running reports whether the reporter is started.
func (r *Reporter) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// SetInterval changes the cadence. A running reporter reschedules.
func (r *Reporter) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d == r.interval {
		return
	}
	r.interval = d
	if r.running {
		r.cancelLocked()
		r.scheduleLocked(d)
	}
}

func (r *Reporter) cancelLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reporter) scheduleLocked(d time.Duration) {
	gen := r.gen
	r.timer = r.sched.AfterFunc(d, func() { r.tick(gen) })
}

func (r *Reporter) tick(gen uint64) {
	r.mu.Lock()
	if !r.running || gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	snap, ok := r.poll()

	r.mu.Lock()
	if !r.running || gen != r.gen {
		r.mu.Unlock()
		return
	}
	emit := ok && (!r.hasLast || !snap.sameReport(r.last))
	if emit {
		r.last = snap
		r.hasLast = true
	}
	r.scheduleLocked(r.interval)
	r.mu.Unlock()

	if !ok {
		return
	}
	metrics.RecordProgress(emit)
	if emit {
		r.emit(snap)
	}
}
