// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/simplayer"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

// recorder is a Sink that keeps every delivered event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Deliver(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *recorder) names() []string {
	var out []string
	for _, e := range r.all() {
		out = append(out, e.Name())
	}
	return out
}

func (r *recorder) count(name string) int {
	n := 0
	for _, e := range r.all() {
		if e.Name() == name {
			n++
		}
	}
	return n
}

func eventsOf[T events.Event](r *recorder) []T {
	var out []T
	for _, e := range r.all() {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

type fakeTarget struct {
	mu       sync.Mutex
	attached []player.Player
	detached int
}

func (t *fakeTarget) AttachPlayer(p player.Player) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attached = append(t.attached, p)
	return nil
}

func (t *fakeTarget) DetachPlayer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detached++
}

type roomyProbe struct{}

func (roomyProbe) MaxMemory() int64   { return 1 << 40 }
func (roomyProbe) UsedMemory() int64  { return 1 << 20 }
func (roomyProbe) FreeMemory() int64  { return 1 << 30 }
func (roomyProbe) MemoryClass() int64 { return 1 << 40 }
func (roomyProbe) RequestGC()         {}

func testMedia() simplayer.Media {
	return simplayer.Media{
		Duration: time.Minute,
		Groups: map[tracks.Type][]tracks.Group{
			tracks.TypeVideo: {{Variants: []tracks.Variant{
				{ID: "v1080", Width: 1920, Height: 1080, Bitrate: 6_000_000, Codec: "avc1.640028"},
				{ID: "v720", Width: 1280, Height: 720, Bitrate: 3_000_000, Codec: "avc1.64001f"},
				{ID: "v480", Width: 854, Height: 480, Bitrate: 1_200_000, Codec: "avc1.64001e"},
			}}},
			tracks.TypeAudio: {
				{Variants: []tracks.Variant{{ID: "a-en", Language: "en", Codec: "mp4a.40.2"}}},
				{Variants: []tracks.Variant{{ID: "a-de", Language: "de", Codec: "mp4a.40.2"}}},
			},
			tracks.TypeText: {
				{Variants: []tracks.Variant{{ID: "t-en", Language: "en", MimeType: "text/vtt"}}},
			},
		},
	}
}

type harness struct {
	t       *testing.T
	s       *Session
	rec     *recorder
	factory *simplayer.Factory
	target  *fakeTarget
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		rec:     &recorder{},
		factory: &simplayer.Factory{Media: testMedia()},
		target:  &fakeTarget{},
	}
	opts := Options{
		Players:          h.factory,
		Sink:             h.rec,
		Memory:           roomyProbe{},
		ProgressInterval: 10 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	h.s = s

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return h
}

// start attaches a render target and a source and waits for the player to buffer.
func (h *harness) start(uri string) *simplayer.Player {
	h.t.Helper()
	h.s.AttachRenderTarget(h.target)
	h.s.SetSource(Source{URI: uri})
	return h.waitPrepared(1)
}

// waitPrepared waits until the n-th built player has a prepared source.
func (h *harness) waitPrepared(n int) *simplayer.Player {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		players := h.factory.Players()
		return len(players) >= n && players[n-1].Prepared() && h.s.State() == StateBuffering
	}, waitFor, tick)
	return h.factory.Players()[n-1]
}

// startReady starts playback and drives the player to Ready.
func (h *harness) startReady(uri string) *simplayer.Player {
	h.t.Helper()
	p := h.start(uri)
	p.SetState(player.StateReady)
	h.waitEvent("ready", 1)
	return p
}

func (h *harness) waitEvent(name string, n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.rec.count(name) >= n }, waitFor, tick,
		"waiting for %d %q events, have %v", n, name, h.rec.names())
}

func (h *harness) waitState(s State) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.s.State() == s }, waitFor, tick)
}

// sync waits until every message posted so far has run on the owner.
func (h *harness) sync() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(h.t, h.s.query(ctx, func() {}))
}

// gatedFactory holds the first Build until the gate is closed.
type gatedFactory struct {
	inner *simplayer.Factory
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gatedFactory) Build(ctx context.Context, opts player.BuildOptions) (player.Player, error) {
	if g.calls.Add(1) == 1 {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.inner.Build(ctx, opts)
}

type fakeDRMSession struct {
	id       string
	level    drm.SecurityLevel
	released atomic.Bool
}

func (s *fakeDRMSession) ID() string                       { return s.id }
func (s *fakeDRMSession) SecurityLevel() drm.SecurityLevel { return s.level }
func (s *fakeDRMSession) Release()                         { s.released.Store(true) }

type fakeFramework struct {
	mu       sync.Mutex
	sessions []*fakeDRMSession
}

func (f *fakeFramework) APILevel() int { return 23 }

func (f *fakeFramework) OpenSession(_ context.Context, req drm.Request) (drm.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := &fakeDRMSession{id: uuid.NewString(), level: req.SecurityLevel}
	f.sessions = append(f.sessions, sess)
	return sess, nil
}

func (f *fakeFramework) opened() []*fakeDRMSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeDRMSession(nil), f.sessions...)
}

type fakeFocus struct {
	mu        sync.Mutex
	grant     bool
	onChange  func(player.FocusChange)
	requests  int
	abandoned int
}

func (f *fakeFocus) Request(onChange func(player.FocusChange)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.onChange = onChange
	return f.grant
}

func (f *fakeFocus) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned++
}

func (f *fakeFocus) change(c player.FocusChange) {
	f.mu.Lock()
	cb := f.onChange
	f.mu.Unlock()
	cb(c)
}

func (f *fakeFocus) stats() (requests, abandoned int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests, f.abandoned
}
