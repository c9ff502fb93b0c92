// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package simplayer is an in-process player for the CLI simulator and tests.
// It never decodes media; it advances a virtual clock and reports events.
package simplayer

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/google/uuid"
)

// Media describes what every built player pretends to play.
type Media struct {
	Duration time.Duration
	Groups   map[tracks.Type][]tracks.Group
	// LoadRate is media seconds fetched per wall second in auto mode.
	LoadRate float64
	// BytesPerSecond is the allocator charge per buffered media second.
	BytesPerSecond int64
}

// Factory builds simulated players. It records every player it built.
type Factory struct {
	Media Media
	// Tick drives the automatic clock. Zero leaves the player fully manual.
	Tick     time.Duration
	BuildErr error

	mu      sync.Mutex
	players []*Player
}

func (f *Factory) Build(ctx context.Context, opts player.BuildOptions) (player.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.BuildErr != nil {
		return nil, f.BuildErr
	}
	p := newPlayer(f.Media, opts, f.Tick)
	f.mu.Lock()
	f.players = append(f.players, p)
	f.mu.Unlock()
	return p, nil
}

// Players returns every player built so far.
func (f *Factory) Players() []*Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Player(nil), f.players...)
}

// Last returns the most recently built player, or nil.
func (f *Factory) Last() *Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.players) == 0 {
		return nil
	}
	return f.players[len(f.players)-1]
}

// Player implements player.Player over a virtual clock.
type Player struct {
	id    string
	media Media
	opts  player.BuildOptions
	tick  time.Duration

	mu            sync.Mutex
	state         player.State
	playWhenReady bool
	src           player.MediaSource
	hasSource     bool
	prepared      bool
	position      time.Duration
	buffered      time.Duration
	itemIndex     int
	selections    map[tracks.Type]tracks.Selection
	repeat        player.RepeatMode
	volume        float64
	rate          float64
	maxBitrate    int
	released      bool
	rebuffering   bool
	seeks         []time.Duration

	stop chan struct{}
	done chan struct{}
}

func newPlayer(media Media, opts player.BuildOptions, tick time.Duration) *Player {
	if media.LoadRate <= 0 {
		media.LoadRate = 4
	}
	return &Player{
		id:         uuid.NewString(),
		media:      media,
		opts:       opts,
		tick:       tick,
		state:      player.StateIdle,
		selections: make(map[tracks.Type]tracks.Selection),
		volume:     1,
		rate:       1,
	}
}

func (p *Player) ID() string { return p.id }

// Options returns the build options the player was created with.
func (p *Player) Options() player.BuildOptions { return p.opts }

func (p *Player) SetMediaSource(src player.MediaSource, resetPosition bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = src
	p.hasSource = true
	if resetPosition {
		p.position = 0
		p.itemIndex = 0
	}
}

// Source returns the attached media source.
func (p *Player) Source() (player.MediaSource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src, p.hasSource
}

func (p *Player) Prepare() {
	p.mu.Lock()
	if p.prepared || p.released {
		p.mu.Unlock()
		return
	}
	p.prepared = true
	auto := p.tick > 0
	if auto {
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
	}
	p.mu.Unlock()

	p.SetState(player.StateBuffering)
	if auto {
		go p.run()
	}
}

// Prepared reports whether Prepare was called.
func (p *Player) Prepared() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prepared
}

func (p *Player) SeekTo(itemIndex int, position time.Duration) {
	p.mu.Lock()
	p.itemIndex = itemIndex
	p.position = position
	if p.buffered < position {
		p.buffered = position
	}
	p.seeks = append(p.seeks, position)
	p.mu.Unlock()
	p.emit(player.PositionDiscontinuity{Reason: player.DiscontinuitySeek, OldItem: itemIndex, NewItem: itemIndex})
}

func (p *Player) SeekToDefault() {
	p.SeekTo(0, 0)
}

// Seeks lists every seek target in order.
func (p *Player) Seeks() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.seeks...)
}

func (p *Player) SetPlayWhenReady(play bool) {
	p.mu.Lock()
	if p.playWhenReady == play {
		p.mu.Unlock()
		return
	}
	wasPlaying := p.isPlayingLocked()
	p.playWhenReady = play
	state := p.state
	nowPlaying := p.isPlayingLocked()
	p.mu.Unlock()

	p.emit(player.StateChanged{PlayWhenReady: play, State: state})
	if wasPlaying != nowPlaying {
		p.emit(player.IsPlayingChanged{IsPlaying: nowPlaying})
	}
}

func (p *Player) PlayWhenReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playWhenReady
}

func (p *Player) State() player.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPlayingLocked()
}

func (p *Player) isPlayingLocked() bool {
	return p.playWhenReady && p.state == player.StateReady
}

func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) BufferedPosition() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffered
}

func (p *Player) Duration() time.Duration {
	return p.media.Duration
}

func (p *Player) CurrentItemIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.itemIndex
}

func (p *Player) IsCurrentItemSeekable() bool {
	return p.media.Duration > 0
}

func (p *Player) WindowStartTime() (time.Time, bool) {
	return time.Time{}, false
}

func (p *Player) TrackGroups(t tracks.Type) []tracks.Group {
	return p.media.Groups[t]
}

func (p *Player) ApplySelection(t tracks.Type, sel tracks.Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selections[t] = sel
}

func (p *Player) Selection(t tracks.Type) tracks.Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selections[t]
}

// VideoFormat reports the highest-bitrate selected video track within the
// bitrate cap, or the lowest one when every track exceeds it.
func (p *Player) VideoFormat() (tracks.Variant, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	groups := p.media.Groups[tracks.TypeVideo]
	sel, ok := p.selections[tracks.TypeVideo]
	if !ok || sel.Kind != tracks.SelectionOverride || sel.Group < 0 || sel.Group >= len(groups) {
		return tracks.Variant{}, false
	}
	variants := groups[sel.Group].Variants
	var best, lowest tracks.Variant
	hasBest, hasLowest := false, false
	for _, i := range sel.Tracks {
		if i < 0 || i >= len(variants) {
			continue
		}
		v := variants[i]
		if !hasLowest || v.Bitrate < lowest.Bitrate {
			lowest, hasLowest = v, true
		}
		if p.maxBitrate > 0 && v.Bitrate > p.maxBitrate {
			continue
		}
		if !hasBest || v.Bitrate > best.Bitrate {
			best, hasBest = v, true
		}
	}
	if hasBest {
		return best, true
	}
	return lowest, hasLowest
}

func (p *Player) SetRepeatMode(mode player.RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
}

// RepeatMode returns the current repeat mode.
func (p *Player) RepeatMode() player.RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	if p.rate == rate {
		p.mu.Unlock()
		return
	}
	p.rate = rate
	p.mu.Unlock()
	p.emit(player.PlaybackParametersChanged{Speed: rate})
}

func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *Player) SetMaxVideoBitrate(bps int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxBitrate = bps
}

// MaxVideoBitrate returns the configured cap.
func (p *Player) MaxVideoBitrate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxBitrate
}

func (p *Player) Stop() {
	p.haltClock()
	p.mu.Lock()
	p.prepared = false
	p.mu.Unlock()
	p.SetState(player.StateIdle)
}

func (p *Player) ClearMediaItems() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = player.MediaSource{}
	p.hasSource = false
}

func (p *Player) Release() {
	p.haltClock()
	p.mu.Lock()
	p.released = true
	p.mu.Unlock()
	if lc := p.opts.LoadControl; lc != nil {
		lc.OnReleased()
	}
}

// Released reports whether Release was called.
func (p *Player) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// SetState moves the player to s and reports the change like a real engine.
func (p *Player) SetState(s player.State) {
	p.mu.Lock()
	if p.state == s || p.released {
		p.mu.Unlock()
		return
	}
	wasPlaying := p.isPlayingLocked()
	p.state = s
	pwr := p.playWhenReady
	nowPlaying := p.isPlayingLocked()
	p.mu.Unlock()

	p.emit(player.StateChanged{PlayWhenReady: pwr, State: s})
	if wasPlaying != nowPlaying {
		p.emit(player.IsPlayingChanged{IsPlaying: nowPlaying})
	}
}

// SetClock sets the playhead and buffered position without emitting events.
func (p *Player) SetClock(position, buffered time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = position
	p.buffered = buffered
}

// Fail reports a playback error and drops to idle, as engines do.
func (p *Player) Fail(code int, message string, cause error) {
	p.haltClock()
	p.mu.Lock()
	p.state = player.StateIdle
	p.prepared = false
	p.mu.Unlock()
	p.emit(player.Error{Code: code, Message: message, Cause: cause})
}

// Emit delivers e to the listener as if the engine produced it.
func (p *Player) Emit(e player.Event) {
	p.emit(e)
}

func (p *Player) emit(e player.Event) {
	if l := p.opts.Listener; l != nil {
		l.OnPlayerEvent(e)
	}
}
