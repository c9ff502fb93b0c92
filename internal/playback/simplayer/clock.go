// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package simplayer

import (
	"time"

	"github.com/ManuGH/playctl/internal/playback/player"
)

// run advances the virtual clock every tick until Stop or Release.
func (p *Player) run() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.mu.Unlock()
	defer close(done)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.step(p.tick)
		}
	}
}

func (p *Player) haltClock() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// step advances loading and playback by one wall-clock tick.
func (p *Player) step(dt time.Duration) {
	lc := p.opts.LoadControl

	p.mu.Lock()
	state := p.state
	rate := p.rate
	ahead := p.buffered - p.position
	p.mu.Unlock()

	if state == player.StateIdle || state == player.StateEnded {
		return
	}

	load := lc == nil || lc.ShouldContinueLoading(p.Position(), ahead, rate)
	p.mu.Lock()
	if load && p.buffered < p.media.Duration {
		chunk := time.Duration(float64(dt) * p.media.LoadRate)
		p.buffered = min(p.buffered+chunk, p.media.Duration)
		if lc != nil && p.media.BytesPerSecond > 0 {
			lc.Allocator().Allocate(int64(chunk.Seconds() * float64(p.media.BytesPerSecond)))
		}
	}
	ahead = p.buffered - p.position
	complete := p.buffered >= p.media.Duration
	rebuffering := p.rebuffering
	p.mu.Unlock()

	switch state {
	case player.StateBuffering:
		if complete || lc == nil || lc.ShouldStartPlayback(ahead, rate, rebuffering) {
			p.SetState(player.StateReady)
		}
	case player.StateReady:
		p.advance(dt, rate)
	}
}

func (p *Player) advance(dt time.Duration, rate float64) {
	p.mu.Lock()
	if !p.playWhenReady {
		p.mu.Unlock()
		return
	}
	played := time.Duration(float64(dt) * rate)
	p.position = min(p.position+played, p.buffered)
	if lc := p.opts.LoadControl; lc != nil && p.media.BytesPerSecond > 0 {
		lc.Allocator().Release(int64(played.Seconds() * float64(p.media.BytesPerSecond)))
	}
	atEnd := p.media.Duration > 0 && p.position >= p.media.Duration
	starved := !atEnd && p.position >= p.buffered
	repeat := p.repeat
	if atEnd && repeat != player.RepeatOff {
		p.position = 0
		p.buffered = 0
	}
	if starved {
		p.rebuffering = true
	}
	p.mu.Unlock()

	switch {
	case atEnd && repeat != player.RepeatOff:
		p.emit(player.PositionDiscontinuity{Reason: player.DiscontinuityAutoTransition})
	case atEnd:
		p.SetState(player.StateEnded)
	case starved:
		p.SetState(player.StateBuffering)
	}
}
