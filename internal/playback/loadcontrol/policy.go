// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package loadcontrol decides whether the player keeps buffering under memory pressure.
package loadcontrol

import (
	"math"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/rs/zerolog"
)

// reserveBufferedFloor is how much must already be buffered before the memory reserve may stop loading.
const reserveBufferedFloor = 2000 * time.Millisecond

// Reason explains a load decision.
type Reason string

const (
	ReasonBufferingDisabled Reason = "buffering_disabled"
	ReasonHeapCeiling       Reason = "heap_ceiling"
	ReasonMemoryReserve     Reason = "memory_reserve"
	ReasonNoFreeMemory      Reason = "no_free_memory"
	ReasonBaselineContinue  Reason = "baseline_continue"
	ReasonBaselineStop      Reason = "baseline_stop"
)

// Policy layers memory guards on top of the Baseline thresholds.
// It is called from loader goroutines; all state it reads is atomic or immutable.
type Policy struct {
	cfg      BufferConfig
	alloc    *Allocator
	probe    MemoryProbe
	baseline *Baseline
	logger   zerolog.Logger
}

// NewPolicy wires a policy. A nil allocator or probe gets a default one.
func NewPolicy(cfg BufferConfig, alloc *Allocator, probe MemoryProbe) *Policy {
	if alloc == nil {
		alloc = NewAllocator(DefaultBufferSegmentSize)
	}
	if probe == nil {
		probe = &RuntimeProbe{}
	}
	return &Policy{
		cfg:      cfg,
		alloc:    alloc,
		probe:    probe,
		baseline: NewBaseline(cfg),
		logger:   log.WithComponent("loadcontrol"),
	}
}

// Config returns the buffer configuration the policy was built with.
func (p *Policy) Config() BufferConfig {
	return p.cfg
}

// Allocator returns the byte accounting shared with the player's loaders.
func (p *Policy) Allocator() *Allocator {
	return p.alloc
}

// ShouldContinueLoading reports whether the player should keep fetching media.
func (p *Policy) ShouldContinueLoading(positionPlayed, buffered time.Duration, speed float64) bool {
	ok, _ := p.Evaluate(positionPlayed, buffered, speed)
	return ok
}

// Evaluate is ShouldContinueLoading with the deciding reason.
func (p *Policy) Evaluate(_ time.Duration, buffered time.Duration, speed float64) (bool, Reason) {
	ok, reason := p.decide(buffered, speed)
	metrics.RecordLoadDecision(string(reason))
	return ok, reason
}

func (p *Policy) decide(buffered time.Duration, speed float64) (bool, Reason) {
	if p.cfg.DisableBuffering {
		return false, ReasonBufferingDisabled
	}

	loaded := p.alloc.TotalBytesAllocated()
	ceiling := int64(math.Floor(p.cfg.MaxHeapAllocationPercent * float64(p.probe.MemoryClass())))
	if ceiling > 0 && loaded >= ceiling {
		return false, ReasonHeapCeiling
	}

	maxMem := p.probe.MaxMemory()
	free := maxMem - p.probe.UsedMemory()
	reserve := int64(p.cfg.MinBufferMemoryReservePercent * float64(maxMem))
	if reserve > free && buffered > reserveBufferedFloor {
		return false, ReasonMemoryReserve
	}

	if p.probe.FreeMemory() == 0 {
		p.logger.Warn().
			Str(log.FieldEvent, "loadcontrol.no_free_memory").
			Int64("loaded_bytes", loaded).
			Msg("free memory is empty, requesting collection")
		p.probe.RequestGC()
		return false, ReasonNoFreeMemory
	}

	if p.baseline.ShouldContinueLoading(loaded, buffered, speed) {
		return true, ReasonBaselineContinue
	}
	return false, ReasonBaselineStop
}

// ShouldStartPlayback delegates to the baseline thresholds.
func (p *Policy) ShouldStartPlayback(buffered time.Duration, speed float64, rebuffering bool) bool {
	return p.baseline.ShouldStartPlayback(p.alloc.TotalBytesAllocated(), buffered, speed, rebuffering)
}

// OnReleased resets per-player state when the player is torn down.
func (p *Policy) OnReleased() {
	p.baseline.Reset()
	p.alloc.Reset()
}

// EffectiveBackBuffer returns cfg.BackBuffer, or zero when the back-buffer memory reserve exceeds free memory.
func EffectiveBackBuffer(cfg BufferConfig, probe MemoryProbe) time.Duration {
	maxMem := probe.MaxMemory()
	reserve := int64(cfg.MinBackBufferMemoryReservePercent * float64(maxMem))
	free := maxMem - probe.UsedMemory()
	if reserve > free {
		return 0
	}
	return cfg.BackBuffer
}
