// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package loadcontrol

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	max, used, free, class int64
	gcRequests             int
}

func (f *fakeProbe) MaxMemory() int64   { return f.max }
func (f *fakeProbe) UsedMemory() int64  { return f.used }
func (f *fakeProbe) FreeMemory() int64  { return f.free }
func (f *fakeProbe) MemoryClass() int64 { return f.class }
func (f *fakeProbe) RequestGC()         { f.gcRequests++ }

const mib = 1 << 20

func roomyProbe() *fakeProbe {
	return &fakeProbe{max: 512 * mib, used: 64 * mib, free: 16 * mib, class: 256 * mib}
}

func TestPolicy_Decisions(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*BufferConfig)
		probe    *fakeProbe
		loaded   int64
		buffered time.Duration
		want     bool
		reason   Reason
	}{
		{
			name:     "buffering disabled",
			mutate:   func(c *BufferConfig) { c.DisableBuffering = true },
			probe:    roomyProbe(),
			buffered: 0,
			want:     false,
			reason:   ReasonBufferingDisabled,
		},
		{
			name:     "heap ceiling reached",
			mutate:   func(c *BufferConfig) { c.MaxHeapAllocationPercent = 0.5 },
			probe:    roomyProbe(),
			loaded:   128 * mib,
			buffered: time.Second,
			want:     false,
			reason:   ReasonHeapCeiling,
		},
		{
			name:     "heap ceiling just below",
			mutate:   func(c *BufferConfig) { c.MaxHeapAllocationPercent = 0.5 },
			probe:    roomyProbe(),
			loaded:   128*mib - 1,
			buffered: time.Second,
			want:     true,
			reason:   ReasonBaselineContinue,
		},
		{
			name:     "zero ceiling skips check",
			mutate:   func(c *BufferConfig) { c.MaxHeapAllocationPercent = 0 },
			probe:    &fakeProbe{max: 512 * mib, used: 64 * mib, free: 16 * mib, class: mib},
			loaded:   100 * mib,
			buffered: time.Second,
			want:     true,
			reason:   ReasonBaselineContinue,
		},
		{
			name:     "reserve exceeds free with enough buffered",
			mutate:   func(c *BufferConfig) { c.MinBufferMemoryReservePercent = 0.9 },
			probe:    roomyProbe(),
			buffered: 2001 * time.Millisecond,
			want:     false,
			reason:   ReasonMemoryReserve,
		},
		{
			name:     "reserve exceeds free but buffer is short",
			mutate:   func(c *BufferConfig) { c.MinBufferMemoryReservePercent = 0.9 },
			probe:    roomyProbe(),
			buffered: 2000 * time.Millisecond,
			want:     true,
			reason:   ReasonBaselineContinue,
		},
		{
			name:     "no free memory",
			probe:    &fakeProbe{max: 512 * mib, used: 64 * mib, free: 0, class: 256 * mib},
			buffered: time.Second,
			want:     false,
			reason:   ReasonNoFreeMemory,
		},
		{
			name:     "baseline stops at max buffer",
			probe:    roomyProbe(),
			buffered: DefaultMaxBuffer,
			want:     false,
			reason:   ReasonBaselineStop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBufferConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			alloc := NewAllocator(0)
			alloc.Allocate(tt.loaded)
			p := NewPolicy(cfg, alloc, tt.probe)

			got, reason := p.Evaluate(0, tt.buffered, 1)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.want, p.ShouldContinueLoading(0, tt.buffered, 1))
		})
	}
}

func TestPolicy_NoFreeMemoryRequestsGC(t *testing.T) {
	probe := &fakeProbe{max: 512 * mib, used: 10 * mib, free: 0, class: 256 * mib}
	p := NewPolicy(DefaultBufferConfig(), nil, probe)

	assert.False(t, p.ShouldContinueLoading(0, time.Second, 1))
	assert.Equal(t, 1, probe.gcRequests)
}

func TestPolicy_DisabledNeverLoads(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		cfg := BufferConfig{
			MinBuffer:                     time.Duration(rng.Int63n(int64(time.Minute))),
			MaxBuffer:                     time.Duration(rng.Int63n(int64(2 * time.Minute))),
			MaxHeapAllocationPercent:      rng.Float64(),
			MinBufferMemoryReservePercent: rng.Float64(),
			PrioritizeTimeOverSize:        rng.Intn(2) == 0,
			DisableBuffering:              true,
		}
		probe := &fakeProbe{max: rng.Int63n(1 << 32), used: rng.Int63n(1 << 30), free: rng.Int63n(1 << 20), class: rng.Int63n(1 << 31)}
		alloc := NewAllocator(0)
		alloc.Allocate(rng.Int63n(1 << 30))

		p := NewPolicy(cfg, alloc, probe)
		require.False(t, p.ShouldContinueLoading(0, time.Duration(rng.Int63n(int64(time.Hour))), rng.Float64()*3))
	}
}

func TestPolicy_HeapCeilingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		cfg := DefaultBufferConfig()
		cfg.MaxHeapAllocationPercent = 0.01 + rng.Float64()*0.99
		probe := roomyProbe()
		probe.class = 1 + rng.Int63n(1<<30)

		ceiling := int64(cfg.MaxHeapAllocationPercent * float64(probe.class))
		if ceiling <= 0 {
			continue
		}
		alloc := NewAllocator(0)
		alloc.Allocate(ceiling + rng.Int63n(1<<20))

		p := NewPolicy(cfg, alloc, probe)
		ok, reason := p.Evaluate(0, time.Second, 1)
		require.False(t, ok)
		require.Equal(t, ReasonHeapCeiling, reason)
	}
}

func TestPolicy_OnReleasedResets(t *testing.T) {
	alloc := NewAllocator(0)
	alloc.Allocate(10 * mib)
	p := NewPolicy(DefaultBufferConfig(), alloc, roomyProbe())
	require.True(t, p.ShouldContinueLoading(0, 10*time.Second, 1))

	p.OnReleased()
	assert.Zero(t, alloc.TotalBytesAllocated())
	assert.Same(t, alloc, p.Allocator())
}

func TestEffectiveBackBuffer(t *testing.T) {
	cfg := DefaultBufferConfig()
	cfg.BackBuffer = 30 * time.Second

	probe := roomyProbe()
	assert.Equal(t, 30*time.Second, EffectiveBackBuffer(cfg, probe))

	cfg.MinBackBufferMemoryReservePercent = 0.95
	assert.Equal(t, time.Duration(0), EffectiveBackBuffer(cfg, probe))
}

func TestAllocator_Concurrent(t *testing.T) {
	a := NewAllocator(0)
	assert.Equal(t, DefaultBufferSegmentSize, a.SegmentSize())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				a.Allocate(64)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(16*1000*64), a.TotalBytesAllocated())

	a.Release(1 << 40)
	assert.Zero(t, a.TotalBytesAllocated())
}

func TestRuntimeProbe(t *testing.T) {
	p := &RuntimeProbe{Class: 128 * mib}
	assert.Positive(t, p.MaxMemory())
	assert.Positive(t, p.UsedMemory())
	assert.GreaterOrEqual(t, p.FreeMemory(), int64(0))
	assert.Equal(t, int64(128*mib), p.MemoryClass())

	p = &RuntimeProbe{Max: 64 * mib}
	assert.Equal(t, int64(64*mib), p.MaxMemory())
}
