// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package loadcontrol

import (
	"math"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"sync/atomic"
)

// MemoryProbe reports the process memory figures the policy reasons about.
type MemoryProbe interface {
	// MaxMemory is the most the heap may grow to.
	MaxMemory() int64
	// UsedMemory is the heap currently in use.
	UsedMemory() int64
	// FreeMemory is reserved but currently unused heap.
	FreeMemory() int64
	// MemoryClass is the per-process heap budget.
	MemoryClass() int64
	// RequestGC asks for a collection without waiting for it.
	RequestGC()
}

const (
	sampleHeapObjects = "/memory/classes/heap/objects:bytes"
	sampleHeapFree    = "/memory/classes/heap/free:bytes"
)

// RuntimeProbe reads the Go runtime's heap metrics.
// Max falls back to the soft memory limit, then to Class.
type RuntimeProbe struct {
	Max   int64
	Class int64

	gcRunning atomic.Bool
}

func (p *RuntimeProbe) read() (used, free int64) {
	samples := []metrics.Sample{{Name: sampleHeapObjects}, {Name: sampleHeapFree}}
	metrics.Read(samples)
	if samples[0].Value.Kind() == metrics.KindUint64 {
		used = int64(samples[0].Value.Uint64())
	}
	if samples[1].Value.Kind() == metrics.KindUint64 {
		free = int64(samples[1].Value.Uint64())
	}
	return used, free
}

func (p *RuntimeProbe) MaxMemory() int64 {
	if p.Max > 0 {
		return p.Max
	}
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
		return limit
	}
	return p.MemoryClass()
}

func (p *RuntimeProbe) UsedMemory() int64 {
	used, _ := p.read()
	return used
}

func (p *RuntimeProbe) FreeMemory() int64 {
	_, free := p.read()
	return free
}

func (p *RuntimeProbe) MemoryClass() int64 {
	if p.Class > 0 {
		return p.Class
	}
	return 512 << 20
}

// RequestGC runs at most one background collection at a time.
func (p *RuntimeProbe) RequestGC() {
	if !p.gcRunning.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.gcRunning.Store(false)
		runtime.GC()
	}()
}
