// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package loadcontrol

import "sync/atomic"

// Allocator tracks the bytes the player's loaders currently hold.
// Loader goroutines update it concurrently; readers never lock.
type Allocator struct {
	segmentSize int
	total       atomic.Int64
}

// NewAllocator returns an allocator handing out segments of segmentSize bytes.
func NewAllocator(segmentSize int) *Allocator {
	if segmentSize <= 0 {
		segmentSize = DefaultBufferSegmentSize
	}
	return &Allocator{segmentSize: segmentSize}
}

// SegmentSize is the allocation unit.
func (a *Allocator) SegmentSize() int {
	return a.segmentSize
}

// Allocate accounts n more bytes.
func (a *Allocator) Allocate(n int64) {
	a.total.Add(n)
}

// Release returns n bytes. The total never goes below zero.
func (a *Allocator) Release(n int64) {
	for {
		cur := a.total.Load()
		next := cur - n
		if next < 0 {
			next = 0
		}
		if a.total.CompareAndSwap(cur, next) {
			return
		}
	}
}

// TotalBytesAllocated returns the bytes currently held.
func (a *Allocator) TotalBytesAllocated() int64 {
	return a.total.Load()
}

// Reset drops all accounting.
func (a *Allocator) Reset() {
	a.total.Store(0)
}
