// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"fmt"
	"sync"
)

// message is one unit of owner work. discard runs instead of run when the
// session shuts down first, so results carrying resources can release them.
type message struct {
	run     func()
	discard func()
}

// mailbox is an unbounded FIFO; posting never blocks.
type mailbox struct {
	mu     sync.Mutex
	queue  []message
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) post(msg message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.queue = append(m.queue, msg)
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) drain() []message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}

// close rejects further posts and returns what was still queued.
func (m *mailbox) close() []message {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	out := m.queue
	m.queue = nil
	return out
}

// workerGroup tracks session-owned goroutines and provides a bounded join on shutdown.
type workerGroup struct {
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func (g *workerGroup) Go(fn func()) bool {
	g.mu.Lock()
	if g.closing {
		g.mu.Unlock()
		return false
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		fn()
	}()

	return true
}

func (g *workerGroup) CloseAndWait(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session worker drain timeout: %w", ctx.Err())
	}
}
