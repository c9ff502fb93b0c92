// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package events

import (
	"sync"

	"github.com/ManuGH/playctl/internal/log"
)

// Sink receives events one at a time, in publish order.
type Sink interface {
	Deliver(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Deliver(e Event) { f(e) }

// Dispatcher queues events without blocking the publisher and delivers them
// sequentially on its own goroutine.
type Dispatcher struct {
	sink Sink

	mu     sync.Mutex
	queue  []Event
	closed bool
	notify chan struct{}
	done   chan struct{}
}

// NewDispatcher starts delivering to sink.
func NewDispatcher(sink Sink) *Dispatcher {
	d := &Dispatcher{
		sink:   sink,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues e. It returns false once the dispatcher is closed.
func (d *Dispatcher) Publish(e Event) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, e)
	select {
	case d.notify <- struct{}{}:
	default:
	}
	d.mu.Unlock()
	return true
}

// Close stops accepting events and waits until the queue is drained.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.notify)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closed := d.closed
		d.mu.Unlock()

		for _, e := range batch {
			d.deliver(e)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-d.notify
	}
}

func (d *Dispatcher) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger := log.WithComponent("events")
			logger.Error().
				Interface("panic", r).
				Str(log.FieldEvent, "events.sink_panic").
				Str("name", e.Name()).
				Msg("event sink panicked")
		}
	}()
	d.sink.Deliver(e)
}
