// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import "github.com/ManuGH/playctl/internal/fsm"

// State is the session lifecycle state reported to the host.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateBuffering    State = "buffering"
	StateReady        State = "ready"
	StateEnded        State = "ended"
	StateError        State = "error"
)

// Event drives State transitions.
type Event string

const (
	EvInit     Event = "init"
	EvPrepared Event = "prepared"
	EvReady    Event = "ready"
	EvStall    Event = "stall"
	EvEnd      Event = "end"
	EvFail     Event = "fail"
	EvTeardown Event = "teardown"
)

var transitions = []fsm.Transition[State, Event]{
	{From: StateIdle, Event: EvInit, To: StateInitializing},
	{From: StateBuffering, Event: EvInit, To: StateInitializing},
	{From: StateReady, Event: EvInit, To: StateInitializing},
	{From: StateEnded, Event: EvInit, To: StateInitializing},
	{From: StateError, Event: EvInit, To: StateInitializing},

	{From: StateInitializing, Event: EvPrepared, To: StateBuffering},

	{From: StateBuffering, Event: EvReady, To: StateReady},
	{From: StateEnded, Event: EvReady, To: StateReady},

	{From: StateReady, Event: EvStall, To: StateBuffering},
	{From: StateEnded, Event: EvStall, To: StateBuffering},

	{From: StateBuffering, Event: EvEnd, To: StateEnded},
	{From: StateReady, Event: EvEnd, To: StateEnded},

	{From: StateInitializing, Event: EvFail, To: StateError},
	{From: StateBuffering, Event: EvFail, To: StateError},
	{From: StateReady, Event: EvFail, To: StateError},

	{From: StateInitializing, Event: EvTeardown, To: StateIdle},
	{From: StateBuffering, Event: EvTeardown, To: StateIdle},
	{From: StateReady, Event: EvTeardown, To: StateIdle},
	{From: StateEnded, Event: EvTeardown, To: StateIdle},
	{From: StateError, Event: EvTeardown, To: StateIdle},
}

func newMachine() *fsm.Machine[State, Event] {
	return fsm.MustNew(StateIdle, transitions)
}
