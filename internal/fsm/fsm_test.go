// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type light string
type press string

const (
	off light = "off"
	on  light = "on"

	toggle press = "toggle"
	smash  press = "smash"
)

func table() []Transition[light, press] {
	return []Transition[light, press]{
		{From: off, Event: toggle, To: on},
		{From: on, Event: toggle, To: off},
	}
}

func TestMachine_Fire(t *testing.T) {
	m := MustNew(off, table())

	to, err := m.Fire(context.Background(), toggle)
	require.NoError(t, err)
	assert.Equal(t, on, to)
	assert.Equal(t, on, m.State())
}

func TestMachine_InvalidTransition(t *testing.T) {
	m := MustNew(off, table())

	from, err := m.Fire(context.Background(), smash)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, off, from)
	assert.False(t, m.Can(smash))
	assert.True(t, m.Can(toggle))
}

func TestMachine_DuplicateRejected(t *testing.T) {
	_, err := New(off, append(table(), Transition[light, press]{From: off, Event: toggle, To: off}))
	require.Error(t, err)
}

func TestMachine_GuardBlocks(t *testing.T) {
	blocked := errors.New("blocked")
	m := MustNew(off, []Transition[light, press]{
		{From: off, Event: toggle, To: on, Guard: func(context.Context, light, press) error { return blocked }},
	})

	_, err := m.Fire(context.Background(), toggle)
	require.ErrorIs(t, err, blocked)
	assert.Equal(t, off, m.State())
}

func TestMachine_ActionAndObserver(t *testing.T) {
	var actions, observed []string
	m := MustNew(off, []Transition[light, press]{
		{From: off, Event: toggle, To: on, Action: func(_ context.Context, from, to light, _ press) error {
			actions = append(actions, string(from)+">"+string(to))
			return nil
		}},
	})
	m.Observe(func(from, to light, ev press) {
		observed = append(observed, string(from)+">"+string(to)+":"+string(ev))
	})

	_, err := m.Fire(context.Background(), toggle)
	require.NoError(t, err)
	assert.Equal(t, []string{"off>on"}, actions)
	assert.Equal(t, []string{"off>on:toggle"}, observed)
}
