// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resume keeps the playback position to restore after a player rebuild.
package resume

import (
	"time"

	"github.com/samber/mo"
)

// Cursor is a saved (item, position) pair.
// HasPosition is false when the item was not seekable; restoring then starts the item at its default position.
type Cursor struct {
	ItemIndex   int           `json:"item_index"`
	Position    time.Duration `json:"position"`
	HasPosition bool          `json:"has_position"`
}

// FromPlayback captures a cursor from the player's current item.
func FromPlayback(itemIndex int, position time.Duration, seekable bool) Cursor {
	if !seekable {
		return Cursor{ItemIndex: itemIndex}
	}
	if position < 0 {
		position = 0
	}
	return Cursor{ItemIndex: itemIndex, Position: position, HasPosition: true}
}

// Holder owns the session's single optional cursor.
// It is not synchronized; only the session owner touches it.
type Holder struct {
	cur mo.Option[Cursor]
}

// Set replaces the cursor.
func (h *Holder) Set(c Cursor) {
	h.cur = mo.Some(c)
}

// Clear unsets the cursor.
func (h *Holder) Clear() {
	h.cur = mo.None[Cursor]()
}

// Take returns the cursor and clears it, so each value is applied at most once.
func (h *Holder) Take() (Cursor, bool) {
	c, ok := h.cur.Get()
	h.Clear()
	return c, ok
}

// Peek returns the cursor without consuming it.
func (h *Holder) Peek() mo.Option[Cursor] {
	return h.cur
}

// IsSet reports whether a cursor is pending.
func (h *Holder) IsSet() bool {
	return h.cur.IsPresent()
}
