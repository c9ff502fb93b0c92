// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package simplayer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/google/uuid"
)

// Surface is a render target that accepts any player.
type Surface struct {
	mu       sync.Mutex
	attached player.Player
}

func (s *Surface) AttachPlayer(p player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = p
	return nil
}

func (s *Surface) DetachPlayer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = nil
}

// Attached returns the player currently drawing into the surface.
func (s *Surface) Attached() player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// DRM is a platform DRM framework that opens sessions instantly.
// An empty Schemes list accepts every scheme.
type DRM struct {
	Level   int
	Schemes []uuid.UUID

	mu   sync.Mutex
	open int
}

func (d *DRM) APILevel() int { return d.Level }

func (d *DRM) OpenSession(ctx context.Context, req drm.Request) (drm.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.Schemes) > 0 && !slices.Contains(d.Schemes, req.Scheme) {
		return nil, fmt.Errorf("%w: %s", drm.ErrUnsupportedScheme, drm.SchemeName(req.Scheme))
	}
	d.mu.Lock()
	d.open++
	d.mu.Unlock()
	return &drmSession{id: uuid.NewString(), level: req.SecurityLevel, owner: d}, nil
}

// Open reports the number of sessions not yet released.
func (d *DRM) Open() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

type drmSession struct {
	id    string
	level drm.SecurityLevel
	owner *DRM
	once  sync.Once
}

func (s *drmSession) ID() string                       { return s.id }
func (s *drmSession) SecurityLevel() drm.SecurityLevel { return s.level }

func (s *drmSession) Release() {
	s.once.Do(func() {
		s.owner.mu.Lock()
		s.owner.open--
		s.owner.mu.Unlock()
	})
}

// Focus grants audio focus unless Deny is set, and lets callers inject
// platform focus changes.
type Focus struct {
	Deny bool

	mu       sync.Mutex
	onChange func(player.FocusChange)
}

func (f *Focus) Request(onChange func(player.FocusChange)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Deny {
		return false
	}
	f.onChange = onChange
	return true
}

func (f *Focus) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = nil
}

// Change delivers c to the current focus holder, if any.
func (f *Focus) Change(c player.FocusChange) {
	f.mu.Lock()
	cb := f.onChange
	f.mu.Unlock()
	if cb != nil {
		cb(c)
	}
}
