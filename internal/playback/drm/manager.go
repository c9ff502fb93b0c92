// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/ManuGH/playctl/internal/telemetry"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultMinAPILevel = 18
	DefaultMaxRetries  = 3
)

// Policy bounds acquisition.
type Policy struct {
	MinAPILevel int
	MaxRetries  int
}

// DefaultPolicy returns the stock acquisition bounds.
func DefaultPolicy() Policy {
	return Policy{MinAPILevel: DefaultMinAPILevel, MaxRetries: DefaultMaxRetries}
}

// Manager acquires sessions and owns the one-time security level downgrade.
type Manager struct {
	fw     Framework
	policy Policy
	logger zerolog.Logger

	mu         sync.Mutex
	downgraded bool
}

// NewManager creates a manager for fw. Negative retry counts become zero.
func NewManager(fw Framework, policy Policy) *Manager {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Manager{
		fw:     fw,
		policy: policy,
		logger: log.WithComponent("drm"),
	}
}

// Level is the security level the next acquisition will request.
func (m *Manager) Level() SecurityLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downgraded {
		return SecurityLevelSoftware
	}
	return SecurityLevelDefault
}

// NoteFailure arms the downgrade for a DRM-classified player error.
// It returns true only the first time, which tells the caller to rebuild the player.
func (m *Manager) NoteFailure(code int) bool {
	if !IsDowngradeCandidate(code) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downgraded {
		return false
	}
	m.downgraded = true
	metrics.RecordDRMDowngrade()
	m.logger.Warn().
		Str(log.FieldEvent, "drm.downgrade_armed").
		Int(log.FieldCode, code).
		Msg("drm-classified player error, next session uses software security level")
	return true
}

// Acquire opens a session for cfg, retrying transient failures without delay.
// Terminal failures are returned as *Failure; context errors are returned as-is.
func (m *Manager) Acquire(ctx context.Context, cfg Config) (Session, error) {
	level := m.Level()
	scheme := SchemeName(cfg.Scheme)

	ctx, span := telemetry.Tracer().Start(ctx, "drm.acquire")
	defer span.End()

	if m.fw == nil || m.fw.APILevel() < m.policy.MinAPILevel {
		metrics.RecordDRMAttempt("unsupported")
		f := &Failure{Reason: ReasonUnsupported, Code: CodeUnsupported}
		telemetry.RecordError(span, f, f.Code)
		return nil, f
	}
	if cfg.Scheme == uuid.Nil {
		metrics.RecordDRMAttempt("unsupported")
		f := &Failure{Reason: ReasonUnsupportedScheme, Code: CodeUnsupportedScheme, Err: ErrUnsupportedScheme}
		telemetry.RecordError(span, f, f.Code)
		return nil, f
	}

	req := Request{
		Scheme:        cfg.Scheme,
		LicenseURL:    cfg.LicenseURL,
		Headers:       cfg.Headers,
		SecurityLevel: level,
	}

	attempts := 0
	sess, err := backoff.Retry(ctx, func() (Session, error) {
		attempts++
		s, err := m.fw.OpenSession(ctx, req)
		if err == nil {
			return s, nil
		}
		if errors.Is(err, ErrUnsupportedScheme) || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		metrics.RecordDRMAttempt("retry")
		m.logger.Debug().
			Err(err).
			Str(log.FieldEvent, "drm.retry").
			Str(log.FieldScheme, scheme).
			Int(log.FieldAttempt, attempts).
			Msg("drm session attempt failed")
		return nil, err
	},
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(uint(m.policy.MaxRetries+1)),
	)
	span.SetAttributes(telemetry.DRMAttributes(scheme, string(level), attempts)...)

	if err == nil {
		metrics.RecordDRMAttempt("success")
		m.logger.Info().
			Str(log.FieldEvent, "drm.acquired").
			Str(log.FieldScheme, scheme).
			Str("security_level", string(level)).
			Int(log.FieldAttempt, attempts).
			Msg("drm session acquired")
		return sess, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		telemetry.RecordError(span, ctxErr, 0)
		return nil, fmt.Errorf("drm acquire: %w", ctxErr)
	}

	var f *Failure
	if errors.Is(err, ErrUnsupportedScheme) {
		metrics.RecordDRMAttempt("unsupported")
		f = &Failure{Reason: ReasonUnsupportedScheme, Code: CodeUnsupportedScheme, Attempts: attempts, Err: err}
	} else {
		metrics.RecordDRMAttempt("failed")
		f = &Failure{Reason: ReasonUnknown, Code: CodeUnknown, Attempts: attempts, Err: err}
	}
	telemetry.RecordError(span, f, f.Code)
	m.logger.Error().
		Err(err).
		Str(log.FieldEvent, "drm.failed").
		Str(log.FieldScheme, scheme).
		Int(log.FieldCode, f.Code).
		Int(log.FieldAttempt, attempts).
		Msg("drm session acquisition failed")
	return nil, f
}
