// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package drm negotiates content protection sessions with the platform DRM framework.
package drm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Well-known protection system identifiers.
var (
	SchemeWidevine  = uuid.MustParse("edef8ba9-79d6-4ace-a3c8-27dcd51d21ed")
	SchemePlayReady = uuid.MustParse("9a04f079-9840-4286-ab92-e65be0885f95")
	SchemeClearKey  = uuid.MustParse("e2719d58-a985-b3c9-781a-b030af78d30e")
)

// ParseScheme accepts a scheme name ("widevine", "playready", "clearkey") or a raw UUID.
func ParseScheme(s string) (uuid.UUID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "widevine":
		return SchemeWidevine, nil
	case "playready":
		return SchemePlayReady, nil
	case "clearkey":
		return SchemeClearKey, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("unknown drm scheme %q: %w", s, err)
	}
	return id, nil
}

// SchemeName returns the short name of a known scheme, or its UUID.
func SchemeName(id uuid.UUID) string {
	switch id {
	case SchemeWidevine:
		return "widevine"
	case SchemePlayReady:
		return "playready"
	case SchemeClearKey:
		return "clearkey"
	default:
		return id.String()
	}
}

// Config describes the protection of one source. It is immutable once attached.
type Config struct {
	Scheme     uuid.UUID
	LicenseURL string
	Headers    map[string]string
}

type SecurityLevel string

const (
	SecurityLevelDefault  SecurityLevel = "default"
	SecurityLevelSoftware SecurityLevel = "L3"
)

// Request is what the framework receives for one session attempt.
type Request struct {
	Scheme        uuid.UUID
	LicenseURL    string
	Headers       map[string]string
	SecurityLevel SecurityLevel
}

// Session is an open DRM session handed to the player.
type Session interface {
	ID() string
	SecurityLevel() SecurityLevel
	Release()
}

// Framework is the platform DRM capability.
type Framework interface {
	APILevel() int
	OpenSession(ctx context.Context, req Request) (Session, error)
}

// ErrUnsupportedScheme must be returned (or wrapped) by a Framework that cannot handle the scheme.
var ErrUnsupportedScheme = errors.New("drm: unsupported scheme")

// Host-facing DRM error codes.
const (
	CodeUnsupported       = 3002
	CodeUnsupportedScheme = 3003
	CodeUnknown           = 3006
)

type FailureReason string

const (
	ReasonUnsupported       FailureReason = "unsupported"
	ReasonUnsupportedScheme FailureReason = "unsupported_scheme"
	ReasonUnknown           FailureReason = "unknown"
)

// Failure is a terminal acquisition error.
type Failure struct {
	Reason   FailureReason
	Code     int
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("drm %s (code %d)", f.Reason, f.Code)
	}
	return fmt.Sprintf("drm %s (code %d): %v", f.Reason, f.Code, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
