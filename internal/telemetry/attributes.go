// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for playback spans.
const (
	SessionIDKey   = "playback.session_id"
	GenerationKey  = "playback.generation"
	SourceURIKey   = "playback.source_uri"
	StateKey       = "playback.state"
	DRMSchemeKey   = "drm.scheme"
	DRMAttemptsKey = "drm.attempts"
	DRMLevelKey    = "drm.security_level"
	ErrorCodeKey   = "error.code"
)

// SessionAttributes creates the identity attributes of a playback session span.
func SessionAttributes(sessionID string, generation uint64, uri string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SessionIDKey, sessionID),
		attribute.Int64(GenerationKey, int64(generation)),
	}
	if uri != "" {
		attrs = append(attrs, attribute.String(SourceURIKey, uri))
	}
	return attrs
}

// DRMAttributes creates DRM acquisition attributes.
func DRMAttributes(scheme, level string, attempts int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DRMSchemeKey, scheme),
		attribute.String(DRMLevelKey, level),
		attribute.Int(DRMAttemptsKey, attempts),
	}
}

// RecordError marks the span as failed. A nil error is ignored.
func RecordError(span trace.Span, err error, code int) {
	if err == nil {
		return
	}
	span.RecordError(err)
	if code != 0 {
		span.SetAttributes(attribute.Int(ErrorCodeKey, code))
	}
	span.SetStatus(codes.Error, err.Error())
}
