// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID  = "session_id"
	FieldGeneration = "generation"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Media fields
	FieldSourceURI = "source_uri"
	FieldTrackType = "track_type"
	FieldCodec     = "codec"
	FieldHeight    = "height"
	FieldBitrate   = "bitrate"
	FieldNamespace = "namespace"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldReason   = "reason"

	// DRM fields
	FieldScheme  = "scheme"
	FieldAttempt = "attempt"
	FieldCode    = "code"
)
