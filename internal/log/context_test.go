// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithSessionID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
		want string
	}{
		{name: "nil context", ctx: nil, id: "sess-1", want: "sess-1"},
		{name: "background context", ctx: context.Background(), id: "sess-2", want: "sess-2"},
		{name: "empty id", ctx: context.Background(), id: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithSessionID(tt.ctx, tt.id)
			assert.Equal(t, tt.want, SessionIDFromContext(ctx))
		})
	}
}

func TestSessionIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, SessionIDFromContext(nil)) //nolint:staticcheck
	assert.Empty(t, SessionIDFromContext(context.Background()))
}

func TestWithContext_AddsSessionID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithSessionID(context.Background(), "abc")
	l := WithContext(ctx, logger)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry[FieldSessionID])
}

func TestWithContext_NoFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	l := WithContext(context.Background(), logger)
	l.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry[FieldSessionID]
	assert.False(t, ok)
}

func TestFromContext_FallsBackToBase(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
}
