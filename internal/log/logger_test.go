// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "playctl-test"})
	t.Cleanup(func() { Reconfigure(Config{Level: "info"}) })

	l := WithComponent("session")
	l.Info().Str(FieldEvent, "session.transition").Msg("moved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session", entry[FieldComponent])
	assert.Equal(t, "playctl-test", entry["service"])
	assert.Equal(t, "session.transition", entry[FieldEvent])
}

func TestDerive(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Reconfigure(Config{Level: "info"}) })

	l := Derive(func(c *zerolog.Context) {
		*c = c.Str(FieldSessionID, "s-1").Uint64(FieldGeneration, 3)
	})
	l.Debug().Msg("derived")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s-1", entry[FieldSessionID])
	assert.EqualValues(t, 3, entry[FieldGeneration])
}

func TestReconfigure_InvalidLevelKeepsInfo(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "nope", Output: &buf})
	t.Cleanup(func() { Reconfigure(Config{Level: "info"}) })

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
