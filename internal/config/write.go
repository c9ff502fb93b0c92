// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the target exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// Marshal renders cfg as YAML with two-space indentation.
func Marshal(cfg AppConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the built-in configuration to path.
func WriteDefault(path string, overwrite bool) error {
	return Write(path, Default(), overwrite)
}

// Write stores cfg at path atomically: readers see either the old file or
// the complete new one.
func Write(path string, cfg AppConfig, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0600))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger := log.WithComponent("config")
			logger.Debug().Err(err).Msg("cleanup pending config file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write config data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}
