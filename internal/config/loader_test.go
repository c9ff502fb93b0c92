// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "playctl.yaml", `
log:
  level: debug
buffer:
  minBuffer: 20s
  maxBuffer: 40s
playback:
  locale: de-DE
  repeat: all
drm:
  scheme: widevine
  licenseUrl: https://license.example.com/wv
  headers:
    X-Token: abc
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "playctl", cfg.Log.Service, "unset keys keep their defaults")
	assert.Equal(t, 20*time.Second, cfg.Buffer.MinBuffer)
	assert.Equal(t, 40*time.Second, cfg.Buffer.MaxBuffer)
	assert.Equal(t, Default().Buffer.BufferForPlayback, cfg.Buffer.BufferForPlayback)
	assert.Equal(t, "de-DE", cfg.Playback.Locale)

	src, err := cfg.DRMSource()
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "https://license.example.com/wv", src.LicenseURL)
	assert.Equal(t, map[string]string{"X-Token": "abc"}, src.Headers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "playctl.yaml", "playback:\n  locale: fr\n")
	t.Setenv("PLAYCTL_LOCALE", "it")
	t.Setenv("PLAYCTL_BUFFER_MIN", "30s")
	t.Setenv("PLAYCTL_BUFFER_MAX", "60s")
	t.Setenv("PLAYCTL_CACHE_MAX_BYTES", "1048576")
	t.Setenv("PLAYCTL_HTTP_RETRY_MAX", "0")

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "it", cfg.Playback.Locale)
	assert.Equal(t, 30*time.Second, cfg.Buffer.MinBuffer)
	assert.Equal(t, int64(1<<20), cfg.Cache.MaxBytes)
	assert.Equal(t, -1, cfg.HTTPOptions().RetryMax, "zero retries disables retrying")
	assert.Contains(t, l.ConsumedEnvKeys, "PLAYCTL_LOCALE")
}

func TestLoad_UnknownEnvKeys(t *testing.T) {
	t.Setenv("PLAYCTL_LOCALE", "en")
	t.Setenv("PLAYCTL_NOT_A_SETTING", "1")

	l := NewLoader("")
	_, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"PLAYCTL_NOT_A_SETTING"}, l.UnknownEnvKeys())
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeFile(t, "playctl.yaml", "playback:\n  autoplay: true\n")

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeFile(t, "playctl.yaml", "log:\n  level: info\n---\nlog:\n  level: debug\n")

	_, err := NewLoader(path).Load()
	assert.ErrorIs(t, err, ErrMultipleDocuments)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := writeFile(t, "playctl.json", "{}")

	_, err := NewLoader(path).Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoad_EmptyFileIsDefaults(t *testing.T) {
	path := writeFile(t, "playctl.yaml", "")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeFile(t, "playctl.yaml", `
buffer:
  minBuffer: 10s
  maxBuffer: 5s
playback:
  repeat: sometimes
`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxBuffer")
	assert.Contains(t, err.Error(), "playback.repeat")
}

func TestLoad_ResumeDirIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLAYCTL_RESUME_BACKEND", "sqlite")
	t.Setenv("PLAYCTL_RESUME_DIR", dir)

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Resume.Dir))
	assert.Equal(t, "sqlite", cfg.ResumeOptions().Backend)
}

func TestLoad_DiskCacheFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLAYCTL_CACHE_POLICY", "disk")
	t.Setenv("PLAYCTL_CACHE_DIR", dir)

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	opts := cfg.CacheOptions()
	assert.Equal(t, cache.PolicyDisk, opts.Policy)
	assert.Equal(t, dir, opts.Dir)
}
