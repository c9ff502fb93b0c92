// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty path loads
// defaults and environment only.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file the loader reads, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envInt64(key string, defaultVal int64) int64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt64(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	l.warnUnknownEnv()

	cfg.Resume.Dir = absDir(cfg.Resume.Dir)
	cfg.Cache.Dir = absDir(cfg.Cache.Dir)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile parses a YAML file over the defaults without applying env
// overrides or validation.
func LoadFile(path string) (AppConfig, error) {
	cfg := Default()
	err := loadFile(path, &cfg)
	return cfg, err
}

func loadFile(path string, dst *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data, dst)
}

func decodeStrict(data []byte, dst *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.Log.Level = l.envString("PLAYCTL_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = l.envString("PLAYCTL_LOG_SERVICE", cfg.Log.Service)

	b := &cfg.Buffer
	b.MinBuffer = l.envDuration("PLAYCTL_BUFFER_MIN", b.MinBuffer)
	b.MaxBuffer = l.envDuration("PLAYCTL_BUFFER_MAX", b.MaxBuffer)
	b.BufferForPlayback = l.envDuration("PLAYCTL_BUFFER_FOR_PLAYBACK", b.BufferForPlayback)
	b.BufferForPlaybackAfterRebuffer = l.envDuration("PLAYCTL_BUFFER_FOR_PLAYBACK_AFTER_REBUFFER", b.BufferForPlaybackAfterRebuffer)
	b.BackBuffer = l.envDuration("PLAYCTL_BUFFER_BACK", b.BackBuffer)
	b.TargetBufferBytes = l.envInt64("PLAYCTL_BUFFER_TARGET_BYTES", b.TargetBufferBytes)
	b.DisableBuffering = l.envBool("PLAYCTL_BUFFER_DISABLE", b.DisableBuffering)

	p := &cfg.Playback
	p.ProgressInterval = l.envDuration("PLAYCTL_PROGRESS_INTERVAL", p.ProgressInterval)
	p.MinLoadRetryCount = l.envInt("PLAYCTL_MIN_LOAD_RETRY_COUNT", p.MinLoadRetryCount)
	p.Locale = l.envString("PLAYCTL_LOCALE", p.Locale)
	p.Captions = l.envBool("PLAYCTL_CAPTIONS", p.Captions)
	p.PlayInBackground = l.envBool("PLAYCTL_PLAY_IN_BACKGROUND", p.PlayInBackground)
	p.DisableFocus = l.envBool("PLAYCTL_DISABLE_FOCUS", p.DisableFocus)
	p.ReportBandwidth = l.envBool("PLAYCTL_REPORT_BANDWIDTH", p.ReportBandwidth)
	p.Repeat = l.envString("PLAYCTL_REPEAT", p.Repeat)
	p.Rate = l.envFloat("PLAYCTL_RATE", p.Rate)
	p.Volume = l.envFloat("PLAYCTL_VOLUME", p.Volume)
	p.MaxBitrate = l.envInt("PLAYCTL_MAX_BITRATE", p.MaxBitrate)

	cfg.DRM.MinAPILevel = l.envInt("PLAYCTL_DRM_MIN_API_LEVEL", cfg.DRM.MinAPILevel)
	cfg.DRM.MaxRetries = l.envInt("PLAYCTL_DRM_MAX_RETRIES", cfg.DRM.MaxRetries)
	cfg.DRM.Scheme = l.envString("PLAYCTL_DRM_SCHEME", cfg.DRM.Scheme)
	cfg.DRM.LicenseURL = l.envString("PLAYCTL_DRM_LICENSE_URL", cfg.DRM.LicenseURL)

	cfg.Resume.Backend = l.envString("PLAYCTL_RESUME_BACKEND", cfg.Resume.Backend)
	cfg.Resume.Dir = l.envString("PLAYCTL_RESUME_DIR", cfg.Resume.Dir)
	cfg.Resume.RedisAddr = l.envString("PLAYCTL_RESUME_REDIS_ADDR", cfg.Resume.RedisAddr)
	cfg.Resume.RedisTTL = l.envDuration("PLAYCTL_RESUME_REDIS_TTL", cfg.Resume.RedisTTL)

	cfg.Cache.Policy = l.envString("PLAYCTL_CACHE_POLICY", cfg.Cache.Policy)
	cfg.Cache.MaxBytes = l.envInt64("PLAYCTL_CACHE_MAX_BYTES", cfg.Cache.MaxBytes)
	cfg.Cache.TTL = l.envDuration("PLAYCTL_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.Dir = l.envString("PLAYCTL_CACHE_DIR", cfg.Cache.Dir)
	cfg.Cache.RedisAddr = l.envString("PLAYCTL_CACHE_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("PLAYCTL_CACHE_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("PLAYCTL_CACHE_REDIS_DB", cfg.Cache.RedisDB)

	cfg.Telemetry.Enabled = l.envBool("PLAYCTL_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("PLAYCTL_TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("PLAYCTL_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("PLAYCTL_TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("PLAYCTL_ENVIRONMENT", cfg.Telemetry.Environment)

	cfg.Network.UserAgent = l.envString("PLAYCTL_USER_AGENT", cfg.Network.UserAgent)
	cfg.Network.RequestTimeout = l.envDuration("PLAYCTL_REQUEST_TIMEOUT", cfg.Network.RequestTimeout)
	cfg.Network.RetryMax = l.envInt("PLAYCTL_HTTP_RETRY_MAX", cfg.Network.RetryMax)
}

// UnknownEnvKeys lists PLAYCTL_* variables that no setting consumed.
// Only meaningful after Load.
func (l *Loader) UnknownEnvKeys() []string {
	var unknown []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func (l *Loader) warnUnknownEnv() {
	keys := l.UnknownEnvKeys()
	if len(keys) == 0 {
		return
	}
	logger := log.WithComponent("config")
	logger.Warn().
		Str("event", "config.unknown_env").
		Strs("keys", keys).
		Msg("ignoring unknown environment variables")
}

// absDir expands environment references and makes dir absolute.
func absDir(dir string) string {
	if dir == "" {
		return ""
	}
	dir = os.ExpandEnv(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
