// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and hot-reloads the playctl configuration.
//
// Precedence is ENV > File > Defaults. Files are strict YAML: unknown keys
// and multiple documents are rejected.
package config

import (
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/loadcontrol"
	"github.com/ManuGH/playctl/internal/playback/progress"
	"github.com/ManuGH/playctl/internal/playback/resume"
)

// AppConfig is the effective configuration.
type AppConfig struct {
	Log       LogConfig                `yaml:"log"`
	Buffer    loadcontrol.BufferConfig `yaml:"buffer"`
	Playback  PlaybackConfig           `yaml:"playback"`
	DRM       DRMConfig                `yaml:"drm"`
	Resume    ResumeConfig             `yaml:"resume"`
	Cache     CacheConfig              `yaml:"cache"`
	Telemetry TelemetryConfig          `yaml:"telemetry"`
	Network   NetworkConfig            `yaml:"network"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// PlaybackConfig holds the session defaults a host would otherwise set
// through the control surface.
type PlaybackConfig struct {
	ProgressInterval  time.Duration `yaml:"progressInterval"`
	MinLoadRetryCount int           `yaml:"minLoadRetryCount"`
	Locale            string        `yaml:"locale"`
	Captions          bool          `yaml:"captions"`
	PlayInBackground  bool          `yaml:"playInBackground"`
	DisableFocus      bool          `yaml:"disableFocus"`
	ReportBandwidth   bool          `yaml:"reportBandwidth"`
	BandwidthInterval time.Duration `yaml:"bandwidthInterval"`
	Repeat            string        `yaml:"repeat"`
	Rate              float64       `yaml:"rate"`
	Volume            float64       `yaml:"volume"`
	MaxBitrate        int           `yaml:"maxBitrate"`
}

// DRMConfig bounds acquisition. Scheme and LicenseURL protect the sources
// started from the CLI and are optional.
type DRMConfig struct {
	MinAPILevel int               `yaml:"minApiLevel"`
	MaxRetries  int               `yaml:"maxRetries"`
	Scheme      string            `yaml:"scheme,omitempty"`
	LicenseURL  string            `yaml:"licenseUrl,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
}

type ResumeConfig struct {
	Backend   string        `yaml:"backend"`
	Dir       string        `yaml:"dir"`
	RedisAddr string        `yaml:"redisAddr,omitempty"`
	RedisTTL  time.Duration `yaml:"redisTtl"`
}

type CacheConfig struct {
	Policy          string        `yaml:"policy"`
	MaxBytes        int64         `yaml:"maxBytes"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	Dir             string        `yaml:"dir,omitempty"`
	RedisAddr       string        `yaml:"redisAddr,omitempty"`
	RedisPassword   string        `yaml:"redisPassword,omitempty"`
	RedisDB         int           `yaml:"redisDb"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// NetworkConfig configures the HTTP data source factory.
type NetworkConfig struct {
	UserAgent      string        `yaml:"userAgent"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	RetryMax       int           `yaml:"retryMax"`
	RetryWaitMin   time.Duration `yaml:"retryWaitMin"`
	RetryWaitMax   time.Duration `yaml:"retryWaitMax"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	policy := drm.DefaultPolicy()
	return AppConfig{
		Log: LogConfig{
			Level:   "info",
			Service: "playctl",
		},
		Buffer: loadcontrol.DefaultBufferConfig(),
		Playback: PlaybackConfig{
			ProgressInterval:  progress.DefaultInterval,
			MinLoadRetryCount: datasource.DefaultMinLoadRetryCount,
			Locale:            "en",
			BandwidthInterval: time.Second,
			Repeat:            "off",
			Rate:              1,
			Volume:            1,
		},
		DRM: DRMConfig{
			MinAPILevel: policy.MinAPILevel,
			MaxRetries:  policy.MaxRetries,
		},
		Resume: ResumeConfig{
			Backend:  resume.BackendMemory,
			RedisTTL: 30 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			Policy:          string(cache.PolicyBudget),
			MaxBytes:        256 << 20,
			TTL:             10 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1,
			Environment:  "development",
		},
		Network: NetworkConfig{
			UserAgent:      "playctl",
			RequestTimeout: 15 * time.Second,
			RetryMax:       2,
			RetryWaitMin:   250 * time.Millisecond,
			RetryWaitMax:   2 * time.Second,
		},
	}
}
