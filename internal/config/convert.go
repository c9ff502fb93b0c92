// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"maps"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/ManuGH/playctl/internal/telemetry"
)

// LogOptions maps the log section.
func (c AppConfig) LogOptions() log.Config {
	return log.Config{Level: c.Log.Level, Service: c.Log.Service}
}

// DRMPolicy maps the acquisition bounds.
func (c AppConfig) DRMPolicy() drm.Policy {
	return drm.Policy{MinAPILevel: c.DRM.MinAPILevel, MaxRetries: c.DRM.MaxRetries}
}

// DRMSource returns the protection for CLI-started sources, or nil when
// no scheme is configured.
func (c AppConfig) DRMSource() (*drm.Config, error) {
	if c.DRM.Scheme == "" {
		return nil, nil
	}
	scheme, err := drm.ParseScheme(c.DRM.Scheme)
	if err != nil {
		return nil, err
	}
	return &drm.Config{
		Scheme:     scheme,
		LicenseURL: c.DRM.LicenseURL,
		Headers:    maps.Clone(c.DRM.Headers),
	}, nil
}

// RepeatMode parses playback.repeat. Validated configs never fail.
func (c AppConfig) RepeatMode() player.RepeatMode {
	mode, _ := player.ParseRepeatMode(c.Playback.Repeat)
	return mode
}

// ResumeOptions maps the resume section.
func (c AppConfig) ResumeOptions() resume.Options {
	return resume.Options{
		Backend:   c.Resume.Backend,
		Dir:       c.Resume.Dir,
		RedisAddr: c.Resume.RedisAddr,
		RedisTTL:  c.Resume.RedisTTL,
	}
}

// CacheOptions maps the cache section.
func (c AppConfig) CacheOptions() cache.Options {
	return cache.Options{
		Policy:          cache.Policy(c.Cache.Policy),
		MaxBytes:        c.Cache.MaxBytes,
		TTL:             c.Cache.TTL,
		CleanupInterval: c.Cache.CleanupInterval,
		Dir:             c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			TTL:      c.Cache.TTL,
		},
	}
}

// HTTPOptions maps the network section. A zero retryMax disables retries.
func (c AppConfig) HTTPOptions() datasource.HTTPOptions {
	retryMax := c.Network.RetryMax
	if retryMax == 0 {
		retryMax = -1
	}
	return datasource.HTTPOptions{
		UserAgent:      c.Network.UserAgent,
		RequestTimeout: c.Network.RequestTimeout,
		RetryMax:       retryMax,
		RetryWaitMin:   c.Network.RetryWaitMin,
		RetryWaitMax:   c.Network.RetryWaitMax,
	}
}

// TelemetryOptions maps the telemetry section.
func (c AppConfig) TelemetryOptions(version string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    c.Log.Service,
		ServiceVersion: version,
		Environment:    c.Telemetry.Environment,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}
