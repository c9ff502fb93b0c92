// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"testing"

	"github.com/ManuGH/playctl/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Default(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"log level", func(c *AppConfig) { c.Log.Level = "loud" }, "log.level"},
		{"buffer", func(c *AppConfig) { c.Buffer.MaxHeapAllocationPercent = 2 }, "buffer"},
		{"progress interval", func(c *AppConfig) { c.Playback.ProgressInterval = 0 }, "playback.progressInterval"},
		{"locale", func(c *AppConfig) { c.Playback.Locale = "not a locale!" }, "playback.locale"},
		{"rate", func(c *AppConfig) { c.Playback.Rate = 0 }, "playback.rate"},
		{"volume", func(c *AppConfig) { c.Playback.Volume = 1.5 }, "playback.volume"},
		{"drm retries", func(c *AppConfig) { c.DRM.MaxRetries = 50 }, "drm.maxRetries"},
		{"drm scheme", func(c *AppConfig) { c.DRM.Scheme = "fairplay"; c.DRM.LicenseURL = "https://l.example.com" }, "drm.scheme"},
		{"drm license", func(c *AppConfig) { c.DRM.Scheme = "widevine" }, "drm.licenseUrl"},
		{"resume backend", func(c *AppConfig) { c.Resume.Backend = "badger" }, "resume.backend"},
		{"resume redis", func(c *AppConfig) { c.Resume.Backend = "redis" }, "resume.redisAddr"},
		{"cache policy", func(c *AppConfig) { c.Cache.Policy = "lru" }, "cache.policy"},
		{"cache budget", func(c *AppConfig) { c.Cache.MaxBytes = 0 }, "cache.maxBytes"},
		{"cache disk without dir", func(c *AppConfig) { c.Cache.Policy = "disk"; c.Cache.Dir = "" }, "cache.dir"},
		{"cache redis", func(c *AppConfig) { c.Cache.Policy = "redis"; c.Cache.RedisAddr = "nohost" }, "cache.redisAddr"},
		{"telemetry exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "telemetry.exporter"},
		{"sampling", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.SamplingRate = 2 }, "telemetry.samplingRate"},
		{"request timeout", func(c *AppConfig) { c.Network.RequestTimeout = 0 }, "network.requestTimeout"},
		{"retry wait", func(c *AppConfig) { c.Network.RetryWaitMax = 0 }, "network.retryWaitMax"},
		{"user agent", func(c *AppConfig) { c.Network.UserAgent = "a\r\nb" }, "network.userAgent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Errors()))
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_TelemetryDisabledSkipsChecks(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Exporter = "zipkin"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Playback.Rate = -1
	cfg.Cache.Policy = "lru"

	var verr validate.ValidationError
	require.True(t, errors.As(Validate(cfg), &verr))
	assert.Len(t, verr.Errors(), 3)
}
