// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/playback/drm"
	"github.com/ManuGH/playctl/internal/playback/player"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/ManuGH/playctl/internal/validate"
	"golang.org/x/text/language"
)

// Validate checks every section and reports all problems at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.Log.Level); err != nil {
		v.AddError("log.level", "must be one of trace, debug, info, warn, error", cfg.Log.Level)
	}

	v.Wrap("buffer", cfg.Buffer.Validate())

	p := cfg.Playback
	v.MinDuration("playback.progressInterval", p.ProgressInterval, 10*time.Millisecond)
	v.MinDuration("playback.bandwidthInterval", p.BandwidthInterval, 100*time.Millisecond)
	v.NonNegative("playback.minLoadRetryCount", p.MinLoadRetryCount)
	if p.Locale != "" {
		if _, err := language.Parse(p.Locale); err != nil {
			v.AddError("playback.locale", "not a BCP 47 language tag", p.Locale)
		}
	}
	if _, err := player.ParseRepeatMode(p.Repeat); err != nil {
		v.AddError("playback.repeat", err.Error(), p.Repeat)
	}
	if p.Rate <= 0 {
		v.AddError("playback.rate", "must be positive", p.Rate)
	}
	v.FloatRange("playback.volume", p.Volume, 0, 1)
	v.NonNegative("playback.maxBitrate", p.MaxBitrate)

	v.NonNegative("drm.minApiLevel", cfg.DRM.MinAPILevel)
	v.Range("drm.maxRetries", cfg.DRM.MaxRetries, 0, 10)
	if cfg.DRM.Scheme != "" {
		if _, err := drm.ParseScheme(cfg.DRM.Scheme); err != nil {
			v.AddError("drm.scheme", err.Error(), cfg.DRM.Scheme)
		}
		v.URL("drm.licenseUrl", cfg.DRM.LicenseURL, []string{"http", "https"})
	}

	v.OneOf("resume.backend", cfg.Resume.Backend,
		[]string{resume.BackendMemory, resume.BackendSqlite, resume.BackendRedis})
	switch cfg.Resume.Backend {
	case resume.BackendRedis:
		v.HostPort("resume.redisAddr", cfg.Resume.RedisAddr)
	case resume.BackendSqlite:
		if cfg.Resume.Dir != "" {
			v.Directory("resume.dir", cfg.Resume.Dir, false)
		}
	}
	if cfg.Resume.RedisTTL < 0 {
		v.AddError("resume.redisTtl", "cannot be negative", cfg.Resume.RedisTTL)
	}

	v.OneOf("cache.policy", cfg.Cache.Policy, []string{
		string(cache.PolicyNone), string(cache.PolicyUnbounded),
		string(cache.PolicyBudget), string(cache.PolicyRedis),
		string(cache.PolicyDisk),
	})
	switch cache.Policy(cfg.Cache.Policy) {
	case cache.PolicyBudget:
		v.Positive("cache.maxBytes", cfg.Cache.MaxBytes)
	case cache.PolicyDisk:
		if cfg.Cache.Dir == "" {
			v.AddError("cache.dir", "disk policy needs a directory", cfg.Cache.Dir)
		} else {
			v.Directory("cache.dir", cfg.Cache.Dir, false)
		}
	case cache.PolicyRedis:
		v.HostPort("cache.redisAddr", cfg.Cache.RedisAddr)
		v.Range("cache.redisDb", cfg.Cache.RedisDB, 0, 15)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	n := cfg.Network
	v.NotEmpty("network.userAgent", n.UserAgent)
	v.MinDuration("network.requestTimeout", n.RequestTimeout, time.Second)
	v.Range("network.retryMax", n.RetryMax, 0, 10)
	if n.RetryWaitMax < n.RetryWaitMin {
		v.AddError("network.retryWaitMax", "must be >= retryWaitMin", n.RetryWaitMax)
	}
	if strings.ContainsAny(n.UserAgent, "\r\n") {
		v.AddError("network.userAgent", "must not contain line breaks", n.UserAgent)
	}

	return v.Err()
}
