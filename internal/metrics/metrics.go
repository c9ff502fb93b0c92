// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus instruments for the playback controller.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playctl_session_transitions_total",
			Help: "Playback session state transitions.",
		},
		[]string{"from", "to"},
	)

	loadControlDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playctl_load_control_decisions_total",
			Help: "Load control decisions by reason.",
		},
		[]string{"reason"},
	)

	drmAcquireAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playctl_drm_acquire_attempts_total",
			Help: "DRM session acquisition attempts by result.",
		},
		[]string{"result"},
	)

	drmDowngradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playctl_drm_downgrades_total",
			Help: "Security level downgrades armed after DRM-classified player errors.",
		},
	)

	progressEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playctl_progress_events_total",
			Help: "Progress ticks by outcome (emitted or suppressed).",
		},
		[]string{"result"},
	)

	loadRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playctl_load_retries_total",
			Help: "Source load retries by error class.",
		},
		[]string{"class"},
	)

	decoderQueryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playctl_decoder_query_failures_total",
			Help: "Decoder capability queries that failed and were treated as supported.",
		},
	)

	playerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playctl_player_errors_total",
			Help: "Player errors by recovery class.",
		},
		[]string{"class"},
	)

	timeToReady = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playctl_time_to_ready_seconds",
			Help:    "Time from source attach to first Ready.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	cacheBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playctl_cache_bytes",
			Help: "Approximate bytes held per cache namespace.",
		},
		[]string{"namespace"},
	)
)

// RecordTransition records one committed session state change.
func RecordTransition(from, to string) {
	sessionTransitionsTotal.WithLabelValues(normalizeState(from), normalizeState(to)).Inc()
}

// RecordLoadDecision records one load control verdict.
func RecordLoadDecision(reason string) {
	loadControlDecisionsTotal.WithLabelValues(reason).Inc()
}

// RecordDRMAttempt records one DRM acquisition attempt outcome ("success", "retry", "failed", "unsupported").
func RecordDRMAttempt(result string) {
	drmAcquireAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordDRMDowngrade counts an armed security level downgrade.
func RecordDRMDowngrade() {
	drmDowngradesTotal.Inc()
}

// RecordProgress counts a progress tick. Emitted ticks reached the host.
func RecordProgress(emitted bool) {
	if emitted {
		progressEventsTotal.WithLabelValues("emitted").Inc()
		return
	}
	progressEventsTotal.WithLabelValues("suppressed").Inc()
}

// RecordLoadRetry counts one scheduled source retry.
func RecordLoadRetry(class string) {
	loadRetriesTotal.WithLabelValues(class).Inc()
}

// RecordDecoderQueryFailure counts a failed capability query.
func RecordDecoderQueryFailure() {
	decoderQueryFailuresTotal.Inc()
}

// RecordPlayerError counts a player error by how it was handled.
func RecordPlayerError(class string) {
	playerErrorsTotal.WithLabelValues(class).Inc()
}

// ObserveTimeToReady records the attach-to-ready latency.
func ObserveTimeToReady(d time.Duration) {
	timeToReady.Observe(d.Seconds())
}

// SetCacheBytes publishes the approximate size of a cache namespace.
func SetCacheBytes(namespace string, bytes int64) {
	cacheBytes.WithLabelValues(namespace).Set(float64(bytes))
}

// DeleteCacheBytes drops the series of a released namespace.
func DeleteCacheBytes(namespace string) {
	cacheBytes.DeleteLabelValues(namespace)
}

func normalizeState(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle", "initializing", "buffering", "ready", "ended", "error":
		return strings.ToLower(strings.TrimSpace(s))
	default:
		return "unknown"
	}
}
