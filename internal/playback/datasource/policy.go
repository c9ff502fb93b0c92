// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package datasource

import (
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

const (
	// DefaultMinLoadRetryCount is the retry budget for ordinary load errors.
	DefaultMinLoadRetryCount = 3

	connectivityRetryDelay = time.Second
	maxRetryDelay          = 5 * time.Second
)

// ErrNoConnectivity marks a load failure caused by missing network access.
var ErrNoConnectivity = errors.New("no network connectivity")

// Error classes reported to metrics.
const (
	ClassNoConnectivity = "no_connectivity"
	ClassHTTPStatus     = "http_status"
	ClassOther          = "other"
)

// LoadErrorPolicy decides whether and when a failed load is retried.
type LoadErrorPolicy struct {
	MinLoadRetryCount int
}

// RetryDelay returns the delay before the next attempt, or false when the
// load should fail. errorCount counts failures so far, starting at 1.
// Connectivity failures retry every second without limit.
func (p LoadErrorPolicy) RetryDelay(err error, errorCount int) (time.Duration, bool) {
	if IsNoConnectivity(err) {
		return connectivityRetryDelay, true
	}
	if errorCount < p.MinLoadRetryCount {
		d := time.Duration(errorCount-1) * time.Second
		if d < 0 {
			d = 0
		}
		return min(d, maxRetryDelay), true
	}
	return 0, false
}

// IsNoConnectivity reports whether err means the network is unreachable, as
// opposed to the server failing.
func IsNoConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoConnectivity) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Unable to connect") ||
		strings.Contains(msg, "Software caused connection abort")
}

// Classify buckets err for metrics.
func Classify(err error) string {
	if IsNoConnectivity(err) {
		return ClassNoConnectivity
	}
	var se *StatusError
	if errors.As(err, &se) {
		return ClassHTTPStatus
	}
	return ClassOther
}
