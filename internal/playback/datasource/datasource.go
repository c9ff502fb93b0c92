// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package datasource opens media resources for the player and decides how
// failed loads are retried.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	defaultRequestTimeout = 8 * time.Second
	defaultRetryWaitMin   = 250 * time.Millisecond
	defaultRetryWaitMax   = 2 * time.Second
	defaultRetryMax       = 2
	defaultUserAgent      = "playctl"
)

// DataSource reads one resource.
type DataSource interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Factory creates data sources carrying per-source request headers.
type Factory interface {
	Create(headers map[string]string) (DataSource, error)
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URI  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected HTTP status %d", e.URI, e.Code)
}

// ErrUnsupportedScheme is returned for URIs that are neither http(s) nor files.
var ErrUnsupportedScheme = errors.New("datasource: unsupported uri scheme")

// HTTPOptions configure an HTTPFactory.
type HTTPOptions struct {
	UserAgent      string
	RequestTimeout time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	// Jar is shared by every source the factory creates. Nil gets a fresh jar.
	Jar http.CookieJar
}

// HTTPFactory creates sources backed by one pooled, retrying HTTP client.
type HTTPFactory struct {
	client    *retryablehttp.Client
	userAgent string
}

// NewHTTPFactory builds the factory. Zero options take defaults.
func NewHTTPFactory(opts HTTPOptions) *HTTPFactory {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaultRetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = defaultRetryWaitMax
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	} else if opts.RetryMax == 0 {
		opts.RetryMax = defaultRetryMax
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Jar == nil {
		jar, _ := cookiejar.New(nil)
		opts.Jar = jar
	}

	c := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   opts.RequestTimeout,
			Jar:       opts.Jar,
		},
		RetryWaitMin: opts.RetryWaitMin,
		RetryWaitMax: opts.RetryWaitMax,
		RetryMax:     opts.RetryMax,
		Backoff:      retryablehttp.DefaultBackoff,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		Logger:       leveledLogger{log.WithComponent("datasource")},
	}
	return &HTTPFactory{client: c, userAgent: opts.UserAgent}
}

// Create returns a source sending headers on every request.
func (f *HTTPFactory) Create(headers map[string]string) (DataSource, error) {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("datasource: empty header name")
		}
		h[k] = v
	}
	return &source{client: f.client, headers: h, userAgent: f.userAgent}, nil
}

type source struct {
	client    *retryablehttp.Client
	headers   map[string]string
	userAgent string
}

func (s *source) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("datasource: parse %q: %w", uri, err)
	}
	switch u.Scheme {
	case "http", "https":
		return s.openHTTP(ctx, uri)
	case "file":
		return os.Open(u.Path)
	case "":
		return os.Open(uri)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func (s *source) openHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("datasource: build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datasource: GET %s: %w", uri, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URI: uri, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// leveledLogger routes retryablehttp logs into zerolog.
type leveledLogger struct {
	l zerolog.Logger
}

func (a leveledLogger) Error(msg string, kv ...interface{}) { a.emit(a.l.Error(), msg, kv) }
func (a leveledLogger) Warn(msg string, kv ...interface{})  { a.emit(a.l.Warn(), msg, kv) }
func (a leveledLogger) Info(msg string, kv ...interface{})  { a.emit(a.l.Debug(), msg, kv) }
func (a leveledLogger) Debug(msg string, kv ...interface{}) { a.emit(a.l.Debug(), msg, kv) }

func (a leveledLogger) emit(ev *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
