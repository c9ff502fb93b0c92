// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package datasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/cenkalti/backoff/v5"
	"gopkg.in/yaml.v3"
)

const (
	// ProbeTimeout bounds each manifest fetch attempt.
	ProbeTimeout = 3 * time.Second
	probeTries   = 2
	maxManifest  = 4 << 20
)

// ManifestProber reads the video variants advertised by a source's manifest.
type ManifestProber interface {
	Probe(ctx context.Context, uri string, headers map[string]string) ([]tracks.Variant, error)
}

// ParseFunc turns a fetched manifest into video variants.
type ParseFunc func(body []byte) ([]tracks.Variant, error)

// Prober fetches manifests through a Factory and parses them with a ParseFunc.
type Prober struct {
	factory Factory
	parse   ParseFunc
	timeout time.Duration
}

// NewProber creates a prober. A nil parse uses ParseTrackList.
func NewProber(factory Factory, parse ParseFunc) *Prober {
	if parse == nil {
		parse = ParseTrackList
	}
	return &Prober{factory: factory, parse: parse, timeout: ProbeTimeout}
}

// Probe fetches and parses uri, retrying once. Parse failures are not retried.
func (p *Prober) Probe(ctx context.Context, uri string, headers map[string]string) ([]tracks.Variant, error) {
	ds, err := p.factory.Create(headers)
	if err != nil {
		return nil, err
	}
	return backoff.Retry(ctx, func() ([]tracks.Variant, error) {
		body, err := p.fetch(ctx, ds, uri)
		if err != nil {
			return nil, err
		}
		variants, err := p.parse(body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("parse manifest: %w", err))
		}
		return variants, nil
	},
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(probeTries),
	)
}

func (p *Prober) fetch(ctx context.Context, ds DataSource, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rc, err := ds.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(io.LimitReader(rc, maxManifest+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxManifest {
		return nil, backoff.Permanent(errors.New("manifest exceeds size limit"))
	}
	return body, nil
}

// ParseTrackList reads a YAML or JSON document of the form {tracks: [...]}.
func ParseTrackList(body []byte) ([]tracks.Variant, error) {
	dec := yaml.NewDecoder(bytes.NewReader(body))
	dec.KnownFields(true)
	var g tracks.Group
	if err := dec.Decode(&g); err != nil {
		return nil, err
	}
	if len(g.Variants) == 0 {
		return nil, errors.New("manifest lists no tracks")
	}
	return g.Variants, nil
}
