// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/playctl/internal/playback/simplayer"
	"github.com/ManuGH/playctl/internal/playback/tracks"
	"gopkg.in/yaml.v3"
)

// mediaFile is the YAML description of a source's track groups:
//
//	duration: 2m
//	video:
//	  - tracks:
//	      - {id: v720, width: 1280, height: 720, bitrate: 3000000}
//	audio:
//	  - tracks:
//	      - {id: a-en, language: en}
type mediaFile struct {
	Duration       time.Duration  `yaml:"duration"`
	LoadRate       float64        `yaml:"loadRate"`
	BytesPerSecond int64          `yaml:"bytesPerSecond"`
	Video          []tracks.Group `yaml:"video"`
	Audio          []tracks.Group `yaml:"audio"`
	Text           []tracks.Group `yaml:"text"`
}

func (m mediaFile) groups(t tracks.Type) []tracks.Group {
	switch t {
	case tracks.TypeVideo:
		return m.Video
	case tracks.TypeAudio:
		return m.Audio
	case tracks.TypeText:
		return m.Text
	default:
		return nil
	}
}

func (m mediaFile) simMedia() simplayer.Media {
	return simplayer.Media{
		Duration:       m.Duration,
		LoadRate:       m.LoadRate,
		BytesPerSecond: m.BytesPerSecond,
		Groups: map[tracks.Type][]tracks.Group{
			tracks.TypeVideo: m.Video,
			tracks.TypeAudio: m.Audio,
			tracks.TypeText:  m.Text,
		},
	}
}

func loadMedia(path string) (mediaFile, error) {
	if path == "" {
		return defaultMedia(), nil
	}
	// #nosec G304 -- media descriptions are provided by the operator via CLI
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return mediaFile{}, fmt.Errorf("read media file: %w", err)
	}

	var m mediaFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return mediaFile{}, fmt.Errorf("parse media file %s: %w", path, err)
	}
	if m.Duration < 0 {
		return mediaFile{}, fmt.Errorf("media duration cannot be negative")
	}
	return m, nil
}

func defaultMedia() mediaFile {
	return mediaFile{
		Duration:       30 * time.Second,
		LoadRate:       4,
		BytesPerSecond: 375_000,
		Video: []tracks.Group{{Variants: []tracks.Variant{
			{ID: "v1080", Width: 1920, Height: 1080, Bitrate: 6_000_000, Codec: "avc1.640028", MimeType: "video/avc", FrameRate: 30},
			{ID: "v720", Width: 1280, Height: 720, Bitrate: 3_000_000, Codec: "avc1.64001f", MimeType: "video/avc", FrameRate: 30},
			{ID: "v480", Width: 854, Height: 480, Bitrate: 1_200_000, Codec: "avc1.64001e", MimeType: "video/avc", FrameRate: 30},
		}}},
		Audio: []tracks.Group{
			{Variants: []tracks.Variant{{ID: "a-en", Language: "en", Codec: "mp4a.40.2", MimeType: "audio/mp4a-latm"}}},
			{Variants: []tracks.Variant{{ID: "a-de", Language: "de", Codec: "mp4a.40.2", MimeType: "audio/mp4a-latm"}}},
		},
		Text: []tracks.Group{
			{Variants: []tracks.Variant{{ID: "t-en", Language: "en", MimeType: "text/vtt"}}},
			{Variants: []tracks.Variant{{ID: "t-de", Language: "de", MimeType: "text/vtt"}}},
		},
	}
}
