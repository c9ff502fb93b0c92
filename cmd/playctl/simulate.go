// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ManuGH/playctl/internal/cache"
	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/playback/datasource"
	"github.com/ManuGH/playctl/internal/playback/events"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/ManuGH/playctl/internal/playback/session"
	"github.com/ManuGH/playctl/internal/playback/simplayer"
	"github.com/ManuGH/playctl/internal/telemetry"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	uri          string
	mediaPath    string
	duration     time.Duration
	tick         time.Duration
	seek         time.Duration
	contentStart time.Duration
	paused       bool
	exitOnEnd    bool
	watch        bool
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a playback session against the simulated player and print events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.uri == "" {
				return errors.New("--uri is required")
			}
			if opts.tick <= 0 {
				return errors.New("--tick must be positive")
			}
			cfg, loader, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			media, err := loadMedia(opts.mediaPath)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), cfg, loader, media, opts)
		},
	}
	cmd.Flags().StringVar(&opts.uri, "uri", "", "source URI")
	cmd.Flags().StringVar(&opts.mediaPath, "media", "", "YAML track list the simulated player pretends to play")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "wall-clock run time")
	cmd.Flags().DurationVar(&opts.tick, "tick", 100*time.Millisecond, "simulated player clock step")
	cmd.Flags().DurationVar(&opts.seek, "seek", 0, "initial seek position")
	cmd.Flags().DurationVar(&opts.contentStart, "content-start", -1, "content start time enabling content-driven resolution (negative disables)")
	cmd.Flags().BoolVar(&opts.paused, "paused", false, "start paused")
	cmd.Flags().BoolVar(&opts.exitOnEnd, "exit-on-end", true, "stop when playback ends")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "hot-reload the config file and apply buffer changes")
	return cmd
}

// eventLine is one JSON line of simulator output.
type eventLine struct {
	Time  time.Time    `json:"time"`
	Event string       `json:"event"`
	Data  events.Event `json:"data,omitempty"`
}

// jsonSink encodes events as JSON lines. The dispatcher delivers from one
// goroutine; the mutex guards against late writes after shutdown.
type jsonSink struct {
	mu    sync.Mutex
	enc   *json.Encoder
	onEnd func()
}

func (s *jsonSink) Deliver(e events.Event) {
	s.mu.Lock()
	_ = s.enc.Encode(eventLine{Time: time.Now().UTC(), Event: e.Name(), Data: e})
	s.mu.Unlock()
	if _, ok := e.(events.End); ok && s.onEnd != nil {
		s.onEnd()
	}
}

func runSimulation(ctx context.Context, out io.Writer, cfg config.AppConfig, loader *config.Loader, media mediaFile, opts *simulateOptions) error {
	logger := log.WithComponent("simulate")

	tp, err := telemetry.NewProvider(ctx, cfg.TelemetryOptions(Version))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	store, err := resume.NewStore(ctx, cfg.ResumeOptions())
	if err != nil {
		return fmt.Errorf("resume store: %w", err)
	}
	defer func() { _ = store.Close() }()

	caches := cache.NewRegistry(cfg.CacheOptions())
	defer caches.Close()

	drmSource, err := cfg.DRMSource()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	sink := &jsonSink{enc: json.NewEncoder(out)}
	if opts.exitOnEnd {
		sink.onEnd = cancel
	}

	sources := datasource.NewHTTPFactory(cfg.HTTPOptions())
	players := &simplayer.Factory{Media: media.simMedia(), Tick: opts.tick}
	s, err := session.New(session.Options{
		Players:           players,
		Sink:              sink,
		DataSources:       sources,
		Caches:            caches,
		DRM:               &simplayer.DRM{Level: 28},
		DRMPolicy:         cfg.DRMPolicy(),
		Prober:            datasource.NewProber(sources, nil),
		Resume:            store,
		Focus:             &simplayer.Focus{},
		Buffer:            cfg.Buffer,
		MinLoadRetryCount: cfg.Playback.MinLoadRetryCount,
		ProgressInterval:  cfg.Playback.ProgressInterval,
		BandwidthInterval: cfg.Playback.BandwidthInterval,
		Locale:            cfg.Playback.Locale,
		CaptioningEnabled: cfg.Playback.Captions,
	})
	if err != nil {
		return err
	}

	applyPlayback(s, cfg)
	s.SetDRM(drmSource)
	s.SetContentStartTime(opts.contentStart)
	s.SetPaused(opts.paused)
	s.AttachRenderTarget(&simplayer.Surface{})
	s.SetSource(session.Source{URI: opts.uri})
	if opts.seek > 0 {
		s.Seek(opts.seek)
	}

	if opts.watch && loader.Path() != "" {
		holder := config.NewConfigHolder(cfg, loader)
		updates := make(chan config.AppConfig, 1)
		holder.RegisterListener(updates)
		if err := holder.StartWatcher(runCtx); err != nil {
			return err
		}
		defer holder.Stop()
		go forwardReloads(runCtx, s, updates)
	}

	logger.Info().
		Str(log.FieldSessionID, s.ID()).
		Str(log.FieldSourceURI, opts.uri).
		Dur("duration", opts.duration).
		Msg("simulation started")

	if err := s.Run(runCtx); err != nil {
		return err
	}

	cur, err := store.Get(context.WithoutCancel(ctx), opts.uri)
	if err != nil {
		return fmt.Errorf("read resume cursor: %w", err)
	}
	ev := logger.Info().Str(log.FieldSessionID, s.ID()).Str("final_state", string(s.State()))
	if cur != nil {
		ev = ev.Dur("resume_position", cur.Cursor.Position)
	}
	ev.Msg("simulation finished")
	return nil
}

// applyPlayback pushes the playback section into a session.
func applyPlayback(s *session.Session, cfg config.AppConfig) {
	s.SetRepeat(cfg.RepeatMode())
	s.SetRate(cfg.Playback.Rate)
	s.SetVolume(cfg.Playback.Volume)
	s.SetMaxBitrate(cfg.Playback.MaxBitrate)
	s.SetReportBandwidth(cfg.Playback.ReportBandwidth)
	s.SetPlayInBackground(cfg.Playback.PlayInBackground)
	s.SetDisableFocus(cfg.Playback.DisableFocus)
	s.SetProgressInterval(cfg.Playback.ProgressInterval)
	s.SetLocale(cfg.Playback.Locale)
	s.SetCaptioning(cfg.Playback.Captions)
}

// forwardReloads applies reloaded configuration to a running session until
// ctx ends. Buffer and retry changes rebuild the player.
func forwardReloads(ctx context.Context, s *session.Session, updates <-chan config.AppConfig) {
	logger := log.WithComponent("simulate")
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-updates:
			if err := s.SetBufferConfig(cfg.Buffer); err != nil {
				logger.Warn().Err(err).Msg("reloaded buffer config rejected")
			}
			s.SetMinLoadRetryCount(cfg.Playback.MinLoadRetryCount)
			applyPlayback(s, cfg)
			logger.Info().Str("event", "config.applied").Msg("applied reloaded configuration")
		}
	}
}
