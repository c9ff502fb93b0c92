// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder holds configuration with atomic reloading capability.
// It provides thread-safe access to configuration and supports hot reloading
// from file or manual trigger.
type ConfigHolder struct {
	mu      sync.RWMutex
	current AppConfig
	epoch   uint64
	loader  *Loader
	logger  zerolog.Logger

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current: initial,
		loader:  loader,
		logger:  log.WithComponent("config"),
	}
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Epoch counts successful reloads.
func (h *ConfigHolder) Epoch() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.epoch
}

// Reload reloads configuration from file and validates it.
// If loading or validation fails, the old configuration is kept and an
// error is returned.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("new configuration rejected, keeping the current one")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.epoch++
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)
	if !cmp.Equal(oldCfg, newCfg) {
		h.notifyListeners(newCfg)
	}

	h.logger.Info().
		Str("event", "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher starts watching the config file for changes until ctx ends
// or Stop is called. Without a config file this is a no-op.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.watchMu.Lock()
	h.watcher = watcher
	h.done = make(chan struct{})
	done := h.done
	h.watchMu.Unlock()

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher, filepath.Clean(path), done)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)
	defer func() { _ = watcher.Close() }()

	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str("event", "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := h.Reload(ctx); err != nil {
				h.logger.Error().
					Err(err).
					Str("event", "config.auto_reload_failed").
					Msg("automatic config reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop closes the watcher and waits for its goroutine to exit.
func (h *ConfigHolder) Stop() {
	h.watchMu.Lock()
	watcher, done := h.watcher, h.done
	h.watcher, h.done = nil, nil
	h.watchMu.Unlock()

	if watcher == nil {
		return
	}
	_ = watcher.Close()
	<-done
}

// RegisterListener registers a channel to receive config reload notifications.
// The channel receives the new config whenever a reload changes it.
// The caller is responsible for closing the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners sends the new config to all registered listeners (non-blocking).
func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// logChanges logs the sections that differ between two configurations.
func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	sections := []struct {
		name string
		a, b any
	}{
		{"log", old.Log, newCfg.Log},
		{"buffer", old.Buffer, newCfg.Buffer},
		{"playback", old.Playback, newCfg.Playback},
		{"drm", old.DRM, newCfg.DRM},
		{"resume", old.Resume, newCfg.Resume},
		{"cache", maskCache(old.Cache), maskCache(newCfg.Cache)},
		{"telemetry", old.Telemetry, newCfg.Telemetry},
		{"network", old.Network, newCfg.Network},
	}
	for _, s := range sections {
		if diff := cmp.Diff(s.a, s.b); diff != "" {
			h.logger.Info().
				Str("event", "config.changed").
				Str("section", s.name).
				Str("diff", diff).
				Msg("config changed")
		}
	}
}

func maskCache(c CacheConfig) CacheConfig {
	if c.RedisPassword != "" {
		c.RedisPassword = "***redacted***"
	}
	return c
}
