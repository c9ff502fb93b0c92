// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// playctl drives the playback session controller from the command line.
//
// Usage:
//
//	playctl validate --config playctl.yaml
//	playctl config init --out playctl.yaml
//	playctl select --tracks media.yaml --type video --request resolution:720
//	playctl simulate --config playctl.yaml --uri https://cdn.example.com/live.m3u8
//	playctl resume show --config playctl.yaml --uri https://cdn.example.com/live.m3u8
//	playctl resume verify --config playctl.yaml
//
// Exit codes:
//   - 0: success
//   - 1: command failed (invalid config, bad flags, runtime error)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "playctl",
		Short:         "Native playback session controller",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Reconfigure(log.Config{Level: opts.logLevel, Output: cmd.ErrOrStderr()})
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("PLAYCTL_CONFIG"), "path to YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	root.AddCommand(
		newValidateCmd(opts),
		newConfigCmd(opts),
		newSelectCmd(),
		newSimulateCmd(opts),
		newResumeCmd(opts),
	)
	return root
}

// loadConfig loads the configured file and reapplies logging from it
// unless --log-level overrides the level.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.AppConfig, *config.Loader, error) {
	loader := config.NewLoader(opts.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return cfg, loader, err
	}
	logCfg := cfg.LogOptions()
	if opts.logLevel != "" {
		logCfg.Level = opts.logLevel
	}
	logCfg.Output = cmd.ErrOrStderr()
	log.Reconfigure(logCfg)
	return cfg, loader, nil
}
