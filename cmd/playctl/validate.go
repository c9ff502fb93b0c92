// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, then print the effective result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				source := opts.configPath
				if source == "" {
					source = "environment"
				}
				return fmt.Errorf("configuration error in %s: %w", source, err)
			}
			if quiet {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only ok instead of the effective configuration")
	return cmd
}
