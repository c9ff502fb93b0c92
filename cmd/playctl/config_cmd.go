// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigEnvCmd(opts))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration atomically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			if err := config.WriteDefault(out, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// newConfigEnvCmd lists PLAYCTL_* variables that no setting reads.
func newConfigEnvCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Report PLAYCTL_* environment variables that are not recognized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loader, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			unknown := loader.UnknownEnvKeys()
			if len(unknown) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "all PLAYCTL_* variables recognized")
				return err
			}
			for _, key := range unknown {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return fmt.Errorf("%d unrecognized environment variable(s)", len(unknown))
		},
	}
}
