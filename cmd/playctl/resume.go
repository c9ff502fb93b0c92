// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ManuGH/playctl/internal/persistence/sqlite"
	"github.com/ManuGH/playctl/internal/playback/resume"
	"github.com/spf13/cobra"
)

func newResumeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Inspect the persisted resume cursors",
	}
	cmd.AddCommand(newResumeShowCmd(root), newResumeVerifyCmd(root))
	return cmd
}

func newResumeShowCmd(root *rootOptions) *cobra.Command {
	var uri string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored cursor for a source URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uri == "" {
				return errors.New("--uri is required")
			}
			cfg, _, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			store, err := resume.NewStore(cmd.Context(), cfg.ResumeOptions())
			if err != nil {
				return fmt.Errorf("resume store: %w", err)
			}
			defer func() { _ = store.Close() }()

			entry, err := store.Get(cmd.Context(), uri)
			if err != nil {
				return err
			}
			if entry == nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no cursor")
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "source URI")
	return cmd
}

func newResumeVerifyCmd(root *rootOptions) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run an integrity check on the sqlite resume database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cfg.Resume.Backend != resume.BackendSqlite || cfg.Resume.Dir == "" {
				return errors.New("resume verify requires the sqlite backend with resume.dir set")
			}
			mode := sqlite.VerifyQuick
			if full {
				mode = sqlite.VerifyFull
			}
			path := filepath.Join(cfg.Resume.Dir, "resume.sqlite")
			issues, err := sqlite.VerifyIntegrity(cmd.Context(), path, mode)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				for _, issue := range issues {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), issue)
				}
				return fmt.Errorf("%s: %d integrity issue(s)", path, len(issues))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "run a full integrity_check instead of quick_check")
	return cmd
}
