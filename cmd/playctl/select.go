// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"

	"github.com/ManuGH/playctl/internal/playback/tracks"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type selectOptions struct {
	mediaPath   string
	trackType   string
	request     string
	contentMode bool
	locale      string
	captions    bool
}

type selectOutput struct {
	Type      tracks.Type          `json:"type"`
	Request   string               `json:"request"`
	Kind      tracks.SelectionKind `json:"kind"`
	Group     *int                 `json:"group,omitempty"`
	Tracks    []int                `json:"tracks,omitempty"`
	Reason    tracks.Reason        `json:"reason"`
	Available []tracks.Info        `json:"available"`
}

func newSelectCmd() *cobra.Command {
	opts := &selectOptions{}
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run the track selector offline against a YAML track list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := tracks.ParseType(opts.trackType)
			if err != nil {
				return err
			}
			req, err := tracks.ParseRequest(opts.request)
			if err != nil {
				return err
			}
			media, err := loadMedia(opts.mediaPath)
			if err != nil {
				return err
			}

			out := runSelect(t, media.groups(t), req, tracks.Context{
				ContentResolution: opts.contentMode,
				CaptioningEnabled: opts.captions,
				Locale:            opts.locale,
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&opts.mediaPath, "tracks", "", "YAML track list (built-in sample media when empty)")
	cmd.Flags().StringVar(&opts.trackType, "type", "video", "track type: video, audio or text")
	cmd.Flags().StringVar(&opts.request, "request", "", "track request, e.g. resolution:720, language:de, index:1, title:a-en, disabled, default")
	cmd.Flags().BoolVar(&opts.contentMode, "content-mode", false, "resolve resolution requests against content-driven variants")
	cmd.Flags().StringVar(&opts.locale, "locale", "en", "device locale")
	cmd.Flags().BoolVar(&opts.captions, "captions", false, "system captioning is enabled")
	return cmd
}

func runSelect(t tracks.Type, groups []tracks.Group, req tracks.Request, sctx tracks.Context) selectOutput {
	sel := tracks.Select(t, groups, req, sctx, tracks.AllSupported)
	out := selectOutput{
		Type:    t,
		Request: req.String(),
		Kind:    sel.Kind,
		Reason:  sel.Reason,
	}
	if sel.Kind == tracks.SelectionOverride {
		out.Group = lo.ToPtr(sel.Group)
		out.Tracks = sel.Tracks
	}
	out.Available = lo.Map(tracks.Enumerate(t, groups, tracks.AllSupported), func(info tracks.Info, _ int) tracks.Info {
		info.Selected = sel.Kind == tracks.SelectionOverride &&
			info.GroupIndex == sel.Group && lo.Contains(sel.Tracks, info.TrackIndex)
		return info
	})
	return out
}
