// Package tracks picks the audio, video and text renditions a player should render.
package tracks

import (
	"math"

	"github.com/samber/lo"
)

// Capabilities answers whether the device can decode a variant.
type Capabilities interface {
	Supported(v Variant) bool
}

type allSupported struct{}

func (allSupported) Supported(Variant) bool { return true }

// AllSupported treats every variant as decodable.
var AllSupported Capabilities = allSupported{}

const unset = -1

// Select resolves a request against the available groups for one renderer.
//
// Precedence: disabled, language, title, index, resolution, then the per-type
// default. Video falls back to auto mode (every supported track of the first
// group); anything else without a candidate disables the renderer.
func Select(t Type, groups []Group, req Request, sctx Context, caps Capabilities) Selection {
	if caps == nil {
		caps = AllSupported
	}
	if req.Kind == RequestDisabled {
		return Selection{Kind: SelectionDisable, Reason: ReasonDisabledRequest}
	}

	group, track, reason := unset, 0, ReasonNoCandidate
	switch req.Kind {
	case RequestLanguage:
		group = groupForLanguage(groups, req.Language)
		reason = ReasonLanguageMatch
	case RequestTitle:
		_, group, _ = lo.FindIndexOf(groups, func(g Group) bool {
			return len(g.Variants) > 0 && g.Variants[0].ID != "" && g.Variants[0].ID == req.Title
		})
		reason = ReasonTitleMatch
	case RequestIndex:
		if req.Index >= 0 && req.Index < len(groups) && len(groups[req.Index].Variants) > 0 {
			group = req.Index
		}
		reason = ReasonIndexMatch
	case RequestResolution:
		group, track, reason = selectResolution(groups, req.Height, sctx.ContentResolution)
	default:
		switch t {
		case TypeText:
			if !sctx.CaptioningEnabled {
				return Selection{Kind: SelectionDefault, Reason: ReasonCaptionsOff}
			}
			group = groupForDefaultLocale(groups, sctx.Locale)
			reason = ReasonCaptionsLocale
		case TypeAudio:
			group = groupForDefaultLocale(groups, sctx.Locale)
			reason = ReasonAudioLocale
		}
	}

	if group != unset {
		return Selection{Kind: SelectionOverride, Group: group, Tracks: []int{track}, Reason: reason}
	}
	if t == TypeVideo && len(groups) > 0 && len(groups[0].Variants) > 0 {
		return Selection{Kind: SelectionOverride, Group: 0, Tracks: autoTracks(groups[0], caps), Reason: ReasonAuto}
	}
	return Selection{Kind: SelectionDisable, Reason: ReasonNoCandidate}
}

// autoTracks filters the group by decoder support. An empty result keeps every track.
func autoTracks(g Group, caps Capabilities) []int {
	all := lo.Range(len(g.Variants))
	supported := lo.Filter(all, func(i int, _ int) bool {
		return caps.Supported(g.Variants[i])
	})
	if len(supported) == 0 {
		return all
	}
	return supported
}

// selectResolution prefers an exact height in any group. In content mode it
// then falls back within the first non-empty group.
func selectResolution(groups []Group, height int, contentMode bool) (int, int, Reason) {
	for gi, g := range groups {
		if _, ti, ok := lo.FindIndexOf(g.Variants, func(v Variant) bool { return v.Height == height }); ok {
			return gi, ti, ReasonExactResolution
		}
	}
	if !contentMode {
		return unset, 0, ReasonNoCandidate
	}

	for gi, g := range groups {
		if len(g.Variants) == 0 {
			continue
		}

		closest := unset
		for ti, v := range g.Variants {
			if v.Height >= height {
				continue
			}
			if closest == unset || closerBelow(v, g.Variants[closest]) {
				closest = ti
			}
		}
		if closest != unset {
			return gi, closest, ReasonClosestBelow
		}

		lowest, minHeight := 0, math.MaxInt
		for ti, v := range g.Variants {
			if v.Height < minHeight {
				lowest, minHeight = ti, v.Height
			}
		}
		return gi, lowest, ReasonLowestAvailable
	}
	return unset, 0, ReasonNoCandidate
}

// closerBelow orders candidates below the target: taller first, then higher bitrate.
func closerBelow(a, b Variant) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return a.Bitrate > b.Bitrate
}
