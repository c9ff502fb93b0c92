package tracks

// Info describes one variant for the host's track lists.
type Info struct {
	GroupIndex int     `json:"groupIndex"`
	TrackIndex int     `json:"trackIndex"`
	ID         string  `json:"id,omitempty"`
	Language   string  `json:"language,omitempty"`
	Codec      string  `json:"codec,omitempty"`
	MimeType   string  `json:"mimeType,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Bitrate    int     `json:"bitrate,omitempty"`
	FrameRate  float64 `json:"frameRate,omitempty"`
	Selected   bool    `json:"selected,omitempty"`
}

// Enumerate lists the variants of every group. Video variants the device
// cannot decode are left out; audio and text list the first variant per group.
func Enumerate(t Type, groups []Group, caps Capabilities) []Info {
	if caps == nil {
		caps = AllSupported
	}
	var out []Info
	for gi, g := range groups {
		for ti, v := range g.Variants {
			if t != TypeVideo && ti > 0 {
				break
			}
			if t == TypeVideo && !caps.Supported(v) {
				continue
			}
			out = append(out, Info{
				GroupIndex: gi,
				TrackIndex: ti,
				ID:         v.ID,
				Language:   v.Language,
				Codec:      v.Codec,
				MimeType:   v.MimeType,
				Width:      v.Width,
				Height:     v.Height,
				Bitrate:    v.Bitrate,
				FrameRate:  v.FrameRate,
			})
		}
	}
	return out
}
