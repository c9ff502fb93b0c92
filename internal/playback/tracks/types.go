package tracks

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
	TypeText  Type = "text"
)

// Types lists every renderer type in enumeration order.
var Types = []Type{TypeVideo, TypeAudio, TypeText}

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeVideo:
		return TypeVideo, nil
	case TypeAudio:
		return TypeAudio, nil
	case TypeText:
		return TypeText, nil
	default:
		return "", fmt.Errorf("unknown track type %q (supported: video, audio, text)", s)
	}
}

// Variant is one selectable rendition inside a group.
type Variant struct {
	ID        string  `yaml:"id" json:"id"`
	Width     int     `yaml:"width" json:"width"`
	Height    int     `yaml:"height" json:"height"`
	Bitrate   int     `yaml:"bitrate" json:"bitrate"`
	Codec     string  `yaml:"codec" json:"codec"`
	MimeType  string  `yaml:"mimeType" json:"mimeType"`
	Language  string  `yaml:"language" json:"language"`
	FrameRate float64 `yaml:"frameRate" json:"frameRate"`
}

// Group is an ordered set of interchangeable variants.
type Group struct {
	Variants []Variant `yaml:"tracks" json:"tracks"`
}

type RequestKind string

const (
	RequestUnset      RequestKind = ""
	RequestDisabled   RequestKind = "disabled"
	RequestLanguage   RequestKind = "language"
	RequestTitle      RequestKind = "title"
	RequestIndex      RequestKind = "index"
	RequestResolution RequestKind = "resolution"
	RequestDefault    RequestKind = "default"
)

// Request is a host track preference. Only the field matching Kind is meaningful.
type Request struct {
	Kind     RequestKind
	Language string
	Title    string
	Index    int
	Height   int
}

func Disabled() Request             { return Request{Kind: RequestDisabled} }
func Language(code string) Request  { return Request{Kind: RequestLanguage, Language: code} }
func Title(id string) Request       { return Request{Kind: RequestTitle, Title: id} }
func Index(n int) Request           { return Request{Kind: RequestIndex, Index: n} }
func Resolution(height int) Request { return Request{Kind: RequestResolution, Height: height} }
func Default() Request              { return Request{Kind: RequestDefault} }

// ParseRequest reads "kind" or "kind:value", e.g. "resolution:720" or "language:en".
func ParseRequest(s string) (Request, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Request{}, nil
	}
	kind, value, _ := strings.Cut(s, ":")
	switch RequestKind(strings.ToLower(kind)) {
	case RequestDisabled:
		return Disabled(), nil
	case RequestDefault:
		return Default(), nil
	case RequestLanguage:
		if value == "" {
			return Request{}, fmt.Errorf("language request needs a code")
		}
		return Language(value), nil
	case RequestTitle:
		if value == "" {
			return Request{}, fmt.Errorf("title request needs an id")
		}
		return Title(value), nil
	case RequestIndex, RequestResolution:
		n, err := strconv.Atoi(value)
		if err != nil {
			return Request{}, fmt.Errorf("%s request needs an integer: %w", kind, err)
		}
		if RequestKind(strings.ToLower(kind)) == RequestIndex {
			return Index(n), nil
		}
		return Resolution(n), nil
	default:
		return Request{}, fmt.Errorf("unknown track request %q", s)
	}
}

func (r Request) String() string {
	switch r.Kind {
	case RequestUnset:
		return "unset"
	case RequestLanguage:
		return "language:" + r.Language
	case RequestTitle:
		return "title:" + r.Title
	case RequestIndex:
		return "index:" + strconv.Itoa(r.Index)
	case RequestResolution:
		return "resolution:" + strconv.Itoa(r.Height)
	default:
		return string(r.Kind)
	}
}

type SelectionKind string

const (
	SelectionDisable  SelectionKind = "disable"
	SelectionOverride SelectionKind = "override"
	SelectionDefault  SelectionKind = "default"
)

type Reason string

const (
	ReasonDisabledRequest Reason = "disabled_request"
	ReasonLanguageMatch   Reason = "language_match"
	ReasonTitleMatch      Reason = "title_match"
	ReasonIndexMatch      Reason = "index_match"
	ReasonExactResolution Reason = "exact_resolution"
	ReasonClosestBelow    Reason = "closest_below"
	ReasonLowestAvailable Reason = "lowest_available"
	ReasonCaptionsLocale  Reason = "captions_locale"
	ReasonCaptionsOff     Reason = "captions_off"
	ReasonAudioLocale     Reason = "audio_locale"
	ReasonAuto            Reason = "auto"
	ReasonNoCandidate     Reason = "no_candidate"
)

// Selection is the outcome for one renderer.
// Group and Tracks are only set for SelectionOverride.
type Selection struct {
	Kind   SelectionKind
	Group  int
	Tracks []int
	Reason Reason
}

// Context carries the device and playback facts selection depends on.
type Context struct {
	ContentResolution bool
	CaptioningEnabled bool
	Locale            string
}
