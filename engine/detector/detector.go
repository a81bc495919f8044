// Package detector picks the stereo layout of a source when none is given.
package detector

import (
	"log/slog"
	"strings"

	"github.com/Carmen-Shannon/oxy-stereo/engine/decoder"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// DepthPhotoSuffix marks portrait-mode photos that carry a depth map.
const DepthPhotoSuffix = "PORTRAIT.JPG"

// Reason records which rule produced a Selection.
type Reason int

const (
	ReasonExplicit Reason = iota
	ReasonDepthFilename
	ReasonVRMetadata
	ReasonDefault
)

func (r Reason) String() string {
	switch r {
	case ReasonExplicit:
		return "explicit"
	case ReasonDepthFilename:
		return "depth filename"
	case ReasonVRMetadata:
		return "VR metadata"
	default:
		return "default"
	}
}

// Selection is the decoder chosen for a source.
type Selection struct {
	Layout  stereo.LayoutKind
	Reason  Reason
	Options decoder.Options
}

// Decoder returns the decoder function for the selected layout.
func (s Selection) Decoder() decoder.Func {
	fn, _ := decoder.Lookup(s.Layout)
	return fn
}

// Detect chooses a layout. An explicit hint always wins. Otherwise a filename
// ending in PORTRAIT.JPG selects depth, a GImage:Data XMP block selects VR, and
// everything else is treated as left-right. Detect never fails.
//
// Parameters:
//   - src: the source to inspect
//   - hint: the requested layout, or stereo.LayoutAuto
//   - opts: angle and projection hints passed through to the decoder
//
// Returns:
//   - Selection: the chosen layout and why
func Detect(src stereo.Source, hint stereo.LayoutKind, opts decoder.Options) Selection {
	if hint.IsExplicit() {
		return Selection{Layout: hint, Reason: ReasonExplicit, Options: opts}
	}
	if strings.HasSuffix(strings.ToUpper(src.Name), DepthPhotoSuffix) {
		return Selection{Layout: stereo.LayoutDepth, Reason: ReasonDepthFilename, Options: opts}
	}

	xmp, err := decoder.ReadXMP(src.Data)
	if err != nil {
		slog.Debug("detector: unreadable XMP, ignoring", "source", src.Name, "error", err)
	}
	if xmp.HasRightEye() {
		return Selection{Layout: stereo.LayoutVR, Reason: ReasonVRMetadata, Options: opts}
	}

	slog.Info(`source has no "type" and no VR photo XMP metadata, assuming a "left-right" stereo image`, "source", src.Name)
	return Selection{Layout: stereo.LayoutLeftRight, Reason: ReasonDefault, Options: opts}
}
