package stereo

import (
	"fmt"
	"strings"
)

// LayoutKind is the closed set of stereo layouts a source can be decoded as.
type LayoutKind int

const (
	// LayoutAuto asks the detector to choose a layout.
	LayoutAuto LayoutKind = iota
	LayoutVR180
	LayoutVR
	LayoutLeftRight
	LayoutRightLeft
	LayoutTopBottom
	LayoutBottomTop
	LayoutAnaglyph
	LayoutDepth
)

var layoutNames = map[LayoutKind]string{
	LayoutAuto:      "",
	LayoutVR180:     "vr180",
	LayoutVR:        "vr",
	LayoutLeftRight: "left-right",
	LayoutRightLeft: "right-left",
	LayoutTopBottom: "top-bottom",
	LayoutBottomTop: "bottom-top",
	LayoutAnaglyph:  "anaglyph",
	LayoutDepth:     "depth",
}

// Layouts lists every explicit layout in attribute order.
var Layouts = []LayoutKind{
	LayoutVR180,
	LayoutVR,
	LayoutLeftRight,
	LayoutRightLeft,
	LayoutTopBottom,
	LayoutBottomTop,
	LayoutAnaglyph,
	LayoutDepth,
}

// String returns the attribute spelling of the layout, or "auto".
func (k LayoutKind) String() string {
	if k == LayoutAuto {
		return "auto"
	}
	if name, ok := layoutNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LayoutKind(%d)", int(k))
}

// IsExplicit reports whether k names a concrete layout.
func (k LayoutKind) IsExplicit() bool {
	return k > LayoutAuto && k <= LayoutDepth
}

// ParseLayoutKind parses a type attribute value. Empty and "auto" map to LayoutAuto.
//
// Parameters:
//   - s: the attribute value, case-insensitive
//
// Returns:
//   - LayoutKind: the parsed layout
//   - error: an error if s is not a known layout
func ParseLayoutKind(s string) (LayoutKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "auto" {
		return LayoutAuto, nil
	}
	for _, k := range Layouts {
		if layoutNames[k] == v {
			return k, nil
		}
	}
	return LayoutAuto, fmt.Errorf("unknown stereo layout %q", s)
}
