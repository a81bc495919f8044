// Package decoder turns encoded stereo photos into stereo.StereoData. There is
// one decoder function per stereo.LayoutKind, looked up through a fixed table.
package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// Options carries the hints a decoder may need beyond the raw bytes.
type Options struct {
	// Angle is the horizontal field of view in degrees. Zero selects the
	// decoder's default.
	Angle float64
	// Projection is the UV mapping requested for sphere geometry.
	Projection stereo.Projection
}

// Func decodes a source for one layout.
//
// Parameters:
//   - ctx: cancels the decode between stages
//   - src: the source bytes and name
//   - opts: layout hints
//
// Returns:
//   - *stereo.StereoData: the decoded data
//   - error: a *stereo.DecodeError when the source is unreadable or invalid for the layout
type Func func(ctx context.Context, src stereo.Source, opts Options) (*stereo.StereoData, error)

var table = map[stereo.LayoutKind]Func{
	stereo.LayoutVR180:     decodeVR,
	stereo.LayoutVR:        decodeVR,
	stereo.LayoutLeftRight: stereoDecoder(stereo.LayoutLeftRight),
	stereo.LayoutRightLeft: stereoDecoder(stereo.LayoutRightLeft),
	stereo.LayoutTopBottom: stereoDecoder(stereo.LayoutTopBottom),
	stereo.LayoutBottomTop: stereoDecoder(stereo.LayoutBottomTop),
	stereo.LayoutAnaglyph:  decodeAnaglyph,
	stereo.LayoutDepth:     decodeDepth,
}

// Lookup returns the decoder registered for kind.
func Lookup(kind stereo.LayoutKind) (Func, bool) {
	fn, ok := table[kind]
	return fn, ok
}

// Decode runs the decoder for kind and normalizes its output: field of view is
// clamped, the depth map is resampled to the eye size, and the result is
// validated.
//
// Parameters:
//   - ctx: cancels the decode
//   - kind: an explicit layout
//   - src: the source to decode
//   - opts: layout hints
//
// Returns:
//   - *stereo.StereoData: the normalized data
//   - error: a *stereo.DecodeError or *stereo.InvalidStereoDataError
func Decode(ctx context.Context, kind stereo.LayoutKind, src stereo.Source, opts Options) (*stereo.StereoData, error) {
	fn, ok := Lookup(kind)
	if !ok {
		return nil, stereo.NewDecodeError(kind, src.Name, fmt.Errorf("no decoder for layout %s", kind))
	}
	if err := ctx.Err(); err != nil {
		return nil, stereo.NewDecodeError(kind, src.Name, err)
	}
	if len(src.Data) == 0 {
		return nil, stereo.NewDecodeError(kind, src.Name, errors.New("source is empty"))
	}

	data, err := fn(ctx, src, opts)
	if err != nil {
		var decodeErr *stereo.DecodeError
		var invalidErr *stereo.InvalidStereoDataError
		if errors.As(err, &decodeErr) || errors.As(err, &invalidErr) {
			return nil, err
		}
		return nil, stereo.NewDecodeError(kind, src.Name, err)
	}

	data.ClampFieldOfView()
	data.Normalize()
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// Placeholder returns the data used when no source is configured.
func Placeholder() *stereo.StereoData {
	return stereo.Placeholder()
}
