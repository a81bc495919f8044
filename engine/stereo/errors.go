package stereo

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("decode failed")
	// ErrInvalidStereoData matches every *InvalidStereoDataError.
	ErrInvalidStereoData = errors.New("invalid stereo data")
	// ErrUnsupportedProjection matches every *UnsupportedProjectionWarning.
	ErrUnsupportedProjection = errors.New("unsupported projection")
	// ErrTextureSizeExceeded matches every *TextureSizeExceededWarning.
	ErrTextureSizeExceeded = errors.New("texture size exceeded")
)

// DecodeError reports a source that could not be decoded with the selected layout.
type DecodeError struct {
	Layout LayoutKind
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.Source, e.Layout, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// NewDecodeError wraps err as a DecodeError.
func NewDecodeError(layout LayoutKind, source string, err error) *DecodeError {
	return &DecodeError{Layout: layout, Source: source, Err: err}
}

// InvalidStereoDataError reports decoder output that breaks the StereoData invariants.
type InvalidStereoDataError struct {
	Reason string
}

func (e *InvalidStereoDataError) Error() string {
	return "invalid stereo data: " + e.Reason
}

func (e *InvalidStereoDataError) Is(target error) bool { return target == ErrInvalidStereoData }

// UnsupportedProjectionWarning is a non-fatal notice that the requested
// projection is poorly supported for the content's field of view.
type UnsupportedProjectionWarning struct {
	Projection  Projection
	PhiLength   float64
	ThetaLength float64
}

func (w *UnsupportedProjectionWarning) Error() string {
	return fmt.Sprintf("%s projection is only well supported for 180° images (phi %.3f, theta %.3f)",
		w.Projection, w.PhiLength, w.ThetaLength)
}

func (w *UnsupportedProjectionWarning) Is(target error) bool { return target == ErrUnsupportedProjection }

// TextureSizeExceededWarning is a non-fatal notice that an eye image was
// downscaled to fit the renderer's maximum texture size.
type TextureSizeExceededWarning struct {
	Width, Height       int
	NewWidth, NewHeight int
	Max                 int
}

func (w *TextureSizeExceededWarning) Error() string {
	return fmt.Sprintf("image size (%dx%d) exceeds max texture size (%dx%d), resized to %dx%d",
		w.Width, w.Height, w.Max, w.Max, w.NewWidth, w.NewHeight)
}

func (w *TextureSizeExceededWarning) Is(target error) bool { return target == ErrTextureSizeExceeded }
