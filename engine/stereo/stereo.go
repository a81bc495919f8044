// Package stereo holds the normalized representation every decoder produces and
// every geometry builder consumes.
package stereo

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

// Projection selects how eye textures are mapped onto sphere geometry.
type Projection int

const (
	// ProjectionEquirectangular maps u/v linearly to longitude/latitude.
	ProjectionEquirectangular Projection = iota
	// ProjectionFisheye maps u/v from each vertex direction, for dual-fisheye captures.
	ProjectionFisheye
)

// String returns the attribute spelling of the projection.
func (p Projection) String() string {
	if p == ProjectionFisheye {
		return "fisheye"
	}
	return "equirectangular"
}

// ParseProjection parses a projection attribute value. An empty string selects
// the equirectangular default.
//
// Parameters:
//   - s: the attribute value, case-insensitive
//
// Returns:
//   - Projection: the parsed projection
//   - error: an error if the value is not a known projection
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equirectangular":
		return ProjectionEquirectangular, nil
	case "fisheye":
		return ProjectionFisheye, nil
	default:
		return ProjectionEquirectangular, fmt.Errorf("unknown projection %q", s)
	}
}

// ImageBuffer is an RGBA eye image.
type ImageBuffer struct {
	*image.RGBA
}

// NewImageBuffer allocates a transparent-black buffer of the given size.
func NewImageBuffer(width, height int) *ImageBuffer {
	return &ImageBuffer{RGBA: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// ImageBufferFrom copies any image into a zero-origin RGBA buffer.
//
// Parameters:
//   - src: the image to copy
//
// Returns:
//   - *ImageBuffer: the copied buffer
func ImageBufferFrom(src image.Image) *ImageBuffer {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &ImageBuffer{RGBA: dst}
}

// Width returns the buffer width in pixels. A nil buffer has width 0.
func (b *ImageBuffer) Width() int {
	if b == nil || b.RGBA == nil {
		return 0
	}
	return b.Rect.Dx()
}

// Height returns the buffer height in pixels. A nil buffer has height 0.
func (b *ImageBuffer) Height() int {
	if b == nil || b.RGBA == nil {
		return 0
	}
	return b.Rect.Dy()
}

// GrayBuffer is a single channel displacement map.
type GrayBuffer struct {
	*image.Gray
}

// GrayBufferFrom converts any image into a zero-origin grayscale buffer.
func GrayBufferFrom(src image.Image) *GrayBuffer {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &GrayBuffer{Gray: dst}
}

// Width returns the buffer width in pixels. A nil buffer has width 0.
func (g *GrayBuffer) Width() int {
	if g == nil || g.Gray == nil {
		return 0
	}
	return g.Rect.Dx()
}

// Height returns the buffer height in pixels. A nil buffer has height 0.
func (g *GrayBuffer) Height() int {
	if g == nil || g.Gray == nil {
		return 0
	}
	return g.Rect.Dy()
}

// Sample returns the normalized value at texture coordinate (u, v), with v = 1
// at the top row. Coordinates are clamped to the edge.
func (g *GrayBuffer) Sample(u, v float32) float32 {
	w, h := g.Width(), g.Height()
	if w == 0 || h == 0 {
		return 0
	}
	x := int(u * float32(w))
	y := int((1 - v) * float32(h))
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	return float32(g.Pix[y*g.Stride+x]) / 255
}

// StereoData is the decoded, layout-independent form of a stereo photo.
type StereoData struct {
	LeftEye  *ImageBuffer
	RightEye *ImageBuffer
	// Depth is present only for color+depth sources.
	Depth *GrayBuffer

	// PhiLength is the horizontal angular extent in radians. Values below π/2
	// are displayed on a flat plane.
	PhiLength float64
	// PhiOffset turns the content around the vertical axis: the angle of its
	// horizontal center from straight ahead, in radians.
	PhiOffset float64
	// ThetaStart is the polar angle where the content starts, in radians.
	ThetaStart float64
	// ThetaLength is the vertical angular extent in radians.
	ThetaLength float64

	Projection Projection

	// Roll and Pitch correct the orientation of both eyes, in radians.
	Roll  float64
	Pitch float64
}

// Placeholder returns the data rendered when no source is configured: two
// 10x10 black eyes and zero field of view.
func Placeholder() *StereoData {
	return &StereoData{
		LeftEye:  blackBuffer(10, 10),
		RightEye: blackBuffer(10, 10),
	}
}

func blackBuffer(width, height int) *ImageBuffer {
	b := NewImageBuffer(width, height)
	draw.Draw(b.RGBA, b.Bounds(), &image.Uniform{C: color.RGBA{A: 0xff}}, image.Point{}, draw.Src)
	return b
}

// Validate checks the invariants the geometry builder relies on.
//
// Returns:
//   - error: an *InvalidStereoDataError describing the first violation, or nil
func (d *StereoData) Validate() error {
	switch {
	case d == nil:
		return &InvalidStereoDataError{Reason: "stereo data is nil"}
	case d.LeftEye.Width() == 0 || d.LeftEye.Height() == 0:
		return &InvalidStereoDataError{Reason: "left eye buffer is missing or empty"}
	case d.RightEye.Width() == 0 || d.RightEye.Height() == 0:
		return &InvalidStereoDataError{Reason: "right eye buffer is missing or empty"}
	case d.PhiLength < 0 || d.PhiLength > 2*math.Pi+1e-9:
		return &InvalidStereoDataError{Reason: fmt.Sprintf("phiLength %.4f outside [0, 2π]", d.PhiLength)}
	case d.ThetaLength < 0 || d.ThetaLength > math.Pi+1e-9:
		return &InvalidStereoDataError{Reason: fmt.Sprintf("thetaLength %.4f outside [0, π]", d.ThetaLength)}
	}
	return nil
}

// ClampFieldOfView forces the angular extents into their valid ranges.
func (d *StereoData) ClampFieldOfView() {
	d.PhiLength = math.Min(math.Max(d.PhiLength, 0), 2*math.Pi)
	d.ThetaLength = math.Min(math.Max(d.ThetaLength, 0), math.Pi)
	d.ThetaStart = math.Min(math.Max(d.ThetaStart, 0), math.Pi-d.ThetaLength)
}

// Normalize resamples the depth map to the left eye's dimensions when they differ.
func (d *StereoData) Normalize() {
	if d.Depth == nil || d.LeftEye == nil {
		return
	}
	w, h := d.LeftEye.Width(), d.LeftEye.Height()
	if d.Depth.Width() == w && d.Depth.Height() == h {
		return
	}
	d.Depth = GrayBufferFrom(transform.Resize(d.Depth.Gray, w, h, transform.Linear))
}

// Source is an encoded image together with the name it was loaded from. The
// name is used for filename heuristics and error messages.
type Source struct {
	Name string
	Data []byte
}
