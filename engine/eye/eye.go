// Package eye turns one eye of a StereoData into a textured mesh: a flat
// plane for narrow content, an inward-facing sphere sector otherwise.
package eye

import (
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/geometry"
	"github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/Carmen-Shannon/oxy-stereo/engine/model"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/nfnt/resize"
)

// Eye selects which half of a stereo pair to build.
type Eye int

const (
	Left Eye = iota
	Right
)

// String returns "left" or "right".
func (e Eye) String() string {
	if e == Right {
		return "right"
	}
	return "left"
}

// Layer returns the camera layer the eye's meshes are placed on.
func (e Eye) Layer() int {
	if e == Right {
		return common.LayerRight
	}
	return common.LayerLeft
}

const (
	// Radius of the viewing sphere, and twice the plane's half width.
	Radius float32 = 10
	// Depth is the full range of displacement applied by a depth map.
	Depth = Radius / 5

	PlaneSegments        = 256
	SphereWidthSegments  = 60
	SphereHeightSegments = 40
)

// Options tune how an eye is built.
type Options struct {
	// MaxTextureSize is the renderer's largest texture edge. Zero disables the clamp.
	MaxTextureSize int
	// Debug adds a wireframe overlay of the eye geometry.
	Debug bool
}

// Result holds the meshes built for one eye.
type Result struct {
	Mesh model.Mesh
	// Wireframe is nil unless Options.Debug was set.
	Wireframe model.Mesh
	// Texture is the eye image after any downscale.
	Texture *stereo.ImageBuffer
	// Warnings are non-fatal conditions encountered while building; each was
	// already logged.
	Warnings []error
}

// Build creates the mesh for one eye.
//
// Parameters:
//   - data: the decoded stereo photo
//   - which: the eye to build
//   - opts: texture limit and debug flag
//
// Returns:
//   - *Result: the eye mesh, optional wireframe and warnings
//   - error: an *stereo.InvalidStereoDataError if data or the eye buffer is missing
func Build(data *stereo.StereoData, which Eye, opts Options) (*Result, error) {
	if data == nil {
		return nil, &stereo.InvalidStereoDataError{Reason: "stereo data is nil"}
	}
	src := data.LeftEye
	if which == Right {
		src = data.RightEye
	}
	if src.Width() == 0 || src.Height() == 0 {
		return nil, &stereo.InvalidStereoDataError{Reason: which.String() + " eye buffer is missing or empty"}
	}

	res := &Result{}
	tex, warn := clampTexture(src, opts.MaxTextureSize)
	if warn != nil {
		slog.Warn("eye texture downscaled", "eye", which, "error", warn)
		res.Warnings = append(res.Warnings, warn)
	}
	res.Texture = tex

	g := buildGeometry(data, float32(src.Width())/float32(src.Height()))
	if data.Projection == stereo.ProjectionFisheye {
		if !nearly(data.PhiLength, math.Pi) || !nearly(data.ThetaLength, math.Pi) {
			w := &stereo.UnsupportedProjectionWarning{
				Projection:  data.Projection,
				PhiLength:   data.PhiLength,
				ThetaLength: data.ThetaLength,
			}
			slog.Warn("fisheye projection", "eye", which, "error", w)
			res.Warnings = append(res.Warnings, w)
		}
		geometry.ApplyFisheyeUV(g)
	}

	mat := material.NewMaterial(
		material.WithName(which.String()),
		material.WithMap(tex),
		material.WithDisplacement(data.Depth, -Depth, Depth/2),
		material.WithFlatShading(true),
	)
	roll, pitch := float32(data.Roll), float32(data.Pitch)
	res.Mesh = model.NewMesh(g, mat,
		model.WithName(which.String()),
		model.WithRotation(roll, math.Pi/2, pitch),
		model.WithLayer(which.Layer()),
	)

	if opts.Debug {
		line := material.NewMaterial(
			material.WithName(which.String()+"-wireframe"),
			material.WithColor([4]float32{1, 1, 1, 1}),
			material.WithOpacity(0.25),
			material.WithTransparent(true),
			material.WithDepthTest(false),
		)
		res.Wireframe = model.NewMesh(geometry.Wireframe(g), line,
			model.WithName(which.String()+"-wireframe"),
			model.WithPrimitive(model.PrimitiveLines),
			model.WithRotation(roll, math.Pi/2, pitch),
			model.WithLayer(which.Layer()),
		)
	}
	return res, nil
}

// buildGeometry picks the plane or sphere surface for the content's field of view.
func buildGeometry(data *stereo.StereoData, aspect float32) *geometry.Geometry {
	if data.PhiLength < math.Pi/2 {
		segments := 1
		if data.Depth != nil {
			segments = PlaneSegments
		}
		return geometry.NewPlane(2*Radius, 2*Radius/aspect, segments, segments).
			RotateY(-math.Pi / 2).
			Translate(Radius, 0, 0)
	}
	phi := float32(data.PhiLength)
	return geometry.NewSphereSector(Radius, SphereWidthSegments, SphereHeightSegments,
		-phi/2+float32(data.PhiOffset), phi, float32(data.ThetaStart), float32(data.ThetaLength)).
		Scale(-1, 1, 1)
}

// clampTexture downscales src so neither edge exceeds maxSize. The larger edge
// becomes exactly maxSize and the aspect ratio is kept to within one pixel.
func clampTexture(src *stereo.ImageBuffer, maxSize int) (*stereo.ImageBuffer, error) {
	w, h := src.Width(), src.Height()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return src, nil
	}
	nw, nh := maxSize, maxSize
	if w >= h {
		nh = max(1, int(math.Round(float64(h)*float64(maxSize)/float64(w))))
	} else {
		nw = max(1, int(math.Round(float64(w)*float64(maxSize)/float64(h))))
	}
	scaled := resize.Resize(uint(nw), uint(nh), src.RGBA, resize.NearestNeighbor)
	return stereo.ImageBufferFrom(scaled), &stereo.TextureSizeExceededWarning{
		Width:     w,
		Height:    h,
		NewWidth:  nw,
		NewHeight: nh,
		Max:       maxSize,
	}
}

func nearly(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
