package material

import (
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithColor is an option builder that sets the RGBA base color of the material.
//
// Parameters:
//   - color: the base color as RGBA values in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.color = color
	}
}

// WithMap is an option builder that sets the color texture.
//
// Parameters:
//   - tex: the color texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the map option to a material
func WithMap(tex *stereo.ImageBuffer) MaterialBuilderOption {
	return func(m *material) {
		m.colorMap = tex
	}
}

// WithDisplacement is an option builder that sets the displacement map and how
// its samples are converted into distances.
//
// Parameters:
//   - dm: the height map, nil disables displacement
//   - scale: factor applied to each sample
//   - bias: offset added after scaling
//
// Returns:
//   - MaterialBuilderOption: a function that applies the displacement option to a material
func WithDisplacement(dm *stereo.GrayBuffer, scale, bias float32) MaterialBuilderOption {
	return func(m *material) {
		m.displacementMap = dm
		m.displacementScale = scale
		m.displacementBias = bias
	}
}

// WithFlatShading is an option builder that toggles face-normal lighting.
//
// Parameters:
//   - flat: true for flat shading
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shading option to a material
func WithFlatShading(flat bool) MaterialBuilderOption {
	return func(m *material) {
		m.flatShading = flat
	}
}

// WithOpacity is an option builder that sets the opacity and marks the material
// transparent when it is below 1.
//
// Parameters:
//   - opacity: alpha multiplier in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the opacity option to a material
func WithOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.opacity = min(max(opacity, 0), 1)
		if m.opacity < 1 {
			m.transparent = true
		}
	}
}

// WithTransparent is an option builder that toggles alpha blending.
//
// Parameters:
//   - transparent: true to blend fragments
//
// Returns:
//   - MaterialBuilderOption: a function that applies the transparency option to a material
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

// WithDepthTest is an option builder that toggles depth testing.
//
// Parameters:
//   - enabled: false to draw regardless of depth
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth test option to a material
func WithDepthTest(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.depthTest = enabled
	}
}
