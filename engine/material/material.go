package material

import (
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// material is the implementation of the Material interface.
type material struct {
	name              string
	color             [4]float32
	colorMap          *stereo.ImageBuffer
	displacementMap   *stereo.GrayBuffer
	displacementScale float32
	displacementBias  float32
	flatShading       bool
	opacity           float32
	transparent       bool
	depthTest         bool
}

// Material describes how a mesh surface is shaded. Materials are immutable once
// built; a rebuilt scene carries new materials.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Color retrieves the RGBA base color, multiplied with the color map when one is set.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values in [0, 1]
	Color() [4]float32

	// Map retrieves the color texture, or nil for an untextured material.
	//
	// Returns:
	//   - *stereo.ImageBuffer: the color texture, or nil
	Map() *stereo.ImageBuffer

	// DisplacementMap retrieves the height map that offsets vertices along their
	// normals, or nil if the surface is not displaced.
	//
	// Returns:
	//   - *stereo.GrayBuffer: the displacement map, or nil
	DisplacementMap() *stereo.GrayBuffer

	// DisplacementScale retrieves the factor applied to displacement samples.
	//
	// Returns:
	//   - float32: the displacement scale
	DisplacementScale() float32

	// DisplacementBias retrieves the offset added to scaled displacement samples.
	//
	// Returns:
	//   - float32: the displacement bias
	DisplacementBias() float32

	// FlatShading reports whether lighting uses face normals instead of vertex normals.
	//
	// Returns:
	//   - bool: true for flat shading
	FlatShading() bool

	// Opacity retrieves the alpha multiplier applied when the material is transparent.
	//
	// Returns:
	//   - float32: opacity in [0, 1]
	Opacity() float32

	// Transparent reports whether fragments are alpha blended.
	//
	// Returns:
	//   - bool: true if blended
	Transparent() bool

	// DepthTest reports whether fragments are tested against and written to the depth buffer.
	//
	// Returns:
	//   - bool: true if depth tested
	DepthTest() bool

	// Displace returns the offset along the vertex normal for texture
	// coordinate (u, v). Without a displacement map the offset is 0.
	//
	// Parameters:
	//   - u, v: texture coordinate, v = 1 at the top of the map
	//
	// Returns:
	//   - float32: the distance to move the vertex along its normal
	Displace(u, v float32) float32
}

var _ Material = &material{}

// NewMaterial creates a new Material. The default is an opaque, white,
// depth-tested, smooth-shaded surface without textures.
//
// Parameters:
//   - options: a variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the constructed material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		color:     [4]float32{1, 1, 1, 1},
		opacity:   1,
		depthTest: true,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Color() [4]float32 {
	return m.color
}

func (m *material) Map() *stereo.ImageBuffer {
	return m.colorMap
}

func (m *material) DisplacementMap() *stereo.GrayBuffer {
	return m.displacementMap
}

func (m *material) DisplacementScale() float32 {
	return m.displacementScale
}

func (m *material) DisplacementBias() float32 {
	return m.displacementBias
}

func (m *material) FlatShading() bool {
	return m.flatShading
}

func (m *material) Opacity() float32 {
	return m.opacity
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) DepthTest() bool {
	return m.depthTest
}

func (m *material) Displace(u, v float32) float32 {
	if m.displacementMap == nil {
		return 0
	}
	return m.displacementMap.Sample(u, v)*m.displacementScale + m.displacementBias
}
