package material

import (
	scenematerial "github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/bind_group_provider"
	"github.com/chewxy/math32"
)

// material is the implementation of the Material interface.
type material struct {
	name              string
	source            scenematerial.Material
	lines             bool
	pipelineKey       string
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material is the GPU side of a scene material: the pipeline it draws with and
// the bind group holding its uniform, color map and displacement map.
//
// The scene material stays the source of truth. Uniform re-reads it on every
// call so opacity or color changes show up on the next frame.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Source retrieves the scene material this GPU material mirrors.
	//
	// Returns:
	//   - scenematerial.Material: the scene material
	Source() scenematerial.Material

	// Lines reports whether the material is drawn as a line list.
	//
	// Returns:
	//   - bool: true for wireframe meshes
	Lines() bool

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Uniform builds the mesh uniform for a draw with the given model matrix.
	//
	// Parameters:
	//   - modelMatrix: the mesh's column-major model matrix
	//
	// Returns:
	//   - GPUMeshUniform: the uniform ready to marshal
	Uniform(modelMatrix [16]float32) GPUMeshUniform

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{}
	for _, opt := range options {
		opt(m)
	}
	if m.name == "" && m.source != nil {
		m.name = m.source.Name()
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Source() scenematerial.Material {
	return m.source
}

func (m *material) Lines() bool {
	return m.lines
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}

func (m *material) Uniform(modelMatrix [16]float32) GPUMeshUniform {
	u := GPUMeshUniform{
		Model: modelMatrix,
		Color: [4]float32{1, 1, 1, 1},
	}
	src := m.source
	if src == nil {
		return u
	}

	c := src.Color()
	u.Color = [4]float32{srgbToLinear(c[0]), srgbToLinear(c[1]), srgbToLinear(c[2]), c[3] * src.Opacity()}
	if d := src.DisplacementMap(); d.Width() > 0 && d.Height() > 0 {
		u.Displacement = [4]float32{src.DisplacementScale(), src.DisplacementBias(), 1, 0}
	}
	if tex := src.Map(); tex.Width() > 0 && tex.Height() > 0 && !m.lines {
		u.Shading[0] = 1
	}
	if !m.lines {
		u.Shading[1] = 1
		if !src.FlatShading() {
			u.Shading[2] = 1
		}
	}
	if src.Transparent() {
		u.Shading[3] = 1
	}
	return u
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}
