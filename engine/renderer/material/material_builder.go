package material

import (
	scenematerial "github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/bind_group_provider"
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

// WithSource is an option builder that sets the scene material to mirror.
//
// Parameters:
//   - src: the scene material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the source option to a material
func WithSource(src scenematerial.Material) MaterialBuilderOption {
	return func(m *material) {
		m.source = src
	}
}

// WithLines is an option builder that marks the material as drawn with a line list.
//
// Parameters:
//   - lines: true for wireframe meshes
//
// Returns:
//   - MaterialBuilderOption: a function that applies the lines option to a material
func WithLines(lines bool) MaterialBuilderOption {
	return func(m *material) {
		m.lines = lines
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key to associate with the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithBindGroupProvider is an option builder that sets the bind group provider for the material.
//
// Parameters:
//   - provider: the bind group provider containing GPU resources for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bind group provider option to a material
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) MaterialBuilderOption {
	return func(m *material) {
		m.bindGroupProvider = provider
	}
}
