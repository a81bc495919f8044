package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/engine/model"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshShaderStages(t *testing.T) {
	vs, err := NewShader("mesh-vs", ShaderTypeVertex, MeshSource)
	require.NoError(t, err)
	fs, err := NewShader("mesh-fs", ShaderTypeFragment, MeshSource)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.NotContains(t, vs.Source(), annotationPrefix)
	assert.Contains(t, vs.Source(), "@group(0) @binding(0) var<uniform> u_view: ViewUniform;")
	assert.Contains(t, vs.Source(), "struct MeshUniform")
	assert.Equal(t, vs.Source(), vs.Module().WGSLDescriptor.Code)

	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(model.GPUVertexSize), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0].Attributes[2].Format)
	assert.Equal(t, uint64(24), layouts[0].Attributes[2].Offset)
	assert.Empty(t, fs.VertexLayouts())
}

func TestMeshShaderBindGroups(t *testing.T) {
	vs, err := NewShader("mesh-vs", ShaderTypeVertex, MeshSource)
	require.NoError(t, err)
	fs, err := NewShader("mesh-fs", ShaderTypeFragment, MeshSource)
	require.NoError(t, err)

	merged := MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	require.Len(t, merged, 2)

	view := merged[0].Entries
	require.Len(t, view, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, view[0].Buffer.Type)
	assert.Equal(t, uint64(material.GPUViewUniformSize), view[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, view[0].Visibility)

	mesh := merged[1].Entries
	require.Len(t, mesh, 4)
	assert.Equal(t, uint64(material.GPUMeshUniformSize), mesh[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, mesh[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, mesh[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, mesh[2].Sampler.Type)
	assert.Equal(t, uint32(3), mesh[3].Binding)
	assert.Equal(t, "displacement_map", vs.BindGroupVarName(1, 3))
}

func TestBindingByRole(t *testing.T) {
	s, err := NewShader("mesh-fs", ShaderTypeFragment, MeshSource)
	require.NoError(t, err)

	g, b, ok := s.Binding(AnnotationArgView, "")
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{g, b})

	g, b, ok = s.Binding(AnnotationArgMaterial, AnnotationArgDisplacementMap)
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 3}, [2]int{g, b})

	_, _, ok = s.Binding(AnnotationArgView, AnnotationArgColorMap)
	assert.False(t, ok)
	assert.Len(t, s.Declarations(), 5)
}

func TestPreProcessorErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", "// @stereo:"},
		{"unknown include", "// @stereo:include skeleton"},
		{"bad group", "// @stereo:group x 0 uniform v view"},
		{"bad address space", "// @stereo:group 0 0 private v view"},
		{"bad role", "// @stereo:provider 1 1 material normal_map"},
		{"unknown directive", "// @stereo:define X 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(tt.source)
			assert.Error(t, err)
		})
	}
}

func TestNewShaderWithoutEntryPoint(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeVertex, "// @stereo:include vertex\n")
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestStructLayoutWithArrays(t *testing.T) {
	structs := parseStructBlocks(`struct Inner { a: vec3<f32>, }
struct Outer { m: mat4x4<f32>, items: array<f32, 3>, inner: Inner, }`)
	sizes := computeStructSizes(structs)
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Inner"])
	assert.Equal(t, wgslTypeLayout{128, 16}, sizes["Outer"])
}

func TestStripBlockCommentsNested(t *testing.T) {
	assert.Equal(t, "a  b", stripBlockComments("a /* x /* y */ z */ b"))
}
