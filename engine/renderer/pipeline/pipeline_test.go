package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	assert.Equal(t, KeyMesh, KeyFor(false, true))
	assert.Equal(t, KeyMeshOverlay, KeyFor(false, false))
	assert.Equal(t, KeyWireframe, KeyFor(true, true))
	assert.Equal(t, KeyWireframeOverlay, KeyFor(true, false))
}

func TestNewMeshPipelines(t *testing.T) {
	vs, err := shader.NewShader("mesh-vs", shader.ShaderTypeVertex, shader.MeshSource)
	require.NoError(t, err)
	fs, err := shader.NewShader("mesh-fs", shader.ShaderTypeFragment, shader.MeshSource)
	require.NoError(t, err)

	byKey := map[string]Pipeline{}
	for _, p := range NewMeshPipelines(vs, fs) {
		byKey[p.PipelineKey()] = p
		assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
		assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))
		assert.Nil(t, p.RenderPipeline())
		assert.NotNil(t, p.BlendState())
	}
	require.Len(t, byKey, 4)

	mesh := byKey[KeyMesh]
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, mesh.Topology())
	assert.Equal(t, wgpu.CompareFunctionLess, mesh.DepthCompare())
	assert.True(t, mesh.DepthWriteEnabled())

	wire := byKey[KeyWireframeOverlay]
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, wire.Topology())
	assert.Equal(t, wgpu.CompareFunctionAlways, wire.DepthCompare())
	assert.False(t, wire.DepthWriteEnabled())
}

func TestBlendDisabledHasNoState(t *testing.T) {
	p := NewPipeline("opaque", WithBlendEnabled(false), WithCullMode(wgpu.CullModeBack))
	assert.Nil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	p.Release()
}
