package material

import (
	"encoding/binary"
	"math"
	"testing"

	scenematerial "github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/stretchr/testify/assert"
)

func TestUniformForTexturedEye(t *testing.T) {
	depth := stereo.GrayBufferFrom(stereo.NewImageBuffer(4, 2))
	src := scenematerial.NewMaterial(
		scenematerial.WithName("eye-left"),
		scenematerial.WithMap(stereo.NewImageBuffer(4, 2)),
		scenematerial.WithDisplacement(depth, 2, -1),
	)
	m := NewMaterial(WithSource(src), WithPipelineKey("mesh"))
	assert.Equal(t, "eye-left", m.Name())
	assert.Equal(t, "mesh", m.PipelineKey())
	assert.False(t, m.Lines())

	var model [16]float32
	model[0], model[5], model[10], model[15] = 1, 1, 1, 1
	u := m.Uniform(model)
	assert.Equal(t, model, u.Model)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, u.Color)
	assert.Equal(t, [4]float32{2, -1, 1, 0}, u.Displacement)
	assert.Equal(t, [4]float32{1, 1, 1, 0}, u.Shading)
}

func TestUniformForWireframe(t *testing.T) {
	src := scenematerial.NewMaterial(
		scenematerial.WithColor([4]float32{0, 1, 0, 1}),
		scenematerial.WithOpacity(0.5),
		scenematerial.WithFlatShading(true),
	)
	u := NewMaterial(WithSource(src), WithLines(true)).Uniform([16]float32{})
	assert.Equal(t, [4]float32{0, 1, 0, 0.5}, u.Color)
	assert.Zero(t, u.Displacement)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, u.Shading, "lines are drawn unlit")
}

func TestUniformMarshalLayout(t *testing.T) {
	u := GPUMeshUniform{Color: [4]float32{0.25, 0, 0, 0}, Shading: [4]float32{0, 0, 7, 0}}
	buf := u.Marshal()
	assert.Len(t, buf, GPUMeshUniformSize)
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])))
	assert.Equal(t, float32(7), math.Float32frombits(binary.LittleEndian.Uint32(buf[104:])))

	v := GPUViewUniform{Params: [4]float32{3, 1, 0, 0}}
	v.LightColor[MaxDirectionalLights-1][2] = 9
	vb := v.Marshal()
	assert.Len(t, vb, GPUViewUniformSize)
	assert.Equal(t, float32(9), math.Float32frombits(binary.LittleEndian.Uint32(vb[200:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(vb[208:])))

	assert.Contains(t, GPUViewUniformSource, "struct ViewUniform")
	assert.Contains(t, GPUMeshUniformSource, "struct MeshUniform")
}
