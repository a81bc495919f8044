package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/geometry"
	"github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/stretchr/testify/assert"
)

func TestNewMeshDefaults(t *testing.T) {
	m := NewMesh(geometry.NewPlane(2, 2, 1, 1), material.NewMaterial())
	assert.Equal(t, PrimitiveTriangles, m.Primitive())
	assert.True(t, m.Layers().IsEnabled(common.LayerDefault))
	assert.InDelta(t, math.Sqrt2, m.BoundingRadius(), 1e-5)

	var ident common.Mat4
	common.Identity(ident[:])
	assert.Equal(t, [16]float32(ident), m.ModelMatrix())
}

func TestMeshLayerIsExclusive(t *testing.T) {
	m := NewMesh(geometry.NewPlane(1, 1, 1, 1), material.NewMaterial(), WithLayer(common.LayerRight))
	l := m.Layers()
	assert.True(t, l.IsEnabled(common.LayerRight))
	assert.False(t, l.IsEnabled(common.LayerDefault))
	assert.False(t, l.IsEnabled(common.LayerLeft))

	m.SetLayer(common.LayerLeft)
	l = m.Layers()
	assert.True(t, l.IsEnabled(common.LayerLeft))
	assert.False(t, l.IsEnabled(common.LayerRight))
}

func TestMeshRotationUpdatesMatrix(t *testing.T) {
	m := NewMesh(geometry.NewPlane(1, 1, 1, 1), material.NewMaterial(), WithRotation(0, math.Pi/2, 0))
	mm := m.ModelMatrix()
	p := common.TransformPoint(mm[:], 10, 0, 0)
	assert.InDelta(t, -10, p[2], 1e-5)

	m.SetRotation(0, 0, 0)
	m.SetPosition(1, 2, 3)
	mm = m.ModelMatrix()
	p = common.TransformPoint(mm[:], 0, 0, 0)
	assert.InDeltaSlice(t, []float32{1, 2, 3, 1}, p[:], 1e-6)
	assert.Equal(t, [3]float32{1, 2, 3}, m.Position())
	assert.Equal(t, [3]float32{0, 0, 0}, m.Rotation())
}

func TestMarshalVerticesInterleaves(t *testing.T) {
	g := &geometry.Geometry{
		Positions: []float32{1, 2, 3, 4, 5, 6},
		Normals:   []float32{0, 0, 1, 0, 1, 0},
		UVs:       []float32{0.25, 0.75, 1, 0},
		Indices:   []uint32{0, 1, 1},
	}
	buf := MarshalVertices(g)
	assert.Len(t, buf, 2*GPUVertexSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(4), f(GPUVertexSize))
	assert.Equal(t, float32(1), f(GPUVertexSize+16))
	assert.Equal(t, float32(0.75), f(28))

	idx := MarshalIndices(g)
	assert.Len(t, idx, 12)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(idx[8:]))
	assert.Contains(t, GPUVertexSource, "@location(2) uv")
	assert.Nil(t, MarshalVertices(nil))
}
