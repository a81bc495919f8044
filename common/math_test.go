package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildModelMatrixYXZ(t *testing.T) {
	var m Mat4
	BuildModelMatrix(m[:], 0, 0, 0, 0, math.Pi/2, 0, 1, 1, 1)

	p := TransformPoint(m[:], 10, 0, 0)
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, -10, p[2], 1e-5)
	assert.InDelta(t, 1, p[3], 1e-6)
}

func TestBuildModelMatrixMatchesComposedRotations(t *testing.T) {
	rx, ry, rz := float32(0.3), float32(1.1), float32(-0.4)

	var got, ryM, rxM, rzM, tmp, want Mat4
	BuildModelMatrix(got[:], 0, 0, 0, rx, ry, rz, 1, 1, 1)
	BuildModelMatrix(ryM[:], 0, 0, 0, 0, ry, 0, 1, 1, 1)
	BuildModelMatrix(rxM[:], 0, 0, 0, rx, 0, 0, 1, 1, 1)
	BuildModelMatrix(rzM[:], 0, 0, 0, 0, 0, rz, 1, 1, 1)
	Mul4(tmp[:], ryM[:], rxM[:])
	Mul4(want[:], tmp[:], rzM[:])

	assert.InDeltaSlice(t, want[:], got[:], 1e-5)
}

func TestLookAtFromOrigin(t *testing.T) {
	var view Mat4
	LookAt(view[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)

	var ident Mat4
	Identity(ident[:])
	assert.InDeltaSlice(t, ident[:], view[:], 1e-6)
}

func TestTransformDirectionNormalizes(t *testing.T) {
	var m Mat4
	BuildModelMatrix(m[:], 5, 5, 5, 0, 0, 0, 2, 2, 2)

	x, y, z := TransformDirection(m[:], 0, 3, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)
	assert.InDelta(t, 0, z, 1e-6)
}

func TestFrustumTriangleOutside(t *testing.T) {
	var proj Mat4
	Perspective(proj[:], 70*math.Pi/180, 4.0/3.0, 1, 2000)
	f := ExtractFrustumFromMatrix(proj[:])

	front := [3][3]float32{{-1, -1, -10}, {1, -1, -10}, {0, 1, -10}}
	behind := [3][3]float32{{-1, -1, 10}, {1, -1, 10}, {0, 1, 10}}
	straddling := [3][3]float32{{0, 0, -10}, {0, 0, 10}, {1, 0, 10}}

	assert.False(t, f.TriangleOutside(front[0], front[1], front[2]))
	assert.True(t, f.TriangleOutside(behind[0], behind[1], behind[2]))
	assert.False(t, f.TriangleOutside(straddling[0], straddling[1], straddling[2]))
}

func TestLayers(t *testing.T) {
	l := NewLayers()
	assert.True(t, l.IsEnabled(LayerDefault))

	l.Enable(LayerLeft)
	assert.Equal(t, uint32(0b11), l.Mask)

	mesh := NewLayers()
	mesh.Set(LayerRight)
	assert.False(t, l.Test(mesh))

	l.Set(LayerRight)
	assert.True(t, l.Test(mesh))
	assert.False(t, l.IsEnabled(LayerDefault))

	l.Disable(LayerRight)
	assert.Equal(t, uint32(0), l.Mask)
}

func TestCoalesceAndClamp(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, 5, Clamp(9, 0, 5))
	assert.Equal(t, 0.0, Clamp(-1.0, 0, 5))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, [3]float32{1, 1, 1}, HexColor(0xffffff))
	c := HexColor(0xb8b804)
	assert.InDelta(t, 0xb8/255.0, c[0], 1e-6)
	assert.InDelta(t, 0xb8/255.0, c[1], 1e-6)
	assert.InDelta(t, 4/255.0, c[2], 1e-6)
}
