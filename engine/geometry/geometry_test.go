package geometry

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func TestPlaneLayout(t *testing.T) {
	g := NewPlane(20, 10, 2, 1)
	require.Equal(t, 6, g.VertexCount())
	require.Equal(t, 4, g.TriangleCount())

	// top-left first, v = 1 at the top
	assert.Equal(t, [3]float32{-10, 5, 0}, g.Position(0))
	assert.Equal(t, [2]float32{0, 1}, g.UV(0))
	assert.Equal(t, [3]float32{10, -5, 0}, g.Position(5))
	assert.Equal(t, [2]float32{1, 0}, g.UV(5))
	for i := 0; i < g.VertexCount(); i++ {
		assert.Equal(t, [3]float32{0, 0, 1}, g.Normal(i))
	}
	assert.Equal(t, []uint32{0, 3, 1, 3, 4, 1}, g.Indices[:6])
}

func TestPlaneSegmentsFloor(t *testing.T) {
	g := NewPlane(1, 1, 0, -3)
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, 2, g.TriangleCount())
}

func TestPlaneRotateTranslate(t *testing.T) {
	g := NewPlane(2, 2, 1, 1).RotateY(-math32.Pi / 2).Translate(10, 0, 0)
	for i := 0; i < g.VertexCount(); i++ {
		p := g.Position(i)
		assert.InDelta(t, 10, p[0], eps)
		n := g.Normal(i)
		assert.InDelta(t, -1, n[0], eps)
		assert.InDelta(t, 0, n[2], eps)
	}
}

func TestSphereSectorHemisphere(t *testing.T) {
	g := NewSphereSector(10, 60, 40, -math32.Pi/2, math32.Pi, 0, math32.Pi)
	assert.Equal(t, 61*41, g.VertexCount())
	// poles drop one triangle per quad on the first and last rows
	assert.Equal(t, 60*40*2-2*60, g.TriangleCount())

	for i := 0; i < g.VertexCount(); i++ {
		p := g.Position(i)
		r := math32.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		assert.InDelta(t, 10, r, 1e-3)
		n := g.Normal(i)
		assert.InDelta(t, p[0]/10, n[0], eps)
		assert.InDelta(t, p[1]/10, n[1], eps)
		assert.InDelta(t, p[2]/10, n[2], eps)
	}
	// the first row sits on the north pole
	assert.InDelta(t, 10, g.Position(0)[1], eps)
	// the hemisphere is on the -X half before mirroring
	lo, hi := g.Bounds()
	assert.InDelta(t, -10, lo[0], 1e-3)
	assert.InDelta(t, 0, hi[0], 1e-3)
}

func TestSphereSectorOpenBandKeepsAllTriangles(t *testing.T) {
	g := NewSphereSector(10, 8, 4, 0, math32.Pi, math32.Pi/4, math32.Pi/2)
	assert.Equal(t, 8*4*2, g.TriangleCount())
	assert.InDelta(t, 1, g.UV(0)[1], eps)
}

func TestScaleMirrorsNormals(t *testing.T) {
	g := NewSphereSector(10, 8, 4, -math32.Pi/2, math32.Pi, 0, math32.Pi)
	before := g.Clone()
	g.Scale(-1, 1, 1)
	for i := 0; i < g.VertexCount(); i++ {
		assert.Equal(t, -before.Positions[i*3], g.Positions[i*3])
		assert.InDelta(t, -before.Normals[i*3], g.Normals[i*3], eps)
		assert.InDelta(t, before.Normals[i*3+1], g.Normals[i*3+1], eps)
	}
	_, hi := g.Bounds()
	assert.InDelta(t, 10, hi[0], 1e-3)
}

func TestFisheyeCorrection(t *testing.T) {
	assert.Equal(t, float32(1), FisheyeCorrection(1, 0, 0))
	assert.Equal(t, float32(1), FisheyeCorrection(-1, 0, 0))
	// 90 degrees off axis lands on the image circle
	assert.InDelta(t, 1, FisheyeCorrection(0, 1, 0), eps)
	assert.InDelta(t, 1, FisheyeCorrection(0, 0, 1), eps)
	assert.False(t, math32.IsNaN(FisheyeCorrection(1.0000001, 0.0001, 0)))
}

func TestApplyFisheyeUV(t *testing.T) {
	g := &Geometry{
		Positions: []float32{1, 0, 0, 0, 1, 0, 0, 0, -1},
		Normals:   []float32{1, 0, 0, 0, 1, 0, 0, 0, -1},
		UVs:       make([]float32, 6),
	}
	ApplyFisheyeUV(g)
	assert.Equal(t, [2]float32{0.5, 0.5}, g.UV(0))
	assert.InDelta(t, 0.5, g.UV(1)[0], eps)
	assert.InDelta(t, 1, g.UV(1)[1], eps)
	assert.InDelta(t, 0, g.UV(2)[0], eps)
	assert.InDelta(t, 0.5, g.UV(2)[1], eps)
}

func TestEdgesAreUnique(t *testing.T) {
	g := NewPlane(1, 1, 1, 1)
	edges := Edges(g)
	// two triangles share the diagonal
	assert.Len(t, edges, 5*2)

	w := Wireframe(g)
	assert.Equal(t, edges, w.Indices)
	assert.Equal(t, g.Positions, w.Positions)
	assert.Len(t, g.Indices, 6)
}
