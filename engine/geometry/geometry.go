// Package geometry builds indexed triangle meshes for the eye surfaces. Vertex
// attributes are stored flat (xyz / uv) so they can be uploaded as-is.
package geometry

import (
	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/chewxy/math32"
)

// Geometry is an indexed triangle list.
type Geometry struct {
	Positions []float32 // x, y, z per vertex
	Normals   []float32 // x, y, z per vertex, unit length
	UVs       []float32 // u, v per vertex, v = 1 at the top of the image
	Indices   []uint32  // three per triangle
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Position returns vertex i.
func (g *Geometry) Position(i int) [3]float32 {
	return [3]float32{g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2]}
}

// Normal returns the normal of vertex i.
func (g *Geometry) Normal(i int) [3]float32 {
	return [3]float32{g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2]}
}

// UV returns the texture coordinate of vertex i.
func (g *Geometry) UV(i int) [2]float32 {
	return [2]float32{g.UVs[i*2], g.UVs[i*2+1]}
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		Positions: append([]float32(nil), g.Positions...),
		Normals:   append([]float32(nil), g.Normals...),
		UVs:       append([]float32(nil), g.UVs...),
		Indices:   append([]uint32(nil), g.Indices...),
	}
}

// RotateY rotates positions and normals about the Y axis.
//
// Parameters:
//   - angle: rotation in radians
//
// Returns:
//   - *Geometry: g, for chaining
func (g *Geometry) RotateY(angle float32) *Geometry {
	var m common.Mat4
	common.BuildModelMatrix(m[:], 0, 0, 0, 0, angle, 0, 1, 1, 1)
	for i := 0; i < g.VertexCount(); i++ {
		p := common.TransformPoint(m[:], g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2])
		g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2] = p[0], p[1], p[2]
		g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2] = common.TransformDirection(m[:], g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2])
	}
	return g
}

// Translate offsets every position.
func (g *Geometry) Translate(x, y, z float32) *Geometry {
	for i := 0; i < g.VertexCount(); i++ {
		g.Positions[i*3] += x
		g.Positions[i*3+1] += y
		g.Positions[i*3+2] += z
	}
	return g
}

// Scale scales positions per axis. Normals are transformed by the inverse
// scale and renormalized, so a negative factor mirrors them as well. The index
// order is left untouched, which flips the winding of a mirrored mesh.
func (g *Geometry) Scale(x, y, z float32) *Geometry {
	for i := 0; i < g.VertexCount(); i++ {
		g.Positions[i*3] *= x
		g.Positions[i*3+1] *= y
		g.Positions[i*3+2] *= z
		g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2] = common.Normalize3(g.Normals[i*3]/x, g.Normals[i*3+1]/y, g.Normals[i*3+2]/z)
	}
	return g
}

// Bounds returns the axis-aligned bounding box of the positions.
func (g *Geometry) Bounds() (lo, hi [3]float32) {
	lo = [3]float32{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	hi = [3]float32{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)}
	for i := 0; i < g.VertexCount(); i++ {
		for a := 0; a < 3; a++ {
			lo[a] = math32.Min(lo[a], g.Positions[i*3+a])
			hi[a] = math32.Max(hi[a], g.Positions[i*3+a])
		}
	}
	return lo, hi
}
