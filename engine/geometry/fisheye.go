package geometry

import (
	"github.com/chewxy/math32"
)

// FisheyeCorrection returns the radial factor that maps a unit view direction
// onto an equidistant fisheye image. A direction straight along +X (y = z = 0)
// has factor 1.
func FisheyeCorrection(x, y, z float32) float32 {
	if y == 0 && z == 0 {
		return 1
	}
	x = math32.Max(-1, math32.Min(1, x))
	return math32.Acos(x) / math32.Sqrt(y*y+z*z) * (2 / math32.Pi)
}

// ApplyFisheyeUV replaces the texture coordinates of g with fisheye
// coordinates derived from the vertex normals.
func ApplyFisheyeUV(g *Geometry) *Geometry {
	for i := 0; i < g.VertexCount(); i++ {
		x, y, z := g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2]
		corr := FisheyeCorrection(x, y, z)
		g.UVs[i*2] = z*0.5*corr + 0.5
		g.UVs[i*2+1] = y*0.5*corr + 0.5
	}
	return g
}
