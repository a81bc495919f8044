package geometry

import (
	"github.com/chewxy/math32"
)

// NewSphereSector builds the part of a sphere spanning
// [phiStart, phiStart+phiLength] around the Y axis and
// [thetaStart, thetaStart+thetaLength] down from the +Y pole. Degenerate
// triangles at a closed pole are skipped.
//
// Parameters:
//   - radius: sphere radius
//   - widthSegments, heightSegments: number of segments around and down
//   - phiStart, phiLength: horizontal sweep in radians
//   - thetaStart, thetaLength: vertical sweep in radians
//
// Returns:
//   - *Geometry: the sector with outward normals
func NewSphereSector(radius float32, widthSegments, heightSegments int, phiStart, phiLength, thetaStart, thetaLength float32) *Geometry {
	widthSegments = max(3, widthSegments)
	heightSegments = max(2, heightSegments)
	thetaEnd := math32.Min(thetaStart+thetaLength, math32.Pi)

	n := (widthSegments + 1) * (heightSegments + 1)
	g := &Geometry{
		Positions: make([]float32, 0, n*3),
		Normals:   make([]float32, 0, n*3),
		UVs:       make([]float32, 0, n*2),
		Indices:   make([]uint32, 0, widthSegments*heightSegments*6),
	}

	grid := make([][]uint32, heightSegments+1)
	var index uint32
	for iy := 0; iy <= heightSegments; iy++ {
		row := make([]uint32, widthSegments+1)
		v := float32(iy) / float32(heightSegments)

		// shift the pole texel so the fan does not collapse onto one u
		uOffset := float32(0)
		if iy == 0 && thetaStart == 0 {
			uOffset = 0.5 / float32(widthSegments)
		} else if iy == heightSegments && thetaEnd == math32.Pi {
			uOffset = -0.5 / float32(widthSegments)
		}

		theta := thetaStart + v*thetaLength
		sinTheta, cosTheta := math32.Sin(theta), math32.Cos(theta)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			phi := phiStart + u*phiLength
			sinPhi, cosPhi := math32.Sin(phi), math32.Cos(phi)

			x := -radius * cosPhi * sinTheta
			y := radius * cosTheta
			z := radius * sinPhi * sinTheta
			g.Positions = append(g.Positions, x, y, z)

			l := math32.Sqrt(x*x + y*y + z*z)
			if l == 0 {
				g.Normals = append(g.Normals, 0, 0, 0)
			} else {
				g.Normals = append(g.Normals, x/l, y/l, z/l)
			}
			g.UVs = append(g.UVs, u+uOffset, 1-v)

			row[ix] = index
			index++
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 || thetaStart > 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 || thetaEnd < math32.Pi {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}
	return g
}
