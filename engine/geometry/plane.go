package geometry

// NewPlane builds a width×height rectangle in the XY plane facing +Z, split
// into a widthSegments×heightSegments grid.
//
// Parameters:
//   - width, height: plane size in world units
//   - widthSegments, heightSegments: grid resolution, at least 1
//
// Returns:
//   - *Geometry: the plane, centered on the origin
func NewPlane(width, height float32, widthSegments, heightSegments int) *Geometry {
	gridX := max(widthSegments, 1)
	gridY := max(heightSegments, 1)
	gridX1 := gridX + 1
	gridY1 := gridY + 1
	segW := width / float32(gridX)
	segH := height / float32(gridY)

	g := &Geometry{
		Positions: make([]float32, 0, gridX1*gridY1*3),
		Normals:   make([]float32, 0, gridX1*gridY1*3),
		UVs:       make([]float32, 0, gridX1*gridY1*2),
		Indices:   make([]uint32, 0, gridX*gridY*6),
	}
	for iy := 0; iy < gridY1; iy++ {
		y := float32(iy)*segH - height/2
		for ix := 0; ix < gridX1; ix++ {
			x := float32(ix)*segW - width/2
			g.Positions = append(g.Positions, x, -y, 0)
			g.Normals = append(g.Normals, 0, 0, 1)
			g.UVs = append(g.UVs, float32(ix)/float32(gridX), 1-float32(iy)/float32(gridY))
		}
	}
	for iy := 0; iy < gridY; iy++ {
		for ix := 0; ix < gridX; ix++ {
			a := uint32(ix + gridX1*iy)
			b := uint32(ix + gridX1*(iy+1))
			c := uint32(ix + 1 + gridX1*(iy+1))
			d := uint32(ix + 1 + gridX1*iy)
			g.Indices = append(g.Indices, a, b, d, b, c, d)
		}
	}
	return g
}
