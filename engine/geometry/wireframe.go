package geometry

// Edges returns each distinct triangle edge of g once, as index pairs suitable
// for a line list over the same vertex arrays.
func Edges(g *Geometry) []uint32 {
	seen := make(map[uint64]struct{}, len(g.Indices))
	out := make([]uint32, 0, len(g.Indices))
	for t := 0; t+2 < len(g.Indices); t += 3 {
		tri := [3]uint32{g.Indices[t], g.Indices[t+1], g.Indices[t+2]}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			lo, hi := min(a, b), max(a, b)
			key := uint64(lo)<<32 | uint64(hi)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, a, b)
		}
	}
	return out
}

// Wireframe returns a copy of g whose Indices hold line pairs instead of
// triangles.
func Wireframe(g *Geometry) *Geometry {
	w := g.Clone()
	w.Indices = Edges(g)
	return w
}
