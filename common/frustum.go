package common

import (
	"math"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the distance of p from the plane. Positive values are
// on the side the normal points to.
func (p Plane) SignedDistance(x, y, z float32) float32 {
	return p.Normal[0]*x + p.Normal[1]*y + p.Normal[2]*z + p.Distance
}

// Frustum represents the six planes of a view frustum.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix
// whose clip depth range is [0, 1] (see Perspective).
// Uses the Gribb/Hartmann method for plane extraction.
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// row(i) of a column-major matrix is viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(index int, v [4]float32) {
		f.Planes[index] = Plane{Normal: [3]float32{v[0], v[1], v[2]}, Distance: v[3]}
		f.normalizePlane(index)
	}
	add := func(a, b [4]float32) [4]float32 { return [4]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]} }
	sub := func(a, b [4]float32) [4]float32 { return [4]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]} }

	set(FrustumLeft, add(r3, r0))
	set(FrustumRight, sub(r3, r0))
	set(FrustumBottom, add(r3, r1))
	set(FrustumTop, sub(r3, r1))
	// z_clip >= 0 for the [0, 1] depth range
	set(FrustumNear, r2)
	set(FrustumFar, sub(r3, r2))

	return f
}

// TriangleOutside reports whether all three points lie outside the same frustum
// plane. A false result does not guarantee the triangle is visible.
//
// Parameters:
//   - a, b, c: triangle corners in world space
//
// Returns:
//   - bool: true when the triangle can be skipped
func (f *Frustum) TriangleOutside(a, b, c [3]float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(a[0], a[1], a[2]) < 0 &&
			p.SignedDistance(b[0], b[1], b[2]) < 0 &&
			p.SignedDistance(c[0], c[1], c[2]) < 0 {
			return true
		}
	}
	return false
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] +
			p.Normal[1]*p.Normal[1] +
			p.Normal[2]*p.Normal[2],
	)))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}
