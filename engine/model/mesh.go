package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/geometry"
	"github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/chewxy/math32"
)

// Primitive selects how a mesh's indices are assembled.
type Primitive int

const (
	// PrimitiveTriangles treats every three indices as a triangle.
	PrimitiveTriangles Primitive = iota
	// PrimitiveLines treats every two indices as a line segment.
	PrimitiveLines
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu *sync.Mutex

	name      string
	primitive Primitive
	geometry  *geometry.Geometry
	material  material.Material
	position  [3]float32
	rotation  [3]float32
	scale     [3]float32
	layers    common.Layers

	boundingRadius float32
	modelMatrix    common.Mat4
}

// Mesh is a scene node pairing geometry with a material, a transform and the
// camera layers it is visible on.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Primitive reports whether the mesh draws triangles or lines.
	//
	// Returns:
	//   - Primitive: the primitive type
	Primitive() Primitive

	// Geometry retrieves the vertex data in local space.
	//
	// Returns:
	//   - *geometry.Geometry: the geometry
	Geometry() *geometry.Geometry

	// Material retrieves the surface description.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// Position returns the world-space translation.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Rotation returns the Euler rotation in radians, applied in Y, X, Z order.
	//
	// Returns:
	//   - [3]float32: rotation about (x, y, z)
	Rotation() [3]float32

	// Layers returns the layer mask the mesh belongs to.
	//
	// Returns:
	//   - common.Layers: the layer mask
	Layers() common.Layers

	// ModelMatrix returns the local-to-world transform.
	//
	// Returns:
	//   - [16]float32: the column-major model matrix
	ModelMatrix() [16]float32

	// BoundingRadius returns the largest vertex distance from the local origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// SetPosition sets the world-space translation.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - x, y, z: rotation about each axis
	SetRotation(x, y, z float32)

	// SetLayer makes the mesh visible on layer n only.
	//
	// Parameters:
	//   - n: the layer index
	SetLayer(n int)
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh on the default layer with an identity transform.
//
// Parameters:
//   - geom: the geometry to draw
//   - mat: the material to shade it with
//   - options: a variadic list of MeshBuilderOption functions to configure the mesh
//
// Returns:
//   - Mesh: the constructed mesh
func NewMesh(geom *geometry.Geometry, mat material.Material, options ...MeshBuilderOption) Mesh {
	m := &mesh{
		mu:       &sync.Mutex{},
		geometry: geom,
		material: mat,
		scale:    [3]float32{1, 1, 1},
		layers:   common.NewLayers(),
	}
	for _, option := range options {
		option(m)
	}
	m.boundingRadius = computeBoundingRadius(geom)
	m.updateMatrix()
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Primitive() Primitive {
	return m.primitive
}

func (m *mesh) Geometry() *geometry.Geometry {
	return m.geometry
}

func (m *mesh) Material() material.Material {
	return m.material
}

func (m *mesh) Position() [3]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *mesh) Rotation() [3]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

func (m *mesh) Layers() common.Layers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layers
}

func (m *mesh) ModelMatrix() [16]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelMatrix
}

func (m *mesh) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *mesh) SetPosition(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = [3]float32{x, y, z}
	m.updateMatrix()
}

func (m *mesh) SetRotation(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = [3]float32{x, y, z}
	m.updateMatrix()
}

func (m *mesh) SetLayer(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers.Set(n)
}

// updateMatrix rebuilds the model matrix. Caller must hold the mutex.
func (m *mesh) updateMatrix() {
	common.BuildModelMatrix(m.modelMatrix[:],
		m.position[0], m.position[1], m.position[2],
		m.rotation[0], m.rotation[1], m.rotation[2],
		m.scale[0], m.scale[1], m.scale[2],
	)
}

func computeBoundingRadius(g *geometry.Geometry) float32 {
	if g == nil {
		return 0
	}
	var r2 float32
	for i := 0; i < g.VertexCount(); i++ {
		p := g.Position(i)
		r2 = max(r2, p[0]*p[0]+p[1]*p[1]+p[2]*p[2])
	}
	return math32.Sqrt(r2)
}
