package model

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithName is an option builder that sets the name of the Mesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithPrimitive is an option builder that sets how indices are assembled.
//
// Parameters:
//   - p: triangles or lines
//
// Returns:
//   - MeshBuilderOption: a function that applies the primitive option to a mesh
func WithPrimitive(p Primitive) MeshBuilderOption {
	return func(m *mesh) {
		m.primitive = p
	}
}

// WithPosition is an option builder that sets the world-space translation.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - MeshBuilderOption: a function that applies the position option to a mesh
func WithPosition(x, y, z float32) MeshBuilderOption {
	return func(m *mesh) {
		m.position = [3]float32{x, y, z}
	}
}

// WithRotation is an option builder that sets the Euler rotation in radians,
// applied in Y, X, Z order.
//
// Parameters:
//   - x, y, z: rotation about each axis
//
// Returns:
//   - MeshBuilderOption: a function that applies the rotation option to a mesh
func WithRotation(x, y, z float32) MeshBuilderOption {
	return func(m *mesh) {
		m.rotation = [3]float32{x, y, z}
	}
}

// WithScale is an option builder that sets the per-axis scale.
//
// Parameters:
//   - x, y, z: scale factors
//
// Returns:
//   - MeshBuilderOption: a function that applies the scale option to a mesh
func WithScale(x, y, z float32) MeshBuilderOption {
	return func(m *mesh) {
		m.scale = [3]float32{x, y, z}
	}
}

// WithLayer is an option builder that makes the mesh visible on layer n only.
//
// Parameters:
//   - n: the layer index
//
// Returns:
//   - MeshBuilderOption: a function that applies the layer option to a mesh
func WithLayer(n int) MeshBuilderOption {
	return func(m *mesh) {
		m.layers.Set(n)
	}
}
