package material

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// MaxDirectionalLights is the number of directional lights a view uniform carries.
// Further directional lights are ignored by the GPU path.
const MaxDirectionalLights = 4

// GPUViewUniformSource is the canonical WGSL definition of the ViewUniform struct.
// Matches GPUViewUniform layout exactly (224 bytes, std140 aligned).
//
//go:embed assets/view_uniform.wgsl
var GPUViewUniformSource string

// GPUViewUniform is the per-view uniform: the camera transform and the lights
// the camera's layers receive.
// Size: 224 bytes.
type GPUViewUniform struct {
	ViewProj   [16]float32                      // offset   0: column-major view-projection matrix (64 bytes)
	Ambient    [4]float32                       // offset  64: summed ambient irradiance, w unused (16 bytes)
	LightDir   [MaxDirectionalLights][4]float32 // offset  80: direction the light travels, xyz (64 bytes)
	LightColor [MaxDirectionalLights][4]float32 // offset 144: color * intensity / pi, xyz (64 bytes)
	Params     [4]float32                       // offset 208: x light count, y encode sRGB on output (16 bytes)
}

// GPUViewUniformSize is the marshaled size of GPUViewUniform.
const GPUViewUniformSize = 224

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 224-byte buffer ready for GPU upload.
func (g *GPUViewUniform) Marshal() []byte {
	buf := make([]byte, GPUViewUniformSize)
	o := putFloats(buf, 0, g.ViewProj[:])
	o = putFloats(buf, o, g.Ambient[:])
	for i := range g.LightDir {
		o = putFloats(buf, o, g.LightDir[i][:])
	}
	for i := range g.LightColor {
		o = putFloats(buf, o, g.LightColor[i][:])
	}
	putFloats(buf, o, g.Params[:])
	return buf
}

// GPUMeshUniformSource is the canonical WGSL definition of the MeshUniform struct.
// Matches GPUMeshUniform layout exactly (112 bytes, std140 aligned).
//
//go:embed assets/mesh_uniform.wgsl
var GPUMeshUniformSource string

// GPUMeshUniform is the per-mesh uniform for the mesh and wireframe pipelines.
// Size: 112 bytes.
type GPUMeshUniform struct {
	Model        [16]float32 // offset  0: column-major model matrix (64 bytes)
	Color        [4]float32  // offset 64: linear RGB, alpha premultiplied by opacity (16 bytes)
	Displacement [4]float32  // offset 80: x scale, y bias, z 1 when a map is bound (16 bytes)
	Shading      [4]float32  // offset 96: x textured, y lit, z smooth, w blended (16 bytes)
}

// GPUMeshUniformSize is the marshaled size of GPUMeshUniform.
const GPUMeshUniformSize = 112

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload.
func (g *GPUMeshUniform) Marshal() []byte {
	buf := make([]byte, GPUMeshUniformSize)
	o := putFloats(buf, 0, g.Model[:])
	o = putFloats(buf, o, g.Color[:])
	o = putFloats(buf, o, g.Displacement[:])
	putFloats(buf, o, g.Shading[:])
	return buf
}

func putFloats(buf []byte, off int, vals []float32) int {
	for _, v := range vals {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	return off
}
