package model

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-stereo/engine/geometry"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches the GPUVertexSize layout written by MarshalVertices.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexSize is the byte stride of one interleaved vertex: position (12),
// normal (12) and uv (8).
const GPUVertexSize = 32

// MarshalVertices interleaves the geometry's vertex attributes into a buffer
// suitable for GPU upload. Missing normals or uvs are written as zero.
//
// Parameters:
//   - g: the geometry to pack
//
// Returns:
//   - []byte: VertexCount * GPUVertexSize bytes
func MarshalVertices(g *geometry.Geometry) []byte {
	if g == nil {
		return nil
	}
	count := g.VertexCount()
	buf := make([]byte, count*GPUVertexSize)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for i := 0; i < count; i++ {
		o := i * GPUVertexSize
		for k := 0; k < 3; k++ {
			put(o+k*4, g.Positions[i*3+k])
			if len(g.Normals) >= (i+1)*3 {
				put(o+12+k*4, g.Normals[i*3+k])
			}
		}
		if len(g.UVs) >= (i+1)*2 {
			put(o+24, g.UVs[i*2])
			put(o+28, g.UVs[i*2+1])
		}
	}
	return buf
}

// MarshalIndices packs the geometry's indices as little endian uint32 values.
//
// Parameters:
//   - g: the geometry to pack
//
// Returns:
//   - []byte: 4 bytes per index
func MarshalIndices(g *geometry.Geometry) []byte {
	if g == nil {
		return nil
	}
	buf := make([]byte, len(g.Indices)*4)
	for i, idx := range g.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
