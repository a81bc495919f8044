package renderer

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/light"
	"github.com/Carmen-Shannon/oxy-stereo/engine/model"
	gpumaterial "github.com/Carmen-Shannon/oxy-stereo/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/chewxy/math32"
)

// drawList returns the meshes visible to mask in draw order. Opaque meshes come
// before transparent ones and each group keeps scene order.
func drawList(s scene.Scene, mask common.Layers) []model.Mesh {
	meshes := s.Visible(mask)
	sort.SliceStable(meshes, func(i, j int) bool {
		return !transparent(meshes[i]) && transparent(meshes[j])
	})
	return meshes
}

func transparent(m model.Mesh) bool {
	mat := m.Material()
	return mat != nil && mat.Transparent()
}

// newViewUniform packs a camera transform and the lights it sees into the GPU
// view uniform. Ambient lights are summed. Directional lights beyond
// MaxDirectionalLights are dropped. encodeOutput asks the shader to sRGB encode
// its output for surfaces without an sRGB format.
func newViewUniform(viewProj [16]float32, lights []light.Light, encodeOutput bool) gpumaterial.GPUViewUniform {
	u := gpumaterial.GPUViewUniform{ViewProj: viewProj}
	n := 0
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		k := l.Intensity() / math32.Pi
		c := l.Color()
		switch l.Type() {
		case light.LightTypeAmbient:
			u.Ambient[0] += c[0] * k
			u.Ambient[1] += c[1] * k
			u.Ambient[2] += c[2] * k
		case light.LightTypeDirectional:
			if n == gpumaterial.MaxDirectionalLights {
				continue
			}
			d := l.Direction()
			u.LightDir[n] = [4]float32{d[0], d[1], d[2], 0}
			u.LightColor[n] = [4]float32{c[0] * k, c[1] * k, c[2] * k, 0}
			n++
		}
	}
	u.Params[0] = float32(n)
	if encodeOutput {
		u.Params[1] = 1
	}
	return u
}
