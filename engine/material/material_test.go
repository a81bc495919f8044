package material

import (
	"image"
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.Color())
	assert.Equal(t, float32(1), m.Opacity())
	assert.True(t, m.DepthTest())
	assert.False(t, m.Transparent())
	assert.False(t, m.FlatShading())
	assert.Nil(t, m.Map())
	assert.Equal(t, float32(0), m.Displace(0.5, 0.5))
}

func TestOpacityImpliesTransparent(t *testing.T) {
	m := NewMaterial(WithOpacity(0.25))
	assert.True(t, m.Transparent())
	assert.Equal(t, float32(0.25), m.Opacity())

	m = NewMaterial(WithOpacity(3))
	assert.False(t, m.Transparent())
	assert.Equal(t, float32(1), m.Opacity())
}

func TestDisplace(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 1))
	g.SetGray(0, 0, color.Gray{Y: 0})
	g.SetGray(1, 0, color.Gray{Y: 255})
	m := NewMaterial(WithDisplacement(stereo.GrayBufferFrom(g), -2, 1))

	assert.InDelta(t, 1, m.Displace(0.1, 0.5), 1e-6)
	assert.InDelta(t, -1, m.Displace(0.9, 0.5), 1e-6)
}
