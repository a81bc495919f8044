package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/stretchr/testify/assert"
)

func viewerCamera() Camera {
	return NewCamera(
		WithFovDegrees(70),
		WithAspect(4.0/3.0),
		WithNear(1),
		WithFar(2000),
		WithLayers(common.LayerLeft),
		WithController(NewLookController(WithPosition(0, 1.7, 0))),
	)
}

func TestViewerCameraDefaults(t *testing.T) {
	c := viewerCamera()
	assert.InDelta(t, 70*math.Pi/180, c.Fov(), 1e-6)
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(2000), c.Far())
	assert.Equal(t, uint32(0b11), c.Layers().Mask)

	x, y, z := c.Controller().Position()
	assert.Equal(t, [3]float32{0, 1.7, 0}, [3]float32{x, y, z})
}

func TestLooksDownNegativeZ(t *testing.T) {
	c := viewerCamera()
	vp := c.ViewProjectionMatrix()

	// a point straight ahead projects to the center of the screen
	p := common.TransformPoint(vp[:], 0, 1.7, -10)
	assert.InDelta(t, 0, p[0]/p[3], 1e-5)
	assert.InDelta(t, 0, p[1]/p[3], 1e-5)
	z := p[2] / p[3]
	assert.True(t, z > 0 && z < 1, "depth %v", z)

	// behind the camera is clipped
	p = common.TransformPoint(vp[:], 0, 1.7, 10)
	assert.Less(t, p[3], float32(0))
}

func TestAspectChangesProjectionOnly(t *testing.T) {
	c := viewerCamera()
	view := c.ViewMatrix()
	c.SetAspect(2)
	assert.Equal(t, view, c.ViewMatrix())
	assert.Equal(t, float32(2), c.Aspect())
}

func TestWithLayerSharesController(t *testing.T) {
	c := viewerCamera()
	right := c.WithLayer(common.LayerRight)
	assert.Equal(t, uint32(1<<common.LayerRight), right.Layers().Mask)
	assert.Equal(t, uint32(0b11), c.Layers().Mask)
	assert.Same(t, c.Controller(), right.Controller())
	assert.Equal(t, c.ViewProjectionMatrix(), right.ViewProjectionMatrix())
}

func TestLayerToggle(t *testing.T) {
	c := viewerCamera()
	c.SetLayer(common.LayerRight)
	assert.False(t, c.Layers().IsEnabled(common.LayerLeft))
	c.SetLayers(common.Layers{Mask: 0b11})
	c.EnableLayer(common.LayerRight)
	assert.Equal(t, uint32(0b111), c.Layers().Mask)
}

func TestLookControllerTurns(t *testing.T) {
	lc := NewLookController(WithTurnSpeed(math.Pi / 2))
	lc.TurnLeft()
	x, _, z := lc.Target()
	assert.InDelta(t, -1, x, 1e-6)
	assert.InDelta(t, 0, z, 1e-6)

	lc.TurnRight()
	lc.TurnRight()
	x, _, _ = lc.Target()
	assert.InDelta(t, 1, x, 1e-6)

	lc.TurnUp()
	assert.InDelta(t, maxLookPitch, lc.Pitch(), 1e-6)
	lc.TurnDown()
	lc.TurnDown()
	lc.TurnDown()
	assert.InDelta(t, -maxLookPitch, lc.Pitch(), 1e-6)

	lc.SetYaw(3 * math.Pi)
	assert.InDelta(t, math.Pi, math.Abs(float64(lc.Yaw())), 1e-5)

	lc.Reset()
	x, y, z := lc.Target()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, []float32{x, y, z}, 1e-6)
}

func TestCameraUpdateFollowsController(t *testing.T) {
	c := viewerCamera()
	before := c.ViewMatrix()
	c.Controller().TurnLeft()
	assert.Equal(t, before, c.ViewMatrix())
	c.Update()
	assert.NotEqual(t, before, c.ViewMatrix())
}
