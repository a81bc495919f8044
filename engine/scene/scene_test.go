package scene

import (
	"context"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/eye"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePlaceholder(t *testing.T) {
	c := NewCompositor()
	defer c.Close()

	data := stereo.Placeholder()
	s, err := c.Compose(context.Background(), data, eye.Options{})
	require.NoError(t, err)

	assert.Same(t, data, s.Data())
	assert.Equal(t, common.HexColor(DefaultBackground), s.Background())
	require.Len(t, s.Meshes(), 2)

	lights := s.Lights()
	require.Len(t, lights, 1)
	assert.Equal(t, DefaultAmbientIntensity, lights[0].Intensity())
	assert.True(t, lights[0].Layers().IsEnabled(common.LayerLeft))
	assert.True(t, lights[0].Layers().IsEnabled(common.LayerRight))
}

func TestVisibleByLayer(t *testing.T) {
	c := NewCompositor(WithWorkers(1))
	defer c.Close()

	s, err := c.Compose(context.Background(), stereo.Placeholder(), eye.Options{Debug: true})
	require.NoError(t, err)
	require.Len(t, s.Meshes(), 4)

	var left, right, both common.Layers
	left.Set(common.LayerLeft)
	right.Set(common.LayerRight)
	both.Mask = 0b110

	leftMeshes := s.Visible(left)
	require.Len(t, leftMeshes, 2)
	assert.Equal(t, "left", leftMeshes[0].Name())
	assert.Equal(t, "left-wireframe", leftMeshes[1].Name())
	rightMeshes := s.Visible(right)
	require.Len(t, rightMeshes, 2)
	assert.Equal(t, "right", rightMeshes[0].Name())
	assert.Len(t, s.Visible(both), 4)
	assert.Empty(t, s.Visible(common.NewLayers()))

	assert.Len(t, s.LightsFor(right), 1)
	s.Lights()[0].SetEnabled(false)
	assert.Empty(t, s.LightsFor(right))
}

func TestComposeCollectsWarnings(t *testing.T) {
	c := NewCompositor()
	defer c.Close()

	data := &stereo.StereoData{
		LeftEye:     stereo.NewImageBuffer(40, 20),
		RightEye:    stereo.NewImageBuffer(40, 20),
		PhiLength:   math.Pi,
		ThetaLength: math.Pi,
	}
	s, err := c.Compose(context.Background(), data, eye.Options{MaxTextureSize: 10})
	require.NoError(t, err)
	warnings := s.Warnings()
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.ErrorIs(t, w, stereo.ErrTextureSizeExceeded)
	}
}

func TestComposeFailsWhenAnEyeFails(t *testing.T) {
	c := NewCompositor()
	defer c.Close()

	data := stereo.Placeholder()
	data.RightEye = nil
	s, err := c.Compose(context.Background(), data, eye.Options{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, stereo.ErrInvalidStereoData)

	_, err = c.Compose(context.Background(), nil, eye.Options{})
	assert.ErrorIs(t, err, stereo.ErrInvalidStereoData)
}

func TestComposeCancelledAndClosed(t *testing.T) {
	c := NewCompositor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Compose(ctx, stereo.Placeholder(), eye.Options{})
	assert.ErrorIs(t, err, context.Canceled)

	c.Close()
	c.Close()
	_, err = c.Compose(context.Background(), stereo.Placeholder(), eye.Options{})
	assert.ErrorIs(t, err, ErrCompositorClosed)
}

func TestNewSceneIgnoresNil(t *testing.T) {
	s := NewScene("empty", WithBackground(0xffffff))
	s.Add(nil)
	s.AddLight(nil)
	assert.Empty(t, s.Meshes())
	assert.Empty(t, s.Lights())
	assert.Equal(t, [3]float32{1, 1, 1}, s.Background())
	assert.Equal(t, "empty", s.Name())
}
