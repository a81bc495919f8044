package renderer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/eye"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *stereo.ImageBuffer {
	b := stereo.NewImageBuffer(w, h)
	draw.Draw(b.RGBA, b.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return b
}

// panorama surrounds the camera with a full sphere per eye.
func panorama(t *testing.T, left, right color.RGBA) scene.Scene {
	t.Helper()
	data := &stereo.StereoData{
		LeftEye:     solid(64, 32, left),
		RightEye:    solid(64, 32, right),
		PhiLength:   2 * math.Pi,
		ThetaLength: math.Pi,
	}
	c := scene.NewCompositor()
	defer c.Close()
	s, err := c.Compose(context.Background(), data, eye.Options{})
	require.NoError(t, err)
	return s
}

func headless(t *testing.T, w, h int, options ...RendererBuilderOption) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendTypeHeadless, w, h, options...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func renderOnce(t *testing.T, r Renderer, draw func()) *image.RGBA {
	t.Helper()
	require.NoError(t, r.BeginFrame())
	draw()
	require.NoError(t, r.EndFrame())
	frame := r.Frame()
	require.NotNil(t, frame)
	return frame
}

func TestNewRendererHeadless(t *testing.T) {
	r := headless(t, 0, -5)
	w, h := r.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, BackendTypeHeadless, r.BackendType())
	assert.Equal(t, DefaultMaxTextureSize, r.MaxTextureSize())
	assert.Nil(t, r.Frame())

	capped := headless(t, 4, 4, WithMaxTextureSize(1024))
	assert.Equal(t, 1024, capped.MaxTextureSize())
}

func TestNewRendererWGPURequiresSurface(t *testing.T) {
	_, err := NewRenderer(BackendTypeWGPU, 4, 4)
	assert.ErrorIs(t, err, ErrNoSurface)

	_, err = NewRenderer(RendererBackendType(42), 4, 4)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		name    string
		want    RendererBackendType
		wantErr bool
	}{
		{"", BackendTypeHeadless, false},
		{"headless", BackendTypeHeadless, false},
		{"wgpu", BackendTypeWGPU, false},
		{"vulkan", BackendTypeHeadless, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBackendType(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, name string) RendererBackendType {
	t.Helper()
	got, err := ParseBackendType(name)
	require.NoError(t, err)
	return got
}

func TestFrameLifecycle(t *testing.T) {
	r := headless(t, 4, 4)

	assert.ErrorIs(t, r.EndFrame(), ErrNoFrame)
	require.NoError(t, r.BeginFrame())
	assert.ErrorIs(t, r.BeginFrame(), ErrFrameInProgress)
	require.NoError(t, r.EndFrame())

	r.Release()
	r.Release()
	assert.ErrorIs(t, r.BeginFrame(), ErrRendererReleased)
}

func TestResizeAppliesAtNextFrame(t *testing.T) {
	r := headless(t, 8, 6)
	r.Resize(20, 10)

	w, h := r.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
	assert.Equal(t, Viewport{Width: 20, Height: 10}, r.Viewport())

	frame := renderOnce(t, r, func() {})
	assert.Equal(t, image.Rect(0, 0, 20, 10), frame.Bounds())
}

func TestRenderBackgroundOnly(t *testing.T) {
	r := headless(t, 8, 8)
	s := scene.NewScene("empty", scene.WithBackground(scene.DefaultBackground))
	cam := camera.NewCamera(camera.WithLayers(1))

	frame := renderOnce(t, r, func() { r.Render(s, cam, r.Viewport()) })
	for _, p := range []image.Point{{0, 0}, {4, 4}, {7, 7}} {
		assert.Equal(t, color.RGBA{R: 0xb8, G: 0xb8, B: 0x04, A: 0xff}, frame.RGBAAt(p.X, p.Y))
	}
}

func TestRenderPanoramaAmbientShade(t *testing.T) {
	r := headless(t, 32, 24)
	s := panorama(t, color.RGBA{255, 255, 255, 255}, color.RGBA{255, 255, 255, 255})
	cam := camera.NewCamera(camera.WithLayers(1), camera.WithAspect(32.0/24.0))

	frame := renderOnce(t, r, func() { r.Render(s, cam, r.Viewport()) })
	// White lit by the default ambient light lands just below full white.
	for _, p := range []image.Point{{16, 12}, {1, 1}, {30, 22}} {
		c := frame.RGBAAt(p.X, p.Y)
		assert.InDelta(t, 250, int(c.R), 2, "pixel %v", p)
		assert.Equal(t, c.R, c.G)
		assert.Equal(t, c.R, c.B)
	}
}

func TestRenderFiltersByCameraLayer(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	s := panorama(t, red, blue)
	r := headless(t, 16, 16)
	cam := camera.NewCamera(camera.WithLayers(1))

	left := renderOnce(t, r, func() { r.Render(s, cam.WithLayer(1), r.Viewport()) })
	c := left.RGBAAt(8, 8)
	assert.Greater(t, c.R, uint8(200))
	assert.Zero(t, c.B)

	right := renderOnce(t, r, func() { r.Render(s, cam.WithLayer(2), r.Viewport()) })
	c = right.RGBAAt(8, 8)
	assert.Greater(t, c.B, uint8(200))
	assert.Zero(t, c.R)
}

func TestRenderSideBySide(t *testing.T) {
	s := panorama(t, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
	r := headless(t, 32, 16)
	cam := camera.NewCamera(camera.WithLayers(1), camera.WithAspect(1))
	leftVP, rightVP := r.Viewport().SplitHorizontal()

	frame := renderOnce(t, r, func() {
		r.Render(s, cam.WithLayer(1), leftVP)
		r.Render(s, cam.WithLayer(2), rightVP)
	})
	assert.Greater(t, frame.RGBAAt(8, 8).R, uint8(200))
	assert.Greater(t, frame.RGBAAt(24, 8).B, uint8(200))
}

func TestViewportSplitHorizontal(t *testing.T) {
	left, right := Viewport{X: 2, Y: 1, Width: 11, Height: 5}.SplitHorizontal()
	assert.Equal(t, Viewport{X: 2, Y: 1, Width: 5, Height: 5}, left)
	assert.Equal(t, Viewport{X: 7, Y: 1, Width: 6, Height: 5}, right)
	assert.True(t, Viewport{Width: 0, Height: 3}.Empty())
	assert.Equal(t, float32(2), Viewport{Width: 8, Height: 4}.Aspect())
}

func TestClipNear(t *testing.T) {
	in := rasterVertex{clip: [4]float32{0, 0, 0.5, 1}}
	out := rasterVertex{clip: [4]float32{0, 0, -0.5, 1}}

	assert.Len(t, clipNear([]rasterVertex{in, in, in}), 3)
	assert.Empty(t, clipNear([]rasterVertex{out, out, out}))

	poly := clipNear([]rasterVertex{in, in, out})
	require.Len(t, poly, 4)
	for _, v := range poly {
		assert.GreaterOrEqual(t, v.clip[2], float32(0))
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for _, v := range []uint8{0, 1, 64, 128, 200, 255} {
		assert.Equal(t, v, encodeSRGB(decodeTable[v]))
	}
}
