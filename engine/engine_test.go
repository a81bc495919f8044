package engine

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/loader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/Carmen-Shannon/oxy-stereo/engine/window"
	"github.com/Carmen-Shannon/oxy-stereo/engine/xr"
	"github.com/Carmen-Shannon/oxy-stereo/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leftRightJPEG = fixture.JPEG(fixture.Halves(40, 20,
	color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}, false))

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newTestViewer(t *testing.T, options ...ViewerBuilderOption) (Viewer, *window.FixedSize) {
	target := window.NewFixedSize(800, 0)
	v := NewViewer(append([]ViewerBuilderOption{WithObserver(target), WithFrameLimit(200)}, options...)...)
	t.Cleanup(v.Detach)
	return v, target
}

func writeSource(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// gatedLoader blocks loads of "slow" until release is closed.
type gatedLoader struct {
	loader.Loader
	release chan struct{}
}

func (g *gatedLoader) Load(ctx context.Context, ref string) (stereo.Source, error) {
	if ref == "slow" {
		select {
		case <-g.release:
		case <-ctx.Done():
			return stereo.Source{}, ctx.Err()
		}
	}
	return stereo.Source{Name: ref, Data: leftRightJPEG}, nil
}

func TestAttachInitialState(t *testing.T) {
	v, _ := newTestViewer(t)
	assert.Equal(t, PhaseUninitialized, v.CurrentState().Phase)

	require.NoError(t, v.Attach(context.Background()))
	st := v.CurrentState()
	assert.Equal(t, PhaseRendering, st.Phase)

	w, h := st.Renderer.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h, "missing height falls back to 4:3")

	assert.InDelta(t, 4.0/3.0, st.Camera.Aspect(), 1e-5)
	assert.InDelta(t, 70*3.14159265/180, st.Camera.Fov(), 1e-4)
	assert.Equal(t, float32(1), st.Camera.Near())
	assert.Equal(t, float32(2000), st.Camera.Far())
	assert.True(t, st.Camera.Layers().IsEnabled(common.LayerLeft))
	_, y, _ := st.Camera.Controller().Position()
	assert.InDelta(t, 1.7, y, 1e-6)

	require.NotNil(t, st.Data)
	assert.Equal(t, 10, st.Data.LeftEye.Width(), "placeholder without a source")
	require.NotNil(t, st.Scene)
	assert.False(t, st.XRAvailable)

	assert.ErrorIs(t, v.Attach(context.Background()), ErrAlreadyAttached)
}

func TestAttachRendererFailureIsFatal(t *testing.T) {
	boom := errors.New("no adapter")
	v, _ := newTestViewer(t, WithRendererFactory(func(int, int) (renderer.Renderer, error) {
		return nil, boom
	}))
	err := v.Attach(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseUninitialized, v.CurrentState().Phase)
}

func TestRenderLoopProducesFrames(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))

	assert.Eventually(t, func() bool {
		return v.CurrentState().FramesRendered >= 3
	}, 3*time.Second, 10*time.Millisecond)
	assert.NotNil(t, v.CurrentState().Renderer.Frame())
}

// panicOnceRenderer panics in its first Render call.
type panicOnceRenderer struct {
	renderer.Renderer
	panicked atomic.Bool
}

func (p *panicOnceRenderer) Render(s scene.Scene, cam camera.Camera, vp renderer.Viewport) {
	if p.panicked.CompareAndSwap(false, true) {
		panic("draw failed")
	}
	p.Renderer.Render(s, cam, vp)
}

func TestRenderLoopSurvivesPanickingFrame(t *testing.T) {
	var wrapped *panicOnceRenderer
	v, _ := newTestViewer(t, WithRendererFactory(func(width, height int) (renderer.Renderer, error) {
		r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, width, height)
		if err != nil {
			return nil, err
		}
		wrapped = &panicOnceRenderer{Renderer: r}
		return wrapped, nil
	}))
	require.NoError(t, v.Attach(context.Background()))

	assert.Eventually(t, func() bool {
		return v.CurrentState().FramesRendered >= 3
	}, 3*time.Second, 10*time.Millisecond)
	assert.True(t, wrapped.panicked.Load())
	assert.NotNil(t, v.CurrentState().Renderer.Frame())
}

func TestConfigureLoadsSource(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))
	before := v.CurrentState().Scene

	path := writeSource(t, "pair.jpg", leftRightJPEG)
	h := v.Configure(Options{Source: path, Layout: stereo.LayoutLeftRight})
	require.NoError(t, h.Wait(waitCtx(t)))

	st := v.CurrentState()
	assert.Equal(t, h.Generation(), st.Generation)
	assert.NotSame(t, before, st.Scene)
	require.NotNil(t, st.Data)
	assert.Equal(t, 20, st.Data.LeftEye.Width())
	assert.Equal(t, 20, st.Data.RightEye.Width())
	assert.NoError(t, st.Err)
}

func TestConfigureBeforeAttach(t *testing.T) {
	v, _ := newTestViewer(t)
	path := writeSource(t, "pair.jpg", leftRightJPEG)

	first := v.Configure(Options{Debug: true})
	second := v.Configure(Options{Source: path})
	assert.ErrorIs(t, first.Wait(waitCtx(t)), ErrSuperseded)

	require.NoError(t, v.Attach(context.Background()))
	require.NoError(t, second.Wait(waitCtx(t)))
	assert.Equal(t, 20, v.CurrentState().Data.LeftEye.Width())
}

func TestConfigureLastChangeWins(t *testing.T) {
	gate := &gatedLoader{Loader: loader.NewLoader(), release: make(chan struct{})}
	v, _ := newTestViewer(t, WithLoader(gate))
	require.NoError(t, v.Attach(context.Background()))

	slow := v.Configure(Options{Source: "slow"})
	fast := v.Configure(Options{Source: "fast"})
	assert.Greater(t, fast.Generation(), slow.Generation())

	require.NoError(t, fast.Wait(waitCtx(t)))
	close(gate.release)
	assert.ErrorIs(t, slow.Wait(waitCtx(t)), ErrSuperseded)

	st := v.CurrentState()
	assert.Equal(t, fast.Generation(), st.Generation)
	assert.Equal(t, "fast", st.Options.Source)
}

func TestConfigureErrorKeepsScene(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))
	before := v.CurrentState()

	h := v.Configure(Options{Source: filepath.Join(t.TempDir(), "missing.jpg")})
	err := h.Wait(waitCtx(t))
	assert.ErrorIs(t, err, loader.ErrNotFound)

	st := v.CurrentState()
	assert.Same(t, before.Scene, st.Scene)
	assert.Equal(t, before.Generation, st.Generation)
	assert.ErrorIs(t, st.Err, loader.ErrNotFound)
}

func TestConfigureDecodeError(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))

	path := writeSource(t, "flat.jpg", leftRightJPEG)
	h := v.Configure(Options{Source: path, Layout: stereo.LayoutVR})
	assert.ErrorIs(t, h.Wait(waitCtx(t)), stereo.ErrDecode)
}

func TestTimerOnlyChangeSkipsRebuild(t *testing.T) {
	v, _ := newTestViewer(t, WithWiggleInterval(time.Hour))
	require.NoError(t, v.Attach(context.Background()))

	path := writeSource(t, "pair.jpg", leftRightJPEG)
	require.NoError(t, v.Configure(Options{Source: path}).Wait(waitCtx(t)))
	before := v.CurrentState()

	v.HandleKey(common.KeyW)
	st := v.CurrentState()
	assert.True(t, st.Options.Wiggle)
	assert.Equal(t, before.Requested, st.Requested)
	assert.Same(t, before.Scene, st.Scene)

	h := v.Configure(Options{Source: path, Watch: true})
	select {
	case <-h.Done():
	default:
		t.Fatal("timer-only change left its handle open")
	}
	require.NoError(t, h.Wait(waitCtx(t)))
	assert.Equal(t, before.Generation, h.Generation())
	st = v.CurrentState()
	assert.Equal(t, before.Requested, st.Requested)
	assert.False(t, st.Options.Wiggle)
	assert.True(t, st.Options.Watch)
	assert.Same(t, before.Scene, st.Scene)

	d := v.Configure(Options{Source: path, Debug: true})
	assert.Greater(t, d.Generation(), before.Requested)
	require.NoError(t, d.Wait(waitCtx(t)))
	assert.NotSame(t, before.Scene, v.CurrentState().Scene)
}

type meshSignature struct {
	name     string
	vertices int
	indices  int
	layers   uint32
}

func signature(s scene.Scene) []meshSignature {
	out := []meshSignature{}
	for _, m := range s.Meshes() {
		out = append(out, meshSignature{
			name:     m.Name(),
			vertices: m.Geometry().VertexCount(),
			indices:  len(m.Geometry().Indices),
			layers:   m.Layers().Mask,
		})
	}
	return out
}

func TestRebuildWithSameOptionsIsDeterministic(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))

	path := writeSource(t, "pair.jpg", leftRightJPEG)
	opts := Options{Source: path, Layout: stereo.LayoutLeftRight, Debug: true}
	require.NoError(t, v.Configure(opts).Wait(waitCtx(t)))
	first := v.CurrentState().Scene

	require.NoError(t, v.Configure(Options{Source: path}).Wait(waitCtx(t)))
	require.NoError(t, v.Configure(opts).Wait(waitCtx(t)))
	second := v.CurrentState().Scene

	assert.NotSame(t, first, second)
	require.Len(t, first.Meshes(), 4)
	assert.Equal(t, signature(first), signature(second))
}

func TestWiggleAlternatesAndRestores(t *testing.T) {
	v, _ := newTestViewer(t, WithWiggleInterval(5*time.Millisecond))
	require.NoError(t, v.Attach(context.Background()))
	cam := v.CurrentState().Camera

	v.Configure(Options{Wiggle: true})
	assert.Eventually(t, func() bool {
		return cam.Layers().IsEnabled(common.LayerRight)
	}, 2*time.Second, time.Millisecond)

	v.Configure(Options{Wiggle: false})
	assert.True(t, cam.Layers().IsEnabled(common.LayerLeft))
	assert.False(t, cam.Layers().IsEnabled(common.LayerRight))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, cam.Layers().IsEnabled(common.LayerRight), "no wiggle after disable")
}

func TestResizeUpdatesRendererAndCamera(t *testing.T) {
	v, target := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))

	target.Resize(400, 200)
	st := v.CurrentState()
	w, h := st.Renderer.Size()
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)
	assert.InDelta(t, 2.0, st.Camera.Aspect(), 1e-5)
}

func TestImmersiveSessionSplitsFrame(t *testing.T) {
	v, _ := newTestViewer(t, WithSession(xr.NewSideBySide()))
	require.NoError(t, v.Attach(context.Background()))
	assert.True(t, v.CurrentState().XRAvailable)

	v.HandleKey(common.KeyV)
	assert.True(t, v.CurrentState().XRActive)
	require.NoError(t, v.RenderFrame())

	v.HandleKey(common.KeyV)
	assert.False(t, v.CurrentState().XRActive)
}

func TestViewViewportTilesFrame(t *testing.T) {
	full := renderer.Viewport{Width: 801, Height: 600}
	left := viewViewport(xr.View{Layer: 1, X: 0, Y: 0, Width: 0.5, Height: 1}, full)
	right := viewViewport(xr.View{Layer: 2, X: 0.5, Y: 0, Width: 0.5, Height: 1}, full)
	assert.Equal(t, left.X+left.Width, right.X)
	assert.Equal(t, full.Width, left.Width+right.Width)
	assert.Equal(t, 600, right.Height)
}

func TestHandleKeyAndDrag(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))
	ctrl := v.CurrentState().Camera.Controller()

	yaw := ctrl.Yaw()
	v.HandleKey(common.KeyLeft)
	assert.NotEqual(t, yaw, ctrl.Yaw())

	pitch := ctrl.Pitch()
	v.HandleDrag(0, 40)
	assert.NotEqual(t, pitch, ctrl.Pitch())

	v.HandleKey(common.KeyD)
	assert.True(t, v.CurrentState().Options.Debug)
}

func TestWatchReloadsOnChange(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))

	path := writeSource(t, "pair.jpg", leftRightJPEG)
	h := v.Configure(Options{Source: path, Watch: true})
	require.NoError(t, h.Wait(waitCtx(t)))

	require.NoError(t, os.WriteFile(path, leftRightJPEG, 0o644))
	assert.Eventually(t, func() bool {
		return v.CurrentState().Generation > h.Generation()
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDetachIsIdempotent(t *testing.T) {
	v, _ := newTestViewer(t)
	require.NoError(t, v.Attach(context.Background()))
	r := v.CurrentState().Renderer

	v.Detach()
	v.Detach()

	assert.Equal(t, PhaseTornDown, v.CurrentState().Phase)
	assert.ErrorIs(t, r.BeginFrame(), renderer.ErrRendererReleased)
	assert.ErrorIs(t, v.Configure(Options{}).Wait(waitCtx(t)), ErrDetached)
	assert.ErrorIs(t, v.Attach(context.Background()), ErrDetached)
	assert.ErrorIs(t, v.RenderFrame(), ErrDetached)
}

func TestSnapshotEyes(t *testing.T) {
	path := writeSource(t, "pair.jpg", leftRightJPEG)
	opts := Options{Source: path, Layout: stereo.LayoutLeftRight}

	left, err := Snapshot(waitCtx(t), loader.NewLoader(), opts, SnapshotOptions{Width: 64, Height: 48})
	require.NoError(t, err)
	assert.Equal(t, 64, left.Bounds().Dx())
	assert.Equal(t, 48, left.Bounds().Dy())
	c := left.RGBAAt(32, 24)
	assert.Greater(t, c.R, uint8(150))
	assert.Less(t, c.B, uint8(100))

	right, err := Snapshot(waitCtx(t), loader.NewLoader(), opts, SnapshotOptions{Width: 64, Height: 48, Eye: SnapshotRight})
	require.NoError(t, err)
	c = right.RGBAAt(32, 24)
	assert.Greater(t, c.B, uint8(150))
	assert.Less(t, c.R, uint8(100))

	both, err := Snapshot(waitCtx(t), loader.NewLoader(), opts, SnapshotOptions{Width: 64, Height: 48, Eye: SnapshotBoth})
	require.NoError(t, err)
	assert.Greater(t, both.RGBAAt(16, 24).R, uint8(150))
	assert.Greater(t, both.RGBAAt(48, 24).B, uint8(150))
}

func TestSnapshotMissingSource(t *testing.T) {
	_, err := Snapshot(waitCtx(t), loader.NewLoader(), Options{Source: filepath.Join(t.TempDir(), "none.jpg")}, SnapshotOptions{Width: 8, Height: 8})
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

func TestParseSnapshotEye(t *testing.T) {
	for in, want := range map[string]SnapshotEye{"": SnapshotLeft, "left": SnapshotLeft, "Right": SnapshotRight, "both": SnapshotBoth} {
		got, err := ParseSnapshotEye(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSnapshotEye("middle")
	assert.Error(t, err)
}
