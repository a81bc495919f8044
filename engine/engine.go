// Package engine hosts the stereo photo Viewer: it owns the renderer, camera
// and current scene, rebuilds the scene when options change and drives the
// render loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/decoder"
	"github.com/Carmen-Shannon/oxy-stereo/engine/detector"
	"github.com/Carmen-Shannon/oxy-stereo/engine/eye"
	"github.com/Carmen-Shannon/oxy-stereo/engine/loader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/profiler"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/Carmen-Shannon/oxy-stereo/engine/window"
	"github.com/Carmen-Shannon/oxy-stereo/engine/xr"
)

// Camera setup shared by every viewer.
const (
	CameraFovDegrees = 70
	CameraNear       = 1
	CameraFar        = 2000
	CameraHeight     = 1.7
)

const (
	// DefaultFrameLimit is the render loop rate in frames per second.
	DefaultFrameLimit = 60
	// DefaultWiggleInterval is how long each eye is shown in wiggle mode.
	DefaultWiggleInterval = 100 * time.Millisecond

	dragRadiansPerPixel = 0.005
)

var (
	// ErrSuperseded is reported by a RebuildHandle whose result was discarded
	// because a newer Configure call replaced it.
	ErrSuperseded = errors.New("rebuild superseded by a newer configuration")

	// ErrDetached is returned once the viewer has been torn down.
	ErrDetached = errors.New("viewer detached")

	// ErrAlreadyAttached is returned by a second Attach.
	ErrAlreadyAttached = errors.New("viewer already attached")
)

// Phase is the lifecycle stage of a Viewer.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseRendering
	PhaseTornDown
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "initialized"
	case PhaseRendering:
		return "rendering"
	case PhaseTornDown:
		return "torn-down"
	default:
		return "uninitialized"
	}
}

// Options are the user-facing settings of a viewer. An empty Source shows
// the placeholder.
type Options struct {
	// Source is a path, file://, http(s)://, drive://<fileID> or s3://<bucket>/<key> reference.
	Source string
	// Layout forces a decoder; stereo.LayoutAuto lets the detector choose.
	Layout stereo.LayoutKind
	// Angle is the horizontal field of view in degrees for flat stereo layouts.
	Angle float64
	// Projection selects the sphere UV mapping.
	Projection stereo.Projection
	// Debug overlays the eye wireframes.
	Debug bool
	// Wiggle alternates the eyes on screen.
	Wiggle bool
	// Watch reloads a local Source whenever the file changes.
	Watch bool
}

// State is a snapshot of a viewer.
type State struct {
	Phase   Phase
	Options Options
	// Data is the decoded photo of the current scene.
	Data     *stereo.StereoData
	Scene    scene.Scene
	Camera   camera.Camera
	Renderer renderer.Renderer
	// Generation is the generation of the last applied rebuild.
	Generation uint64
	// Requested is the newest generation handed out by Configure.
	Requested uint64
	// Err is the error of the most recent failed rebuild, cleared by the next success.
	Err            error
	XRAvailable    bool
	XRActive       bool
	FramesRendered uint64
}

// RendererFactory acquires a renderer for a surface of the given size.
type RendererFactory func(width, height int) (renderer.Renderer, error)

// viewer implements the Viewer interface.
type viewer struct {
	mu      *sync.Mutex
	frameMu sync.Mutex
	wg      sync.WaitGroup

	phase   Phase
	options Options

	observer       window.ResizeObserver
	session        xr.Session
	loader         loader.Loader
	compositor     scene.Compositor
	ownsCompositor bool
	newRenderer    RendererFactory
	frameInterval  time.Duration
	wiggleInterval time.Duration
	profiling      bool

	renderer renderer.Renderer
	camera   camera.Camera
	scene    scene.Scene
	data     *stereo.StereoData
	lastErr  error

	requested uint64
	applied   uint64
	pending   *rebuildHandle

	ctx           context.Context
	cancel        context.CancelFunc
	cancelRebuild context.CancelFunc
	cancelWiggle  context.CancelFunc
	cancelWatch   context.CancelFunc
	watchedSource string
	stopResize    func()

	xrAvailable bool
	frames      atomic.Uint64
}

// Viewer displays one stereo photo and keeps it in sync with its Options.
type Viewer interface {
	// Attach acquires the renderer for the observer's current size, sets up the
	// camera, shows the placeholder or the configured source and starts the
	// render loop. Failing to acquire the renderer is the only fatal error.
	//
	// Parameters:
	//   - ctx: passed to the immersive session probe; the viewer outlives it
	//
	// Returns:
	//   - error: ErrAlreadyAttached, ErrDetached, or a renderer acquisition error
	Attach(ctx context.Context) error

	// Configure replaces the options and rebuilds the scene in the background.
	// Only the newest rebuild is applied; a failed rebuild keeps the previous scene.
	// A change to Wiggle or Watch alone restarts only those timers and returns an
	// already finished handle for the newest generation.
	//
	// Parameters:
	//   - opts: the new options
	//
	// Returns:
	//   - RebuildHandle: tracks the rebuild this call started
	Configure(opts Options) RebuildHandle

	// CurrentState returns a snapshot of the viewer.
	//
	// Returns:
	//   - State: the snapshot
	CurrentState() State

	// HandleKey reacts to a key press: arrows turn the view, D toggles the
	// wireframe, W toggles wiggle, V enters or exits the immersive session and
	// R reloads the source.
	//
	// Parameters:
	//   - keyCode: a common.Key* code
	HandleKey(keyCode uint32)

	// HandleDrag turns the view by a pointer drag.
	//
	// Parameters:
	//   - dx, dy: the drag delta in pixels
	HandleDrag(dx, dy float32)

	// RenderFrame draws one frame immediately on the calling goroutine.
	//
	// Returns:
	//   - error: ErrDetached or a renderer frame error
	RenderFrame() error

	// Detach stops the render loop and timers, ends the immersive session and
	// releases the renderer. It is safe to call more than once.
	Detach()
}

var _ Viewer = &viewer{}

// NewViewer creates a Viewer. Without options it renders headless into an
// 800x600 off-screen target, shows the placeholder and offers no immersive session.
//
// Parameters:
//   - options: functional options to configure the viewer
//
// Returns:
//   - Viewer: the viewer, in the Uninitialized phase
func NewViewer(options ...ViewerBuilderOption) Viewer {
	v := &viewer{
		mu:             &sync.Mutex{},
		phase:          PhaseUninitialized,
		frameInterval:  time.Second / DefaultFrameLimit,
		wiggleInterval: DefaultWiggleInterval,
		newRenderer: func(width, height int) (renderer.Renderer, error) {
			return renderer.NewRenderer(renderer.BackendTypeHeadless, width, height)
		},
	}
	for _, option := range options {
		option(v)
	}
	if v.observer == nil {
		v.observer = window.NewFixedSize(800, 600)
	}
	if v.session == nil {
		v.session = xr.None()
	}
	if v.loader == nil {
		v.loader = loader.NewLoader()
	}
	if v.compositor == nil {
		v.compositor = scene.NewCompositor()
		v.ownsCompositor = true
	}
	return v
}

// surfaceSize applies the 4:3 fallback for targets that have no height yet.
func surfaceSize(width, height int) (int, int) {
	width = max(width, 1)
	if height <= 0 {
		height = max(width*3/4, 1)
	}
	return width, height
}

func (v *viewer) Attach(ctx context.Context) error {
	v.mu.Lock()
	switch v.phase {
	case PhaseTornDown:
		v.mu.Unlock()
		return ErrDetached
	case PhaseUninitialized:
	default:
		v.mu.Unlock()
		return ErrAlreadyAttached
	}
	v.phase = PhaseInitialized
	v.mu.Unlock()

	width, height := surfaceSize(v.observer.Size())
	r, err := v.newRenderer(width, height)
	if err != nil {
		v.mu.Lock()
		if v.phase == PhaseInitialized {
			v.phase = PhaseUninitialized
		}
		v.mu.Unlock()
		return fmt.Errorf("acquire renderer: %w", err)
	}

	cam := camera.NewCamera(
		camera.WithFovDegrees(CameraFovDegrees),
		camera.WithNear(CameraNear),
		camera.WithFar(CameraFar),
		camera.WithAspect(float32(width)/float32(height)),
		camera.WithLayers(common.LayerLeft),
		camera.WithController(camera.NewLookController(camera.WithPosition(0, CameraHeight, 0))),
	)

	xrAvailable := v.session.Available(ctx)
	if xrAvailable {
		slog.Info("immersive session available")
	}

	placeholder := decoder.Placeholder()
	initial, err := v.compositor.Compose(ctx, placeholder, eye.Options{MaxTextureSize: r.MaxTextureSize()})
	if err != nil {
		slog.Error("failed to compose placeholder scene", "error", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase != PhaseInitialized {
		r.Release()
		return ErrDetached
	}

	v.renderer = r
	v.camera = cam
	v.scene = initial
	v.data = placeholder
	v.xrAvailable = xrAvailable
	v.ctx, v.cancel = context.WithCancel(context.WithoutCancel(ctx))

	v.stopResize = v.observer.OnResize(v.resize)

	v.phase = PhaseRendering
	v.wg.Add(1)
	go v.renderLoop(v.ctx)

	v.applyTimersLocked(v.options)
	if v.options != (Options{}) || v.pending != nil {
		h := v.pending
		if h == nil {
			v.requested++
			h = newRebuildHandle(v.requested)
		}
		v.pending = nil
		v.startRebuildLocked(h, v.options)
	}

	slog.Debug("viewer attached", "width", width, "height", height, "backend", r.BackendType().String())
	return nil
}

func (v *viewer) Configure(opts Options) RebuildHandle {
	return v.configure(opts, false)
}

// sceneOptions drops the options that do not affect the built scene.
func sceneOptions(opts Options) Options {
	opts.Wiggle, opts.Watch = false, false
	return opts
}

// configure applies opts. Without force, a rebuild only starts when an option
// that shapes the scene changed.
func (v *viewer) configure(opts Options, force bool) RebuildHandle {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase == PhaseTornDown {
		h := newRebuildHandle(v.requested)
		h.finish(ErrDetached)
		return h
	}

	if !force && v.phase == PhaseRendering && sceneOptions(opts) == sceneOptions(v.options) {
		v.options = opts
		v.applyTimersLocked(opts)
		h := newRebuildHandle(v.requested)
		h.finish(nil)
		return h
	}

	v.requested++
	h := newRebuildHandle(v.requested)
	v.options = opts

	if v.phase != PhaseRendering {
		// applied by Attach
		if v.pending != nil {
			v.pending.finish(ErrSuperseded)
		}
		v.pending = h
		return h
	}

	v.applyTimersLocked(opts)
	v.startRebuildLocked(h, opts)
	return h
}

// startRebuildLocked cancels any running rebuild and starts a new one.
func (v *viewer) startRebuildLocked(h *rebuildHandle, opts Options) {
	if v.cancelRebuild != nil {
		v.cancelRebuild()
	}
	ctx, cancel := context.WithCancel(v.ctx)
	v.cancelRebuild = cancel
	maxTexture := v.renderer.MaxTextureSize()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer cancel()
		data, sc, err := v.build(ctx, opts, maxTexture)
		v.finishRebuild(h, data, sc, err)
	}()
}

// build runs the load, detect, decode and compose pipeline.
func (v *viewer) build(ctx context.Context, opts Options, maxTexture int) (*stereo.StereoData, scene.Scene, error) {
	var data *stereo.StereoData
	if opts.Source == "" {
		data = decoder.Placeholder()
	} else {
		src, err := v.loader.Load(ctx, opts.Source)
		if err != nil {
			return nil, nil, err
		}
		sel := detector.Detect(src, opts.Layout, decoder.Options{Angle: opts.Angle, Projection: opts.Projection})
		slog.Debug("layout selected", "source", src.Name, "layout", sel.Layout.String(), "reason", sel.Reason.String())
		data, err = decoder.Decode(ctx, sel.Layout, src, sel.Options)
		if err != nil {
			return nil, nil, err
		}
	}

	sc, err := v.compositor.Compose(ctx, data, eye.Options{MaxTextureSize: maxTexture, Debug: opts.Debug})
	if err != nil {
		return nil, nil, err
	}
	return data, sc, nil
}

func (v *viewer) finishRebuild(h *rebuildHandle, data *stereo.StereoData, sc scene.Scene, err error) {
	v.mu.Lock()
	switch {
	case v.phase == PhaseTornDown:
		v.mu.Unlock()
		h.finish(ErrDetached)
		return
	case h.generation != v.requested:
		v.mu.Unlock()
		slog.Debug("discarding superseded rebuild", "generation", h.generation, "requested", v.requested)
		h.finish(ErrSuperseded)
		return
	case err != nil:
		v.lastErr = err
		v.mu.Unlock()
		slog.Error("failed to rebuild scene, keeping previous scene", "generation", h.generation, "error", err)
		h.finish(err)
		return
	}

	v.scene = sc
	v.data = data
	v.applied = h.generation
	v.lastErr = nil
	v.mu.Unlock()

	for _, w := range sc.Warnings() {
		slog.Warn("scene built with warnings", "warning", w)
	}
	slog.Debug("scene rebuilt", "generation", h.generation)
	h.finish(nil)
}

// applyTimersLocked starts or stops wiggle and file watching for opts.
func (v *viewer) applyTimersLocked(opts Options) {
	if opts.Wiggle && v.cancelWiggle == nil {
		ctx, cancel := context.WithCancel(v.ctx)
		v.cancelWiggle = cancel
		v.wg.Add(1)
		go v.wiggleLoop(ctx)
	} else if !opts.Wiggle && v.cancelWiggle != nil {
		v.cancelWiggle()
		v.cancelWiggle = nil
		v.camera.SetLayer(common.LayerLeft)
	}

	watch := opts.Watch && opts.Source != "" && loader.BackendTypeOf(opts.Source) == loader.BackendTypeFile
	if watch && v.watchedSource == opts.Source {
		return
	}
	if v.cancelWatch != nil {
		v.cancelWatch()
		v.cancelWatch = nil
		v.watchedSource = ""
	}
	if !watch {
		return
	}
	ctx, cancel := context.WithCancel(v.ctx)
	if err := v.loader.Watch(ctx, opts.Source, v.reload); err != nil {
		cancel()
		slog.Warn("cannot watch source", "source", opts.Source, "error", err)
		return
	}
	v.cancelWatch = cancel
	v.watchedSource = opts.Source
}

// reload rebuilds from the current options, refetching remote sources.
func (v *viewer) reload() {
	v.mu.Lock()
	opts := v.options
	v.mu.Unlock()
	if opts.Source != "" {
		v.loader.Invalidate(opts.Source)
	}
	v.configure(opts, true)
}

func (v *viewer) wiggleLoop(ctx context.Context) {
	defer v.wg.Done()
	ticker := time.NewTicker(v.wiggleInterval)
	defer ticker.Stop()

	layer := common.LayerLeft
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if layer == common.LayerLeft {
				layer = common.LayerRight
			} else {
				layer = common.LayerLeft
			}
			v.mu.Lock()
			if ctx.Err() == nil {
				v.camera.SetLayer(layer)
			}
			v.mu.Unlock()
		}
	}
}

func (v *viewer) resize(width, height int) {
	width, height = surfaceSize(width, height)
	v.mu.Lock()
	r, cam := v.renderer, v.camera
	v.mu.Unlock()
	if r == nil || cam == nil {
		return
	}
	r.Resize(width, height)
	cam.SetAspect(float32(width) / float32(height))
}

// renderLoop draws a frame per tick until ctx is cancelled.
func (v *viewer) renderLoop(ctx context.Context) {
	defer v.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var prof *profiler.Profiler
	if v.profiling {
		prof = profiler.NewProfiler()
	}

	ticker := time.NewTicker(v.frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.renderTick(); err != nil {
				if errors.Is(err, ErrDetached) || errors.Is(err, renderer.ErrRendererReleased) {
					return
				}
				slog.Warn("frame failed", "error", err)
			}
			if prof != nil {
				prof.Tick()
			}
		}
	}
}

// renderTick draws one frame. A panic while drawing fails only that frame.
func (v *viewer) renderTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("frame recovered from panic", "panic", r)
			err = fmt.Errorf("frame panicked: %v", r)
		}
	}()
	return v.RenderFrame()
}

func (v *viewer) RenderFrame() error {
	v.frameMu.Lock()
	defer v.frameMu.Unlock()

	v.mu.Lock()
	if v.phase != PhaseRendering {
		v.mu.Unlock()
		return ErrDetached
	}
	r, cam, sc := v.renderer, v.camera, v.scene
	v.mu.Unlock()

	cam.Update()
	if err := r.BeginFrame(); err != nil {
		return err
	}
	// no-op once EndFrame ran
	defer r.AbortFrame()

	full := r.Viewport()
	if v.session.Active() {
		for _, view := range v.session.Views() {
			vp := viewViewport(view, full)
			eyeCam := cam.WithLayer(view.Layer)
			eyeCam.SetAspect(vp.Aspect())
			r.Render(sc, eyeCam, vp)
		}
	} else {
		r.Render(sc, cam, full)
	}
	if err := r.EndFrame(); err != nil {
		return err
	}
	v.frames.Add(1)
	return nil
}

// viewViewport maps a view given in frame fractions onto pixels so that
// adjacent views share an edge exactly.
func viewViewport(view xr.View, full renderer.Viewport) renderer.Viewport {
	w, h := float64(full.Width), float64(full.Height)
	x0 := int(math.Round(float64(view.X) * w))
	x1 := int(math.Round(float64(view.X+view.Width) * w))
	y0 := int(math.Round(float64(view.Y) * h))
	y1 := int(math.Round(float64(view.Y+view.Height) * h))
	return renderer.Viewport{X: full.X + x0, Y: full.Y + y0, Width: x1 - x0, Height: y1 - y0}
}

func (v *viewer) HandleKey(keyCode uint32) {
	v.mu.Lock()
	cam := v.camera
	opts := v.options
	v.mu.Unlock()
	if cam == nil {
		return
	}

	ctrl := cam.Controller()
	switch keyCode {
	case common.KeyLeft:
		ctrl.TurnLeft()
	case common.KeyRight:
		ctrl.TurnRight()
	case common.KeyUp:
		ctrl.TurnUp()
	case common.KeyDown:
		ctrl.TurnDown()
	case common.KeyD:
		opts.Debug = !opts.Debug
		v.Configure(opts)
	case common.KeyW:
		opts.Wiggle = !opts.Wiggle
		v.Configure(opts)
	case common.KeyR:
		v.reload()
	case common.KeyV:
		v.toggleSession()
	}
}

func (v *viewer) toggleSession() {
	if v.session.Active() {
		v.session.Exit()
		return
	}
	v.mu.Lock()
	ctx := v.ctx
	v.mu.Unlock()
	if ctx == nil {
		return
	}
	if err := v.session.Enter(ctx); err != nil {
		slog.Warn("cannot enter immersive session", "error", err)
	}
}

func (v *viewer) HandleDrag(dx, dy float32) {
	v.mu.Lock()
	cam := v.camera
	v.mu.Unlock()
	if cam == nil {
		return
	}
	ctrl := cam.Controller()
	ctrl.SetYaw(ctrl.Yaw() + dx*dragRadiansPerPixel)
	ctrl.SetPitch(ctrl.Pitch() + dy*dragRadiansPerPixel)
}

func (v *viewer) CurrentState() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Phase:          v.phase,
		Options:        v.options,
		Data:           v.data,
		Scene:          v.scene,
		Camera:         v.camera,
		Renderer:       v.renderer,
		Generation:     v.applied,
		Requested:      v.requested,
		Err:            v.lastErr,
		XRAvailable:    v.xrAvailable,
		XRActive:       v.session.Active(),
		FramesRendered: v.frames.Load(),
	}
}

func (v *viewer) Detach() {
	v.mu.Lock()
	if v.phase == PhaseTornDown {
		v.mu.Unlock()
		return
	}
	v.phase = PhaseTornDown
	if v.cancel != nil {
		v.cancel()
	}
	if v.stopResize != nil {
		v.stopResize()
	}
	v.cancelWiggle, v.cancelWatch, v.cancelRebuild = nil, nil, nil
	if v.pending != nil {
		v.pending.finish(ErrDetached)
		v.pending = nil
	}
	r := v.renderer
	v.mu.Unlock()

	v.wg.Wait()
	v.session.Exit()
	if r != nil {
		r.Release()
	}
	if v.ownsCompositor {
		v.compositor.Close()
	}
	slog.Debug("viewer detached")
}
