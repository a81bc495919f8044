package renderer

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType          RendererBackendType
	backend              RendererBackend
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	maxTextureSize       int

	width, height int
	pendingSize   *[2]int

	inFrame  bool
	released bool
}

// Renderer draws scenes into frames through its backend. The headless backend
// rasterizes on the CPU. The WGPU backend draws the meshes on the GPU and
// presents to a window surface.
//
// A frame is produced by BeginFrame, one or more Render calls into viewports
// of the frame, and EndFrame or AbortFrame. Resize may be called from any
// goroutine and is applied at the next BeginFrame.
type Renderer interface {
	// BackendType reports which backend presents the frames.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// MaxTextureSize reports the largest texture edge the renderer accepts.
	//
	// Returns:
	//   - int: the limit in pixels
	MaxTextureSize() int

	// Size returns the current frame size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// Viewport returns the viewport covering the whole frame.
	//
	// Returns:
	//   - Viewport: the full frame viewport
	Viewport() Viewport

	// Resize requests a new frame size. Sizes below one pixel are raised to one.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetPresentMode forwards the present mode to the backend.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame starts a new frame, applying any pending resize.
	//
	// Returns:
	//   - error: ErrFrameInProgress or ErrRendererReleased
	BeginFrame() error

	// Render clears the viewport to the scene background and draws the meshes
	// visible to the camera's layers into it.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - cam: the camera to draw with
	//   - vp: the target region of the frame
	Render(s scene.Scene, cam camera.Camera, vp Viewport)

	// EndFrame finishes the frame, presents it through the backend and makes it
	// available from Frame.
	//
	// Returns:
	//   - error: ErrNoFrame or the backend's present error
	EndFrame() error

	// AbortFrame drops the open frame without presenting it. It is a no-op when
	// no frame is open.
	AbortFrame()

	// Frame returns a copy of the last finished frame. It is nil before the first
	// frame and always nil for the WGPU backend, which keeps no CPU side copy.
	//
	// Returns:
	//   - *image.RGBA: the frame copy
	Frame() *image.RGBA

	// Release frees the backend. Further frames are refused.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the given backend type and initial frame size.
// Acquiring the WGPU backend can fail when no adapter or surface is available.
//
// Parameters:
//   - backendType: the backend that presents frames
//   - width: initial frame width in pixels
//   - height: initial frame height in pixels
//   - options: functional options applied before the backend is created
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the backend could not be acquired
func NewRenderer(backendType RendererBackendType, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
	}
	for _, option := range options {
		option(r)
	}

	switch backendType {
	case BackendTypeHeadless:
		r.backend = newHeadlessRendererBackend(r.maxTextureSize)
	case BackendTypeWGPU:
		if r.surfaceDescriptor == nil {
			return nil, ErrNoSurface
		}
		b, err := newWGPURendererBackend(r.surfaceDescriptor, r.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("acquire wgpu backend: %w", err)
		}
		r.backend = b
	default:
		return nil, ErrUnknownBackend
	}

	if r.maxTextureSize <= 0 || r.maxTextureSize > r.backend.MaxTextureSize() {
		r.maxTextureSize = r.backend.MaxTextureSize()
	}
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
		r.pendingPresentMode = nil
	}

	r.width, r.height = max(width, 1), max(height, 1)
	r.backend.ConfigureSurface(r.width, r.height)

	slog.Debug("renderer acquired", "backend", backendType.String(), "width", r.width, "height", r.height, "maxTextureSize", r.maxTextureSize)
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) MaxTextureSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxTextureSize
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingSize != nil {
		return r.pendingSize[0], r.pendingSize[1]
	}
	return r.width, r.height
}

func (r *renderer) Viewport() Viewport {
	w, h := r.Size()
	return Viewport{Width: w, Height: h}
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := [2]int{max(width, 1), max(height, 1)}
	r.pendingSize = &size
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend != nil {
		r.backend.SetPresentMode(mode)
	}
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrRendererReleased
	}
	if r.inFrame {
		return ErrFrameInProgress
	}

	if r.pendingSize != nil {
		w, h := r.pendingSize[0], r.pendingSize[1]
		r.pendingSize = nil
		if w != r.width || h != r.height {
			r.width, r.height = w, h
			r.backend.ConfigureSurface(w, h)
		}
	}
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.inFrame = true
	return nil
}

func (r *renderer) Render(s scene.Scene, cam camera.Camera, vp Viewport) {
	if s == nil || cam == nil || vp.Empty() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return
	}
	if err := r.backend.DrawScene(s, cam, vp); err != nil {
		slog.Warn("draw scene failed", "backend", r.backendType.String(), "scene", s.Name(), "error", err)
	}
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	r.inFrame = false
	return r.backend.EndFrame()
}

func (r *renderer) AbortFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return
	}
	r.inFrame = false
	r.backend.AbortFrame()
}

func (r *renderer) Frame() *image.RGBA {
	return r.backend.Frame()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.inFrame = false
	r.backend.Release()
	slog.Debug("renderer released", "backend", r.backendType.String())
}
