package renderer

import (
	"errors"
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
)

// RendererBackendType identifies where the Renderer presents finished frames.
type RendererBackendType int

const (
	// BackendTypeHeadless rasterizes on the CPU and keeps frames in memory. Used for snapshots, the
	// HTTP render endpoint and tests.
	BackendTypeHeadless RendererBackendType = iota

	// BackendTypeWGPU draws meshes with WebGPU and presents to a window surface.
	BackendTypeWGPU
)

// String returns the configuration name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return "headless"
	}
}

// ParseBackendType maps a configuration name to a RendererBackendType.
// An empty name selects the headless backend.
//
// Parameters:
//   - name: "headless", "wgpu" or ""
//
// Returns:
//   - RendererBackendType: the matching type
//   - error: ErrUnknownBackend for any other name
func ParseBackendType(name string) (RendererBackendType, error) {
	switch name {
	case "", "headless":
		return BackendTypeHeadless, nil
	case "wgpu":
		return BackendTypeWGPU, nil
	default:
		return BackendTypeHeadless, ErrUnknownBackend
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// DefaultMaxTextureSize is the texture edge limit reported by backends without a GPU adapter.
const DefaultMaxTextureSize = 8192

var (
	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown renderer backend")

	// ErrNoSurface is returned when the WGPU backend is requested without a surface.
	ErrNoSurface = errors.New("wgpu backend requires a window surface")

	// ErrFrameInProgress is returned by BeginFrame when the previous frame was not ended.
	ErrFrameInProgress = errors.New("previous frame not yet presented")

	// ErrNoFrame is returned by EndFrame without a matching BeginFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrRendererReleased is returned by frame operations after Release.
	ErrRendererReleased = errors.New("renderer released")
)

// RendererBackend draws scenes into frames and presents them.
//
// Frame lifecycle: BeginFrame, DrawScene once per viewport, then EndFrame or
// AbortFrame. The Renderer serializes these calls.
type RendererBackend interface {
	// MaxTextureSize reports the largest texture edge, in pixels, the backend can hold.
	//
	// Returns:
	//   - int: the limit in pixels
	MaxTextureSize() int

	// ConfigureSurface is called whenever the frame size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the frame target.
	//
	// Returns:
	//   - error: an error if no target could be acquired
	BeginFrame() error

	// DrawScene clears the viewport to the scene background and draws the meshes
	// visible to the camera's layers into it.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - cam: the camera to draw with
	//   - vp: the target region of the frame
	//
	// Returns:
	//   - error: an error if the draw could not be recorded
	DrawScene(s scene.Scene, cam camera.Camera, vp Viewport) error

	// EndFrame finishes and presents the frame.
	//
	// Returns:
	//   - error: an error if the frame could not be presented
	EndFrame() error

	// AbortFrame drops the open frame without presenting it.
	AbortFrame()

	// Frame returns a copy of the last presented frame, or nil when the backend
	// keeps no CPU side copy.
	//
	// Returns:
	//   - *image.RGBA: the frame copy or nil
	Frame() *image.RGBA

	// Release frees backend resources. Further calls are no-ops.
	Release()
}

// headlessRendererBackend rasterizes on the CPU and keeps the last frame in memory.
type headlessRendererBackend struct {
	mu             *sync.Mutex
	maxTextureSize int
	presented      int
	width, height  int

	back  *framebuffer
	front *image.RGBA
}

var _ RendererBackend = &headlessRendererBackend{}

func newHeadlessRendererBackend(maxTextureSize int) *headlessRendererBackend {
	if maxTextureSize <= 0 {
		maxTextureSize = DefaultMaxTextureSize
	}
	return &headlessRendererBackend{
		mu:             &sync.Mutex{},
		maxTextureSize: maxTextureSize,
		width:          1,
		height:         1,
	}
}

func (b *headlessRendererBackend) MaxTextureSize() int {
	return b.maxTextureSize
}

func (b *headlessRendererBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	b.back = nil
}

func (b *headlessRendererBackend) SetPresentMode(mode PresentMode) {}

func (b *headlessRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.back == nil {
		b.back = newFramebuffer(b.width, b.height)
	}
	return nil
}

func (b *headlessRendererBackend) DrawScene(s scene.Scene, cam camera.Camera, vp Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.back == nil {
		return ErrNoFrame
	}
	newRasterizer(b.back, vp).drawScene(s, cam)
	return nil
}

func (b *headlessRendererBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.back == nil {
		return ErrNoFrame
	}
	if b.front == nil || b.front.Rect != b.back.color.Rect {
		b.front = image.NewRGBA(b.back.color.Rect)
	}
	copy(b.front.Pix, b.back.color.Pix)
	b.presented++
	return nil
}

// AbortFrame keeps the back buffer. Every viewport is cleared before it is drawn.
func (b *headlessRendererBackend) AbortFrame() {}

func (b *headlessRendererBackend) Frame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.front == nil {
		return nil
	}
	out := image.NewRGBA(b.front.Rect)
	copy(out.Pix, b.front.Pix)
	return out
}

func (b *headlessRendererBackend) Release() {}
