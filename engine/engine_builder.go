package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-stereo/engine/loader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/Carmen-Shannon/oxy-stereo/engine/window"
	"github.com/Carmen-Shannon/oxy-stereo/engine/xr"
)

// ViewerBuilderOption is a functional option for configuring a Viewer.
// Use the With* functions to create options that are applied directly to the viewer instance.
type ViewerBuilderOption func(*viewer)

// WithObserver sets the render target whose size the viewer follows.
//
// Parameters:
//   - observer: a window or off-screen target
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithObserver(observer window.ResizeObserver) ViewerBuilderOption {
	return func(v *viewer) {
		v.observer = observer
	}
}

// WithSession sets the immersive session offered on Attach.
//
// Parameters:
//   - session: the session; nil keeps xr.None()
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithSession(session xr.Session) ViewerBuilderOption {
	return func(v *viewer) {
		v.session = session
	}
}

// WithLoader sets the loader used to fetch sources.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithLoader(l loader.Loader) ViewerBuilderOption {
	return func(v *viewer) {
		v.loader = l
	}
}

// WithCompositor shares a compositor with the viewer. A shared compositor is
// not closed by Detach.
//
// Parameters:
//   - c: the compositor
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithCompositor(c scene.Compositor) ViewerBuilderOption {
	return func(v *viewer) {
		v.compositor = c
		v.ownsCompositor = false
	}
}

// WithRendererFactory sets how the renderer is acquired on Attach.
//
// Parameters:
//   - factory: called once with the initial surface size
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithRendererFactory(factory RendererFactory) ViewerBuilderOption {
	return func(v *viewer) {
		if factory != nil {
			v.newRenderer = factory
		}
	}
}

// WithFrameLimit sets the render loop rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithFrameLimit(fps float64) ViewerBuilderOption {
	return func(v *viewer) {
		if fps <= 0 {
			fps = DefaultFrameLimit
		}
		v.frameInterval = time.Duration(float64(time.Second) / fps)
	}
}

// WithWiggleInterval sets how long each eye is shown in wiggle mode.
func WithWiggleInterval(d time.Duration) ViewerBuilderOption {
	return func(v *viewer) {
		if d > 0 {
			v.wiggleInterval = d
		}
	}
}

// WithProfiling enables or disables frame statistics at debug level.
//
// Parameters:
//   - enabled: if true, the render loop runs a profiler
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithProfiling(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.profiling = enabled
	}
}

// WithOptions sets the options applied on Attach.
//
// Parameters:
//   - opts: the initial options
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithOptions(opts Options) ViewerBuilderOption {
	return func(v *viewer) {
		v.options = opts
	}
}
