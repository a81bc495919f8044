package scene

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/eye"
	"github.com/Carmen-Shannon/oxy-stereo/engine/light"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

const (
	// DefaultBackground is the clear color of a composed scene.
	DefaultBackground uint32 = 0xb8b804
	// DefaultAmbientColor and DefaultAmbientIntensity describe the single light
	// shared by both eyes.
	DefaultAmbientColor     uint32  = 0xffffff
	DefaultAmbientIntensity float32 = 3
)

// ErrCompositorClosed is returned by Compose after Close.
var ErrCompositorClosed = errors.New("compositor closed")

// Compositor turns StereoData into ready-to-render scenes.
type Compositor interface {
	// Compose builds both eyes in parallel and assembles them into a new scene
	// with the default background and ambient light. The scene is returned only
	// when both eyes succeed.
	//
	// Parameters:
	//   - ctx: cancels the composition before or after the eyes are built
	//   - data: the decoded stereo data
	//   - opts: texture limit and debug flag passed to each eye
	//
	// Returns:
	//   - Scene: the composed scene
	//   - error: the first eye error, ctx.Err(), or ErrCompositorClosed
	Compose(ctx context.Context, data *stereo.StereoData, opts eye.Options) (Scene, error)

	// Close stops the worker pool. Further Compose calls fail.
	Close()
}

type compositor struct {
	mu *sync.RWMutex

	closed  bool
	pool    worker.DynamicWorkerPool
	workers int
	taskID  atomic.Int64

	background       uint32
	ambientColor     uint32
	ambientIntensity float32
}

var _ Compositor = &compositor{}

// NewCompositor creates a Compositor backed by a worker pool.
//
// Parameters:
//   - options: functional options to configure the compositor
//
// Returns:
//   - Compositor: the new compositor
func NewCompositor(options ...CompositorBuilderOption) Compositor {
	c := &compositor{
		mu:               &sync.RWMutex{},
		workers:          2,
		background:       DefaultBackground,
		ambientColor:     DefaultAmbientColor,
		ambientIntensity: DefaultAmbientIntensity,
	}
	for _, option := range options {
		option(c)
	}
	// Initialize the pool after options so WithWorkers can override the default.
	c.pool = worker.NewDynamicWorkerPool(c.workers, 16, 1*time.Second)
	return c
}

func (c *compositor) Compose(ctx context.Context, data *stereo.StereoData, opts eye.Options) (Scene, error) {
	// held for the whole build so Close cannot stop the pool under a pending task
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrCompositorClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		results [2]*eye.Result
		errs    [2]error
	)
	for i, which := range []eye.Eye{eye.Left, eye.Right} {
		wg.Add(1)
		c.pool.SubmitTask(worker.Task{
			ID: int(c.taskID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				results[i], errs[i] = eye.Build(data, which, opts)
				return results[i], errs[i]
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs[0], errs[1]); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var warnings []error
	for _, r := range results {
		warnings = append(warnings, r.Warnings...)
	}
	s := NewScene("stereo",
		WithBackground(c.background),
		WithData(data),
		WithWarnings(warnings...),
	)
	s.AddLight(light.NewAmbientLight(
		light.WithHexColor(c.ambientColor),
		light.WithIntensity(c.ambientIntensity),
		light.WithLayers(common.LayerLeft, common.LayerRight),
	))
	for _, r := range results {
		s.Add(r.Mesh, r.Wireframe)
	}
	slog.Debug("scene composed", "meshes", len(s.Meshes()), "warnings", len(warnings))
	return s, nil
}

func (c *compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.pool.Stop()
}

// CompositorBuilderOption is a functional option for configuring a Compositor.
type CompositorBuilderOption func(c *compositor)

// WithWorkers sets the number of goroutines used to build eyes. Defaults to 2.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithWorkers(n int) CompositorBuilderOption {
	return func(c *compositor) {
		c.workers = max(n, 1)
	}
}

// WithSceneBackground overrides the background of composed scenes.
//
// Parameters:
//   - hex: the packed 0xRRGGBB color
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithSceneBackground(hex uint32) CompositorBuilderOption {
	return func(c *compositor) {
		c.background = hex
	}
}

// WithAmbient overrides the ambient light of composed scenes.
//
// Parameters:
//   - hex: the packed 0xRRGGBB color
//   - intensity: the light intensity
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithAmbient(hex uint32, intensity float32) CompositorBuilderOption {
	return func(c *compositor) {
		c.ambientColor = hex
		c.ambientIntensity = intensity
	}
}
