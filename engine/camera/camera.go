package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	layers common.Layers

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller LookController
}

// Camera defines the interface for the perspective camera.
// The camera holds perspective settings and a layer mask, and computes
// view/projection matrices from its LookController on Update().
type Camera interface {
	// Up returns the camera's up vector.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Layers returns the layer mask; only objects sharing a layer are drawn.
	//
	// Returns:
	//   - common.Layers: the layer mask
	Layers() common.Layers

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Controller returns the attached LookController.
	//
	// Returns:
	//   - LookController: the controller
	Controller() LookController

	// Update reads position/target from the controller and recomputes matrices.
	// Should be called once per frame.
	Update()

	// SetFov sets the vertical field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetLayers replaces the whole layer mask.
	//
	// Parameters:
	//   - layers: the new mask
	SetLayers(layers common.Layers)

	// SetLayer makes layer n the only enabled layer.
	//
	// Parameters:
	//   - n: the layer index
	SetLayer(n int)

	// EnableLayer adds layer n to the mask.
	//
	// Parameters:
	//   - n: the layer index
	EnableLayer(n int)

	// WithLayer returns a camera sharing this camera's controller and
	// projection but seeing only layer n.
	//
	// Parameters:
	//   - n: the layer index
	//
	// Returns:
	//   - Camera: the derived camera
	WithLayer(n int) Camera
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings and a
// LookController at the origin, unless one is supplied with WithController.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0), // radians
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
		layers: common.NewLayers(),
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewLookController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Layers() common.Layers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layers
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Controller() LookController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetLayers(layers common.Layers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers = layers
}

func (c *cameraImpl) SetLayer(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers.Set(n)
}

func (c *cameraImpl) EnableLayer(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers.Enable(n)
}

func (c *cameraImpl) WithLayer(n int) Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := &cameraImpl{
		mu:         &sync.Mutex{},
		up:         c.up,
		fov:        c.fov,
		aspect:     c.aspect,
		near:       c.near,
		far:        c.far,
		controller: c.controller,
	}
	d.layers.Set(n)
	d.updateMatrices()
	return d
}

// updateMatrices recalculates the view, projection and view-projection matrices
// from the controller. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}

	px, py, pz := c.controller.Position()
	tx, ty, tz := c.controller.Target()

	common.LookAt(c.viewMatrix[:],
		px, py, pz,
		tx, ty, tz,
		c.up[0], c.up[1], c.up[2],
	)

	common.Perspective(c.projectionMatrix[:],
		c.fov, c.aspect, c.near, c.far,
	)

	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
