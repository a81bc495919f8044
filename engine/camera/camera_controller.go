package camera

import (
	"math"
	"sync"
)

// maxLookPitch keeps the view direction off the poles where LookAt degenerates.
const maxLookPitch = math.Pi/2 - 0.01

// lookControllerImpl is the implementation of LookController. The eye stays at
// a fixed position and the target is derived from yaw and pitch.
type lookControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	yaw      float32 // around +Y, 0 looks down -Z
	pitch    float32 // above the horizon, clamped to ±maxLookPitch

	turnSpeed float32
}

// LookController owns the camera position and view direction. It provides
// first-person look-around controls; the viewer sits at the center of the
// photo sphere so there is nothing to orbit.
type LookController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// SetPosition sets the camera's world-space position.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Target returns a point one unit along the view direction.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// Yaw returns the heading around +Y in radians.
	//
	// Returns:
	//   - float32: the yaw
	Yaw() float32

	// Pitch returns the elevation above the horizon in radians.
	//
	// Returns:
	//   - float32: the pitch
	Pitch() float32

	// SetYaw sets the heading, wrapped to [-π, π].
	//
	// Parameters:
	//   - yaw: heading in radians
	SetYaw(yaw float32)

	// SetPitch sets the elevation, clamped just short of straight up or down.
	//
	// Parameters:
	//   - pitch: elevation in radians
	SetPitch(pitch float32)

	// TurnLeft rotates the view left by one turn speed step.
	TurnLeft()

	// TurnRight rotates the view right by one turn speed step.
	TurnRight()

	// TurnUp tilts the view up by one turn speed step.
	TurnUp()

	// TurnDown tilts the view down by one turn speed step.
	TurnDown()

	// TurnSpeed returns the step applied by the Turn methods in radians.
	//
	// Returns:
	//   - float32: the turn step
	TurnSpeed() float32

	// Reset looks straight ahead down -Z.
	Reset()
}

var _ LookController = &lookControllerImpl{}

// NewLookController creates a controller at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - LookController: the newly created controller
func NewLookController(options ...LookControllerOption) LookController {
	lc := &lookControllerImpl{
		mu:        &sync.Mutex{},
		turnSpeed: math.Pi / 90,
	}
	for _, option := range options {
		option(lc)
	}
	lc.pitch = clampPitch(lc.pitch)
	lc.yaw = wrapYaw(lc.yaw)
	return lc
}

func (lc *lookControllerImpl) Position() (x, y, z float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.position[0], lc.position[1], lc.position[2]
}

func (lc *lookControllerImpl) SetPosition(x, y, z float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.position = [3]float32{x, y, z}
}

func (lc *lookControllerImpl) Target() (x, y, z float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	cosPitch := float32(math.Cos(float64(lc.pitch)))
	sinPitch := float32(math.Sin(float64(lc.pitch)))
	cosYaw := float32(math.Cos(float64(lc.yaw)))
	sinYaw := float32(math.Sin(float64(lc.yaw)))
	return lc.position[0] - sinYaw*cosPitch,
		lc.position[1] + sinPitch,
		lc.position[2] - cosYaw*cosPitch
}

func (lc *lookControllerImpl) Yaw() float32 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.yaw
}

func (lc *lookControllerImpl) Pitch() float32 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.pitch
}

func (lc *lookControllerImpl) SetYaw(yaw float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.yaw = wrapYaw(yaw)
}

func (lc *lookControllerImpl) SetPitch(pitch float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.pitch = clampPitch(pitch)
}

func (lc *lookControllerImpl) TurnLeft() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.yaw = wrapYaw(lc.yaw + lc.turnSpeed)
}

func (lc *lookControllerImpl) TurnRight() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.yaw = wrapYaw(lc.yaw - lc.turnSpeed)
}

func (lc *lookControllerImpl) TurnUp() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.pitch = clampPitch(lc.pitch + lc.turnSpeed)
}

func (lc *lookControllerImpl) TurnDown() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.pitch = clampPitch(lc.pitch - lc.turnSpeed)
}

func (lc *lookControllerImpl) TurnSpeed() float32 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.turnSpeed
}

func (lc *lookControllerImpl) Reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.yaw, lc.pitch = 0, 0
}

func clampPitch(p float32) float32 {
	return min(max(p, -maxLookPitch), maxLookPitch)
}

func wrapYaw(y float32) float32 {
	w := math.Remainder(float64(y), 2*math.Pi)
	return float32(w)
}

// LookControllerOption is a function that configures a LookController during construction.
type LookControllerOption func(*lookControllerImpl)

// WithPosition sets the eye position.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - LookControllerOption: a function that sets the controller position
func WithPosition(x, y, z float32) LookControllerOption {
	return func(lc *lookControllerImpl) {
		lc.position = [3]float32{x, y, z}
	}
}

// WithYawPitch sets the initial view direction.
//
// Parameters:
//   - yaw: heading around +Y in radians
//   - pitch: elevation in radians
//
// Returns:
//   - LookControllerOption: a function that sets the view direction
func WithYawPitch(yaw, pitch float32) LookControllerOption {
	return func(lc *lookControllerImpl) {
		lc.yaw = yaw
		lc.pitch = pitch
	}
}

// WithTurnSpeed sets the step applied by the Turn methods.
//
// Parameters:
//   - speed: the step in radians
//
// Returns:
//   - LookControllerOption: a function that sets the turn speed
func WithTurnSpeed(speed float32) LookControllerOption {
	return func(lc *lookControllerImpl) {
		lc.turnSpeed = speed
	}
}
