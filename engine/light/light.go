package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/common"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeAmbient lights every surface equally regardless of orientation.
	LightTypeAmbient LightType = iota

	// LightTypeDirectional represents a light with no position, only direction.
	// Surfaces are lit by the cosine between their normal and the light.
	LightTypeDirectional
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType LightType
	direction [3]float32
	color     [3]float32
	intensity float32
	enabled   bool
	layers    common.Layers
}

// Light defines the interface for a light source in the scene.
//
// Lights carry a layer mask like meshes do: a camera only receives light from
// sources that share one of its layers.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Direction returns the normalized direction the light travels in.
	// Meaningless for ambient lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Enabled returns whether this light contributes to rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// Layers returns the layer mask of the light.
	//
	// Returns:
	//   - common.Layers: the layer mask
	Layers() common.Layers

	// Irradiance returns the diffuse light reaching a Lambertian surface with
	// the given unit normal, already divided by π.
	//
	// Parameters:
	//   - normal: the surface normal in world space
	//
	// Returns:
	//   - [3]float32: the RGB contribution
	Irradiance(normal [3]float32) [3]float32

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components in [0, 1]
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the new intensity
	SetIntensity(intensity float32)

	// SetEnabled toggles the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// EnableLayer adds layer n to the light's mask.
	//
	// Parameters:
	//   - n: the layer index
	EnableLayer(n int)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type. Defaults are white, intensity
// 1, enabled, on the default layer, pointing down -Y.
//
// Parameters:
//   - lightType: the kind of light
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the constructed light
func NewLight(lightType LightType, options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		lightType: lightType,
		direction: [3]float32{0, -1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1,
		enabled:   true,
		layers:    common.NewLayers(),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// NewAmbientLight creates an ambient light.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the constructed ambient light
func NewAmbientLight(options ...LightBuilderOption) Light {
	return NewLight(LightTypeAmbient, options...)
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) Layers() common.Layers {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.layers
}

func (l *lightImpl) Irradiance(normal [3]float32) [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return [3]float32{}
	}
	k := l.intensity / math.Pi
	if l.lightType == LightTypeDirectional {
		// light arrives from -direction
		dot := -(normal[0]*l.direction[0] + normal[1]*l.direction[1] + normal[2]*l.direction[2])
		k *= max(dot, 0)
	}
	return [3]float32{l.color[0] * k, l.color[1] * k, l.color[2] * k}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) EnableLayer(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.layers.Enable(n)
}
