package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/light"
	"github.com/Carmen-Shannon/oxy-stereo/engine/model"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// Scene is one composed frame's worth of content: background, lights and the
// eye meshes built from a single StereoData. A scene is built once and then
// swapped in whole; a new decode produces a new scene.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Background returns the clear color as RGB in [0, 1].
	Background() [3]float32

	// Data returns the stereo data the scene was built from, or nil.
	Data() *stereo.StereoData

	// Warnings returns the non-fatal conditions collected while building the scene.
	Warnings() []error

	// AddLight adds a light to the scene.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// Lights returns every light in insertion order.
	Lights() []light.Light

	// Add appends meshes to the scene. Nil meshes are ignored.
	//
	// Parameters:
	//   - meshes: the meshes to add
	Add(meshes ...model.Mesh)

	// Meshes returns every mesh in insertion order.
	Meshes() []model.Mesh

	// Visible returns the meshes sharing a layer with mask.
	//
	// Parameters:
	//   - mask: the viewing camera's layers
	//
	// Returns:
	//   - []model.Mesh: the visible meshes in insertion order
	Visible(mask common.Layers) []model.Mesh

	// LightsFor returns the enabled lights sharing a layer with mask.
	//
	// Parameters:
	//   - mask: the viewing camera's layers
	//
	// Returns:
	//   - []light.Light: the contributing lights
	LightsFor(mask common.Layers) []light.Light
}

type scene struct {
	mu *sync.RWMutex

	name       string
	background [3]float32
	data       *stereo.StereoData
	warnings   []error
	lights     []light.Light
	meshes     []model.Mesh
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates an empty scene with a black background.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:   &sync.RWMutex{},
		name: name,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Background() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *scene) Data() *stereo.StereoData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *scene) Warnings() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]error(nil), s.warnings...)
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]light.Light(nil), s.lights...)
}

func (s *scene) Add(meshes ...model.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meshes {
		if m != nil {
			s.meshes = append(s.meshes, m)
		}
	}
}

func (s *scene) Meshes() []model.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Mesh(nil), s.meshes...)
}

func (s *scene) Visible(mask common.Layers) []model.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Mesh, 0, len(s.meshes))
	for _, m := range s.meshes {
		if m.Layers().Test(mask) {
			out = append(out, m)
		}
	}
	return out
}

func (s *scene) LightsFor(mask common.Layers) []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, 0, len(s.lights))
	for _, l := range s.lights {
		if l.Enabled() && l.Layers().Test(mask) {
			out = append(out, l)
		}
	}
	return out
}
