package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// MeshSource is the WGSL source of the textured mesh and wireframe pipelines.
// It holds both the vertex and the fragment entry point.
//
//go:embed assets/mesh.wgsl
var MeshSource string

// ShaderType identifies the pipeline stage a shader is used for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// ErrNoEntryPoint is returned when the source has no entry point for the shader type.
var ErrNoEntryPoint = errors.New("shader has no entry point for its stage")

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed and parsed WGSL shader stage. It exposes the data
// the backend needs to build a pipeline: entry point, vertex buffer layouts,
// bind group layouts and the role of each binding.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the expanded WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// VertexLayouts retrieves the vertex buffer layouts in buffer slot order.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per vertex input struct
	VertexLayouts() []wgpu.VertexBufferLayout

	// EntryPoint returns the entry point name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// Module returns the shader module descriptor built from the expanded source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Declarations returns the group and provider directives found in the source.
	//
	// Returns:
	//   - []Annotation: directives in source order
	Declarations() []Annotation

	// Binding finds the group and binding declared for a role.
	//
	// Parameters:
	//   - identity: the provider identity or struct type, e.g. AnnotationArgMaterial
	//   - role: the binding role, or "" for a group directive
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: false if no directive matches
	Binding(identity, role AnnotationArg) (int, int, bool)
}

var _ Shader = &shader{}

// NewShader pre-processes and parses WGSL source for one stage.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the shader is used for
//   - source: the raw WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: a pre-processor error, or ErrNoEntryPoint
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		pp:         NewPreProcessor(),
	}
	expanded, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = expanded
	s.entryPoint = parseEntryPoint(expanded, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: %w", key, ErrNoEntryPoint)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: expanded},
	}

	visibility := wgpu.ShaderStageFragment
	if shaderType == ShaderTypeVertex {
		visibility = wgpu.ShaderStageVertex
		s.vertexLayouts = parseVertexLayouts(expanded)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(expanded, visibility)
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(s.vertexLayouts))
	for i := 0; i < len(s.vertexLayouts); i++ {
		out = append(out, s.vertexLayouts[i]...)
	}
	return out
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) Binding(identity, role AnnotationArg) (int, int, bool) {
	for _, a := range s.pp.Declarations() {
		switch a.Type {
		case AnnotationTypeBindingGroup:
			if role == "" && a.Args[2] == identity {
				return *a.Group, *a.Binding, true
			}
		case AnnotationTypeProvider:
			if a.Args[0] == identity && a.Args[1] == role {
				return *a.Group, *a.Binding, true
			}
		}
	}
	return 0, 0, false
}

// MergeBindGroupLayouts combines the bind group layouts of two stages. Bindings
// declared by both stages get the union of their visibilities.
//
// Parameters:
//   - vertexLayouts: the vertex stage layouts
//   - fragmentLayouts: the fragment stage layouts
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: merged layouts keyed by group index
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, layouts := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range layouts {
			existing, ok := merged[g]
			if !ok {
				entries := append([]wgpu.BindGroupLayoutEntry(nil), desc.Entries...)
				merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}
				continue
			}
			for _, e := range desc.Entries {
				found := false
				for i := range existing.Entries {
					if existing.Entries[i].Binding == e.Binding {
						existing.Entries[i].Visibility |= e.Visibility
						found = true
						break
					}
				}
				if !found {
					existing.Entries = append(existing.Entries, e)
				}
			}
			sortEntries(existing.Entries)
			merged[g] = existing
		}
	}
	return merged
}
