package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks a pre-processor directive. Directives usually sit in a
// WGSL line comment so the raw file stays valid WGSL.
const annotationPrefix = "@stereo:"

// AnnotationType identifies the directive kind.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered struct definition.
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup emits a @group/@binding buffer declaration.
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider emits nothing but names the role of the next
	// declaration so the backend can bind the right resource to it.
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is one parsed directive.
type Annotation struct {
	Type AnnotationType

	// Args holds the directive arguments after group and binding numbers.
	//   include:  [struct]
	//   group:    [address space, variable name, struct]
	//   provider: [identity, role]
	Args []AnnotationArg

	Line int

	Group   *int
	Binding *int
}

// AnnotationArg is a single directive argument.
type AnnotationArg string

// Struct types.
const (
	AnnotationArgView   AnnotationArg = "view"
	AnnotationArgMesh   AnnotationArg = "mesh"
	annotationArgVertex AnnotationArg = "vertex"
)

// Address spaces.
const (
	annotationArgUniform     AnnotationArg = "uniform"
	annotationArgStorageRead AnnotationArg = "storage_read"
)

// Provider identities.
const (
	AnnotationArgMaterial AnnotationArg = "material"
)

// Binding roles.
const (
	AnnotationArgColorMap        AnnotationArg = "color_map"
	AnnotationArgColorSampler    AnnotationArg = "color_sampler"
	AnnotationArgDisplacementMap AnnotationArg = "displacement_map"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgView,
	AnnotationArgMesh,
	annotationArgVertex,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgUniform,
	annotationArgStorageRead,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgView,
	AnnotationArgMaterial,
}

var validBindingRoles = []AnnotationArg{
	AnnotationArgColorMap,
	AnnotationArgColorSampler,
	AnnotationArgDisplacementMap,
}

// parseAnnotation parses a directive from a source line.
//
// Parameters:
//   - line: the source line
//   - lineNum: the 1-based line number used in errors
//
// Returns:
//   - *Annotation: the directive, or nil when the line carries none
//   - error: an error for a malformed directive
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}
	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: include takes exactly one struct type", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil

	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: group takes group, binding, address space, name and struct type", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	case AnnotationTypeProvider:
		if len(args) != 5 {
			return nil, fmt.Errorf("line %d: provider takes group, binding, identity and role", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q", lineNum, args[3])
		}
		if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
			return nil, fmt.Errorf("line %d: unknown binding role %q", lineNum, args[4])
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	default:
		return nil, fmt.Errorf("line %d: unknown annotation %q", lineNum, args[0])
	}
}

func parseSlot(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, bindingArg)
	}
	return group, binding, nil
}
