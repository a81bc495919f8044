package scene

import (
	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithBackground sets the clear color from a 0xRRGGBB value.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(hex uint32) SceneBuilderOption {
	return func(s *scene) {
		s.background = common.HexColor(hex)
	}
}

// WithData records the stereo data the scene is built from.
//
// Parameters:
//   - data: the decoded stereo data
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithData(data *stereo.StereoData) SceneBuilderOption {
	return func(s *scene) {
		s.data = data
	}
}

// WithWarnings attaches non-fatal build warnings to the scene.
//
// Parameters:
//   - warnings: the warnings to keep
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWarnings(warnings ...error) SceneBuilderOption {
	return func(s *scene) {
		s.warnings = append(s.warnings, warnings...)
	}
}
