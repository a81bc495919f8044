package xr

// SideBySideOption configures a side-by-side Session.
type SideBySideOption func(*sideBySide)

// WithCrossEyed swaps the halves so the left eye is drawn on the right, for
// free viewing with crossed eyes.
//
// Parameters:
//   - crossEyed: true to swap the halves
//
// Returns:
//   - SideBySideOption: option function to apply
func WithCrossEyed(crossEyed bool) SideBySideOption {
	return func(s *sideBySide) {
		s.crossEyed = crossEyed
	}
}
