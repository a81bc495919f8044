package common

// Layer indices used by the stereo viewer. Layer 0 is the default layer every
// object and camera starts on.
const (
	LayerDefault = 0
	LayerLeft    = 1
	LayerRight   = 2
)

// Layers is a 32 bit visibility mask. An object is drawn by a camera only when
// the two masks share at least one enabled layer.
type Layers struct {
	Mask uint32
}

// NewLayers returns a mask with only the default layer enabled.
func NewLayers() Layers {
	return Layers{Mask: 1 << LayerDefault}
}

// Set replaces the mask so that only layer n is enabled.
//
// Parameters:
//   - n: the layer index in [0, 31]
func (l *Layers) Set(n int) {
	l.Mask = 1 << uint(n&31)
}

// Enable adds layer n to the mask.
//
// Parameters:
//   - n: the layer index in [0, 31]
func (l *Layers) Enable(n int) {
	l.Mask |= 1 << uint(n&31)
}

// Disable removes layer n from the mask.
func (l *Layers) Disable(n int) {
	l.Mask &^= 1 << uint(n&31)
}

// Test reports whether l and other share an enabled layer.
func (l Layers) Test(other Layers) bool {
	return l.Mask&other.Mask != 0
}

// IsEnabled reports whether layer n is enabled.
func (l Layers) IsEnabled(n int) bool {
	return l.Mask&(1<<uint(n&31)) != 0
}
