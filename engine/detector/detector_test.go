package detector

import (
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/engine/decoder"
	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/Carmen-Shannon/oxy-stereo/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func TestExplicitHintWins(t *testing.T) {
	vr := fixture.VRPhoto(fixture.Solid(8, 8, red), fixture.Solid(8, 8, blue), nil)
	opts := decoder.Options{Angle: 120, Projection: stereo.ProjectionFisheye}

	for _, kind := range stereo.Layouts {
		sel := Detect(stereo.Source{Name: "IMG_PORTRAIT.JPG", Data: vr}, kind, opts)
		assert.Equal(t, kind, sel.Layout)
		assert.Equal(t, ReasonExplicit, sel.Reason)
		assert.Equal(t, opts, sel.Options)
		assert.NotNil(t, sel.Decoder())
	}
}

func TestDepthFilenameBeatsMetadata(t *testing.T) {
	vr := fixture.VRPhoto(fixture.Solid(8, 8, red), fixture.Solid(8, 8, blue), nil)

	for _, name := range []string{"PXL_20240101_PORTRAIT.jpg", "x.portrait.JPG", "https://example.com/a/b_Portrait.Jpg"} {
		sel := Detect(stereo.Source{Name: name, Data: vr}, stereo.LayoutAuto, decoder.Options{})
		assert.Equal(t, stereo.LayoutDepth, sel.Layout, name)
		assert.Equal(t, ReasonDepthFilename, sel.Reason, name)
	}

	sel := Detect(stereo.Source{Name: "portrait.jpeg", Data: vr}, stereo.LayoutAuto, decoder.Options{})
	assert.NotEqual(t, stereo.LayoutDepth, sel.Layout)
}

func TestVRMetadata(t *testing.T) {
	vr := fixture.VRPhoto(fixture.Solid(8, 8, red), fixture.Solid(8, 8, blue), nil)

	sel := Detect(stereo.Source{Name: "vr.jpg", Data: vr}, stereo.LayoutAuto, decoder.Options{})
	assert.Equal(t, stereo.LayoutVR, sel.Layout)
	assert.Equal(t, ReasonVRMetadata, sel.Reason)
}

func TestDefaultsToLeftRight(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain jpeg", fixture.JPEG(fixture.Solid(8, 8, red))},
		{"png", fixture.PNG(fixture.Solid(8, 8, red))},
		{"garbage", []byte{0xFF, 0xD8, 0xFF, 0xE1, 0xFF, 0xFF}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Detect(stereo.Source{Name: tt.name, Data: tt.data}, stereo.LayoutAuto, decoder.Options{})
			require.Equal(t, stereo.LayoutLeftRight, sel.Layout)
			assert.Equal(t, ReasonDefault, sel.Reason)
			assert.Equal(t, "default", sel.Reason.String())
		})
	}
}
