package stereo

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholder(t *testing.T) {
	d := Placeholder()
	require.NoError(t, d.Validate())

	assert.Equal(t, 10, d.LeftEye.Width())
	assert.Equal(t, 10, d.LeftEye.Height())
	assert.Equal(t, 10, d.RightEye.Width())
	assert.Equal(t, 10, d.RightEye.Height())
	assert.Zero(t, d.PhiLength)
	assert.Zero(t, d.ThetaStart)
	assert.Zero(t, d.ThetaLength)
	assert.Nil(t, d.Depth)
	assert.Equal(t, color.RGBA{A: 0xff}, d.LeftEye.RGBAAt(5, 5))
}

func TestValidate(t *testing.T) {
	var nilData *StereoData
	err := nilData.Validate()
	assert.ErrorIs(t, err, ErrInvalidStereoData)

	d := Placeholder()
	d.RightEye = nil
	err = d.Validate()
	var invalid *InvalidStereoDataError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "right eye")

	d = Placeholder()
	d.ThetaLength = 4
	assert.ErrorIs(t, d.Validate(), ErrInvalidStereoData)
}

func TestClampFieldOfView(t *testing.T) {
	d := &StereoData{PhiLength: 10, ThetaLength: -1, ThetaStart: 5}
	d.ClampFieldOfView()
	assert.InDelta(t, 2*math.Pi, d.PhiLength, 1e-9)
	assert.Zero(t, d.ThetaLength)
	assert.InDelta(t, math.Pi, d.ThetaStart, 1e-9)
}

func TestNormalizeResamplesDepth(t *testing.T) {
	d := Placeholder()
	d.LeftEye = NewImageBuffer(40, 20)
	d.RightEye = NewImageBuffer(40, 20)
	d.Depth = GrayBufferFrom(image.NewGray(image.Rect(0, 0, 8, 4)))

	d.Normalize()
	assert.Equal(t, 40, d.Depth.Width())
	assert.Equal(t, 20, d.Depth.Height())
}

func TestGrayBufferSample(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	g.SetGray(0, 0, color.Gray{Y: 255})
	buf := GrayBufferFrom(g)

	assert.InDelta(t, 1, buf.Sample(0, 1), 1e-6)
	assert.InDelta(t, 0, buf.Sample(0.9, 0.1), 1e-6)
	assert.InDelta(t, 1, buf.Sample(-5, 5), 1e-6)
}

func TestParseLayoutKind(t *testing.T) {
	for _, k := range Layouts {
		parsed, err := ParseLayoutKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.True(t, parsed.IsExplicit())
	}

	k, err := ParseLayoutKind("  Left-Right ")
	require.NoError(t, err)
	assert.Equal(t, LayoutLeftRight, k)

	k, err = ParseLayoutKind("")
	require.NoError(t, err)
	assert.Equal(t, LayoutAuto, k)
	assert.False(t, k.IsExplicit())

	_, err = ParseLayoutKind("cross-eyed")
	assert.Error(t, err)
}

func TestParseProjection(t *testing.T) {
	p, err := ParseProjection("FISHEYE")
	require.NoError(t, err)
	assert.Equal(t, ProjectionFisheye, p)

	p, err = ParseProjection("")
	require.NoError(t, err)
	assert.Equal(t, ProjectionEquirectangular, p)

	_, err = ParseProjection("cubemap")
	assert.Error(t, err)
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("truncated")
	err := error(NewDecodeError(LayoutVR, "a.jpg", cause))
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "vr")

	var w error = &TextureSizeExceededWarning{Width: 9000, Height: 10, NewWidth: 8192, NewHeight: 9, Max: 8192}
	assert.ErrorIs(t, w, ErrTextureSizeExceeded)
	assert.NotErrorIs(t, w, ErrUnsupportedProjection)

	w = &UnsupportedProjectionWarning{Projection: ProjectionFisheye}
	assert.ErrorIs(t, w, ErrUnsupportedProjection)
}
