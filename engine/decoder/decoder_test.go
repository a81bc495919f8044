package decoder

import (
	"context"
	"encoding/base64"
	"image/color"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/Carmen-Shannon/oxy-stereo/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
	gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

func source(name string, data []byte) stereo.Source {
	return stereo.Source{Name: name, Data: data}
}

func wellFormed(kind stereo.LayoutKind) []byte {
	switch kind {
	case stereo.LayoutVR, stereo.LayoutVR180:
		return fixture.VRPhoto(fixture.Solid(32, 32, red), fixture.Solid(32, 32, blue), nil)
	case stereo.LayoutDepth:
		return fixture.DepthPhoto(fixture.Solid(32, 24, gray), fixture.Solid(8, 6, color.Gray{Y: 200}))
	case stereo.LayoutTopBottom, stereo.LayoutBottomTop:
		return fixture.PNG(fixture.Halves(32, 64, red, blue, true))
	default:
		return fixture.PNG(fixture.Halves(64, 32, red, blue, false))
	}
}

func TestEveryLayoutDecodesWellFormedFixture(t *testing.T) {
	for _, kind := range stereo.Layouts {
		t.Run(kind.String(), func(t *testing.T) {
			data, err := Decode(context.Background(), kind, source("fixture", wellFormed(kind)), Options{})
			require.NoError(t, err)
			require.NotNil(t, data.LeftEye)
			require.NotNil(t, data.RightEye)
			assert.Positive(t, data.LeftEye.Width())
			assert.Positive(t, data.LeftEye.Height())
			assert.Equal(t, data.LeftEye.Width(), data.RightEye.Width())
			assert.Equal(t, data.LeftEye.Height(), data.RightEye.Height())
		})
	}
}

func TestStereoSplitAndSwap(t *testing.T) {
	tests := []struct {
		name       string
		kind       stereo.LayoutKind
		vertical   bool
		leftColor  color.RGBA
		rightColor color.RGBA
	}{
		{"left-right", stereo.LayoutLeftRight, false, red, blue},
		{"right-left", stereo.LayoutRightLeft, false, blue, red},
		{"top-bottom", stereo.LayoutTopBottom, true, red, blue},
		{"bottom-top", stereo.LayoutBottomTop, true, blue, red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := 64, 32
			if tt.vertical {
				w, h = 32, 64
			}
			img := fixture.Halves(w, h, red, blue, tt.vertical)
			data, err := Decode(context.Background(), tt.kind, source("sbs.png", fixture.PNG(img)), Options{})
			require.NoError(t, err)

			assert.Equal(t, 32, data.LeftEye.Width())
			assert.Equal(t, 32, data.LeftEye.Height())
			assert.Equal(t, tt.leftColor, data.LeftEye.RGBAAt(3, 3))
			assert.Equal(t, tt.rightColor, data.RightEye.RGBAAt(3, 3))
		})
	}
}

func TestStereoFieldOfView(t *testing.T) {
	img := fixture.PNG(fixture.Halves(128, 32, red, blue, false))

	data, err := Decode(context.Background(), stereo.LayoutLeftRight, source("a.png", img), Options{})
	require.NoError(t, err)
	assert.InDelta(t, 60*math.Pi/180, data.PhiLength, 1e-9)
	assert.InDelta(t, data.PhiLength/2, data.ThetaLength, 1e-9)
	assert.InDelta(t, math.Pi/2-data.ThetaLength/2, data.ThetaStart, 1e-9)

	data, err = Decode(context.Background(), stereo.LayoutLeftRight, source("a.png", img), Options{Projection: stereo.ProjectionFisheye})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, data.PhiLength, 1e-9)
	assert.InDelta(t, math.Pi, data.ThetaLength, 1e-9)
	assert.InDelta(t, 0, data.ThetaStart, 1e-9)
	assert.Equal(t, stereo.ProjectionFisheye, data.Projection)

	data, err = Decode(context.Background(), stereo.LayoutLeftRight, source("a.png", img), Options{Angle: 720})
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi, data.PhiLength, 1e-9)
	assert.LessOrEqual(t, data.ThetaLength, math.Pi)
}

func TestStereoUsesMPOPair(t *testing.T) {
	mpo := fixture.MPO(fixture.JPEG(fixture.Solid(24, 16, red)), fixture.JPEG(fixture.Solid(24, 16, blue)))

	data, err := Decode(context.Background(), stereo.LayoutLeftRight, source("pair.mpo", mpo), Options{})
	require.NoError(t, err)
	assert.Equal(t, 24, data.LeftEye.Width())
	assert.Equal(t, 16, data.LeftEye.Height())

	l := data.LeftEye.RGBAAt(12, 8)
	r := data.RightEye.RGBAAt(12, 8)
	assert.Greater(t, l.R, l.B)
	assert.Greater(t, r.B, r.R)
}

func TestAnaglyphChannels(t *testing.T) {
	img := fixture.Solid(8, 8, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	data, err := Decode(context.Background(), stereo.LayoutAnaglyph, source("a.png", fixture.PNG(img)), Options{})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, data.LeftEye.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{R: 75, G: 75, B: 75, A: 255}, data.RightEye.RGBAAt(1, 1))
}

func TestVRReadsPanoramaMetadata(t *testing.T) {
	photo := fixture.VRPhoto(fixture.Solid(40, 40, red), fixture.Solid(40, 40, blue), map[string]string{
		"GPano:CroppedAreaImageWidthPixels":  "2000",
		"GPano:CroppedAreaImageHeightPixels": "1000",
		"GPano:CroppedAreaLeftPixels":        "1000",
		"GPano:CroppedAreaTopPixels":         "500",
		"GPano:FullPanoWidthPixels":          "4000",
		"GPano:FullPanoHeightPixels":         "2000",
		"GPano:PoseRollDegrees":              "90",
		"GPano:PosePitchDegrees":             "-45",
	})

	data, err := Decode(context.Background(), stereo.LayoutVR180, source("vr.jpg", photo), Options{})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, data.PhiLength, 1e-9)
	assert.InDelta(t, math.Pi/2, data.ThetaLength, 1e-9)
	assert.InDelta(t, math.Pi/4, data.ThetaStart, 1e-9)
	assert.InDelta(t, 0, data.PhiOffset, 1e-9, "crop centered in the panorama")
	assert.InDelta(t, math.Pi/2, data.Roll, 1e-9)
	assert.InDelta(t, -math.Pi/4, data.Pitch, 1e-9)

	r := data.RightEye.RGBAAt(20, 20)
	assert.Greater(t, r.B, r.R)
}

func TestVRCropLeftEdgeTurnsContent(t *testing.T) {
	pano := map[string]string{
		"GPano:CroppedAreaImageWidthPixels":  "2000",
		"GPano:CroppedAreaImageHeightPixels": "2000",
		"GPano:CroppedAreaLeftPixels":        "0",
		"GPano:FullPanoWidthPixels":          "4000",
		"GPano:FullPanoHeightPixels":         "2000",
	}
	photo := fixture.VRPhoto(fixture.Solid(16, 16, red), fixture.Solid(16, 16, blue), pano)
	data, err := Decode(context.Background(), stereo.LayoutVR, source("vr.jpg", photo), Options{})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, data.PhiLength, 1e-9)
	assert.InDelta(t, -math.Pi/2, data.PhiOffset, 1e-9)

	delete(pano, "GPano:CroppedAreaLeftPixels")
	photo = fixture.VRPhoto(fixture.Solid(16, 16, red), fixture.Solid(16, 16, blue), pano)
	data, err = Decode(context.Background(), stereo.LayoutVR, source("vr.jpg", photo), Options{})
	require.NoError(t, err)
	assert.Zero(t, data.PhiOffset)
}

func TestVRDefaultsToHemisphere(t *testing.T) {
	photo := fixture.VRPhoto(fixture.Solid(16, 16, red), fixture.Solid(16, 16, blue), nil)

	data, err := Decode(context.Background(), stereo.LayoutVR, source("vr.jpg", photo), Options{})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, data.PhiLength, 1e-9)
	assert.InDelta(t, math.Pi, data.ThetaLength, 1e-9)
	assert.Zero(t, data.ThetaStart)
}

func TestVRExtendedXMP(t *testing.T) {
	right := base64.StdEncoding.EncodeToString(fixture.JPEG(fixture.Solid(16, 16, blue)))
	photo := fixture.WithExtendedXMP(fixture.JPEG(fixture.Solid(16, 16, red)),
		map[string]string{"GImage:Mime": "image/jpeg"},
		"<GImage:Data>"+right+"</GImage:Data>", 97)

	xmp, err := ReadXMP(photo)
	require.NoError(t, err)
	assert.True(t, xmp.HasRightEye())

	data, err := Decode(context.Background(), stereo.LayoutVR, source("ext.jpg", photo), Options{})
	require.NoError(t, err)
	assert.Equal(t, 16, data.RightEye.Width())
}

func TestVRWithoutRightEyeFails(t *testing.T) {
	_, err := Decode(context.Background(), stereo.LayoutVR, source("plain.jpg", fixture.JPEG(fixture.Solid(8, 8, red))), Options{})
	assert.ErrorIs(t, err, stereo.ErrDecode)

	_, err = Decode(context.Background(), stereo.LayoutVR, source("plain.png", fixture.PNG(fixture.Solid(8, 8, red))), Options{})
	var decodeErr *stereo.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "plain.png", decodeErr.Source)
}

func TestDepthFromXMP(t *testing.T) {
	photo := fixture.DepthPhoto(fixture.Solid(40, 30, gray), fixture.Solid(10, 5, color.Gray{Y: 255}))

	data, err := Decode(context.Background(), stereo.LayoutDepth, source("PXL_PORTRAIT.jpg", photo), Options{})
	require.NoError(t, err)
	require.NotNil(t, data.Depth)
	assert.Equal(t, 40, data.Depth.Width())
	assert.Equal(t, 30, data.Depth.Height())
	assert.Zero(t, data.PhiLength)
	assert.InDelta(t, 1, data.Depth.Sample(0.5, 0.5), 0.02)
}

func TestDepthFromSecondaryImage(t *testing.T) {
	photo := fixture.MPO(fixture.JPEG(fixture.Solid(20, 10, gray)), fixture.JPEG(fixture.Solid(10, 5, color.Gray{Y: 10})))

	data, err := Decode(context.Background(), stereo.LayoutDepth, source("d.jpg", photo), Options{})
	require.NoError(t, err)
	assert.Equal(t, 20, data.Depth.Width())
}

func TestDepthMissingFails(t *testing.T) {
	_, err := Decode(context.Background(), stereo.LayoutDepth, source("d.jpg", fixture.JPEG(fixture.Solid(8, 8, gray))), Options{})
	assert.ErrorIs(t, err, stereo.ErrDecode)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, kind := range stereo.Layouts {
		_, err := Decode(context.Background(), kind, source("notes.txt", []byte("definitely not an image")), Options{})
		assert.ErrorIs(t, err, stereo.ErrDecode, kind.String())
	}

	_, err := Decode(context.Background(), stereo.LayoutLeftRight, source("empty", nil), Options{})
	assert.ErrorIs(t, err, stereo.ErrDecode)

	_, err = Decode(context.Background(), stereo.LayoutAuto, source("x", []byte{1}), Options{})
	assert.ErrorIs(t, err, stereo.ErrDecode)
}

func TestDecodeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decode(ctx, stereo.LayoutLeftRight, source("a.png", wellFormed(stereo.LayoutLeftRight)), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitJPEGsWithoutIndex(t *testing.T) {
	a := fixture.JPEG(fixture.Solid(8, 8, red))
	b := fixture.JPEG(fixture.Solid(8, 8, blue))
	joined := append(append([]byte{}, a...), b...)

	ranges := splitJPEGs(joined)
	require.Len(t, ranges, 2)
	assert.Equal(t, [2]int{0, len(a)}, ranges[0])
	assert.Equal(t, [2]int{len(a), len(a) + len(b)}, ranges[1])
}

func TestPlaceholder(t *testing.T) {
	d := Placeholder()
	assert.Equal(t, 10, d.LeftEye.Width())
	assert.Zero(t, d.PhiLength)
}
