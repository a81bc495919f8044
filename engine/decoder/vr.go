package decoder

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// decodeVR reads a VR photo: the primary JPEG is the left eye and the right eye
// is a base64 JPEG stored in the GImage:Data XMP property. The GPano crop
// properties give the field of view, defaulting to a 180° hemisphere.
func decodeVR(ctx context.Context, src stereo.Source, opts Options) (*stereo.StereoData, error) {
	fail := func(err error) (*stereo.StereoData, error) {
		return nil, stereo.NewDecodeError(stereo.LayoutVR, src.Name, err)
	}
	if !isJPEG(src.Data) {
		return fail(fmt.Errorf("VR photos must be JPEG, got %q", MIMEType(src.Data)))
	}
	xmp, err := ReadXMP(src.Data)
	if err != nil {
		return fail(fmt.Errorf("read XMP: %w", err))
	}
	if !xmp.HasRightEye() {
		return fail(errors.New("no GImage:Data right eye in XMP"))
	}

	left, _, err := decodeImage(src.Data)
	if err != nil {
		return fail(fmt.Errorf("left eye: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	rightBytes, err := xmp.Base64(reGImageData)
	if err != nil {
		return fail(fmt.Errorf("right eye: %w", err))
	}
	right, _, err := decodeImage(rightBytes)
	if err != nil {
		return fail(fmt.Errorf("right eye: %w", err))
	}

	data := &stereo.StereoData{
		LeftEye:     stereo.ImageBufferFrom(left),
		RightEye:    stereo.ImageBufferFrom(right),
		PhiLength:   math.Pi,
		ThetaStart:  0,
		ThetaLength: math.Pi,
		Projection:  opts.Projection,
	}
	panoramaFieldOfView(data, xmp)
	if v, ok := xmp.Float(rePoseRoll); ok {
		data.Roll = v * math.Pi / 180
	}
	if v, ok := xmp.Float(rePosePitch); ok {
		data.Pitch = v * math.Pi / 180
	}
	return data, nil
}

// panoramaFieldOfView applies the GPano cropped-area properties when all of
// them are present and consistent.
func panoramaFieldOfView(data *stereo.StereoData, xmp *XMP) {
	cw, okCW := xmp.Float(reCroppedWidth)
	ch, okCH := xmp.Float(reCroppedHeight)
	fw, okFW := xmp.Float(reFullWidth)
	fh, okFH := xmp.Float(reFullHeight)
	if !okCW || !okCH || !okFW || !okFH || fw <= 0 || fh <= 0 {
		return
	}
	top, _ := xmp.Float(reCroppedTop)

	data.PhiLength = 2 * math.Pi * cw / fw
	data.ThetaLength = math.Pi * ch / fh
	data.ThetaStart = math.Pi * top / fh
	// a missing left edge keeps the crop centered
	if left, ok := xmp.Float(reCroppedLeft); ok {
		data.PhiOffset = 2*math.Pi*(left+cw/2)/fw - math.Pi
	}
}
