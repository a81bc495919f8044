package decoder

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// decodeDepth reads a color+depth photo. The color image is shown to both eyes
// and the depth map comes from the GDepth:Data XMP property or, failing that,
// the second image of a multi-picture JPEG. Depth photos are always displayed
// on a plane.
func decodeDepth(ctx context.Context, src stereo.Source, opts Options) (*stereo.StereoData, error) {
	fail := func(err error) (*stereo.StereoData, error) {
		return nil, stereo.NewDecodeError(stereo.LayoutDepth, src.Name, err)
	}
	color, _, err := decodeImage(src.Data)
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	depth, err := depthMap(src.Data)
	if err != nil {
		return fail(err)
	}

	eye := stereo.ImageBufferFrom(color)
	return &stereo.StereoData{
		LeftEye:    eye,
		RightEye:   eye,
		Depth:      stereo.GrayBufferFrom(depth),
		Projection: opts.Projection,
	}, nil
}

func depthMap(data []byte) (image.Image, error) {
	xmp, err := ReadXMP(data)
	if err != nil {
		return nil, fmt.Errorf("read XMP: %w", err)
	}
	if raw, err := xmp.Base64(reGDepthData); err == nil {
		img, _, err := decodeImage(raw)
		if err != nil {
			return nil, fmt.Errorf("GDepth:Data: %w", err)
		}
		return img, nil
	}
	if isJPEG(data) {
		if ranges := splitJPEGs(data); len(ranges) >= 2 {
			img, _, err := decodeImage(data[ranges[1][0]:ranges[1][1]])
			if err != nil {
				return nil, fmt.Errorf("secondary image: %w", err)
			}
			return img, nil
		}
	}
	return nil, errors.New("no depth map found")
}
