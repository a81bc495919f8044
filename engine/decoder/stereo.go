package decoder

import (
	"context"
	"errors"
	"image"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// stereoDecoder handles the four two-views-in-one-frame layouts. A JPEG that
// carries a multi-picture index with two same-sized images (MPO) is decoded
// as a pair instead of being split.
func stereoDecoder(kind stereo.LayoutKind) Func {
	return func(ctx context.Context, src stereo.Source, opts Options) (*stereo.StereoData, error) {
		first, second, err := stereoViews(ctx, kind, src)
		if err != nil {
			return nil, stereo.NewDecodeError(kind, src.Name, err)
		}
		if kind == stereo.LayoutRightLeft || kind == stereo.LayoutBottomTop {
			first, second = second, first
		}

		data := &stereo.StereoData{
			LeftEye:  stereo.ImageBufferFrom(first),
			RightEye: stereo.ImageBufferFrom(second),
		}
		fieldOfView(data, opts)
		return data, nil
	}
}

func stereoViews(ctx context.Context, kind stereo.LayoutKind, src stereo.Source) (image.Image, image.Image, error) {
	if a, b, ok := mpoPair(src.Data); ok {
		return a, b, nil
	}
	img, _, err := decodeImage(src.Data)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return splitFrame(img, kind == stereo.LayoutTopBottom || kind == stereo.LayoutBottomTop)
}

// splitFrame cuts a frame into its two halves along the given axis.
func splitFrame(img image.Image, vertical bool) (image.Image, image.Image, error) {
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, nil, errors.New("image type does not support cropping")
	}
	b := img.Bounds()
	if vertical {
		half := b.Dy() / 2
		if half == 0 {
			return nil, nil, errors.New("image too short to split")
		}
		top := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+half)
		bottom := image.Rect(b.Min.X, b.Min.Y+half, b.Max.X, b.Min.Y+2*half)
		return sub.SubImage(top), sub.SubImage(bottom), nil
	}
	half := b.Dx() / 2
	if half == 0 {
		return nil, nil, errors.New("image too narrow to split")
	}
	left := image.Rect(b.Min.X, b.Min.Y, b.Min.X+half, b.Max.Y)
	right := image.Rect(b.Min.X+half, b.Min.Y, b.Min.X+2*half, b.Max.Y)
	return sub.SubImage(left), sub.SubImage(right), nil
}

// mpoPair decodes the first two images of a multi-picture JPEG when they share
// dimensions.
func mpoPair(data []byte) (image.Image, image.Image, bool) {
	if !isJPEG(data) {
		return nil, nil, false
	}
	ranges := splitJPEGs(data)
	if len(ranges) < 2 {
		return nil, nil, false
	}
	a, _, err := decodeImage(data[ranges[0][0]:ranges[0][1]])
	if err != nil {
		return nil, nil, false
	}
	b, _, err := decodeImage(data[ranges[1][0]:ranges[1][1]])
	if err != nil || a.Bounds().Size() != b.Bounds().Size() {
		return nil, nil, false
	}
	return a, b, true
}
