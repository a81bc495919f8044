package decoder

import (
	"context"
	"image/color"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

// decodeAnaglyph separates a red/cyan anaglyph: the red channel is the left
// eye and the green/blue average is the right eye, both as grayscale.
func decodeAnaglyph(ctx context.Context, src stereo.Source, opts Options) (*stereo.StereoData, error) {
	img, _, err := decodeImage(src.Data)
	if err != nil {
		return nil, stereo.NewDecodeError(stereo.LayoutAnaglyph, src.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, stereo.NewDecodeError(stereo.LayoutAnaglyph, src.Name, err)
	}

	full := stereo.ImageBufferFrom(img)
	w, h := full.Width(), full.Height()
	left := stereo.NewImageBuffer(w, h)
	right := stereo.NewImageBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := full.RGBAAt(x, y)
			cyan := uint8((uint16(c.G) + uint16(c.B)) / 2)
			left.SetRGBA(x, y, color.RGBA{R: c.R, G: c.R, B: c.R, A: 0xff})
			right.SetRGBA(x, y, color.RGBA{R: cyan, G: cyan, B: cyan, A: 0xff})
		}
	}

	data := &stereo.StereoData{LeftEye: left, RightEye: right}
	fieldOfView(data, opts)
	return data, nil
}
