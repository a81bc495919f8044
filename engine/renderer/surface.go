package renderer

import (
	"image"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/material"
	"github.com/chewxy/math32"
)

const encodeTableSize = 4096

var (
	decodeTable [256]float32
	encodeTable [encodeTableSize]uint8
)

func init() {
	for i := range decodeTable {
		decodeTable[i] = srgbToLinear(float32(i) / 255)
	}
	for i := range encodeTable {
		encodeTable[i] = uint8(linearToSRGB(float32(i)/(encodeTableSize-1))*255 + 0.5)
	}
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math32.Pow(c, 1/2.4) - 0.055
}

// encodeSRGB converts a linear channel value to an 8-bit sRGB sample.
func encodeSRGB(c float32) uint8 {
	c = common.Clamp(c, 0, 1)
	return encodeTable[int(c*(encodeTableSize-1)+0.5)]
}

// surface is a per-draw snapshot of the material state the rasterizer reads.
type surface struct {
	color       [4]float32
	texture     *image.RGBA
	transparent bool
	depthTest   bool
}

func newSurface(m material.Material) surface {
	c := m.Color()
	s := surface{
		color: [4]float32{
			srgbToLinear(c[0]),
			srgbToLinear(c[1]),
			srgbToLinear(c[2]),
			c[3] * m.Opacity(),
		},
		transparent: m.Transparent(),
		depthTest:   m.DepthTest(),
	}
	if tex := m.Map(); tex != nil && tex.Width() > 0 && tex.Height() > 0 {
		s.texture = tex.RGBA
	}
	return s
}

// shadeFragment returns the linear RGBA color for a fragment at (u, v) lit by shade.
func (s surface) shadeFragment(u, v float32, shade [3]float32) [4]float32 {
	base := s.color
	if s.texture != nil {
		t := sampleBilinear(s.texture, u, v)
		base[0] *= t[0]
		base[1] *= t[1]
		base[2] *= t[2]
		base[3] *= t[3]
	}
	return [4]float32{base[0] * shade[0], base[1] * shade[1], base[2] * shade[2], base[3]}
}

// sampleBilinear filters the texture at (u, v) with v = 1 at the top row and
// clamps to the edge. Color channels are returned linear, alpha unchanged.
func sampleBilinear(img *image.RGBA, u, v float32) [4]float32 {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	fx := common.Clamp(u, 0, 1)*float32(w) - 0.5
	fy := (1-common.Clamp(v, 0, 1))*float32(h) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)
	x1 := min(max(x0+1, 0), w-1)
	y1 := min(max(y0+1, 0), h-1)
	x0 = min(max(x0, 0), w-1)
	y0 = min(max(y0, 0), h-1)

	p00 := texel(img, x0, y0)
	p10 := texel(img, x1, y0)
	p01 := texel(img, x0, y1)
	p11 := texel(img, x1, y1)

	var out [4]float32
	for i := range out {
		top := p00[i] + (p10[i]-p00[i])*tx
		bottom := p01[i] + (p11[i]-p01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

func texel(img *image.RGBA, x, y int) [4]float32 {
	o := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	p := img.Pix[o : o+4 : o+4]
	return [4]float32{decodeTable[p[0]], decodeTable[p[1]], decodeTable[p[2]], float32(p[3]) / 255}
}
