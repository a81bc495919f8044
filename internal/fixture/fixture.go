// Package fixture builds small stereo photo files in memory for tests and the
// CLI's self-check. It writes the same container structures real cameras
// produce: XMP and Extended XMP APP1 segments and MPF multi-picture indexes.
package fixture

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2

	xmpNamespace         = "http://ns.adobe.com/xap/1.0/"
	extendedXMPNamespace = "http://ns.adobe.com/xmp/extension/"
)

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// Halves returns a w×h image whose first half (left, or top when vertical) is a
// and second half is b.
func Halves(w, h int, a, b color.Color, vertical bool) *image.RGBA {
	img := Solid(w, h, a)
	r := image.Rect(w/2, 0, w, h)
	if vertical {
		r = image.Rect(0, h/2, w, h)
	}
	draw.Draw(img, r, &image.Uniform{C: b}, image.Point{}, draw.Src)
	return img
}

// PNG encodes img losslessly.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG encodes img at high quality.
func JPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func writeAppSegment(out *bytes.Buffer, marker byte, payload []byte) {
	out.WriteByte(markerStart)
	out.WriteByte(marker)
	length := uint16(len(payload) + 2)
	out.WriteByte(byte(length >> 8))
	out.WriteByte(byte(length))
	out.Write(payload)
}

// insertAppSegments places APP segments right after SOI.
func insertAppSegments(jpegData []byte, marker byte, payloads ...[]byte) []byte {
	if len(jpegData) < 2 || jpegData[0] != markerStart || jpegData[1] != markerSOI {
		panic("fixture: not a JPEG")
	}
	var out bytes.Buffer
	out.WriteByte(markerStart)
	out.WriteByte(markerSOI)
	for _, p := range payloads {
		writeAppSegment(&out, marker, p)
	}
	out.Write(jpegData[2:])
	return out.Bytes()
}

// WithXMP adds a standard XMP packet containing the given rdf:Description
// attributes, written as ns:Name="value".
func WithXMP(jpegData []byte, attrs map[string]string) []byte {
	return insertAppSegments(jpegData, markerAPP1, xmpPacket(attrs, ""))
}

func xmpPacket(attrs map[string]string, extra string) []byte {
	var b bytes.Buffer
	b.WriteString(xmpNamespace + "\x00")
	b.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">`)
	b.WriteString(`<rdf:Description rdf:about=""`)
	for k, v := range attrs {
		fmt.Fprintf(&b, ` %s="%s"`, k, v)
	}
	b.WriteString(`/>`)
	b.WriteString(extra)
	b.WriteString(`</rdf:RDF></x:xmpmeta>`)
	return b.Bytes()
}

// WithExtendedXMP stores element in Extended XMP chunks of at most chunkSize
// bytes, and references it from the standard packet through
// xmpNote:HasExtendedXMP. The chunks are written in reverse order.
func WithExtendedXMP(jpegData []byte, attrs map[string]string, element string, chunkSize int) []byte {
	ext := []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF><rdf:Description>` + element + `</rdf:Description></rdf:RDF></x:xmpmeta>`)
	sum := md5.Sum(ext)
	guid := hex.EncodeToString(sum[:])
	for len(guid) < 32 {
		guid += "0"
	}
	guid = guid[:32]

	withNote := map[string]string{"xmpNote:HasExtendedXMP": guid}
	for k, v := range attrs {
		withNote[k] = v
	}

	var chunks [][]byte
	for off := 0; off < len(ext); off += chunkSize {
		end := min(off+chunkSize, len(ext))
		var c bytes.Buffer
		c.WriteString(extendedXMPNamespace + "\x00")
		c.WriteString(guid)
		var hdr [8]byte
		binary.BigEndian.PutUint32(hdr[0:4], uint32(len(ext)))
		binary.BigEndian.PutUint32(hdr[4:8], uint32(off))
		c.Write(hdr[:])
		c.Write(ext[off:end])
		chunks = append(chunks, c.Bytes())
	}
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}

	payloads := append([][]byte{xmpPacket(withNote, "")}, chunks...)
	return insertAppSegments(jpegData, markerAPP1, payloads...)
}

// VRPhoto builds a VR photo: left is the primary image and right is embedded
// as base64 in GImage:Data. pano may add GPano properties.
func VRPhoto(left, right image.Image, pano map[string]string) []byte {
	attrs := map[string]string{
		"GImage:Mime": "image/jpeg",
		"GImage:Data": base64.StdEncoding.EncodeToString(JPEG(right)),
	}
	for k, v := range pano {
		attrs[k] = v
	}
	return WithXMP(JPEG(left), attrs)
}

// DepthPhoto builds a color+depth photo with the depth map in GDepth:Data.
func DepthPhoto(colorImg image.Image, depth image.Image) []byte {
	return WithXMP(JPEG(colorImg), map[string]string{
		"GDepth:Mime": "image/png",
		"GDepth:Data": base64.StdEncoding.EncodeToString(PNG(depth)),
	})
}

// MPO concatenates JPEG images behind an MPF index in the first image's APP2
// segment, the way stereo cameras store left and right views.
func MPO(images ...[]byte) []byte {
	if len(images) < 2 {
		panic("fixture: MPO needs at least two images")
	}
	// The MPF segment size does not depend on the values written into it.
	probe := insertAppSegments(images[0], markerAPP2, mpfIndex(make([]int, len(images)), make([]int, len(images))))
	// SOI + APP2 marker + length + "MPF\0"
	tiffHeaderAbs := 2 + 2 + 2 + 4

	sizes := make([]int, len(images))
	offsets := make([]int, len(images))
	sizes[0] = len(probe)
	pos := len(probe)
	for i := 1; i < len(images); i++ {
		sizes[i] = len(images[i])
		offsets[i] = pos - tiffHeaderAbs
		pos += len(images[i])
	}

	var out bytes.Buffer
	out.Write(insertAppSegments(images[0], markerAPP2, mpfIndex(sizes, offsets)))
	for _, img := range images[1:] {
		out.Write(img)
	}
	return out.Bytes()
}

func mpfIndex(sizes, offsets []int) []byte {
	const (
		tagCount  = 3
		entrySize = 16
	)
	var buf bytes.Buffer
	putU16 := func(v uint16) { _ = binary.Write(&buf, binary.BigEndian, v) }
	putU32 := func(v uint32) { _ = binary.Write(&buf, binary.BigEndian, v) }

	buf.Write([]byte{'M', 'P', 'F', 0})
	buf.Write([]byte{0x4D, 0x4D, 0x00, 0x2A})
	putU32(8)
	putU16(tagCount)

	putU16(0xB000) // version
	putU16(0x7)
	putU32(4)
	buf.WriteString("0100")

	putU16(0xB001) // number of images
	putU16(0x4)
	putU32(1)
	putU32(uint32(len(sizes)))

	putU16(0xB002) // entries
	putU16(0x7)
	putU32(uint32(entrySize * len(sizes)))
	putU32(uint32(8 + 2 + tagCount*12 + 4))

	putU32(0) // next IFD

	for i := range sizes {
		attr := uint32(0x020002) // disparity image
		if i == 0 {
			attr = 0x030000 // baseline primary
		}
		putU32(attr)
		putU32(uint32(sizes[i]))
		putU32(uint32(offsets[i]))
		putU16(0)
		putU16(0)
	}
	return buf.Bytes()
}
