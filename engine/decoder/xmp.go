package decoder

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	xmpNamespace         = "http://ns.adobe.com/xap/1.0/"
	extendedXMPNamespace = "http://ns.adobe.com/xmp/extension/"
	// GUID (32) + full length (4) + chunk offset (4)
	extendedXMPHeaderSize = 40
)

var (
	reHasExtendedXMP = xmpPattern("xmpNote:HasExtendedXMP")

	reGImageData = xmpPattern("GImage:Data")
	reGDepthData = xmpPattern("GDepth:Data")

	reCroppedWidth  = xmpPattern("GPano:CroppedAreaImageWidthPixels")
	reCroppedHeight = xmpPattern("GPano:CroppedAreaImageHeightPixels")
	reCroppedLeft   = xmpPattern("GPano:CroppedAreaLeftPixels")
	reCroppedTop    = xmpPattern("GPano:CroppedAreaTopPixels")
	reFullWidth     = xmpPattern("GPano:FullPanoWidthPixels")
	reFullHeight    = xmpPattern("GPano:FullPanoHeightPixels")
	rePoseRoll      = xmpPattern("GPano:PoseRollDegrees")
	rePosePitch     = xmpPattern("GPano:PosePitchDegrees")
)

// xmpPattern matches a property in either attribute form (ns:Name="v") or
// element form (<ns:Name>v</ns:Name>).
func xmpPattern(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(q + `\s*=\s*"([^"]*)"|<` + q + `>([^<]*)</` + q + `>`)
}

// XMP is the merged standard and extended XMP packet of a JPEG.
type XMP struct {
	packet string
}

// ReadXMP collects the XMP metadata of a JPEG, reassembling Extended XMP chunks
// that large payloads (such as an embedded right eye image) are split across.
// Non-JPEG input yields an empty XMP and no error.
//
// Parameters:
//   - data: the complete file contents
//
// Returns:
//   - *XMP: the merged metadata, never nil
//   - error: an error if the JPEG header is malformed
func ReadXMP(data []byte) (*XMP, error) {
	if !isJPEG(data) {
		return &XMP{}, nil
	}
	segs, err := readAppSegments(data)
	if err != nil {
		return &XMP{}, err
	}

	var standard string
	type chunk struct {
		offset int
		data   []byte
	}
	extended := map[string][]chunk{}
	var guids []string
	for _, seg := range segs.app1 {
		switch {
		case bytes.HasPrefix(seg, []byte(xmpNamespace+"\x00")):
			standard += string(seg[len(xmpNamespace)+1:])
		case bytes.HasPrefix(seg, []byte(extendedXMPNamespace+"\x00")):
			body := seg[len(extendedXMPNamespace)+1:]
			if len(body) < extendedXMPHeaderSize {
				continue
			}
			guid := string(body[:32])
			offset := int(binary.BigEndian.Uint32(body[36:40]))
			if _, seen := extended[guid]; !seen {
				guids = append(guids, guid)
			}
			extended[guid] = append(extended[guid], chunk{offset: offset, data: body[extendedXMPHeaderSize:]})
		}
	}

	x := &XMP{packet: standard}
	if len(guids) == 0 {
		return x, nil
	}
	guid := guids[0]
	if want, ok := x.Value(reHasExtendedXMP); ok {
		if _, found := extended[want]; found {
			guid = want
		}
	}
	chunks := extended[guid]
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].offset < chunks[j].offset })
	var b strings.Builder
	b.WriteString(standard)
	for _, c := range chunks {
		b.Write(c.data)
	}
	x.packet = b.String()
	return x, nil
}

// Empty reports whether no XMP was found.
func (x *XMP) Empty() bool {
	return x == nil || x.packet == ""
}

// Value returns the first value of the property matched by re.
func (x *XMP) Value(re *regexp.Regexp) (string, bool) {
	if x.Empty() {
		return "", false
	}
	m := re.FindStringSubmatch(x.packet)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return strings.TrimSpace(m[2]), true
}

// Float returns a numeric property value.
func (x *XMP) Float(re *regexp.Regexp) (float64, bool) {
	s, ok := x.Value(re)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Base64 decodes a base64 encoded binary property, ignoring embedded whitespace.
func (x *XMP) Base64(re *regexp.Regexp) ([]byte, error) {
	s, ok := x.Value(re)
	if !ok || s == "" {
		return nil, errors.New("property not present")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if out, err := base64.StdEncoding.DecodeString(s); err == nil {
		return out, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// HasRightEye reports whether the packet carries a GImage:Data block.
func (x *XMP) HasRightEye() bool {
	v, ok := x.Value(reGImageData)
	return ok && v != ""
}
