package decoder

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
)

// appSegments holds the APP1 and APP2 payloads of a JPEG header, without the
// marker and length bytes.
type appSegments struct {
	app1 [][]byte
	app2 [][]byte
	// app2Offsets are the absolute offsets of each APP2 payload in the file,
	// needed to resolve MPF offsets.
	app2Offsets []int
}

func isJPEG(data []byte) bool {
	return len(data) >= 4 && data[0] == markerStart && data[1] == markerSOI
}

// readAppSegments walks the marker segments of the JPEG starting at data[0]
// until the first scan.
func readAppSegments(data []byte) (appSegments, error) {
	var segs appSegments
	if !isJPEG(data) {
		return segs, errors.New("invalid JPEG")
	}
	pos := 2
	for pos+3 < len(data) {
		if data[pos] != markerStart {
			pos++
			continue
		}
		for pos < len(data) && data[pos] == markerStart {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++
		if marker == markerSOS || marker == markerEOI {
			break
		}
		if marker >= 0xD0 && marker <= 0xD7 || marker == 0x01 {
			continue
		}
		if pos+1 >= len(data) {
			return segs, errors.New("truncated marker")
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:]))
		if segLen < 2 || pos+segLen > len(data) {
			return segs, errors.New("invalid segment length")
		}
		segStart := pos + 2
		segEnd := pos + segLen
		switch marker {
		case markerAPP1:
			segs.app1 = append(segs.app1, data[segStart:segEnd])
		case markerAPP2:
			segs.app2 = append(segs.app2, data[segStart:segEnd])
			segs.app2Offsets = append(segs.app2Offsets, segStart)
		}
		pos = segEnd
	}
	return segs, nil
}

// findJPEGEnd returns the offset just past the EOI marker of the JPEG starting at start.
func findJPEGEnd(data []byte, start int) (int, error) {
	if start+1 >= len(data) || data[start] != markerStart || data[start+1] != markerSOI {
		return 0, errors.New("not a JPEG SOI")
	}
	pos := start + 2
	inScan := false
	for pos+1 < len(data) {
		if !inScan {
			if data[pos] != markerStart {
				pos++
				continue
			}
			for pos < len(data) && data[pos] == markerStart {
				pos++
			}
			if pos >= len(data) {
				break
			}
			marker := data[pos]
			pos++
			switch {
			case marker == markerSOI:
				continue
			case marker == markerEOI:
				return pos, nil
			case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
				continue
			}
			if pos+1 >= len(data) {
				return 0, errors.New("truncated marker segment")
			}
			segLen := int(binary.BigEndian.Uint16(data[pos:]))
			if segLen < 2 {
				return 0, errors.New("invalid marker length")
			}
			pos += segLen
			inScan = marker == markerSOS
			continue
		}

		if data[pos] == markerStart {
			next := data[pos+1]
			switch {
			case next == 0x00, next >= 0xD0 && next <= 0xD7:
				pos += 2
				continue
			case next == markerEOI:
				return pos + 2, nil
			case next == markerStart:
				pos++
				continue
			default:
				// another marker segment between scans (progressive JPEG)
				inScan = false
				continue
			}
		}
		pos++
	}
	return 0, errors.New("no EOI found")
}

// splitJPEGs returns the byte ranges of every image in a multi-image JPEG
// (MPO or MPF container). The MPF index is preferred; otherwise concatenated
// SOI..EOI streams are scanned.
//
// Parameters:
//   - data: the complete file contents
//
// Returns:
//   - [][2]int: [start, end) ranges, primary image first
func splitJPEGs(data []byte) [][2]int {
	if ranges, ok := splitJPEGsByMPF(data); ok {
		return ranges
	}
	var ranges [][2]int
	i := 0
	for i+1 < len(data) {
		if data[i] == markerStart && data[i+1] == markerSOI {
			end, err := findJPEGEnd(data, i)
			if err != nil {
				break
			}
			ranges = append(ranges, [2]int{i, end})
			i = end
			continue
		}
		i++
	}
	return ranges
}

func splitJPEGsByMPF(data []byte) ([][2]int, bool) {
	segs, err := readAppSegments(data)
	if err != nil {
		return nil, false
	}
	for i, payload := range segs.app2 {
		if !bytes.HasPrefix(payload, mpfSig) {
			continue
		}
		entries, err := parseMPF(payload)
		if err != nil || len(entries) < 2 {
			return nil, false
		}
		tiffHeaderAbs := segs.app2Offsets[i] + len(mpfSig)
		ranges := make([][2]int, 0, len(entries))
		for j, e := range entries {
			start := 0
			if j > 0 {
				start = tiffHeaderAbs + e.offset
			}
			end := start + e.size
			if e.size <= 0 || start < 0 || end > len(data) || !isJPEG(data[start:end]) {
				return nil, false
			}
			ranges = append(ranges, [2]int{start, end})
		}
		return ranges, true
	}
	return nil, false
}
