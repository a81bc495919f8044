package decoder

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	mpfTypeUndefined = 0x7

	mpfEntryTag        = 0xB002
	mpfEntrySize       = 16
	mpfAttrTypePrimary = 0x030000
	mpfAttrTypeMask    = 0xFFFFFF
)

var mpfSig = []byte{'M', 'P', 'F', 0}

type mpfEntry struct {
	attr   uint32
	size   int
	offset int
}

// parseMPF reads the MP entry table from an APP2 MPF payload. The primary image
// is moved to the front of the result. Offsets are relative to the TIFF header
// that follows the MPF signature.
func parseMPF(payload []byte) ([]mpfEntry, error) {
	if len(payload) < len(mpfSig)+8 || !bytes.HasPrefix(payload, mpfSig) {
		return nil, errors.New("mpf signature missing")
	}
	tiff := payload[len(mpfSig):]
	var order binary.ByteOrder
	switch {
	case tiff[0] == 0x4D && tiff[1] == 0x4D:
		order = binary.BigEndian
	case tiff[0] == 0x49 && tiff[1] == 0x49:
		order = binary.LittleEndian
	default:
		return nil, errors.New("mpf endian invalid")
	}
	if order.Uint16(tiff[2:4]) != 0x002A {
		return nil, errors.New("mpf tiff magic invalid")
	}
	ifdPos := int(order.Uint32(tiff[4:8]))
	if ifdPos < 0 || ifdPos+2 > len(tiff) {
		return nil, errors.New("mpf ifd offset invalid")
	}
	tagCount := int(order.Uint16(tiff[ifdPos : ifdPos+2]))
	ifdPos += 2
	entryOffset, entryBytes := -1, 0
	for i := 0; i < tagCount; i++ {
		if ifdPos+12 > len(tiff) {
			return nil, errors.New("mpf ifd truncated")
		}
		tag := order.Uint16(tiff[ifdPos : ifdPos+2])
		typ := order.Uint16(tiff[ifdPos+2 : ifdPos+4])
		count := int(order.Uint32(tiff[ifdPos+4 : ifdPos+8]))
		value := int(order.Uint32(tiff[ifdPos+8 : ifdPos+12]))
		if tag == mpfEntryTag && typ == mpfTypeUndefined && count >= mpfEntrySize {
			entryOffset, entryBytes = value, count
			break
		}
		ifdPos += 12
	}
	if entryOffset < 0 || entryOffset+entryBytes > len(tiff) {
		return nil, errors.New("mpf entry offset invalid")
	}

	n := entryBytes / mpfEntrySize
	entries := make([]mpfEntry, 0, n)
	primary := -1
	for i := 0; i < n; i++ {
		pos := entryOffset + i*mpfEntrySize
		e := mpfEntry{
			attr:   order.Uint32(tiff[pos : pos+4]),
			size:   int(order.Uint32(tiff[pos+4 : pos+8])),
			offset: int(order.Uint32(tiff[pos+8 : pos+12])),
		}
		if primary < 0 && e.attr&mpfAttrTypeMask == mpfAttrTypePrimary {
			primary = len(entries)
		}
		entries = append(entries, e)
	}
	if primary > 0 {
		entries[0], entries[primary] = entries[primary], entries[0]
	}
	return entries, nil
}
