package imgio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/chai2010/tiff"
)

// The upstream encoder only emits single-page files, so multi-page output
// is assembled here: each frame is encoded on its own and the resulting
// pages are concatenated, with every file offset in the appended pages
// rewritten and the IFDs chained through their next-IFD fields.

const tiffHeaderSize = 8

const (
	tagStripOffsets = 273
	tagTileOffsets  = 324
)

const (
	fieldShort = 3
	fieldLong  = 4
)

// fieldSizes maps TIFF field types to their per-value byte size.
var fieldSizes = [...]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// encodePages encodes each frame as a single-page TIFF and chains the
// pages into one multi-page file.
func encodePages(frames []image.Image) ([]byte, error) {
	pages := make([][]byte, len(frames))
	for i, frame := range frames {
		var buf bytes.Buffer
		if err := tiff.Encode(&buf, frame, nil); err != nil {
			return nil, fmt.Errorf("failed to encode frame %d: %w", i+1, err)
		}
		pages[i] = buf.Bytes()
	}
	return chainPages(pages)
}

// chainPages concatenates single-page TIFF files into one multi-page file.
// Page k > 0 loses its 8-byte header; its offsets are shifted by the
// position it lands at, and each page's next-IFD field points at the
// following page's IFD.
func chainPages(pages [][]byte) ([]byte, error) {
	bo, first, err := readTIFFHeader(pages[0])
	if err != nil {
		return nil, fmt.Errorf("page 1: %w", err)
	}

	out := append([]byte(nil), pages[0]...)
	ifds := make([]uint32, len(pages))
	ifds[0] = first

	for k := 1; k < len(pages); k++ {
		pageOrder, ifd, err := readTIFFHeader(pages[k])
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", k+1, err)
		}
		if pageOrder != bo {
			return nil, fmt.Errorf("page %d: byte order differs from page 1", k+1)
		}
		shift := uint32(len(out) - tiffHeaderSize)
		out = append(out, pages[k][tiffHeaderSize:]...)
		if err := shiftOffsets(out, bo, ifd+shift, shift); err != nil {
			return nil, fmt.Errorf("page %d: %w", k+1, err)
		}
		ifds[k] = ifd + shift
	}

	for k := 0; k+1 < len(pages); k++ {
		pos, err := nextIFDPos(out, bo, ifds[k])
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", k+1, err)
		}
		bo.PutUint32(out[pos:], ifds[k+1])
	}
	return out, nil
}

func readTIFFHeader(p []byte) (binary.ByteOrder, uint32, error) {
	if len(p) < tiffHeaderSize {
		return nil, 0, fmt.Errorf("truncated TIFF header")
	}
	var bo binary.ByteOrder
	switch {
	case p[0] == 'I' && p[1] == 'I':
		bo = binary.LittleEndian
	case p[0] == 'M' && p[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("not a TIFF header")
	}
	if bo.Uint16(p[2:]) != 42 {
		return nil, 0, fmt.Errorf("bad TIFF magic number")
	}
	return bo, bo.Uint32(p[4:]), nil
}

// shiftOffsets adds shift to every file offset reachable from the IFD at
// ifd: out-of-line field values plus the strip and tile data positions,
// whose values are file offsets even when stored inline.
func shiftOffsets(buf []byte, bo binary.ByteOrder, ifd, shift uint32) error {
	if int(ifd)+2 > len(buf) {
		return fmt.Errorf("IFD offset out of range")
	}
	n := uint32(bo.Uint16(buf[ifd:]))
	entry := ifd + 2
	if int(entry+12*n)+4 > len(buf) {
		return fmt.Errorf("IFD extends past end of file")
	}

	for i := uint32(0); i < n; i, entry = i+1, entry+12 {
		tag := bo.Uint16(buf[entry:])
		typ := bo.Uint16(buf[entry+2:])
		count := bo.Uint32(buf[entry+4:])
		if int(typ) >= len(fieldSizes) || fieldSizes[typ] == 0 {
			continue
		}
		size := fieldSizes[typ] * count

		valuePos := entry + 8
		if size > 4 {
			off := bo.Uint32(buf[valuePos:])
			bo.PutUint32(buf[valuePos:], off+shift)
			valuePos = off + shift
		}
		if tag != tagStripOffsets && tag != tagTileOffsets {
			continue
		}
		if int(valuePos+size) > len(buf) {
			return fmt.Errorf("strip offsets extend past end of file")
		}
		for j := uint32(0); j < count; j++ {
			switch typ {
			case fieldShort:
				v := uint32(bo.Uint16(buf[valuePos+2*j:])) + shift
				if v > 0xFFFF {
					return fmt.Errorf("shifted strip offset overflows SHORT field")
				}
				bo.PutUint16(buf[valuePos+2*j:], uint16(v))
			case fieldLong:
				bo.PutUint32(buf[valuePos+4*j:], bo.Uint32(buf[valuePos+4*j:])+shift)
			}
		}
	}
	return nil
}

// nextIFDPos returns the position of the next-IFD field of the IFD at ifd.
func nextIFDPos(buf []byte, bo binary.ByteOrder, ifd uint32) (uint32, error) {
	n := uint32(bo.Uint16(buf[ifd:]))
	pos := ifd + 2 + 12*n
	if int(pos)+4 > len(buf) {
		return 0, fmt.Errorf("IFD extends past end of file")
	}
	return pos, nil
}
