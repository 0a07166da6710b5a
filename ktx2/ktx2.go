// Package ktx2 probes KTX2 texture container headers.
//
// It decodes only the fixed 80-byte header, which is enough to verify
// that an encoder produced a KTX2 file and to inspect its format, mip
// level count, and supercompression scheme. Level data is never parsed.
package ktx2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrBadIdentifier is returned when the file does not start with the
	// KTX2 identifier.
	ErrBadIdentifier = errors.New("ktx2: invalid identifier")

	// ErrTruncated is returned when the data is shorter than a header.
	ErrTruncated = errors.New("ktx2: truncated header")
)

// identifier is the 12-byte KTX2 file signature.
var identifier = []byte{0xAB, 'K', 'T', 'X', ' ', '2', '0', 0xBB, '\r', '\n', 0x1A, '\n'}

// HeaderSize is the byte size of the fixed KTX2 header, including the
// identifier.
const HeaderSize = 80

// Vulkan format values for the formats the encoder emits.
const (
	FormatR8G8B8A8Unorm uint32 = 37
	FormatR8G8B8A8SRGB  uint32 = 43
	FormatASTC4x4Unorm  uint32 = 157
	FormatASTC4x4SRGB   uint32 = 158
	FormatASTC6x6Unorm  uint32 = 165
	FormatASTC6x6SRGB   uint32 = 166
)

// Supercompression schemes.
const (
	SupercompressionNone    uint32 = 0
	SupercompressionBasisLZ uint32 = 1
	SupercompressionZstd    uint32 = 2
	SupercompressionZLIB    uint32 = 3
)

// Header is the fixed-size portion of a KTX2 file.
type Header struct {
	VkFormat               uint32
	TypeSize               uint32
	PixelWidth             uint32
	PixelHeight            uint32
	PixelDepth             uint32
	LayerCount             uint32
	FaceCount              uint32
	LevelCount             uint32
	SupercompressionScheme uint32
}

// ParseHeader decodes the header at the start of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:len(identifier)], identifier) {
		return nil, ErrBadIdentifier
	}
	h := &Header{}
	fields := []*uint32{
		&h.VkFormat, &h.TypeSize,
		&h.PixelWidth, &h.PixelHeight, &h.PixelDepth,
		&h.LayerCount, &h.FaceCount, &h.LevelCount,
		&h.SupercompressionScheme,
	}
	off := len(identifier)
	for _, f := range fields {
		*f = binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
	}
	return h, nil
}

// AppendHeader serializes h after the KTX2 identifier and appends it to
// dst. Intended for tests that fabricate encoder output.
func AppendHeader(dst []byte, h *Header) []byte {
	dst = append(dst, identifier...)
	for _, v := range []uint32{
		h.VkFormat, h.TypeSize,
		h.PixelWidth, h.PixelHeight, h.PixelDepth,
		h.LayerCount, h.FaceCount, h.LevelCount,
		h.SupercompressionScheme,
	} {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	// Index fields (DFD, KVD, SGD offsets/lengths) are zero.
	dst = append(dst, make([]byte, HeaderSize-len(identifier)-36)...)
	return dst
}
