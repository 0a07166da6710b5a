// Package glb reads and writes the binary glTF (GLB) container format.
//
// A GLB file is a 12-byte header (magic "glTF", version 2, total length)
// followed by length-prefixed chunks. The first chunk holds the JSON
// document, the second holds the binary blob that buffer views index
// into. Only version 2 containers with an embedded binary chunk are
// supported.
package glb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrBadMagic is returned when the container does not start with "glTF".
	ErrBadMagic = errors.New("glb: invalid magic")

	// ErrBadVersion is returned for container versions other than 2.
	ErrBadVersion = errors.New("glb: unsupported version")

	// ErrTruncated is returned when the container is shorter than its
	// header or chunk lengths claim.
	ErrTruncated = errors.New("glb: truncated container")

	// ErrNoJSONChunk is returned when the first chunk is not a JSON chunk.
	ErrNoJSONChunk = errors.New("glb: missing JSON chunk")

	// ErrNoBinaryChunk is returned when the container has no embedded
	// binary chunk. Containers that keep their buffers in external files
	// are not supported.
	ErrNoBinaryChunk = errors.New("glb: missing binary chunk")
)

// Magic is the little-endian encoding of "glTF".
const Magic = 0x46546C67

// Version is the only supported container version.
const Version = 2

const (
	headerSize = 12
	chunkJSON  = 0x4E4F534A // "JSON"
	chunkBIN   = 0x004E4942 // "BIN\0"
)

// Container is a decoded GLB file: the raw JSON document bytes and the
// binary blob. Both slices alias the input on decode.
type Container struct {
	// JSON is the document chunk, without its chunk header or padding.
	JSON []byte

	// BIN is the binary blob chunk, without its chunk header. GLB pads
	// the chunk to four bytes with zeros, so BIN may carry up to three
	// trailing padding bytes; buffer views never reference them.
	BIN []byte
}

// Decode parses a GLB container from data.
//
// It validates the magic, version, and total length, and requires both a
// JSON chunk and a binary chunk to be present.
func Decode(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrTruncated, len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: %x", ErrBadMagic, data[0:4])
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	total := binary.LittleEndian.Uint32(data[8:12])
	if int(total) > len(data) || total < headerSize {
		return nil, fmt.Errorf("%w: header claims %d bytes, have %d", ErrTruncated, total, len(data))
	}

	c := &Container{}
	rest := data[headerSize:total]
	for len(rest) > 0 {
		if len(rest) < 8 {
			return nil, fmt.Errorf("%w: %d byte chunk header", ErrTruncated, len(rest))
		}
		length := binary.LittleEndian.Uint32(rest[0:4])
		kind := binary.LittleEndian.Uint32(rest[4:8])
		rest = rest[8:]
		if int(length) > len(rest) {
			return nil, fmt.Errorf("%w: chunk claims %d bytes, have %d", ErrTruncated, length, len(rest))
		}
		switch kind {
		case chunkJSON:
			if c.JSON == nil {
				// The chunk length covers the space padding; strip it
				// so decode inverts encode.
				c.JSON = bytes.TrimRight(rest[:length], " ")
			}
		case chunkBIN:
			if c.BIN == nil {
				c.BIN = rest[:length]
			}
		default:
			// Unknown chunk types must be skipped per the GLB spec.
		}
		rest = rest[length:]
	}

	if c.JSON == nil {
		return nil, ErrNoJSONChunk
	}
	if c.BIN == nil {
		return nil, ErrNoBinaryChunk
	}
	return c, nil
}

// Encode serializes the container.
//
// The JSON chunk is padded to a four-byte boundary with spaces and the
// binary chunk with zeros, as the GLB spec requires. The header's total
// length covers the header and both padded chunks.
func (c *Container) Encode() ([]byte, error) {
	if len(c.JSON) == 0 {
		return nil, ErrNoJSONChunk
	}
	if c.BIN == nil {
		return nil, ErrNoBinaryChunk
	}

	jsonLen := alignUp(len(c.JSON))
	binLen := alignUp(len(c.BIN))
	total := headerSize + 8 + jsonLen + 8 + binLen

	out := make([]byte, 0, total)
	var scratch [4]byte

	put := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:], v)
		out = append(out, scratch[:]...)
	}

	put(Magic)
	put(Version)
	put(uint32(total))

	put(uint32(jsonLen))
	put(chunkJSON)
	out = append(out, c.JSON...)
	for i := len(c.JSON); i < jsonLen; i++ {
		out = append(out, ' ')
	}

	put(uint32(binLen))
	put(chunkBIN)
	out = append(out, c.BIN...)
	for i := len(c.BIN); i < binLen; i++ {
		out = append(out, 0)
	}

	return out, nil
}

// alignUp rounds n up to the next multiple of four.
func alignUp(n int) int {
	return (n + 3) &^ 3
}
