package glb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	jsonChunk := []byte(`{"asset":{"version":"2.0"}}`)
	binChunk := []byte{1, 2, 3, 4, 5}

	valid, err := (&Container{JSON: jsonChunk, BIN: binChunk}).Encode()
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		c, err := Decode(valid)
		require.NoError(t, err)
		assert.Equal(t, jsonChunk, c.JSON)
		// BIN keeps its zero padding; the payload must be a prefix.
		require.GreaterOrEqual(t, len(c.BIN), len(binChunk))
		assert.Equal(t, binChunk, c.BIN[:len(binChunk)])
	})

	t.Run("JSONPaddingStripped", func(t *testing.T) {
		// Encode pads the JSON chunk with spaces and records the padded
		// length; Decode must hand back the unpadded document bytes.
		require.NotZero(t, len(jsonChunk)%4)
		c, err := Decode(valid)
		require.NoError(t, err)
		assert.Len(t, c.JSON, len(jsonChunk))
		assert.Equal(t, byte('}'), c.JSON[len(c.JSON)-1])
	})

	t.Run("BadMagic", func(t *testing.T) {
		corrupt := append([]byte(nil), valid...)
		copy(corrupt, "GLTF")
		_, err := Decode(corrupt)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("BadVersion", func(t *testing.T) {
		corrupt := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(corrupt[4:8], 1)
		_, err := Decode(corrupt)
		assert.ErrorIs(t, err, ErrBadVersion)
	})

	t.Run("TruncatedHeader", func(t *testing.T) {
		_, err := Decode(valid[:8])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("TruncatedChunk", func(t *testing.T) {
		corrupt := append([]byte(nil), valid[:20]...)
		binary.LittleEndian.PutUint32(corrupt[8:12], 20)
		_, err := Decode(corrupt)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("MissingBinaryChunk", func(t *testing.T) {
		// Hand-build a container holding only a JSON chunk.
		padded := append(append([]byte(nil), jsonChunk...), ' ')
		total := 12 + 8 + len(padded)
		data := make([]byte, 0, total)
		data = binary.LittleEndian.AppendUint32(data, Magic)
		data = binary.LittleEndian.AppendUint32(data, Version)
		data = binary.LittleEndian.AppendUint32(data, uint32(total))
		data = binary.LittleEndian.AppendUint32(data, uint32(len(padded)))
		data = binary.LittleEndian.AppendUint32(data, chunkJSON)
		data = append(data, padded...)

		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrNoBinaryChunk)
	})

	t.Run("UnknownChunkSkipped", func(t *testing.T) {
		extra := make([]byte, 0, len(valid)+16)
		extra = append(extra, valid...)
		extra = binary.LittleEndian.AppendUint32(extra, 4)
		extra = binary.LittleEndian.AppendUint32(extra, 0x12345678)
		extra = append(extra, 0xDE, 0xAD, 0xBE, 0xEF)
		binary.LittleEndian.PutUint32(extra[8:12], uint32(len(extra)))

		c, err := Decode(extra)
		require.NoError(t, err)
		assert.Equal(t, jsonChunk, c.JSON)
	})
}

func TestEncode(t *testing.T) {
	t.Run("Padding", func(t *testing.T) {
		// Deliberately unaligned chunk lengths.
		c := &Container{
			JSON: []byte(`{"asset":{"version":"2.0"},"x":1}`),
			BIN:  []byte{1, 2, 3},
		}
		out, err := c.Encode()
		require.NoError(t, err)

		assert.Zero(t, len(out)%4)
		assert.Equal(t, uint32(len(out)), binary.LittleEndian.Uint32(out[8:12]))

		jsonLen := binary.LittleEndian.Uint32(out[12:16])
		assert.Zero(t, jsonLen%4)
		// JSON chunks are padded with spaces per the GLB spec.
		assert.Equal(t, byte(' '), out[12+8+jsonLen-1])

		binLen := binary.LittleEndian.Uint32(out[12+8+jsonLen : 12+8+jsonLen+4])
		assert.Zero(t, binLen%4)
		assert.Equal(t, byte(0), out[len(out)-1])
	})

	t.Run("MissingBIN", func(t *testing.T) {
		_, err := (&Container{JSON: []byte(`{}`)}).Encode()
		assert.ErrorIs(t, err, ErrNoBinaryChunk)
	})

	t.Run("EmptyBINAllowed", func(t *testing.T) {
		out, err := (&Container{JSON: []byte(`{}`), BIN: []byte{}}).Encode()
		require.NoError(t, err)
		_, err = Decode(out)
		require.NoError(t, err)
	})
}
