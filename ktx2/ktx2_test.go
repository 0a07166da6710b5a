package ktx2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		want := &Header{
			VkFormat:               FormatASTC6x6SRGB,
			TypeSize:               1,
			PixelWidth:             512,
			PixelHeight:            256,
			FaceCount:              1,
			LevelCount:             10,
			SupercompressionScheme: SupercompressionZstd,
		}

		data := AppendHeader(nil, want)
		require.Len(t, data, HeaderSize)

		got, err := ParseHeader(data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("BadIdentifier", func(t *testing.T) {
		data := AppendHeader(nil, &Header{})
		data[0] = 'K'
		_, err := ParseHeader(data)
		assert.ErrorIs(t, err, ErrBadIdentifier)
	})

	t.Run("Truncated", func(t *testing.T) {
		data := AppendHeader(nil, &Header{})
		_, err := ParseHeader(data[:40])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("TrailingDataIgnored", func(t *testing.T) {
		data := AppendHeader(nil, &Header{VkFormat: FormatR8G8B8A8SRGB, LevelCount: 1})
		data = append(data, make([]byte, 1024)...)
		h, err := ParseHeader(data)
		require.NoError(t, err)
		assert.Equal(t, FormatR8G8B8A8SRGB, h.VkFormat)
	})
}
