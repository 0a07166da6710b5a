package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height, format
}

func TestPrepare(t *testing.T) {
	t.Run("SmallImagePassesThrough", func(t *testing.T) {
		src := encodePNG(t, 32, 32)
		out, ext, resized, err := Prepare(src, "png", 64)
		require.NoError(t, err)
		assert.False(t, resized)
		assert.Equal(t, "png", ext)
		assert.Equal(t, src, out)
	})

	t.Run("JPEGKeepsExtension", func(t *testing.T) {
		src := encodeJPEG(t, 48, 16)
		out, ext, resized, err := Prepare(src, "jpg", 64)
		require.NoError(t, err)
		assert.False(t, resized)
		assert.Equal(t, "jpg", ext)
		assert.Equal(t, src, out)
	})

	t.Run("LandscapeResized", func(t *testing.T) {
		src := encodePNG(t, 200, 100)
		out, ext, resized, err := Prepare(src, "png", 64)
		require.NoError(t, err)
		assert.True(t, resized)
		assert.Equal(t, "png", ext)

		w, h, format := decodeDims(t, out)
		assert.Equal(t, "png", format)
		assert.Equal(t, 64, w)
		assert.Equal(t, 32, h)
	})

	t.Run("PortraitResized", func(t *testing.T) {
		src := encodePNG(t, 100, 200)
		out, _, resized, err := Prepare(src, "png", 64)
		require.NoError(t, err)
		assert.True(t, resized)

		w, h, _ := decodeDims(t, out)
		assert.Equal(t, 32, w)
		assert.Equal(t, 64, h)
	})

	t.Run("OversizedJPEGBecomesPNG", func(t *testing.T) {
		// The intermediate re-encode must be lossless, so resized JPEG
		// input comes back as PNG.
		src := encodeJPEG(t, 128, 128)
		out, ext, resized, err := Prepare(src, "jpg", 64)
		require.NoError(t, err)
		assert.True(t, resized)
		assert.Equal(t, "png", ext)

		w, h, format := decodeDims(t, out)
		assert.Equal(t, "png", format)
		assert.Equal(t, 64, w)
		assert.Equal(t, 64, h)
	})

	t.Run("ExtremeAspectClampsToOne", func(t *testing.T) {
		src := encodePNG(t, 300, 1)
		out, _, resized, err := Prepare(src, "png", 64)
		require.NoError(t, err)
		assert.True(t, resized)

		w, h, _ := decodeDims(t, out)
		assert.Equal(t, 64, w)
		assert.Equal(t, 1, h)
	})

	t.Run("UndecodableBytes", func(t *testing.T) {
		_, _, _, err := Prepare([]byte("definitely not an image"), "png", 64)
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{8192, 8192, 4096, 4096, 4096},
		{8192, 4096, 4096, 4096, 2048},
		{4096, 8192, 4096, 2048, 4096},
		{6000, 4000, 4096, 4096, 2731},
		{10000, 1, 4096, 4096, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}
