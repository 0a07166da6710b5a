package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	// Source images are PNG or JPEG; register both decoders.
	_ "image/jpeg"
)

// DefaultMaxDimension is the largest edge length handed to the encoder
// without resizing.
const DefaultMaxDimension = 4096

// Prepare readies source image bytes for the encoder.
//
// It decodes just the header to learn the dimensions. If the longest
// edge is within maxDim the bytes pass through untouched. Otherwise the
// image is fully decoded, scaled down to fit maxDim on its longest edge
// while preserving aspect ratio, and re-encoded as PNG so the
// intermediate step stays lossless. The returned extension is "png"
// when a resize happened, ext otherwise.
func Prepare(data []byte, ext string, maxDim int) (out []byte, outExt string, resized bool, err error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, ext, false, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	w, h := fitWithin(cfg.Width, cfg.Height, maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, "", false, fmt.Errorf("encoder: reencode resized image: %w", err)
	}
	return buf.Bytes(), "png", true, nil
}

// fitWithin scales (w, h) so the longest edge equals max, preserving
// aspect ratio. Both results are at least 1.
func fitWithin(w, h, max int) (int, int) {
	if w >= h {
		return max, scaleEdge(h, w, max)
	}
	return scaleEdge(w, h, max), max
}

func scaleEdge(short, long, max int) int {
	scaled := (short*max + long/2) / long
	if scaled < 1 {
		return 1
	}
	return scaled
}
