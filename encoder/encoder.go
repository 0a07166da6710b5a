// Package encoder invokes the external KTX2 texture encoder.
//
// The encoder is an opaque collaborator: it receives a source image
// file plus a deterministic option set derived from the texture's role
// and the target format, and produces a KTX2 file. Source images larger
// than the configured maximum are resized before the handoff.
package encoder

import (
	"context"
	"errors"

	"github.com/meigma/squish/texture"
)

// Sentinel errors.
var (
	// ErrEncode is returned when the external encoder exits nonzero. The
	// wrapped message carries the encoder's stderr verbatim.
	ErrEncode = errors.New("encoder: toktx failed")

	// ErrDecode is returned when source image bytes cannot be decoded.
	ErrDecode = errors.New("encoder: undecodable source image")
)

// Request describes a single encode invocation.
type Request struct {
	// Data is the prepared source image, PNG or JPEG encoded.
	Data []byte

	// Ext is the source file extension ("png" or "jpg"); the encoder
	// infers the input format from it.
	Ext string

	// Format is the target texture format.
	Format texture.Format

	// Role selects role-dependent options: color transfer, ASTC block
	// size, and normal-map normalization.
	Role texture.Role

	// Supercompress requests zstd supercompression of the encoded
	// payload.
	Supercompress bool
}

// Encoder produces a KTX2 texture from a prepared source image.
type Encoder interface {
	Encode(ctx context.Context, req Request) ([]byte, error)
}
