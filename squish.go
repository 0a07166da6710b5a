// Package squish rewrites binary glTF (GLB) containers so their
// embedded raster images are replaced with GPU-ready KTX2 compressed
// textures.
//
// The pipeline parses the container, classifies every referenced
// texture by its role in the material model, obtains a compressed
// replacement for each distinct image (from a content-addressed cache
// or by invoking the external encoder), and reassembles a
// self-consistent container around the new image bytes.
//
// # Quick start
//
//	store, err := cache.NewDisk(cache.DefaultDir())
//	if err != nil {
//	    return err
//	}
//	s := squish.New(texture.FormatASTC, squish.WithCache(store))
//	err = s.ProcessFile(ctx, "scene.glb", "scene.squished.glb")
//
// Processing is sequential: images are encoded one at a time in
// document enumeration order. The output is written only after the full
// rewrite succeeds.
package squish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/squish/encoder"
	"github.com/meigma/squish/glb"
	"github.com/meigma/squish/ktx2"
	"github.com/meigma/squish/texture"
)

// Sentinel errors.
var (
	// ErrUnsupportedInput is returned for input files that are not GLB
	// containers. Textual .gltf files with external resources are
	// rejected, not attempted.
	ErrUnsupportedInput = errors.New("squish: unsupported input file")

	// ErrUnsupportedMIME is returned when an embedded image declares a
	// MIME type other than image/png or image/jpeg.
	ErrUnsupportedMIME = errors.New("squish: unsupported image MIME type")

	// ErrMissingImage is returned when an image's URI does not resolve
	// to an existing local file. Remote URIs are never fetched.
	ErrMissingImage = errors.New("squish: image source not found")

	// ErrInvalidImage is returned when an image record has neither a
	// buffer view nor a URI.
	ErrInvalidImage = errors.New("squish: image has no source")
)

// MimeTypeKTX2 is the MIME type stamped on every processed image.
const MimeTypeKTX2 = "image/ktx2"

// Cache provides content-addressed storage for encoded textures.
//
// Keys are hexadecimal fingerprints over the encoding options and
// source bytes, so a hit is always a byte-exact prior result for the
// same work. Implementations handle their own durability; see the cache
// subpackage for the shared on-disk store.
type Cache interface {
	// Get retrieves an entry by key. A miss is (nil, false, nil); a
	// non-nil error means the store itself failed and aborts the run.
	Get(key string) ([]byte, bool, error)

	// Put stores an entry under key.
	Put(key string, data []byte) error
}

// Squisher rewrites GLB containers with compressed textures.
type Squisher struct {
	format        texture.Format
	supercompress bool
	maxDimension  int
	cache         Cache
	enc           encoder.Encoder
	logger        *slog.Logger
}

// New creates a Squisher targeting the given texture format.
//
// By default supercompression is enabled, the encoder is toktx from
// PATH, no cache is used, and logging is discarded.
func New(format texture.Format, opts ...Option) *Squisher {
	s := &Squisher{
		format:        format,
		supercompress: true,
		maxDimension:  encoder.DefaultMaxDimension,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.enc == nil {
		s.enc = encoder.NewToktx(encoder.WithLogger(s.logger))
	}
	return s
}

// ProcessFile reads a GLB file, processes it, and writes the result.
//
// Only .glb input is accepted. Nothing is written unless the whole
// rewrite succeeds, so a failed run never leaves a partial output file.
func (s *Squisher) ProcessFile(ctx context.Context, inPath, outPath string) error {
	switch ext := filepath.Ext(inPath); ext {
	case ".glb":
	case ".gltf":
		return fmt.Errorf("%w: textual glTF is not supported, convert %s to .glb first", ErrUnsupportedInput, inPath)
	default:
		return fmt.Errorf("%w: %s does not have extension .glb", ErrUnsupportedInput, inPath)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("squish: read input: %w", err)
	}

	out, err := s.Process(ctx, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("squish: write output: %w", err)
	}
	return nil
}

// Process rewrites one GLB container and returns the new container
// bytes.
//
// Each distinct image referenced by a material channel is encoded at
// most once; the in-flight result map is keyed by image index, so
// textures sharing an image share its encoded bytes.
func (s *Squisher) Process(ctx context.Context, data []byte) ([]byte, error) {
	container, err := glb.Decode(data)
	if err != nil {
		return nil, err
	}
	doc, err := glb.ParseDocument(container.JSON)
	if err != nil {
		return nil, err
	}

	targets := texture.Classify(doc)
	s.logger.Info("classified textures", "images", len(targets), "format", s.format.String())

	images := make(map[int][]byte, len(targets))
	for _, tgt := range targets {
		encoded, err := s.processImage(ctx, doc, container.BIN, tgt)
		if err != nil {
			return nil, err
		}
		images[tgt.Image] = encoded
	}

	return rewrite(doc, container.BIN, images)
}

// processImage resolves one image's source bytes and returns its
// encoded replacement, consulting the cache before the encoder.
func (s *Squisher) processImage(ctx context.Context, doc *glb.Document, blob []byte, tgt texture.Target) ([]byte, error) {
	raw, ext, err := s.resolveSource(doc, blob, tgt.Image)
	if err != nil {
		return nil, err
	}

	key := s.fingerprint(raw)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			s.logger.Debug("cache hit", "image", tgt.Image, "key", key)
			return cached, nil
		}
	}

	s.logger.Info("compressing image", "image", tgt.Image, "role", tgt.Role.String())

	prepared, ext, resized, err := encoder.Prepare(raw, ext, s.maxDimension)
	if err != nil {
		return nil, err
	}
	if resized {
		s.logger.Warn("image exceeded maximum dimension, resized", "image", tgt.Image, "max", s.maxDimension)
	}

	encoded, err := s.enc.Encode(ctx, encoder.Request{
		Data:          prepared,
		Ext:           ext,
		Format:        s.format,
		Role:          tgt.Role,
		Supercompress: s.supercompress,
	})
	if err != nil {
		return nil, err
	}
	if _, err := ktx2.ParseHeader(encoded); err != nil {
		return nil, fmt.Errorf("squish: encoder output is not KTX2: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(key, encoded); err != nil {
			return nil, err
		}
	}
	return encoded, nil
}

// resolveSource returns the raw bytes and file extension for an image,
// slicing embedded sources out of the blob and reading external
// references from the local filesystem.
func (s *Squisher) resolveSource(doc *glb.Document, blob []byte, index int) ([]byte, string, error) {
	img := doc.Images[index]

	if img.BufferView != nil {
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			return nil, "", fmt.Errorf("%w: image %d references buffer view %d of %d", ErrInvalidImage, index, *img.BufferView, len(doc.BufferViews))
		}
		data, err := glb.ViewBytes(blob, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, "", err
		}
		ext, err := extForMime(img.MimeType)
		if err != nil {
			return nil, "", fmt.Errorf("%w: image %d declares %q", ErrUnsupportedMIME, index, img.MimeType)
		}
		return data, ext, nil
	}

	if img.URI != "" {
		if strings.Contains(img.URI, "://") || strings.HasPrefix(img.URI, "data:") {
			return nil, "", fmt.Errorf("%w: %q is not a local path", ErrMissingImage, img.URI)
		}
		data, err := os.ReadFile(img.URI)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q: %v", ErrMissingImage, img.URI, err)
		}
		ext, err := extForURI(img.URI, img.MimeType)
		if err != nil {
			return nil, "", fmt.Errorf("%w: image %d (%s)", ErrUnsupportedMIME, index, img.URI)
		}
		return data, ext, nil
	}

	return nil, "", fmt.Errorf("%w: image %d", ErrInvalidImage, index)
}

func extForMime(mime string) (string, error) {
	switch mime {
	case "image/png":
		return "png", nil
	case "image/jpeg":
		return "jpg", nil
	default:
		return "", ErrUnsupportedMIME
	}
}

func extForURI(uri, mime string) (string, error) {
	if mime != "" {
		return extForMime(mime)
	}
	switch strings.ToLower(filepath.Ext(uri)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpg", nil
	default:
		return "", ErrUnsupportedMIME
	}
}

// fingerprint computes the cache key for raw source bytes under the
// current run options. Same options and bytes always hash to the same
// key; changing either produces a different key.
func (s *Squisher) fingerprint(data []byte) string {
	digester := digest.SHA256.Digester()
	h := digester.Hash()

	opts := [2]byte{byte(s.format), 0}
	if s.supercompress {
		opts[1] = 1
	}
	h.Write(opts[:])
	h.Write(data)

	return digester.Digest().Encoded()
}
