package squish

import (
	"log/slog"

	"github.com/meigma/squish/encoder"
)

// Option configures a Squisher.
type Option func(*Squisher)

// WithCache sets the content-addressed store consulted before each
// encode. A nil cache disables caching and forces every image to be
// re-encoded.
func WithCache(c Cache) Option {
	return func(s *Squisher) {
		s.cache = c
	}
}

// WithEncoder replaces the external encoder. The default runs toktx
// from PATH.
func WithEncoder(e encoder.Encoder) Option {
	return func(s *Squisher) {
		s.enc = e
	}
}

// WithSupercompression controls zstd supercompression of the encoded
// payload. Enabled by default.
func WithSupercompression(enabled bool) Option {
	return func(s *Squisher) {
		s.supercompress = enabled
	}
}

// WithMaxDimension sets the largest edge length handed to the encoder
// without resizing. Defaults to [encoder.DefaultMaxDimension].
func WithMaxDimension(max int) Option {
	return func(s *Squisher) {
		if max > 0 {
			s.maxDimension = max
		}
	}
}

// WithLogger sets a logger for progress and encoder tracing. If nil,
// logging is discarded (the default).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Squisher) {
		if logger != nil {
			s.logger = logger
		}
	}
}
