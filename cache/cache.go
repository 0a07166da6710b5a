// Package cache provides a content-addressed disk store for encoded
// textures.
//
// Entries are keyed by the hexadecimal fingerprint of their encoding
// options and source bytes, so identical inputs resolve to identical
// entries across runs and even across documents. The store is shared
// between concurrent runs without locking: writes go to a temp file and
// are renamed into place, so readers never observe a partial entry, and
// racing writers of the same key produce identical bytes.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const (
	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600
)

// zstd frame magic, used to recognize compressed entries on read.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Option configures a Disk cache.
type Option func(*Disk)

// WithCompression controls whether new entries are stored zstd-framed.
// Reads detect compression per entry, so toggling this does not
// invalidate an existing cache. Enabled by default; worthwhile for
// uncompressed RGBA output, close to free for supercompressed ASTC.
func WithCompression(enabled bool) Option {
	return func(c *Disk) {
		c.compress = enabled
	}
}

// WithDirPerm sets the permissions used when creating the cache
// directory.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Disk) {
		c.dirPerm = mode
	}
}

// Disk is a content-addressed store rooted at a directory, with one
// file per entry named by the entry's hexadecimal key.
type Disk struct {
	dir      string
	compress bool
	dirPerm  os.FileMode

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// DefaultDir returns the per-user default cache location.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "squish-cache")
}

// NewDisk creates a disk cache rooted at dir, creating it if needed.
func NewDisk(dir string, opts ...Option) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("cache: dir is empty")
	}
	c := &Disk{
		dir:      dir,
		compress: true,
		dirPerm:  defaultDirPerm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	var err error
	if c.enc, err = zstd.NewWriter(nil); err != nil {
		return nil, fmt.Errorf("cache: init compressor: %w", err)
	}
	if c.dec, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("cache: init decompressor: %w", err)
	}
	return c, nil
}

// Get returns the entry stored under key. A missing entry is a miss
// with a nil error; any other read failure, including a corrupt
// compressed entry, is returned so callers do not silently redo work
// against a broken store.
func (c *Disk) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read entry: %w", err)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		out, err := c.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, false, fmt.Errorf("cache: decompress entry %s: %w", key, err)
		}
		return out, true, nil
	}
	return data, true, nil
}

// Put stores data under key. The write is atomic: data lands in a temp
// file in the cache directory and is renamed over the final name, so a
// concurrent Get of the same key sees either nothing or the complete
// entry.
func (c *Disk) Put(key string, data []byte) error {
	if c.compress {
		data = c.enc.EncodeAll(data, nil)
	}

	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp entry: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache: close entry: %w", err)
	}
	if err := os.Chmod(tmpPath, defaultFilePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache: chmod entry: %w", err)
	}
	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache: publish entry: %w", err)
	}
	return nil
}

// Delete removes the entry stored under key. Missing entries are not an
// error.
func (c *Disk) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: delete entry: %w", err)
	}
	return nil
}

func (c *Disk) path(key string) string {
	return filepath.Join(c.dir, key)
}
