// Command squish rewrites a GLB file so its embedded textures are
// replaced with KTX2 compressed images.
//
// Usage:
//
//	squish --format astc [flags] input.glb output.glb
//
// The external toktx encoder must be on PATH. Encoded images are cached
// in a shared per-user directory keyed by source bytes and options, so
// re-running over unchanged assets skips the encoder entirely.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/meigma/squish"
	"github.com/meigma/squish/cache"
	"github.com/meigma/squish/texture"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		format          = pflag.String("format", "", "texture format to use: 'raw' or 'astc'")
		cacheDir        = pflag.String("cache-dir", cache.DefaultDir(), "directory for the encoded image cache")
		noCache         = pflag.Bool("no-cache", false, "disable the image cache, forcing all images to be reprocessed")
		noSupercompress = pflag.Bool("no-supercompression", false, "disable zstd supercompression of encoded images")
		verbose         = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --format <raw|astc> [flags] <input.glb> <output.glb>\n\nFlags:\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if pflag.NArg() != 2 {
		pflag.Usage()
		return fmt.Errorf("expected <input> and <output> arguments, got %d", pflag.NArg())
	}
	input, output := pflag.Arg(0), pflag.Arg(1)

	fmtSel, err := texture.ParseFormat(*format)
	if err != nil {
		return err
	}

	opts := []squish.Option{
		squish.WithLogger(logger),
		squish.WithSupercompression(!*noSupercompress),
	}
	if !*noCache {
		store, err := cache.NewDisk(*cacheDir)
		if err != nil {
			return err
		}
		opts = append(opts, squish.WithCache(store))
	}

	logger.Info("squishing", "input", input)
	s := squish.New(fmtSel, opts...)
	if err := s.ProcessFile(context.Background(), input, output); err != nil {
		return err
	}
	logger.Info("squished", "output", output)
	return nil
}
