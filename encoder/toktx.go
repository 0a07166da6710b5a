package encoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/meigma/squish/texture"
)

// DefaultBinary is the encoder executable looked up on PATH.
const DefaultBinary = "toktx"

// DefaultSupercompressionLevel is the zstd level passed with --zcmp.
const DefaultSupercompressionLevel = 3

// ToktxOption configures a Toktx encoder.
type ToktxOption func(*Toktx)

// WithBinary sets the encoder executable path.
func WithBinary(path string) ToktxOption {
	return func(t *Toktx) {
		t.bin = path
	}
}

// WithTempDir sets the directory for intermediate files. Defaults to
// the system temp directory.
func WithTempDir(dir string) ToktxOption {
	return func(t *Toktx) {
		t.tempDir = dir
	}
}

// WithSupercompressionLevel sets the zstd level used when a request
// asks for supercompression.
func WithSupercompressionLevel(level int) ToktxOption {
	return func(t *Toktx) {
		t.level = level
	}
}

// WithLogger sets a logger for command tracing. If nil, output is
// discarded.
func WithLogger(logger *slog.Logger) ToktxOption {
	return func(t *Toktx) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Toktx encodes textures by running the toktx executable.
//
// toktx works on files, so each request writes the source bytes to a
// temp file, runs the process, and slurps the resulting KTX2 file. Both
// temp files are removed afterwards.
type Toktx struct {
	bin     string
	tempDir string
	level   int
	logger  *slog.Logger
}

var _ Encoder = (*Toktx)(nil)

// NewToktx creates a toktx-backed encoder.
func NewToktx(opts ...ToktxOption) *Toktx {
	t := &Toktx{
		bin:    DefaultBinary,
		level:  DefaultSupercompressionLevel,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Encode runs toktx for one request and returns the KTX2 bytes.
//
// A nonzero exit aborts with the process's stderr as the error message.
func (t *Toktx) Encode(ctx context.Context, req Request) ([]byte, error) {
	in, err := os.CreateTemp(t.tempDir, "squish-src-*."+req.Ext)
	if err != nil {
		return nil, fmt.Errorf("encoder: create source temp file: %w", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(req.Data); err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("encoder: write source temp file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("encoder: close source temp file: %w", err)
	}

	outPath := strings.TrimSuffix(inPath, "."+req.Ext) + ".ktx2"
	defer os.Remove(outPath)

	args := toktxArgs(req, outPath, inPath, t.level)
	t.logger.Debug("running encoder", "bin", t.bin, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncode, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("encoder: read encoder output: %w", err)
	}
	return data, nil
}

// toktxArgs derives the toktx argument list for a request. The mapping
// is deterministic: identical requests always produce identical
// arguments.
func toktxArgs(req Request, outPath, inPath string, zcmpLevel int) []string {
	args := []string{
		"--t2",        // KTX2 container, not KTX.
		"--genmipmap", // Always generate the full mip chain.
	}

	switch req.Format {
	case texture.FormatASTC:
		args = append(args,
			"--encode", "astc",
			"--astc_blk_d", req.Role.BlockSize(),
			"--astc_quality", "thorough",
		)
	default:
		args = append(args, "--target_type", "RGBA")
	}

	if req.Role == texture.RoleNormal {
		args = append(args, "--normal_mode", "--normalize")
	}

	args = append(args, "--assign_oetf")
	if req.Role.SRGB() {
		args = append(args, "srgb")
	} else {
		args = append(args, "linear")
	}

	if req.Supercompress {
		args = append(args, "--zcmp", strconv.Itoa(zcmpLevel))
	}

	return append(args, outPath, inPath)
}
