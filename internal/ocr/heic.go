package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// HEICConverter turns HEIC/HEIF photos into PNG bytes with an external tool.
// Converter is one of "heif-convert", "magick" or "sips". When CacheDir is set,
// results are kept at {CacheDir}/{sha256 of input}.png and reused.
type HEICConverter struct {
	Converter string
	CacheDir  string
	Runner    Runner
	Logger    *slog.Logger
}

// ErrHEICUnsupported is returned when no converter is configured.
var ErrHEICUnsupported = errors.New("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")

// ToPNG converts data and returns the PNG bytes.
func (h HEICConverter) ToPNG(ctx context.Context, data []byte) ([]byte, error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := h.Runner
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}

	var cached string
	if h.CacheDir != "" {
		sum := sha256.Sum256(data)
		cached = filepath.Join(h.CacheDir, hex.EncodeToString(sum[:])+".png")
		if b, err := os.ReadFile(cached); err == nil {
			logger.Debug("ocr.heic.cache_hit", "cache", cached)
			return b, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "docscan-heic-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	in := filepath.Join(tmpDir, "in.heic")
	out := filepath.Join(tmpDir, "out.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, err
	}

	var errb []byte
	switch h.Converter {
	case "heif-convert":
		_, errb, err = runner.Run(ctx, "heif-convert", in, out)
	case "magick":
		_, errb, err = runner.Run(ctx, "magick", in, out)
	case "sips":
		_, errb, err = runner.Run(ctx, "sips", "-s", "format", "png", in, "--out", out)
	default:
		return nil, ErrHEICUnsupported
	}
	if err != nil {
		return nil, fmt.Errorf("%s convert failed: %w: %s", h.Converter, err, truncate(string(errb), 512))
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}

	if cached != "" {
		if err := os.MkdirAll(h.CacheDir, 0o755); err != nil {
			logger.Warn("ocr.heic.cache_dir", "dir", h.CacheDir, "error", err)
		} else if err := os.WriteFile(cached, png, 0o644); err != nil {
			logger.Warn("ocr.heic.cache_write", "cache", cached, "error", err)
		}
	}
	return png, nil
}
