// Package ingest feeds image files from disk into the scan use case: one
// path, a whole directory, or a watched drop folder.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/services/scan"
)

// Scanner is the behavior the ingestor depends on; *scan.Service implements it.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (scan.Result, error)
}

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string
	BackPath     string
	Records      []entity.Record
	Deduplicated bool
	HashHex      string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

type Ingestor struct {
	scanner Scanner
	logger  *slog.Logger
}

func NewIngestor(s Scanner, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{scanner: s, logger: logger}
}

// IngestPath scans one image, with backPath as its second side when set.
func (i *Ingestor) IngestPath(ctx context.Context, path, backPath string, force bool) (FileResult, error) {
	out := FileResult{Path: path, BackPath: backPath}
	if !AllowedExt(filepath.Ext(path)) {
		return out, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(path))
	}
	front, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	var back []byte
	if backPath != "" {
		if back, err = os.ReadFile(backPath); err != nil {
			return out, fmt.Errorf("read back: %w", err)
		}
	}

	res, err := i.scanner.Scan(ctx, scan.Request{Name: filepath.Base(path), Front: front, Back: back, Force: force})
	if err != nil {
		return out, err
	}
	if res.BackErr != nil {
		i.logger.Warn("ingest.back_failed", "path", backPath, "error", res.BackErr)
	}
	out.Records, out.Deduplicated, out.HashHex = res.Records, res.Deduplicated, res.ContentHash
	return out, nil
}

// AllowedExt checks if a file extension is a scannable image.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
