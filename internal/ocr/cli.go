package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CLIEngine runs the tesseract binary once per image in TSV mode and rebuilds
// the text and mean word confidence from the rows.
type CLIEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
	tmpDir string
}

// NewCLIEngine returns an engine that shells out through runner.
func NewCLIEngine(cfg Config, runner Runner, logger *slog.Logger) *CLIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIEngine{cfg: cfg.WithDefaults(), runner: runner, logger: logger}
}

func (e *CLIEngine) Recognize(ctx context.Context, img []byte, progress Progress) (Result, error) {
	if e.tmpDir == "" {
		dir, err := os.MkdirTemp("", "docscan-ocr-*")
		if err != nil {
			return Result{}, err
		}
		e.tmpDir = dir
	}
	in := filepath.Join(e.tmpDir, "page.png")
	if err := os.WriteFile(in, img, 0o600); err != nil {
		return Result{}, err
	}
	Report(progress, 20)

	// tesseract <file> stdout -l <langs> --psm <n> tsv
	args := []string{in, "stdout", "-l", strings.Join(e.cfg.Languages, "+"), "--psm", strconv.Itoa(e.cfg.PSM)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	Report(progress, 85)

	text, mean := parseTSV(string(out))
	text = Normalize(text)
	return Result{Text: text, Confidence: Blend(mean, HeuristicConfidence(text))}, nil
}

// Close removes the scratch directory.
func (e *CLIEngine) Close() error {
	if e.tmpDir == "" {
		return nil
	}
	return os.RemoveAll(e.tmpDir)
}

// parseTSV joins word rows (level 5) into lines keyed by block, paragraph and
// line number, and averages word confidences, skipping -1 entries.
func parseTSV(tsv string) (string, float64) {
	var (
		b        strings.Builder
		lastLine string
		lastPar  string
		sum, n   float64
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		par := cols[2] + "." + cols[3]
		line := par + "." + cols[4]
		switch {
		case b.Len() == 0:
		case par != lastPar:
			b.WriteString("\n\n")
		case line != lastLine:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(word)
		lastPar, lastLine = par, line

		if v, err := strconv.ParseFloat(cols[10], 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return b.String(), 0
	}
	return b.String(), sum / n
}
