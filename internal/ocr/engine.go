package ocr

import (
	"context"
	"log/slog"
)

// Result is the text an engine read and its confidence on a 0..100 scale.
type Result struct {
	Text       string
	Confidence float64
}

// Progress receives engine milestones as percentages of the recognition step.
type Progress func(pct int)

// Engine is one local recognition handle. It is request-scoped: acquire it
// from a Factory, use it for one image and Close it on every exit path.
type Engine interface {
	Recognize(ctx context.Context, img []byte, progress Progress) (Result, error)
	Close() error
}

// Factory acquires a fresh Engine.
type Factory func() (Engine, error)

// Config selects and tunes the local engine.
type Config struct {
	Engine      string // "gosseract" | "cli"
	Tesseract   string // binary for the cli engine; default "tesseract"
	TessdataDir string
	Languages   []string // default eng, hin
	PSM         int      // page segmentation mode; default 6
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Engine == "" {
		c.Engine = "gosseract"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng", "hin"}
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	return c
}

// NewCLIFactory returns a Factory of CLIEngines. The embedded engine lives in
// package tesseract.
func NewCLIFactory(cfg Config, runner Runner, logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	cfg = cfg.WithDefaults()
	return func() (Engine, error) { return NewCLIEngine(cfg, runner, logger), nil }
}

// Report forwards pct to p when p is set.
func Report(p Progress, pct int) {
	if p != nil {
		p(pct)
	}
}
