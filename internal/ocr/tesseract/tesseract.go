// Package tesseract is the embedded local engine: libtesseract through a
// gosseract client owned by one request.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/docscan/internal/ocr"
)

// Engine wraps one gosseract client. It is not safe for concurrent use and
// must be closed after its single recognition.
type Engine struct {
	cfg    ocr.Config
	client *gosseract.Client
	logger *slog.Logger
}

// New allocates a fresh client.
func New(cfg ocr.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg.WithDefaults(), client: gosseract.NewClient(), logger: logger}
}

// NewFactory returns an ocr.Factory handing out a new Engine per call.
func NewFactory(cfg ocr.Config, logger *slog.Logger) ocr.Factory {
	return func() (ocr.Engine, error) { return New(cfg, logger), nil }
}

func (e *Engine) Recognize(ctx context.Context, img []byte, progress ocr.Progress) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	start := time.Now()
	c := e.client
	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return ocr.Result{}, fmt.Errorf("set tessdata: %w", err)
		}
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return ocr.Result{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
		return ocr.Result{}, fmt.Errorf("set psm: %w", err)
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	ocr.Report(progress, 30)

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	ocr.Report(progress, 80)

	text = ocr.Normalize(text)
	conf := ocr.Blend(wordConfidence(c), ocr.HeuristicConfidence(text))
	ocr.Report(progress, 95)

	e.logger.Debug("ocr.tesseract.ok",
		"chars", len(text),
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds())
	return ocr.Result{Text: text, Confidence: conf}, nil
}

// wordConfidence is the mean word confidence (0..100), or 0 when unavailable.
func wordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

// Close releases the client.
func (e *Engine) Close() error {
	return e.client.Close()
}
