// Package local is the last-resort provider: preprocess the photo and run
// the embedded OCR engine. It needs no network and never gets skipped.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/ocr"
	"github.com/joseph-ayodele/docscan/internal/preprocess"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

// Converter turns a container the engine cannot read (HEIC) into PNG.
type Converter interface {
	ToPNG(ctx context.Context, data []byte) ([]byte, error)
}

type Provider struct {
	factory ocr.Factory
	pre     *preprocess.Preprocessor
	heic    Converter
	log     *slog.Logger
}

type Option func(*Provider)

func WithPreprocessor(p *preprocess.Preprocessor) Option {
	return func(l *Provider) { l.pre = p }
}

func WithHEICConverter(c Converter) Option {
	return func(l *Provider) { l.heic = c }
}

// New builds the local provider. Every Recognize acquires its own engine
// from factory and closes it before returning.
func New(factory ocr.Factory, logger *slog.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{factory: factory, log: logger}
	for _, o := range opts {
		o(p)
	}
	if p.pre == nil {
		p.pre = preprocess.New(logger)
	}
	return p
}

func (p *Provider) Name() string { return common.ProviderLocal }

// ReportsProgress marks the engine's milestones as real progress.
func (p *Provider) ReportsProgress() bool { return true }

func (p *Provider) Recognize(ctx context.Context, img provider.Image, rep *progress.Reporter) (provider.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := rep.Enter(constants.StagePreprocessing); err != nil {
		p.log.Warn("local.stage", "req_id", rid, "error", err)
	}
	// FAILED is only reachable from RECOGNIZING, so get there on every path.
	defer func() {
		if rep.Stage() != constants.StageRecognizing {
			_ = rep.Enter(constants.StageRecognizing)
		}
	}()

	data := img.Data
	var err error
	if img.ContentType() == "image/heic" {
		if p.heic == nil {
			return provider.Result{}, common.Unavailable(p.Name(), ocr.ErrHEICUnsupported)
		}
		if data, err = p.heic.ToPNG(ctx, data); err != nil {
			return provider.Result{}, common.Unavailable(p.Name(), err)
		}
	}
	data = p.pre.Process(data)
	rep.Report(progress.Preprocessed)

	if err := rep.Enter(constants.StageRecognizing); err != nil {
		p.log.Warn("local.stage", "req_id", rid, "error", err)
	}

	if p.factory == nil {
		return provider.Result{}, common.Unavailable(p.Name(), fmt.Errorf("no local engine configured"))
	}
	engine, err := p.factory()
	if err != nil {
		return provider.Result{}, common.Unavailable(p.Name(), fmt.Errorf("acquire engine: %w", err))
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			p.log.Warn("local.engine_close", "req_id", rid, "error", cerr)
		}
	}()

	out, err := engine.Recognize(ctx, data, rep.Report)
	if err != nil {
		if ctx.Err() != nil {
			return provider.Result{}, ctx.Err()
		}
		return provider.Result{}, common.Unavailable(p.Name(), err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return provider.Result{}, common.Invalid(p.Name(), "engine returned no text")
	}

	p.log.Info("local.ok",
		"req_id", rid,
		"chars", len(out.Text),
		"confidence", out.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return provider.Result{Text: out.Text, Confidence: out.Confidence, Provider: p.Name()}, nil
}
