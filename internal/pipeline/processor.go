// Package pipeline turns one document photo into an entity.Record:
// recognize (router) -> classify -> extract.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/classify"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/extract"
	"github.com/joseph-ayodele/docscan/internal/metrics"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

// Recognizer is the provider chain; *router.Router implements it.
type Recognizer interface {
	Recognize(ctx context.Context, img provider.Image, rep *progress.Reporter) (provider.Result, error)
}

// Side names for two-sided documents.
const (
	SideFront = "front"
	SideBack  = "back"
)

// Processor holds read-only collaborators and is safe for concurrent scans.
type Processor struct {
	Logger     *slog.Logger
	Recognizer Recognizer
	Classifier *classify.Classifier
	Extractor  *extract.Engine
	Metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Processor)

func WithClassifier(c *classify.Classifier) Option {
	return func(p *Processor) { p.Classifier = c }
}

func WithExtractor(e *extract.Engine) Option {
	return func(p *Processor) { p.Extractor = e }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.Metrics = m }
}

func NewProcessor(logger *slog.Logger, rec Recognizer, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{Logger: logger, Recognizer: rec, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	if p.Classifier == nil {
		p.Classifier = classify.New(nil)
	}
	if p.Extractor == nil {
		p.Extractor = extract.NewEngine(logger)
	}
	return p
}

// Scan recognizes img and builds its record. sink may be nil. The only error
// besides cancellation wraps common.ErrAllProvidersExhausted; classification
// and extraction never fail.
func (p *Processor) Scan(ctx context.Context, img provider.Image, sink progress.Sink) (entity.Record, error) {
	start := p.now()
	rep := progress.New(sink)

	res, err := p.Recognizer.Recognize(ctx, img, rep)
	if err != nil {
		p.Logger.Error("pipeline.scan.failed", "source", img.Name, "side", common.SideFromContext(ctx), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.Record{}, err
	}
	// A cancelled request discards whatever the provider produced.
	if err := ctx.Err(); err != nil {
		return entity.Record{}, err
	}

	p.enter(rep, constants.StageClassifying)
	dt := p.Classifier.Classify(res.Text)

	p.enter(rep, constants.StageExtracting)
	fields := p.Extractor.Extract(res.Text, dt)

	p.enter(rep, constants.StageDone)

	rec := entity.Record{
		ID:           uuid.New(),
		DocumentType: dt,
		RawText:      res.Text,
		Fields:       fields,
		Confidence:   res.Confidence,
		Provider:     res.Provider,
		Side:         common.SideFromContext(ctx),
		SourceName:   img.Name,
		ScannedAt:    p.now().UTC(),
	}
	p.Metrics.ObserveScan(dt, len(fields), time.Since(start))
	p.Logger.Info("pipeline.scan.ok",
		"record_id", rec.ID,
		"document_type", dt,
		"provider", res.Provider,
		"fields", len(fields),
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func (p *Processor) enter(rep *progress.Reporter, s constants.Stage) {
	if err := rep.Enter(s); err != nil {
		p.Logger.Debug("pipeline.stage", "stage", s, "error", err)
	}
}

// Sides is the outcome of a two-sided scan. A side that failed has a zero
// record and its error set.
type Sides struct {
	Front    entity.Record
	Back     entity.Record
	FrontErr error
	BackErr  error
	HasBack  bool
}

// Records returns the records that were produced, front first.
func (s Sides) Records() []entity.Record {
	var out []entity.Record
	if s.FrontErr == nil {
		out = append(out, s.Front)
	}
	if s.HasBack && s.BackErr == nil {
		out = append(out, s.Back)
	}
	return out
}

// Err joins the per-side errors.
func (s Sides) Err() error {
	var errs []error
	if s.FrontErr != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SideFront, s.FrontErr))
	}
	if s.BackErr != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SideBack, s.BackErr))
	}
	return errors.Join(errs...)
}

// ScanSides scans front and, when back has data, back as two independent
// requests running concurrently. A failing side never cancels the other.
func (p *Processor) ScanSides(ctx context.Context, front, back provider.Image, frontSink, backSink progress.Sink) Sides {
	var out Sides
	out.HasBack = len(back.Data) > 0

	// A bare Group has no shared context, so one side's error leaves the
	// other running.
	var g errgroup.Group
	g.Go(func() error {
		out.Front, out.FrontErr = p.Scan(common.WithSide(ctx, SideFront), front, frontSink)
		return out.FrontErr
	})
	if out.HasBack {
		g.Go(func() error {
			out.Back, out.BackErr = p.Scan(common.WithSide(ctx, SideBack), back, backSink)
			return out.BackErr
		})
	}
	if err := g.Wait(); err != nil {
		p.Logger.Warn("pipeline.sides.partial",
			"records", len(out.Records()),
			"has_back", out.HasBack,
			"error", out.Err(),
		)
	}
	return out
}
