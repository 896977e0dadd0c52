// Package core assembles the recognition stack from configuration: the
// provider chain, pipeline, storage and the use-case services the surfaces
// share.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/docscan/internal/classify"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/export"
	"github.com/joseph-ayodele/docscan/internal/extract"
	"github.com/joseph-ayodele/docscan/internal/metrics"
	"github.com/joseph-ayodele/docscan/internal/ocr"
	"github.com/joseph-ayodele/docscan/internal/ocr/tesseract"
	"github.com/joseph-ayodele/docscan/internal/pipeline"
	"github.com/joseph-ayodele/docscan/internal/preprocess"
	"github.com/joseph-ayodele/docscan/internal/provider"
	"github.com/joseph-ayodele/docscan/internal/provider/gemini"
	"github.com/joseph-ayodele/docscan/internal/provider/local"
	"github.com/joseph-ayodele/docscan/internal/provider/ocrspace"
	"github.com/joseph-ayodele/docscan/internal/provider/vision"
	"github.com/joseph-ayodele/docscan/internal/repository"
	"github.com/joseph-ayodele/docscan/internal/router"
	"github.com/joseph-ayodele/docscan/internal/services/scan"
)

// App holds the wired components. Close releases the database.
type App struct {
	Config    *common.Config
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	DB        *repository.DB
	Records   repository.RecordRepository
	Router    *router.Router
	Processor *pipeline.Processor
	Scans     *scan.Service
	Exporter  *export.Service

	logger *slog.Logger
}

type buildOptions struct {
	factory   ocr.Factory
	providers []provider.Provider
	stateless bool
}

type Option func(*buildOptions)

// WithEngineFactory replaces the local engine built from OCR.Engine.
func WithEngineFactory(f ocr.Factory) Option {
	return func(o *buildOptions) { o.factory = f }
}

// WithProviders replaces the configured chain.
func WithProviders(ps ...provider.Provider) Option {
	return func(o *buildOptions) { o.providers = ps }
}

// Stateless skips the database; scans are neither saved nor deduplicated.
func Stateless() Option {
	return func(o *buildOptions) { o.stateless = true }
}

func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	providers := bo.providers
	if providers == nil {
		var err error
		if providers, err = BuildProviders(ctx, cfg, bo.factory, logger); err != nil {
			return nil, err
		}
	}
	rt, err := router.New(providers, logger, router.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	logger.Info("core.providers", "chain", rt.Providers())

	app := &App{Config: cfg, Registry: reg, Metrics: m, Router: rt, logger: logger}
	app.Processor = pipeline.NewProcessor(logger, rt,
		pipeline.WithMetrics(m),
		pipeline.WithClassifier(classify.New(classify.DefaultRules)),
		pipeline.WithExtractor(extract.NewEngine(logger.With("component", "extract"))),
	)

	if !bo.stateless {
		app.DB, err = repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		app.Records = repository.NewRecordRepository(app.DB, logger)
		app.Exporter = export.NewService(app.Records, logger)
	}

	scanOpts := []scan.Option{scan.WithMaxImageBytes(cfg.OCR.MaxImageBytes)}
	if cfg.Export.SpreadsheetID != "" {
		sheets, err := export.NewSheetsAppender(ctx, export.SheetsConfig{
			SpreadsheetID:   cfg.Export.SpreadsheetID,
			Range:           cfg.Export.SheetRange,
			CredentialsFile: cfg.Export.CredentialsFile,
		}, nil, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("sheets: %w", err)
		}
		scanOpts = append(scanOpts, scan.WithAppender(sheets))
	}
	app.Scans = scan.NewService(app.Processor, app.Records, logger, scanOpts...)
	return app, nil
}

func (a *App) Close() {
	if a == nil || a.DB == nil {
		return
	}
	repository.Close(a.DB, a.logger)
	a.DB = nil
}

// BuildProviders turns OCR.Providers into the router chain. Remote providers
// without credentials are left out; local is always present and last.
func BuildProviders(ctx context.Context, cfg *common.Config, factory ocr.Factory, logger *slog.Logger) ([]provider.Provider, error) {
	var out []provider.Provider
	for _, name := range cfg.OCR.Providers {
		switch name {
		case common.ProviderOCRSpace:
			if cfg.OCRSpace.APIKey == "" {
				logger.Warn("core.provider.skipped", "provider", name, "reason", "OCRSPACE_API_KEY is empty")
				continue
			}
			out = append(out, ocrspace.New(ocrspace.Config{
				APIKey:   cfg.OCRSpace.APIKey,
				Endpoint: cfg.OCRSpace.Endpoint,
				Language: cfg.OCRSpace.Language,
				Engine:   cfg.OCRSpace.Engine,
				Timeout:  cfg.OCRSpace.Timeout,
			}, nil, logger))
		case common.ProviderVision:
			if cfg.Vision.APIKey == "" {
				logger.Warn("core.provider.skipped", "provider", name, "reason", "GOOGLE_VISION_API_KEY is empty")
				continue
			}
			v, err := vision.New(ctx, vision.Config{
				APIKey:        cfg.Vision.APIKey,
				Endpoint:      cfg.Vision.Endpoint,
				LanguageHints: cfg.Vision.LanguageHints,
				Timeout:       cfg.Vision.Timeout,
			}, nil, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case common.ProviderGemini:
			if cfg.Gemini.APIKey == "" {
				logger.Warn("core.provider.skipped", "provider", name, "reason", "GEMINI_API_KEY is empty")
				continue
			}
			out = append(out, gemini.New(gemini.Config{
				APIKey:  cfg.Gemini.APIKey,
				Model:   cfg.Gemini.Model,
				Timeout: cfg.Gemini.Timeout,
			}, logger))
		case common.ProviderLocal:
			out = append(out, NewLocal(cfg.OCR, factory, logger))
		default:
			return nil, common.NewAppError(common.CodeConfig, "unknown provider "+name, common.ErrInvalidInput)
		}
	}
	return out, nil
}

// NewLocal builds the local provider; a nil factory selects the engine named
// by cfg.Engine.
func NewLocal(cfg common.OCRConfig, factory ocr.Factory, logger *slog.Logger) *local.Provider {
	engineCfg := ocr.Config{
		Engine:      cfg.Engine,
		Tesseract:   cfg.Tesseract,
		TessdataDir: cfg.TessdataDir,
		Languages:   cfg.Languages,
		PSM:         cfg.PSM,
	}
	if factory == nil {
		if cfg.Engine == "cli" {
			factory = ocr.NewCLIFactory(engineCfg, nil, logger)
		} else {
			factory = tesseract.NewFactory(engineCfg, logger)
		}
	}
	opts := []local.Option{local.WithPreprocessor(preprocess.New(logger, preprocess.WithMaxDimension(cfg.MaxDimension)))}
	if cfg.HeicConverter != "" {
		opts = append(opts, local.WithHEICConverter(ocr.HEICConverter{
			Converter: cfg.HeicConverter,
			CacheDir:  cfg.ArtifactCacheDir,
			Logger:    logger,
		}))
	}
	return local.New(factory, logger, opts...)
}
