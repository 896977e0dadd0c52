package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/core"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/export"
	"github.com/joseph-ayodele/docscan/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of document photos (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to <dir>/../documents.xlsx)")
		watch      = flag.Bool("watch", false, "keep watching dir and rewrite the workbook as photos arrive")
		force      = flag.Bool("force", false, "rescan photos that were scanned before")
		inmem      = flag.Bool("inmem", false, "use an in-memory database instead of DB_URL")
		configPath = flag.String("config", os.Getenv("DOCSCAN_CONFIG"), "TOML config overlay")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: -dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "documents.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		printError("Error: load config: %v\n", err)
		os.Exit(1)
	}
	if *inmem {
		cfg.Database.DSN = ""
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := core.Build(ctx, cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	ingestor := ingest.NewIngestor(app.Scans, logger)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, true, *force)
	if err != nil {
		printError("Error: ingest %s: %v\n", *dir, err)
		os.Exit(1)
	}

	var recs []entity.Record
	for _, r := range results {
		recs = append(recs, r.Records...)
	}
	if err := writeWorkbook(*out, recs); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scanned %d captures (%d ok, %d already known, %d failed); wrote %d records to %s\n",
		stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed, len(recs), *out)
	if !*watch {
		return
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{*dir},
		SkipHidden: true,
		Debounce:   500 * time.Millisecond,
		Logger:     logger,
	})
	if err != nil {
		printError("Error: watch %s: %v\n", *dir, err)
		os.Exit(1)
	}
	fmt.Printf("Watching %s (Ctrl+C to stop)\n", *dir)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return
			}
			res, err := ingestor.IngestPath(ctx, path, "", *force)
			if err != nil {
				logger.Warn("batch.file_failed", "path", path, "error", err)
				continue
			}
			if res.Deduplicated {
				continue
			}
			recs = append(recs, res.Records...)
			if err := writeWorkbook(*out, recs); err != nil {
				logger.Error("batch.write_failed", "out", *out, "error", err)
				continue
			}
			fmt.Printf("%s: %d record(s), workbook now has %d\n", filepath.Base(path), len(res.Records), len(recs))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("batch.watch_error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func writeWorkbook(path string, recs []entity.Record) error {
	xlsx, err := export.WriteXLSX(recs)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := os.WriteFile(path, xlsx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
