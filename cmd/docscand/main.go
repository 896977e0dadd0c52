package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docscan/internal/async"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/core"
	"github.com/joseph-ayodele/docscan/internal/ingest"
	"github.com/joseph-ayodele/docscan/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("DOCSCAN_CONFIG"), "TOML config overlay")
		watchDir   = flag.String("watch", os.Getenv("DOCSCAN_WATCH_DIR"), "drop folder to scan automatically (optional)")
		jsonLogs   = flag.Bool("json-logs", false, "log as JSON")
	)
	flag.Parse()

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := core.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := server.PingDB(ctx, app.DB, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}

	// gRPC
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := server.NewGRPCServer(server.NewRecognitionServer(app.Scans, app.Exporter, logger), logger)
	go func() {
		logger.Info("docscand grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// HTTP
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewHTTPHandler(app.Scans, app.Exporter, logger,
			server.WithGatherer(app.Registry),
			server.WithRequestTimeout(cfg.Server.ScanTimeout),
		).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("docscand http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	// Drop folder
	var queue *async.WorkerQueue
	if *watchDir != "" {
		ingestor := ingest.NewIngestor(app.Scans, logger)
		queue = async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
			res, err := ingestor.IngestPath(ctx, job.Path, job.BackPath, job.Force)
			if err != nil {
				return err
			}
			logger.Info("watch.scanned", "path", job.Path, "records", len(res.Records), "deduplicated", res.Deduplicated)
			return nil
		}, logger,
			async.WithWorkers(cfg.Server.ScanWorkers),
			async.WithQueueSize(cfg.Server.ScanQueueLen),
			async.WithJobTimeout(cfg.Server.ScanTimeout),
		)
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{*watchDir},
			InitialScan: true,
			SkipHidden:  true,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("failed to watch drop folder", "dir", *watchDir, "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range events {
				if err := queue.Enqueue(ctx, async.Job{Path: path, SubmittedAt: time.Now()}); err != nil {
					logger.Warn("watch.enqueue_failed", "path", path, "error", err)
				}
			}
		}()
		go func() {
			for err := range errs {
				logger.Warn("watch.error", "error", err)
			}
		}()
		logger.Info("watching drop folder", "dir", *watchDir)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	grpcServer.GracefulStop()
}
