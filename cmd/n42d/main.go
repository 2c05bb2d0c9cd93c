// Command n42d watches directories for new N42 measurement documents, extracts each one
// as it lands and serves the run history over HTTP.
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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/core"
	"github.com/joseph-ayodele/n42-extract/internal/core/async"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/export"
	"github.com/joseph-ayodele/n42-extract/internal/ingest"
	repo "github.com/joseph-ayodele/n42-extract/internal/repository"
	"github.com/joseph-ayodele/n42-extract/internal/server"
	"github.com/joseph-ayodele/n42-extract/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (environment variables override it)")
	flag.Parse()

	cfg, err := common.LoadConfigFile(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if len(cfg.Watch.Dirs) == 0 {
		slog.Error("no watch directories configured, set N42_WATCH_DIRS")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("n42d stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	db, err := repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		return err
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	runs := repo.NewRunRepository(db, logger)
	results := repo.NewResultRepository(db, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	// Everything extracted during this daemon session is recorded under one run.
	session, err := runs.Create(ctx, strings.Join(cfg.Watch.Dirs, string(os.PathListSeparator)), cfg.Extract.Sigma, time.Now())
	if err != nil {
		return err
	}
	logger = logger.With("run_id", session.ID.String())

	ingestor := ingest.NewFSIngestor(logger)
	processor := core.NewProcessor(logger, ingestor, nil, metrics)
	queue := async.NewProcessorQueue(processor, ingestor, session.ID, cfg.Extract.Sigma, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Watch.QueueSize),
		async.WithProcessTimeout(cfg.Watch.ProcessTimeout),
		async.WithResults(results),
	)

	g, gctx := errgroup.WithContext(ctx)
	paths, watchErrs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
		Roots:       cfg.Watch.Dirs,
		SkipHidden:  cfg.Batch.SkipHidden,
		InitialScan: true,
		Debounce:    cfg.Watch.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	api := server.NewAPI(runs, results, db, reg, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}
	healthSrv := server.NewHealthServer(db, logger)

	g.Go(func() error {
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return nil
				}
				if err := queue.Enqueue(gctx, async.Job{Path: p, SubmittedAt: time.Now()}); err != nil {
					logger.Error("enqueue failed", "path", p, "error", err)
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	})
	g.Go(func() error {
		logger.Info("HTTP serving", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return healthSrv.Serve(grpcLis) })
	g.Go(func() error {
		healthSrv.Monitor(gctx, 15*time.Second)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		healthSrv.Stop()
		return nil
	})

	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	queue.Shutdown(drainCtx)
	finishSession(drainCtx, cfg, runs, results, session, queue.Counts(), logger)
	return err
}

// finishSession records the session's outcome and, when anything was extracted,
// writes the session workbook to the export directory.
func finishSession(
	ctx context.Context,
	cfg *common.Config,
	runs repo.RunRepository,
	results repo.ResultRepository,
	session *entity.Run,
	counts async.Counts,
	logger *slog.Logger,
) {
	status := constants.RunStatusCompleted
	switch {
	case counts.Matched > 0 && counts.Succeeded == 0:
		status = constants.RunStatusFailed
	case counts.Failed > 0:
		status = constants.RunStatusPartial
	}

	var location string
	if counts.Succeeded > 0 && cfg.Server.ExportDir != "" {
		list, err := results.ListByRun(ctx, session.ID)
		if err != nil {
			logger.Error("failed to load session results", "error", err)
		} else {
			rows := make([]entity.Row, 0, len(list))
			for _, r := range list {
				if r.OK() {
					rows = append(rows, *r.Row)
				}
			}
			exp := &export.FileExporter{
				Path:   filepath.Join(cfg.Server.ExportDir, "n42_extract_"+session.ID.String()+".xlsx"),
				Format: export.FormatXLSX,
				Logger: logger,
			}
			if location, err = exp.Export(ctx, rows); err != nil {
				logger.Error("session export failed", "error", err)
			}
		}
	}

	err := runs.Finish(ctx, session.ID, repo.RunOutcome{
		Status:     status,
		Matched:    counts.Matched,
		Succeeded:  counts.Succeeded,
		Failed:     counts.Failed,
		OutputPath: location,
		FinishedAt: time.Now(),
	})
	if err != nil {
		logger.Error("failed to record session outcome", "error", err)
	}
	logger.Info("session finished",
		"status", status,
		"matched", counts.Matched,
		"succeeded", counts.Succeeded,
		"failed", counts.Failed,
		"skipped", counts.Skipped,
		"output", location,
	)
}
