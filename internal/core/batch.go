package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/ingest"
	"github.com/joseph-ayodele/n42-extract/internal/repository"
)

var (
	// ErrNoDocuments is returned when discovery finds nothing to extract.
	ErrNoDocuments = errors.New("no measurement documents found")
	// ErrNoRows is returned when every discovered document failed.
	ErrNoRows = errors.New("no document could be extracted")
)

// Exporter writes the collected rows somewhere and reports where.
type Exporter interface {
	Export(ctx context.Context, rows []entity.Row) (string, error)
}

// BatchRequest holds the parameters of one batch run.
type BatchRequest struct {
	Root       string
	Sigma      float64
	Workers    int
	FailFast   bool // abort the whole run on the first failed document
	SkipHidden bool
	Exporter   Exporter // optional
}

// BatchResult is the outcome of a batch run. Results are in discovery order.
type BatchResult struct {
	Run     *entity.Run
	Stats   ingest.DirStats
	Results []entity.DocumentResult
}

// Rows returns the rows of the successfully extracted documents, in discovery order.
func (r *BatchResult) Rows() []entity.Row {
	rows := make([]entity.Row, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			rows = append(rows, *res.Row)
		}
	}
	return rows
}

// Failures returns the failed documents, in discovery order.
func (r *BatchResult) Failures() []entity.DocumentResult {
	var out []entity.DocumentResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// BatchRunner discovers documents under a root, extracts them concurrently, and
// records the run. Repositories are optional.
type BatchRunner struct {
	logger    *slog.Logger
	ingestor  ingest.Discoverer
	processor *Processor
	runs      repository.RunRepository
	results   repository.ResultRepository
}

func NewBatchRunner(
	logger *slog.Logger,
	ingestor ingest.Discoverer,
	processor *Processor,
	runs repository.RunRepository,
	results repository.ResultRepository,
) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{
		logger:    logger,
		ingestor:  ingestor,
		processor: processor,
		runs:      runs,
		results:   results,
	}
}

// Run executes req. On a document failure it either skips the document or, with
// FailFast, aborts with that document's error; either way the BatchResult is returned
// alongside the error so callers can report what happened.
func (b *BatchRunner) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := common.ValidateSigma(req.Sigma); err != nil {
		return nil, err
	}
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	run, err := b.startRun(ctx, req.Root, req.Sigma, start)
	if err != nil {
		return nil, err
	}
	ctx = common.WithRunID(ctx, run.ID.String())
	out := &BatchResult{Run: run}

	b.logger.Info("batch started", "run_id", run.ID, "root", req.Root, "sigma", req.Sigma, "workers", workers, "fail_fast", req.FailFast)

	docs, stats, err := b.ingestor.Discover(ctx, req.Root, req.SkipHidden)
	out.Stats = stats
	if err != nil {
		b.finishRun(ctx, run, constants.RunStatusFailed, "")
		return out, fmt.Errorf("discover: %w", err)
	}
	if len(docs) == 0 {
		b.finishRun(ctx, run, constants.RunStatusFailed, "")
		return out, fmt.Errorf("%w under %s", ErrNoDocuments, req.Root)
	}

	out.Results = make([]entity.DocumentResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, _ := b.processor.ProcessDocument(gctx, run.ID, doc, req.Sigma)
			out.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.finishRun(ctx, run, constants.RunStatusFailed, "")
		return out, err
	}

	b.persistResults(ctx, out.Results)
	for _, res := range out.Results {
		if res.OK() {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}
	run.Matched = len(out.Results)

	if req.FailFast && run.Failed > 0 {
		first := out.Failures()[0]
		b.finishRun(ctx, run, constants.RunStatusFailed, "")
		b.logger.Error("batch aborted", "run_id", run.ID, "path", first.SourcePath, "error", first.Error)
		return out, fmt.Errorf("aborted on %s: %s", first.SourcePath, first.Error)
	}
	if run.Succeeded == 0 {
		b.finishRun(ctx, run, constants.RunStatusFailed, "")
		return out, ErrNoRows
	}

	var location string
	if req.Exporter != nil {
		location, err = req.Exporter.Export(ctx, out.Rows())
		if err != nil {
			b.finishRun(ctx, run, constants.RunStatusFailed, "")
			return out, fmt.Errorf("export: %w", err)
		}
	}

	status := constants.RunStatusCompleted
	if run.Failed > 0 {
		status = constants.RunStatusPartial
	}
	b.finishRun(ctx, run, status, location)

	b.logger.Info("batch complete",
		"run_id", run.ID,
		"status", status,
		"matched", run.Matched,
		"succeeded", run.Succeeded,
		"failed", run.Failed,
		"output", location,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (b *BatchRunner) startRun(ctx context.Context, root string, sigma float64, at time.Time) (*entity.Run, error) {
	if b.runs == nil {
		return &entity.Run{
			ID:        uuid.New(),
			RootPath:  root,
			Sigma:     sigma,
			Status:    constants.RunStatusRunning,
			StartedAt: at.UTC(),
		}, nil
	}
	run, err := b.runs.Create(ctx, root, sigma, at)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// finishRun records the final state. Storage errors are only logged.
func (b *BatchRunner) finishRun(ctx context.Context, run *entity.Run, status constants.RunStatus, location string) {
	now := time.Now().UTC()
	run.Status = status
	run.OutputPath = location
	run.FinishedAt = &now
	if b.runs == nil {
		return
	}
	err := b.runs.Finish(context.WithoutCancel(ctx), run.ID, repository.RunOutcome{
		Status:     status,
		Matched:    run.Matched,
		Succeeded:  run.Succeeded,
		Failed:     run.Failed,
		OutputPath: location,
		FinishedAt: now,
	})
	if err != nil {
		b.logger.Error("failed to record run outcome", "run_id", run.ID, "error", err)
	}
}

func (b *BatchRunner) persistResults(ctx context.Context, results []entity.DocumentResult) {
	if b.results == nil {
		return
	}
	for i := range results {
		if err := b.results.Insert(ctx, &results[i]); err != nil {
			b.logger.Error("failed to record document result", "path", results[i].SourcePath, "error", err)
		}
	}
}
