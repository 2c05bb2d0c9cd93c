package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/core"
	"github.com/joseph-ayodele/n42-extract/internal/ingest"
	"github.com/joseph-ayodele/n42-extract/internal/repository"
)

// Counts summarises what a ProcessorQueue has handled so far.
type Counts struct {
	Matched   int
	Succeeded int
	Failed    int
	Skipped   int // identical content already recorded
}

// ProcessorQueue extracts watched documents on a fixed pool of workers and records
// each result under a single run.
type ProcessorQueue struct {
	proc     *core.Processor
	ingestor ingest.Discoverer
	results  repository.ResultRepository
	logger   *slog.Logger
	runID    uuid.UUID
	sigma    float64
	workers  int
	timeout  time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	seq       atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResults records every processed document and enables content deduplication.
func WithResults(results repository.ResultRepository) Option {
	return func(q *ProcessorQueue) { q.results = results }
}

func NewProcessorQueue(
	proc *core.Processor,
	ingestor ingest.Discoverer,
	runID uuid.UUID,
	sigma float64,
	logger *slog.Logger,
	opts ...Option,
) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:     proc,
		ingestor: ingestor,
		logger:   logger,
		runID:    runID,
		sigma:    sigma,
		workers:  4,
		timeout:  time.Minute,
		ch:       make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					q.handle(common.WithRunID(ctx, q.runID.String()), workerID, job)
					cancel()
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) handle(ctx context.Context, workerID int, job Job) {
	doc, content, err := q.ingestor.Load(ctx, job.Path)
	if err != nil {
		doc.SourcePath = job.Path
		doc.Err = err.Error()
	}

	if !job.Force && doc.Err == "" && q.results != nil {
		prev, err := q.results.LatestOKByHash(ctx, doc.HashHex)
		if err != nil {
			q.logger.Warn("dedup lookup failed", "path", job.Path, "error", err)
		} else if prev != nil {
			q.skipped.Add(1)
			q.logger.Info("skipping already extracted content",
				"worker_id", workerID, "path", job.Path, "previous_run_id", prev.RunID, "previous_path", prev.SourcePath)
			return
		}
	}

	doc.Seq = int(q.seq.Add(1) - 1)
	res, err := q.proc.ProcessContent(ctx, q.runID, doc, content, q.sigma)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
	} else {
		q.succeeded.Add(1)
		q.logger.Info("processed file successfully", "worker_id", workerID, "path", job.Path,
			"queued_ms", time.Since(job.SubmittedAt).Milliseconds())
	}

	if q.results != nil {
		if err := q.results.Insert(context.WithoutCancel(ctx), &res); err != nil {
			q.logger.Error("failed to record document result", "path", job.Path, "error", err)
		}
	}
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "path", job.Path, "force", job.Force)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Counts reports the jobs handled so far.
func (q *ProcessorQueue) Counts() Counts {
	s, f := int(q.succeeded.Load()), int(q.failed.Load())
	return Counts{
		Matched:   s + f,
		Succeeded: s,
		Failed:    f,
		Skipped:   int(q.skipped.Load()),
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
