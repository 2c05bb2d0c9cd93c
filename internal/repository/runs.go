package repository

import (
	"context"
	stdsql "database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

// RunOutcome is what a finished run records.
type RunOutcome struct {
	Status     constants.RunStatus
	Matched    int
	Succeeded  int
	Failed     int
	OutputPath string
	FinishedAt time.Time
}

type RunRepository interface {
	Create(ctx context.Context, rootPath string, sigma float64, startedAt time.Time) (*entity.Run, error)
	Finish(ctx context.Context, id uuid.UUID, out RunOutcome) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	List(ctx context.Context, limit int) ([]*entity.Run, error)
}

type runRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepo{db: db, logger: logger}
}

var runColumns = []string{
	"id", "root_path", "sigma", "status", "matched", "succeeded", "failed", "output_path", "started_at", "finished_at",
}

func (r *runRepo) Create(ctx context.Context, rootPath string, sigma float64, startedAt time.Time) (*entity.Run, error) {
	run := &entity.Run{
		ID:        uuid.New(),
		RootPath:  rootPath,
		Sigma:     sigma,
		Status:    constants.RunStatusRunning,
		StartedAt: startedAt.UTC(),
	}
	q, args := r.db.builder().Insert("runs").
		Columns("id", "root_path", "sigma", "status", "started_at").
		Values(run.ID.String(), run.RootPath, run.Sigma, string(run.Status), formatTime(run.StartedAt)).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create run", "root_path", rootPath, "error", err)
		return nil, common.WrapError(err, "create run")
	}
	return run, nil
}

func (r *runRepo) Finish(ctx context.Context, id uuid.UUID, out RunOutcome) error {
	q, args := r.db.builder().Update("runs").
		Set("status", string(out.Status)).
		Set("matched", out.Matched).
		Set("succeeded", out.Succeeded).
		Set("failed", out.Failed).
		Set("output_path", out.OutputPath).
		Set("finished_at", formatTime(out.FinishedAt)).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to finish run", "run_id", id, "error", err)
		return common.WrapError(err, "finish run")
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	b := r.db.builder()
	q, args := b.Select(runColumns...).
		From(b.Table("runs")).
		Where(entsql.EQ("id", id.String())).
		Query()
	runs, err := r.scan(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "run "+id.String(), common.ErrNotFound)
	}
	return runs[0], nil
}

// List returns the most recent runs first.
func (r *runRepo) List(ctx context.Context, limit int) ([]*entity.Run, error) {
	b := r.db.builder()
	sel := b.Select(runColumns...).
		From(b.Table("runs")).
		OrderBy(entsql.Desc("started_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()
	return r.scan(ctx, q, args)
}

func (r *runRepo) scan(ctx context.Context, q string, args []any) ([]*entity.Run, error) {
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to query runs", "error", err)
		return nil, common.WrapError(err, "query runs")
	}
	defer rows.Close()

	var out []*entity.Run
	for rows.Next() {
		var (
			run        entity.Run
			id, status string
			startedAt  string
			finishedAt stdsql.NullString
		)
		if err := rows.Scan(&id, &run.RootPath, &run.Sigma, &status, &run.Matched, &run.Succeeded, &run.Failed, &run.OutputPath, &startedAt, &finishedAt); err != nil {
			return nil, common.WrapError(err, "scan run")
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, common.WrapError(err, "scan run id")
		}
		run.Status = constants.RunStatus(status)
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, common.WrapError(err, "scan run started_at")
		}
		if finishedAt.Valid {
			t, err := parseTime(finishedAt.String)
			if err != nil {
				return nil, common.WrapError(err, "scan run finished_at")
			}
			run.FinishedAt = &t
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate runs")
	}
	return out, nil
}

// IsNotFound reports whether err came from a lookup that matched nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
