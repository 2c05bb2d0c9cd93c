package repository

import (
	"context"
	stdsql "database/sql"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

type ResultRepository interface {
	Insert(ctx context.Context, res *entity.DocumentResult) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.DocumentResult, error)
	// LatestOKByHash returns the most recent successful result for identical content, or nil.
	LatestOKByHash(ctx context.Context, hashHex string) (*entity.DocumentResult, error)
}

type resultRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewResultRepository(db *DB, logger *slog.Logger) ResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &resultRepo{db: db, logger: logger}
}

var resultColumns = []string{
	"id", "run_id", "seq", "source_path", "content_hash", "status", "error",
	"alpha_activity", "beta_activity", "rn222_activity", "rn222_concentration",
	"record_datetime", "flow_rate", "differential_pressure", "processed_at",
}

func (r *resultRepo) Insert(ctx context.Context, res *entity.DocumentResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	var alpha, beta, rnAct, rnConc, recorded, flow, dp any
	if res.Row != nil {
		alpha, beta, rnAct, rnConc = res.Row.AlphaActivity, res.Row.BetaActivity, res.Row.Rn222Activity, res.Row.Rn222Concentration
		recorded, flow, dp = nullable(res.Row.RecordDateTime), nullable(res.Row.FlowRate), nullable(res.Row.DifferentialPressure)
	}
	q, args := r.db.builder().Insert("document_results").
		Columns(resultColumns...).
		Values(
			res.ID.String(), res.RunID.String(), res.Seq, res.SourcePath, res.ContentHash, string(res.Status), res.Error,
			alpha, beta, rnAct, rnConc,
			recorded, flow, dp, formatTime(res.ProcessedAt),
		).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to insert document result", "run_id", res.RunID, "source_path", res.SourcePath, "error", err)
		return common.WrapError(err, "insert document result")
	}
	return nil
}

// ListByRun returns the results of a run in discovery order.
func (r *resultRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.DocumentResult, error) {
	b := r.db.builder()
	q, args := b.Select(resultColumns...).
		From(b.Table("document_results")).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("seq").
		Query()
	return r.scan(ctx, q, args)
}

func (r *resultRepo) LatestOKByHash(ctx context.Context, hashHex string) (*entity.DocumentResult, error) {
	b := r.db.builder()
	q, args := b.Select(resultColumns...).
		From(b.Table("document_results")).
		Where(entsql.And(
			entsql.EQ("content_hash", hashHex),
			entsql.EQ("status", string(constants.DocumentStatusOK)),
		)).
		OrderBy(entsql.Desc("processed_at")).
		Limit(1).
		Query()
	out, err := r.scan(ctx, q, args)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

func (r *resultRepo) scan(ctx context.Context, q string, args []any) ([]*entity.DocumentResult, error) {
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to query document results", "error", err)
		return nil, common.WrapError(err, "query document results")
	}
	defer rows.Close()

	var out []*entity.DocumentResult
	for rows.Next() {
		var (
			res                       entity.DocumentResult
			id, runID, status, procAt string
			alpha, beta, rnAct        stdsql.NullString
			rnConc, recorded, flow    stdsql.NullString
			dp                        stdsql.NullString
		)
		if err := rows.Scan(
			&id, &runID, &res.Seq, &res.SourcePath, &res.ContentHash, &status, &res.Error,
			&alpha, &beta, &rnAct, &rnConc,
			&recorded, &flow, &dp, &procAt,
		); err != nil {
			return nil, common.WrapError(err, "scan document result")
		}
		if res.ID, err = uuid.Parse(id); err != nil {
			return nil, common.WrapError(err, "scan document result id")
		}
		if res.RunID, err = uuid.Parse(runID); err != nil {
			return nil, common.WrapError(err, "scan document result run_id")
		}
		if res.ProcessedAt, err = parseTime(procAt); err != nil {
			return nil, common.WrapError(err, "scan document result processed_at")
		}
		res.Status = constants.DocumentStatus(status)
		if res.Status == constants.DocumentStatusOK {
			res.Row = &entity.Row{
				AlphaActivity:        alpha.String,
				BetaActivity:         beta.String,
				Rn222Activity:        rnAct.String,
				Rn222Concentration:   rnConc.String,
				RecordDateTime:       ptr(recorded),
				FlowRate:             ptr(flow),
				DifferentialPressure: ptr(dp),
			}
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate document results")
	}
	return out, nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptr(ns stdsql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
