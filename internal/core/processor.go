package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/extract"
	"github.com/joseph-ayodele/n42-extract/internal/ingest"
	"github.com/joseph-ayodele/n42-extract/internal/telemetry"
)

// Processor turns one discovered document into a DocumentResult.
type Processor struct {
	logger    *slog.Logger
	ingestor  ingest.Discoverer
	extractor extract.ContentExtractor
	metrics   *telemetry.Metrics
}

func NewProcessor(
	logger *slog.Logger,
	ingestor ingest.Discoverer,
	extractor extract.ContentExtractor,
	metrics *telemetry.Metrics,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.N42{}
	}
	return &Processor{
		logger:    logger,
		ingestor:  ingestor,
		extractor: extractor,
		metrics:   metrics,
	}
}

// ProcessFile loads path and extracts it.
func (p *Processor) ProcessFile(ctx context.Context, runID uuid.UUID, path string, sigma float64) (entity.DocumentResult, error) {
	return p.ProcessDocument(ctx, runID, ingest.Document{SourcePath: path}, sigma)
}

// ProcessDocument reads doc once and extracts those bytes. The stored hash is taken
// from the bytes that were extracted, not from discovery.
func (p *Processor) ProcessDocument(ctx context.Context, runID uuid.UUID, doc ingest.Document, sigma float64) (entity.DocumentResult, error) {
	if doc.Err != "" || ctx.Err() != nil {
		return p.ProcessContent(ctx, runID, doc, nil, sigma)
	}
	loaded, content, err := p.ingestor.Load(ctx, doc.SourcePath)
	if err != nil {
		doc.Err = err.Error()
		doc.HashHex = ""
		return p.ProcessContent(ctx, runID, doc, nil, sigma)
	}
	loaded.Seq = doc.Seq
	return p.ProcessContent(ctx, runID, loaded, content, sigma)
}

// ProcessContent extracts content, which must be the bytes doc.HashHex was computed
// from. The returned result always carries a status; the error is the extraction
// failure, if any, and is also recorded in the result.
func (p *Processor) ProcessContent(ctx context.Context, runID uuid.UUID, doc ingest.Document, content []byte, sigma float64) (entity.DocumentResult, error) {
	start := time.Now()
	res := entity.DocumentResult{
		ID:          uuid.New(),
		RunID:       runID,
		Seq:         doc.Seq,
		SourcePath:  doc.SourcePath,
		ContentHash: doc.HashHex,
	}

	var err error
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case doc.Err != "":
		err = &extract.DocumentParseError{Path: doc.SourcePath, Err: errors.New(doc.Err)}
	default:
		var row entity.Row
		if row, err = p.extractor.ExtractContent(doc.SourcePath, content, sigma); err == nil {
			res.Row = &row
		}
	}

	res.ProcessedAt = time.Now().UTC()
	took := time.Since(start)
	if err != nil {
		res.Status = constants.DocumentStatusFailed
		res.Error = err.Error()
		p.logger.Warn("document extraction failed",
			"run_id", common.RunIDFromContext(ctx),
			"path", doc.SourcePath,
			"error", err,
		)
	} else {
		res.Status = constants.DocumentStatusOK
		p.logger.Debug("document extracted",
			"run_id", common.RunIDFromContext(ctx),
			"path", doc.SourcePath,
			"alpha", res.Row.AlphaActivity,
			"beta", res.Row.BetaActivity,
			"rn222", res.Row.Rn222Activity,
			"rn222_conc", res.Row.Rn222Concentration,
			"elapsed_ms", took.Milliseconds(),
		)
	}
	p.metrics.ObserveDocument(res.Status, res.Row, took)
	return res, err
}
