package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/n42-extract/constants"
)

// Run represents one batch extraction for data transfer between layers.
type Run struct {
	ID         uuid.UUID           `json:"id"`
	RootPath   string              `json:"root_path"`
	Sigma      float64             `json:"sigma"`
	Status     constants.RunStatus `json:"status"`
	Matched    int                 `json:"matched"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	OutputPath string              `json:"output_path,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// DocumentResult is the outcome of extracting one discovered document.
type DocumentResult struct {
	ID          uuid.UUID                `json:"id"`
	RunID       uuid.UUID                `json:"run_id"`
	Seq         int                      `json:"seq"` // discovery order within the run
	SourcePath  string                   `json:"source_path"`
	ContentHash string                   `json:"content_hash"`
	Status      constants.DocumentStatus `json:"status"`
	Error       string                   `json:"error,omitempty"`
	Row         *Row                     `json:"row,omitempty"`
	ProcessedAt time.Time                `json:"processed_at"`
}

// OK reports whether the document produced a row.
func (d DocumentResult) OK() bool {
	return d.Status == constants.DocumentStatusOK && d.Row != nil
}
