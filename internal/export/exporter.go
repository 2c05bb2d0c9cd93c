package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts "xlsx" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// DefaultOutputPath places the workbook next to root, in root's parent directory.
func DefaultOutputPath(root string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(root)), constants.DefaultWorkbookName)
}

// FileExporter writes rows to Path in Format. An empty Path with FormatJSON writes to Stdout.
type FileExporter struct {
	Path   string
	Format Format
	Stdout io.Writer
	Logger *slog.Logger
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format Format, rows []entity.Row) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatXLSX, "":
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func (e *FileExporter) Export(ctx context.Context, rows []entity.Row) (string, error) {
	start := time.Now()
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if e.Path == "" {
		if e.Format != FormatJSON || e.Stdout == nil {
			return "", fmt.Errorf("no output path for %s export", e.Format)
		}
		return "stdout", WriteJSON(e.Stdout, rows)
	}

	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	// Written to a sibling temp file, then renamed into place.
	tmp, err := os.CreateTemp(filepath.Dir(e.Path), ".n42-export-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Write(tmp, e.Format, rows); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.Path); err != nil {
		return "", fmt.Errorf("rename output: %w", err)
	}

	logger.Info("export.ok",
		"path", e.Path,
		"format", string(e.Format),
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return e.Path, nil
}
