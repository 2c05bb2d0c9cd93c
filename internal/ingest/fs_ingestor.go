package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	logger *slog.Logger
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger}
}

// Stat resolves path and computes its sha256.
func (i *FSIngestor) Stat(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return Document{}, err
	}

	f, err := os.Open(abs)
	if err != nil {
		i.logger.Error("open error", "path", abs, "error", err)
		return Document{}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		i.logger.Error("hash error", "path", abs, "error", err)
		return Document{}, err
	}

	return Document{
		SourcePath: abs,
		HashHex:    hex.EncodeToString(h.Sum(nil)),
		Size:       n,
	}, nil
}

// Load reads path into memory. The returned hash and size describe exactly the
// returned bytes, so a file rewritten after Stat or Discover is still consistent.
func (i *FSIngestor) Load(ctx context.Context, path string) (Document, []byte, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return Document{}, nil, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("read error", "path", abs, "error", err)
		return Document{SourcePath: abs}, nil, err
	}
	sum := sha256.Sum256(content)
	return Document{
		SourcePath: abs,
		HashHex:    hex.EncodeToString(sum[:]),
		Size:       int64(len(content)),
	}, content, nil
}

// Discover walks root in lexical order, skips hidden entries if requested, and hashes
// every file whose name ends in ".xml". Files that cannot be read are reported in the
// results with Err set; they still take a sequence number.
func (i *FSIngestor) Discover(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, DirStats{}, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, DirStats{}, fmt.Errorf("root %q is not a directory", root)
	}

	var results []Document
	var stats DirStats

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			i.logger.Warn("walk error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedPath(path) {
			return nil
		}
		stats.Matched++

		doc, err := i.Stat(ctx, path)
		doc.Seq = len(results)
		if err != nil {
			doc.SourcePath = path
			doc.Err = err.Error()
			results = append(results, doc)
			stats.Failed++
			return nil
		}
		results = append(results, doc)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	i.logger.Debug("discovery complete", "root", root, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	return results, stats, nil
}
