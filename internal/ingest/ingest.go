package ingest

import "context"

// Document is one measurement document found on disk.
type Document struct {
	Seq        int // discovery order, starting at 0
	SourcePath string
	HashHex    string
	Size       int64
	Err        string
}

// DirStats summarizes a directory discovery.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Discoverer is the behavior the batch runner depends on.
type Discoverer interface {
	// Load reads a single path once and returns its content with the hash of that content.
	Load(ctx context.Context, path string) (Document, []byte, error)
	// Discover finds all measurement documents under root in walk order.
	Discover(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error)
}
