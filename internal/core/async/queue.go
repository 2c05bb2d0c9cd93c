package async

import (
	"context"
	"time"
)

// Job is one document handed over by the watcher.
type Job struct {
	Path        string
	Force       bool // extract even if identical content was already recorded
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
