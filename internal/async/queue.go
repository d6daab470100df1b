// Package async runs scans in the background. The hot-folder watcher and
// the batch walker enqueue file paths; a fixed worker pool drains them
// through the processor.
package async

import (
	"context"
	"time"
)

// Job is one file waiting to be scanned.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
