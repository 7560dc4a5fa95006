package queuectl

import (
	"context"
	"time"

	"github.com/queuectl/queuectl/job"
)

// JobSpec is the client-supplied input to Enqueue.
//
// ID and Command are required. The remaining fields are optional; a zero
// TimeoutSeconds means no execution time limit.
type JobSpec struct {
	ID      string
	Command string

	// MaxRetries and BaseBackoff default to 3 and 2.0 in the store's
	// Enqueue when nil; the enqueue command fills them from the current
	// queue_config.json snapshot before calling Enqueue.
	MaxRetries  *uint32
	BaseBackoff *float64

	Priority       int32
	TimeoutSeconds float64

	// RunAt is interpreted as AvailableAt. A nil RunAt defaults to now.
	RunAt *time.Time
}

// Enqueuer defines the write-side entry point of the queue.
//
// Enqueuer does not participate in claim, execution, or retry. It is the
// sole way new jobs enter the store.
type Enqueuer interface {

	// Enqueue inserts a new job and returns the materialized row.
	//
	// Enqueue fails with ErrInvalidSpec if id or command is missing or
	// blank, RunAt does not parse, or a numeric field is negative. It
	// fails with ErrDuplicateID if a job with that id already exists in
	// any state.
	//
	// The provided context controls cancellation of the enqueue
	// operation itself; it has no bearing on the lifetime of the
	// enqueued job.
	Enqueue(ctx context.Context, spec JobSpec) (*job.Job, error)
}
