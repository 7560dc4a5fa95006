package queuectl

import (
	"context"

	"github.com/queuectl/queuectl/job"
)

// Summary holds per-state job counts, as returned by StatusSummary.
type Summary struct {
	Pending    int64
	Processing int64
	Completed  int64
	Dead       int64
}

// Metrics holds aggregate queue statistics, as returned by Metrics.
type Metrics struct {
	Total     int64
	Completed int64
	Dead      int64

	// MeanAttempts is the mean Attempts across all non-pending jobs.
	MeanAttempts float64

	// MeanDuration is the mean FinishedAt-StartedAt across completed
	// jobs.
	MeanDuration float64
}

// Observer provides read-only access to jobs stored in the queue.
//
// Observer does not modify job state and does not participate in claim
// or retry. It is intended for diagnostic, monitoring, and
// administrative use.
//
// Returned Job values, and the slices containing them, are independent
// snapshots; mutating them has no effect on the queue.
type Observer interface {

	// Get returns the job identified by id, or (nil, nil) if none
	// exists.
	Get(ctx context.Context, id string) (*job.Job, error)

	// List returns jobs matching state, ordered by CreatedAt ASC.
	//
	// state == job.Unknown (the zero value) means "no filter": jobs in
	// any state are returned.
	List(ctx context.Context, state job.State) ([]*job.Job, error)

	// StatusSummary returns the count of jobs in each state.
	StatusSummary(ctx context.Context) (Summary, error)

	// Metrics returns aggregate statistics across all jobs.
	Metrics(ctx context.Context) (Metrics, error)
}
