package queuectl

import (
	"context"
	"time"

	"github.com/queuectl/queuectl/job"
)

// Pruner permanently removes terminal jobs from storage.
//
// Pruner is administrative retention housekeeping; it does not
// participate in normal claim/execute/retry processing and must never
// touch pending or processing rows.
type Pruner interface {

	// Prune deletes jobs matching state, optionally restricted to rows
	// whose UpdatedAt is at or before before.
	//
	// state == job.Unknown deletes both completed and dead rows. A nil
	// before applies no time filter. Prune returns the number of rows
	// deleted.
	//
	// Prune fails with ErrBadState if state refers to a non-terminal
	// state (pending or processing).
	Prune(ctx context.Context, state job.State, before *time.Time) (int64, error)
}
