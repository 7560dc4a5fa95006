package queuectl

import (
	"context"
	"time"

	"github.com/queuectl/queuectl/job"
)

// Claimer defines the claim/execute/finalize contract for consuming jobs.
//
// Unlike a visibility-timeout queue, ownership of a claimed job is
// expressed purely by its processing state; there is no lease to renew.
// A worker that dies mid-execution leaves the row in processing until a
// Reaper resets it or the store is reset; DLQRetry does not apply, since
// it accepts only dead rows.
//
// The queue provides at-least-once delivery: a job may be executed more
// than once if a worker is killed after finishing work but before calling
// Complete or Fail. Commands should be idempotent.
type Claimer interface {

	// ClaimOne selects a single pending job eligible at now (AvailableAt
	// <= now), ordered by priority DESC, CreatedAt ASC, ID ASC, and
	// atomically transitions it to processing, setting StartedAt and
	// UpdatedAt to now.
	//
	// If no eligible job exists, ClaimOne returns (nil, nil).
	//
	// The selection and the state transition happen inside one immediate
	// write transaction; two concurrent callers never claim the same
	// row. If the write lock cannot be acquired within the busy-wait
	// window, ClaimOne returns ErrStoreBusy.
	ClaimOne(ctx context.Context, workerID string, now time.Time) (*job.Job, error)

	// Complete transitions id from processing to completed and sets
	// FinishedAt to now.
	//
	// Complete fails with ErrNotFound if no job with that id exists.
	Complete(ctx context.Context, id string, now time.Time) error

	// Fail records a failed execution attempt, incrementing Attempts.
	//
	// If the new Attempts exceeds MaxRetries, the job transitions to
	// dead and FinishedAt is set. Otherwise it is rescheduled: delay =
	// BaseBackoff ** Attempts (clamped, see ComputeDelay), AvailableAt =
	// now + delay, state returns to pending, and StartedAt is cleared.
	// In both cases LastError is set to errMsg.
	//
	// Fail must be called at most once per execution attempt. Fail
	// fails with ErrNotFound if no job with that id exists.
	Fail(ctx context.Context, id string, now time.Time, errMsg string) error

	// DLQRetry requires state == dead; it resets the job to pending with
	// Attempts = 0, AvailableAt = now, StartedAt and FinishedAt cleared,
	// and LastError cleared.
	//
	// DLQRetry runs inside an immediate write transaction, so it is
	// idempotent across concurrent callers: a second caller observes a
	// non-dead state and fails with ErrNotDead rather than double-
	// resetting the row. DLQRetry fails with ErrNotFound if no job with
	// that id exists.
	DLQRetry(ctx context.Context, id string, now time.Time) error
}
