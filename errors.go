package queuectl

import "errors"

// Sentinel errors returned by Enqueuer, Claimer, Observer, Reaper, and
// Pruner implementations. Callers should use errors.Is against these
// values rather than comparing strings.
var (
	// ErrInvalidSpec indicates malformed enqueue input: a missing or blank
	// id or command, a non-parseable run_at timestamp, or a negative
	// numeric field.
	ErrInvalidSpec = errors.New("invalid job spec")

	// ErrDuplicateID indicates that enqueue was called with an id that
	// already exists in storage, in any state.
	ErrDuplicateID = errors.New("duplicate job id")

	// ErrNotFound indicates that no job with the given id exists.
	ErrNotFound = errors.New("job not found")

	// ErrNotDead indicates that dlq_retry was called on a job that is not
	// currently in the dead state.
	ErrNotDead = errors.New("job is not dead")

	// ErrStoreBusy indicates transient contention acquiring the write
	// lock beyond the busy-wait window. Callers should retry with a
	// small backoff; a Worker treats it as "no claim this tick".
	ErrStoreBusy = errors.New("store busy")

	// ErrStoreCorrupt indicates the store is unusable. It is fatal: the
	// caller should surface it and exit non-zero.
	ErrStoreCorrupt = errors.New("store corrupt")

	// ErrBadState indicates Prune was asked to target a non-terminal
	// state (pending or processing).
	ErrBadState = errors.New("bad job state")
)
