// Package job defines the durable representation of a queued
// shell-command job.
//
// A Job is a single unit of work: a command line plus the scheduling
// and retry metadata (Attempts, MaxRetries, BaseBackoff, Priority,
// TimeoutSeconds) and lifecycle timestamps (CreatedAt, AvailableAt,
// StartedAt, FinishedAt) that govern when it may be claimed and how it
// is retried.
//
// State holds the job's position in the lifecycle:
//
//	Pending    -> Processing
//	Processing -> Completed
//	Processing -> Pending   (retry, via Fail)
//	Processing -> Dead      (retries exhausted, via Fail)
//	Dead       -> Pending   (via dlq-retry)
//
// Job values returned by the store package are snapshots; the store's
// Repository is the sole writer of job state. Job is not intended to be
// constructed manually by user code outside of enqueue.
package job
