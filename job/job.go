// Package job defines the durable job record managed by the queue.
package job

import "time"

// Job is a single shell-command unit of work and its delivery state.
//
// Job instances returned by the store package are snapshots: mutating a
// field directly does not change the underlying row. Transitions happen
// only through the store's Repository, which is the sole writer of job
// state.
type Job struct {
	// ID is the client-supplied, globally unique primary key.
	ID string

	// Command is the shell command line executed by the Executor.
	Command string

	// State is the current lifecycle state.
	State State

	// Attempts counts completed execution tries.
	Attempts uint32

	// MaxRetries is the number of retries permitted after the first failure.
	MaxRetries uint32

	// BaseBackoff is the exponent base, in seconds, for retry delay.
	BaseBackoff float64

	// Priority orders claim eligibility; higher values are claimed first.
	Priority int32

	// TimeoutSeconds is the wall-clock execution limit. Zero means no limit.
	TimeoutSeconds float64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	AvailableAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time

	// StdoutLog is the path to this job's combined stdout/stderr log file.
	StdoutLog string

	// LastError is a short diagnostic from the most recent failed attempt.
	LastError string
}

// LogFileName derives the conventional log file name for a job id.
func LogFileName(id string) string {
	return "job_" + id + ".log"
}
