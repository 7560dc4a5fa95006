package store

import (
	"path"
	"time"

	"github.com/uptrace/bun"

	"github.com/queuectl/queuectl/job"
)

// logsDir is the conventional directory holding per-job log files,
// relative to the process's working directory (spec.md §6:
// "logs/job_<id>.log").
const logsDir = "logs"

type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	ID      string `bun:"id,pk"`
	Command string `bun:"command,notnull"`
	State   string `bun:"state,notnull,default:'pending'"`

	Attempts       uint32  `bun:"attempts,notnull,default:0"`
	MaxRetries     uint32  `bun:"max_retries,notnull,default:0"`
	BaseBackoff    float64 `bun:"base_backoff,notnull,default:2"`
	Priority       int32   `bun:"priority,notnull,default:0"`
	TimeoutSeconds float64 `bun:"timeout_seconds,notnull,default:0"`

	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
	AvailableAt time.Time  `bun:"available_at,notnull"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	FinishedAt  *time.Time `bun:"finished_at,nullzero"`

	StdoutLog string `bun:"stdout_log,notnull,default:''"`
	LastError string `bun:"last_error,notnull,default:''"`
}

func (jm *jobModel) toJob() (*job.Job, error) {
	state, err := job.ParseState(jm.State)
	if err != nil {
		return nil, err
	}
	return &job.Job{
		ID:             jm.ID,
		Command:        jm.Command,
		State:          state,
		Attempts:       jm.Attempts,
		MaxRetries:     jm.MaxRetries,
		BaseBackoff:    jm.BaseBackoff,
		Priority:       jm.Priority,
		TimeoutSeconds: jm.TimeoutSeconds,
		CreatedAt:      jm.CreatedAt,
		UpdatedAt:      jm.UpdatedAt,
		AvailableAt:    jm.AvailableAt,
		StartedAt:      jm.StartedAt,
		FinishedAt:     jm.FinishedAt,
		StdoutLog:      jm.StdoutLog,
		LastError:      jm.LastError,
	}, nil
}

func fromSpec(id, command string, maxRetries uint32, baseBackoff float64, priority int32, timeoutSeconds float64, availableAt, now time.Time) *jobModel {
	return &jobModel{
		ID:             id,
		Command:        command,
		State:          job.Pending.String(),
		MaxRetries:     maxRetries,
		BaseBackoff:    baseBackoff,
		Priority:       priority,
		TimeoutSeconds: timeoutSeconds,
		CreatedAt:      now,
		UpdatedAt:      now,
		AvailableAt:    availableAt,
		StdoutLog:      path.Join(logsDir, job.LogFileName(id)),
	}
}
