package queuectl

import (
	"context"
	"log/slog"
	"time"

	"github.com/queuectl/queuectl/internal"
	"github.com/queuectl/queuectl/job"
)

// PruneConfig defines the scheduling and filtering parameters for a
// PruneWorker.
//
// State restricts pruning to one terminal state; job.Unknown targets
// both completed and dead.
//
// Interval defines how often the worker runs.
//
// If Before is true, deletion is restricted to jobs whose UpdatedAt is
// older than now - Delta.
type PruneConfig struct {
	State    job.State
	Interval time.Duration
	Before   bool
	Delta    time.Duration
}

// PruneWorker periodically invokes Pruner.Prune according to the
// provided configuration.
//
// PruneWorker is retention housekeeping: it does not participate in job
// processing and never touches pending or processing rows.
//
// PruneWorker has a strict lifecycle:
//   - Start may only be called once.
//   - Stop must be called to terminate the worker; it waits for the
//     internal task to finish or until the timeout expires.
type PruneWorker struct {
	lcBase
	pruner   Pruner
	task     internal.TimerTask
	log      *slog.Logger
	state    job.State
	interval time.Duration
	before   bool
	delta    time.Duration
}

// NewPruneWorker creates a PruneWorker. The worker is not started
// automatically; call Start to begin periodic pruning.
func NewPruneWorker(pruner Pruner, config *PruneConfig, log *slog.Logger) *PruneWorker {
	return &PruneWorker{
		pruner:   pruner,
		log:      log,
		state:    config.State,
		interval: config.Interval,
		before:   config.Before,
		delta:    config.Delta,
	}
}

func (pw *PruneWorker) beforeStamp() *time.Time {
	if !pw.before {
		return nil
	}
	ret := time.Now()
	if pw.delta != 0 {
		ret = ret.Add(-pw.delta)
	}
	return &ret
}

func (pw *PruneWorker) prune(ctx context.Context) {
	before := pw.beforeStamp()
	count, err := pw.pruner.Prune(ctx, pw.state, before)
	if err != nil {
		pw.log.Error("error while pruning", "err", err)
		return
	}
	pw.log.Info("pruned jobs", "count", count)
}

// Start begins periodic execution of the prune task. Start returns
// ErrDoubleStarted if the worker has already been started.
func (pw *PruneWorker) Start(ctx context.Context) error {
	if err := pw.tryStart(); err != nil {
		return err
	}
	pw.task.Start(ctx, pw.prune, pw.interval)
	return nil
}

// Stop terminates the background prune task, waiting up to timeout.
// Stop returns ErrDoubleStopped if the worker is not running.
func (pw *PruneWorker) Stop(timeout time.Duration) error {
	return pw.tryStop(timeout, pw.task.Stop)
}
