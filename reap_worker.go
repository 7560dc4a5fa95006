package queuectl

import (
	"context"
	"log/slog"
	"time"

	"github.com/queuectl/queuectl/internal"
)

// ReapConfig defines the scheduling parameters for a ReapWorker.
//
// StaleAfter is the age beyond which a processing row with no live
// owning worker is assumed orphaned. Interval defines how often the
// worker checks.
type ReapConfig struct {
	StaleAfter time.Duration
	Interval   time.Duration
}

// ReapWorker periodically invokes Reaper.ReapZombieProcessing.
//
// ReapWorker is opt-in maintenance recovering jobs orphaned by a worker
// that was killed (SIGKILL) mid-execution, per the documented fallback
// path: such a job would otherwise remain in processing forever.
//
// ReapWorker has a strict lifecycle:
//   - Start may only be called once.
//   - Stop must be called to terminate the worker; it waits for the
//     internal task to finish or until the timeout expires.
type ReapWorker struct {
	lcBase
	reaper     Reaper
	task       internal.TimerTask
	log        *slog.Logger
	staleAfter time.Duration
	interval   time.Duration
}

// NewReapWorker creates a ReapWorker. The worker is not started
// automatically; call Start to begin periodic reaping.
func NewReapWorker(reaper Reaper, config *ReapConfig, log *slog.Logger) *ReapWorker {
	return &ReapWorker{
		reaper:     reaper,
		log:        log,
		staleAfter: config.StaleAfter,
		interval:   config.Interval,
	}
}

func (rw *ReapWorker) reap(ctx context.Context) {
	count, err := rw.reaper.ReapZombieProcessing(ctx, time.Now().UTC(), rw.staleAfter)
	if err != nil {
		rw.log.Error("error while reaping zombie jobs", "err", err)
		return
	}
	if count > 0 {
		rw.log.Warn("reaped zombie processing jobs", "count", count)
	}
}

// Start begins periodic execution of the reap task. Start returns
// ErrDoubleStarted if the worker has already been started.
func (rw *ReapWorker) Start(ctx context.Context) error {
	if err := rw.tryStart(); err != nil {
		return err
	}
	rw.task.Start(ctx, rw.reap, rw.interval)
	return nil
}

// Stop terminates the background reap task, waiting up to timeout. Stop
// returns ErrDoubleStopped if the worker is not running.
func (rw *ReapWorker) Stop(timeout time.Duration) error {
	return rw.tryStop(timeout, rw.task.Stop)
}
