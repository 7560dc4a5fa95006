package queuectl

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"oss.nandlabs.io/golly/lifecycle"

	"github.com/queuectl/queuectl/internal"
	"github.com/queuectl/queuectl/job"
)

// WorkerConfig configures a Worker's poll/idle/shutdown timing.
type WorkerConfig struct {
	// PollInterval is the base sleep between unsuccessful claims. A
	// small jitter is added to decorrelate multiple workers.
	PollInterval time.Duration

	// IdleTimeout is how long a worker may go without a successful claim
	// before it exits with nil error. Zero disables idle exit.
	IdleTimeout time.Duration

	// StopTimeout bounds how long Stop waits for the in-flight job (if
	// any) to finish before returning ErrStopTimeout.
	StopTimeout time.Duration
}

// Worker is a single long-lived claim/execute/finalize loop.
//
// Worker implements oss.nandlabs.io/golly/lifecycle.Component so it can
// be registered with a lifecycle.ComponentManager alongside other
// long-running pieces of a process; its parameterless Start and Stop
// are also the methods for direct use.
//
// At most one job is in the processing state under this worker's
// ownership at any instant; there is no in-process pool and no lease
// renewal. A worker killed with SIGKILL leaves its claimed job in
// processing until Reaper recovers it.
type Worker struct {
	lcBase

	id       string
	claimer  Claimer
	executor *Executor
	log      *slog.Logger
	config   WorkerConfig

	mutex   sync.Mutex
	onChange []func(prev, next lifecycle.ComponentState)
	state   lifecycle.ComponentState

	cancel context.CancelFunc
	done   internal.DoneChan
}

// NewWorker creates a Worker identified by id, claiming jobs through
// claimer and executing them with executor.
func NewWorker(id string, claimer Claimer, executor *Executor, config WorkerConfig, log *slog.Logger) *Worker {
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = 30 * time.Second
	}
	return &Worker{
		id:       id,
		claimer:  claimer,
		executor: executor,
		log:      log,
		config:   config,
		state:    lifecycle.Stopped,
	}
}

// Id returns the worker's identifier.
func (w *Worker) Id() string {
	return w.id
}

// OnChange registers f to be called whenever the worker's component
// state changes.
func (w *Worker) OnChange(f func(prev, next lifecycle.ComponentState)) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.onChange = append(w.onChange, f)
}

// State returns the worker's current component state.
func (w *Worker) State() lifecycle.ComponentState {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.state
}

func (w *Worker) setState(s lifecycle.ComponentState) {
	w.mutex.Lock()
	prev := w.state
	w.state = s
	funcs := append([]func(prev, next lifecycle.ComponentState){}, w.onChange...)
	w.mutex.Unlock()
	for _, f := range funcs {
		f(prev, s)
	}
}

// Start begins the claim/execute/finalize loop in a background
// goroutine. Start returns ErrDoubleStarted if the worker is already
// running.
//
// lifecycle.Component requires a no-argument Start; the worker runs
// against context.Background() and is stopped only via Stop.
func (w *Worker) Start() error {
	if err := w.tryStart(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(internal.DoneChan)
	w.setState(lifecycle.Running)
	go func() {
		defer close(w.done)
		w.run(ctx)
	}()
	return nil
}

// Stop signals the run loop to finish its current job (if any) and
// exit, then waits up to StopTimeout for it to do so.
func (w *Worker) Stop() error {
	err := w.tryStop(w.config.StopTimeout, func() internal.DoneChan {
		w.cancel()
		return w.done
	})
	if err != nil {
		w.setState(lifecycle.Error)
		return err
	}
	w.setState(lifecycle.Stopped)
	return nil
}

func (w *Worker) run(ctx context.Context) {
	lastClaim := time.Now()
	for {
		if ctx.Err() != nil {
			return
		}
		jb, err := w.claimer.ClaimOne(ctx, w.id, time.Now().UTC())
		if err != nil {
			if errors.Is(err, ErrStoreBusy) {
				w.log.Debug("store busy, skipping this tick", "worker", w.id)
			} else {
				w.log.Error("claim failed", "worker", w.id, "err", err)
			}
			if !w.sleepPoll(ctx) {
				return
			}
			continue
		}
		if jb == nil {
			if w.config.IdleTimeout > 0 && time.Since(lastClaim) > w.config.IdleTimeout {
				w.log.Info("idle timeout reached, exiting", "worker", w.id)
				return
			}
			if !w.sleepPoll(ctx) {
				return
			}
			continue
		}

		lastClaim = time.Now()
		// Execution runs against a context independent of the worker's
		// shutdown signal: a shutdown arriving mid-flight lets the
		// current child finish (bounded only by its own
		// TimeoutSeconds), per the graceful-shutdown contract. Only the
		// claim/poll loop observes ctx.
		w.execute(context.Background(), jb)

		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) execute(ctx context.Context, jb *job.Job) {
	result, err := w.executor.Run(ctx, jb)
	now := time.Now().UTC()
	if err != nil {
		w.log.Error("executor failed to run job", "worker", w.id, "job", jb.ID, "err", err)
		if ferr := w.claimer.Fail(ctx, jb.ID, now, err.Error()); ferr != nil {
			w.log.Error("cannot mark job failed", "worker", w.id, "job", jb.ID, "err", ferr)
		}
		return
	}
	switch result.Outcome {
	case Success:
		if cerr := w.claimer.Complete(ctx, jb.ID, now); cerr != nil {
			w.log.Error("cannot complete job", "worker", w.id, "job", jb.ID, "err", cerr)
		}
	default:
		msg := result.Brief
		if msg == "" {
			msg = result.Outcome.String()
		}
		if ferr := w.claimer.Fail(ctx, jb.ID, now, msg); ferr != nil {
			w.log.Error("cannot mark job failed", "worker", w.id, "job", jb.ID, "err", ferr)
		}
	}
}

// sleepPoll sleeps for PollInterval plus jitter, returning false if ctx
// is canceled first.
func (w *Worker) sleepPoll(ctx context.Context) bool {
	jitter := time.Duration(rand.Int64N(int64(w.config.PollInterval) / 4 + 1))
	timer := time.NewTimer(w.config.PollInterval + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
