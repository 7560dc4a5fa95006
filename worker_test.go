package queuectl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/queuectl/queuectl"
	"github.com/queuectl/queuectl/job"
)

type fakeClaimer struct {
	mu        sync.Mutex
	pending   []*job.Job
	completed []string
	failed    []string
}

func (f *fakeClaimer) ClaimOne(ctx context.Context, workerID string, now time.Time) (*job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	jb := f.pending[0]
	f.pending = f.pending[1:]
	return jb, nil
}

func (f *fakeClaimer) Complete(ctx context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeClaimer) Fail(ctx context.Context, id string, now time.Time, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeClaimer) DLQRetry(ctx context.Context, id string, now time.Time) error {
	return nil
}

func TestWorkerCompletesSuccessfulJob(t *testing.T) {
	claimer := &fakeClaimer{pending: []*job.Job{{ID: "a", Command: "echo ok"}}}
	executor := queuectl.NewExecutor(t.TempDir())
	w := queuectl.NewWorker("worker-1", claimer, executor, queuectl.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
		IdleTimeout:  200 * time.Millisecond,
	}, testLogger())

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		claimer.mu.Lock()
		done := len(claimer.completed) == 1
		claimer.mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	if len(claimer.completed) != 1 || claimer.completed[0] != "a" {
		t.Fatalf("expected job a to be completed, got %+v", claimer.completed)
	}
}

func TestWorkerFailsNonZeroJob(t *testing.T) {
	claimer := &fakeClaimer{pending: []*job.Job{{ID: "b", Command: "exit 1"}}}
	executor := queuectl.NewExecutor(t.TempDir())
	w := queuectl.NewWorker("worker-1", claimer, executor, queuectl.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
		IdleTimeout:  200 * time.Millisecond,
	}, testLogger())

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		claimer.mu.Lock()
		done := len(claimer.failed) == 1
		claimer.mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	if len(claimer.failed) != 1 || claimer.failed[0] != "b" {
		t.Fatalf("expected job b to be failed, got %+v", claimer.failed)
	}
}

func TestWorkerFinishesInFlightJobOnShutdown(t *testing.T) {
	claimer := &fakeClaimer{pending: []*job.Job{{ID: "slow", Command: "sleep 0.3"}}}
	executor := queuectl.NewExecutor(t.TempDir())
	w := queuectl.NewWorker("worker-1", claimer, executor, queuectl.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
		IdleTimeout:  5 * time.Second,
		StopTimeout:  2 * time.Second,
	}, testLogger())

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	// Give the worker time to claim the job and start executing, then
	// request shutdown mid-flight: the in-flight job must still be
	// finalized as completed rather than abandoned.
	time.Sleep(50 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	claimer.mu.Lock()
	defer claimer.mu.Unlock()
	if len(claimer.completed) != 1 || claimer.completed[0] != "slow" {
		t.Fatalf("expected job slow to complete despite shutdown, got completed=%v failed=%v",
			claimer.completed, claimer.failed)
	}
}

func TestWorkerExitsOnIdleTimeout(t *testing.T) {
	claimer := &fakeClaimer{}
	executor := queuectl.NewExecutor(t.TempDir())
	w := queuectl.NewWorker("worker-1", claimer, executor, queuectl.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
		IdleTimeout:  50 * time.Millisecond,
	}, testLogger())

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
}
