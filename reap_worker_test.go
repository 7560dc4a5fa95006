package queuectl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/queuectl/queuectl"
)

type fakeReaper struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReaper) ReapZombieProcessing(ctx context.Context, now time.Time, staleAfter time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

func TestReapWorkerRunsPeriodically(t *testing.T) {
	reaper := &fakeReaper{}
	rw := queuectl.NewReapWorker(reaper, &queuectl.ReapConfig{
		StaleAfter: time.Minute,
		Interval:   20 * time.Millisecond,
	}, testLogger())

	if err := rw.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := rw.Stop(time.Second); err != nil {
		t.Fatal(err)
	}

	reaper.mu.Lock()
	defer reaper.mu.Unlock()
	if reaper.calls < 2 {
		t.Fatalf("expected at least 2 reap calls, got %d", reaper.calls)
	}
}

func TestReapWorkerDoubleStopFails(t *testing.T) {
	reaper := &fakeReaper{}
	rw := queuectl.NewReapWorker(reaper, &queuectl.ReapConfig{
		StaleAfter: time.Minute,
		Interval:   time.Second,
	}, testLogger())

	if err := rw.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := rw.Stop(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := rw.Stop(time.Second); err != queuectl.ErrDoubleStopped {
		t.Fatalf("expected ErrDoubleStopped, got %v", err)
	}
}
