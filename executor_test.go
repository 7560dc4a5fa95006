package queuectl_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/queuectl/queuectl"
	"github.com/queuectl/queuectl/job"
)

func TestExecutorRunSuccessWritesLog(t *testing.T) {
	dir := t.TempDir()
	e := queuectl.NewExecutor(dir)
	j := &job.Job{ID: "a", Command: "echo hello"}

	result, err := e.Run(context.Background(), j)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != queuectl.Success {
		t.Fatalf("expected success, got %v", result.Outcome)
	}

	data, err := os.ReadFile(filepath.Join(dir, job.LogFileName("a")))
	if err != nil {
		t.Fatal(err)
	}
	log := string(data)
	if !strings.Contains(log, "hello") {
		t.Fatalf("expected log to contain command output, got %q", log)
	}
	if !strings.Contains(log, "--- START") || !strings.Contains(log, "--- END") {
		t.Fatalf("expected start/end markers, got %q", log)
	}
}

func TestExecutorRunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	e := queuectl.NewExecutor(dir)
	j := &job.Job{ID: "b", Command: "exit 7"}

	result, err := e.Run(context.Background(), j)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != queuectl.NonZero {
		t.Fatalf("expected nonzero outcome, got %v", result.Outcome)
	}
	if result.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", result.ExitCode)
	}
}

func TestExecutorRunTimeout(t *testing.T) {
	dir := t.TempDir()
	e := queuectl.NewExecutor(dir)
	j := &job.Job{ID: "c", Command: "sleep 5", TimeoutSeconds: 0.1}

	result, err := e.Run(context.Background(), j)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != queuectl.Timeout {
		t.Fatalf("expected timeout outcome, got %v", result.Outcome)
	}
}

func TestExecutorRunSpawnError(t *testing.T) {
	dir := t.TempDir()
	e := queuectl.NewExecutor(dir)
	j := &job.Job{ID: "d", Command: "this-binary-does-not-exist-xyz"}

	result, err := e.Run(context.Background(), j)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != queuectl.NonZero && result.Outcome != queuectl.SpawnError {
		t.Fatalf("expected nonzero or spawn_error for missing binary, got %v", result.Outcome)
	}
}
