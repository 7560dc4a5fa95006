package queuectl_test

import (
	"context"
	"testing"
	"time"

	"github.com/queuectl/queuectl"
)

func TestSupervisorRunAllChildrenSucceed(t *testing.T) {
	sup := queuectl.NewSupervisor("/bin/sh", queuectl.SupervisorConfig{
		Count: 3,
		Args:  []string{"-c", "exit 0"},
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sup.Run(ctx); err != nil {
		t.Fatalf("expected all children to succeed, got %v", err)
	}
}

func TestSupervisorRunReportsChildFailure(t *testing.T) {
	sup := queuectl.NewSupervisor("/bin/sh", queuectl.SupervisorConfig{
		Count: 2,
		Args:  []string{"-c", "exit 1"},
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sup.Run(ctx); err == nil {
		t.Fatal("expected an error when children exit non-zero")
	}
}
