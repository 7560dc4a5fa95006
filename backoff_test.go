package queuectl_test

import (
	"testing"
	"time"

	"github.com/queuectl/queuectl"
)

func TestComputeDelayGrowsExponentially(t *testing.T) {
	first := queuectl.ComputeDelay(2.0, 1)
	second := queuectl.ComputeDelay(2.0, 2)
	third := queuectl.ComputeDelay(2.0, 3)

	if first != 2*time.Second {
		t.Fatalf("expected 2s, got %v", first)
	}
	if second != 4*time.Second {
		t.Fatalf("expected 4s, got %v", second)
	}
	if third != 8*time.Second {
		t.Fatalf("expected 8s, got %v", third)
	}
}

func TestComputeDelayClampsToCeiling(t *testing.T) {
	d := queuectl.ComputeDelay(2.0, 100)
	if d != 24*time.Hour {
		t.Fatalf("expected clamp to 24h, got %v", d)
	}
}

func TestComputeDelayZeroAttempts(t *testing.T) {
	d := queuectl.ComputeDelay(2.0, 0)
	if d != time.Second {
		t.Fatalf("expected 1s for zero attempts (base^0), got %v", d)
	}
}
