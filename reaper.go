package queuectl

import (
	"context"
	"time"
)

// Reaper recovers jobs orphaned by a worker that was killed mid-execution.
//
// Reaper is optional maintenance: a store that never calls
// ReapZombieProcessing simply leaks rows stuck in processing forever when
// their owning worker dies without calling Complete or Fail. See
// ReapWorker for the periodic driver.
type Reaper interface {

	// ReapZombieProcessing resets any row stuck in processing whose
	// StartedAt is older than now-staleAfter back to pending, on the
	// assumption that its owning worker is dead.
	//
	// ReapZombieProcessing is conservative: a long-running command that
	// is still legitimately executing can be mistaken for a zombie if
	// staleAfter is set shorter than the command's real running time.
	// It returns the number of rows reset.
	ReapZombieProcessing(ctx context.Context, now time.Time, staleAfter time.Duration) (int64, error)
}
