package queuectl

import (
	"math"
	"time"
)

// maxBackoff clamps retry delay computation, resolving the open question
// of unbounded growth for large attempts/base combinations.
const maxBackoff = 24 * time.Hour

// ComputeDelay returns the retry delay for the given job: baseBackoff
// raised to the attempts-th power, interpreted as seconds, clamped to
// maxBackoff.
func ComputeDelay(baseBackoff float64, attempts uint32) time.Duration {
	seconds := math.Pow(baseBackoff, float64(attempts))
	d := time.Duration(seconds * float64(time.Second))
	if d > maxBackoff || d < 0 {
		return maxBackoff
	}
	return d
}
