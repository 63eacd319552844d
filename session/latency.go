package session

import (
	"time"

	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/utils"
)

// latencyTracker keeps the most recent latency samples of a connection.
type latencyTracker struct {
	samples *utils.CircularQueue[float64]
}

func newLatencyTracker(size int) *latencyTracker {
	if size <= 0 {
		size = 20
	}
	return &latencyTracker{samples: utils.NewCircularQueue[float64](size)}
}

// sample adds a latency sample and returns the jitter of the connection in seconds: the mean absolute
// deviation of the samples kept.
func (t *latencyTracker) sample(latency time.Duration) float32 {
	_ = t.samples.Append(latency.Seconds())
	if t.samples.Len() < 2 {
		return 0
	}
	return float32(game.MeanAbsoluteDeviation(t.samples.Values()))
}
