package watch

import (
	"context"
	"os"
	"time"
)

// StabilityGate decides whether a file on disk is safe to read by watching
// its size settle. The producing process writes frames incrementally, so a
// file observed mid-write would decode garbage.
type StabilityGate struct {
	// Attempts is the total sampling budget.
	Attempts int
	// Confirms is how many consecutive unchanged non-zero sizes count as
	// stable.
	Confirms int
	// Delay separates consecutive samples.
	Delay time.Duration
}

func NewStabilityGate() *StabilityGate {
	return &StabilityGate{
		Attempts: 3,
		Confirms: 2,
		Delay:    50 * time.Millisecond,
	}
}

// Wait samples the file size until stability is confirmed or the attempt
// budget runs out. It returns true only on confirmed stability, but a false
// return is not a veto: the caller processes the file regardless. The gate
// trades perfect write-completion detection for low added latency. A stat
// failure is a transient race with the writer and counts as an unstable
// sample, never an error.
func (g *StabilityGate) Wait(ctx context.Context, path string) bool {
	var lastSize int64
	confirms := 0
	for i := 0; i < g.Attempts; i++ {
		if info, err := os.Stat(path); err == nil {
			size := info.Size()
			if size == lastSize && size > 0 {
				confirms++
				if confirms >= g.Confirms {
					return true
				}
			} else {
				confirms = 0
			}
			lastSize = size
		}
		if !sleepCtx(ctx, g.Delay) {
			return false
		}
	}
	return false
}
