package watch

import "time"

// CompletionState is the oracle's state machine: a session is running until
// it is done, and done is terminal.
type CompletionState int

const (
	Running CompletionState = iota
	Done
)

// CompletionOracle decides, after each poll tick, whether the stream has
// ended. Two triggers exist: the expected frame count has been reached, or
// the directory has been idle for the full timeout after producing at least
// one frame. With no expected count and no first frame the session never
// completes on its own; the caller owns any outer timeout.
type CompletionOracle struct {
	ExpectedCount int // <= 0 means unknown
	IdleBudget    int // poll ticks without new files before giving up

	state CompletionState
}

// DefaultIdleTimeout is how long the directory must stay quiet before an
// open-ended session is declared complete.
const DefaultIdleTimeout = 5 * time.Second

func NewCompletionOracle(expectedCount int, idleTimeout, pollInterval time.Duration) *CompletionOracle {
	budget := 1
	if pollInterval > 0 && idleTimeout > pollInterval {
		budget = int(idleTimeout / pollInterval)
	}
	return &CompletionOracle{
		ExpectedCount: expectedCount,
		IdleBudget:    budget,
	}
}

// Observe feeds the oracle the session's counters and returns the resulting
// state. Once Done, it stays Done regardless of input.
func (o *CompletionOracle) Observe(processed, idleTicks int) CompletionState {
	if o.state == Done {
		return Done
	}
	switch {
	case o.ExpectedCount > 0 && processed >= o.ExpectedCount:
		o.state = Done
	case idleTicks >= o.IdleBudget && processed > 0:
		o.state = Done
	}
	return o.state
}

func (o *CompletionOracle) State() CompletionState {
	return o.state
}
