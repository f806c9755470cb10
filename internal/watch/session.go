package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kdimtricp/facewatch/internal/detect"
)

// DefaultPollInterval matches the frame producer's cadence; frames arrive
// at a low rate, so a coarse poll is fine.
const DefaultPollInterval = 100 * time.Millisecond

// Config describes one watch session.
type Config struct {
	Dir           string
	ConfThreshold float64
	// ExpectedCount, when positive, completes the session as soon as that
	// many frames have been processed.
	ExpectedCount int
	PollInterval  time.Duration
	IdleTimeout   time.Duration
}

// Session owns one incremental run over a frame directory: it discovers new
// files, waits for them to stabilize, runs detection, and publishes ordered
// results until the completion oracle fires. All mutable state is owned by
// the single Run loop; sessions are never shared and never reused.
type Session struct {
	ID        string
	Discovery *Discovery
	Gate      *StabilityGate
	Oracle    *CompletionOracle
	Engine    detect.Engine
	Emitter   StreamEmitter

	ConfThreshold float64
	PollInterval  time.Duration

	processed   map[string]struct{}
	ordinals    map[int]string
	nextOrdinal int
	idleTicks   int
}

func NewSession(cfg Config, engine detect.Engine, emitter StreamEmitter) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Session{
		ID:            uuid.New().String(),
		Discovery:     NewDiscovery(cfg.Dir),
		Gate:          NewStabilityGate(),
		Oracle:        NewCompletionOracle(cfg.ExpectedCount, cfg.IdleTimeout, cfg.PollInterval),
		Engine:        engine,
		Emitter:       emitter,
		ConfThreshold: cfg.ConfThreshold,
		PollInterval:  cfg.PollInterval,
		processed:     make(map[string]struct{}),
		ordinals:      make(map[int]string),
	}
}

// Run drives the session until completion, cancellation, or a stream
// failure. It returns the number of frames processed. Per-frame failures
// are folded into the stream as error results; only a broken emitter, a
// duplicate ordinal, or a missing watch directory abort the run.
func (s *Session) Run(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.Discovery.Dir); err != nil {
		return 0, fmt.Errorf("watch directory does not exist: %s", s.Discovery.Dir)
	}

	// Frames already on disk are processed before the first sleep.
	if err := s.tick(ctx); err != nil {
		return len(s.processed), err
	}

	for s.Oracle.Observe(len(s.processed), s.idleTicks) != Done {
		if !sleepCtx(ctx, s.PollInterval) {
			return len(s.processed), ctx.Err()
		}
		if err := s.tick(ctx); err != nil {
			return len(s.processed), err
		}
	}

	if err := s.Emitter.EmitDone(len(s.processed)); err != nil {
		return len(s.processed), fmt.Errorf("failed to emit done event: %w", err)
	}
	return len(s.processed), nil
}

// tick runs one poll cycle: list, diff against processed, handle each new
// frame in discovery order, update the idle counter.
func (s *Session) tick(ctx context.Context) error {
	fresh := 0
	for _, frame := range s.Discovery.List() {
		if _, seen := s.processed[frame.Name]; seen {
			continue
		}
		if err := s.process(ctx, frame); err != nil {
			return err
		}
		fresh++
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if fresh > 0 {
		s.idleTicks = 0
	} else {
		s.idleTicks++
	}
	return nil
}

func (s *Session) process(ctx context.Context, frame Frame) error {
	if owner, taken := s.ordinals[frame.Ordinal]; taken {
		// Two filenames mapping to one ordinal is a producer bug; the
		// stream must not silently paper over it.
		return fmt.Errorf("duplicate frame ordinal %d: %s and %s", frame.Ordinal, owner, frame.Name)
	}

	s.Gate.Wait(ctx, frame.Path)
	report := detect.ProcessImage(ctx, s.Engine, frame.Path, s.ConfThreshold)

	if err := s.Emitter.EmitFrame(FrameEvent{FrameIndex: frame.Ordinal, Result: report}); err != nil {
		return fmt.Errorf("failed to emit frame %d: %w", frame.Ordinal, err)
	}

	s.processed[frame.Name] = struct{}{}
	s.ordinals[frame.Ordinal] = frame.Name
	if frame.Ordinal+1 > s.nextOrdinal {
		s.nextOrdinal = frame.Ordinal + 1
	}
	return nil
}

// sleepCtx waits for d or until the context is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
