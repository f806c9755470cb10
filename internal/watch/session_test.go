package watch

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kdimtricp/facewatch/internal/detect"
)

func writeFramePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 32, 32))); err != nil {
		t.Fatalf("Failed to encode frame: %v", err)
	}
	return path
}

// collectEmitter gathers events in memory. Guarded because tests read it
// while the session runs in another goroutine.
type collectEmitter struct {
	mu     sync.Mutex
	frames []FrameEvent
	done   []int
}

func (c *collectEmitter) EmitFrame(ev FrameEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, ev)
	return nil
}

func (c *collectEmitter) EmitDone(total int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = append(c.done, total)
	return nil
}

func (c *collectEmitter) snapshot() ([]FrameEvent, []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]FrameEvent(nil), c.frames...), append([]int(nil), c.done...)
}

func fastSession(dir string, expected int, emitter StreamEmitter, engine detect.Engine) *Session {
	s := NewSession(Config{
		Dir:           dir,
		ExpectedCount: expected,
		PollInterval:  5 * time.Millisecond,
		IdleTimeout:   50 * time.Millisecond,
	}, engine, emitter)
	s.Gate = &StabilityGate{Attempts: 3, Confirms: 2, Delay: time.Millisecond}
	return s
}

func TestSessionExpectedCount(t *testing.T) {
	dir := t.TempDir()
	writeFramePNG(t, dir, "frame.0001.png")
	writeFramePNG(t, dir, "frame.0002.png")

	emitter := &collectEmitter{}
	session := fastSession(dir, 2, emitter, &detect.StubEngine{})

	total, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("session failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 processed, got %d", total)
	}

	frames, done := emitter.snapshot()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frame events, got %d", len(frames))
	}
	for i, ev := range frames {
		if ev.FrameIndex != i {
			t.Errorf("event %d: expected frame_index %d, got %d", i, i, ev.FrameIndex)
		}
		if !ev.Result.Success {
			t.Errorf("event %d: expected success, got error %q", i, ev.Result.Error)
		}
	}
	if len(done) != 1 || done[0] != 2 {
		t.Errorf("expected one done event with total 2, got %v", done)
	}
}

// The configured threshold reaches the engine untouched, zero included;
// defaulting is the caller's job, same as in batch mode.
func TestSessionConfThresholdPassthrough(t *testing.T) {
	tests := []struct {
		name string
		conf float64
	}{
		{"explicit zero", 0},
		{"custom", 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFramePNG(t, dir, "frame.0001.png")

			var seen []float64
			engine := &detect.StubEngine{
				DetectFunc: func(_ *detect.ImageInfo, conf float64) ([]detect.RawDetection, error) {
					seen = append(seen, conf)
					return nil, nil
				},
			}

			emitter := &collectEmitter{}
			session := NewSession(Config{
				Dir:           dir,
				ConfThreshold: tt.conf,
				ExpectedCount: 1,
				PollInterval:  5 * time.Millisecond,
				IdleTimeout:   50 * time.Millisecond,
			}, engine, emitter)
			session.Gate = &StabilityGate{Attempts: 3, Confirms: 2, Delay: time.Millisecond}

			if _, err := session.Run(context.Background()); err != nil {
				t.Fatalf("session failed: %v", err)
			}
			if len(seen) != 1 || seen[0] != tt.conf {
				t.Errorf("expected engine to see threshold %v once, got %v", tt.conf, seen)
			}
		})
	}
}

func TestSessionIdleTimeout(t *testing.T) {
	dir := t.TempDir()
	writeFramePNG(t, dir, "frame.0001.png")

	emitter := &collectEmitter{}
	session := fastSession(dir, 0, emitter, &detect.StubEngine{})

	total, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("session failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 processed, got %d", total)
	}

	frames, done := emitter.snapshot()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame event, got %d", len(frames))
	}
	if len(done) != 1 || done[0] != 1 {
		t.Errorf("expected one done event with total 1, got %v", done)
	}
}

func TestSessionLateArrival(t *testing.T) {
	dir := t.TempDir()
	writeFramePNG(t, dir, "frame.0001.png")

	emitter := &collectEmitter{}
	session := fastSession(dir, 2, emitter, &detect.StubEngine{})

	errCh := make(chan error, 1)
	go func() {
		_, err := session.Run(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	writeFramePNG(t, dir, "frame.0002.png")

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("session failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not complete")
	}

	frames, done := emitter.snapshot()
	if len(frames) != 2 || frames[0].FrameIndex != 0 || frames[1].FrameIndex != 1 {
		t.Fatalf("expected ordered events [0 1], got %+v", frames)
	}
	if len(done) != 1 || done[0] != 2 {
		t.Errorf("expected done with total 2, got %v", done)
	}
}

func TestSessionOutOfOrderArrival(t *testing.T) {
	// The producer writing a lower ordinal after a higher one has already
	// been emitted yields out-of-order emission. That is the observed
	// contract: ordering holds within a poll tick, not globally.
	dir := t.TempDir()
	writeFramePNG(t, dir, "frame.0002.png")

	emitter := &collectEmitter{}
	session := fastSession(dir, 2, emitter, &detect.StubEngine{})

	errCh := make(chan error, 1)
	go func() {
		_, err := session.Run(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	writeFramePNG(t, dir, "frame.0001.png")

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("session failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not complete")
	}

	frames, _ := emitter.snapshot()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frame events, got %d", len(frames))
	}
	if frames[0].FrameIndex != 1 || frames[1].FrameIndex != 0 {
		t.Errorf("expected emission order [1 0], got [%d %d]",
			frames[0].FrameIndex, frames[1].FrameIndex)
	}
}

func TestSessionPerFrameFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	writeFramePNG(t, dir, "frame.0001.png")
	if err := os.WriteFile(filepath.Join(dir, "frame.0002.png"), []byte("corrupt"), 0644); err != nil {
		t.Fatal(err)
	}

	emitter := &collectEmitter{}
	session := fastSession(dir, 2, emitter, &detect.StubEngine{})

	if _, err := session.Run(context.Background()); err != nil {
		t.Fatalf("one bad frame must not abort the session: %v", err)
	}

	frames, done := emitter.snapshot()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frame events, got %d", len(frames))
	}
	if !frames[0].Result.Success {
		t.Errorf("frame 0 should succeed, got error %q", frames[0].Result.Error)
	}
	if frames[1].Result.Error == "" {
		t.Error("frame 1 should carry an error")
	}
	if len(frames[1].Result.Faces) != 0 {
		t.Error("an error result must carry an empty faces list")
	}
	if len(done) != 1 || done[0] != 2 {
		t.Errorf("expected done with total 2, got %v", done)
	}
}

func TestSessionDuplicateOrdinal(t *testing.T) {
	dir := t.TempDir()
	// Both names derive ordinal 0.
	writeFramePNG(t, dir, "frame.0001.png")
	writeFramePNG(t, dir, "take.1.png")

	emitter := &collectEmitter{}
	session := fastSession(dir, 2, emitter, &detect.StubEngine{})

	if _, err := session.Run(context.Background()); err == nil {
		t.Fatal("expected a data-integrity error for duplicate ordinals")
	}
}

func TestSessionMissingDirectory(t *testing.T) {
	emitter := &collectEmitter{}
	session := fastSession(filepath.Join(t.TempDir(), "absent"), 1, emitter, &detect.StubEngine{})

	if _, err := session.Run(context.Background()); err == nil {
		t.Fatal("expected an error for a missing watch directory")
	}
}

func TestSessionCancellation(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &collectEmitter{}
	// No expected count and no files: would block forever without the
	// caller's cancellation.
	session := fastSession(dir, 0, emitter, &detect.StubEngine{})

	errCh := make(chan error, 1)
	go func() {
		_, err := session.Run(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected a cancellation error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session ignored cancellation")
	}

	_, done := emitter.snapshot()
	if len(done) != 0 {
		t.Error("a cancelled session must not emit a done event")
	}
}
