package protocol

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseBatch(t *testing.T) {
	req, mode, err := Parse(strings.NewReader(`{"image_paths": ["a.png", "b.png"], "conf_thresh": 0.7}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeBatch {
		t.Fatalf("expected batch mode, got %v", mode)
	}
	if len(req.ImagePaths) != 2 {
		t.Errorf("expected 2 paths, got %d", len(req.ImagePaths))
	}
	if req.Conf() != 0.7 {
		t.Errorf("expected conf 0.7, got %f", req.Conf())
	}
}

func TestParseWatch(t *testing.T) {
	req, mode, err := Parse(strings.NewReader(
		`{"watch_dir": "/tmp/frames", "expected_count": 120, "poll_interval": 0.25}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeWatch {
		t.Fatalf("expected watch mode, got %v", mode)
	}
	if req.WatchDir != "/tmp/frames" {
		t.Errorf("wrong watch dir: %s", req.WatchDir)
	}
	if req.Expected() != 120 {
		t.Errorf("expected count 120, got %d", req.Expected())
	}
	if req.Poll() != 250*time.Millisecond {
		t.Errorf("expected 250ms poll, got %v", req.Poll())
	}
}

// An explicit zero is a value, not an omission; only an absent conf_thresh
// falls back to the default.
func TestParseExplicitZeroConf(t *testing.T) {
	req, _, err := Parse(strings.NewReader(`{"image_paths": ["a.png"], "conf_thresh": 0}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Conf() != 0 {
		t.Errorf("expected conf 0 to pass through, got %f", req.Conf())
	}
}

func TestParseDefaults(t *testing.T) {
	req, _, err := Parse(strings.NewReader(`{"watch_dir": "/tmp/frames"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Conf() != 0.5 {
		t.Errorf("expected default conf 0.5, got %f", req.Conf())
	}
	if req.Poll() != 100*time.Millisecond {
		t.Errorf("expected default poll 100ms, got %v", req.Poll())
	}
	if req.Expected() != 0 {
		t.Errorf("expected no expected count, got %d", req.Expected())
	}
}

func TestParseFatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid JSON", `{"image_paths": [`},
		{"not JSON at all", `hello`},
		{"missing required keys", `{"something_else": true}`},
		{"empty path list", `{"image_paths": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			var fatal *FatalInputError
			if !errors.As(err, &fatal) {
				t.Errorf("expected FatalInputError, got %T: %v", err, err)
			}
		})
	}
}
