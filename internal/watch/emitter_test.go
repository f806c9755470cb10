package watch

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kdimtricp/facewatch/internal/detect"
)

func TestJSONEmitterStream(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONEmitter(&buf)

	err := e.EmitFrame(FrameEvent{
		FrameIndex: 0,
		Result: detect.Report{
			Success: true,
			Faces: []detect.Face{{
				BBox:       [4]float64{0.1, 0.1, 0.2, 0.2},
				Confidence: 0.9,
			}},
			Count: 1,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.EmitDone(1); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 newline-delimited documents, got %d", len(lines))
	}

	var frame struct {
		FrameIndex int `json:"frame_index"`
		Result     struct {
			Faces []struct {
				Landmarks json.RawMessage `json:"landmarks"`
			} `json:"faces"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &frame); err != nil {
		t.Fatalf("frame document is not valid JSON: %v", err)
	}
	if frame.FrameIndex != 0 {
		t.Errorf("expected frame_index 0, got %d", frame.FrameIndex)
	}
	if string(frame.Result.Faces[0].Landmarks) != "null" {
		t.Errorf("absent landmarks must marshal as null, got %s", frame.Result.Faces[0].Landmarks)
	}

	var done struct {
		Done           bool `json:"done"`
		TotalProcessed int  `json:"total_processed"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &done); err != nil {
		t.Fatalf("done document is not valid JSON: %v", err)
	}
	if !done.Done || done.TotalProcessed != 1 {
		t.Errorf("unexpected done document: %+v", done)
	}
}
