package watch

import (
	"encoding/json"
	"io"

	"github.com/kdimtricp/facewatch/internal/detect"
)

// FrameEvent is one processed frame on the stream, tagged with its ordinal.
type FrameEvent struct {
	FrameIndex int           `json:"frame_index"`
	Result     detect.Report `json:"result"`
}

// DoneEvent terminates the stream. Exactly one is emitted per session.
type DoneEvent struct {
	Done           bool `json:"done"`
	TotalProcessed int  `json:"total_processed"`
}

// StreamEmitter publishes ordered frame results and the terminal summary.
type StreamEmitter interface {
	EmitFrame(ev FrameEvent) error
	EmitDone(totalProcessed int) error
}

// JSONEmitter writes newline-delimited JSON documents, one per event. The
// consumer on the other side of the pipe reads them as they appear, so each
// document is written in full before the next frame is processed.
type JSONEmitter struct {
	enc *json.Encoder
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

func (e *JSONEmitter) EmitFrame(ev FrameEvent) error {
	return e.enc.Encode(ev)
}

func (e *JSONEmitter) EmitDone(totalProcessed int) error {
	return e.enc.Encode(DoneEvent{Done: true, TotalProcessed: totalProcessed})
}
