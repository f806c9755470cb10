package protocol

import (
	"encoding/json"
	"io"

	"github.com/kdimtricp/facewatch/internal/detect"
)

// BatchReply is the single batch-mode response document.
type BatchReply struct {
	Success bool            `json:"success"`
	Results []detect.Report `json:"results"`
	Count   int             `json:"count"`
}

// ErrorReply is the single document written for a fatal input error. The
// results list stays present (and empty) so consumers can parse both reply
// shapes with one schema.
type ErrorReply struct {
	Error   string          `json:"error"`
	Results []detect.Report `json:"results"`
}

// WriteBatch writes the batch reply document.
func WriteBatch(w io.Writer, results []detect.Report) error {
	return json.NewEncoder(w).Encode(BatchReply{
		Success: true,
		Results: results,
		Count:   len(results),
	})
}

// WriteError writes the fatal error document.
func WriteError(w io.Writer, msg string) error {
	return json.NewEncoder(w).Encode(ErrorReply{
		Error:   msg,
		Results: []detect.Report{},
	})
}
