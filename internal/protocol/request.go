package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kdimtricp/facewatch/internal/detect"
	"github.com/kdimtricp/facewatch/internal/watch"
)

// Mode selects which pipeline a request drives.
type Mode int

const (
	ModeBatch Mode = iota
	ModeWatch
)

// Request is the single JSON document read from stdin. The presence of
// watch_dir selects watch mode; otherwise image_paths selects batch mode.
type Request struct {
	ImagePaths    []string `json:"image_paths"`
	WatchDir      string   `json:"watch_dir"`
	ConfThreshold *float64 `json:"conf_thresh"`
	ExpectedCount *int     `json:"expected_count"`
	PollInterval  *float64 `json:"poll_interval"` // seconds
}

// FatalInputError marks a request that must abort the run before any
// detection engine is constructed.
type FatalInputError struct {
	Msg string
}

func (e *FatalInputError) Error() string { return e.Msg }

// Parse reads and validates one request document.
func Parse(r io.Reader) (*Request, Mode, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, 0, &FatalInputError{Msg: fmt.Sprintf("invalid JSON input: %v", err)}
	}

	if req.WatchDir != "" {
		return &req, ModeWatch, nil
	}
	if req.ImagePaths == nil {
		return nil, 0, &FatalInputError{
			Msg: `invalid input format. Expected: {"image_paths": [...], "conf_thresh": 0.5} or {"watch_dir": "...", "conf_thresh": 0.5}`,
		}
	}
	if len(req.ImagePaths) == 0 {
		return nil, 0, &FatalInputError{Msg: "image_paths must be a non-empty array"}
	}
	return &req, ModeBatch, nil
}

// Conf returns the requested confidence threshold or the default.
func (r *Request) Conf() float64 {
	if r.ConfThreshold != nil {
		return *r.ConfThreshold
	}
	return detect.DefaultConfThreshold
}

// Poll returns the requested poll interval or the default.
func (r *Request) Poll() time.Duration {
	if r.PollInterval != nil && *r.PollInterval > 0 {
		return time.Duration(*r.PollInterval * float64(time.Second))
	}
	return watch.DefaultPollInterval
}

// Expected returns the expected frame count, 0 when unset.
func (r *Request) Expected() int {
	if r.ExpectedCount != nil && *r.ExpectedCount > 0 {
		return *r.ExpectedCount
	}
	return 0
}
