package detect

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
)

// SubprocessEngine runs an external detector executable and speaks a
// length-prefixed JSON protocol over its stdin/stdout. The process is
// started once; each Detect call is one request/response exchange.
//
// Protocol, both directions: a big-endian uint32 byte length followed by a
// single JSON document. The detector's stderr passes through for diagnostics.
type SubprocessEngine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	// The engine process is stateful per call; serialize access so the
	// HTTP surface can share one engine across requests.
	mu sync.Mutex
}

type engineRequest struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	MaxDimension  int     `json:"max_dimension"`
	ConfThreshold float64 `json:"conf_thresh"`
	Image         []byte  `json:"image"`
}

type engineResponse struct {
	Detections []RawDetection `json:"detections"`
	Error      string         `json:"error,omitempty"`
}

// NewSubprocessEngine starts the detector process. The returned engine must
// be closed to reap the child.
func NewSubprocessEngine(path string, args ...string) (*SubprocessEngine, error) {
	cmd := exec.Command(path, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("detector %s failed to start: %w", path, err)
	}
	log.Printf("Started detector process: %s (pid %d)", path, cmd.Process.Pid)

	return &SubprocessEngine{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (e *SubprocessEngine) Detect(ctx context.Context, img *ImageInfo, confThreshold float64) ([]RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(engineRequest{
		Width:         img.Width,
		Height:        img.Height,
		MaxDimension:  MaxImageDimension,
		ConfThreshold: confThreshold,
		Image:         img.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode detector request: %w", err)
	}

	if err := binary.Write(e.stdin, binary.BigEndian, uint32(len(payload))); err != nil {
		return nil, fmt.Errorf("failed to write request header: %w", err)
	}
	if _, err := e.stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to write request body: %w", err)
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(e.stdout, header); err != nil {
		// EOF here means the detector process died mid-exchange.
		return nil, fmt.Errorf("failed to read detector response: %w", err)
	}

	respLen := binary.BigEndian.Uint32(header)
	body := make([]byte, respLen)
	if _, err := io.ReadFull(e.stdout, body); err != nil {
		return nil, fmt.Errorf("failed to read detector response body: %w", err)
	}

	var resp engineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid detector response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector error: %s", resp.Error)
	}
	return resp.Detections, nil
}

func (e *SubprocessEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stdin.Close()
	e.stdout.Close()
	return e.cmd.Wait()
}
