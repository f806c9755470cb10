package detect

import (
	"context"
)

// Engine is the external face-detection capability. Implementations own an
// expensive model and are created once per session; calls are blocking and
// must not be issued concurrently from the same session.
//
// The engine detects on the image reduced to MaxImageDimension (when larger)
// and reports coordinates in that reduced pixel space. The caller maps them
// back with a Normalizer built from the original dimensions.
type Engine interface {
	Detect(ctx context.Context, img *ImageInfo, confThreshold float64) ([]RawDetection, error)
	Close() error
}

// StubEngine is an Engine that reports canned detections. It stands in for
// a real model in tests and lets the pipeline run end to end without a
// detector binary configured.
type StubEngine struct {
	// DetectFunc, when set, produces the detections per call.
	DetectFunc func(img *ImageInfo, confThreshold float64) ([]RawDetection, error)
}

func (s *StubEngine) Detect(_ context.Context, img *ImageInfo, confThreshold float64) ([]RawDetection, error) {
	if s.DetectFunc != nil {
		return s.DetectFunc(img, confThreshold)
	}
	return nil, nil
}

func (s *StubEngine) Close() error { return nil }
