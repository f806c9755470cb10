package detect

import (
	"math"
	"testing"
)

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		expected float64
	}{
		{"4k landscape", 3840, 2160, 0.5},
		{"4k portrait", 2160, 3840, 0.5},
		{"exactly at limit", 1920, 1080, 1.0},
		{"small image", 640, 480, 1.0},
		{"slightly over limit", 1921, 1080, 1920.0 / 1921.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleFactor(tt.width, tt.height)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected scale %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestNormalizerRoundTrip(t *testing.T) {
	// 4k image detected at half resolution: a detection at (100,100,200,200)
	// in resized pixel space maps back to original-resolution normalized
	// coordinates.
	n := NewNormalizer(3840, 2160)
	if n.Scale != 0.5 {
		t.Fatalf("expected scale 0.5, got %f", n.Scale)
	}

	faces := n.Apply([]RawDetection{{
		BBox:       []float64{100, 100, 200, 200},
		Confidence: 0.9,
	}})
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}

	expected := [4]float64{0.052083, 0.092593, 0.104167, 0.185185}
	for i, want := range expected {
		if math.Abs(faces[0].BBox[i]-want) > 1e-5 {
			t.Errorf("bbox[%d]: expected %f, got %f", i, want, faces[0].BBox[i])
		}
	}
}

func TestNormalizerNoResize(t *testing.T) {
	// At or below the limit the transform is a pure division by the image
	// dimensions.
	n := NewNormalizer(1920, 1080)
	if n.Scale != 1.0 {
		t.Fatalf("expected scale 1.0, got %f", n.Scale)
	}

	faces := n.Apply([]RawDetection{{
		BBox:       []float64{192, 108, 960, 540},
		Confidence: 0.8,
	}})
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}

	expected := [4]float64{0.1, 0.1, 0.5, 0.5}
	for i, want := range expected {
		if math.Abs(faces[0].BBox[i]-want) > 1e-9 {
			t.Errorf("bbox[%d]: expected %f, got %f", i, want, faces[0].BBox[i])
		}
	}
}

func TestNormalizerDropsShortBBox(t *testing.T) {
	n := NewNormalizer(640, 480)
	faces := n.Apply([]RawDetection{
		{BBox: []float64{10, 10}, Confidence: 0.9},
		{BBox: []float64{10, 10, 20, 20}, Confidence: 0.7},
		{BBox: nil, Confidence: 0.8},
	})

	if len(faces) != 1 {
		t.Fatalf("expected malformed bboxes to be dropped, got %d faces", len(faces))
	}
	if faces[0].Confidence != 0.7 {
		t.Errorf("wrong detection survived: confidence %f", faces[0].Confidence)
	}
}

func TestNormalizerLandmarks(t *testing.T) {
	n := NewNormalizer(3840, 2160)

	t.Run("absent landmarks stay nil", func(t *testing.T) {
		faces := n.Apply([]RawDetection{{BBox: []float64{0, 0, 10, 10}, Confidence: 0.9}})
		if faces[0].Landmarks != nil {
			t.Errorf("expected nil landmarks, got %v", faces[0].Landmarks)
		}
	})

	t.Run("landmarks are rescaled and normalized", func(t *testing.T) {
		faces := n.Apply([]RawDetection{{
			BBox:       []float64{0, 0, 10, 10},
			Confidence: 0.9,
			Landmarks:  [][]float64{{960, 540}, {192}},
		}})

		lms := faces[0].Landmarks
		if len(lms) != 1 {
			t.Fatalf("expected 1 valid landmark, got %d", len(lms))
		}
		// 960 / 0.5 / 3840 = 0.5, 540 / 0.5 / 2160 = 0.5
		if math.Abs(lms[0][0]-0.5) > 1e-9 || math.Abs(lms[0][1]-0.5) > 1e-9 {
			t.Errorf("expected landmark (0.5, 0.5), got (%f, %f)", lms[0][0], lms[0][1])
		}
	})
}
