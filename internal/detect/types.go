package detect

// RawDetection is what an Engine reports for one face: pixel coordinates in
// the image the engine actually saw, which may have been reduced to fit the
// maximum processing dimension. BBox is [x1, y1, x2, y2]; anything shorter
// is malformed and gets dropped during normalization.
type RawDetection struct {
	BBox       []float64   `json:"bbox"`
	Confidence float64     `json:"confidence"`
	Landmarks  [][]float64 `json:"landmarks,omitempty"`
}

// Face is one detection in normalized [0,1] coordinates relative to the
// original, unresized image. Landmarks is nil when the engine reported none;
// it marshals as null rather than an empty list.
type Face struct {
	BBox       [4]float64   `json:"bbox"`
	Confidence float64      `json:"confidence"`
	Landmarks  [][2]float64 `json:"landmarks"`
}

// Report is the detection result for a single image. Exactly one of
// Success or Error is meaningful; a successful report with zero faces is a
// normal outcome, not an error.
type Report struct {
	Success     bool   `json:"success,omitempty"`
	Faces       []Face `json:"faces"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`
	Count       int    `json:"count"`
	Error       string `json:"error,omitempty"`
}

// ErrorReport builds the failure variant of a Report. Faces is kept as an
// empty list so consumers can iterate it without a nil check.
func ErrorReport(msg string) Report {
	return Report{Faces: []Face{}, Error: msg}
}
