package detect

// MaxImageDimension caps the size of the image handed to the detection
// engine. Larger images are detected at reduced resolution and the
// coordinates are mapped back afterwards.
const MaxImageDimension = 1920

// ScaleFactor returns the resize factor applied before detection for an
// image of the given original dimensions. 1.0 means the engine sees the
// image at full size.
func ScaleFactor(width, height int) float64 {
	longest := width
	if height > longest {
		longest = height
	}
	if longest > MaxImageDimension {
		return float64(MaxImageDimension) / float64(longest)
	}
	return 1.0
}

// Normalizer maps engine pixel coordinates back into normalized [0,1]
// coordinates relative to the original image dimensions.
type Normalizer struct {
	Width  int
	Height int
	Scale  float64
}

func NewNormalizer(width, height int) Normalizer {
	return Normalizer{
		Width:  width,
		Height: height,
		Scale:  ScaleFactor(width, height),
	}
}

// Apply converts raw detections into normalized faces. Detections with a
// short bbox are dropped rather than failing the whole frame; landmarks with
// fewer than two components are skipped the same way.
func (n Normalizer) Apply(raw []RawDetection) []Face {
	faces := make([]Face, 0, len(raw))
	for _, det := range raw {
		if len(det.BBox) < 4 {
			continue
		}

		var bbox [4]float64
		for i := 0; i < 4; i++ {
			bbox[i] = n.normalize(det.BBox[i], i%2 == 1)
		}

		var landmarks [][2]float64
		for _, lm := range det.Landmarks {
			if len(lm) < 2 {
				continue
			}
			landmarks = append(landmarks, [2]float64{
				n.normalize(lm[0], false),
				n.normalize(lm[1], true),
			})
		}

		faces = append(faces, Face{
			BBox:       bbox,
			Confidence: det.Confidence,
			Landmarks:  landmarks,
		})
	}
	return faces
}

// normalize undoes the pre-detection resize, then divides by the original
// dimension. vertical selects height over width.
func (n Normalizer) normalize(v float64, vertical bool) float64 {
	dim := float64(n.Width)
	if vertical {
		dim = float64(n.Height)
	}
	return v / n.Scale / dim
}
