package detect

import (
	"context"
	"os"

	"github.com/schollz/progressbar/v3"
)

// DefaultConfThreshold matches the detector's stock confidence cutoff.
const DefaultConfThreshold = 0.5

// ProcessImage runs the full per-image pipeline: load, detect, normalize.
// Failures never escape as errors; they come back as an error Report so one
// bad image cannot abort a batch or a watch stream.
func ProcessImage(ctx context.Context, engine Engine, path string, confThreshold float64) Report {
	img, err := LoadImage(path)
	if err != nil {
		return ErrorReport(err.Error())
	}

	raw, err := engine.Detect(ctx, img, confThreshold)
	if err != nil {
		return ErrorReport(err.Error())
	}

	faces := NewNormalizer(img.Width, img.Height).Apply(raw)
	return Report{
		Success:     true,
		Faces:       faces,
		ImageWidth:  img.Width,
		ImageHeight: img.Height,
		Count:       len(faces),
	}
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	ConfThreshold float64
	// Progress renders a progress bar on stderr. Never enable it when
	// stdout carries the machine-readable reply from a piped request;
	// the bar itself always stays off stdout either way.
	Progress bool
}

// RunBatch processes a fixed list of image paths in input order with a
// single engine instance and returns one Report per path.
func RunBatch(ctx context.Context, engine Engine, paths []string, opts BatchOptions) []Report {
	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Detecting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	results := make([]Report, 0, len(paths))
	for _, path := range paths {
		results = append(results, ProcessImage(ctx, engine, path, opts.ConfThreshold))
		if bar != nil {
			bar.Add(1)
		}
	}
	return results
}
