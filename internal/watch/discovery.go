package watch

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OrdinalFunc derives a zero-based frame ordinal from a filename. Returning
// false marks the file as unprocessable (no ordinal can be assigned).
type OrdinalFunc func(name string) (int, bool)

var digitRun = regexp.MustCompile(`\d+`)

// FirstDigitRun is the stock ordinal extractor: the first run of decimal
// digits in the name, converted from the producer's 1-based frame numbers
// to 0-based ordinals ("frame.0001.png" -> 0). Known limitation: a name
// with several numeric groups (a date stamp, say) picks the first one; the
// extractor is pluggable so a stricter convention can replace it.
func FirstDigitRun(name string) (int, bool) {
	m := digitRun.FindString(name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n - 1, true
}

// Frame is one candidate file with its assigned ordinal.
type Frame struct {
	Path         string
	Name         string
	Ordinal      int
	DiscoveredAt time.Time
}

// Discovery lists candidate frame files in a directory, ordered by ordinal.
type Discovery struct {
	Dir     string
	Suffix  string
	Ordinal OrdinalFunc
}

func NewDiscovery(dir string) *Discovery {
	return &Discovery{
		Dir:     dir,
		Suffix:  ".png",
		Ordinal: FirstDigitRun,
	}
}

// List scans the directory and returns matching files sorted ascending by
// ordinal. Files without a derivable ordinal are excluded. A listing error
// yields an empty result for this tick; the writer may still be setting up
// the directory and the next poll retries anyway.
func (d *Discovery) List() []Frame {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil
	}

	now := time.Now()
	frames := make([]Frame, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), d.Suffix) {
			continue
		}
		ordinal, ok := d.Ordinal(name)
		if !ok {
			continue
		}
		frames = append(frames, Frame{
			Path:         filepath.Join(d.Dir, name),
			Name:         name,
			Ordinal:      ordinal,
			DiscoveredAt: now,
		})
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].Ordinal < frames[j].Ordinal })
	return frames
}
