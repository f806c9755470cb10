package detect

import (
	"bytes"
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"
)

// ImageInfo carries a loaded image: its encoded bytes plus the dimensions
// probed from the header. The pixel data is never decoded here; the engine
// receives the encoded bytes as-is.
type ImageInfo struct {
	Path   string
	Width  int
	Height int
	Data   []byte
}

// LoadImage reads an image file and probes its dimensions.
func LoadImage(path string) (*ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read image from %s: %w", path, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode image %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d in %s", cfg.Width, cfg.Height, path)
	}

	return &ImageInfo{
		Path:   path,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}
