package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"intensity-lab/internal/models"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes bounds how much a Loader reads from one source.
const MaxImageBytes = 256 << 20

type Loader struct {
	logger        Logger
	timingTracker TimingTracker
}

func NewLoader(logger Logger, timingTracker TimingTracker) *Loader {
	return &Loader{logger: logger, timingTracker: timingTracker}
}

func (l *Loader) LoadFromPath(path string) (*ImageData, error) {
	ctx := l.timingTracker.StartTiming("load_from_path")
	defer l.timingTracker.EndTiming(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := l.LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data.Path = path
	if ext := formatFromExtension(path); ext != "" && ext != data.Format {
		l.logger.Warning("ImageLoader", "file extension does not match content", map[string]interface{}{
			"path":      path,
			"extension": ext,
			"format":    data.Format,
		})
	}
	return data, nil
}

func (l *Loader) LoadFromReader(reader io.Reader) (*ImageData, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", models.ErrInvalidParameter, MaxImageBytes)
	}

	l.logger.Debug("ImageLoader", "image data read", map[string]interface{}{
		"size_bytes": len(data),
	})

	return l.LoadFromBytes(data)
}

// LoadFromBytes decodes any registered format and converts it to luma.
func (l *Loader) LoadFromBytes(data []byte) (*ImageData, error) {
	ctx := l.timingTracker.StartTiming("decode")
	img, format, err := image.Decode(bytes.NewReader(data))
	l.timingTracker.EndTiming(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	grid, err := models.GridFromImage(img)
	if err != nil {
		return nil, err
	}

	imageData := &ImageData{
		Grid:   grid,
		Width:  grid.Cols(),
		Height: grid.Rows(),
		Format: format,
	}

	l.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"width":  imageData.Width,
		"height": imageData.Height,
		"format": format,
	})

	return imageData, nil
}
