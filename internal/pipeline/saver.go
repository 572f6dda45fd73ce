package pipeline

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"intensity-lab/internal/models"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const jpegQuality = 95

type Saver struct {
	logger        Logger
	timingTracker TimingTracker
}

func NewSaver(logger Logger, timingTracker TimingTracker) *Saver {
	return &Saver{logger: logger, timingTracker: timingTracker}
}

// SaveToWriter encodes grid as an 8-bit grayscale image. Samples are
// rounded and clamped to 0-255. An empty format selects PNG.
func (s *Saver) SaveToWriter(writer io.Writer, grid *models.Grid, format string) error {
	if err := models.ValidateGrid(grid, "save image"); err != nil {
		return err
	}

	ctx := s.timingTracker.StartTiming("encode")
	defer s.timingTracker.EndTiming(ctx)

	if format == "" {
		format = "png"
	}
	img := grid.ToGray()

	s.logger.Debug("ImageSaver", "saving image", map[string]interface{}{
		"format": format,
		"width":  grid.Cols(),
		"height": grid.Rows(),
	})

	var err error
	switch format {
	case "png":
		err = png.Encode(writer, img)
	case "jpeg":
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: jpegQuality})
	case "bmp":
		err = bmp.Encode(writer, img)
	case "tiff":
		err = tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: cannot encode format %q", models.ErrInvalidParameter, format)
	}
	if err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": format,
		})
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// SaveToPath picks the codec from the extension, defaulting to PNG.
func (s *Saver) SaveToPath(path string, grid *models.Grid) (err error) {
	format := formatFromExtension(path)
	switch format {
	case "":
		format = "png"
	case "gif", "webp":
		return fmt.Errorf("%w: cannot encode format %q", models.ErrInvalidParameter, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	if err := s.SaveToWriter(f, grid, format); err != nil {
		return err
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": format,
	})
	return nil
}
