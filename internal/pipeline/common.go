// Package pipeline moves images between files and Grids and scores
// filter results against a reference.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"intensity-lab/internal/models"
)

// Logger is satisfied by logger.ZerologAdapter.
type Logger interface {
	Debug(component string, message string, fields map[string]interface{})
	Info(component string, message string, fields map[string]interface{})
	Warning(component string, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// TimingTracker is satisfied by timing.Tracker.
type TimingTracker interface {
	StartTiming(operation string) context.Context
	EndTiming(ctx context.Context) time.Duration
}

// ImageData is a decoded image reduced to grayscale samples.
type ImageData struct {
	Grid   *models.Grid
	Width  int
	Height int
	Format string
	Path   string
}

// formatFromExtension maps a file extension to a codec name, or "" when
// the extension is unknown.
func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return ""
	}
}
