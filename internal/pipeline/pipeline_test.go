package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"intensity-lab/internal/debug/timing"
	"intensity-lab/internal/logger"
	"intensity-lab/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIO() (*Loader, *Saver, *timing.Tracker) {
	tracker := timing.NewTracker()
	log := logger.NewNop()
	return NewLoader(log, tracker), NewSaver(log, tracker), tracker
}

func gradient(t *testing.T, rows, cols int) *models.Grid {
	t.Helper()
	values := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			values[y*cols+x] = float64((y*17 + x*5) % 256)
		}
	}
	g, err := models.NewGrid(rows, cols, values)
	require.NoError(t, err)
	return g
}

func TestLosslessRoundTrip(t *testing.T) {
	loader, saver, tracker := newTestIO()
	want := gradient(t, 12, 20)

	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+ext)
			require.NoError(t, saver.SaveToPath(path, want))

			got, err := loader.LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, 20, got.Width)
			assert.Equal(t, 12, got.Height)
			assert.Equal(t, path, got.Path)
			assert.True(t, got.Grid.Equal(want), "%s round trip changed samples", ext)
		})
	}
	assert.NotEmpty(t, tracker.GetTimings("decode"))
	assert.NotEmpty(t, tracker.GetTimings("encode"))
}

func TestJPEGRoundTripIsClose(t *testing.T) {
	loader, saver, _ := newTestIO()
	want, err := models.FilledGrid(16, 16, 128)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, saver.SaveToWriter(&buf, want, "jpeg"))
	got, err := loader.LoadFromBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", got.Format)
	assert.True(t, got.Grid.EqualApprox(want, 2))
}

func TestSaveClampsSamples(t *testing.T) {
	loader, saver, _ := newTestIO()
	g, err := models.GridFromRows([][]float64{{-40, 12.4, 300}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, saver.SaveToWriter(&buf, g, ""))
	got, err := loader.LoadFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", got.Format)
	assert.Equal(t, []float64{0, 12, 255}, got.Grid.Values())
}

func TestLoadConvertsColourToLuma(t *testing.T) {
	loader, _, _ := newTestIO()
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	got, err := loader.LoadFromBytes(buf.Bytes())
	require.NoError(t, err)

	red := color.GrayModel.Convert(color.RGBA{R: 255, A: 255}).(color.Gray).Y
	assert.Equal(t, []float64{float64(red), 255}, got.Grid.Values())
}

func TestLoadErrors(t *testing.T) {
	loader, saver, _ := newTestIO()

	_, err := loader.LoadFromPath(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = loader.LoadFromBytes([]byte("not an image"))
	assert.Error(t, err)

	g := gradient(t, 2, 2)
	assert.ErrorIs(t, saver.SaveToPath(filepath.Join(t.TempDir(), "x.gif"), g), models.ErrInvalidParameter)
	assert.ErrorIs(t, saver.SaveToWriter(&bytes.Buffer{}, g, "xcf"), models.ErrInvalidParameter)
	assert.ErrorIs(t, saver.SaveToWriter(&bytes.Buffer{}, nil, "png"), models.ErrInvalidParameter)
}

func TestQualityMetrics(t *testing.T) {
	ref, err := models.GridFromRows([][]float64{{10, 20}, {30, 40}})
	require.NoError(t, err)
	out, err := models.GridFromRows([][]float64{{12, 18}, {30, 44}})
	require.NoError(t, err)

	m, err := CalculateQualityMetrics(ref, out)
	require.NoError(t, err)
	assert.InDelta(t, (4.0+4+0+16)/4, m.MSE, 1e-12)
	assert.InDelta(t, (2.0+2+0+4)/4, m.MAE, 1e-12)
	assert.InDelta(t, 10*math.Log10(255*255/6.0), m.PSNR, 1e-9)
	assert.InDelta(t, 1.0, m.MeanShift, 1e-12)

	same, err := CalculateQualityMetrics(ref, ref)
	require.NoError(t, err)
	assert.True(t, math.IsInf(same.PSNR, 1))
	assert.Equal(t, 1.0, same.StdDevRatio)
	assert.Len(t, same.GetMetricsDescription(), 5)

	_, err = CalculateQualityMetrics(ref, gradient(t, 3, 2))
	assert.ErrorIs(t, err, models.ErrIncompatibleSizes)
}

func TestSmoothingLowersContrast(t *testing.T) {
	ref := gradient(t, 8, 8)
	flat, err := models.FilledGrid(8, 8, 100)
	require.NoError(t, err)

	m, err := CalculateQualityMetrics(ref, flat)
	require.NoError(t, err)
	assert.Zero(t, m.StdDevRatio)
}
