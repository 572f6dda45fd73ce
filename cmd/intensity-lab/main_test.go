package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"intensity-lab/internal/debug/timing"
	"intensity-lab/internal/logger"
	"intensity-lab/internal/models"
	"intensity-lab/internal/pipeline"
	"intensity-lab/internal/processing/rank"
	"intensity-lab/internal/shutdown"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, dir string) (string, *models.Grid) {
	t.Helper()
	values := make([]float64, 16*16)
	for i := range values {
		values[i] = float64((i * 37) % 256)
	}
	g, err := models.NewGrid(16, 16, values)
	require.NoError(t, err)

	path := filepath.Join(dir, "in.png")
	saver := pipeline.NewSaver(logger.NewNop(), timing.NewTracker())
	require.NoError(t, saver.SaveToPath(path, g))
	return path, g
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	sm := shutdown.NewManager(logger.NewNop())
	defer sm.Shutdown()
	code := run(sm, logger.NewNop(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func loadOutput(t *testing.T, path string) *models.Grid {
	t.Helper()
	data, err := pipeline.NewLoader(logger.NewNop(), timing.NewTracker()).LoadFromPath(path)
	require.NoError(t, err)
	return data.Grid
}

func TestRunSingleFilter(t *testing.T) {
	dir := t.TempDir()
	in, img := writeInput(t, dir)
	out := filepath.Join(dir, "out.png")

	code, stdout, stderr := runCLI(t, "-in", in, "-out", out, "-filter", "median", "-size", "5", "-timings")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "median [median]")
	assert.Contains(t, stdout, "psnr=")
	assert.Contains(t, stdout, "step:median")

	want, err := rank.Filter(img, 5, rank.Median, rank.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, loadOutput(t, out).Equal(want))
}

func TestRunRecipe(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeInput(t, dir)
	out := filepath.Join(dir, "out.bmp")
	recipe := filepath.Join(dir, "edges.yaml")
	require.NoError(t, os.WriteFile(recipe, []byte(`
name: edges
steps:
  - filter: gaussian
    params: {size: 3}
  - filter: sobel_x
    params: {size_policy: valid}
  - filter: clamp
`), 0o600))

	code, stdout, stderr := runCLI(t, "-in", in, "-out", out, "-recipe", recipe, "-workers", "2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "edges [gaussian -> sobel_x -> clamp] 14x14")

	g := loadOutput(t, out)
	assert.Equal(t, 14, g.Rows())
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeInput(t, dir)
	out := filepath.Join(dir, "out.png")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing out", []string{"-in", in}, 2},
		{"unknown flag", []string{"-in", in, "-out", out, "-radius", "3"}, 2},
		{"positional argument", []string{"-in", in, "-out", out, "extra"}, 2},
		{"unknown filter", []string{"-in", in, "-out", out, "-filter", "blur"}, 2},
		{"even size", []string{"-in", in, "-out", out, "-filter", "mean", "-size", "4"}, 2},
		{"parameter not used by filter", []string{"-in", in, "-out", out, "-filter", "clamp", "-sigma", "2"}, 2},
		{"size flag on clamp", []string{"-in", in, "-out", out, "-filter", "clamp", "-size", "3"}, 2},
		{"bad backend", []string{"-in", in, "-out", out, "-backend", "cuda"}, 2},
		{"wrap on opencv", []string{"-in", in, "-out", out, "-filter", "mean", "-backend", "opencv", "-boundary", "wrap"}, 2},
		{"missing input", []string{"-in", filepath.Join(dir, "none.png"), "-out", out}, 1},
		{"params with recipe", []string{"-in", in, "-out", out, "-recipe", filepath.Join(dir, "r.yaml"), "-size", "3"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
	_, err := os.Stat(out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListAndVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "-list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "gaussian")
	assert.Contains(t, stdout, "sigma_color=75")

	code, stdout, _ = runCLI(t, "-version")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, AppVersion)

	code, _, _ = runCLI(t, "-h")
	assert.Equal(t, 0, code)
}

func TestParseFlagsForwardsOnlySetParameters(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-filter", "gaussian", "-size", "7", "-boundary", "wrap"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"size": "7", "boundary": "wrap"}, opts.params)

	recipe, err := buildRecipe(opts)
	require.NoError(t, err)
	assert.Equal(t, "gaussian", recipe.Name)
	assert.Equal(t, models.BackendNative, recipe.Backend)
	require.Len(t, recipe.Steps, 1)
}
