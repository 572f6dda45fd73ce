package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intensity-lab/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const denoise = `
name: denoise
backend: opencv
workers: 2
steps:
  - filter: median
    params:
      size: 3
  - filter: gaussian
    params: {size: 5, sigma: 1.1, boundary: symmetric}
  - filter: convolve
    params:
      kernel: [[0, -1, 0], [-1, 5, -1], [0, -1, 0]]
  - filter: clamp
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRecipe(t *testing.T) {
	recipe, err := Load(writeFile(t, "denoise.yaml", denoise))
	require.NoError(t, err)

	assert.Equal(t, "denoise", recipe.Name)
	assert.Equal(t, models.BackendOpenCV, recipe.Backend)
	assert.Equal(t, 2, recipe.Workers)
	require.Len(t, recipe.Steps, 4)

	assert.Equal(t, "median", recipe.Steps[0].Filter)
	assert.Equal(t, 3, recipe.Steps[0].Params["size"])
	assert.Equal(t, 1.1, recipe.Steps[1].Params["sigma"])
	assert.Equal(t, "symmetric", recipe.Steps[1].Params["boundary"])
	assert.Len(t, recipe.Steps[2].Params["kernel"], 3)
	assert.Nil(t, recipe.Steps[3].Params)
}

func TestLoadDefaultsNameAndBackend(t *testing.T) {
	recipe, err := Load(writeFile(t, "blur.yml", "steps:\n  - filter: mean\n"))
	require.NoError(t, err)
	assert.Equal(t, "blur", recipe.Name)
	assert.Equal(t, models.BackendNative, recipe.Backend)
	assert.Zero(t, recipe.Workers)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		contains string
	}{
		{"wrong extension", "r.json", `{"steps": []}`, "extension"},
		{"no steps", "r.yaml", "name: x\n", "no steps"},
		{"empty filter", "r.yaml", "steps:\n  - params: {size: 3}\n", "no filter"},
		{"negative workers", "r.yaml", "workers: -1\nsteps:\n  - filter: mean\n", "workers"},
		{"unknown key", "r.yaml", "stepz:\n  - filter: mean\n", "stepz"},
		{"bad backend", "r.yaml", "backend: cuda\nsteps:\n  - filter: mean\n", "backend"},
		{"empty document", "r.yaml", "", "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadTooLarge(t *testing.T) {
	big := "steps:\n  - filter: mean\n#" + strings.Repeat("x", MaxRecipeSize) + "\n"
	_, err := Load(writeFile(t, "big.yaml", big))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	recipe, err := Parse([]byte(denoise))
	require.NoError(t, err)

	data, err := recipe.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: opencv")

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, recipe, again)
}
