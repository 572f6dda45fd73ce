// Package config loads filter recipes from YAML files.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"intensity-lab/internal/models"

	"gopkg.in/yaml.v3"
)

// MaxRecipeSize is the largest recipe file Load accepts.
const MaxRecipeSize = 1 << 20

// Recipe is an ordered list of filter steps plus the settings they run with.
type Recipe struct {
	Name    string         `yaml:"name"`
	Backend models.Backend `yaml:"backend"`
	// Workers bounds the goroutines per step; 0 uses GOMAXPROCS.
	Workers int          `yaml:"workers"`
	Steps   []StepConfig `yaml:"steps"`
}

// StepConfig names a registered filter and overrides its parameters.
type StepConfig struct {
	Filter string                 `yaml:"filter"`
	Params map[string]interface{} `yaml:"params,omitempty"`
}

// Load reads and validates a recipe. The path must end in .yaml or .yml.
func Load(path string) (*Recipe, error) {
	cleanPath := filepath.Clean(path)
	switch ext := strings.ToLower(filepath.Ext(cleanPath)); ext {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("recipe file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat recipe file: %w", err)
	}
	if info.Size() > MaxRecipeSize {
		return nil, fmt.Errorf("recipe file too large: %d bytes (max %d)", info.Size(), MaxRecipeSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	recipe, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", cleanPath, err)
	}
	if recipe.Name == "" {
		recipe.Name = strings.TrimSuffix(filepath.Base(cleanPath), filepath.Ext(cleanPath))
	}
	return recipe, nil
}

// Parse decodes a recipe document. Unknown top-level keys are rejected.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var recipe Recipe
	if err := dec.Decode(&recipe); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: recipe is empty", models.ErrInvalidParameter)
		}
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Validate checks the recipe shape. Filter names and parameter values are
// checked when the recipe is built into a chain.
func (r *Recipe) Validate() error {
	if r.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", models.ErrInvalidParameter, r.Workers)
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: recipe %q has no steps", models.ErrInvalidParameter, r.Name)
	}
	for i, step := range r.Steps {
		if strings.TrimSpace(step.Filter) == "" {
			return fmt.Errorf("%w: step %d has no filter", models.ErrInvalidParameter, i)
		}
	}
	return nil
}

// Marshal renders the recipe as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}
