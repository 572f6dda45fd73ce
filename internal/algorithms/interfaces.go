package algorithms

import (
	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/chain"
)

// Environment carries the recipe-wide settings every step is built with.
type Environment struct {
	Backend models.Backend
	Workers int
}

// Algorithm is a named, parameterised factory for chain steps.
type Algorithm interface {
	GetName() string
	GetDefaultParameters() map[string]interface{}
	// GetParameterRanges returns the numeric bounds a UI slider would use.
	GetParameterRanges() map[string]models.ParameterRange
	ValidateParameters(params map[string]interface{}) error
	// Build merges params over the defaults and returns a ready step.
	Build(params map[string]interface{}, env Environment) (chain.ProcessingStep, error)
}
