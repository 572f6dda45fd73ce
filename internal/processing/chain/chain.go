package chain

import (
	"context"
	"fmt"
	"time"

	"intensity-lab/internal/models"
)

type ProcessingStep interface {
	Apply(ctx context.Context, input *models.Grid) (*models.Grid, error)
	Name() string
}

// StepObserver is told how long each completed step took.
type StepObserver func(step string, elapsed time.Duration)

type ProcessingChain struct {
	steps    []ProcessingStep
	observer StepObserver
}

func NewProcessingChain(steps []ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// Observe installs fn as the step observer. A nil fn removes it.
func (pc *ProcessingChain) Observe(fn StepObserver) {
	pc.observer = fn
}

// Execute feeds input through the steps in order. The input grid is never
// modified; an empty chain returns it unchanged.
func (pc *ProcessingChain) Execute(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := models.ValidateGrid(input, "processing chain"); err != nil {
		return nil, err
	}

	current := input
	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		result, err := step.Apply(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}
		if pc.observer != nil {
			pc.observer(step.Name(), time.Since(start))
		}

		current = result
	}

	return current, nil
}

func (pc *ProcessingChain) AddStep(step ProcessingStep) {
	pc.steps = append(pc.steps, step)
}

func (pc *ProcessingChain) InsertStep(index int, step ProcessingStep) error {
	if index < 0 || index > len(pc.steps) {
		return fmt.Errorf("index out of range: %d", index)
	}

	pc.steps = append(pc.steps[:index], append([]ProcessingStep{step}, pc.steps[index:]...)...)
	return nil
}

func (pc *ProcessingChain) RemoveStep(index int) error {
	if index < 0 || index >= len(pc.steps) {
		return fmt.Errorf("index out of range: %d", index)
	}

	pc.steps = append(pc.steps[:index], pc.steps[index+1:]...)
	return nil
}

func (pc *ProcessingChain) StepCount() int {
	return len(pc.steps)
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
