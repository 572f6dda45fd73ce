package models

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidKernelSize = errors.New("invalid kernel size")
	ErrIncompatibleSizes = errors.New("incompatible sizes")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// ValidateOddPositive checks window and kernel sizes that need a centre cell.
func ValidateOddPositive(name string, value int, operation string) error {
	if value <= 0 || value%2 == 0 {
		return fmt.Errorf("%w: %s must be an odd positive integer, got %d for operation: %s",
			ErrInvalidParameter, name, value, operation)
	}
	return nil
}

func ValidatePositive(name string, value float64, operation string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fmt.Errorf("%w: %s must be positive and finite, got %g for operation: %s",
			ErrInvalidParameter, name, value, operation)
	}
	return nil
}

// ValidateNonNegative checks weights and amounts where zero is a no-op.
func ValidateNonNegative(name string, value float64, operation string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return fmt.Errorf("%w: %s must be a finite non-negative number, got %v for operation: %s",
			ErrInvalidParameter, name, value, operation)
	}
	return nil
}

func ValidateGrid(g *Grid, operation string) error {
	if g == nil || g.Rows() == 0 || g.Cols() == 0 {
		return fmt.Errorf("%w: grid is empty for operation: %s", ErrInvalidParameter, operation)
	}
	return nil
}
