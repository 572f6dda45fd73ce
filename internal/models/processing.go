package models

import (
	"fmt"
	"math"
	"strings"
)

// ParameterRange bounds a numeric filter parameter the way a slider would.
type ParameterRange struct {
	Min  float64
	Max  float64
	Step float64
	// Odd requires an odd integer, as for window sizes.
	Odd bool
}

// Validate checks value against the range. Step is advisory and not enforced.
func (r ParameterRange) Validate(name string, value float64) error {
	if math.IsNaN(value) || value < r.Min || value > r.Max {
		return fmt.Errorf("%w: %s=%g outside [%g, %g]", ErrInvalidParameter, name, value, r.Min, r.Max)
	}
	if r.Odd {
		if value != math.Trunc(value) || int(value)%2 == 0 {
			return fmt.Errorf("%w: %s=%g must be an odd integer", ErrInvalidParameter, name, value)
		}
	}
	return nil
}

// PerformanceSettings bounds how much CPU a processing run may use.
type PerformanceSettings struct {
	// MaxWorkers is the goroutine count per filter; 0 uses GOMAXPROCS.
	MaxWorkers int
	// MaxConcurrentRuns limits simultaneous recipe runs; 0 uses NumCPU.
	MaxConcurrentRuns int
}

// Backend selects the implementation that runs a filter step.
type Backend int

const (
	BackendNative Backend = iota
	BackendOpenCV
)

func (b Backend) String() string {
	switch b {
	case BackendNative:
		return "native"
	case BackendOpenCV:
		return "opencv"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native", "go":
		return BackendNative, nil
	case "opencv", "cv", "gocv":
		return BackendOpenCV, nil
	}
	return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidParameter, s)
}

func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
