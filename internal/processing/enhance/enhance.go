// Package enhance builds sharpening, edge-preserving smoothing and noise
// injection on top of the spatial filter.
package enhance

import (
	"context"
	"fmt"
	"math"
	"strings"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/kernels"
	"intensity-lab/internal/processing/spatial"
)

// Variant picks the Laplacian neighbourhood.
type Variant int

const (
	Laplace4 Variant = iota
	Laplace8
)

func (v Variant) String() string {
	switch v {
	case Laplace4:
		return "4"
	case Laplace8:
		return "8"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// Kernel returns the Laplacian mask for the variant.
func (v Variant) Kernel() (*models.Kernel, error) {
	switch v {
	case Laplace4:
		return kernels.Laplacian4(), nil
	case Laplace8:
		return kernels.Laplacian8(), nil
	default:
		return nil, fmt.Errorf("%w: laplacian variant %d", models.ErrInvalidParameter, int(v))
	}
}

// ParseVariant accepts "4" or "8", optionally prefixed with "laplace".
func ParseVariant(s string) (Variant, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "laplace") {
	case "4", "":
		return Laplace4, nil
	case "8":
		return Laplace8, nil
	}
	return 0, fmt.Errorf("%w: unknown laplacian variant %q", models.ErrInvalidParameter, s)
}

// Options are shared by the enhancement filters.
type Options struct {
	Boundary models.BoundaryPolicy
	Workers  int
}

// DefaultOptions mirrors the edges, so constant regions stay constant.
func DefaultOptions() Options {
	return Options{Boundary: models.BoundarySymmetric}
}

func (o Options) spatial() spatial.Options {
	opts := spatial.DefaultOptions()
	opts.Boundary = o.Boundary
	opts.Workers = o.Workers
	return opts
}

// Laplacian returns the float Laplacian response of img.
func Laplacian(ctx context.Context, img *models.Grid, v Variant, opts Options) (*models.Grid, error) {
	k, err := v.Kernel()
	if err != nil {
		return nil, err
	}
	return spatial.FilterContext(ctx, img, k, opts.spatial())
}

// Sharpen returns f - weight*Laplacian(f). The Laplacian masks have a
// negative centre, so subtracting the response boosts edges.
func Sharpen(ctx context.Context, img *models.Grid, weight float64, v Variant, opts Options) (*models.Grid, error) {
	if err := models.ValidateNonNegative("weight", weight, "sharpen"); err != nil {
		return nil, err
	}
	lap, err := Laplacian(ctx, img, v, opts)
	if err != nil {
		return nil, err
	}
	return img.Combine(lap, func(f, l float64) float64 {
		return f - weight*l
	})
}

// UnsharpSize is the Gaussian support used by UnsharpMask.
func UnsharpSize(sigma float64) int {
	return 2*int(math.Ceil(3*sigma)) + 1
}

// UnsharpMask returns f + amount*(f - G(f)) with G a Gaussian of the given
// sigma.
func UnsharpMask(ctx context.Context, img *models.Grid, sigma, amount float64, opts Options) (*models.Grid, error) {
	if err := models.ValidatePositive("sigma", sigma, "unsharp mask"); err != nil {
		return nil, err
	}
	if err := models.ValidateNonNegative("amount", amount, "unsharp mask"); err != nil {
		return nil, err
	}
	k, err := kernels.Gaussian2D(UnsharpSize(sigma), sigma)
	if err != nil {
		return nil, err
	}
	blurred, err := spatial.FilterContext(ctx, img, k, opts.spatial())
	if err != nil {
		return nil, err
	}
	return img.Combine(blurred, func(f, g float64) float64 {
		return f + amount*(f-g)
	})
}
