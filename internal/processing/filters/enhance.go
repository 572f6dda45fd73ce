package filters

import (
	"context"
	"fmt"

	"intensity-lab/internal/models"
	"intensity-lab/internal/opencv/cvfilter"
	"intensity-lab/internal/processing/enhance"
	"intensity-lab/internal/processing/spatial"
)

func enhanceBackend(backend models.Backend, opts enhance.Options) error {
	so := spatial.DefaultOptions()
	so.Boundary = opts.Boundary
	return checkBackend(backend, so)
}

type LaplacianFilter struct {
	variant enhance.Variant
	opts    enhance.Options
	backend models.Backend
}

func NewLaplacianFilter(variant enhance.Variant, opts enhance.Options, backend models.Backend) (*LaplacianFilter, error) {
	if _, err := variant.Kernel(); err != nil {
		return nil, err
	}
	if err := enhanceBackend(backend, opts); err != nil {
		return nil, err
	}
	return &LaplacianFilter{variant: variant, opts: opts, backend: backend}, nil
}

func (l *LaplacianFilter) Name() string {
	return "laplacian"
}

func (l *LaplacianFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return laplacian(ctx, input, l.variant, l.opts, l.backend)
}

func laplacian(ctx context.Context, input *models.Grid, v enhance.Variant, opts enhance.Options, backend models.Backend) (*models.Grid, error) {
	if backend == models.BackendOpenCV {
		return cvfilter.Laplacian(ctx, input, v, opts.Boundary)
	}
	return enhance.Laplacian(ctx, input, v, opts)
}

// SharpenFilter subtracts a weighted Laplacian from the image.
type SharpenFilter struct {
	weight  float64
	variant enhance.Variant
	opts    enhance.Options
	backend models.Backend
}

func NewSharpenFilter(weight float64, variant enhance.Variant, opts enhance.Options, backend models.Backend) (*SharpenFilter, error) {
	if err := models.ValidateNonNegative("weight", weight, "sharpen"); err != nil {
		return nil, err
	}
	if _, err := variant.Kernel(); err != nil {
		return nil, err
	}
	if err := enhanceBackend(backend, opts); err != nil {
		return nil, err
	}
	return &SharpenFilter{weight: weight, variant: variant, opts: opts, backend: backend}, nil
}

func (s *SharpenFilter) Name() string {
	return "sharpen"
}

func (s *SharpenFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if s.backend == models.BackendNative {
		return enhance.Sharpen(ctx, input, s.weight, s.variant, s.opts)
	}
	lap, err := laplacian(ctx, input, s.variant, s.opts, s.backend)
	if err != nil {
		return nil, err
	}
	return input.Combine(lap, func(f, l float64) float64 {
		return f - s.weight*l
	})
}

type UnsharpFilter struct {
	sigma   float64
	amount  float64
	opts    enhance.Options
	backend models.Backend
}

func NewUnsharpFilter(sigma, amount float64, opts enhance.Options, backend models.Backend) (*UnsharpFilter, error) {
	if err := models.ValidatePositive("sigma", sigma, "unsharp mask"); err != nil {
		return nil, err
	}
	if err := models.ValidateNonNegative("amount", amount, "unsharp mask"); err != nil {
		return nil, err
	}
	if err := enhanceBackend(backend, opts); err != nil {
		return nil, err
	}
	return &UnsharpFilter{sigma: sigma, amount: amount, opts: opts, backend: backend}, nil
}

func (u *UnsharpFilter) Name() string {
	return "unsharp"
}

func (u *UnsharpFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if u.backend == models.BackendNative {
		return enhance.UnsharpMask(ctx, input, u.sigma, u.amount, u.opts)
	}
	blurred, err := cvfilter.GaussianBlur(ctx, input, enhance.UnsharpSize(u.sigma), u.sigma, u.opts.Boundary)
	if err != nil {
		return nil, err
	}
	return input.Combine(blurred, func(f, g float64) float64 {
		return f + u.amount*(f-g)
	})
}

type BilateralFilter struct {
	params  enhance.BilateralParams
	opts    enhance.Options
	backend models.Backend
}

func NewBilateralFilter(params enhance.BilateralParams, opts enhance.Options, backend models.Backend) (*BilateralFilter, error) {
	if err := models.ValidatePositive("sigma color", params.SigmaColor, "bilateral filter"); err != nil {
		return nil, err
	}
	if err := models.ValidatePositive("sigma space", params.SigmaSpace, "bilateral filter"); err != nil {
		return nil, err
	}
	switch backend {
	case models.BackendNative:
	case models.BackendOpenCV:
		if _, err := cvfilter.BilateralBorder(opts.Boundary); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: backend %d", models.ErrInvalidParameter, int(backend))
	}
	return &BilateralFilter{params: params, opts: opts, backend: backend}, nil
}

func (b *BilateralFilter) Name() string {
	return "bilateral"
}

func (b *BilateralFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if b.backend == models.BackendOpenCV {
		return cvfilter.Bilateral(ctx, input, b.params, b.opts.Boundary)
	}
	return enhance.Bilateral(ctx, input, b.params, b.opts)
}
