// Package filters wraps every intensity filter as a configured chain step.
package filters

import (
	"context"
	"fmt"

	"intensity-lab/internal/models"
	"intensity-lab/internal/opencv/cvfilter"
	"intensity-lab/internal/processing/kernels"
	"intensity-lab/internal/processing/spatial"
)

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// ConvolveFilter applies a fixed kernel. Mean and Sobel steps are
// ConvolveFilters with their own names.
type ConvolveFilter struct {
	name    string
	kernel  *models.Kernel
	opts    spatial.Options
	backend models.Backend
}

func NewConvolveFilter(kernel *models.Kernel, opts spatial.Options, backend models.Backend) (*ConvolveFilter, error) {
	return newConvolve("convolve", kernel, opts, backend)
}

// NewMeanFilter averages a size x size neighbourhood.
func NewMeanFilter(size int, opts spatial.Options, backend models.Backend) (*ConvolveFilter, error) {
	if err := models.ValidateOddPositive("size", size, "mean filter"); err != nil {
		return nil, err
	}
	k, err := kernels.Box(size, size)
	if err != nil {
		return nil, err
	}
	return newConvolve("mean", k, opts, backend)
}

// NewSobelFilter returns the horizontal (x) or vertical (y) Sobel step.
func NewSobelFilter(axis string, opts spatial.Options, backend models.Backend) (*ConvolveFilter, error) {
	switch axis {
	case "x":
		return newConvolve("sobel_x", kernels.SobelX(), opts, backend)
	case "y":
		return newConvolve("sobel_y", kernels.SobelY(), opts, backend)
	default:
		return nil, fmt.Errorf("%w: sobel axis %q", models.ErrInvalidParameter, axis)
	}
}

func newConvolve(name string, kernel *models.Kernel, opts spatial.Options, backend models.Backend) (*ConvolveFilter, error) {
	if kernel.Rows() == 0 || kernel.Cols() == 0 {
		return nil, fmt.Errorf("%w: %s kernel is empty", models.ErrInvalidKernelSize, name)
	}
	if err := checkBackend(backend, opts); err != nil {
		return nil, err
	}
	return &ConvolveFilter{name: name, kernel: kernel, opts: opts, backend: backend}, nil
}

func (c *ConvolveFilter) Name() string {
	return c.name
}

func (c *ConvolveFilter) Kernel() *models.Kernel {
	return c.kernel
}

func (c *ConvolveFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if c.backend == models.BackendOpenCV {
		return cvfilter.Filter2D(ctx, input, c.kernel, c.opts)
	}
	return spatial.FilterContext(ctx, input, c.kernel, c.opts)
}

// GaussianFilter blurs with a size x size Gaussian.
type GaussianFilter struct {
	size    int
	sigma   float64
	kernel  *models.Kernel
	opts    spatial.Options
	backend models.Backend
}

// NewGaussianFilter builds the step. A non-positive sigma selects
// kernels.DefaultSigma(size).
func NewGaussianFilter(size int, sigma float64, opts spatial.Options, backend models.Backend) (*GaussianFilter, error) {
	if sigma <= 0 {
		sigma = kernels.DefaultSigma(size)
	}
	k, err := kernels.Gaussian2D(size, sigma)
	if err != nil {
		return nil, err
	}
	if err := checkBackend(backend, opts); err != nil {
		return nil, err
	}
	return &GaussianFilter{size: size, sigma: sigma, kernel: k, opts: opts, backend: backend}, nil
}

func (g *GaussianFilter) Name() string {
	return "gaussian"
}

func (g *GaussianFilter) Sigma() float64 {
	return g.sigma
}

func (g *GaussianFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if g.backend == models.BackendOpenCV {
		out, err := cvfilter.GaussianBlur(ctx, input, g.size, g.sigma, g.opts.Boundary)
		if err != nil {
			return nil, err
		}
		if g.opts.Depth == models.DepthUint8 {
			out = out.ToUint8()
		}
		return out, nil
	}
	return spatial.FilterContext(ctx, input, g.kernel, g.opts)
}

// checkBackend rejects options the OpenCV primitives cannot honour, so a
// recipe fails when it is built instead of halfway through a run.
func checkBackend(backend models.Backend, opts spatial.Options) error {
	switch backend {
	case models.BackendNative:
		return nil
	case models.BackendOpenCV:
		if opts.Size != models.SizeSame {
			return fmt.Errorf("%w: opencv backend supports same-size output only, got %s",
				models.ErrInvalidParameter, opts.Size)
		}
		_, err := cvfilter.BorderType(opts.Boundary, opts.FillValue)
		return err
	default:
		return fmt.Errorf("%w: backend %d", models.ErrInvalidParameter, int(backend))
	}
}
