// Package spatial implements two-dimensional correlation and convolution of
// a Grid with a Kernel under configurable boundary and output-size policies.
package spatial

import (
	"context"
	"fmt"
	"image"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/kernels"
	"intensity-lab/internal/processing/workers"
)

const operation = "spatial filter"

// Options configures a single filter call. The zero value is a same-size
// correlation with zero fill and float output.
type Options struct {
	Size      models.OutputSizePolicy
	Boundary  models.BoundaryPolicy
	FillValue float64
	Mode      models.Mode
	// Anchor overrides the kernel centre (rows/2, cols/2) for same-size
	// output. X is the column, Y the row.
	Anchor *image.Point
	Depth  models.Depth
	// Workers bounds the goroutines used for the output rows; 0 selects
	// GOMAXPROCS.
	Workers int
	// Separable allows a row pass followed by a column pass when the
	// kernel is rank one.
	Separable bool
}

// DefaultOptions returns same-size correlation with zero fill, float
// output and the separable fast path enabled.
func DefaultOptions() Options {
	return Options{
		Size:      models.SizeSame,
		Boundary:  models.BoundaryFill,
		Mode:      models.ModeCorrelation,
		Depth:     models.DepthFloat,
		Separable: true,
	}
}

// Filter applies kernel to img. See FilterContext.
func Filter(img *models.Grid, kernel *models.Kernel, opts Options) (*models.Grid, error) {
	return FilterContext(context.Background(), img, kernel, opts)
}

// FilterContext computes, for every output position selected by opts.Size,
// the weighted sum of the input samples under the kernel footprint. Reads
// outside the image are resolved through opts.Boundary. Neither argument is
// modified.
func FilterContext(ctx context.Context, img *models.Grid, kernel *models.Kernel, opts Options) (*models.Grid, error) {
	p, err := newPlan(img, kernel, opts)
	if err != nil {
		return nil, err
	}

	out := make([]float64, p.outRows*p.outCols)
	if col, row, ok := p.separable(opts.Separable); ok {
		err = p.runSeparable(ctx, col, row, out, opts.Workers)
	} else {
		err = p.run2D(ctx, out, opts.Workers)
	}
	if err != nil {
		return nil, err
	}

	if opts.Depth == models.DepthUint8 {
		for i, v := range out {
			out[i] = models.Clamp8(v)
		}
	}
	return models.WrapValues(p.outRows, p.outCols, out)
}

// plan holds everything a pass needs. ys[u] and xs[v] map the extended
// input coordinates (oy+u, ox+v) to a source index, or -1 for the fill
// value.
type plan struct {
	src     []float64
	cols    int
	kernel  *models.Kernel
	weights []float64
	kr, kc  int
	outRows int
	outCols int
	ys, xs  []int
	fill    float64
}

func newPlan(img *models.Grid, kernel *models.Kernel, opts Options) (*plan, error) {
	if err := models.ValidateGrid(img, operation); err != nil {
		return nil, err
	}
	if kernel.Rows() == 0 || kernel.Cols() == 0 {
		return nil, fmt.Errorf("%w: kernel %dx%d for operation: %s",
			models.ErrInvalidKernelSize, kernel.Rows(), kernel.Cols(), operation)
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	rows, cols := img.Dims()
	kr, kc := kernel.Rows(), kernel.Cols()
	if opts.Size == models.SizeValid && (kr > rows || kc > cols) {
		return nil, fmt.Errorf("%w: kernel %dx%d exceeds image %dx%d under valid output",
			models.ErrIncompatibleSizes, kr, kc, rows, cols)
	}

	anchor := kernel.Center()
	if opts.Anchor != nil {
		anchor = *opts.Anchor
		if anchor.X < 0 || anchor.X >= kc || anchor.Y < 0 || anchor.Y >= kr {
			return nil, fmt.Errorf("%w: anchor %v outside %dx%d kernel",
				models.ErrInvalidParameter, anchor, kr, kc)
		}
	}
	if opts.Mode == models.ModeConvolution {
		kernel = kernel.Rotate180()
		anchor = image.Point{X: kc - 1 - anchor.X, Y: kr - 1 - anchor.Y}
	}

	var oy, ox int
	switch opts.Size {
	case models.SizeFull:
		oy, ox = -(kr - 1), -(kc - 1)
	case models.SizeSame:
		oy, ox = -anchor.Y, -anchor.X
	}
	outRows, outCols := opts.Size.OutputDims(rows, cols, kr, kc)

	return &plan{
		src:     img.Values(),
		cols:    cols,
		kernel:  kernel,
		weights: kernel.Values(),
		kr:      kr,
		kc:      kc,
		outRows: outRows,
		outCols: outCols,
		ys:      opts.Boundary.Indices(oy, outRows+kr-1, rows),
		xs:      opts.Boundary.Indices(ox, outCols+kc-1, cols),
		fill:    opts.FillValue,
	}, nil
}

func validateOptions(opts Options) error {
	if !opts.Size.Valid() {
		return fmt.Errorf("%w: output size policy %d", models.ErrInvalidParameter, int(opts.Size))
	}
	if !opts.Boundary.Valid() {
		return fmt.Errorf("%w: boundary policy %d", models.ErrInvalidParameter, int(opts.Boundary))
	}
	if !opts.Mode.Valid() {
		return fmt.Errorf("%w: mode %d", models.ErrInvalidParameter, int(opts.Mode))
	}
	if !opts.Depth.Valid() {
		return fmt.Errorf("%w: depth %d", models.ErrInvalidParameter, int(opts.Depth))
	}
	if opts.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", models.ErrInvalidParameter, opts.Workers)
	}
	return nil
}

func (p *plan) at(u, v int) float64 {
	y, x := p.ys[u], p.xs[v]
	if y < 0 || x < 0 {
		return p.fill
	}
	return p.src[y*p.cols+x]
}

func (p *plan) separable(allowed bool) (col, row []float64, ok bool) {
	if !allowed || p.kr == 1 || p.kc == 1 {
		return nil, nil, false
	}
	return kernels.Separate(p.kernel)
}

func (p *plan) run2D(ctx context.Context, out []float64, n int) error {
	return workers.Rows(ctx, p.outRows, n, func(ctx context.Context, y0, y1 int) error {
		for y := y0; y < y1; y++ {
			if err := workers.Check(ctx); err != nil {
				return err
			}
			line := out[y*p.outCols : (y+1)*p.outCols]
			for x := range line {
				var sum float64
				for i := 0; i < p.kr; i++ {
					krow := p.weights[i*p.kc : (i+1)*p.kc]
					for j, w := range krow {
						if w != 0 {
							sum += w * p.at(y+i, x+j)
						}
					}
				}
				line[x] = sum
			}
		}
		return nil
	})
}

// runSeparable correlates every extended row with the row factor, then
// each output column with the column factor.
func (p *plan) runSeparable(ctx context.Context, col, row []float64, out []float64, n int) error {
	tmpRows := p.outRows + p.kr - 1
	tmp := make([]float64, tmpRows*p.outCols)

	err := workers.Rows(ctx, tmpRows, n, func(ctx context.Context, u0, u1 int) error {
		for u := u0; u < u1; u++ {
			if err := workers.Check(ctx); err != nil {
				return err
			}
			line := tmp[u*p.outCols : (u+1)*p.outCols]
			for x := range line {
				var sum float64
				for j, w := range row {
					sum += w * p.at(u, x+j)
				}
				line[x] = sum
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return workers.Rows(ctx, p.outRows, n, func(ctx context.Context, y0, y1 int) error {
		for y := y0; y < y1; y++ {
			if err := workers.Check(ctx); err != nil {
				return err
			}
			line := out[y*p.outCols : (y+1)*p.outCols]
			for x := range line {
				var sum float64
				for i, w := range col {
					sum += w * tmp[(y+i)*p.outCols+x]
				}
				line[x] = sum
			}
		}
		return nil
	})
}
