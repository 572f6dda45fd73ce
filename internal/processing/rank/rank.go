// Package rank implements the min, median and max neighbourhood filters.
package rank

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/workers"
)

const operation = "rank filter"

// Order selects which order statistic of the window is emitted.
type Order int

const (
	Min Order = iota
	Median
	Max
)

func (o Order) String() string {
	switch o {
	case Min:
		return "min"
	case Median:
		return "median"
	case Max:
		return "max"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder accepts min, median and max in any case.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "minimum":
		return Min, nil
	case "median":
		return Median, nil
	case "max", "maximum":
		return Max, nil
	}
	return 0, fmt.Errorf("%w: unknown rank order %q", models.ErrInvalidParameter, s)
}

type Options struct {
	Boundary  models.BoundaryPolicy
	FillValue float64
	Workers   int
}

// DefaultOptions replicates the edge samples, as median blurs usually do.
func DefaultOptions() Options {
	return Options{Boundary: models.BoundaryReplicate}
}

func Filter(img *models.Grid, windowSize int, order Order, opts Options) (*models.Grid, error) {
	return FilterContext(context.Background(), img, windowSize, order, opts)
}

// FilterContext replaces every sample with the chosen order statistic of
// its windowSize x windowSize neighbourhood. The output has the input's
// dimensions.
func FilterContext(ctx context.Context, img *models.Grid, windowSize int, order Order, opts Options) (*models.Grid, error) {
	if err := models.ValidateGrid(img, operation); err != nil {
		return nil, err
	}
	if err := models.ValidateOddPositive("window size", windowSize, operation); err != nil {
		return nil, err
	}
	if order < Min || order > Max {
		return nil, fmt.Errorf("%w: rank order %d", models.ErrInvalidParameter, int(order))
	}
	if !opts.Boundary.Valid() {
		return nil, fmt.Errorf("%w: boundary policy %d", models.ErrInvalidParameter, int(opts.Boundary))
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be >= 0, got %d", models.ErrInvalidParameter, opts.Workers)
	}

	rows, cols := img.Dims()
	src := img.Values()
	if windowSize == 1 {
		return models.WrapValues(rows, cols, src)
	}

	r := windowSize / 2
	ys := opts.Boundary.Indices(-r, rows+windowSize-1, rows)
	xs := opts.Boundary.Indices(-r, cols+windowSize-1, cols)

	out := make([]float64, rows*cols)
	err := workers.Rows(ctx, rows, opts.Workers, func(ctx context.Context, y0, y1 int) error {
		window := make([]float64, windowSize*windowSize)
		for y := y0; y < y1; y++ {
			if err := workers.Check(ctx); err != nil {
				return err
			}
			for x := 0; x < cols; x++ {
				n := 0
				for i := 0; i < windowSize; i++ {
					sy := ys[y+i]
					for j := 0; j < windowSize; j++ {
						sx := xs[x+j]
						if sy < 0 || sx < 0 {
							window[n] = opts.FillValue
						} else {
							window[n] = src[sy*cols+sx]
						}
						n++
					}
				}
				out[y*cols+x] = pick(window, order)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.WrapValues(rows, cols, out)
}

// pick may reorder window.
func pick(window []float64, order Order) float64 {
	switch order {
	case Min:
		return slices.Min(window)
	case Max:
		return slices.Max(window)
	default:
		slices.Sort(window)
		return window[len(window)/2]
	}
}
