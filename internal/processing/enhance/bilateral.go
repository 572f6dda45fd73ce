package enhance

import (
	"context"
	"fmt"
	"math"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/workers"
)

// BilateralParams follow the OpenCV bilateralFilter arguments.
type BilateralParams struct {
	// Diameter of the pixel neighbourhood. Non-positive values derive the
	// radius from SigmaSpace.
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// Radius is Diameter/2, or round(1.5*SigmaSpace) when Diameter <= 0, and
// never less than 1.
func (p BilateralParams) Radius() int {
	r := p.Diameter / 2
	if p.Diameter <= 0 {
		r = int(math.Round(p.SigmaSpace * 1.5))
	}
	return max(r, 1)
}

type tap struct {
	dy, dx int
	weight float64
}

// spatialTaps lists the offsets inside the circular window with their
// distance weights.
func (p BilateralParams) spatialTaps() []tap {
	r := p.Radius()
	coeff := -0.5 / (p.SigmaSpace * p.SigmaSpace)
	var taps []tap
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := float64(dy*dy + dx*dx)
			if math.Sqrt(d2) > float64(r) {
				continue
			}
			taps = append(taps, tap{dy: dy, dx: dx, weight: math.Exp(d2 * coeff)})
		}
	}
	return taps
}

// Bilateral smooths img while preserving edges: each neighbour is weighted
// by its distance and by its intensity difference from the centre sample.
// Under the fill boundary, taps outside the image are left out.
func Bilateral(ctx context.Context, img *models.Grid, p BilateralParams, opts Options) (*models.Grid, error) {
	const op = "bilateral filter"
	if err := models.ValidateGrid(img, op); err != nil {
		return nil, err
	}
	if err := models.ValidatePositive("sigma color", p.SigmaColor, op); err != nil {
		return nil, err
	}
	if err := models.ValidatePositive("sigma space", p.SigmaSpace, op); err != nil {
		return nil, err
	}
	if !opts.Boundary.Valid() {
		return nil, fmt.Errorf("%w: boundary policy %d", models.ErrInvalidParameter, int(opts.Boundary))
	}

	rows, cols := img.Dims()
	src := img.Values()
	r := p.Radius()
	ys := opts.Boundary.Indices(-r, rows+2*r, rows)
	xs := opts.Boundary.Indices(-r, cols+2*r, cols)
	taps := p.spatialTaps()
	colorCoeff := -0.5 / (p.SigmaColor * p.SigmaColor)

	out := make([]float64, rows*cols)
	err := workers.Rows(ctx, rows, opts.Workers, func(ctx context.Context, y0, y1 int) error {
		for y := y0; y < y1; y++ {
			if err := workers.Check(ctx); err != nil {
				return err
			}
			for x := 0; x < cols; x++ {
				center := src[y*cols+x]
				var sum, norm float64
				for _, t := range taps {
					sy, sx := ys[y+r+t.dy], xs[x+r+t.dx]
					if sy < 0 || sx < 0 {
						continue
					}
					v := src[sy*cols+sx]
					d := v - center
					w := t.weight * math.Exp(d*d*colorCoeff)
					sum += w * v
					norm += w
				}
				out[y*cols+x] = sum / norm
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.WrapValues(rows, cols, out)
}
