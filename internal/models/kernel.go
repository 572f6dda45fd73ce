package models

import (
	"fmt"
	"image"
)

// Kernel is a correlation mask. Kernels built as an outer product keep
// their column and row factors so filters can run two 1D passes.
type Kernel struct {
	grid *Grid
	col  []float64
	row  []float64
}

func NewKernel(g *Grid) (*Kernel, error) {
	if g == nil || g.Rows() == 0 || g.Cols() == 0 {
		return nil, fmt.Errorf("%w: kernel has a zero dimension", ErrInvalidKernelSize)
	}
	return &Kernel{grid: g}, nil
}

func KernelFromRows(rows [][]float64) (*Kernel, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: kernel has a zero dimension", ErrInvalidKernelSize)
	}
	g, err := GridFromRows(rows)
	if err != nil {
		return nil, err
	}
	return &Kernel{grid: g}, nil
}

// NewSeparableKernel builds the outer product col * rowᵀ.
func NewSeparableKernel(col, row []float64) (*Kernel, error) {
	if len(col) == 0 || len(row) == 0 {
		return nil, fmt.Errorf("%w: separable factors %dx%d", ErrInvalidKernelSize, len(col), len(row))
	}
	values := make([]float64, len(col)*len(row))
	for i, c := range col {
		for j, r := range row {
			values[i*len(row)+j] = c * r
		}
	}
	g, err := WrapValues(len(col), len(row), values)
	if err != nil {
		return nil, err
	}
	return &Kernel{
		grid: g,
		col:  append([]float64(nil), col...),
		row:  append([]float64(nil), row...),
	}, nil
}

func (k *Kernel) Grid() *Grid {
	if k == nil {
		return nil
	}
	return k.grid
}

func (k *Kernel) Rows() int {
	if k == nil {
		return 0
	}
	return k.grid.Rows()
}

func (k *Kernel) Cols() int {
	if k == nil {
		return 0
	}
	return k.grid.Cols()
}

func (k *Kernel) At(row, col int) float64 {
	return k.grid.At(row, col)
}

func (k *Kernel) Values() []float64 {
	return k.grid.Values()
}

func (k *Kernel) Sum() float64 {
	return k.grid.Sum()
}

// Factors returns copies of the column and row vectors when the kernel was
// declared separable.
func (k *Kernel) Factors() (col, row []float64, ok bool) {
	if k == nil || k.col == nil || k.row == nil {
		return nil, nil, false
	}
	return append([]float64(nil), k.col...), append([]float64(nil), k.row...), true
}

// Center is the default anchor. For an even dimension d it is d/2.
func (k *Kernel) Center() image.Point {
	return image.Point{X: k.Cols() / 2, Y: k.Rows() / 2}
}

// Rotate180 flips the kernel in both axes, turning correlation into
// convolution.
func (k *Kernel) Rotate180() *Kernel {
	rows, cols := k.Rows(), k.Cols()
	src := k.grid.Values()
	values := make([]float64, len(src))
	for i := range src {
		values[len(src)-1-i] = src[i]
	}
	g, _ := WrapValues(rows, cols, values)

	rotated := &Kernel{grid: g}
	if k.col != nil && k.row != nil {
		rotated.col = reversed(k.col)
		rotated.row = reversed(k.row)
	}
	return rotated
}

func (k *Kernel) String() string {
	return k.grid.String()
}

func reversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[len(v)-1-i] = x
	}
	return out
}
