package models

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Grid is an immutable two-dimensional array of samples. Integer images are
// stored as float64 so filters can accumulate without overflow.
type Grid struct {
	data *mat.Dense
}

// NewGrid copies values, which are given in row-major order.
func NewGrid(rows, cols int, values []float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidParameter, rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d grid", ErrInvalidParameter, len(values), rows, cols)
	}
	owned := make([]float64, len(values))
	copy(owned, values)
	return &Grid{data: mat.NewDense(rows, cols, owned)}, nil
}

// WrapValues builds a grid on top of values without copying. The caller
// hands over ownership and must not touch values afterwards.
func WrapValues(rows, cols int, values []float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidParameter, rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d grid", ErrInvalidParameter, len(values), rows, cols)
	}
	return &Grid{data: mat.NewDense(rows, cols, values)}, nil
}

func GridFromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: grid has no samples", ErrInvalidParameter)
	}
	cols := len(rows[0])
	values := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrInvalidParameter, i, len(row), cols)
		}
		values = append(values, row...)
	}
	return WrapValues(len(rows), cols, values)
}

// FilledGrid returns a rows x cols grid with every sample set to value.
func FilledGrid(rows, cols int, value float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidParameter, rows, cols)
	}
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = value
	}
	return WrapValues(rows, cols, values)
}

// GridFromDense copies a gonum matrix into a grid.
func GridFromDense(m mat.Matrix) (*Grid, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidParameter, r, c)
	}
	return &Grid{data: mat.DenseCopyOf(m)}, nil
}

// GridFromImage converts img to 8-bit luma samples in the range 0-255.
func GridFromImage(img image.Image) (*Grid, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image is nil", ErrInvalidParameter)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidParameter, width, height)
	}

	values := make([]float64, width*height)
	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			offset := gray.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < width; x++ {
				values[y*width+x] = float64(gray.Pix[offset+x])
			}
		}
		return WrapValues(height, width, values)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			values[y*width+x] = float64(g.Y)
		}
	}
	return WrapValues(height, width, values)
}

// Rows returns 0 for a nil or zero-value grid.
func (g *Grid) Rows() int {
	if g == nil || g.data == nil {
		return 0
	}
	r, _ := g.data.Dims()
	return r
}

func (g *Grid) Cols() int {
	if g == nil || g.data == nil {
		return 0
	}
	_, c := g.data.Dims()
	return c
}

func (g *Grid) Dims() (rows, cols int) {
	return g.Rows(), g.Cols()
}

func (g *Grid) At(row, col int) float64 {
	return g.data.At(row, col)
}

// Values returns a row-major copy of the samples.
func (g *Grid) Values() []float64 {
	raw := g.data.RawMatrix()
	rows, cols := g.Dims()
	out := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		copy(out[r*cols:(r+1)*cols], raw.Data[r*raw.Stride:r*raw.Stride+cols])
	}
	return out
}

// RowsCopy returns the samples as a slice of rows.
func (g *Grid) RowsCopy() [][]float64 {
	rows, cols := g.Dims()
	values := g.Values()
	out := make([][]float64, rows)
	for r := range out {
		out[r] = values[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return out
}

// Dense returns a copy of the samples as a gonum matrix.
func (g *Grid) Dense() *mat.Dense {
	return mat.DenseCopyOf(g.data)
}

func (g *Grid) Min() float64 {
	return floats.Min(g.Values())
}

func (g *Grid) Max() float64 {
	return floats.Max(g.Values())
}

func (g *Grid) Sum() float64 {
	return mat.Sum(g.data)
}

// Equal reports whether both grids have the same shape and samples.
func (g *Grid) Equal(other *Grid) bool {
	if g.Rows() != other.Rows() || g.Cols() != other.Cols() {
		return false
	}
	return mat.Equal(g.data, other.data)
}

// EqualApprox compares samples with an absolute or relative tolerance.
func (g *Grid) EqualApprox(other *Grid, tol float64) bool {
	if g.Rows() != other.Rows() || g.Cols() != other.Cols() {
		return false
	}
	return mat.EqualApprox(g.data, other.data, tol)
}

// Map returns a new grid with fn applied to every sample.
func (g *Grid) Map(fn func(float64) float64) *Grid {
	values := g.Values()
	for i, v := range values {
		values[i] = fn(v)
	}
	rows, cols := g.Dims()
	return &Grid{data: mat.NewDense(rows, cols, values)}
}

// Combine applies fn sample-wise to g and other, which must share a shape.
func (g *Grid) Combine(other *Grid, fn func(a, b float64) float64) (*Grid, error) {
	if g.Rows() != other.Rows() || g.Cols() != other.Cols() {
		return nil, fmt.Errorf("%w: %dx%d and %dx%d", ErrIncompatibleSizes,
			g.Rows(), g.Cols(), other.Rows(), other.Cols())
	}
	a, b := g.Values(), other.Values()
	for i := range a {
		a[i] = fn(a[i], b[i])
	}
	rows, cols := g.Dims()
	return &Grid{data: mat.NewDense(rows, cols, a)}, nil
}

// Clamp8 rounds half to even and saturates to the 8-bit range.
func Clamp8(v float64) float64 {
	return math.Min(255, math.Max(0, math.RoundToEven(v)))
}

// ToUint8 returns the grid with every sample passed through Clamp8.
func (g *Grid) ToUint8() *Grid {
	return g.Map(Clamp8)
}

// ToGray renders the grid as an 8-bit grayscale image.
func (g *Grid) ToGray() *image.Gray {
	rows, cols := g.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	values := g.Values()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(Clamp8(values[y*cols+x]))})
		}
	}
	return img
}

func (g *Grid) String() string {
	if g.Rows() == 0 {
		return "Grid{}"
	}
	return fmt.Sprintf("%v", mat.Formatted(g.data, mat.Squeeze()))
}
