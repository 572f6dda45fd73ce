// Package kernels builds the correlation masks used by the intensity
// filters: Gaussian, moving average, Laplacian, Sobel and shift kernels.
package kernels

import (
	"fmt"
	"math"

	"intensity-lab/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// separableTolerance is the largest ratio of the second to the first
// singular value for which a kernel still counts as rank one.
const separableTolerance = 1e-10

// GaussianWeights samples exp(-(i-c)²/(2σ²)) for i in [0, size) and
// normalises the result to sum to 1.
func GaussianWeights(size int, sigma float64) ([]float64, error) {
	if err := models.ValidateOddPositive("size", size, "gaussian kernel"); err != nil {
		return nil, err
	}
	if err := models.ValidatePositive("sigma", sigma, "gaussian kernel"); err != nil {
		return nil, err
	}

	weights := make([]float64, size)
	center := float64(size-1) / 2
	twoSigmaSq := 2 * sigma * sigma
	for i := range weights {
		d := float64(i) - center
		weights[i] = math.Exp(-(d * d) / twoSigmaSq)
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights, nil
}

// DefaultSigma derives sigma from the kernel size, keeping the support
// proportional to the extent.
func DefaultSigma(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// Gaussian1D returns a size x 1 column kernel.
func Gaussian1D(size int, sigma float64) (*models.Kernel, error) {
	weights, err := GaussianWeights(size, sigma)
	if err != nil {
		return nil, err
	}
	return models.NewSeparableKernel(weights, []float64{1})
}

// Gaussian1DDefault is Gaussian1D with DefaultSigma(size).
func Gaussian1DDefault(size int) (*models.Kernel, error) {
	return Gaussian1D(size, DefaultSigma(size))
}

// Gaussian2D returns the outer product g*gᵀ, which keeps its factors.
func Gaussian2D(size int, sigma float64) (*models.Kernel, error) {
	weights, err := GaussianWeights(size, sigma)
	if err != nil {
		return nil, err
	}
	return models.NewSeparableKernel(weights, weights)
}

// Box is the rows x cols moving-average kernel.
func Box(rows, cols int) (*models.Kernel, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: box kernel %dx%d", models.ErrInvalidKernelSize, rows, cols)
	}
	col := make([]float64, rows)
	for i := range col {
		col[i] = 1 / float64(rows)
	}
	row := make([]float64, cols)
	for i := range row {
		row[i] = 1 / float64(cols)
	}
	return models.NewSeparableKernel(col, row)
}

// Identity is the 1x1 kernel holding 1.
func Identity() *models.Kernel {
	return mustKernel([][]float64{{1}})
}

// Laplacian4 is the 4-neighbour Laplacian with a negative centre.
func Laplacian4() *models.Kernel {
	return mustKernel([][]float64{
		{0, 1, 0},
		{1, -4, 1},
		{0, 1, 0},
	})
}

// Laplacian8 also weights the diagonal neighbours.
func Laplacian8() *models.Kernel {
	return mustKernel([][]float64{
		{1, 1, 1},
		{1, -8, 1},
		{1, 1, 1},
	})
}

// SobelX responds to horizontal intensity changes.
func SobelX() *models.Kernel {
	k, _ := models.NewSeparableKernel([]float64{1, 2, 1}, []float64{-1, 0, 1})
	return k
}

// SobelY responds to vertical intensity changes.
func SobelY() *models.Kernel {
	k, _ := models.NewSeparableKernel([]float64{-1, 0, 1}, []float64{1, 2, 1})
	return k
}

// Shift returns a kernel whose single 1 sits dy rows and dx columns away
// from the centre. Under correlation, output (y, x) reads input
// (y+dy, x+dx), which makes boundary handling directly observable.
func Shift(dy, dx int) (*models.Kernel, error) {
	ry, rx := abs(dy), abs(dx)
	rows, cols := 2*ry+1, 2*rx+1
	values := make([]float64, rows*cols)
	values[(ry+dy)*cols+(rx+dx)] = 1
	g, err := models.WrapValues(rows, cols, values)
	if err != nil {
		return nil, err
	}
	return models.NewKernel(g)
}

// Separate returns column and row factors whose outer product is k. Declared
// factors are returned as-is; otherwise k must be rank one within
// tolerance. The factors are signed so the largest-magnitude entry of col is
// positive.
func Separate(k *models.Kernel) (col, row []float64, ok bool) {
	if k.Rows() == 0 || k.Cols() == 0 {
		return nil, nil, false
	}
	if col, row, ok := k.Factors(); ok {
		return col, row, true
	}

	var svd mat.SVD
	if !svd.Factorize(k.Grid().Dense(), mat.SVDThin) {
		return nil, nil, false
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return nil, nil, false
	}
	for _, s := range values[1:] {
		if s > separableTolerance*values[0] {
			return nil, nil, false
		}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	scale := math.Sqrt(values[0])
	col = make([]float64, k.Rows())
	for i := range col {
		col[i] = u.At(i, 0) * scale
	}
	row = make([]float64, k.Cols())
	for j := range row {
		row[j] = v.At(j, 0) * scale
	}

	if col[floats.MaxIdx(absAll(col))] < 0 {
		floats.Scale(-1, col)
		floats.Scale(-1, row)
	}
	return col, row, true
}

func mustKernel(rows [][]float64) *models.Kernel {
	k, err := models.KernelFromRows(rows)
	if err != nil {
		panic(err)
	}
	return k
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
