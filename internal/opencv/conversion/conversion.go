// Package conversion moves samples between Grids and single-channel Mats.
package conversion

import (
	"fmt"

	"intensity-lab/internal/models"
	"intensity-lab/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// GridToMat copies g into a new Mat of matType. CV_8UC1 targets round and
// clamp every sample to [0, 255].
func GridToMat(g *models.Grid, matType gocv.MatType) (*safe.Mat, error) {
	if err := models.ValidateGrid(g, "grid to Mat conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatType(matType, "grid to Mat conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateDimensions(g.Cols(), g.Rows(), "grid to Mat conversion"); err != nil {
		return nil, err
	}

	switch matType {
	case gocv.MatTypeCV8UC1:
		return gridToUChar(g)
	case gocv.MatTypeCV32FC1:
		wide, err := gridToDouble(g)
		if err != nil {
			return nil, err
		}
		defer wide.Close()
		return wide.ConvertTo(gocv.MatTypeCV32FC1)
	default:
		return gridToDouble(g)
	}
}

// KernelToMat copies the kernel weights into a CV_64FC1 Mat.
func KernelToMat(k *models.Kernel) (*safe.Mat, error) {
	if k.Rows() == 0 || k.Cols() == 0 {
		return nil, fmt.Errorf("%w: kernel %dx%d", models.ErrInvalidKernelSize, k.Rows(), k.Cols())
	}
	return gridToDouble(k.Grid())
}

// MatToGrid reads a single-channel Mat into a Grid.
func MatToGrid(src *safe.Mat) (*models.Grid, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to grid conversion"); err != nil {
		return nil, err
	}

	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		return readMat(src, func(row, col int) (float64, error) {
			v, err := src.GetUCharAt(row, col)
			return float64(v), err
		})
	case gocv.MatTypeCV64FC1:
		return readMat(src, src.GetDoubleAt)
	default:
		wide, err := src.ConvertTo(gocv.MatTypeCV64FC1)
		if err != nil {
			return nil, fmt.Errorf("Mat type conversion failed: %w", err)
		}
		defer wide.Close()
		return readMat(wide, wide.GetDoubleAt)
	}
}

func gridToDouble(g *models.Grid) (*safe.Mat, error) {
	mat, err := safe.NewMat(g.Rows(), g.Cols(), gocv.MatTypeCV64FC1)
	if err != nil {
		return nil, err
	}

	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			if err := mat.SetDoubleAt(y, x, g.At(y, x)); err != nil {
				mat.Close()
				return nil, fmt.Errorf("sample setting failed at (%d,%d): %w", x, y, err)
			}
		}
	}

	return mat, nil
}

func gridToUChar(g *models.Grid) (*safe.Mat, error) {
	mat, err := safe.NewMat(g.Rows(), g.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, err
	}

	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			if err := mat.SetUCharAt(y, x, uint8(models.Clamp8(g.At(y, x)))); err != nil {
				mat.Close()
				return nil, fmt.Errorf("pixel setting failed at (%d,%d): %w", x, y, err)
			}
		}
	}

	return mat, nil
}

func readMat(src *safe.Mat, at func(row, col int) (float64, error)) (*models.Grid, error) {
	rows, cols := src.Rows(), src.Cols()
	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v, err := at(y, x)
			if err != nil {
				return nil, fmt.Errorf("sample reading failed at (%d,%d): %w", x, y, err)
			}
			values = append(values, v)
		}
	}
	return models.WrapValues(rows, cols, values)
}
