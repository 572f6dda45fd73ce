// Package cvfilter runs the intensity filters through OpenCV. The results
// serve as a second backend and as a reference for the native engine.
package cvfilter

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"intensity-lab/internal/models"
	"intensity-lab/internal/opencv/conversion"
	"intensity-lab/internal/opencv/safe"
	"intensity-lab/internal/processing/enhance"
	"intensity-lab/internal/processing/rank"
	"intensity-lab/internal/processing/spatial"

	"gocv.io/x/gocv"
)

// BorderType maps a boundary policy onto the OpenCV border mode. OpenCV has
// no periodic border for filtering and pads constants with zero only.
func BorderType(b models.BoundaryPolicy, fill float64) (gocv.BorderType, error) {
	switch b {
	case models.BoundaryFill:
		if fill != 0 {
			return 0, fmt.Errorf("%w: opencv backend fills with 0 only, got %v", models.ErrInvalidParameter, fill)
		}
		return gocv.BorderConstant, nil
	case models.BoundarySymmetric:
		return gocv.BorderReflect, nil
	case models.BoundaryReplicate:
		return gocv.BorderReplicate, nil
	case models.BoundaryWrap:
		return 0, fmt.Errorf("%w: opencv backend does not support the wrap boundary", models.ErrInvalidParameter)
	default:
		return 0, fmt.Errorf("%w: boundary policy %d", models.ErrInvalidParameter, int(b))
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// run converts img to matType, lets op fill dst and reads dst back.
func run(ctx context.Context, img *models.Grid, matType gocv.MatType, op func(src gocv.Mat, dst *gocv.Mat)) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	src, err := conversion.GridToMat(img, matType)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	op(src.GetMat(), &dst)

	out, err := safe.NewMatFromMat(dst)
	if err != nil {
		return nil, fmt.Errorf("opencv produced no output: %w", err)
	}
	defer out.Close()

	return conversion.MatToGrid(out)
}

// Filter2D correlates img with kernel. Only same-size output is available.
func Filter2D(ctx context.Context, img *models.Grid, kernel *models.Kernel, opts spatial.Options) (*models.Grid, error) {
	if kernel.Rows() == 0 || kernel.Cols() == 0 {
		return nil, fmt.Errorf("%w: kernel %dx%d", models.ErrInvalidKernelSize, kernel.Rows(), kernel.Cols())
	}
	if opts.Size != models.SizeSame {
		return nil, fmt.Errorf("%w: opencv backend supports same-size output only, got %s",
			models.ErrInvalidParameter, opts.Size)
	}
	border, err := BorderType(opts.Boundary, opts.FillValue)
	if err != nil {
		return nil, err
	}

	anchor := kernel.Center()
	if opts.Anchor != nil {
		anchor = *opts.Anchor
		if anchor.X < 0 || anchor.X >= kernel.Cols() || anchor.Y < 0 || anchor.Y >= kernel.Rows() {
			return nil, fmt.Errorf("%w: anchor %v outside %dx%d kernel",
				models.ErrInvalidParameter, anchor, kernel.Rows(), kernel.Cols())
		}
	}
	if opts.Mode == models.ModeConvolution {
		anchor = image.Point{X: kernel.Cols() - 1 - anchor.X, Y: kernel.Rows() - 1 - anchor.Y}
		kernel = kernel.Rotate180()
	}

	km, err := conversion.KernelToMat(kernel)
	if err != nil {
		return nil, err
	}
	defer km.Close()

	out, err := run(ctx, img, gocv.MatTypeCV64FC1, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Filter2D(src, dst, -1, km.GetMat(), anchor, 0, border)
	})
	if err != nil {
		return nil, err
	}
	if opts.Depth == models.DepthUint8 {
		out = out.ToUint8()
	}
	return out, nil
}

// GaussianBlur smooths img with a size x size Gaussian of the given sigma.
func GaussianBlur(ctx context.Context, img *models.Grid, size int, sigma float64, boundary models.BoundaryPolicy) (*models.Grid, error) {
	if err := models.ValidateOddPositive("size", size, "opencv gaussian blur"); err != nil {
		return nil, err
	}
	if err := models.ValidatePositive("sigma", sigma, "opencv gaussian blur"); err != nil {
		return nil, err
	}
	border, err := BorderType(boundary, 0)
	if err != nil {
		return nil, err
	}

	return run(ctx, img, gocv.MatTypeCV64FC1, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Point{X: size, Y: size}, sigma, sigma, border)
	})
}

// MedianBlur runs the 8-bit median filter with replicated borders. Samples
// are rounded and clamped to [0, 255] first.
func MedianBlur(ctx context.Context, img *models.Grid, size int) (*models.Grid, error) {
	if err := models.ValidateOddPositive("size", size, "opencv median blur"); err != nil {
		return nil, err
	}
	if size == 1 {
		return img.ToUint8(), nil
	}

	return run(ctx, img, gocv.MatTypeCV8UC1, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.MedianBlur(src, dst, size)
	})
}

// BilateralBorder maps a boundary policy onto the border used to pad the
// bilateral input. The native filter drops taps outside the image under the
// fill boundary, which a padded constant border cannot express.
func BilateralBorder(b models.BoundaryPolicy) (gocv.BorderType, error) {
	switch b {
	case models.BoundarySymmetric:
		return gocv.BorderReflect, nil
	case models.BoundaryReplicate:
		return gocv.BorderReplicate, nil
	case models.BoundaryWrap:
		return gocv.BorderWrap, nil
	case models.BoundaryFill:
		return 0, fmt.Errorf("%w: opencv bilateral filter does not support the fill boundary", models.ErrInvalidParameter)
	default:
		return 0, fmt.Errorf("%w: boundary policy %d", models.ErrInvalidParameter, int(b))
	}
}

// Bilateral runs the OpenCV bilateral filter on 32-bit float samples. The
// input is padded by the filter radius with the requested border, so
// OpenCV's own reflect-101 border never reaches the cropped result.
func Bilateral(ctx context.Context, img *models.Grid, p enhance.BilateralParams, boundary models.BoundaryPolicy) (*models.Grid, error) {
	if err := models.ValidatePositive("sigma color", p.SigmaColor, "opencv bilateral filter"); err != nil {
		return nil, err
	}
	if err := models.ValidatePositive("sigma space", p.SigmaSpace, "opencv bilateral filter"); err != nil {
		return nil, err
	}
	border, err := BilateralBorder(boundary)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateGrid(img, "opencv bilateral filter"); err != nil {
		return nil, err
	}

	r := p.Radius()
	inner := image.Rect(r, r, r+img.Cols(), r+img.Rows())
	return run(ctx, img, gocv.MatTypeCV32FC1, func(src gocv.Mat, dst *gocv.Mat) {
		padded := gocv.NewMat()
		defer padded.Close()
		gocv.CopyMakeBorder(src, &padded, r, r, r, r, border, color.RGBA{})

		filtered := gocv.NewMat()
		defer filtered.Close()
		gocv.BilateralFilter(padded, &filtered, p.Diameter, p.SigmaColor, p.SigmaSpace)

		region := filtered.Region(inner)
		defer region.Close()
		region.CopyTo(dst)
	})
}

// Laplacian applies the 4-neighbour aperture (ksize 1). The 8-neighbour
// variant goes through Filter2D.
func Laplacian(ctx context.Context, img *models.Grid, v enhance.Variant, boundary models.BoundaryPolicy) (*models.Grid, error) {
	if v == enhance.Laplace8 {
		opts := spatial.DefaultOptions()
		opts.Boundary = boundary
		k, err := v.Kernel()
		if err != nil {
			return nil, err
		}
		return Filter2D(ctx, img, k, opts)
	}
	if _, err := v.Kernel(); err != nil {
		return nil, err
	}
	border, err := BorderType(boundary, 0)
	if err != nil {
		return nil, err
	}

	return run(ctx, img, gocv.MatTypeCV64FC1, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Laplacian(src, dst, -1, 1, 1, 0, border)
	})
}

// MinMax computes the min (erode) or max (dilate) filter with a square
// structuring element. Pixels outside the image never win, which matches
// replicated borders.
func MinMax(ctx context.Context, img *models.Grid, size int, order rank.Order) (*models.Grid, error) {
	if err := models.ValidateOddPositive("window size", size, "opencv rank filter"); err != nil {
		return nil, err
	}
	if order != rank.Min && order != rank.Max {
		return nil, fmt.Errorf("%w: opencv morphology supports min and max, got %s", models.ErrInvalidParameter, order)
	}

	element := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: size, Y: size})
	defer element.Close()

	return run(ctx, img, gocv.MatTypeCV64FC1, func(src gocv.Mat, dst *gocv.Mat) {
		if order == rank.Min {
			gocv.Erode(src, dst, element)
		} else {
			gocv.Dilate(src, dst, element)
		}
	})
}
