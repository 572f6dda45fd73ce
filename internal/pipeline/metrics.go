package pipeline

import (
	"fmt"
	"math"

	"intensity-lab/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// QualityMetrics compares a filtered image with its reference.
type QualityMetrics struct {
	MSE  float64 // Mean squared error
	MAE  float64 // Mean absolute error
	PSNR float64 // Peak signal-to-noise ratio in dB, +Inf for identical images
	// MeanShift is the change of the mean intensity.
	MeanShift float64
	// StdDevRatio is the output standard deviation over the reference's;
	// below 1 means the filter smoothed.
	StdDevRatio float64
}

// CalculateQualityMetrics requires grids of equal dimensions. The peak
// signal for PSNR is 255.
func CalculateQualityMetrics(reference, processed *models.Grid) (*QualityMetrics, error) {
	if err := models.ValidateGrid(reference, "quality metrics"); err != nil {
		return nil, err
	}
	if err := models.ValidateGrid(processed, "quality metrics"); err != nil {
		return nil, err
	}
	rr, rc := reference.Dims()
	pr, pc := processed.Dims()
	if rr != pr || rc != pc {
		return nil, fmt.Errorf("%w: image dimensions must match: reference %dx%d, processed %dx%d",
			models.ErrIncompatibleSizes, rc, rr, pc, pr)
	}

	ref := reference.Values()
	out := processed.Values()
	n := float64(len(ref))

	diff := make([]float64, len(ref))
	floats.SubTo(diff, out, ref)

	m := &QualityMetrics{
		MSE: floats.Dot(diff, diff) / n,
		MAE: floats.Norm(diff, 1) / n,
	}
	m.PSNR = PSNR(m.MSE)

	refMean, refStd := stat.PopMeanStdDev(ref, nil)
	outMean, outStd := stat.PopMeanStdDev(out, nil)
	m.MeanShift = outMean - refMean
	switch {
	case refStd > 0:
		m.StdDevRatio = outStd / refStd
	case outStd == 0:
		m.StdDevRatio = 1
	default:
		m.StdDevRatio = math.Inf(1)
	}
	return m, nil
}

// PSNR converts a mean squared error on 8-bit samples to decibels.
func PSNR(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}

func (m *QualityMetrics) GetMetricsDescription() map[string]string {
	return map[string]string{
		"MSE":         "Mean squared difference from the reference",
		"MAE":         "Mean absolute difference from the reference",
		"PSNR":        "Peak signal-to-noise ratio in dB, higher is closer",
		"MeanShift":   "Change of mean intensity",
		"StdDevRatio": "Output contrast relative to the reference",
	}
}
