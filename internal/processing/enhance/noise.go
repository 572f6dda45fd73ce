package enhance

import (
	"fmt"
	"math"
	"math/rand/v2"

	"intensity-lab/internal/models"
)

const (
	pepper = 0
	salt   = 255
)

// NewRand returns a deterministic source for SaltAndPepper.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SaltAndPepper sets round(amount*rows*cols) distinct samples to 0 or 255
// with equal probability. amount must lie in [0, 1].
func SaltAndPepper(img *models.Grid, amount float64, rng *rand.Rand) (*models.Grid, error) {
	const op = "salt and pepper"
	if err := models.ValidateGrid(img, op); err != nil {
		return nil, err
	}
	if math.IsNaN(amount) || amount < 0 || amount > 1 {
		return nil, fmt.Errorf("%w: amount must be in [0, 1], got %v for operation: %s",
			models.ErrInvalidParameter, amount, op)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source for operation: %s", models.ErrInvalidParameter, op)
	}

	rows, cols := img.Dims()
	values := img.Values()
	n := int(math.Round(amount * float64(len(values))))
	for _, i := range rng.Perm(len(values))[:n] {
		if rng.IntN(2) == 0 {
			values[i] = pepper
		} else {
			values[i] = salt
		}
	}
	return models.WrapValues(rows, cols, values)
}
