package filters

import (
	"context"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/enhance"
)

// SaltPepperFilter injects impulse noise. Each Apply reseeds, so a chain
// gives the same output for the same input.
type SaltPepperFilter struct {
	amount float64
	seed   uint64
}

func NewSaltPepperFilter(amount float64, seed uint64) *SaltPepperFilter {
	return &SaltPepperFilter{amount: amount, seed: seed}
}

func (s *SaltPepperFilter) Name() string {
	return "salt_pepper"
}

func (s *SaltPepperFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return enhance.SaltAndPepper(input, s.amount, enhance.NewRand(s.seed))
}

// ClampFilter rounds and clamps every sample to the 8-bit range.
type ClampFilter struct{}

func NewClampFilter() *ClampFilter {
	return &ClampFilter{}
}

func (c *ClampFilter) Name() string {
	return "clamp"
}

func (c *ClampFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := models.ValidateGrid(input, "clamp"); err != nil {
		return nil, err
	}
	return input.ToUint8(), nil
}
