package filters

import (
	"context"
	"fmt"

	"intensity-lab/internal/models"
	"intensity-lab/internal/opencv/cvfilter"
	"intensity-lab/internal/processing/rank"
)

type RankFilter struct {
	size    int
	order   rank.Order
	opts    rank.Options
	backend models.Backend
}

func NewRankFilter(size int, order rank.Order, opts rank.Options, backend models.Backend) (*RankFilter, error) {
	if err := models.ValidateOddPositive("window size", size, "rank filter"); err != nil {
		return nil, err
	}
	if backend == models.BackendOpenCV && opts.Boundary != models.BoundaryReplicate {
		return nil, fmt.Errorf("%w: opencv rank filters replicate the border, got %s",
			models.ErrInvalidParameter, opts.Boundary)
	}
	return &RankFilter{size: size, order: order, opts: opts, backend: backend}, nil
}

func (r *RankFilter) Name() string {
	return r.order.String()
}

func (r *RankFilter) Apply(ctx context.Context, input *models.Grid) (*models.Grid, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if r.backend == models.BackendOpenCV {
		if r.order == rank.Median {
			return cvfilter.MedianBlur(ctx, input, r.size)
		}
		return cvfilter.MinMax(ctx, input, r.size, r.order)
	}
	return rank.FilterContext(ctx, input, r.size, r.order, r.opts)
}
