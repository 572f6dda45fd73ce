package enhance

import (
	"context"
	"testing"

	"intensity-lab/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBilateralRadius(t *testing.T) {
	tests := []struct {
		params BilateralParams
		want   int
	}{
		{BilateralParams{Diameter: 9, SigmaSpace: 1}, 4},
		{BilateralParams{Diameter: 5, SigmaSpace: 10}, 2},
		{BilateralParams{Diameter: 1, SigmaSpace: 1}, 1},
		{BilateralParams{Diameter: 0, SigmaSpace: 2}, 3},
		{BilateralParams{Diameter: -1, SigmaSpace: 0.2}, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.params.Radius(), "%+v", tt.params)
	}
}

func TestBilateralWindowIsCircular(t *testing.T) {
	taps := BilateralParams{Diameter: 5, SigmaSpace: 1}.spatialTaps()
	// lattice points of the disc of radius 2
	assert.Len(t, taps, 13)
	for _, tp := range taps {
		assert.LessOrEqual(t, tp.dy*tp.dy+tp.dx*tp.dx, 4)
	}
}

func TestBilateralLeavesConstantImage(t *testing.T) {
	img := filled(t, 7, 5, 200)
	for _, b := range []models.BoundaryPolicy{models.BoundaryFill, models.BoundarySymmetric, models.BoundaryWrap, models.BoundaryReplicate} {
		opts := DefaultOptions()
		opts.Boundary = b
		out, err := Bilateral(context.Background(), img, BilateralParams{Diameter: 5, SigmaColor: 25, SigmaSpace: 3}, opts)
		require.NoError(t, err)
		assert.True(t, out.EqualApprox(img, 1e-9), "boundary=%s", b)
	}
}

func TestBilateralPreservesEdges(t *testing.T) {
	rows := make([][]float64, 6)
	for i := range rows {
		rows[i] = []float64{0, 0, 0, 0, 100, 100, 100, 100}
	}
	img, err := models.GridFromRows(rows)
	require.NoError(t, err)

	out, err := Bilateral(context.Background(), img, BilateralParams{Diameter: 5, SigmaColor: 1, SigmaSpace: 2}, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, out.EqualApprox(img, 1e-6))

	smooth, err := Bilateral(context.Background(), img, BilateralParams{Diameter: 5, SigmaColor: 1e6, SigmaSpace: 2}, DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, smooth.At(2, 3), 1.0)
	assert.Less(t, smooth.At(2, 4), 99.0)
}

func TestBilateralParallelMatchesSerial(t *testing.T) {
	values := make([]float64, 21*9)
	for i := range values {
		values[i] = float64((i * 31) % 97)
	}
	img, err := models.NewGrid(21, 9, values)
	require.NoError(t, err)
	p := BilateralParams{Diameter: 0, SigmaColor: 30, SigmaSpace: 1.5}

	serial := DefaultOptions()
	serial.Workers = 1
	want, err := Bilateral(context.Background(), img, p, serial)
	require.NoError(t, err)

	parallel := serial
	parallel.Workers = 4
	got, err := Bilateral(context.Background(), img, p, parallel)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
}

func TestBilateralRejectsBadArguments(t *testing.T) {
	img := filled(t, 3, 3, 1)
	tests := []BilateralParams{
		{Diameter: 3, SigmaColor: 0, SigmaSpace: 1},
		{Diameter: 3, SigmaColor: 1, SigmaSpace: -2},
	}
	for _, p := range tests {
		_, err := Bilateral(context.Background(), img, p, DefaultOptions())
		assert.ErrorIs(t, err, models.ErrInvalidParameter, "%+v", p)
	}

	_, err := Bilateral(context.Background(), nil, BilateralParams{Diameter: 3, SigmaColor: 1, SigmaSpace: 1}, DefaultOptions())
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}
