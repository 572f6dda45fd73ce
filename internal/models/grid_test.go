package models

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridCopiesInput(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	g, err := NewGrid(2, 3, values)
	require.NoError(t, err)

	values[0] = 100
	assert.Equal(t, 1.0, g.At(0, 0))

	out := g.Values()
	out[1] = 100
	assert.Equal(t, 2.0, g.At(0, 1))

	rows := g.RowsCopy()
	rows[1][2] = 100
	assert.Equal(t, 6.0, g.At(1, 2))
}

func TestNewGridRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		rows   int
		cols   int
		values []float64
	}{
		{"zero rows", 0, 3, nil},
		{"negative cols", 2, -1, nil},
		{"length mismatch", 2, 2, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.rows, tt.cols, tt.values)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestGridFromRows(t *testing.T) {
	g, err := GridFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	rows, cols := g.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, g.Values())
	assert.Equal(t, 1.0, g.Min())
	assert.Equal(t, 6.0, g.Max())
	assert.Equal(t, 21.0, g.Sum())

	_, err = GridFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = GridFromRows(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestZeroValueGridHasNoDimensions(t *testing.T) {
	var g *Grid
	assert.Equal(t, 0, g.Rows())
	assert.Equal(t, 0, g.Cols())
	assert.Equal(t, 0, (&Grid{}).Rows())
	assert.ErrorIs(t, ValidateGrid(g, "test"), ErrInvalidParameter)
}

func TestMapAndCombineLeaveInputsUntouched(t *testing.T) {
	a, err := GridFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := FilledGrid(2, 2, 10)
	require.NoError(t, err)

	doubled := a.Map(func(v float64) float64 { return 2 * v })
	assert.Equal(t, []float64{2, 4, 6, 8}, doubled.Values())
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Values())

	sum, err := a.Combine(b, func(x, y float64) float64 { return x + y })
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13, 14}, sum.Values())

	wide, err := FilledGrid(2, 3, 0)
	require.NoError(t, err)
	_, err = a.Combine(wide, func(x, y float64) float64 { return x })
	assert.ErrorIs(t, err, ErrIncompatibleSizes)
}

func TestClamp8(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-12.3, 0},
		{0.5, 0},
		{1.5, 2},
		{127.49, 127},
		{254.5, 254},
		{255.2, 255},
		{1000, 255},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp8(tt.in), "Clamp8(%v)", tt.in)
	}
}

func TestGridImageRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	src.SetGray(0, 0, color.Gray{Y: 7})
	src.SetGray(2, 1, color.Gray{Y: 200})

	g, err := GridFromImage(src)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
	assert.Equal(t, 7.0, g.At(0, 0))
	assert.Equal(t, 200.0, g.At(1, 2))

	back := g.ToGray()
	assert.Equal(t, src.Pix, back.Pix)
}

func TestGridFromImageConvertsColour(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	g, err := GridFromImage(src)
	require.NoError(t, err)
	assert.Equal(t, 255.0, g.At(0, 0))
}

func TestToGrayClampsOutOfRange(t *testing.T) {
	g, err := GridFromRows([][]float64{{-40, 300, 12.6}})
	require.NoError(t, err)

	img := g.ToGray()
	assert.Equal(t, []uint8{0, 255, 13}, img.Pix)
	assert.Equal(t, []float64{0, 255, 13}, g.ToUint8().Values())
}

func TestEqualApprox(t *testing.T) {
	a, _ := GridFromRows([][]float64{{1, 2}})
	b, _ := GridFromRows([][]float64{{1, 2 + 1e-12}})
	c, _ := GridFromRows([][]float64{{1}, {2}})

	assert.True(t, a.EqualApprox(b, 1e-9))
	assert.False(t, a.Equal(b))
	assert.False(t, a.EqualApprox(c, 1e-9))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateOddPositive("size", 3, "test"))
	assert.True(t, errors.Is(ValidateOddPositive("size", 4, "test"), ErrInvalidParameter))
	assert.True(t, errors.Is(ValidateOddPositive("size", -1, "test"), ErrInvalidParameter))

	assert.NoError(t, ValidatePositive("sigma", 0.1, "test"))
	assert.ErrorIs(t, ValidatePositive("sigma", 0, "test"), ErrInvalidParameter)
}
