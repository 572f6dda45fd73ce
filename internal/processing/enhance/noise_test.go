package enhance

import (
	"testing"

	"intensity-lab/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaltAndPepperChangesRequestedCount(t *testing.T) {
	img := filled(t, 10, 10, 128)

	for _, tt := range []struct {
		amount float64
		want   int
	}{
		{0, 0},
		{0.3, 30},
		{0.125, 13},
		{1, 100},
	} {
		out, err := SaltAndPepper(img, tt.amount, NewRand(7))
		require.NoError(t, err)

		changed := 0
		for i, v := range out.Values() {
			if v != img.Values()[i] {
				changed++
				assert.Contains(t, []float64{0, 255}, v)
			}
		}
		assert.Equal(t, tt.want, changed, "amount=%v", tt.amount)
	}
}

func TestSaltAndPepperIsDeterministicPerSeed(t *testing.T) {
	img := filled(t, 8, 8, 50)

	a, err := SaltAndPepper(img, 0.4, NewRand(99))
	require.NoError(t, err)
	b, err := SaltAndPepper(img, 0.4, NewRand(99))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	assert.True(t, img.Equal(filled(t, 8, 8, 50)))
}

func TestSaltAndPepperRejectsBadArguments(t *testing.T) {
	img := filled(t, 2, 2, 1)
	for _, amount := range []float64{-0.1, 1.01} {
		_, err := SaltAndPepper(img, amount, NewRand(1))
		assert.ErrorIs(t, err, models.ErrInvalidParameter)
	}
	_, err := SaltAndPepper(img, 0.5, nil)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}
