package workers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	assert.Equal(t, 1, Count(8, 1))
	assert.Equal(t, 3, Count(3, 100))
	assert.Equal(t, 5, Count(10, 5))
	assert.GreaterOrEqual(t, Count(0, 1000), 1)
	assert.Equal(t, 1, Count(-2, 1))
}

func TestRowsVisitsEveryRowOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 7, 64} {
		var mu sync.Mutex
		seen := make([]int, 50)

		err := Rows(context.Background(), len(seen), workers, func(_ context.Context, y0, y1 int) error {
			mu.Lock()
			defer mu.Unlock()
			for y := y0; y < y1; y++ {
				seen[y]++
			}
			return nil
		})
		require.NoError(t, err)

		for y, n := range seen {
			assert.Equal(t, 1, n, "workers=%d row=%d", workers, y)
		}
	}
}

func TestRowsPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := Rows(context.Background(), 10, 4, func(_ context.Context, y0, _ int) error {
		if y0 == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRowsHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Rows(ctx, 10, 2, func(context.Context, int, int) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRowsWithNoRows(t *testing.T) {
	err := Rows(context.Background(), 0, 4, func(context.Context, int, int) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.NoError(t, err)
}
