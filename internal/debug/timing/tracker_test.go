package timing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndSummary(t *testing.T) {
	tt := NewTracker()
	tt.Record("median", 10*time.Millisecond)
	tt.Record("median", 30*time.Millisecond)
	tt.Record("gaussian", 5*time.Millisecond)

	assert.Equal(t, 20*time.Millisecond, tt.GetAverageTime("median"))
	assert.Zero(t, tt.GetAverageTime("missing"))

	summary := tt.Summary()
	require.Len(t, summary, 2)
	assert.Equal(t, "gaussian", summary[0].Operation)
	assert.Equal(t, 5*time.Millisecond, summary[0].Mean)
	assert.Equal(t, "median", summary[1].Operation)
	assert.Equal(t, 2, summary[1].Count)
	assert.Equal(t, 40*time.Millisecond, summary[1].Total)
	assert.Equal(t, 20*time.Millisecond, summary[1].Mean)
	assert.InDelta(t, float64(10*time.Millisecond)*1.4142135623730951, float64(summary[1].StdDev), 1e3)
}

func TestStartEndTiming(t *testing.T) {
	tt := NewTracker()
	ctx := tt.StartTiming("load")
	d := tt.EndTiming(ctx)
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Len(t, tt.GetTimings("load"), 1)

	// a context without timing info is ignored
	assert.Zero(t, tt.EndTiming(context.Background()))
}

func TestStartTimingContextKeepsParent(t *testing.T) {
	tt := NewTracker()
	parent, cancel := context.WithCancel(context.Background())
	ctx := tt.StartTimingContext(parent, "run")
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestDisabledAndReset(t *testing.T) {
	tt := NewTracker()
	tt.SetEnabled(false)
	tt.Record("x", time.Second)
	assert.Empty(t, tt.GetTimings("x"))

	tt.SetEnabled(true)
	tt.Record("x", time.Second)
	tt.Record("y", time.Second)
	tt.Reset("x")
	assert.Empty(t, tt.GetTimings("x"))
	assert.Len(t, tt.GetTimings("y"), 1)
	tt.Reset("")
	assert.Empty(t, tt.Summary())
}

func TestReturnedTimingsAreCopies(t *testing.T) {
	tt := NewTracker()
	tt.Record("x", time.Second)
	got := tt.GetTimings("x")
	got[0] = 0
	assert.Equal(t, time.Second, tt.GetTimings("x")[0])
}
