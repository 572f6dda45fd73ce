// Package timing records how long each named operation takes.
package timing

import (
	"context"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

type timingKey struct{}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

// Stats summarises the recorded durations of one operation.
type Stats struct {
	Operation string
	Count     int
	Total     time.Duration
	Mean      time.Duration
	StdDev    time.Duration
}

type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
	enabled bool
}

func NewTracker() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		enabled: true,
	}
}

func (tt *Tracker) isEnabled() bool {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return tt.enabled
}

func (tt *Tracker) StartTiming(operation string) context.Context {
	return tt.StartTimingContext(context.Background(), operation)
}

// StartTimingContext derives the timing context from parent so the
// caller's cancellation still applies.
func (tt *Tracker) StartTimingContext(parent context.Context, operation string) context.Context {
	if !tt.isEnabled() {
		return parent
	}
	return context.WithValue(parent, timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: time.Now(),
	})
}

func (tt *Tracker) EndTiming(ctx context.Context) time.Duration {
	timingInfo, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return 0
	}

	duration := time.Since(timingInfo.StartTime)
	tt.Record(timingInfo.Operation, duration)
	return duration
}

// Record stores one duration. Its signature matches chain.StepObserver.
func (tt *Tracker) Record(operation string, duration time.Duration) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if !tt.enabled {
		return
	}
	tt.timings[operation] = append(tt.timings[operation], duration)
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (tt *Tracker) GetAverageTime(operation string) time.Duration {
	timings := tt.GetTimings(operation)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, duration := range timings {
		total += duration
	}

	return total / time.Duration(len(timings))
}

// Summary returns per-operation statistics sorted by operation name.
func (tt *Tracker) Summary() []Stats {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	out := make([]Stats, 0, len(tt.timings))
	for operation, timings := range tt.timings {
		xs := make([]float64, len(timings))
		var total time.Duration
		for i, d := range timings {
			xs[i] = float64(d)
			total += d
		}
		s := Stats{Operation: operation, Count: len(timings), Total: total}
		if len(xs) > 1 {
			mean, std := stat.MeanStdDev(xs, nil)
			s.Mean, s.StdDev = time.Duration(mean), time.Duration(std)
		} else if len(xs) == 1 {
			s.Mean = timings[0]
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}
