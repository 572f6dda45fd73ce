// Package services runs filter recipes against images and keeps a short
// history of the results.
package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"intensity-lab/internal/algorithms"
	"intensity-lab/internal/config"
	"intensity-lab/internal/debug/timing"
	"intensity-lab/internal/logger"
	"intensity-lab/internal/models"
	"intensity-lab/internal/pipeline"

	"github.com/google/uuid"
)

// ErrServiceClosed is returned by runs started after Shutdown.
var ErrServiceClosed = errors.New("processing service is shut down")

const maxHistory = 32

// StepTiming is the wall time of one chain step.
type StepTiming struct {
	Step     string
	Duration time.Duration
}

// Result describes one completed recipe run.
type Result struct {
	RunID       string
	Recipe      string
	Backend     models.Backend
	Output      *models.Grid
	Steps       []StepTiming
	ProcessTime time.Duration
	FinishedAt  time.Time
	// Metrics compares Output with the input; nil when a step changed the
	// dimensions.
	Metrics *pipeline.QualityMetrics
}

// ProcessingStats contains processing performance statistics
type ProcessingStats struct {
	TotalProcessed     int
	SuccessfulRuns     int
	FailedRuns         int
	AverageTime        time.Duration
	LastProcessingTime time.Time
}

// ProcessingService handles image processing operations
type ProcessingService struct {
	algorithmManager *algorithms.Manager
	logger           logger.Logger
	timingTracker    *timing.Tracker
	settings         models.PerformanceSettings
	workerPool       chan struct{}

	mu      sync.RWMutex
	history   []Result
	succeeded int
	failed    int
	closed  bool
	running sync.WaitGroup
}

// NewProcessingService limits concurrent runs to
// settings.MaxConcurrentRuns, or the CPU count when that is zero.
func NewProcessingService(
	manager *algorithms.Manager,
	log logger.Logger,
	tracker *timing.Tracker,
	settings models.PerformanceSettings,
) *ProcessingService {
	slots := settings.MaxConcurrentRuns
	if slots <= 0 {
		slots = runtime.NumCPU()
	}
	workers := make(chan struct{}, slots)
	for i := 0; i < slots; i++ {
		workers <- struct{}{}
	}

	return &ProcessingService{
		algorithmManager: manager,
		logger:           log,
		timingTracker:    tracker,
		settings:         settings,
		workerPool:       workers,
	}
}

// Run builds the recipe into a chain and applies it to input. The recipe
// is checked before a worker slot is taken.
func (ps *ProcessingService) Run(ctx context.Context, recipe *config.Recipe, input *models.Grid) (*Result, error) {
	if err := ps.begin(); err != nil {
		return nil, err
	}
	defer ps.running.Done()

	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe is nil", models.ErrInvalidParameter)
	}
	if err := models.ValidateGrid(input, "recipe run"); err != nil {
		return nil, err
	}

	effective := *recipe
	if effective.Workers == 0 {
		effective.Workers = ps.settings.MaxWorkers
	}
	pc, err := ps.algorithmManager.BuildChain(&effective)
	if err != nil {
		ps.recordFailure()
		return nil, err
	}

	select {
	case <-ps.workerPool:
		defer func() { ps.workerPool <- struct{}{} }()
	case <-ctx.Done():
		ps.recordFailure()
		return nil, ctx.Err()
	}

	runID := uuid.NewString()
	var steps []StepTiming
	pc.Observe(func(step string, elapsed time.Duration) {
		steps = append(steps, StepTiming{Step: step, Duration: elapsed})
		ps.timingTracker.Record("step:"+step, elapsed)
	})

	ps.logger.Debug("ProcessingService", "run started", map[string]interface{}{
		"run_id":  runID,
		"recipe":  effective.Name,
		"backend": effective.Backend.String(),
		"steps":   pc.GetStepNames(),
	})

	startTime := time.Now()
	output, err := pc.Execute(ctx, input)
	processingTime := time.Since(startTime)
	ps.timingTracker.Record("run", processingTime)
	if err != nil {
		ps.recordFailure()
		ps.logger.Error("ProcessingService", err, map[string]interface{}{
			"run_id": runID,
			"recipe": effective.Name,
		})
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	result := Result{
		RunID:       runID,
		Recipe:      effective.Name,
		Backend:     effective.Backend,
		Output:      output,
		Steps:       steps,
		ProcessTime: processingTime,
		FinishedAt:  time.Now(),
	}
	if output.Rows() == input.Rows() && output.Cols() == input.Cols() {
		metrics, err := pipeline.CalculateQualityMetrics(input, output)
		if err == nil {
			result.Metrics = metrics
		}
	}

	ps.mu.Lock()
	ps.succeeded++
	ps.history = append(ps.history, result)
	if len(ps.history) > maxHistory {
		ps.history = ps.history[len(ps.history)-maxHistory:]
	}
	ps.mu.Unlock()

	fields := map[string]interface{}{
		"run_id":      runID,
		"recipe":      effective.Name,
		"duration_ms": processingTime.Milliseconds(),
		"output_size": fmt.Sprintf("%dx%d", output.Cols(), output.Rows()),
	}
	if result.Metrics != nil {
		fields["psnr_db"] = result.Metrics.PSNR
	}
	ps.logger.Info("ProcessingService", "run completed", fields)

	return &result, nil
}

// RunFilter applies a single registered filter.
func (ps *ProcessingService) RunFilter(ctx context.Context, name string, params map[string]interface{}, backend models.Backend, input *models.Grid) (*Result, error) {
	return ps.Run(ctx, &config.Recipe{
		Name:    name,
		Backend: backend,
		Steps:   []config.StepConfig{{Filter: name, Params: params}},
	}, input)
}

func (ps *ProcessingService) begin() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return ErrServiceClosed
	}
	ps.running.Add(1)
	return nil
}

func (ps *ProcessingService) recordFailure() {
	ps.mu.Lock()
	ps.failed++
	ps.mu.Unlock()
}

// GetAvailableAlgorithms returns list of available algorithms
func (ps *ProcessingService) GetAvailableAlgorithms() []string {
	return ps.algorithmManager.GetAvailableAlgorithms()
}

// ValidateAlgorithmParameters validates parameters for a specific algorithm
func (ps *ProcessingService) ValidateAlgorithmParameters(algorithmName string, parameters map[string]interface{}) error {
	algorithm, err := ps.algorithmManager.GetAlgorithm(algorithmName)
	if err != nil {
		return fmt.Errorf("algorithm not found: %w", err)
	}

	return algorithm.ValidateParameters(parameters)
}

// GetDefaultParameters returns default parameters for an algorithm
func (ps *ProcessingService) GetDefaultParameters(algorithmName string) (map[string]interface{}, error) {
	algorithm, err := ps.algorithmManager.GetAlgorithm(algorithmName)
	if err != nil {
		return nil, fmt.Errorf("algorithm not found: %w", err)
	}

	return algorithm.GetDefaultParameters(), nil
}

// GetProcessingHistory returns the most recent runs, oldest first.
func (ps *ProcessingService) GetProcessingHistory() []Result {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	history := make([]Result, len(ps.history))
	copy(history, ps.history)
	return history
}

// GetLatestResult returns the most recent processing result
func (ps *ProcessingService) GetLatestResult() *Result {
	history := ps.GetProcessingHistory()
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}

func (ps *ProcessingService) ClearHistory() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.history = nil
}

// GetProcessingStats counts every run since the service started. The
// timing fields cover the runs still held in the history.
func (ps *ProcessingService) GetProcessingStats() ProcessingStats {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	stats := ProcessingStats{
		TotalProcessed: ps.succeeded + ps.failed,
		SuccessfulRuns: ps.succeeded,
		FailedRuns:     ps.failed,
	}
	if len(ps.history) == 0 {
		return stats
	}

	var totalTime time.Duration
	for _, result := range ps.history {
		totalTime += result.ProcessTime
	}
	stats.AverageTime = totalTime / time.Duration(len(ps.history))
	stats.LastProcessingTime = ps.history[len(ps.history)-1].FinishedAt

	return stats
}

// GetWorkerCount returns the number of concurrent run slots.
func (ps *ProcessingService) GetWorkerCount() int {
	return cap(ps.workerPool)
}

// Shutdown rejects new runs and waits for the ones in flight.
func (ps *ProcessingService) Shutdown() {
	ps.mu.Lock()
	ps.closed = true
	ps.mu.Unlock()

	ps.running.Wait()
	ps.logger.Debug("ProcessingService", "shut down", map[string]interface{}{
		"history": len(ps.GetProcessingHistory()),
	})
}
