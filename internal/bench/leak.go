package bench

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rideops/surge/internal/loadtest"
)

// DefaultGrowthThreshold is the heap growth percentage above which a
// run is flagged as a potential leak.
const DefaultGrowthThreshold = 50.0

// LeakConfig configures a memory-leak detection run.
type LeakConfig struct {
	// Iterations is how many times the operation runs. Must be >= 1.
	Iterations int

	// Compact, when set, is invoked before the initial and final heap
	// readings to force a collection cycle. runtime.GC is the natural
	// choice; nil leaves collection entirely to the runtime.
	Compact func()

	// GrowthThreshold overrides DefaultGrowthThreshold when > 0.
	GrowthThreshold float64

	// Logger receives diagnostic output. Nil means a no-op logger.
	Logger *zap.Logger
}

// LeakReport is the outcome of a leak detection run. Heap values are
// bytes.
type LeakReport struct {
	Iterations    int     `json:"iterations"`
	InitialHeap   uint64  `json:"initialHeap"`
	FinalHeap     uint64  `json:"finalHeap"`
	PeakHeap      uint64  `json:"peakHeap"`
	GrowthPercent float64 `json:"growthPercent"`
	PotentialLeak bool    `json:"potentialLeak"`
}

// DetectLeak runs op sequentially and compares heap usage before the
// first and after the last iteration. Growth beyond the threshold
// flags a potential leak; the running peak is tracked across
// iterations.
func DetectLeak(ctx context.Context, cfg LeakConfig, op func(ctx context.Context) error) (*LeakReport, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", cfg.Iterations)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.GrowthThreshold
	if threshold <= 0 {
		threshold = DefaultGrowthThreshold
	}
	compact := cfg.Compact
	if compact == nil {
		compact = func() {}
	}

	compact()
	initial := loadtest.TakeMemorySnapshot().HeapUsed
	peak := initial

	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := op(ctx); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		if heap := loadtest.TakeMemorySnapshot().HeapUsed; heap > peak {
			peak = heap
		}
	}

	compact()
	final := loadtest.TakeMemorySnapshot().HeapUsed
	if final > peak {
		peak = final
	}

	growth := 0.0
	if initial > 0 {
		growth = (float64(final) - float64(initial)) / float64(initial) * 100
	}

	report := &LeakReport{
		Iterations:    cfg.Iterations,
		InitialHeap:   initial,
		FinalHeap:     final,
		PeakHeap:      peak,
		GrowthPercent: growth,
		PotentialLeak: growth > threshold,
	}

	logger.Debug("leak detection complete",
		zap.Uint64("initialHeap", initial),
		zap.Uint64("finalHeap", final),
		zap.Float64("growthPercent", growth),
		zap.Bool("potentialLeak", report.PotentialLeak))

	return report, nil
}
