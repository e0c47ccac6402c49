// Package bench provides canned compositions of the measurement core:
// a sequential iteration benchmark, a memory-leak detector, and a
// single-endpoint load test preset.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/rideops/surge/internal/instrument"
)

// IterativeResult summarizes a sequential benchmark of one operation.
type IterativeResult struct {
	Iterations      int           `json:"iterations"`
	MeanDuration    time.Duration `json:"meanDuration"`
	MinDuration     time.Duration `json:"minDuration"`
	MaxDuration     time.Duration `json:"maxDuration"`
	MeanMemoryDelta int64         `json:"meanMemoryDelta"`
	TotalDuration   time.Duration `json:"totalDuration"`
}

// RunIterative measures op sequentially the given number of times.
// There is no concurrency; this characterizes a single hot path. The
// first iteration error aborts the benchmark.
func RunIterative(ctx context.Context, iterations int, op func(ctx context.Context) error) (*IterativeResult, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", iterations)
	}

	var (
		total    time.Duration
		min      time.Duration
		max      time.Duration
		memTotal int64
	)

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, metrics, err := instrument.Measure(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, op(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}

		total += metrics.Duration
		memTotal += metrics.MemoryDelta
		if i == 0 || metrics.Duration < min {
			min = metrics.Duration
		}
		if metrics.Duration > max {
			max = metrics.Duration
		}
	}

	return &IterativeResult{
		Iterations:      iterations,
		MeanDuration:    total / time.Duration(iterations),
		MinDuration:     min,
		MaxDuration:     max,
		MeanMemoryDelta: memTotal / int64(iterations),
		TotalDuration:   total,
	}, nil
}
