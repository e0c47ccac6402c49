// Package instrument provides a single-operation measurement
// primitive: wall-clock duration plus memory and CPU deltas around one
// invocation. It is purely an observer; it never retries and never
// swallows the operation's error.
package instrument

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Metrics is one operation's measurement. MemoryDelta is post minus
// pre heap usage and may be negative when a collection ran
// mid-measurement; it is reported as-is, never clamped to zero.
// CPUDelta is combined user+system process CPU time and is zero on
// platforms without rusage support.
type Metrics struct {
	Duration    time.Duration `json:"duration"`
	MemoryDelta int64         `json:"memoryDelta"`
	CPUDelta    time.Duration `json:"cpuDelta"`
}

// Operation is a measurable unit of work.
type Operation[T any] func(ctx context.Context) (T, error)

// Measure times op and captures its memory/CPU deltas. If op fails the
// error propagates unchanged, after the deltas are still computed.
func Measure[T any](ctx context.Context, op Operation[T]) (T, Metrics, error) {
	return MeasureWithLogger(ctx, zap.NewNop(), op)
}

// MeasureWithLogger is Measure with a logger that receives the
// measured deltas of failed operations for diagnostics.
func MeasureWithLogger[T any](ctx context.Context, logger *zap.Logger, op Operation[T]) (T, Metrics, error) {
	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	cpuBefore, _ := processCPUTime()

	start := time.Now()
	result, err := op(ctx)
	duration := time.Since(start)

	cpuAfter, _ := processCPUTime()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	metrics := Metrics{
		Duration:    duration,
		MemoryDelta: int64(after.HeapAlloc) - int64(before.HeapAlloc),
		CPUDelta:    cpuAfter - cpuBefore,
	}

	if err != nil {
		logger.Debug("measured operation failed",
			zap.Duration("duration", metrics.Duration),
			zap.Int64("memoryDelta", metrics.MemoryDelta),
			zap.Duration("cpuDelta", metrics.CPUDelta),
			zap.Error(err))
	}

	return result, metrics, err
}
