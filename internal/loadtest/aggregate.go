package loadtest

import (
	"math"
	"sort"
	"time"
)

// aggregate reduces one run's raw samples, error histogram, and memory
// snapshots into a Result. It sorts a millisecond copy of the latency
// samples; collection order is irrelevant to every statistic computed
// here.
func aggregate(samples []time.Duration, errCounts map[string]int64, snapshots []MemorySnapshot, elapsed time.Duration) *Result {
	latencies := make([]float64, len(samples))
	for i, s := range samples {
		latencies[i] = float64(s) / float64(time.Millisecond)
	}
	sort.Float64s(latencies)

	res := &Result{
		SuccessfulRequests: int64(len(latencies)),
		Errors:             make([]ErrorCount, 0, len(errCounts)),
	}

	for msg, count := range errCounts {
		res.FailedRequests += count
		res.Errors = append(res.Errors, ErrorCount{Error: msg, Count: count})
	}
	res.TotalRequests = res.SuccessfulRequests + res.FailedRequests

	// Zero successful samples leaves every latency statistic at 0.
	if n := len(latencies); n > 0 {
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		res.AverageResponseTime = sum / float64(n)
		res.MinResponseTime = latencies[0]
		res.MaxResponseTime = latencies[n-1]
	}

	res.Percentiles = Percentiles{
		P50: percentile(latencies, 50),
		P90: percentile(latencies, 90),
		P95: percentile(latencies, 95),
		P99: percentile(latencies, 99),
	}

	if elapsed > 0 {
		res.RequestsPerSecond = float64(res.SuccessfulRequests) / elapsed.Seconds()
	}

	if len(snapshots) > 0 {
		usage := MemoryUsage{
			Initial: snapshots[0],
			Peak:    snapshots[0],
			Final:   snapshots[len(snapshots)-1],
		}
		for _, s := range snapshots {
			if s.HeapUsed > usage.Peak.HeapUsed {
				usage.Peak = s
			}
		}
		res.MemoryUsage = usage
	}

	return res
}

// percentile returns the value at index ceil(p/100*n)-1 of the sorted
// slice, clamped into [0, n-1]. An empty slice yields 0.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
