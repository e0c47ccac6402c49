package loadtest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// HDR histogram range: 1 microsecond to 1 hour, 3 significant figures.
const (
	histMinMicros = 1
	histMaxMicros = 3600000000
	histSigFigs   = 3
)

// LiveMetrics tracks in-flight run statistics for progress display.
// Latencies go into an HDR histogram so percentiles are cheap to read
// while the run is still going; the final Result is computed from the
// exact sorted samples instead.
//
// Safe for concurrent use: counters are atomic, the histogram is
// mutex-protected.
type LiveMetrics struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64

	start time.Time // guarded by mu
}

func newLiveMetrics() *LiveMetrics {
	return &LiveMetrics{
		hist:  hdrhistogram.New(histMinMicros, histMaxMicros, histSigFigs),
		start: time.Now(),
	}
}

// Record adds one attempt. Failed attempts carry no latency and only
// bump the counters.
func (m *LiveMetrics) Record(latency time.Duration, success bool) {
	m.total.Add(1)

	if !success {
		m.failed.Add(1)
		return
	}
	m.success.Add(1)

	micros := latency.Microseconds()
	if micros < histMinMicros {
		micros = histMinMicros
	}
	if micros > histMaxMicros {
		micros = histMaxMicros
	}

	m.mu.Lock()
	m.hist.RecordValue(micros)
	m.mu.Unlock()
}

// LiveSnapshot is a point-in-time view of an in-flight run.
type LiveSnapshot struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64

	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration

	RequestsPerSecond float64
	Elapsed           time.Duration
}

// Snapshot returns the current counters and histogram percentiles.
func (m *LiveMetrics) Snapshot() LiveSnapshot {
	m.mu.Lock()
	p50 := time.Duration(m.hist.ValueAtQuantile(50)) * time.Microsecond
	p90 := time.Duration(m.hist.ValueAtQuantile(90)) * time.Microsecond
	p95 := time.Duration(m.hist.ValueAtQuantile(95)) * time.Microsecond
	p99 := time.Duration(m.hist.ValueAtQuantile(99)) * time.Microsecond
	start := m.start
	m.mu.Unlock()

	elapsed := time.Since(start)
	success := m.success.Load()

	rps := 0.0
	if elapsed > 0 {
		rps = float64(success) / elapsed.Seconds()
	}

	return LiveSnapshot{
		TotalRequests:      m.total.Load(),
		SuccessfulRequests: success,
		FailedRequests:     m.failed.Load(),
		P50:                p50,
		P90:                p90,
		P95:                p95,
		P99:                p99,
		RequestsPerSecond:  rps,
		Elapsed:            elapsed,
	}
}

// Reset clears all recorded state and restarts the elapsed clock.
func (m *LiveMetrics) Reset() {
	m.mu.Lock()
	m.hist.Reset()
	m.start = time.Now()
	m.mu.Unlock()

	m.total.Store(0)
	m.success.Store(0)
	m.failed.Store(0)
}
