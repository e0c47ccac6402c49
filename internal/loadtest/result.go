package loadtest

// Result is the aggregate outcome of one load test run. All latency
// values are in milliseconds. It is JSON-serializable; callers decide
// what ratio of failed to total requests constitutes a failed test.
type Result struct {
	TotalRequests      int64 `json:"totalRequests"`
	SuccessfulRequests int64 `json:"successfulRequests"`
	FailedRequests     int64 `json:"failedRequests"`

	AverageResponseTime float64 `json:"averageResponseTime"`
	MinResponseTime     float64 `json:"minResponseTime"`
	MaxResponseTime     float64 `json:"maxResponseTime"`

	RequestsPerSecond float64 `json:"requestsPerSecond"`

	Percentiles Percentiles  `json:"percentiles"`
	Errors      []ErrorCount `json:"errors"`
	MemoryUsage MemoryUsage  `json:"memoryUsage"`
}

// Percentiles holds latency percentiles in milliseconds. Values are
// non-decreasing from P50 through P99.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// ErrorCount is one entry of the error histogram: how many failed
// attempts carried this error message. The slice in Result is
// unordered.
type ErrorCount struct {
	Error string `json:"error"`
	Count int64  `json:"count"`
}

// MemoryUsage summarizes the memory snapshots taken over the run
// window. Peak is the snapshot with the highest heap usage, so
// Peak.HeapUsed >= Initial.HeapUsed and Peak.HeapUsed >= Final.HeapUsed.
type MemoryUsage struct {
	Initial MemorySnapshot `json:"initial"`
	Peak    MemorySnapshot `json:"peak"`
	Final   MemorySnapshot `json:"final"`
}
