package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_ImmediateCallable(t *testing.T) {
	runner, err := NewRunner(Config{
		Concurrency: 1,
		Duration:    300 * time.Millisecond,
		Target:      Callable(func(ctx context.Context) error { return nil }),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.FailedRequests != 0 {
		t.Errorf("FailedRequests = %d, want 0", res.FailedRequests)
	}
	if res.SuccessfulRequests == 0 {
		t.Error("SuccessfulRequests = 0, want > 0")
	}
	if res.TotalRequests != res.SuccessfulRequests+res.FailedRequests {
		t.Errorf("TotalRequests = %d, want %d", res.TotalRequests, res.SuccessfulRequests+res.FailedRequests)
	}
}

func TestRunner_AllFailuresRecorded(t *testing.T) {
	runner, err := NewRunner(Config{
		Concurrency: 2,
		Duration:    200 * time.Millisecond,
		Target: Callable(func(ctx context.Context) error {
			return errors.New("boom")
		}),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SuccessfulRequests != 0 {
		t.Errorf("SuccessfulRequests = %d, want 0", res.SuccessfulRequests)
	}
	if res.TotalRequests == 0 {
		t.Fatal("TotalRequests = 0, want > 0")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %+v, want exactly one entry", res.Errors)
	}
	if res.Errors[0].Error != "boom" {
		t.Errorf("error message = %q, want boom", res.Errors[0].Error)
	}
	if res.Errors[0].Count != res.TotalRequests {
		t.Errorf("error count = %d, want %d", res.Errors[0].Count, res.TotalRequests)
	}
}

func TestRunner_TimeoutsRecordedWithFixedMessage(t *testing.T) {
	runner, err := NewRunner(Config{
		Concurrency: 1,
		Duration:    150 * time.Millisecond,
		Timeout:     10 * time.Millisecond,
		Target: Callable(func(ctx context.Context) error {
			// Ignores ctx on purpose: the attempt is abandoned and this
			// keeps running in the background.
			time.Sleep(50 * time.Millisecond)
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SuccessfulRequests != 0 {
		t.Errorf("SuccessfulRequests = %d, want 0", res.SuccessfulRequests)
	}
	if res.FailedRequests == 0 {
		t.Fatal("FailedRequests = 0, want > 0")
	}
	if len(res.Errors) != 1 || res.Errors[0].Error != TimeoutMessage {
		t.Errorf("Errors = %+v, want only %q", res.Errors, TimeoutMessage)
	}
}

func TestRunner_EndpointTarget(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	runner, err := NewRunner(Config{
		Concurrency: 2,
		Duration:    200 * time.Millisecond,
		Target: Endpoint{
			URL:   server.URL,
			Check: &BodyCheck{Path: "status", Equals: "ok"},
		},
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SuccessfulRequests == 0 {
		t.Error("SuccessfulRequests = 0, want > 0")
	}
	if res.FailedRequests != 0 {
		t.Errorf("FailedRequests = %d, want 0 (errors: %+v)", res.FailedRequests, res.Errors)
	}
	if hits.Load() == 0 {
		t.Error("server was never hit")
	}
}

func TestRunner_EndpointErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	runner, err := NewRunner(Config{
		Concurrency: 1,
		Duration:    150 * time.Millisecond,
		Target:      Endpoint{URL: server.URL},
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SuccessfulRequests != 0 {
		t.Errorf("SuccessfulRequests = %d, want 0", res.SuccessfulRequests)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %+v, want exactly one entry", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Error, "500") {
		t.Errorf("error message = %q, want it to carry the response status", res.Errors[0].Error)
	}
}

func TestRunner_EndpointCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer server.Close()

	runner, err := NewRunner(Config{
		Concurrency: 1,
		Duration:    150 * time.Millisecond,
		Target: Endpoint{
			URL:   server.URL,
			Check: &BodyCheck{Path: "status", Equals: "ok"},
		},
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SuccessfulRequests != 0 {
		t.Errorf("SuccessfulRequests = %d, want 0", res.SuccessfulRequests)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Error, "check failed") {
		t.Errorf("Errors = %+v, want a single check failure", res.Errors)
	}
}

func TestRunner_WarmupExcludedFromStatistics(t *testing.T) {
	var invocations atomic.Int64
	runner, err := NewRunner(Config{
		Concurrency: 1,
		Duration:    200 * time.Millisecond,
		WarmupCount: 3,
		Target: Callable(func(ctx context.Context) error {
			invocations.Add(1)
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := invocations.Load(); got != res.TotalRequests+3 {
		t.Errorf("invocations = %d, want %d recorded + 3 warmup", got, res.TotalRequests)
	}
}

func TestRunner_RampUpStaggersWorkers(t *testing.T) {
	// Ramp interval is 100ms over 4 workers; workers whose delay would
	// outlive the deadline never issue a request.
	runner, err := NewRunner(Config{
		Concurrency: 4,
		Duration:    250 * time.Millisecond,
		RampUp:      400 * time.Millisecond,
		Target:      Callable(func(ctx context.Context) error { return nil }),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	start := time.Now()
	res, err := runner.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SuccessfulRequests == 0 {
		t.Error("SuccessfulRequests = 0, want > 0")
	}
	if elapsed > time.Second {
		t.Errorf("run took %v, workers past the deadline should exit without waiting", elapsed)
	}
}

func TestRunner_SingleUse(t *testing.T) {
	runner, err := NewRunner(Config{
		Concurrency: 1,
		Duration:    50 * time.Millisecond,
		Target:      Callable(func(ctx context.Context) error { return nil }),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("second Run without Reset should fail")
	}

	runner.Reset()
	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run after Reset: %v", err)
	}
	if res.SuccessfulRequests == 0 {
		t.Error("SuccessfulRequests = 0 after Reset, want > 0")
	}
}

func TestRunner_MemoryUsageInvariants(t *testing.T) {
	runner, err := NewRunner(Config{
		Concurrency:    1,
		Duration:       120 * time.Millisecond,
		SampleInterval: 20 * time.Millisecond,
		Target:         Callable(func(ctx context.Context) error { return nil }),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	mem := res.MemoryUsage
	if mem.Initial.Timestamp.IsZero() || mem.Final.Timestamp.IsZero() {
		t.Error("initial/final snapshots missing")
	}
	if mem.Peak.HeapUsed < mem.Initial.HeapUsed {
		t.Errorf("peak heap %d < initial %d", mem.Peak.HeapUsed, mem.Initial.HeapUsed)
	}
	if mem.Peak.HeapUsed < mem.Final.HeapUsed {
		t.Errorf("peak heap %d < final %d", mem.Peak.HeapUsed, mem.Final.HeapUsed)
	}
}

func TestRunner_ContextCancellationStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	runner, err := NewRunner(Config{
		Concurrency: 2,
		Duration:    5 * time.Second,
		Target:      Callable(func(ctx context.Context) error { return nil }),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("run took %v after cancellation, want prompt exit", elapsed)
	}
}
