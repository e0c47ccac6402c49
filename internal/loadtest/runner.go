package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// TimeoutMessage is the fixed error-histogram key for attempts that
// did not settle within the configured timeout.
const TimeoutMessage = "Request timeout"

// outcome is what a worker reports for one attempt. Exactly one of
// latency (err == "") or err is meaningful.
type outcome struct {
	latency time.Duration
	err     string
}

// Runner owns the state of one load test run: the raw samples, error
// histogram, and memory snapshots live only until Run folds them into
// the returned Result. A Runner is single-use; a second Run without
// Reset fails so concurrent runs can never share accumulators.
type Runner struct {
	config Config
	client *http.Client
	logger *zap.Logger
	live   *LiveMetrics

	started atomic.Bool

	samples []time.Duration
	errors  map[string]int64
}

// NewRunner validates the config and returns a Runner ready for one
// run. Validation failures return a *ConfigError before any run state
// is created.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &Runner{
		config: cfg,
		client: newHTTPClient(),
		logger: cfg.Logger,
		live:   newLiveMetrics(),
		errors: make(map[string]int64),
	}, nil
}

// newHTTPClient builds a client sized for load generation. The
// per-request timeout is enforced by the attempt race, not here, so
// the client itself carries no deadline.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        1000,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Live returns the in-flight metrics tracker for progress display.
func (r *Runner) Live() *LiveMetrics {
	return r.live
}

// Run executes the load test and blocks until the run window closes
// and all workers have exited. Only configuration misuse surfaces as
// an error; per-request failures are recorded in the result's error
// histogram and never abort the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.started.CompareAndSwap(false, true) {
		return nil, &ConfigError{Field: "runner", Message: "already used; create a new Runner or call Reset"}
	}
	cfg := r.config

	if cfg.WarmupCount > 0 {
		r.warmup(ctx)
	}

	// Workers send outcomes to a single collector goroutine, so the
	// sample slice and error histogram never see a concurrent writer.
	outcomes := make(chan outcome, cfg.Concurrency)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for o := range outcomes {
			if o.err == "" {
				r.samples = append(r.samples, o.latency)
				r.live.Record(o.latency, true)
			} else {
				r.errors[o.err]++
				r.live.Record(0, false)
			}
		}
	}()

	sampler := newMemorySampler(cfg.SampleInterval)
	sampler.start()
	r.live.Reset()

	start := time.Now()
	deadline := start.Add(cfg.Duration)
	rampUpInterval := cfg.RampUp / time.Duration(cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go r.worker(ctx, time.Duration(i)*rampUpInterval, deadline, outcomes, &wg)
	}

	wg.Wait()
	close(outcomes)
	<-collectorDone

	elapsed := time.Since(start)
	snapshots := sampler.stop()

	r.logger.Debug("load test run complete",
		zap.Duration("elapsed", elapsed),
		zap.Int("successfulRequests", len(r.samples)),
		zap.Int("distinctErrors", len(r.errors)),
		zap.Int("memorySnapshots", len(snapshots)))

	return aggregate(r.samples, r.errors, snapshots, elapsed), nil
}

// Reset discards all per-run state so the Runner can be used again.
// Must not be called while Run is in flight.
func (r *Runner) Reset() {
	r.samples = nil
	r.errors = make(map[string]int64)
	r.live.Reset()
	r.started.Store(false)
}

// warmup fires the configured number of priming invocations
// concurrently and discards both results and errors.
func (r *Runner) warmup(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.config.WarmupCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.attempt(ctx)
		}()
	}
	wg.Wait()
}

// worker issues requests against the target until the run deadline,
// waiting out its ramp-up delay first. Each attempt's outcome is sent
// to the collector; a brief yield after every attempt keeps one worker
// from monopolizing the scheduler.
func (r *Runner) worker(ctx context.Context, delay time.Duration, deadline time.Time, outcomes chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	if delay > 0 {
		if delay >= time.Until(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		outcomes <- r.attempt(ctx)
		runtime.Gosched()
	}
}

// attempt executes one request, racing it against the configured
// timeout. An attempt that loses the race is abandoned: the target may
// still run to completion in the background and its result is ignored.
func (r *Runner) attempt(ctx context.Context) outcome {
	reqCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- r.invoke(reqCtx)
	}()

	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err == nil {
			return outcome{latency: time.Since(start)}
		}
		if isTimeout(err) {
			return outcome{err: TimeoutMessage}
		}
		return outcome{err: err.Error()}
	case <-timer.C:
		return outcome{err: TimeoutMessage}
	}
}

// invoke dispatches one request on the target's concrete type.
func (r *Runner) invoke(ctx context.Context) error {
	switch t := r.config.Target.(type) {
	case Endpoint:
		return r.invokeEndpoint(ctx, t)
	case Callable:
		return t(ctx)
	default:
		return fmt.Errorf("unsupported target type %T", r.config.Target)
	}
}

// invokeEndpoint performs one HTTP request. A status outside
// [200, 400) fails with the response status line as the message; a
// configured body check failure fails with a message naming the path.
func (r *Runner) invokeEndpoint(ctx context.Context, ep Endpoint) error {
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if ep.Body != "" {
		body = strings.NewReader(ep.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, ep.URL, body)
	if err != nil {
		return err
	}
	for key, value := range ep.Headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return errors.New(resp.Status)
	}

	if ep.Check != nil {
		got := gjson.GetBytes(respBody, ep.Check.Path)
		if got.String() != ep.Check.Equals {
			return fmt.Errorf("check failed: %s = %q, want %q", ep.Check.Path, got.String(), ep.Check.Equals)
		}
	}

	return nil
}

// isTimeout reports whether err is a deadline error from the
// per-request context, so it can be recorded under TimeoutMessage
// regardless of which side of the race noticed first.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
