package bench

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rideops/surge/internal/loadtest"
)

// Endpoint preset defaults. Only concurrency, duration, and timeout
// are caller-tunable; ramp-up and warmup are fixed by the preset.
const (
	DefaultEndpointRampUp = 5 * time.Second
	DefaultEndpointWarmup = 5
)

// EndpointOptions are the tunable knobs of the endpoint preset.
type EndpointOptions struct {
	Concurrency int
	Duration    time.Duration
	Timeout     time.Duration // zero means the engine default
	Logger      *zap.Logger
}

// LoadTestEndpoint runs the single-endpoint load test preset: a GET
// against url with the preset's ramp-up and warmup defaults.
func LoadTestEndpoint(ctx context.Context, url string, opts EndpointOptions) (*loadtest.Result, error) {
	runner, err := loadtest.NewRunner(loadtest.Config{
		Concurrency: opts.Concurrency,
		Duration:    opts.Duration,
		RampUp:      DefaultEndpointRampUp,
		Timeout:     opts.Timeout,
		WarmupCount: DefaultEndpointWarmup,
		Target:      loadtest.Endpoint{URL: url},
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx)
}
