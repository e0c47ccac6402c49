package loadtest

import (
	"time"

	"go.uber.org/zap"
)

// Default values applied by NewRunner when the corresponding Config
// field is zero.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultSampleInterval = time.Second
)

// Config describes one load test run. It is copied by NewRunner and
// read-only once the run starts.
type Config struct {
	// Concurrency is the number of logical workers. Must be >= 1.
	Concurrency int

	// Duration is the run's wall-clock window. Must be > 0. Workers
	// issue requests only while the deadline has not passed.
	Duration time.Duration

	// RampUp spreads worker start times linearly across this window
	// instead of bursting all workers at once. Zero starts everyone
	// immediately.
	RampUp time.Duration

	// Timeout bounds each individual request. Zero means DefaultTimeout.
	Timeout time.Duration

	// WarmupCount is the number of priming invocations fired
	// concurrently before the measured window opens. Their results and
	// errors are discarded.
	WarmupCount int

	// Target is what each attempt executes.
	Target Target

	// SampleInterval is how often the memory sampler takes a snapshot.
	// Zero means DefaultSampleInterval.
	SampleInterval time.Duration

	// Logger receives diagnostic output. Nil means a no-op logger.
	Logger *zap.Logger
}

// ConfigError reports an invalid Config field. It is the only error
// Run surfaces; per-request failures are folded into the result's
// error histogram instead.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "invalid load test config: field '" + e.Field + "': " + e.Message
}

func (c *Config) validate() error {
	if c.Concurrency < 1 {
		return &ConfigError{Field: "concurrency", Message: "must be at least 1"}
	}
	if c.Duration <= 0 {
		return &ConfigError{Field: "duration", Message: "must be greater than zero"}
	}
	if c.RampUp < 0 {
		return &ConfigError{Field: "rampUp", Message: "cannot be negative"}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "timeout", Message: "cannot be negative"}
	}
	if c.WarmupCount < 0 {
		return &ConfigError{Field: "warmupCount", Message: "cannot be negative"}
	}
	if c.SampleInterval < 0 {
		return &ConfigError{Field: "sampleInterval", Message: "cannot be negative"}
	}
	if c.Target == nil {
		return &ConfigError{Field: "target", Message: "target is required"}
	}
	return nil
}

// withDefaults returns a copy of the config with zero values replaced
// by defaults.
func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
