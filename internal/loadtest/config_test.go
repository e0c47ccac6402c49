package loadtest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validCallableConfig() Config {
	return Config{
		Concurrency: 1,
		Duration:    100 * time.Millisecond,
		Target:      Callable(func(ctx context.Context) error { return nil }),
	}
}

func TestNewRunner_InvalidConcurrency(t *testing.T) {
	cfg := validCallableConfig()
	cfg.Concurrency = 0

	_, err := NewRunner(cfg)
	if err == nil {
		t.Fatal("NewRunner accepted concurrency 0")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Field != "concurrency" {
		t.Errorf("Field = %q, want concurrency", cfgErr.Field)
	}
}

func TestNewRunner_InvalidDuration(t *testing.T) {
	cfg := validCallableConfig()
	cfg.Duration = 0

	_, err := NewRunner(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "duration" {
		t.Errorf("Field = %q, want duration", cfgErr.Field)
	}
}

func TestNewRunner_NegativeFields(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"rampUp", func(c *Config) { c.RampUp = -time.Second }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"warmupCount", func(c *Config) { c.WarmupCount = -1 }},
		{"sampleInterval", func(c *Config) { c.SampleInterval = -time.Second }},
	}

	for _, tt := range tests {
		cfg := validCallableConfig()
		tt.mutate(&cfg)

		_, err := NewRunner(cfg)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: error = %v, want *ConfigError", tt.field, err)
			continue
		}
		if cfgErr.Field != tt.field {
			t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
		}
	}
}

func TestNewRunner_MissingTarget(t *testing.T) {
	cfg := validCallableConfig()
	cfg.Target = nil

	_, err := NewRunner(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "target" {
		t.Errorf("Field = %q, want target", cfgErr.Field)
	}
}

func TestNewRunner_AppliesDefaults(t *testing.T) {
	runner, err := NewRunner(validCallableConfig())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if runner.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", runner.config.Timeout, DefaultTimeout)
	}
	if runner.config.SampleInterval != DefaultSampleInterval {
		t.Errorf("SampleInterval = %v, want %v", runner.config.SampleInterval, DefaultSampleInterval)
	}
	if runner.config.Logger == nil {
		t.Error("Logger should default to a no-op logger, got nil")
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: "concurrency", Message: "must be at least 1"}
	want := "invalid load test config: field 'concurrency': must be at least 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
