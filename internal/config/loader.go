// Package config loads and validates load test definition files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rideops/surge/internal/loadtest"
)

// File is a load test definition file: a named collection of endpoint
// tests run one after another.
type File struct {
	Name  string     `yaml:"name" json:"name"`
	Tests []TestSpec `yaml:"tests" json:"tests"`
}

// TestSpec is one endpoint load test as written in YAML. Durations are
// strings like "30s" or "1m".
type TestSpec struct {
	Name        string            `yaml:"name" json:"name"`
	URL         string            `yaml:"url" json:"url"`
	Method      string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty" json:"body,omitempty"`
	Concurrency int               `yaml:"concurrency" json:"concurrency"`
	Duration    string            `yaml:"duration" json:"duration"`
	RampUp      string            `yaml:"rampUp,omitempty" json:"rampUp,omitempty"`
	Timeout     string            `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Warmup      int               `yaml:"warmup,omitempty" json:"warmup,omitempty"`
	Check       *CheckSpec        `yaml:"check,omitempty" json:"check,omitempty"`
}

// CheckSpec asserts on the JSON response body: the value at Path must
// equal Equals.
type CheckSpec struct {
	Path   string `yaml:"path" json:"path"`
	Equals string `yaml:"equals" json:"equals"`
}

// Load reads a YAML definition file and validates it against the
// embedded schema.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses and validates a YAML definition.
func Parse(data []byte) (*File, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &file, nil
}

// ToConfig converts the spec into an engine config. Ramp-up and
// timeout fall back to the engine defaults when unset.
func (t *TestSpec) ToConfig() (loadtest.Config, error) {
	duration, err := parseDurationString(t.Duration)
	if err != nil {
		return loadtest.Config{}, fmt.Errorf("invalid duration '%s': %w", t.Duration, err)
	}

	var rampUp time.Duration
	if t.RampUp != "" {
		if rampUp, err = parseDurationString(t.RampUp); err != nil {
			return loadtest.Config{}, fmt.Errorf("invalid ramp-up duration '%s': %w", t.RampUp, err)
		}
	}

	var timeout time.Duration
	if t.Timeout != "" {
		if timeout, err = parseDurationString(t.Timeout); err != nil {
			return loadtest.Config{}, fmt.Errorf("invalid timeout '%s': %w", t.Timeout, err)
		}
	}

	target := loadtest.Endpoint{
		URL:     t.URL,
		Method:  t.Method,
		Headers: t.Headers,
		Body:    t.Body,
	}
	if t.Check != nil {
		target.Check = &loadtest.BodyCheck{Path: t.Check.Path, Equals: t.Check.Equals}
	}

	return loadtest.Config{
		Concurrency: t.Concurrency,
		Duration:    duration,
		RampUp:      rampUp,
		Timeout:     timeout,
		WarmupCount: t.Warmup,
		Target:      target,
	}, nil
}

// parseDurationString parses duration strings like "30s", "5m", "1h",
// including spelled-out forms like "30 seconds".
func parseDurationString(duration string) (time.Duration, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}

	if d, err := time.ParseDuration(duration); err == nil {
		return d, nil
	}

	duration = strings.ToLower(duration)
	duration = strings.ReplaceAll(duration, " ", "")

	replacements := map[string]string{
		"seconds": "s",
		"second":  "s",
		"minutes": "m",
		"minute":  "m",
		"hours":   "h",
		"hour":    "h",
	}
	for word, abbrev := range replacements {
		duration = strings.ReplaceAll(duration, word, abbrev)
	}

	return time.ParseDuration(duration)
}
