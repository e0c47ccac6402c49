package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rideops/surge/internal/config"
	"github.com/rideops/surge/internal/loadtest"
	"github.com/rideops/surge/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load test against an endpoint",
	Long: `Execute a load test with configurable concurrency, duration, ramp-up,
and per-request timeout.

Quick CLI mode (single endpoint):
  surge run --url https://api.example.com/health \
    --concurrency 25 --duration 1m --ramp-up 5s

Config file mode (one or more tests):
  surge run --config tests.yaml`,
	RunE: runLoadTests,
}

func init() {
	runCmd.Flags().String("url", "", "Endpoint URL to load test")
	runCmd.Flags().String("config", "", "YAML test definition file")
	runCmd.Flags().IntP("concurrency", "c", 10, "Number of concurrent workers")
	runCmd.Flags().StringP("duration", "d", "30s", "Test duration")
	runCmd.Flags().String("ramp-up", "5s", "Window to stagger worker start times across")
	runCmd.Flags().String("timeout", "5s", "Per-request timeout")
	runCmd.Flags().Int("warmup", 5, "Priming requests excluded from statistics")
	runCmd.Flags().String("check", "", "Response body check as 'gjson.path=value'")
	runCmd.Flags().Bool("json", false, "Print the result as JSON")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")
	runCmd.Flags().Bool("no-color", false, "Disable colored output")
	runCmd.Flags().BoolP("verbose", "v", false, "Enable engine debug logging")
}

// namedConfig pairs a test name with its engine config.
type namedConfig struct {
	name string
	cfg  loadtest.Config
}

func runLoadTests(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	url, _ := cmd.Flags().GetString("url")
	jsonOut, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("cannot create logger: %w", err)
		}
		defer dev.Sync()
		logger = dev
	}

	var tests []namedConfig
	switch {
	case configFile != "":
		file, err := config.Load(configFile)
		if err != nil {
			return err
		}
		for i := range file.Tests {
			cfg, err := file.Tests[i].ToConfig()
			if err != nil {
				return fmt.Errorf("test '%s': %w", file.Tests[i].Name, err)
			}
			cfg.Logger = logger
			tests = append(tests, namedConfig{name: file.Tests[i].Name, cfg: cfg})
		}
	case url != "":
		nc, err := buildConfigFromFlags(cmd, url)
		if err != nil {
			return err
		}
		nc.cfg.Logger = logger
		tests = append(tests, nc)
	default:
		return fmt.Errorf("either --config or --url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	formatter := output.NewFormatter(os.Stdout, noColor || !output.IsTerminal(os.Stdout))

	for _, test := range tests {
		runner, err := loadtest.NewRunner(test.cfg)
		if err != nil {
			return err
		}

		progressCtx, progressStop := context.WithCancel(ctx)
		progressDone := make(chan struct{})
		if !quiet && !jsonOut {
			fmt.Printf("Running %s (%d workers, %s)...\n", test.name, test.cfg.Concurrency, test.cfg.Duration)
			go printProgress(progressCtx, formatter, runner, progressDone)
		} else {
			close(progressDone)
		}

		result, err := runner.Run(ctx)
		progressStop()
		<-progressDone
		if err != nil {
			return err
		}

		if jsonOut {
			if err := formatter.PrintJSON(result); err != nil {
				return err
			}
			continue
		}
		formatter.PrintLoadTestResult(test.name, result)
	}

	return nil
}

// printProgress prints a live snapshot line every second until the
// context ends or done is observed by Run returning.
func printProgress(ctx context.Context, formatter *output.Formatter, runner *loadtest.Runner, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	live := runner.Live()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := live.Snapshot()
			if snap.TotalRequests == 0 {
				continue
			}
			formatter.PrintProgress(snap)
		}
	}
}

// buildConfigFromFlags assembles a single-endpoint config from CLI
// flags.
func buildConfigFromFlags(cmd *cobra.Command, url string) (namedConfig, error) {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	durationStr, _ := cmd.Flags().GetString("duration")
	rampUpStr, _ := cmd.Flags().GetString("ramp-up")
	timeoutStr, _ := cmd.Flags().GetString("timeout")
	warmup, _ := cmd.Flags().GetInt("warmup")
	check, _ := cmd.Flags().GetString("check")

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return namedConfig{}, fmt.Errorf("invalid duration '%s': %w", durationStr, err)
	}
	rampUp, err := time.ParseDuration(rampUpStr)
	if err != nil {
		return namedConfig{}, fmt.Errorf("invalid ramp-up '%s': %w", rampUpStr, err)
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return namedConfig{}, fmt.Errorf("invalid timeout '%s': %w", timeoutStr, err)
	}

	target := loadtest.Endpoint{URL: url}
	if check != "" {
		bodyCheck, err := parseCheckFlag(check)
		if err != nil {
			return namedConfig{}, err
		}
		target.Check = bodyCheck
	}

	return namedConfig{
		name: url,
		cfg: loadtest.Config{
			Concurrency: concurrency,
			Duration:    duration,
			RampUp:      rampUp,
			Timeout:     timeout,
			WarmupCount: warmup,
			Target:      target,
		},
	}, nil
}

// parseCheckFlag parses "path=value" into a body check.
func parseCheckFlag(raw string) (*loadtest.BodyCheck, error) {
	path, value, found := strings.Cut(raw, "=")
	if !found || path == "" {
		return nil, fmt.Errorf("invalid check '%s', expected 'path=value'", raw)
	}
	return &loadtest.BodyCheck{Path: path, Equals: value}, nil
}
