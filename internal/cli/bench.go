package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rideops/surge/internal/bench"
	"github.com/rideops/surge/internal/output"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark a single endpoint sequentially",
	Long: `Measure a single endpoint's hot path without concurrency: the request
is issued N times in sequence and the mean, min, and max duration are
reported along with the mean memory delta.

  surge bench --url https://api.example.com/health --iterations 100`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().String("url", "", "Endpoint URL to benchmark")
	benchCmd.Flags().IntP("iterations", "n", 100, "Number of sequential invocations")
	benchCmd.Flags().String("timeout", "5s", "Per-request timeout")
	benchCmd.Flags().Bool("json", false, "Print the result as JSON")
	benchCmd.Flags().Bool("no-color", false, "Disable colored output")
	benchCmd.MarkFlagRequired("url")
}

func runBench(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	iterations, _ := cmd.Flags().GetInt("iterations")
	timeoutStr, _ := cmd.Flags().GetString("timeout")
	jsonOut, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return fmt.Errorf("invalid timeout '%s': %w", timeoutStr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := bench.RunIterative(ctx, iterations, endpointOperation(url, timeout))
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(os.Stdout, noColor || !output.IsTerminal(os.Stdout))
	if jsonOut {
		return formatter.PrintJSON(result)
	}
	formatter.PrintIterativeResult(url, result)
	return nil
}

// endpointOperation returns an operation performing one GET against
// url, draining the body so connection reuse and allocation behavior
// match a real caller.
func endpointOperation(url string, timeout time.Duration) func(ctx context.Context) error {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 400 {
			return errors.New(resp.Status)
		}
		return nil
	}
}
