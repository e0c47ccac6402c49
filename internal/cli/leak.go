package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/rideops/surge/internal/bench"
	"github.com/rideops/surge/internal/output"
)

var leakCmd = &cobra.Command{
	Use:   "leak",
	Short: "Detect memory growth across repeated invocations",
	Long: `Run an endpoint request N times in sequence and compare heap usage
before the first and after the last iteration. Growth beyond the
threshold flags a potential leak.

  surge leak --url https://api.example.com/health --iterations 50`,
	RunE: runLeak,
}

func init() {
	leakCmd.Flags().String("url", "", "Endpoint URL to exercise")
	leakCmd.Flags().IntP("iterations", "n", 50, "Number of sequential invocations")
	leakCmd.Flags().String("timeout", "5s", "Per-request timeout")
	leakCmd.Flags().Float64("threshold", bench.DefaultGrowthThreshold, "Heap growth percentage that flags a leak")
	leakCmd.Flags().Bool("force-gc", true, "Force a collection cycle around heap readings")
	leakCmd.Flags().Bool("json", false, "Print the result as JSON")
	leakCmd.Flags().Bool("no-color", false, "Disable colored output")
	leakCmd.MarkFlagRequired("url")
}

func runLeak(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	iterations, _ := cmd.Flags().GetInt("iterations")
	timeoutStr, _ := cmd.Flags().GetString("timeout")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	forceGC, _ := cmd.Flags().GetBool("force-gc")
	jsonOut, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return fmt.Errorf("invalid timeout '%s': %w", timeoutStr, err)
	}

	cfg := bench.LeakConfig{
		Iterations:      iterations,
		GrowthThreshold: threshold,
	}
	if forceGC {
		cfg.Compact = runtime.GC
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := bench.DetectLeak(ctx, cfg, endpointOperation(url, timeout))
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(os.Stdout, noColor || !output.IsTerminal(os.Stdout))
	if jsonOut {
		return formatter.PrintJSON(report)
	}
	formatter.PrintLeakReport(url, report)
	return nil
}
