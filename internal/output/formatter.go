// Package output renders engine results for human consumption. It is
// a caller convenience; the result contract itself is the JSON shape
// of the result types.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rideops/surge/internal/bench"
	"github.com/rideops/surge/internal/loadtest"
)

// Formatter writes human-readable summaries of engine results.
type Formatter struct {
	w      io.Writer
	scheme *ColorScheme
}

// NewFormatter creates a formatter writing to w. noColor disables all
// color output.
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{w: w, scheme: scheme}
}

// PrintLoadTestResult prints a load test result summary.
func (f *Formatter) PrintLoadTestResult(name string, res *loadtest.Result) {
	fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprintf("=== %s ===", name))

	f.line("Total requests", fmt.Sprintf("%d", res.TotalRequests))
	f.line("Successful", f.scheme.Success.Sprintf("%d", res.SuccessfulRequests))
	if res.FailedRequests > 0 {
		f.line("Failed", f.scheme.Error.Sprintf("%d", res.FailedRequests))
	} else {
		f.line("Failed", "0")
	}
	f.line("Requests/sec", fmt.Sprintf("%.2f", res.RequestsPerSecond))

	fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprint("Latency (ms)"))
	f.line("avg", formatMs(res.AverageResponseTime))
	f.line("min", formatMs(res.MinResponseTime))
	f.line("max", formatMs(res.MaxResponseTime))
	f.line("p50", formatMs(res.Percentiles.P50))
	f.line("p90", formatMs(res.Percentiles.P90))
	f.line("p95", formatMs(res.Percentiles.P95))
	f.line("p99", formatMs(res.Percentiles.P99))

	fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprint("Memory"))
	f.line("initial heap", formatBytes(res.MemoryUsage.Initial.HeapUsed))
	f.line("peak heap", formatBytes(res.MemoryUsage.Peak.HeapUsed))
	f.line("final heap", formatBytes(res.MemoryUsage.Final.HeapUsed))

	if len(res.Errors) > 0 {
		fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprint("Errors"))
		for _, e := range res.Errors {
			f.line(e.Error, fmt.Sprintf("%d", e.Count))
		}
	}
}

// PrintIterativeResult prints a sequential benchmark summary.
func (f *Formatter) PrintIterativeResult(name string, res *bench.IterativeResult) {
	fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprintf("=== %s ===", name))

	f.line("Iterations", fmt.Sprintf("%d", res.Iterations))
	f.line("Mean duration", res.MeanDuration.String())
	f.line("Min duration", res.MinDuration.String())
	f.line("Max duration", res.MaxDuration.String())
	f.line("Mean memory delta", formatSignedBytes(res.MeanMemoryDelta))
	f.line("Total duration", res.TotalDuration.String())
}

// PrintLeakReport prints a leak detection summary.
func (f *Formatter) PrintLeakReport(name string, rep *bench.LeakReport) {
	fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprintf("=== %s ===", name))

	f.line("Iterations", fmt.Sprintf("%d", rep.Iterations))
	f.line("Initial heap", formatBytes(rep.InitialHeap))
	f.line("Peak heap", formatBytes(rep.PeakHeap))
	f.line("Final heap", formatBytes(rep.FinalHeap))
	f.line("Heap growth", fmt.Sprintf("%.1f%%", rep.GrowthPercent))

	if rep.PotentialLeak {
		f.line("Verdict", f.scheme.Error.Sprint("potential leak"))
	} else {
		f.line("Verdict", f.scheme.Success.Sprint("no leak detected"))
	}
}

// PrintProgress prints one line of in-flight run progress.
func (f *Formatter) PrintProgress(snap loadtest.LiveSnapshot) {
	fmt.Fprintf(f.w, "  %s elapsed | %d reqs | %.1f rps | p95 %s | %d failed\n",
		snap.Elapsed.Truncate(time.Second),
		snap.TotalRequests,
		snap.RequestsPerSecond,
		snap.P95.Truncate(time.Microsecond),
		snap.FailedRequests)
}

// PrintJSON writes v as indented JSON.
func (f *Formatter) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) line(label, value string) {
	fmt.Fprintf(f.w, "  %s %s\n", f.scheme.Label.Sprintf("%-18s", label+":"), value)
}

func formatMs(ms float64) string {
	return fmt.Sprintf("%.2f", ms)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatSignedBytes(b int64) string {
	if b < 0 {
		return "-" + formatBytes(uint64(-b))
	}
	return formatBytes(uint64(b))
}
