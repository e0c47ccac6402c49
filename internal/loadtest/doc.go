// Package loadtest implements the load generation and measurement core.
//
// A Runner owns one test run: it staggers concurrent workers across a
// ramp-up window, races every request against a per-request timeout,
// samples process memory on a fixed interval, and folds the raw samples
// into a Result. Runners are single-use; create a new one (or call
// Reset) between runs.
//
// The package does not decide pass/fail policy, does not persist
// results, and does not retry failed requests. Callers compare the
// returned numbers against their own thresholds.
package loadtest
