//go:build !linux && !darwin

package instrument

import "time"

// processCPUTime reports no CPU reading on platforms without rusage;
// the measured delta stays zero.
func processCPUTime() (time.Duration, bool) {
	return 0, false
}
