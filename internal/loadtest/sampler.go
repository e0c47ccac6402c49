package loadtest

import (
	"runtime"
	"time"
)

// MemorySnapshot is a point-in-time reading of process memory usage,
// taken independently of request execution.
type MemorySnapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	HeapUsed    uint64    `json:"heapUsed"`
	HeapObjects uint64    `json:"heapObjects"`
	RSS         uint64    `json:"rss"`
	NumGC       uint32    `json:"numGC"`
}

// TakeMemorySnapshot reads the runtime's memory statistics.
func TakeMemorySnapshot() MemorySnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return MemorySnapshot{
		Timestamp:   time.Now(),
		HeapUsed:    ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		RSS:         ms.Sys,
		NumGC:       ms.NumGC,
	}
}

// memorySampler takes snapshots on a fixed interval for the whole run
// window. It writes to its own slice only, so it needs no coordination
// with the workers beyond starting and stopping together.
type memorySampler struct {
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	snapshots []MemorySnapshot
}

func newMemorySampler(interval time.Duration) *memorySampler {
	return &memorySampler{
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// start takes an immediate snapshot and begins periodic sampling.
func (s *memorySampler) start() {
	s.snapshots = append(s.snapshots, TakeMemorySnapshot())
	go s.loop()
}

func (s *memorySampler) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.snapshots = append(s.snapshots, TakeMemorySnapshot())
		}
	}
}

// stop ends periodic sampling, takes a final snapshot, and returns the
// collected sequence. Safe to read only after stop returns.
func (s *memorySampler) stop() []MemorySnapshot {
	close(s.stopCh)
	<-s.doneCh

	s.snapshots = append(s.snapshots, TakeMemorySnapshot())
	return s.snapshots
}
