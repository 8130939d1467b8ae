// Package profiler tracks frame rate, draw statistics and memory use, and logs them at a
// fixed interval.
package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Stats is the counters of one reporting interval.
type Stats struct {
	Frames     int
	Draws      int
	Skipped    int
	Dispatches int
	FPS        float64
}

// Profiler tracks frame rate, draw and memory statistics for performance monitoring.
// It is not safe for concurrent use; the renderer calls it from the render thread.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Time
	updateInterval time.Duration
	readMem        bool

	current  Stats
	last     Stats
	lastTime time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of Option functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...Option) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		now:            time.Now,
		updateInterval: time.Second,
		readMem:        true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Draw records an issued draw call.
func (p *Profiler) Draw() { p.current.Draws++ }

// Skip records a draw or dispatch skipped because its resources were not ready.
func (p *Profiler) Skip() { p.current.Skipped++ }

// Dispatch records an issued compute dispatch.
func (p *Profiler) Dispatch() { p.current.Dispatches++ }

// Current returns the counters of the interval in progress.
func (p *Profiler) Current() Stats { return p.current }

// Last returns the statistics of the most recent complete interval.
func (p *Profiler) Last() Stats { return p.last }

// Tick should be called once per frame. It logs the statistics of the interval once the
// update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.current.Frames++
	now := p.now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	p.current.FPS = float64(p.current.Frames) / elapsed.Seconds()
	attrs := []any{
		"fps", p.current.FPS,
		"draws", p.current.Draws,
		"skipped", p.current.Skipped,
		"dispatches", p.current.Dispatches,
	}
	if p.readMem {
		attrs = append(attrs, p.memory(elapsed)...)
	}
	p.logger.Info("profiler", attrs...)

	p.last = p.current
	p.current = Stats{}
	p.lastTime = now
	return true
}

// memory reads heap and GC statistics since the previous interval.
func (p *Profiler) memory(elapsed time.Duration) []any {
	runtime.ReadMemStats(&p.memStats)
	allocRate := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPause, maxPause uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPause = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPause = max(maxPause, p.memStats.PauseNs[i%256]/1000)
		}
	}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc

	return []any{
		"heapMB", float64(p.memStats.Alloc) / 1024 / 1024,
		"allocMBps", allocRate,
		"gc", gcCount,
		"lastPauseUs", lastPause,
		"maxPauseUs", maxPause,
		"sysMB", float64(p.memStats.Sys) / 1024 / 1024,
	}
}
