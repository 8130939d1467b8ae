package profiler

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Profiler via NewProfiler.
type Option func(*Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - Option: a function that sets the interval
func WithInterval(interval time.Duration) Option {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithLogger sets the logger statistics are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - Option: a function that sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// WithMemoryStats enables or disables the heap and GC statistics, which stop the world briefly
// to read.
//
// Parameters:
//   - enabled: whether memory statistics are read
//
// Returns:
//   - Option: a function that sets the flag
func WithMemoryStats(enabled bool) Option {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: the function returning the current time
//
// Returns:
//   - Option: a function that sets the clock
func WithClock(now func() time.Time) Option {
	return func(p *Profiler) {
		p.now = now
	}
}
