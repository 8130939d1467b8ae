package resource

import "log/slog"

// ContextOption is a functional option used to configure a Context during construction.
type ContextOption func(*residencyContext)

// WithExecutor replaces the worker pool used for async decoding.
//
// Parameters:
//   - e: the executor
//
// Returns:
//   - ContextOption: a function that sets the executor
func WithExecutor(e Executor) ContextOption {
	return func(c *residencyContext) {
		c.executor = e
	}
}

// WithWorkers sizes the default worker pool.
//
// Parameters:
//   - workers: the maximum number of decode goroutines
//   - queue: the task queue length
//
// Returns:
//   - ContextOption: a function that sets the pool size
func WithWorkers(workers, queue int) ContextOption {
	return func(c *residencyContext) {
		c.workers = max(workers, 1)
		c.queue = max(queue, 1)
	}
}

// WithLogger sets the logger used for load and upload events.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ContextOption: a function that sets the logger
func WithLogger(l *slog.Logger) ContextOption {
	return func(c *residencyContext) {
		c.logger = l
	}
}
