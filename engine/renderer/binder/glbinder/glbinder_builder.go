package glbinder

import "log/slog"

// Option is a functional option used to configure a GL binder during construction.
type Option func(*glBinder)

// WithLabel sets the debug label used in log records, usually the pipeline key.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - Option: a function that sets the label
func WithLabel(label string) Option {
	return func(b *glBinder) {
		b.label = label
	}
}

// WithLogger sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - Option: a function that sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *glBinder) {
		b.logger = logger
	}
}
