package wgpubinder

import "log/slog"

// Option is a functional option used to configure a WebGPU binder during construction.
type Option func(*wgpuBinder)

// WithLabel sets the label of created layouts and the pipeline name in log records.
func WithLabel(label string) Option {
	return func(b *wgpuBinder) {
		b.label = label
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *wgpuBinder) {
		b.logger = logger
	}
}
