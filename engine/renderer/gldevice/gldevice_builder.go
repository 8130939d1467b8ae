package gldevice

import "log/slog"

// Option is a functional option for configuring a Device via New.
type Option func(*device)

// WithLogger sets the logger device events are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - Option: a function that sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *device) {
		d.logger = logger
	}
}

// WithVersion caps the reported GL version below the one the context provides, to exercise
// older code paths on a newer driver.
//
// Parameters:
//   - version: the version times one hundred plus the minor version times ten, e.g. 330
//
// Returns:
//   - Option: a function that sets the version cap
func WithVersion(version int) Option {
	return func(d *device) {
		d.version = version
	}
}

// WithUniformBuffers disables uniform buffer objects when enabled is false, even on contexts
// that support them.
//
// Parameters:
//   - enabled: whether uniform buffers may be used
//
// Returns:
//   - Option: a function that sets the override
func WithUniformBuffers(enabled bool) Option {
	return func(d *device) {
		d.ubo = &enabled
	}
}
