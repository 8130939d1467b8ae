package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-shader/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count of the WebGPU backend.
// When not specified, the default is MSAA4x.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.msaa = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithGLVersion caps the OpenGL version the GL backend generates and binds for, e.g. 330 to
// exercise the GL 3.3 paths on a 4.x driver.
//
// Parameters:
//   - version: the version times one hundred plus the minor version times ten
//
// Returns:
//   - RendererBuilderOption: a function that sets the version cap
func WithGLVersion(version int) RendererBuilderOption {
	return func(r *renderer) {
		r.glVersion = version
	}
}

// WithUniformBuffers disables uniform buffer objects on the GL backend when enabled is false,
// making every uniform a plain uniform.
//
// Parameters:
//   - enabled: whether uniform buffers may be used
//
// Returns:
//   - RendererBuilderOption: a function that sets the override
func WithUniformBuffers(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.uniformBuffers = &enabled
	}
}

// WithLogger sets the logger the renderer, its backend and its resource context write to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logger
	}
}

// WithProfiler sets the profiler draw statistics are recorded in.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - RendererBuilderOption: a function that sets the profiler
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}

// WithContextOptions passes options to the resource context, such as the texture worker pool size.
//
// Parameters:
//   - options: the resource context options
//
// Returns:
//   - RendererBuilderOption: a function that appends the options
func WithContextOptions(options ...resource.ContextOption) RendererBuilderOption {
	return func(r *renderer) {
		r.contextOptions = append(r.contextOptions, options...)
	}
}

// withBackend replaces the GPU backend, for tests.
func withBackend(b rendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}
