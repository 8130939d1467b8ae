package renderer

import (
	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeGL selects the OpenGL backend. The window must carry a current OpenGL context.
	BackendTypeGL
)

func (t RendererBackendType) String() string {
	if t == BackendTypeGL {
		return "gl"
	}
	return "wgpu"
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4. The OpenGL backend draws to the default
// framebuffer and ignores it.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// rendererBackend is implemented once per GPU API. It also uploads the textures and storage
// buffers of the renderer's resource context.
type rendererBackend interface {
	resource.Uploader

	// Compile generates backend source for p, creates its backend pipeline object, stores it
	// with p.SetPipeline and returns the binder resolving p's layouts.
	Compile(p pipeline.Pipeline, ctx resource.Context) (binder.ResourceBinder, error)

	// ReleasePipeline destroys the backend objects Compile created for p.
	ReleasePipeline(p pipeline.Pipeline)

	ConfigureSurface(width, height int)
	SetPresentMode(mode PresentMode)

	BeginFrame() error
	EndFrame()
	Present()
	BeginComputeFrame() error
	EndComputeFrame()

	// Begin makes p current so the binder's calls that follow target it.
	Begin(p pipeline.Pipeline)
	// Cancel abandons the work started by Begin when resolution reports not-ready.
	Cancel(p pipeline.Pipeline)
	// Draw issues the draw of geometry, instanced over instances when non-nil.
	Draw(p pipeline.Pipeline, geometry, instances mesh.Mesh) error
	// Dispatch issues the compute dispatch of p.
	Dispatch(p pipeline.Pipeline, workgroups [3]uint32)

	Release()
}
