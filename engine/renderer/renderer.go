package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/window"
)

var (
	// ErrPipelineNotFound is returned when a draw or dispatch names an unregistered pipeline.
	ErrPipelineNotFound = errors.New("pipeline not registered")
	// ErrPipelineType is returned when a render pipeline is dispatched or a compute pipeline drawn.
	ErrPipelineType = errors.New("wrong pipeline type")
	// ErrStateMismatch is returned when a state belongs to a different pipeline than the one named.
	ErrStateMismatch = errors.New("state belongs to another pipeline")
)

// registration is a registered pipeline and the binder compiled for it.
type registration struct {
	pipeline pipeline.Pipeline
	binder   binder.ResourceBinder
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]*registration

	backendType RendererBackendType
	backend     rendererBackend
	ctx         resource.Context
	profiler    *profiler.Profiler
	logger      *slog.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	msaa                 MSAASampleCount
	glVersion            int
	uniformBuffers       *bool
	contextOptions       []resource.ContextOption
}

// Renderer defines the interface for the rendering system.
//
// The Renderer compiles registered pipelines for its backend, owns the resource context every
// texture and storage buffer becomes resident in, and issues draws and dispatches only once
// every resource a pipeline state references is ready.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines generates and compiles each pipeline's program for the backend and
	// builds the binder that resolves its layouts. Pipelines whose keys are already registered
	// are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if code generation or backend compilation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// UnregisterPipeline releases the binder and backend objects of a registered pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	UnregisterPipeline(key string)

	// Context returns the resource context textures and storage buffers are made resident in.
	//
	// Returns:
	//   - resource.Context: the context
	Context() resource.Context

	// Profiler returns the profiler draw statistics are recorded in.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required after
	// changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame installs finished texture loads, sweeps unused residency and begins the main
	// render pass. Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawCall resolves the state's resources exactly once and, when every one is ready,
	// draws geometry with the named pipeline. The state is set up on first use.
	//
	// Parameters:
	//   - key: the render pipeline key
	//   - state: the pipeline state whose bind groups are pushed
	//   - geometry: the per-vertex data
	//   - instances: the per-instance data, or nil for a single instance
	//
	// Returns:
	//   - bool: false when the draw was skipped because a resource is not ready
	//   - error: ErrPipelineNotFound, ErrPipelineType, ErrStateMismatch or a backend error
	DrawCall(key string, state pipeline.State, geometry, instances mesh.Mesh) (bool, error)

	// BeginComputeFrame begins batching compute dispatches. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute resolves the state's resources exactly once and, when every one is
	// ready, dispatches the named compute pipeline.
	//
	// Parameters:
	//   - key: the compute pipeline key
	//   - state: the pipeline state whose bind groups are pushed
	//   - workgroups: the number of workgroups in x, y and z
	//
	// Returns:
	//   - bool: false when the dispatch was skipped because a resource is not ready
	//   - error: ErrPipelineNotFound, ErrPipelineType or ErrStateMismatch
	DispatchCompute(key string, state pipeline.State, workgroups [3]uint32) (bool, error)

	// EndComputeFrame submits the batched compute dispatches.
	EndComputeFrame()

	// EndFrame ends the main render pass and submits it.
	EndFrame()

	// Present presents the frame and ticks the profiler.
	Present()

	// Release frees every binder, backend pipeline and resident resource, then the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the given backend drawing into window.
//
// Parameters:
//   - backendType: BackendTypeWGPU or BackendTypeGL
//   - window: the window to present to, created with the matching client API
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the backend could not be initialised
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]*registration),
		backendType:   backendType,
		logger:        slog.Default(),
		msaa:          MSAA4x,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.profiler == nil {
		r.profiler = profiler.NewProfiler(profiler.WithLogger(r.logger))
	}

	if r.backend == nil {
		var err error
		switch backendType {
		case BackendTypeGL:
			r.backend, err = newGLRendererBackend(window, r.glVersion, r.uniformBuffers, r.logger)
		default:
			r.backend, err = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa, r.logger)
		}
		if err != nil {
			return nil, fmt.Errorf("renderer: %s backend: %w", backendType, err)
		}
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if window != nil {
		r.backend.ConfigureSurface(window.Width(), window.Height())
	}

	r.ctx = resource.NewContext(r.backend, append([]resource.ContextOption{resource.WithLogger(r.logger)}, r.contextOptions...)...)
	r.logger.Debug("renderer created", "backend", backendType)
	return r, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.pipelineCache[key]; ok {
		return reg.pipeline
	}
	return nil
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		b, err := r.backend.Compile(p, r.ctx)
		if err != nil {
			return fmt.Errorf("renderer: register %s: %w", key, err)
		}
		r.pipelineCache[key] = &registration{pipeline: p, binder: b}
		r.logger.Debug("pipeline registered", "key", key, "program", p.Program().Name)
	}
	return nil
}

func (r *renderer) UnregisterPipeline(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.pipelineCache[key]
	if !ok {
		return
	}
	reg.binder.Release()
	r.backend.ReleasePipeline(reg.pipeline)
	delete(r.pipelineCache, key)
}

func (r *renderer) Context() resource.Context {
	return r.ctx
}

func (r *renderer) Profiler() *profiler.Profiler {
	return r.profiler
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame() error {
	if n := r.ctx.Poll(); n > 0 {
		r.logger.Debug("texture loads installed", "count", n)
	}
	return r.backend.BeginFrame()
}

// lookup returns the registration of key after checking its type and the state's pipeline.
func (r *renderer) lookup(key string, want pipeline.PipelineType, state pipeline.State) (*registration, error) {
	r.mu.Lock()
	reg, ok := r.pipelineCache[key]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("renderer: %q: %w", key, ErrPipelineNotFound)
	}
	if reg.pipeline.Type() != want {
		return nil, fmt.Errorf("renderer: %q: %w", key, ErrPipelineType)
	}
	if state.Pipeline() != reg.pipeline {
		return nil, fmt.Errorf("renderer: %q: state %q: %w", key, state.Label(), ErrStateMismatch)
	}
	return reg, nil
}

func (r *renderer) DrawCall(key string, state pipeline.State, geometry, instances mesh.Mesh) (bool, error) {
	reg, err := r.lookup(key, pipeline.PipelineTypeRender, state)
	if err != nil {
		return false, err
	}
	if layout.IsNil(geometry) {
		geometry = nil
	}
	if layout.IsNil(instances) {
		instances = nil
	}
	state.Setup()

	r.backend.Begin(reg.pipeline)
	if !reg.binder.Resolve(state.Groups()...) {
		r.backend.Cancel(reg.pipeline)
		r.profiler.Skip()
		r.logger.Debug("draw skipped, resources not ready", "pipeline", key, "state", state.Label())
		return false, nil
	}
	if err := r.backend.Draw(reg.pipeline, geometry, instances); err != nil {
		return false, fmt.Errorf("renderer: draw %q: %w", key, err)
	}
	r.profiler.Draw()
	return true, nil
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) DispatchCompute(key string, state pipeline.State, workgroups [3]uint32) (bool, error) {
	reg, err := r.lookup(key, pipeline.PipelineTypeCompute, state)
	if err != nil {
		return false, err
	}
	state.Setup()

	r.backend.Begin(reg.pipeline)
	if !reg.binder.Resolve(state.Groups()...) {
		r.backend.Cancel(reg.pipeline)
		r.profiler.Skip()
		r.logger.Debug("dispatch skipped, resources not ready", "pipeline", key, "state", state.Label())
		return false, nil
	}
	r.backend.Dispatch(reg.pipeline, workgroups)
	r.profiler.Dispatch()
	return true, nil
}

func (r *renderer) EndComputeFrame() {
	r.backend.EndComputeFrame()
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
	r.profiler.Tick()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, reg := range r.pipelineCache {
		reg.binder.Release()
		r.backend.ReleasePipeline(reg.pipeline)
		delete(r.pipelineCache, key)
	}
	r.ctx.Close()
	r.backend.Release()
}
