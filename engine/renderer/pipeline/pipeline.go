package pipeline

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// ErrNoProgram is returned when a pipeline is created without a program.
var ErrNoProgram = errors.New("pipeline has no program")

// ErrProgramKind is returned when the program kind does not match the pipeline type.
var ErrProgramKind = errors.New("program kind does not match pipeline type")

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	program   *ir.Program
	caps      layout.Capabilities
	mesh      layout.AttributeSource
	instances layout.AttributeSource

	// layouts and vertexLayout are derived once, when the pipeline is created.
	layouts      *layout.Layouts
	vertexLayout *layout.VertexLayout

	// compiled is the backend pipeline object, set by the renderer at registration.
	compiled any

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.
	// These are only used for render pipelines, compute pipelines still set defaults but do not utilize them.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline is a program together with its derived resource layouts and the fixed-function
// render state it is drawn with. The layouts are immutable and shared read-only by every
// State created from the pipeline.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the IR program the pipeline was built from.
	//
	// Returns:
	//   - *ir.Program: the program
	Program() *ir.Program

	// Capabilities returns the target capabilities the layouts were derived for.
	//
	// Returns:
	//   - layout.Capabilities: the capabilities
	Capabilities() layout.Capabilities

	// Layouts returns the bind group layouts of the three scopes.
	//
	// Returns:
	//   - *layout.Layouts: the layouts
	Layouts() *layout.Layouts

	// VertexLayout returns the vertex layout matched against the mesh given with WithMesh,
	// or nil for compute pipelines and pipelines built without a mesh.
	//
	// Returns:
	//   - *layout.VertexLayout: the vertex layout or nil
	VertexLayout() *layout.VertexLayout

	// Pipeline returns the compiled backend pipeline object, a *wgpu.RenderPipeline,
	// *wgpu.ComputePipeline or GL program name depending on the backend.
	// Note: The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the compiled pipeline or nil before registration
	Pipeline() any

	// SetPipeline stores the compiled backend pipeline object.
	//
	// Parameters:
	//   - compiled: the backend pipeline
	SetPipeline(compiled any)

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline and derives its layouts. A program must be supplied with
// WithProgram and its kind must match pipelineType.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
//   - error: ErrNoProgram, ErrProgramKind, or a wrapped validation, layout or vertex layout error
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		caps:              layout.DefaultCapabilities(),
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.program == nil {
		return nil, fmt.Errorf("pipeline: %s: %w", pipelineKey, ErrNoProgram)
	}
	want := ir.ProgramRender
	if pipelineType == PipelineTypeCompute {
		want = ir.ProgramCompute
	}
	if p.program.Kind != want {
		return nil, fmt.Errorf("pipeline: %s: program %q: %w", pipelineKey, p.program.Name, ErrProgramKind)
	}

	layouts, err := layout.Build(p.program, layout.WithCapabilities(p.caps))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", pipelineKey, err)
	}
	p.layouts = layouts

	if pipelineType == PipelineTypeRender && (p.mesh != nil || p.instances != nil) {
		vl, err := layout.BuildVertexLayout(p.program, p.mesh, p.instances)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", pipelineKey, err)
		}
		p.vertexLayout = vl
	}
	return p, nil
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() *ir.Program {
	return p.program
}

func (p *pipeline) Capabilities() layout.Capabilities {
	return p.caps
}

func (p *pipeline) Layouts() *layout.Layouts {
	return p.layouts
}

func (p *pipeline) VertexLayout() *layout.VertexLayout {
	return p.vertexLayout
}

func (p *pipeline) Pipeline() any {
	return p.compiled
}

func (p *pipeline) SetPipeline(compiled any) {
	p.compiled = compiled
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}
