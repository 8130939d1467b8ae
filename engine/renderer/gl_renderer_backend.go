package renderer

import (
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/glbinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/gldevice"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/glsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/window"
)

// glVertexArray is a vertex array created for one vertexKey.
type glVertexArray struct {
	layout   *layout.VertexLayout
	va       *gldevice.VertexArray
	versions [2]uint64
}

// glRendererBackend draws through a gldevice.Device into the window's default framebuffer.
type glRendererBackend struct {
	dev    gldevice.Device
	window window.Window
	logger *slog.Logger

	width, height int
	clearColor    wgpu.Color

	arrays map[vertexKey]*glVertexArray
}

var _ rendererBackend = &glRendererBackend{}

func newGLRendererBackend(w window.Window, version int, uniformBuffers *bool, logger *slog.Logger) (*glRendererBackend, error) {
	opts := []gldevice.Option{gldevice.WithLogger(logger), gldevice.WithVersion(version)}
	if uniformBuffers != nil {
		opts = append(opts, gldevice.WithUniformBuffers(*uniformBuffers))
	}
	dev, err := gldevice.New(opts...)
	if err != nil {
		return nil, err
	}
	return &glRendererBackend{
		dev:        dev,
		window:     w,
		logger:     logger,
		clearColor: wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		arrays:     map[vertexKey]*glVertexArray{},
	}, nil
}

func (b *glRendererBackend) UploadTexture(d *resource.Data, usage resource.Usage) (resource.Handle, error) {
	return b.dev.UploadTexture(d, usage)
}

func (b *glRendererBackend) ReleaseTexture(h resource.Handle) {
	b.dev.ReleaseTexture(h)
}

func (b *glRendererBackend) UploadBuffer(data []byte) (resource.Handle, error) {
	return b.dev.UploadBuffer(data)
}

func (b *glRendererBackend) UpdateBuffer(h resource.Handle, data []byte) (resource.Handle, error) {
	return b.dev.UpdateBuffer(h, data)
}

func (b *glRendererBackend) ReleaseBuffer(h resource.Handle) {
	b.dev.ReleaseBuffer(h)
}

// glslVersion picks the GLSL version generated for a context: 430 where storage resources
// exist, 330 otherwise.
func glslVersion(caps glbinder.Caps) int {
	if caps.SupportsStorage() {
		return 430
	}
	return 330
}

func (b *glRendererBackend) Compile(p pipeline.Pipeline, ctx resource.Context) (binder.ResourceBinder, error) {
	caps := b.dev.Caps()
	if p.Type() == pipeline.PipelineTypeCompute && !caps.SupportsStorage() {
		return nil, fmt.Errorf("compute pipeline %s on GL %d: %w", p.PipelineKey(), caps.Version, glbinder.ErrInsufficientCapability)
	}
	src, err := glsl.Generate(p.Program(),
		glsl.WithVersion(glslVersion(caps)),
		glsl.WithUniformBuffers(caps.UniformBuffers && p.Capabilities().UniformBuffers),
	)
	if err != nil {
		return nil, err
	}
	program, err := b.dev.CompileProgram(p.PipelineKey(), src)
	if err != nil {
		return nil, err
	}
	p.SetPipeline(program)
	return glbinder.New(b.dev, ctx, program, p.Layouts(), glbinder.WithLabel(p.PipelineKey()), glbinder.WithLogger(b.logger)), nil
}

func (b *glRendererBackend) ReleasePipeline(p pipeline.Pipeline) {
	for k, a := range b.arrays {
		if k.pipeline == p {
			b.dev.DeleteVertexArray(a.va)
			delete(b.arrays, k)
		}
	}
	if program, ok := p.Pipeline().(uint32); ok {
		b.dev.DeleteProgram(program)
	}
}

func (b *glRendererBackend) ConfigureSurface(width, height int) {
	b.width, b.height = width, height
}

// SetPresentMode does nothing; the swap interval belongs to the window's context.
func (b *glRendererBackend) SetPresentMode(PresentMode) {}

func (b *glRendererBackend) BeginFrame() error {
	b.dev.Clear(b.width, b.height, b.clearColor)
	return nil
}

func (b *glRendererBackend) EndFrame() {}

func (b *glRendererBackend) Present() {
	if b.window != nil {
		b.window.SwapBuffers()
	}
}

func (b *glRendererBackend) BeginComputeFrame() error { return nil }

func (b *glRendererBackend) EndComputeFrame() {}

func (b *glRendererBackend) Begin(p pipeline.Pipeline) {
	b.dev.UseProgram(p.Pipeline().(uint32))
	if p.Type() != pipeline.PipelineTypeRender {
		return
	}
	s := gldevice.RenderState{
		DepthTest:           p.DepthTestEnabled(),
		DepthWrite:          p.DepthWriteEnabled(),
		DepthBias:           p.DepthBias(),
		DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
		CullMode:            p.CullMode(),
		FrontFace:           p.FrontFace(),
		WriteMask:           p.WriteMask(),
	}
	if p.BlendEnabled() {
		s.Blend = p.BlendState()
	}
	b.dev.ApplyState(s)
}

func (b *glRendererBackend) Cancel(pipeline.Pipeline) {}

func (b *glRendererBackend) Draw(p pipeline.Pipeline, geometry, instances mesh.Mesh) error {
	a, err := b.vertexArray(p, geometry, instances)
	if err != nil {
		return err
	}
	b.dev.Draw(a.va, p.Topology(), geometry.Count(), instanceCount(instances))
	return nil
}

// vertexArray returns the vertex array of a draw, creating it on first use and re-uploading
// streams whose mesh changed since.
func (b *glRendererBackend) vertexArray(p pipeline.Pipeline, geometry, instances mesh.Mesh) (*glVertexArray, error) {
	k := vertexKey{pipeline: p, geometry: geometry, instances: instances}
	a, ok := b.arrays[k]
	if !ok {
		vl, err := vertexLayout(p, geometry, instances)
		if err != nil {
			return nil, err
		}
		a = &glVertexArray{
			layout:   vl,
			va:       b.dev.CreateVertexArray(vl, bindingStreams(vl, geometry, instances), geometry.Indices()),
			versions: versions(geometry, instances),
		}
		b.arrays[k] = a
		b.logger.Debug("gl vertex array created", "pipeline", p.PipelineKey(), "mesh", geometry.Label(), "bindings", len(vl.Bindings))
		return a, nil
	}

	v := versions(geometry, instances)
	if v == a.versions {
		return a, nil
	}
	for i, vb := range a.layout.Bindings {
		src := source(vb, geometry, instances)
		if (src == geometry && v[0] != a.versions[0]) || (src == instances && v[1] != a.versions[1]) {
			b.dev.UpdateVertexBuffer(a.va, i, src.Stream(vb.Integer))
		}
	}
	a.versions = v
	return a, nil
}

func (b *glRendererBackend) Dispatch(_ pipeline.Pipeline, workgroups [3]uint32) {
	b.dev.Dispatch(workgroups[0], workgroups[1], workgroups[2])
}

func (b *glRendererBackend) Release() {
	for k, a := range b.arrays {
		b.dev.DeleteVertexArray(a.va)
		delete(b.arrays, k)
	}
	b.dev.Release()
}
