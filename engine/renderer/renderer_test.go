package renderer

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

type fakeBinder struct {
	ready    bool
	resolves int
	released bool
}

func (b *fakeBinder) Resolve(...bind_group_provider.BindGroupProvider) bool {
	b.resolves++
	return b.ready
}

func (b *fakeBinder) Release() { b.released = true }

type fakeBackend struct {
	binders    map[string]*fakeBinder
	compileErr error
	calls      []string
	draws      int
	dispatches [][3]uint32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{binders: map[string]*fakeBinder{}}
}

func (f *fakeBackend) UploadTexture(*resource.Data, resource.Usage) (resource.Handle, error) {
	return "texture", nil
}
func (f *fakeBackend) ReleaseTexture(resource.Handle) {}
func (f *fakeBackend) UploadBuffer([]byte) (resource.Handle, error) { return "buffer", nil }
func (f *fakeBackend) UpdateBuffer(h resource.Handle, _ []byte) (resource.Handle, error) { return h, nil }
func (f *fakeBackend) ReleaseBuffer(resource.Handle) {}

func (f *fakeBackend) Compile(p pipeline.Pipeline, _ resource.Context) (binder.ResourceBinder, error) {
	if f.compileErr != nil {
		return nil, f.compileErr
	}
	f.calls = append(f.calls, "compile "+p.PipelineKey())
	b := &fakeBinder{ready: true}
	f.binders[p.PipelineKey()] = b
	return b, nil
}

func (f *fakeBackend) ReleasePipeline(p pipeline.Pipeline) {
	f.calls = append(f.calls, "release "+p.PipelineKey())
}

func (f *fakeBackend) ConfigureSurface(int, int) {}
func (f *fakeBackend) SetPresentMode(PresentMode) {}
func (f *fakeBackend) BeginFrame() error { f.calls = append(f.calls, "begin frame"); return nil }
func (f *fakeBackend) EndFrame() {}
func (f *fakeBackend) Present() { f.calls = append(f.calls, "present") }
func (f *fakeBackend) BeginComputeFrame() error { return nil }
func (f *fakeBackend) EndComputeFrame() {}
func (f *fakeBackend) Begin(p pipeline.Pipeline) { f.calls = append(f.calls, "begin "+p.PipelineKey()) }
func (f *fakeBackend) Cancel(p pipeline.Pipeline) { f.calls = append(f.calls, "cancel "+p.PipelineKey()) }
func (f *fakeBackend) Release() { f.calls = append(f.calls, "release backend") }

func (f *fakeBackend) Draw(p pipeline.Pipeline, geometry, instances mesh.Mesh) error {
	if _, err := vertexLayout(p, geometry, instances); err != nil {
		return err
	}
	f.draws++
	return nil
}

func (f *fakeBackend) Dispatch(_ pipeline.Pipeline, workgroups [3]uint32) {
	f.dispatches = append(f.dispatches, workgroups)
}

func newTestRenderer(t *testing.T, backend *fakeBackend) (Renderer, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r, err := NewRenderer(BackendTypeGL, nil,
		withBackend(backend),
		WithLogger(logger),
		WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger), profiler.WithInterval(time.Hour))),
	)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r, &logs
}

func albedoPipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewPipeline("albedo", pipeline.PipelineTypeRender,
		pipeline.WithProgram(irtest.Albedo()),
		pipeline.WithMesh(mesh.Quad("quad"), nil),
	)
	require.NoError(t, err)
	return p
}

func blurPipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewPipeline("blur", pipeline.PipelineTypeCompute, pipeline.WithProgram(irtest.Blur()))
	require.NoError(t, err)
	return p
}

func TestDrawCallResolvesOnceAndDraws(t *testing.T) {
	backend := newFakeBackend()
	r, _ := newTestRenderer(t, backend)
	p := albedoPipeline(t)
	require.NoError(t, r.RegisterPipelines(p))

	state := pipeline.NewState(p)
	drawn, err := r.DrawCall("albedo", state, mesh.Quad("quad"), nil)
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, 1, backend.binders["albedo"].resolves)
	assert.Equal(t, 1, backend.draws)
	assert.Equal(t, 1, r.Profiler().Current().Draws)
}

func TestDrawCallSkipsWhenNotReady(t *testing.T) {
	backend := newFakeBackend()
	r, logs := newTestRenderer(t, backend)
	p := albedoPipeline(t)
	require.NoError(t, r.RegisterPipelines(p))
	backend.binders["albedo"].ready = false

	drawn, err := r.DrawCall("albedo", pipeline.NewState(p, pipeline.WithLabel("red")), mesh.Quad("quad"), nil)
	require.NoError(t, err)
	assert.False(t, drawn)
	assert.Zero(t, backend.draws)
	assert.Contains(t, backend.calls, "cancel albedo")
	assert.Equal(t, 1, r.Profiler().Current().Skipped)
	assert.Contains(t, logs.String(), "draw skipped")
}

func TestDrawCallErrors(t *testing.T) {
	backend := newFakeBackend()
	r, _ := newTestRenderer(t, backend)
	albedo, blur := albedoPipeline(t), blurPipeline(t)
	require.NoError(t, r.RegisterPipelines(albedo, blur))

	other, err := pipeline.NewPipeline("other", pipeline.PipelineTypeRender, pipeline.WithProgram(irtest.Albedo()))
	require.NoError(t, err)

	_, err = r.DrawCall("missing", pipeline.NewState(albedo), mesh.Quad("quad"), nil)
	assert.ErrorIs(t, err, ErrPipelineNotFound)

	_, err = r.DrawCall("blur", pipeline.NewState(blur), mesh.Quad("quad"), nil)
	assert.ErrorIs(t, err, ErrPipelineType)

	_, err = r.DispatchCompute("albedo", pipeline.NewState(albedo), [3]uint32{1, 1, 1})
	assert.ErrorIs(t, err, ErrPipelineType)

	_, err = r.DrawCall("albedo", pipeline.NewState(other), mesh.Quad("quad"), nil)
	assert.ErrorIs(t, err, ErrStateMismatch)

	_, err = r.DrawCall("albedo", pipeline.NewState(albedo), nil, nil)
	assert.ErrorIs(t, err, ErrNoGeometry)
	assert.Zero(t, backend.draws)
}

func TestDispatchCompute(t *testing.T) {
	backend := newFakeBackend()
	r, _ := newTestRenderer(t, backend)
	p := blurPipeline(t)
	require.NoError(t, r.RegisterPipelines(p))

	require.NoError(t, r.BeginComputeFrame())
	ok, err := r.DispatchCompute("blur", pipeline.NewState(p), [3]uint32{8, 8, 1})
	require.NoError(t, err)
	assert.True(t, ok)
	r.EndComputeFrame()

	assert.Equal(t, [][3]uint32{{8, 8, 1}}, backend.dispatches)
	assert.Equal(t, 1, r.Profiler().Current().Dispatches)
}

func TestRegisterPipelinesSkipsDuplicates(t *testing.T) {
	backend := newFakeBackend()
	r, _ := newTestRenderer(t, backend)
	p := albedoPipeline(t)

	require.NoError(t, r.RegisterPipelines(p, p))
	require.NoError(t, r.RegisterPipelines(p))
	assert.Equal(t, []string{"compile albedo"}, backend.calls)
	assert.Same(t, p, r.Pipeline("albedo"))
	assert.Nil(t, r.Pipeline("missing"))
}

func TestRegisterPipelinesWrapsCompileErrors(t *testing.T) {
	backend := newFakeBackend()
	backend.compileErr = errors.New("boom")
	r, _ := newTestRenderer(t, backend)

	err := r.RegisterPipelines(albedoPipeline(t))
	assert.ErrorIs(t, err, backend.compileErr)
	assert.Nil(t, r.Pipeline("albedo"))
}

func TestUnregisterAndReleaseFreeBinders(t *testing.T) {
	backend := newFakeBackend()
	r, err := NewRenderer(BackendTypeWGPU, nil, withBackend(backend))
	require.NoError(t, err)
	albedo, blur := albedoPipeline(t), blurPipeline(t)
	require.NoError(t, r.RegisterPipelines(albedo, blur))

	r.UnregisterPipeline("albedo")
	r.UnregisterPipeline("albedo")
	assert.True(t, backend.binders["albedo"].released)
	assert.Nil(t, r.Pipeline("albedo"))

	r.Release()
	assert.True(t, backend.binders["blur"].released)
	assert.Equal(t, "release backend", backend.calls[len(backend.calls)-1])
}

func TestFrameOrder(t *testing.T) {
	backend := newFakeBackend()
	r, _ := newTestRenderer(t, backend)

	require.NoError(t, r.BeginFrame())
	r.EndFrame()
	r.Present()
	assert.Equal(t, []string{"begin frame", "present"}, backend.calls)
	assert.Equal(t, 1, r.Profiler().Current().Frames)
}

func TestVertexLayoutFallsBackToDrawData(t *testing.T) {
	p, err := pipeline.NewPipeline("albedo", pipeline.PipelineTypeRender, pipeline.WithProgram(irtest.Albedo()))
	require.NoError(t, err)
	require.Nil(t, p.VertexLayout())

	quad := mesh.Quad("quad")
	vl, err := vertexLayout(p, quad, nil)
	require.NoError(t, err)
	require.Len(t, vl.Bindings, 1)

	streams := bindingStreams(vl, quad, nil)
	assert.Equal(t, quad.Stream(false), streams[0])
	assert.Equal(t, [2]uint64{quad.Version(), 0}, versions(quad, nil))
	assert.Equal(t, 1, instanceCount(nil))

	_, err = vertexLayout(p, nil, nil)
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestVertexLayoutRequiresDeclaredInstances(t *testing.T) {
	prog := irtest.Lit()
	prog.InstanceAttribute("offset", ir.TypeFloat3)
	instances := mesh.NewMesh("instances",
		mesh.WithStream(false, 12, make([]byte, 24)),
		mesh.WithAttribute("offset", ir.TypeFloat3, 0),
	)
	p, err := pipeline.NewPipeline("lit", pipeline.PipelineTypeRender,
		pipeline.WithProgram(prog),
		pipeline.WithMesh(mesh.Quad("quad"), instances),
	)
	require.NoError(t, err)

	_, err = vertexLayout(p, mesh.Quad("quad"), nil)
	assert.ErrorIs(t, err, layout.ErrMissingInstanceAttributes)

	vl, err := vertexLayout(p, mesh.Quad("quad"), instances)
	require.NoError(t, err)
	assert.Equal(t, 2, instanceCount(instances))
	assert.Equal(t, ir.PerInstance, vl.Bindings[len(vl.Bindings)-1].Rate)
}

// pointerMesh lets a test wrap a nil pointer in a non-nil mesh.Mesh.
type pointerMesh struct {
	mesh.Mesh
}

func TestDrawCallTreatsTypedNilInstancesAsMissing(t *testing.T) {
	prog := irtest.Albedo()
	prog.InstanceAttribute("offset", ir.TypeFloat3)
	instances := mesh.NewMesh("instances",
		mesh.WithStream(false, 12, make([]byte, 12)),
		mesh.WithAttribute("offset", ir.TypeFloat3, 0),
	)
	p, err := pipeline.NewPipeline("instanced", pipeline.PipelineTypeRender,
		pipeline.WithProgram(prog),
		pipeline.WithMesh(mesh.Quad("quad"), instances),
	)
	require.NoError(t, err)

	backend := newFakeBackend()
	r, _ := newTestRenderer(t, backend)
	require.NoError(t, r.RegisterPipelines(p))

	var missing *pointerMesh
	drawn, err := r.DrawCall("instanced", pipeline.NewState(p), mesh.Quad("quad"), missing)
	assert.False(t, drawn)
	assert.ErrorIs(t, err, layout.ErrMissingInstanceAttributes)
	assert.Zero(t, backend.draws)

	drawn, err = r.DrawCall("instanced", pipeline.NewState(p), mesh.Quad("quad"), instances)
	require.NoError(t, err)
	assert.True(t, drawn)
}

func TestVertexBufferLayouts(t *testing.T) {
	prog := irtest.Albedo()
	prog.InstanceAttribute("offset", ir.TypeFloat3)
	prog.InstanceAttribute("layer", ir.TypeUint)
	instances := mesh.NewMesh("instances",
		mesh.WithStream(false, 12, make([]byte, 24)),
		mesh.WithStream(true, 4, make([]byte, 8)),
		mesh.WithAttribute("offset", ir.TypeFloat3, 0),
		mesh.WithAttribute("layer", ir.TypeUint, 0),
	)
	p, err := pipeline.NewPipeline("albedo", pipeline.PipelineTypeRender,
		pipeline.WithProgram(prog),
		pipeline.WithMesh(mesh.Quad("quad"), instances),
	)
	require.NoError(t, err)

	buffers, err := vertexBufferLayouts(p)
	require.NoError(t, err)
	require.Len(t, buffers, 3)
	assert.Equal(t, wgpu.VertexStepModeVertex, buffers[0].StepMode)
	assert.Equal(t, uint64(48), buffers[0].ArrayStride)
	require.Len(t, buffers[0].Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, buffers[0].Attributes[0].Format)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, buffers[0].Attributes[1].Format)
	assert.Equal(t, uint64(24), buffers[0].Attributes[1].Offset)

	assert.Equal(t, wgpu.VertexStepModeInstance, buffers[1].StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 2}}, buffers[1].Attributes)
	assert.Equal(t, wgpu.VertexStepModeInstance, buffers[2].StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{{Format: wgpu.VertexFormatUint32, Offset: 0, ShaderLocation: 3}}, buffers[2].Attributes)

	bare, err := pipeline.NewPipeline("bare", pipeline.PipelineTypeRender, pipeline.WithProgram(irtest.Albedo()))
	require.NoError(t, err)
	_, err = vertexBufferLayouts(bare)
	assert.ErrorIs(t, err, ErrNoVertexLayout)
}

func TestPadded(t *testing.T) {
	assert.Len(t, padded(nil), 4)
	assert.Len(t, padded(make([]byte, 6)), 8)
	data := make([]byte, 8)
	assert.Equal(t, &data[0], &padded(data)[0])
}
