package glbinder_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/glbinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

const program = 7

// fakeDevice records every call as a formatted line.
type fakeDevice struct {
	caps          glbinder.Caps
	blocks        map[string]uint32
	storageBlocks map[string]uint32
	locations     map[string]int32
	nextBuffer    uint32
	calls         []string
}

func newFakeDevice(caps glbinder.Caps) *fakeDevice {
	return &fakeDevice{
		caps:          caps,
		blocks:        map[string]uint32{},
		storageBlocks: map[string]uint32{},
		locations:     map[string]int32{},
	}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// count returns the number of recorded calls starting with prefix.
func (d *fakeDevice) count(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (d *fakeDevice) reset() { d.calls = nil }

func (d *fakeDevice) Caps() glbinder.Caps { return d.caps }
func (d *fakeDevice) UseProgram(p uint32) { d.record("UseProgram %d", p) }
func (d *fakeDevice) UniformBlockIndex(_ uint32, name string) (uint32, bool) {
	i, ok := d.blocks[name]
	return i, ok
}
func (d *fakeDevice) UniformBlockBinding(_, block, slot uint32) {
	d.record("UniformBlockBinding %d %d", block, slot)
}
func (d *fakeDevice) StorageBlockIndex(_ uint32, name string) (uint32, bool) {
	i, ok := d.storageBlocks[name]
	return i, ok
}
func (d *fakeDevice) StorageBlockBinding(_, block, slot uint32) {
	d.record("StorageBlockBinding %d %d", block, slot)
}
func (d *fakeDevice) UniformLocation(_ uint32, name string) int32 {
	if l, ok := d.locations[name]; ok {
		return l
	}
	return -1
}
func (d *fakeDevice) CreateBuffer() uint32 {
	d.nextBuffer++
	d.record("CreateBuffer %d", d.nextBuffer)
	return d.nextBuffer
}
func (d *fakeDevice) DeleteBuffer(b uint32) { d.record("DeleteBuffer %d", b) }
func (d *fakeDevice) BufferData(t glbinder.BufferTarget, b uint32, data []byte) {
	d.record("BufferData %d %d %d", t, b, len(data))
}
func (d *fakeDevice) BindBufferBase(t glbinder.BufferTarget, slot, b uint32) {
	d.record("BindBufferBase %d %d %d", t, slot, b)
}
func (d *fakeDevice) Uniform1i(loc int32, v int32) { d.record("Uniform1i %d %d", loc, v) }
func (d *fakeDevice) UniformFloats(loc int32, width int, v []float32) {
	d.record("UniformFloats %d %d %v", loc, width, v)
}
func (d *fakeDevice) UniformInts(loc int32, width int, v []int32) {
	d.record("UniformInts %d %d %v", loc, width, v)
}
func (d *fakeDevice) UniformUints(loc int32, width int, v []uint32) {
	d.record("UniformUints %d %d %v", loc, width, v)
}
func (d *fakeDevice) UniformMatrix(loc int32, size int, v []float32) {
	d.record("UniformMatrix %d %d", loc, size)
}
func (d *fakeDevice) BindTextureUnit(unit uint32, dim ir.Dimension, tex uint32, _ common.SamplerSettings) {
	d.record("BindTextureUnit %d %s %d", unit, dim, tex)
}
func (d *fakeDevice) BindImageTexture(unit, tex uint32, access ir.Access, format ir.Format) {
	d.record("BindImageTexture %d %d %s %s", unit, tex, access, format)
}

// uploader hands out sequential GL names.
type uploader struct{ next uint32 }

func (u *uploader) UploadTexture(*resource.Data, resource.Usage) (resource.Handle, error) {
	u.next++
	return 100 + u.next, nil
}
func (u *uploader) ReleaseTexture(resource.Handle) {}
func (u *uploader) UploadBuffer([]byte) (resource.Handle, error) {
	u.next++
	return 200 + u.next, nil
}
func (u *uploader) UpdateBuffer(h resource.Handle, _ []byte) (resource.Handle, error) { return h, nil }
func (u *uploader) ReleaseBuffer(resource.Handle) {}

type manualExecutor struct{ jobs []func() }

func (e *manualExecutor) Submit(_ int, fn func()) { e.jobs = append(e.jobs, fn) }
func (e *manualExecutor) runAll() {
	for _, fn := range e.jobs {
		fn()
	}
	e.jobs = nil
}

type fixture struct {
	dev     *fakeDevice
	exec    *manualExecutor
	ctx     resource.Context
	layouts *layout.Layouts
}

func newFixture(t *testing.T, p *ir.Program, caps glbinder.Caps) *fixture {
	t.Helper()
	layouts, err := layout.Build(p, layout.WithCapabilities(layout.Capabilities{UniformBuffers: caps.UniformBuffers}))
	require.NoError(t, err)
	exec := &manualExecutor{}
	return &fixture{
		dev:     newFakeDevice(caps),
		exec:    exec,
		ctx:     resource.NewContext(&uploader{}, resource.WithExecutor(exec)),
		layouts: layouts,
	}
}

func (f *fixture) material() bind_group_provider.BindGroupProvider {
	return bind_group_provider.NewBindGroupProvider("material", f.layouts.Group(ir.ScopePipeline))
}

func white() *resource.Texture {
	return resource.NewPrebufferedTexture("white", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: make([]byte, 4)})
}

func panicError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		e, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		err = e
	}()
	fn()
	return nil
}

func TestUniformBlockUploadsOnlyWhenDirty(t *testing.T) {
	f := newFixture(t, irtest.Albedo(), glbinder.Caps{Version: 330, UniformBuffers: true})
	f.dev.blocks["Material"] = 0
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)
	assert.Equal(t, 1, f.dev.count("UniformBlockBinding 0 0"))

	g := f.material()
	g.SetTexture(1, 0, white())
	g.SetUniform("uColor", 0, common.Vec4{1, 0, 0, 1})
	f.dev.reset()

	require.True(t, b.Resolve(g))
	assert.Equal(t, 1, f.dev.count("BufferData"))
	assert.Equal(t, 1, f.dev.count("BindBufferBase"))
	assert.False(t, g.Dirty(0))

	f.dev.reset()
	require.True(t, b.Resolve(g))
	assert.Equal(t, 0, f.dev.count("BufferData"))
	assert.Equal(t, 1, f.dev.count("BindBufferBase"))
	assert.Equal(t, 0, f.dev.count("UniformFloats"))

	b.Release()
	assert.Equal(t, 1, f.dev.count("DeleteBuffer"))
}

func TestSharedProviderUploadsPerPipeline(t *testing.T) {
	f := newFixture(t, irtest.Albedo(), glbinder.Caps{Version: 330, UniformBuffers: true})
	f.dev.blocks["Material"] = 0
	a := glbinder.New(f.dev, f.ctx, program, f.layouts)
	b := glbinder.New(f.dev, f.ctx, program+1, f.layouts)

	g := f.material()
	g.SetTexture(1, 0, white())
	require.True(t, a.Resolve(g))
	g.SetUniform("uColor", 0, common.Vec4{0, 1, 0, 1})
	require.True(t, a.Resolve(g))
	f.dev.reset()

	require.True(t, b.Resolve(g))
	assert.Equal(t, 1, f.dev.count("BufferData"), "the second pipeline's buffer is filled even though the first cleared the flag")
}

func TestMissingBlockFallsBackToPlainUniforms(t *testing.T) {
	f := newFixture(t, irtest.Albedo(), glbinder.Caps{Version: 330, UniformBuffers: true})
	f.dev.locations["uColor"] = 3
	f.dev.locations["tAlbedo"] = 4
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)
	assert.Equal(t, 0, f.dev.count("UniformBlockBinding"))
	assert.Equal(t, 1, f.dev.count("Uniform1i 4 0"), "sampler points at unit 0")

	g := f.material()
	g.SetTexture(1, 0, white())
	g.SetUniform("uColor", 0, common.Vec4{1, 0, 0, 1})
	f.dev.reset()

	require.True(t, b.Resolve(g))
	assert.Equal(t, []string{"UniformFloats 3 4 [1 0 0 1]"}, filter(f.dev.calls, "Uniform"))
	assert.Equal(t, 0, f.dev.count("BufferData"))
	assert.False(t, g.Dirty(0))
}

func TestPlainCapabilityIgnoresBlocks(t *testing.T) {
	f := newFixture(t, irtest.Scalars(), glbinder.Caps{Version: 330, UniformBuffers: false})
	f.dev.blocks["Params"] = 0
	f.dev.locations["a"] = 1
	f.dev.locations["b"] = 2
	for i := 0; i < 4; i++ {
		f.dev.locations[fmt.Sprintf("weights[%d]", i)] = int32(10 + i)
	}
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)

	g := bind_group_provider.NewBindGroupProvider("params", f.layouts.Group(ir.ScopeMesh))
	g.SetUniform("weights", 2, common.Float(0.5))
	f.dev.reset()
	require.True(t, b.Resolve(g))

	uniforms := filter(f.dev.calls, "Uniform")
	assert.Len(t, uniforms, 6)
	assert.Contains(t, uniforms, "UniformFloats 12 1 [0.5]")
	assert.Equal(t, 0, f.dev.count("BindBufferBase"))
}

func TestTextureNotReadyUntilLoaded(t *testing.T) {
	f := newFixture(t, irtest.Albedo(), glbinder.Caps{Version: 330, UniformBuffers: true})
	f.dev.blocks["Material"] = 0
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)

	g := f.material()
	g.SetTexture(1, 0, resource.NewTexture("albedo", resource.DataLoader{
		Data: &resource.Data{Width: 2, Height: 2, Depth: 1, Pixels: make([]byte, 16)},
	}))

	assert.False(t, b.Resolve(g))
	assert.False(t, b.Resolve(g), "still loading")
	assert.Equal(t, 0, f.dev.count("BindTextureUnit"))

	f.exec.runAll()
	f.ctx.Poll()
	f.dev.reset()
	assert.True(t, b.Resolve(g))
	assert.Equal(t, 1, f.dev.count("BindTextureUnit 0 2d"))
}

func TestUnsetTextureIsNotReady(t *testing.T) {
	f := newFixture(t, irtest.Albedo(), glbinder.Caps{Version: 330, UniformBuffers: true})
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)
	assert.False(t, b.Resolve(f.material()))
}

func TestStorageNeedsGL43(t *testing.T) {
	f := newFixture(t, irtest.Blur(), glbinder.Caps{Version: 330, UniformBuffers: true})
	err := panicError(t, func() { glbinder.New(f.dev, f.ctx, program, f.layouts) })
	assert.True(t, errors.Is(err, glbinder.ErrInsufficientCapability))
}

func TestStorageImagesTakeImageUnits(t *testing.T) {
	f := newFixture(t, irtest.Blur(), glbinder.Caps{Version: 430, UniformBuffers: true})
	f.dev.locations["src"] = 0
	f.dev.locations["dst"] = 1
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)
	assert.Equal(t, 1, f.dev.count("Uniform1i 0 0"))
	assert.Equal(t, 1, f.dev.count("Uniform1i 1 1"))

	g := bind_group_provider.NewBindGroupProvider("blur", f.layouts.Group(ir.ScopePipeline))
	g.SetStorageTexture(0, resource.NewStorageTexture("src", 4, 4, ir.FormatRGBA8))
	g.SetStorageTexture(1, resource.NewStorageTexture("dst", 4, 4, ir.FormatRGBA8))
	f.dev.reset()

	require.True(t, b.Resolve(g))
	images := filter(f.dev.calls, "BindImageTexture")
	require.Len(t, images, 2)
	assert.True(t, strings.HasSuffix(images[0], "read rgba8"))
	assert.True(t, strings.HasSuffix(images[1], "write rgba8"))
}

func TestStorageBufferSlots(t *testing.T) {
	p := ir.NewComputeProgram("sum", 64, 1, 1)
	values := p.StorageBuffer("values", ir.TypeFloat, ir.ScopePipeline)
	id := ir.Cast(ir.TypeInt, ir.Swizzle(ir.Builtin(ir.BuiltinGlobalInvocationID), "x"))
	p.Compute.Body.Assign(values.Element(id), ir.Mul(values.Element(id), ir.Float(2)))

	f := newFixture(t, p, glbinder.Caps{Version: 430, UniformBuffers: true})
	f.dev.storageBlocks["valuesBlock"] = 3
	b := glbinder.New(f.dev, f.ctx, program, f.layouts)
	assert.Equal(t, 1, f.dev.count("StorageBlockBinding 3 0"))

	g := bind_group_provider.NewBindGroupProvider("sum", f.layouts.Group(ir.ScopePipeline))
	assert.False(t, b.Resolve(g))
	g.SetStorageBuffer(0, resource.NewStorageBuffer("values", make([]byte, 256)))
	f.dev.reset()
	require.True(t, b.Resolve(g))
	assert.Equal(t, 1, f.dev.count(fmt.Sprintf("BindBufferBase %d 0", glbinder.BufferStorage)))
}

func filter(calls []string, prefix string) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
