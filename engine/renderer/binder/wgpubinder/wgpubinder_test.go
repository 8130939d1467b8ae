package wgpubinder_test

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/wgpubinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

type samplerKey struct {
	s          common.SamplerSettings
	comparison bool
}

// fakeDevice hands out distinct zero objects and counts calls by name.
type fakeDevice struct {
	calls    map[string]int
	samplers map[samplerKey]*wgpu.Sampler
	bound    map[uint32]*wgpu.BindGroup
	groups   []*wgpu.BindGroupDescriptor
	writes   [][]byte
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		calls:    map[string]int{},
		samplers: map[samplerKey]*wgpu.Sampler{},
		bound:    map[uint32]*wgpu.BindGroup{},
	}
}

func (d *fakeDevice) CreateBindGroupLayout(*wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.calls["CreateBindGroupLayout"]++
	return new(wgpu.BindGroupLayout), nil
}
func (d *fakeDevice) ReleaseBindGroupLayout(*wgpu.BindGroupLayout) { d.calls["ReleaseBindGroupLayout"]++ }
func (d *fakeDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	d.calls["CreateBindGroup"]++
	d.groups = append(d.groups, desc)
	return new(wgpu.BindGroup), nil
}
func (d *fakeDevice) ReleaseBindGroup(*wgpu.BindGroup) { d.calls["ReleaseBindGroup"]++ }
func (d *fakeDevice) CreateBuffer(*wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	d.calls["CreateBuffer"]++
	return new(wgpu.Buffer), nil
}
func (d *fakeDevice) ReleaseBuffer(*wgpu.Buffer) { d.calls["ReleaseBuffer"]++ }
func (d *fakeDevice) WriteBuffer(_ *wgpu.Buffer, _ uint64, data []byte) {
	d.calls["WriteBuffer"]++
	d.writes = append(d.writes, append([]byte(nil), data...))
}
func (d *fakeDevice) Sampler(s common.SamplerSettings, comparison bool) (*wgpu.Sampler, error) {
	k := samplerKey{s, comparison}
	if smp, ok := d.samplers[k]; ok {
		return smp, nil
	}
	d.calls["CreateSampler"]++
	smp := new(wgpu.Sampler)
	d.samplers[k] = smp
	return smp, nil
}
func (d *fakeDevice) SetBindGroup(index uint32, bg *wgpu.BindGroup) {
	d.calls["SetBindGroup"]++
	d.bound[index] = bg
}

func (d *fakeDevice) reset() {
	d.calls = map[string]int{}
	d.writes = nil
}

// uploader returns fresh views and buffers.
type uploader struct{}

func (uploader) UploadTexture(*resource.Data, resource.Usage) (resource.Handle, error) {
	return new(wgpu.TextureView), nil
}
func (uploader) ReleaseTexture(resource.Handle) {}
func (uploader) UploadBuffer([]byte) (resource.Handle, error) {
	return new(wgpu.Buffer), nil
}
func (uploader) UpdateBuffer(h resource.Handle, _ []byte) (resource.Handle, error) { return h, nil }
func (uploader) ReleaseBuffer(resource.Handle)                                     {}

func white() *resource.Texture {
	return resource.NewPrebufferedTexture("white", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: make([]byte, 4)})
}

func build(t *testing.T, p *ir.Program) *layout.Layouts {
	t.Helper()
	layouts, err := layout.Build(p)
	require.NoError(t, err)
	return layouts
}

func TestDescriptorSplitsTextureAndSampler(t *testing.T) {
	layouts := build(t, irtest.Albedo())
	desc := wgpubinder.Descriptor("albedo/pipeline", layouts.Group(ir.ScopePipeline))

	require.Len(t, desc.Entries, 3)
	ubo, tex, smp := desc.Entries[0], desc.Entries[1], desc.Entries[2]

	assert.Equal(t, uint32(0), ubo.Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, ubo.Buffer.Type)
	assert.Equal(t, uint64(16), ubo.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageFragment, ubo.Visibility)

	assert.Equal(t, uint32(2), tex.Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex.Texture.ViewDimension)

	assert.Equal(t, uint32(3), smp.Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, smp.Sampler.Type)
}

func TestDescriptorStorageImages(t *testing.T) {
	layouts := build(t, irtest.Blur())
	desc := wgpubinder.Descriptor("blur/pipeline", layouts.Group(ir.ScopePipeline))

	require.Len(t, desc.Entries, 2)
	for _, e := range desc.Entries {
		assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, e.StorageTexture.Format)
		assert.Equal(t, wgpu.ShaderStageCompute, e.Visibility)
	}
	assert.Equal(t, wgpu.StorageTextureAccessReadOnly, desc.Entries[0].StorageTexture.Access)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, desc.Entries[1].StorageTexture.Access)
	assert.Equal(t, uint32(2), desc.Entries[1].Binding)
}

func TestEmptyLowerScopesGetEmptyBindGroups(t *testing.T) {
	dev := newFakeDevice()
	layouts := build(t, irtest.Albedo())
	b, err := wgpubinder.New(dev, resource.NewContext(uploader{}), layouts)
	require.NoError(t, err)

	assert.Len(t, b.BindGroupLayouts(), 2, "the empty mesh scope is trimmed")
	assert.Equal(t, 1, dev.calls["CreateBindGroup"], "one empty group for the view scope")

	g := bind_group_provider.NewBindGroupProvider("material", layouts.Group(ir.ScopePipeline))
	g.SetTexture(1, 0, white())
	require.True(t, b.Resolve(g))
	assert.NotNil(t, dev.bound[0])
	assert.NotNil(t, dev.bound[1])
}

func TestBindGroupIsReusedUntilResourcesChange(t *testing.T) {
	dev := newFakeDevice()
	layouts := build(t, irtest.Albedo())
	b, err := wgpubinder.New(dev, resource.NewContext(uploader{}), layouts)
	require.NoError(t, err)

	g := bind_group_provider.NewBindGroupProvider("material", layouts.Group(ir.ScopePipeline))
	g.SetTexture(1, 0, white())
	g.SetUniform("uColor", 0, common.Vec4{1, 0, 0, 1})
	dev.reset()

	require.True(t, b.Resolve(g))
	assert.Equal(t, 1, dev.calls["CreateBindGroup"])
	assert.Equal(t, 1, dev.calls["WriteBuffer"])
	require.Len(t, dev.writes, 1)
	assert.Len(t, dev.writes[0], 16)
	first := dev.bound[1]

	dev.reset()
	require.True(t, b.Resolve(g))
	assert.Equal(t, 0, dev.calls["CreateBindGroup"])
	assert.Equal(t, 0, dev.calls["WriteBuffer"])
	assert.Same(t, first, dev.bound[1])

	g.SetUniform("uColor", 0, common.Vec4{0, 1, 0, 1})
	dev.reset()
	require.True(t, b.Resolve(g))
	assert.Equal(t, 1, dev.calls["WriteBuffer"])
	assert.Equal(t, 0, dev.calls["CreateBindGroup"], "uniform writes keep the bind group")

	g.SetTexture(1, 0, resource.NewPrebufferedTexture("black", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: []byte{0, 0, 0, 255}}))
	dev.reset()
	require.True(t, b.Resolve(g))
	assert.Equal(t, 1, dev.calls["CreateBindGroup"])
	assert.Equal(t, 1, dev.calls["ReleaseBindGroup"])
	assert.NotSame(t, first, dev.bound[1])
}

func TestSamplersAreSharedBySettings(t *testing.T) {
	dev := newFakeDevice()
	layouts := build(t, irtest.Albedo())
	b, err := wgpubinder.New(dev, resource.NewContext(uploader{}), layouts)
	require.NoError(t, err)

	for _, label := range []string{"a", "b"} {
		g := bind_group_provider.NewBindGroupProvider(label, layouts.Group(ir.ScopePipeline))
		g.SetTexture(1, 0, white())
		require.True(t, b.Resolve(g))
	}
	assert.Equal(t, 1, dev.calls["CreateSampler"])
}

func TestUnsetTextureBuildsNoBindGroup(t *testing.T) {
	dev := newFakeDevice()
	layouts := build(t, irtest.Albedo())
	b, err := wgpubinder.New(dev, resource.NewContext(uploader{}), layouts)
	require.NoError(t, err)
	dev.reset()

	g := bind_group_provider.NewBindGroupProvider("material", layouts.Group(ir.ScopePipeline))
	assert.False(t, b.Resolve(g))
	assert.Equal(t, 0, dev.calls["CreateBindGroup"])
	assert.Nil(t, dev.bound[1])
	assert.Equal(t, 1, dev.calls["WriteBuffer"], "the uniform buffer still uploads")
}

func TestReleaseFreesEverything(t *testing.T) {
	dev := newFakeDevice()
	layouts := build(t, irtest.Albedo())
	b, err := wgpubinder.New(dev, resource.NewContext(uploader{}), layouts)
	require.NoError(t, err)

	g := bind_group_provider.NewBindGroupProvider("material", layouts.Group(ir.ScopePipeline))
	g.SetTexture(1, 0, white())
	require.True(t, b.Resolve(g))
	dev.reset()

	b.Release()
	assert.Equal(t, 2, dev.calls["ReleaseBindGroup"], "the empty view group and the material group")
	assert.Equal(t, 1, dev.calls["ReleaseBuffer"])
	assert.Equal(t, 2, dev.calls["ReleaseBindGroupLayout"])
}
