package bind_group_provider_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/common"
	bgp "github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

func group(t *testing.T, p *ir.Program, s ir.Scope) *layout.BindGroupLayout {
	t.Helper()
	layouts, err := layout.Build(p)
	require.NoError(t, err)
	return layouts.Group(s)
}

func TestNewProviderMatchesLayout(t *testing.T) {
	g := group(t, irtest.Scalars(), ir.ScopeMesh)
	p := bgp.NewBindGroupProvider("params", g)

	assert.Equal(t, ir.ScopeMesh, p.Scope())
	assert.Same(t, g, p.Layout())
	assert.Len(t, p.UniformData(0), 96)
	assert.True(t, p.Dirty(0), "fresh buffers upload on first resolve")

	uploaded := map[int]uint64{}
	writes := p.StaleWrites(uploaded)
	require.Len(t, writes, 1)
	assert.Equal(t, 0, writes[0].Binding)
	assert.Same(t, p, writes[0].Provider)

	var data []byte
	writes[0].Apply(uploaded, func(_ uint64, d []byte) { data = d })
	assert.Len(t, data, 96)
	assert.False(t, p.Dirty(0))
	assert.Empty(t, p.StaleWrites(uploaded))

	p.SetUniform("a", 0, common.Float(2))
	assert.Len(t, p.StaleWrites(uploaded), 1)
	assert.Len(t, p.StaleWrites(map[int]uint64{}), 1, "every backend copy tracks its own revision")
}

func TestSetUniformDirtiesAndPlacesBytes(t *testing.T) {
	g := group(t, irtest.Scalars(), ir.ScopeMesh)
	p := bgp.NewBindGroupProvider("params", g)
	p.ClearDirty(0)

	p.SetUniform("b", 0, common.Vec3{1, 2, 3})
	assert.True(t, p.Dirty(0))

	data := p.UniformData(0)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[16:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(data[24:])))
	assert.Equal(t, common.Vec3{1, 2, 3}, common.Decode[common.Vec3](p.Uniform("b", 0)))
}

func TestUniformArrayRoundTrip(t *testing.T) {
	g := group(t, irtest.Scalars(), ir.ScopeMesh)
	m, ok := g.Lookup("weights").Member("weights")
	require.True(t, ok)
	require.Equal(t, 16, m.ArrayStride)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("written elements read back at a 16 byte stride", prop.ForAll(
		func(values []float32) bool {
			p := bgp.NewBindGroupProvider("params", g)
			for i, v := range values {
				p.SetUniform("weights", i, common.Float(v))
			}
			data := p.UniformData(0)
			for i, v := range values {
				if common.Decode[common.Float](p.Uniform("weights", i)) != common.Float(v) {
					return false
				}
				off := m.Offset + i*16
				if math.Float32frombits(binary.LittleEndian.Uint32(data[off:])) != v {
					return false
				}
				// Padding words of each element stay zero.
				if binary.LittleEndian.Uint32(data[off+4:]) != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.Float32Range(-1e6, 1e6)),
	))

	properties.TestingRun(t)
}

func TestMatrixColumnsUseColumnStride(t *testing.T) {
	g := group(t, irtest.Lit(), ir.ScopeView)
	p := bgp.NewBindGroupProvider("camera", g)

	m := common.Identity4()
	m[12], m[13], m[14] = 5, 6, 7
	p.SetUniform("view_proj", 0, m)
	assert.Equal(t, m, common.Decode[common.Mat4](p.Uniform("view_proj", 0)))
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(p.UniformData(0)[48:])))
}

func TestShapeMismatchPanics(t *testing.T) {
	g := group(t, irtest.Scalars(), ir.ScopeMesh)
	p := bgp.NewBindGroupProvider("params", g)

	assert.Panics(t, func() { p.SetUniform("b", 0, common.Vec4{}) })
	assert.Panics(t, func() { p.SetUniform("a", 0, common.Int(1)) })
	assert.Panics(t, func() { p.SetUniform("weights", 4, common.Float(1)) })
	assert.Panics(t, func() { p.SetUniform("missing", 0, common.Float(1)) })
	assert.Panics(t, func() { p.SetUniform("Params", 0, common.Float(1)) })
	assert.Panics(t, func() { p.Texture(0, 0) })
	assert.Panics(t, func() { p.UniformData(3) })
	assert.Panics(t, func() {
		bgp.NewBindGroupProvider("params", g, bgp.WithUniformData(0, make([]byte, 16)))
	})
}

func TestTextureReferencesBumpGeneration(t *testing.T) {
	g := group(t, irtest.Albedo(), ir.ScopePipeline)
	tex := resource.NewPrebufferedTexture("white", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: make([]byte, 4)})
	p := bgp.NewBindGroupProvider("material", g)
	assert.Equal(t, uint64(0), p.Generation())

	p.SetTexture(1, 0, tex)
	assert.Same(t, tex, p.Texture(1, 0))
	assert.Equal(t, uint64(1), p.Generation())

	p.SetTexture(1, 0, tex)
	assert.Equal(t, uint64(1), p.Generation(), "rebinding the same texture is a no-op")

	p.SetSampler(1, common.SamplerSettings{MagFilter: wgpu.FilterModeNearest})
	assert.Equal(t, uint64(2), p.Generation())
	assert.Equal(t, wgpu.FilterModeNearest, p.Sampler(1).MagFilter)
	assert.Equal(t, wgpu.AddressModeRepeat, p.Sampler(1).AddressModeU)

	assert.Panics(t, func() { p.SetTexture(1, 1, tex) })
	assert.Panics(t, func() { p.SetTexture(0, 0, tex) })
}

func TestNearestSamplerIsStoredAsGiven(t *testing.T) {
	g := group(t, irtest.Albedo(), ir.ScopePipeline)
	p := bgp.NewBindGroupProvider("material", g)
	assert.Equal(t, wgpu.FilterModeLinear, p.Sampler(1).MagFilter)

	s := common.DefaultSamplerSettings()
	s.MagFilter = wgpu.FilterModeNearest
	s.MinFilter = wgpu.FilterModeNearest
	s.MipmapFilter = wgpu.MipmapFilterModeNearest
	p.SetSampler(1, s)

	assert.Equal(t, s, p.Sampler(1))
	assert.Equal(t, uint64(1), p.Generation())
}

func TestStorageEntries(t *testing.T) {
	g := group(t, irtest.Blur(), ir.ScopePipeline)
	p := bgp.NewBindGroupProvider("blur", g)

	target := resource.NewStorageTexture("dst", 8, 8, ir.FormatRGBA8)
	p.SetStorageTexture(1, target)
	assert.Same(t, target, p.StorageTexture(1))

	sampledOnly := resource.NewPrebufferedTexture("src", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: make([]byte, 4)})
	assert.Panics(t, func() { p.SetStorageTexture(0, sampledOnly) })
	assert.Panics(t, func() { p.SetStorageBuffer(0, resource.NewStorageBuffer("b", nil)) })
}

func TestReleaseRunsHooksOnce(t *testing.T) {
	g := group(t, irtest.Albedo(), ir.ScopePipeline)
	tex := resource.NewPrebufferedTexture("white", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: make([]byte, 4)})
	p := bgp.NewBindGroupProvider("material", g, bgp.WithTexture(1, 0, tex))

	calls := 0
	p.OnRelease(func() { calls++ })
	p.Release()
	p.Release()

	assert.Equal(t, 1, calls)
	assert.True(t, p.Released())
	assert.Nil(t, p.Texture(1, 0))
}
