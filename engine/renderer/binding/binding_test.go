package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

// countingOwner counts every access to bind group data.
type countingOwner struct {
	pipeline.State
	groupCalls int
}

func (o *countingOwner) Group(s ir.Scope) bind_group_provider.BindGroupProvider {
	o.groupCalls++
	return o.State.Group(s)
}

func newOwner(t *testing.T, p *ir.Program) *countingOwner {
	t.Helper()
	pl, err := pipeline.NewPipeline(p.Name, pipelineType(p), pipeline.WithProgram(p))
	require.NoError(t, err)
	return &countingOwner{State: pipeline.NewState(pl)}
}

func pipelineType(p *ir.Program) pipeline.PipelineType {
	if p.Kind == ir.ProgramCompute {
		return pipeline.PipelineTypeCompute
	}
	return pipeline.PipelineTypeRender
}

func white() *resource.Texture {
	return resource.NewPrebufferedTexture("white", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: make([]byte, 4)})
}

func TestGetBeforeValidTouchesNoData(t *testing.T) {
	o := newOwner(t, irtest.Albedo())
	color := binding.NewUniform[common.Vec4](o, "uColor")
	albedo := binding.NewTexture(o, "tAlbedo")

	assert.Equal(t, common.Vec4{}, color.Get())
	color.Set(common.Vec4{0, 1, 0, 1})
	assert.Equal(t, common.Vec4{0, 1, 0, 1}, color.Get())
	tex := white()
	albedo.Set(tex)
	assert.Same(t, tex, albedo.Get())
	assert.Equal(t, 0, o.groupCalls)
}

func TestSetupAppliesCachedValues(t *testing.T) {
	o := newOwner(t, irtest.Albedo())
	color := binding.NewUniform[common.Vec4](o, "uColor")
	albedo := binding.NewTexture(o, "tAlbedo")
	color.Set(common.Vec4{1, 0, 0, 1})
	tex := white()
	albedo.Set(tex)

	o.Setup()
	g := o.State.Group(ir.ScopePipeline)
	assert.Equal(t, common.Vec4{1, 0, 0, 1}, common.Decode[common.Vec4](g.Uniform("uColor", 0)))
	assert.Same(t, tex, g.Texture(1, 0))

	g.ClearDirty(0)
	color.Set(common.Vec4{0, 0, 1, 1})
	assert.True(t, g.Dirty(0), "writes through while valid")

	g.SetUniform("uColor", 0, common.Vec4{0.5, 0.5, 0.5, 1})
	assert.Equal(t, common.Vec4{0.5, 0.5, 0.5, 1}, color.Get(), "Get refreshes from live data")
}

func TestArrayBindingResize(t *testing.T) {
	o := newOwner(t, irtest.Scalars())
	weights := binding.NewUniformArray[common.Float](o, "weights")
	assert.Equal(t, 4, weights.Len())
	assert.Equal(t, 4, weights.Cap())

	weights.Set(0, 1)
	weights.Set(1, 2)
	weights.Resize(2, 0)
	assert.Equal(t, 2, weights.Len())
	assert.Panics(t, func() { weights.Set(2, 3) })
	weights.Resize(4, 9)
	assert.Equal(t, common.Float(2), weights.Get(1))
	assert.Equal(t, common.Float(9), weights.Get(3))
	assert.Panics(t, func() { weights.Resize(5, 0) })

	o.Setup()
	g := o.State.Group(ir.ScopeMesh)
	for i, want := range []common.Float{1, 2, 9, 9} {
		assert.Equal(t, want, common.Decode[common.Float](g.Uniform("weights", i)))
	}
}

func TestArrayBindingShrinkOverwritesDroppedElements(t *testing.T) {
	o := newOwner(t, irtest.Scalars())
	weights := binding.NewUniformArray[common.Float](o, "weights")
	o.Setup()
	for i := range weights.Len() {
		weights.Set(i, common.Float(i+1))
	}

	weights.Resize(1, -1)
	g := o.State.Group(ir.ScopeMesh)
	for i, want := range []common.Float{1, -1, -1, -1} {
		assert.Equal(t, want, common.Decode[common.Float](g.Uniform("weights", i)))
	}

	o.Release()
	o.Setup()
	g = o.State.Group(ir.ScopeMesh)
	assert.Equal(t, common.Float(-1), common.Decode[common.Float](g.Uniform("weights", 3)), "dropped elements are applied again after setup")
}

func TestStorageHandles(t *testing.T) {
	o := newOwner(t, irtest.Blur())
	dst := binding.NewStorageTexture(o, "dst")
	target := resource.NewStorageTexture("dst", 8, 8, ir.FormatRGBA8)
	dst.Set(target)
	o.Setup()
	assert.Same(t, target, o.State.Group(ir.ScopePipeline).StorageTexture(1))
	assert.Panics(t, func() { binding.NewStorageBuffer(o, "dst") })
}

func TestLookupFailuresPanic(t *testing.T) {
	o := newOwner(t, irtest.Albedo())
	assert.Panics(t, func() { binding.NewUniform[common.Vec4](o, "missing") })
	assert.Panics(t, func() { binding.NewUniform[common.Vec3](o, "uColor") })
	assert.Panics(t, func() { binding.NewUniform[common.Vec4](o, "Material") })
	assert.Panics(t, func() { binding.NewTexture(o, "uColor") })
	assert.Panics(t, func() { binding.NewUniformArray[common.Vec4](o, "uColor") })
	assert.Panics(t, func() { binding.NewStorageTexture(o, "tAlbedo") })
}
