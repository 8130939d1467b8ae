package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

func TestAnalyzeStagesPerResource(t *testing.T) {
	p := irtest.Lit()
	u := ir.Analyze(p)

	camera, object := p.UniformBuffers[0], p.UniformBuffers[1]
	assert.Equal(t, ir.StagesOf(ir.StageVertex), u.BufferStages(camera))
	assert.Equal(t, ir.StagesOf(ir.StageVertex, ir.StageFragment), u.BufferStages(object))
	assert.Equal(t, ir.StagesOf(ir.StageVertex), u.UniformStages(object.Members[0]))
	assert.Equal(t, ir.StagesOf(ir.StageFragment), u.UniformStages(object.Members[1]))
	assert.Equal(t, ir.StagesOf(ir.StageFragment), u.SamplerStages(p.Samplers[0]))
}

func TestAnalyzeFollowsCalls(t *testing.T) {
	p := ir.NewProgram("calls")
	color := p.Output("color", ir.TypeFloat4)
	lights := p.UniformBuffer("Lights", ir.ScopeView)
	intensity := lights.Member("intensity", ir.TypeFloat)

	inner := p.Function("inner", ir.TypeFloat)
	inner.Body.Return(intensity.Ref())
	outer := p.Function("outer", ir.TypeFloat)
	outer.Body.Return(ir.Mul(inner.Call(), ir.Float(2)))

	p.Fragment.Body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, outer.Call(), ir.Float(0), ir.Float(0), ir.Float(1)))
	u := ir.Analyze(p)

	assert.True(t, u.Reaches(ir.StageFragment, outer))
	assert.True(t, u.Reaches(ir.StageFragment, inner))
	assert.False(t, u.Reaches(ir.StageVertex, inner))
	assert.Equal(t, ir.StagesOf(ir.StageFragment), u.BufferStages(lights))
	assert.Equal(t, []*ir.Function{inner}, u.Callees(outer))
}

func TestStorageAccess(t *testing.T) {
	p := irtest.Blur()
	u := ir.Analyze(p)
	src, dst := p.Storages[0], p.Storages[1]
	assert.Equal(t, ir.AccessReadOnly, u.StorageAccess(src))
	assert.Equal(t, ir.AccessWriteOnly, u.StorageAccess(dst))

	rw := ir.NewComputeProgram("accumulate", 64, 1, 1)
	sums := rw.StorageBuffer("sums", ir.TypeFloat, ir.ScopePipeline)
	idx := ir.Cast(ir.TypeInt, ir.Swizzle(ir.Builtin(ir.BuiltinGlobalInvocationID), "x"))
	rw.Compute.Body.CompoundAssign(ir.OpAdd, sums.Element(idx), ir.Float(1))
	assert.Equal(t, ir.AccessReadWrite, ir.Analyze(rw).StorageAccess(sums))

	unused := rw.StorageBuffer("unused", ir.TypeFloat, ir.ScopePipeline)
	assert.Equal(t, ir.AccessReadOnly, ir.Analyze(rw).StorageAccess(unused))
}

func TestExpressionTypes(t *testing.T) {
	m := &ir.Local{Name: "m", Type: ir.TypeMat4}
	v := &ir.Local{Name: "v", Type: ir.TypeFloat4}
	arr := &ir.Local{Name: "arr", Type: ir.TypeFloat3, Len: 4}

	assert.Equal(t, ir.TypeFloat4, ir.Mul(m.Ref(), v.Ref()).Type())
	assert.Equal(t, ir.TypeMat4, ir.Mul(m.Ref(), m.Ref()).Type())
	assert.Equal(t, ir.TypeFloat4, ir.Index(m.Ref(), ir.Int(0)).Type())
	assert.Equal(t, ir.TypeFloat, ir.Index(v.Ref(), ir.Int(0)).Type())
	assert.Equal(t, ir.TypeFloat3, arr.At(ir.Int(1)).Type())
	assert.Equal(t, ir.TypeFloat2, ir.Swizzle(v.Ref(), "zw").Type())
	assert.Equal(t, ir.TypeFloat4, ir.Mul(ir.Float(2), v.Ref()).Type())
	assert.Equal(t, ir.TypeBool, ir.Lt(ir.Float(1), ir.Float(2)).Type())
	assert.Equal(t, ir.TypeFloat, ir.Call(ir.FnDot, v.Ref(), v.Ref()).Type())
	assert.Equal(t, ir.TypeFloat4, ir.Call(ir.FnClamp, v.Ref(), ir.Float(0), ir.Float(1)).Type())

	cube := &ir.Sampler{Name: "sky", Dim: ir.DimCube}
	assert.Equal(t, ir.TypeInt2, ir.TextureSize(cube, ir.Int(0)).Type())
}

func TestSwizzlePanicsOnInvalidPattern(t *testing.T) {
	v := &ir.Local{Name: "v", Type: ir.TypeFloat4}
	require.Panics(t, func() { ir.Swizzle(v.Ref(), "xq") })
	require.Panics(t, func() { ir.Swizzle(v.Ref(), "xyzwx") })
}
