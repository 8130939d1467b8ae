package wgsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/wgsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

func TestGenerateLit(t *testing.T) {
	src, err := wgsl.Generate(irtest.Lit(), nil)
	require.NoError(t, err)

	assert.Contains(t, src.Vertex, "struct VertexInput {\n    @location(0) position: vec3<f32>,\n    @location(1) uv: vec2<f32>,\n")
	assert.Contains(t, src.Vertex, "    @location(0) v_uv: vec2<f32>,\n")
	assert.Contains(t, src.Vertex, "struct Camera {\n    view_proj: mat4x4<f32>,\n};\n")
	assert.Contains(t, src.Vertex, "@group(0) @binding(0) var<uniform> u_Camera: Camera;\n")
	assert.Contains(t, src.Vertex, "@group(2) @binding(0) var<uniform> u_Object: Object;\n")
	assert.Contains(t, src.Vertex, "@vertex\nfn vs_main(input: VertexInput) -> VertexOutput {\n    var output: VertexOutput;\n")
	assert.Contains(t, src.Vertex, "    output.position = (u_Camera.view_proj * (u_Object.model * vec4<f32>(input.position, 1.0)));\n")
	assert.Contains(t, src.Vertex, "    output.v_uv = input.uv;\n    return output;\n}\n")

	assert.Contains(t, src.Fragment, "@group(1) @binding(0) var albedo: texture_2d<f32>;\n")
	assert.Contains(t, src.Fragment, "@group(1) @binding(1) var albedo_sampler: sampler;\n")
	assert.Contains(t, src.Fragment, "fn fs_main(input: VertexOutput, @builtin(front_facing) front_facing: bool) -> FragmentOutput {\n")
	assert.Contains(t, src.Fragment, "    output.color = (textureSample(albedo, albedo_sampler, input.v_uv) * u_Object.tint);\n")
	assert.NotContains(t, src.Fragment, "u_Camera")
	assert.NotContains(t, src.Fragment, "VertexInput")
}

func TestGeneratePaddedUniformArrays(t *testing.T) {
	src, err := wgsl.Generate(irtest.Scalars(), nil)
	require.NoError(t, err)

	assert.Contains(t, src.Fragment, "struct Params {\n    a: f32,\n    b: vec3<f32>,\n    weights: array<vec4<f32>, 4>,\n};\n")
	assert.Contains(t, src.Fragment, "output.color = vec4<f32>(u_Params.weights[2i].x, 0.0, 0.0, 1.0);\n")
}

func TestGenerateCompute(t *testing.T) {
	src, err := wgsl.Generate(irtest.Blur(), nil)
	require.NoError(t, err)

	assert.Contains(t, src.Compute, "@group(1) @binding(0) var src: texture_storage_2d<rgba8unorm, read>;\n")
	assert.Contains(t, src.Compute, "@group(1) @binding(2) var dst: texture_storage_2d<rgba8unorm, write>;\n")
	assert.Contains(t, src.Compute, "@compute @workgroup_size(8, 8, 1)\nfn cs_main(@builtin(global_invocation_id) global_id: vec3<u32>) {\n")
	assert.Contains(t, src.Compute, "    var coord: vec2<i32> = vec2<i32>(global_id.xy);\n")
	assert.Contains(t, src.Compute, "    textureStore(dst, coord, textureLoad(src, coord));\n")
	assert.NotContains(t, src.Compute, "VertexOutput")
}

func TestSwizzleAssignmentIsExpanded(t *testing.T) {
	p := ir.NewProgram("swizzle")
	color := p.Output("color", ir.TypeFloat4)
	v := p.Fragment.Body.Declare("v", ir.TypeFloat4, nil)
	p.Fragment.Body.Assign(ir.Swizzle(v.Ref(), "xy"), ir.Vec(ir.TypeFloat2, ir.Float(1), ir.Float(2)))
	p.Fragment.Body.CompoundAssign(ir.OpMul, ir.Swizzle(v.Ref(), "zw"), ir.Vec(ir.TypeFloat2, ir.Float(3), ir.Float(4)))
	p.Fragment.Body.Assign(ir.Swizzle(v.Ref(), "w"), ir.Float(1))
	p.Fragment.Body.Assign(color.Ref(), v.Ref())

	src, err := wgsl.Generate(p, nil)
	require.NoError(t, err)
	assert.Contains(t, src.Fragment, "    {\n        let _swz0 = vec2<f32>(1.0, 2.0);\n        v.x = _swz0.x;\n        v.y = _swz0.y;\n    }\n")
	assert.Contains(t, src.Fragment, "        v.z *= _swz1.x;\n        v.w *= _swz1.y;\n")
	assert.Contains(t, src.Fragment, "    v.w = 1.0;\n")
}

func TestGenerateFloatModAndSplat(t *testing.T) {
	p := ir.NewProgram("math")
	color := p.Output("color", ir.TypeFloat4)
	v := p.Fragment.Body.Let("v", ir.Vec(ir.TypeFloat3, ir.Float(1), ir.Float(2), ir.Float(3)))
	p.Fragment.Body.Let("m", ir.Mod(ir.Float(5), ir.Float(3)))
	p.Fragment.Body.Let("c", ir.Call(ir.FnClamp, v.Ref(), ir.Float(0), ir.Float(1)))
	p.Fragment.Body.Let("i", ir.Mod(ir.Int(5), ir.Int(3)))
	p.Fragment.Body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, v.Ref(), ir.Float(1)))

	src, err := wgsl.Generate(p, nil)
	require.NoError(t, err)
	assert.Contains(t, src.Fragment, "var m: f32 = (5.0 - (3.0 * floor((5.0 / 3.0))));\n")
	assert.Contains(t, src.Fragment, "var c: vec3<f32> = clamp(v, vec3<f32>(0.0), vec3<f32>(1.0));\n")
	assert.Contains(t, src.Fragment, "var i: i32 = (5i % 3i);\n")
}

func TestGenerateDoWhile(t *testing.T) {
	p := ir.NewProgram("loop")
	color := p.Output("color", ir.TypeFloat4)
	x := p.Fragment.Body.Declare("x", ir.TypeFloat, ir.Float(1))
	body := p.Fragment.Body.DoWhile(ir.Lt(x.Ref(), ir.Float(8)))
	body.CompoundAssign(ir.OpMul, x.Ref(), ir.Float(2))
	p.Fragment.Body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, x.Ref(), x.Ref(), x.Ref(), ir.Float(1)))

	src, err := wgsl.Generate(p, nil)
	require.NoError(t, err)
	assert.Contains(t, src.Fragment, "    loop {\n        x *= 2.0;\n        continuing {\n            break if !((x < 8.0));\n        }\n    }\n")
}

func TestGenerateUnsupportedSamplerArray(t *testing.T) {
	p := ir.NewProgram("array")
	color := p.Output("color", ir.TypeFloat4)
	layers := p.SamplerArray("layers", ir.Dim2D, 4, ir.ScopePipeline)
	p.Fragment.Body.Assign(color.Ref(), ir.SampleElement(layers, ir.Int(0), ir.Vec(ir.TypeFloat2, ir.Float(0), ir.Float(0))))

	_, err := wgsl.Generate(p, nil)
	require.ErrorIs(t, err, codegen.ErrUnsupported)
}

func TestGenerateUsesGivenLayouts(t *testing.T) {
	p := irtest.Lit()
	layouts, err := layout.Build(p)
	require.NoError(t, err)

	src, err := codegen.Generate(p, wgsl.NewGenerator(layouts))
	require.NoError(t, err)
	slot, samplerSlot := layouts.Group(ir.ScopePipeline).Lookup("albedo").WGPUSlots()
	assert.Equal(t, uint32(0), slot)
	assert.Equal(t, uint32(1), samplerSlot)
	assert.Contains(t, src.Fragment, "var albedo: texture_2d<f32>;")

	require.Panics(t, func() { wgsl.NewGenerator(nil) })
}
