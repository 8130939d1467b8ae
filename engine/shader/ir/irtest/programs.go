// Package irtest provides small IR programs shared by generator, layout and binder tests.
package irtest

import "github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"

// Lit is a textured, tinted mesh program. Its layouts hold a Camera buffer in the view
// group, an albedo texture in the pipeline group and an Object buffer in the mesh group.
func Lit() *ir.Program {
	p := ir.NewProgram("lit")
	pos := p.Attribute("position", ir.TypeFloat3)
	uv := p.Attribute("uv", ir.TypeFloat2)
	vUV := p.Varying("v_uv", ir.TypeFloat2)
	color := p.Output("color", ir.TypeFloat4)

	camera := p.UniformBuffer("Camera", ir.ScopeView)
	viewProj := camera.Member("view_proj", ir.TypeMat4)
	object := p.UniformBuffer("Object", ir.ScopeMesh)
	model := object.Member("model", ir.TypeMat4)
	tint := object.Member("tint", ir.TypeFloat4)
	albedo := p.Sampler("albedo", ir.Dim2D, ir.ScopePipeline)

	world := ir.Mul(model.Ref(), ir.Vec(ir.TypeFloat4, pos.Ref(), ir.Float(1)))
	p.Vertex.Body.Assign(ir.Builtin(ir.BuiltinPosition), ir.Mul(viewProj.Ref(), world))
	p.Vertex.Body.Assign(vUV.Ref(), uv.Ref())
	p.Fragment.Body.Assign(color.Ref(), ir.Mul(ir.Sample(albedo, vUV.Ref()), tint.Ref()))
	return p
}

// Scalars declares one mesh-scope buffer holding a float, a vec3 and a float array, in that
// order. std140 places them at offsets 0, 16 and 32 with an array stride of 16.
func Scalars() *ir.Program {
	p := ir.NewProgram("scalars")
	color := p.Output("color", ir.TypeFloat4)
	buf := p.UniformBuffer("Params", ir.ScopeMesh)
	a := buf.Member("a", ir.TypeFloat)
	b := buf.Member("b", ir.TypeFloat3)
	weights := buf.Array("weights", ir.TypeFloat, 4)

	p.Vertex.Body.Assign(ir.Builtin(ir.BuiltinPosition), ir.Vec(ir.TypeFloat4, b.Ref(), a.Ref()))
	p.Fragment.Body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, weights.At(ir.Int(2)), ir.Float(0), ir.Float(0), ir.Float(1)))
	return p
}

// Blur is a compute program reading one storage image and writing another.
func Blur() *ir.Program {
	p := ir.NewComputeProgram("blur", 8, 8, 1)
	src := p.StorageImage("src", ir.FormatRGBA8, ir.Dim2D, ir.ScopePipeline)
	dst := p.StorageImage("dst", ir.FormatRGBA8, ir.Dim2D, ir.ScopePipeline)

	body := p.Compute.Body
	coord := body.Let("coord", ir.Cast(ir.TypeInt2, ir.Swizzle(ir.Builtin(ir.BuiltinGlobalInvocationID), "xy")))
	body.ImageStore(dst, coord.Ref(), ir.ImageLoad(src, coord.Ref()))
	return p
}

// Albedo declares a Pipeline-scope Material buffer with one vec4 `uColor` and one 2D
// sampler `tAlbedo`, and multiplies them in the fragment stage.
func Albedo() *ir.Program {
	p := ir.NewProgram("albedo")
	pos := p.Attribute("position", ir.TypeFloat3)
	uv := p.Attribute("uv", ir.TypeFloat2)
	vUV := p.Varying("v_uv", ir.TypeFloat2)
	color := p.Output("color", ir.TypeFloat4)

	material := p.UniformBuffer("Material", ir.ScopePipeline)
	uColor := material.Member("uColor", ir.TypeFloat4)
	tAlbedo := p.Sampler("tAlbedo", ir.Dim2D, ir.ScopePipeline)

	p.Vertex.Body.Assign(ir.Builtin(ir.BuiltinPosition), ir.Vec(ir.TypeFloat4, pos.Ref(), ir.Float(1)))
	p.Vertex.Body.Assign(vUV.Ref(), uv.Ref())
	p.Fragment.Body.Assign(color.Ref(), ir.Mul(uColor.Ref(), ir.Sample(tAlbedo, vUV.Ref())))
	return p
}
