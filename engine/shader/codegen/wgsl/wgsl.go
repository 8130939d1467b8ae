// Package wgsl renders the shader IR as WGSL for the WebGPU backend. Binding numbers are
// taken from the derived resource layout so that generated modules and bind groups agree.
package wgsl

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

var typeNames = map[ir.Type]string{
	ir.TypeBool:   "bool",
	ir.TypeInt:    "i32",
	ir.TypeInt2:   "vec2<i32>",
	ir.TypeInt3:   "vec3<i32>",
	ir.TypeInt4:   "vec4<i32>",
	ir.TypeUint:   "u32",
	ir.TypeUint2:  "vec2<u32>",
	ir.TypeUint3:  "vec3<u32>",
	ir.TypeUint4:  "vec4<u32>",
	ir.TypeFloat:  "f32",
	ir.TypeFloat2: "vec2<f32>",
	ir.TypeFloat3: "vec3<f32>",
	ir.TypeFloat4: "vec4<f32>",
	ir.TypeMat3:   "mat3x3<f32>",
	ir.TypeMat4:   "mat4x4<f32>",
}

var binaryOps = map[ir.BinaryOp]string{
	ir.OpAdd:        "+",
	ir.OpSub:        "-",
	ir.OpMul:        "*",
	ir.OpDiv:        "/",
	ir.OpMod:        "%",
	ir.OpBitAnd:     "&",
	ir.OpBitOr:      "|",
	ir.OpBitXor:     "^",
	ir.OpShl:        "<<",
	ir.OpShr:        ">>",
	ir.OpEq:         "==",
	ir.OpNe:         "!=",
	ir.OpLt:         "<",
	ir.OpLe:         "<=",
	ir.OpGt:         ">",
	ir.OpGe:         ">=",
	ir.OpLogicalAnd: "&&",
	ir.OpLogicalOr:  "||",
}

var textureDims = map[ir.Dimension]string{
	ir.Dim1D:        "1d",
	ir.Dim2D:        "2d",
	ir.Dim3D:        "3d",
	ir.DimCube:      "cube",
	ir.Dim2DArray:   "2d_array",
	ir.DimCubeArray: "cube_array",
}

var texelFormats = map[ir.Format]string{
	ir.FormatRGBA8:    "rgba8unorm",
	ir.FormatRGBA16F:  "rgba16float",
	ir.FormatRGBA32F:  "rgba32float",
	ir.FormatR32F:     "r32float",
	ir.FormatR32I:     "r32sint",
	ir.FormatR32UI:    "r32uint",
	ir.FormatRGBA32I:  "rgba32sint",
	ir.FormatRGBA32UI: "rgba32uint",
}

// swizzleTarget is a multi-component swizzle in assignment position, which WGSL cannot
// assign directly. Assignments to it are expanded into per-component stores.
type swizzleTarget struct {
	base       string
	components string
}

// generator is the WGSL implementation of codegen.Generator.
type generator struct {
	layouts *layout.Layouts

	stage   ir.StageKind
	inEntry bool
	// hasOutput is set while generating an entry point that returns an output struct.
	hasOutput bool
	swizzles  map[string]swizzleTarget
	temps     int
}

var _ codegen.Generator = &generator{}

// NewGenerator creates a WGSL generator that places resources at the slots described by layouts.
//
// Parameters:
//   - layouts: the program's derived bind group layouts
//
// Returns:
//   - codegen.Generator: the WGSL generator
func NewGenerator(layouts *layout.Layouts) codegen.Generator {
	if layouts == nil {
		panic("wgsl: generator requires resource layouts")
	}
	return &generator{layouts: layouts, swizzles: map[string]swizzleTarget{}}
}

// Generate derives layouts when none are given and generates p as WGSL.
//
// Parameters:
//   - p: the program
//   - layouts: the program's layouts, or nil to build them with default capabilities
//
// Returns:
//   - *codegen.Sources: one WGSL module per stage
//   - error: a layout or generation failure
func Generate(p *ir.Program, layouts *layout.Layouts) (*codegen.Sources, error) {
	if layouts == nil {
		var err error
		if layouts, err = layout.Build(p); err != nil {
			return nil, err
		}
	}
	return codegen.Generate(p, NewGenerator(layouts))
}

// TypeName returns the WGSL spelling of t.
func TypeName(t ir.Type) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	panic(fmt.Sprintf("wgsl: type %s has no WGSL representation", t))
}

// uniformStorageType returns the host-shareable member type used inside a uniform struct.
// Booleans become u32 and array elements narrower than 16 bytes are widened to a vec4 so
// that array strides match the std140 layout.
func uniformStorageType(m *ir.Uniform) string {
	t := m.Type
	if t == ir.TypeBool {
		t = ir.TypeUint
	}
	if m.Count > 0 {
		if !t.IsMatrix() && t.Rows() < 4 {
			t = ir.VectorOf(t.Scalar(), 4)
		}
		return fmt.Sprintf("array<%s, %d>", TypeName(t), m.Count)
	}
	return TypeName(t)
}

func instanceName(b *ir.UniformBuffer) string {
	return "u_" + b.Name
}

func join(args []codegen.Operand) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Code
	}
	return strings.Join(parts, ", ")
}

func (g *generator) Float(v float32) string { return codegen.FormatFloat(v) }
func (g *generator) Int(v int32) string     { return fmt.Sprintf("%di", v) }
func (g *generator) Uint(v uint32) string   { return fmt.Sprintf("%du", v) }
func (g *generator) Bool(v bool) string     { return fmt.Sprintf("%t", v) }

func (g *generator) Construct(t ir.Type, args []codegen.Operand) string {
	return fmt.Sprintf("%s(%s)", TypeName(t), join(args))
}

func (g *generator) Index(base, index codegen.Operand, _ bool) string {
	return fmt.Sprintf("%s[%s]", base.Code, index.Code)
}

func (g *generator) Swizzle(base codegen.Operand, components string, write bool) string {
	code := base.Code + "." + components
	if write && len(components) > 1 {
		g.swizzles[code] = swizzleTarget{base: base.Code, components: components}
	}
	return code
}

func (g *generator) Cast(t ir.Type, x codegen.Operand) string {
	return fmt.Sprintf("%s(%s)", TypeName(t), x.Code)
}

func (g *generator) Binary(op ir.BinaryOp, l, r codegen.Operand) string {
	switch {
	case op == ir.OpMod && !l.Type.IsInteger():
		return fmt.Sprintf("(%s - (%s * floor((%s / %s))))", l.Code, r.Code, l.Code, r.Code)
	case (op == ir.OpShl || op == ir.OpShr) && r.Type.Scalar() != ir.TypeUint.Scalar():
		return fmt.Sprintf("(%s %s %s(%s))", l.Code, binaryOps[op], TypeName(ir.VectorOf(ir.TypeUint.Scalar(), r.Type.Rows())), r.Code)
	}
	return fmt.Sprintf("(%s %s %s)", l.Code, binaryOps[op], r.Code)
}

func (g *generator) Unary(op ir.UnaryOp, x codegen.Operand) string {
	switch op {
	case ir.OpNeg:
		return fmt.Sprintf("(-%s)", x.Code)
	case ir.OpBitNot:
		return fmt.Sprintf("(~%s)", x.Code)
	}
	return fmt.Sprintf("(!%s)", x.Code)
}

func (g *generator) Attribute(a *ir.Attribute) string { return "input." + a.Name }

func (g *generator) Varying(v *ir.Varying) string {
	if g.stage == ir.StageVertex {
		return "output." + v.Name
	}
	return "input." + v.Name
}

func (g *generator) Output(o *ir.Output) string { return "output." + o.Name }
func (g *generator) Local(l *ir.Local) string   { return l.Name }

func (g *generator) Uniform(u *ir.Uniform) string {
	ref := instanceName(u.Buffer) + "." + u.Name
	if u.Type == ir.TypeBool {
		return fmt.Sprintf("(%s != 0u)", ref)
	}
	return ref
}

func (g *generator) UniformElement(u *ir.Uniform, index codegen.Operand) string {
	ref := fmt.Sprintf("%s.%s[%s]", instanceName(u.Buffer), u.Name, index.Code)
	if !u.Type.IsMatrix() && u.Type.Rows() < 4 {
		ref += "." + "xyzw"[:u.Type.Rows()]
	}
	if u.Type == ir.TypeBool {
		return fmt.Sprintf("(%s != 0u)", ref)
	}
	return ref
}

func (g *generator) BuiltinValue(b ir.BuiltinValue) string {
	switch b {
	case ir.BuiltinPosition:
		return "output.position"
	case ir.BuiltinFragCoord:
		return "input.position"
	case ir.BuiltinFrontFacing:
		return "front_facing"
	case ir.BuiltinVertexIndex:
		return "i32(input.vertex_index)"
	case ir.BuiltinInstanceIndex:
		return "i32(input.instance_index)"
	}
	return "global_id"
}

func (g *generator) StorageElement(st *ir.Storage, index codegen.Operand, _ bool) string {
	return fmt.Sprintf("%s[%s]", st.Name, index.Code)
}

func (g *generator) Call(fn *ir.Function, args []codegen.Operand) string {
	return fmt.Sprintf("%s(%s)", fn.Name, join(args))
}

// splitLayer separates the array layer from a layered texture coordinate.
func splitLayer(d ir.Dimension, coord codegen.Operand) string {
	if !d.Layered() {
		return coord.Code
	}
	n := coord.Type.Rows()
	return fmt.Sprintf("(%s).%s, i32((%s).%s)", coord.Code, "xyzw"[:n-1], coord.Code, "xyzw"[n-1:n])
}

func (g *generator) Sample(s *ir.Sampler, _ *codegen.Operand, coord codegen.Operand, lod *codegen.Operand) string {
	c := splitLayer(s.Dim, coord)
	if lod == nil && g.stage == ir.StageFragment {
		return fmt.Sprintf("textureSample(%s, %s_sampler, %s)", s.Name, s.Name, c)
	}
	level := "0.0"
	if lod != nil {
		level = lod.Code
	}
	return fmt.Sprintf("textureSampleLevel(%s, %s_sampler, %s, %s)", s.Name, s.Name, c, level)
}

func (g *generator) SampleDepth(s *ir.Sampler, _ *codegen.Operand, coord, ref codegen.Operand) string {
	c := splitLayer(s.Dim, coord)
	if g.stage == ir.StageFragment {
		return fmt.Sprintf("textureSampleCompare(%s, %s_sampler, %s, %s)", s.Name, s.Name, c, ref.Code)
	}
	return fmt.Sprintf("textureSampleCompareLevel(%s, %s_sampler, %s, %s)", s.Name, s.Name, c, ref.Code)
}

func (g *generator) TexelFetch(s *ir.Sampler, _ *codegen.Operand, coord, lod codegen.Operand) string {
	return fmt.Sprintf("textureLoad(%s, %s, %s)", s.Name, splitLayer(s.Dim, coord), lod.Code)
}

func (g *generator) TextureSize(s *ir.Sampler, _ *codegen.Operand, lod codegen.Operand) string {
	dims := fmt.Sprintf("textureDimensions(%s, %s)", s.Name, lod.Code)
	switch s.Dim {
	case ir.Dim1D:
		return fmt.Sprintf("i32(%s)", dims)
	case ir.Dim2DArray, ir.DimCubeArray:
		return fmt.Sprintf("vec3<i32>(vec2<i32>(%s), textureNumLayers(%s))", dims, s.Name)
	case ir.Dim3D:
		return fmt.Sprintf("vec3<i32>(%s)", dims)
	}
	return fmt.Sprintf("vec2<i32>(%s)", dims)
}

func (g *generator) ImageLoad(st *ir.Storage, coord codegen.Operand) string {
	return fmt.Sprintf("textureLoad(%s, %s)", st.Name, splitLayer(st.Dim, coord))
}

func (g *generator) DeclareVar(w *codegen.Writer, l *ir.Local, init *codegen.Operand) {
	if init == nil {
		w.Line("var %s: %s;", l.Name, TypeName(l.Type))
		return
	}
	w.Line("var %s: %s = %s;", l.Name, TypeName(l.Type), init.Code)
}

func (g *generator) DeclareArray(w *codegen.Writer, l *ir.Local) {
	w.Line("var %s: array<%s, %d>;", l.Name, TypeName(l.Type), l.Len)
}

// expandSwizzle writes one store per component when target is a multi-component swizzle.
func (g *generator) expandSwizzle(w *codegen.Writer, target string, value string, op string) bool {
	sw, ok := g.swizzles[target]
	if !ok {
		return false
	}
	tmp := fmt.Sprintf("_swz%d", g.temps)
	g.temps++
	w.Line("{")
	w.Indent()
	w.Line("let %s = %s;", tmp, value)
	for i, c := range sw.components {
		w.Line("%s.%c %s= %s.%c;", sw.base, c, op, tmp, "xyzw"[i])
	}
	w.Dedent()
	w.Line("}")
	return true
}

func (g *generator) Assign(w *codegen.Writer, target string, value codegen.Operand) {
	if g.expandSwizzle(w, target, value.Code, "") {
		return
	}
	w.Line("%s = %s;", target, value.Code)
}

func (g *generator) CompoundAssign(w *codegen.Writer, op ir.BinaryOp, target, value codegen.Operand) {
	if op == ir.OpMod && !target.Type.IsInteger() {
		g.Assign(w, target.Code, codegen.Operand{Code: g.Binary(op, target, value), Type: target.Type})
		return
	}
	if g.expandSwizzle(w, target.Code, value.Code, binaryOps[op]) {
		return
	}
	w.Line("%s %s= %s;", target.Code, binaryOps[op], value.Code)
}

func (g *generator) If(w *codegen.Writer, cond string, then, els func() error) error {
	w.Line("if (%s) {", cond)
	if err := w.Nested(then); err != nil {
		return err
	}
	if els != nil {
		w.Line("} else {")
		if err := w.Nested(els); err != nil {
			return err
		}
	}
	w.Line("}")
	return nil
}

func (g *generator) For(w *codegen.Writer, v *ir.Local, from, to codegen.Operand, body func() error) error {
	w.Line("for (var %s: %s = %s; %s < %s; %s++) {", v.Name, TypeName(v.Type), from.Code, v.Name, to.Code, v.Name)
	if err := w.Nested(body); err != nil {
		return err
	}
	w.Line("}")
	return nil
}

func (g *generator) While(w *codegen.Writer, cond string, body func() error) error {
	w.Line("while (%s) {", cond)
	if err := w.Nested(body); err != nil {
		return err
	}
	w.Line("}")
	return nil
}

func (g *generator) DoWhile(w *codegen.Writer, cond string, body func() error) error {
	w.Line("loop {")
	if err := w.Nested(func() error {
		if err := body(); err != nil {
			return err
		}
		w.Line("continuing {")
		w.Indent()
		w.Line("break if !(%s);", cond)
		w.Dedent()
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	w.Line("}")
	return nil
}

func (g *generator) Break(w *codegen.Writer)    { w.Line("break;") }
func (g *generator) Continue(w *codegen.Writer) { w.Line("continue;") }
func (g *generator) Discard(w *codegen.Writer)  { w.Line("discard;") }

func (g *generator) Return(w *codegen.Writer, value *codegen.Operand) {
	switch {
	case value != nil:
		w.Line("return %s;", value.Code)
	case g.inEntry && g.hasOutput:
		w.Line("return output;")
	default:
		w.Line("return;")
	}
}

func (g *generator) Block(w *codegen.Writer, body func() error) error {
	w.Line("{")
	if err := w.Nested(body); err != nil {
		return err
	}
	w.Line("}")
	return nil
}

func (g *generator) ImageStore(w *codegen.Writer, st *ir.Storage, coord, value codegen.Operand) {
	w.Line("textureStore(%s, %s, %s);", st.Name, splitLayer(st.Dim, coord), value.Code)
}

func (g *generator) ExprStatement(w *codegen.Writer, x codegen.Operand) {
	if x.Type == ir.TypeVoid {
		w.Line("%s;", x.Code)
		return
	}
	w.Line("_ = %s;", x.Code)
}

func (g *generator) FunctionSignature(fn *ir.Function) string {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = fmt.Sprintf("%s: %s", prm.Name, TypeName(prm.Type))
	}
	sig := fmt.Sprintf("fn %s(%s)", fn.Name, strings.Join(params, ", "))
	if fn.Return != ir.TypeVoid {
		sig += " -> " + TypeName(fn.Return)
	}
	return sig
}
