// Package glsl renders the shader IR as GLSL for the OpenGL backend.
package glsl

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// storageVersion is the first GLSL version with image load/store and shader storage blocks.
const storageVersion = 430

var typeNames = map[ir.Type]string{
	ir.TypeVoid:   "void",
	ir.TypeBool:   "bool",
	ir.TypeInt:    "int",
	ir.TypeInt2:   "ivec2",
	ir.TypeInt3:   "ivec3",
	ir.TypeInt4:   "ivec4",
	ir.TypeUint:   "uint",
	ir.TypeUint2:  "uvec2",
	ir.TypeUint3:  "uvec3",
	ir.TypeUint4:  "uvec4",
	ir.TypeFloat:  "float",
	ir.TypeFloat2: "vec2",
	ir.TypeFloat3: "vec3",
	ir.TypeFloat4: "vec4",
	ir.TypeMat3:   "mat3",
	ir.TypeMat4:   "mat4",
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

var samplerDims = map[ir.Dimension]string{
	ir.Dim1D:        "1D",
	ir.Dim2D:        "2D",
	ir.Dim3D:        "3D",
	ir.DimCube:      "Cube",
	ir.Dim1DArray:   "1DArray",
	ir.Dim2DArray:   "2DArray",
	ir.DimCubeArray: "CubeArray",
}

var imageFormats = map[ir.Format]string{
	ir.FormatRGBA8:    "rgba8",
	ir.FormatRGBA16F:  "rgba16f",
	ir.FormatRGBA32F:  "rgba32f",
	ir.FormatR32F:     "r32f",
	ir.FormatR32I:     "r32i",
	ir.FormatR32UI:    "r32ui",
	ir.FormatRGBA32I:  "rgba32i",
	ir.FormatRGBA32UI: "rgba32ui",
}

// generator is the GLSL implementation of codegen.Generator.
type generator struct {
	version        int
	uniformBuffers bool

	// stage is the stage currently being generated, set by Header.
	stage ir.StageKind
}

var _ codegen.Generator = &generator{}

// NewGenerator creates a GLSL generator.
//
// Parameters:
//   - opts: a variadic list of GeneratorOption functions
//
// Returns:
//   - codegen.Generator: the GLSL generator
func NewGenerator(opts ...GeneratorOption) codegen.Generator {
	g := &generator{version: 330, uniformBuffers: true}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate is shorthand for codegen.Generate with a GLSL generator.
func Generate(p *ir.Program, opts ...GeneratorOption) (*codegen.Sources, error) {
	return codegen.Generate(p, NewGenerator(opts...))
}

// TypeName returns the GLSL spelling of t.
func TypeName(t ir.Type) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	panic(fmt.Sprintf("glsl: type %s has no GLSL representation", t))
}

// BlockName returns the interface block name used for the storage buffer with the given name.
func BlockName(storage string) string {
	return storage + "Block"
}

func join(args []codegen.Operand) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Code
	}
	return strings.Join(parts, ", ")
}

func (g *generator) Float(v float32) string { return codegen.FormatFloat(v) }
func (g *generator) Int(v int32) string     { return fmt.Sprintf("%d", v) }
func (g *generator) Uint(v uint32) string   { return fmt.Sprintf("%du", v) }
func (g *generator) Bool(v bool) string     { return fmt.Sprintf("%t", v) }

func (g *generator) Construct(t ir.Type, args []codegen.Operand) string {
	return fmt.Sprintf("%s(%s)", TypeName(t), join(args))
}

func (g *generator) Index(base, index codegen.Operand, _ bool) string {
	return fmt.Sprintf("%s[%s]", base.Code, index.Code)
}

func (g *generator) Swizzle(base codegen.Operand, components string, _ bool) string {
	return base.Code + "." + components
}

func (g *generator) Cast(t ir.Type, x codegen.Operand) string {
	return fmt.Sprintf("%s(%s)", TypeName(t), x.Code)
}

func (g *generator) Binary(op ir.BinaryOp, l, r codegen.Operand) string {
	if op == ir.OpMod && !l.Type.IsInteger() {
		return fmt.Sprintf("mod(%s, %s)", l.Code, r.Code)
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

func (g *generator) Attribute(a *ir.Attribute) string { return a.Name }
func (g *generator) Varying(v *ir.Varying) string     { return v.Name }
func (g *generator) Output(o *ir.Output) string       { return o.Name }
func (g *generator) Uniform(u *ir.Uniform) string     { return u.Name }
func (g *generator) Local(l *ir.Local) string         { return l.Name }

func (g *generator) UniformElement(u *ir.Uniform, index codegen.Operand) string {
	return fmt.Sprintf("%s[%s]", u.Name, index.Code)
}

func (g *generator) BuiltinValue(b ir.BuiltinValue) string {
	switch b {
	case ir.BuiltinPosition:
		return "gl_Position"
	case ir.BuiltinFragCoord:
		return "gl_FragCoord"
	case ir.BuiltinFrontFacing:
		return "gl_FrontFacing"
	case ir.BuiltinVertexIndex:
		return "gl_VertexID"
	case ir.BuiltinInstanceIndex:
		return "gl_InstanceID"
	}
	return "gl_GlobalInvocationID"
}

func (g *generator) StorageElement(st *ir.Storage, index codegen.Operand, _ bool) string {
	return fmt.Sprintf("%s[%s]", st.Name, index.Code)
}

func (g *generator) Call(fn *ir.Function, args []codegen.Operand) string {
	return fmt.Sprintf("%s(%s)", fn.Name, join(args))
}

func samplerRef(s *ir.Sampler, element *codegen.Operand) string {
	if element == nil {
		return s.Name
	}
	return fmt.Sprintf("%s[%s]", s.Name, element.Code)
}

func (g *generator) Sample(s *ir.Sampler, element *codegen.Operand, coord codegen.Operand, lod *codegen.Operand) string {
	if lod != nil {
		return fmt.Sprintf("textureLod(%s, %s, %s)", samplerRef(s, element), coord.Code, lod.Code)
	}
	return fmt.Sprintf("texture(%s, %s)", samplerRef(s, element), coord.Code)
}

func (g *generator) SampleDepth(s *ir.Sampler, element *codegen.Operand, coord, ref codegen.Operand) string {
	tex := samplerRef(s, element)
	switch w := s.Dim.CoordWidth(); w {
	case 1:
		return fmt.Sprintf("texture(%s, vec3(%s, 0.0, %s))", tex, coord.Code, ref.Code)
	case 2, 3:
		return fmt.Sprintf("texture(%s, vec%d(%s, %s))", tex, w+1, coord.Code, ref.Code)
	}
	return fmt.Sprintf("texture(%s, %s, %s)", tex, coord.Code, ref.Code)
}

func (g *generator) TexelFetch(s *ir.Sampler, element *codegen.Operand, coord, lod codegen.Operand) string {
	return fmt.Sprintf("texelFetch(%s, %s, %s)", samplerRef(s, element), coord.Code, lod.Code)
}

func (g *generator) TextureSize(s *ir.Sampler, element *codegen.Operand, lod codegen.Operand) string {
	return fmt.Sprintf("textureSize(%s, %s)", samplerRef(s, element), lod.Code)
}

func (g *generator) ImageLoad(st *ir.Storage, coord codegen.Operand) string {
	return fmt.Sprintf("imageLoad(%s, %s)", st.Name, coord.Code)
}

func (g *generator) DeclareVar(w *codegen.Writer, l *ir.Local, init *codegen.Operand) {
	if init == nil {
		w.Line("%s %s;", TypeName(l.Type), l.Name)
		return
	}
	w.Line("%s %s = %s;", TypeName(l.Type), l.Name, init.Code)
}

func (g *generator) DeclareArray(w *codegen.Writer, l *ir.Local) {
	w.Line("%s %s[%d];", TypeName(l.Type), l.Name, l.Len)
}

func (g *generator) Assign(w *codegen.Writer, target string, value codegen.Operand) {
	w.Line("%s = %s;", target, value.Code)
}

func (g *generator) CompoundAssign(w *codegen.Writer, op ir.BinaryOp, target, value codegen.Operand) {
	if op == ir.OpMod && !target.Type.IsInteger() {
		w.Line("%s = mod(%s, %s);", target.Code, target.Code, value.Code)
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
	w.Line("for (%s %s = %s; %s < %s; %s++) {", TypeName(v.Type), v.Name, from.Code, v.Name, to.Code, v.Name)
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
	w.Line("do {")
	if err := w.Nested(body); err != nil {
		return err
	}
	w.Line("} while (%s);", cond)
	return nil
}

func (g *generator) Break(w *codegen.Writer)    { w.Line("break;") }
func (g *generator) Continue(w *codegen.Writer) { w.Line("continue;") }
func (g *generator) Discard(w *codegen.Writer)  { w.Line("discard;") }

func (g *generator) Return(w *codegen.Writer, value *codegen.Operand) {
	if value == nil {
		w.Line("return;")
		return
	}
	w.Line("return %s;", value.Code)
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
	w.Line("imageStore(%s, %s, %s);", st.Name, coord.Code, value.Code)
}

func (g *generator) ExprStatement(w *codegen.Writer, x codegen.Operand) {
	w.Line("%s;", x.Code)
}

func (g *generator) effectiveVersion(p *ir.Program) int {
	v := g.version
	if (p.Compute != nil || len(p.Storages) > 0) && v < storageVersion {
		v = storageVersion
	}
	for _, s := range p.Samplers {
		if s.Dim == ir.DimCubeArray && v < 400 {
			v = 400
		}
	}
	return v
}

func (g *generator) Header(w *codegen.Writer, p *ir.Program, stage ir.StageKind) {
	g.stage = stage
	w.Line("#version %d core", g.effectiveVersion(p))
	w.Line("// %s: %s stage", p.Name, stage)
	if stage == ir.StageCompute {
		ws := p.Compute.WorkgroupSize
		w.Line("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;", max(ws[0], 1), max(ws[1], 1), max(ws[2], 1))
	}
	w.Blank()
}

func (g *generator) Declarations(w *codegen.Writer, p *ir.Program, stage ir.StageKind, usage *ir.Usage) error {
	switch stage {
	case ir.StageVertex:
		for _, a := range p.Attributes {
			w.Line("layout(location = %d) in %s %s;", a.Location, TypeName(a.Type), a.Name)
		}
		for _, v := range p.Varyings {
			w.Line("%sout %s %s;", flat(v), TypeName(v.Type), v.Name)
		}
	case ir.StageFragment:
		for _, v := range p.Varyings {
			w.Line("%sin %s %s;", flat(v), TypeName(v.Type), v.Name)
		}
		for _, o := range p.Outputs {
			w.Line("layout(location = %d) out %s %s;", o.Location, TypeName(o.Type), o.Name)
		}
	}

	for _, b := range p.UniformBuffers {
		if len(b.Members) == 0 || !usage.BufferStages(b).Has(stage) {
			continue
		}
		if g.uniformBuffers {
			w.Line("layout(std140) uniform %s {", b.Name)
			w.Indent()
			for _, m := range b.Members {
				w.Line("%s;", member(m.Type, m.Name, m.Count))
			}
			w.Dedent()
			w.Line("};")
			continue
		}
		for _, m := range b.Members {
			w.Line("uniform %s;", member(m.Type, m.Name, m.Count))
		}
	}

	for _, s := range p.Samplers {
		if !usage.SamplerStages(s).Has(stage) {
			continue
		}
		name := "sampler" + samplerDims[s.Dim]
		if s.Depth {
			name += "Shadow"
		}
		if s.ArrayLen > 0 {
			w.Line("uniform %s %s[%d];", name, s.Name, s.ArrayLen)
		} else {
			w.Line("uniform %s %s;", name, s.Name)
		}
	}

	for _, st := range p.Storages {
		if !usage.StorageStages(st).Has(stage) {
			continue
		}
		access := accessQualifier(usage.StorageAccess(st))
		switch st.Kind {
		case ir.StorageImage:
			format, ok := imageFormats[st.Format]
			if !ok {
				return fmt.Errorf("storage image `%s` format %s: %w", st.Name, st.Format, codegen.ErrUnsupported)
			}
			prefix := ""
			switch st.Format.TexelType() {
			case ir.TypeInt4:
				prefix = "i"
			case ir.TypeUint4:
				prefix = "u"
			}
			w.Line("layout(%s) uniform %s%simage%s %s;", format, access, prefix, samplerDims[st.Dim], st.Name)
		case ir.StorageBuffer:
			w.Line("layout(std430) %sbuffer %s {", access, BlockName(st.Name))
			w.Indent()
			w.Line("%s %s[];", TypeName(st.Elem), st.Name)
			w.Dedent()
			w.Line("};")
		}
	}
	w.Blank()
	return nil
}

func flat(v *ir.Varying) string {
	if v.Flat {
		return "flat "
	}
	return ""
}

func member(t ir.Type, name string, count int) string {
	if count > 0 {
		return fmt.Sprintf("%s %s[%d]", TypeName(t), name, count)
	}
	return fmt.Sprintf("%s %s", TypeName(t), name)
}

func accessQualifier(a ir.Access) string {
	switch a {
	case ir.AccessReadOnly:
		return "readonly "
	case ir.AccessWriteOnly:
		return "writeonly "
	}
	return ""
}

func (g *generator) FunctionSignature(fn *ir.Function) string {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", TypeName(prm.Type), prm.Name)
	}
	return fmt.Sprintf("%s %s(%s)", TypeName(fn.Return), fn.Name, strings.Join(params, ", "))
}

func (g *generator) BeginStage(w *codegen.Writer, _ *ir.Program, _ *ir.Stage) {
	w.Line("void main() {")
}

func (g *generator) EndStage(w *codegen.Writer, _ *ir.Program, _ *ir.Stage) {
	w.Line("}")
}
