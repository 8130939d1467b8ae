// Package codegen drives backend code generators over the shader IR.
//
// A backend implements Generator, a contract with one method per IR category. Generate
// walks the program, orders user functions so that callees precede callers, and asks the
// generator to render every expression and statement it meets.
package codegen

import (
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// Operand is a rendered sub-expression together with its IR type.
type Operand struct {
	Code string
	Type ir.Type
}

// Generator renders IR constructs as backend source text.
//
// Expression methods return the rendered text. Statement methods write complete lines to
// the Writer; nested scopes are emitted by calling the supplied body callbacks, which
// recursively render the child block at the writer's current indentation.
type Generator interface {
	// Float renders a float literal. The result always contains a decimal point.
	Float(v float32) string
	// Int renders a signed integer literal.
	Int(v int32) string
	// Uint renders an unsigned integer literal.
	Uint(v uint32) string
	// Bool renders a boolean literal.
	Bool(v bool) string
	// Construct renders a vector or matrix constructor.
	Construct(t ir.Type, args []Operand) string
	// Index renders base[index]. write is set when the result is an assignment target.
	Index(base, index Operand, write bool) string
	// Swizzle renders a component selection. write is set when the result is an assignment target.
	Swizzle(base Operand, components string, write bool) string
	// Cast renders a component-wise conversion of x to t.
	Cast(t ir.Type, x Operand) string
	// Binary renders an infix operation. The result is always fully parenthesized.
	Binary(op ir.BinaryOp, l, r Operand) string
	// Unary renders a prefix operation.
	Unary(op ir.UnaryOp, x Operand) string

	// Attribute renders a reference to a vertex input.
	Attribute(a *ir.Attribute) string
	// Varying renders a reference to a varying in the current stage.
	Varying(v *ir.Varying) string
	// Output renders a reference to a fragment output.
	Output(o *ir.Output) string
	// Uniform renders a reference to a non-array uniform.
	Uniform(u *ir.Uniform) string
	// UniformElement renders element index of a uniform array.
	UniformElement(u *ir.Uniform, index Operand) string
	// Local renders a reference to a local variable or parameter.
	Local(l *ir.Local) string
	// BuiltinValue renders a stage-provided value.
	BuiltinValue(b ir.BuiltinValue) string
	// StorageElement renders element index of a storage buffer.
	StorageElement(st *ir.Storage, index Operand, write bool) string
	// Call renders a call to a user function.
	Call(fn *ir.Function, args []Operand) string
	// Builtin renders a call to a builtin function, failing for functions the backend lacks.
	Builtin(fn ir.BuiltinFunc, args []Operand) (string, error)

	// Sample renders a filtered texture sample. element and lod may be nil.
	Sample(s *ir.Sampler, element *Operand, coord Operand, lod *Operand) string
	// SampleDepth renders a depth comparison sample. element may be nil.
	SampleDepth(s *ir.Sampler, element *Operand, coord, ref Operand) string
	// TexelFetch renders an unfiltered texel read. element may be nil.
	TexelFetch(s *ir.Sampler, element *Operand, coord, lod Operand) string
	// TextureSize renders a mip level size query. element may be nil.
	TextureSize(s *ir.Sampler, element *Operand, lod Operand) string
	// ImageLoad renders a storage image read.
	ImageLoad(st *ir.Storage, coord Operand) string

	DeclareVar(w *Writer, l *ir.Local, init *Operand)
	DeclareArray(w *Writer, l *ir.Local)
	Assign(w *Writer, target string, value Operand)
	CompoundAssign(w *Writer, op ir.BinaryOp, target Operand, value Operand)
	If(w *Writer, cond string, then func() error, els func() error) error
	For(w *Writer, v *ir.Local, from, to Operand, body func() error) error
	While(w *Writer, cond string, body func() error) error
	DoWhile(w *Writer, cond string, body func() error) error
	Break(w *Writer)
	Continue(w *Writer)
	Discard(w *Writer)
	Return(w *Writer, value *Operand)
	Block(w *Writer, body func() error) error
	ImageStore(w *Writer, st *ir.Storage, coord, value Operand)
	ExprStatement(w *Writer, x Operand)

	// Header writes the preamble of one stage's source.
	Header(w *Writer, p *ir.Program, stage ir.StageKind)
	// Declarations writes the global declarations one stage needs.
	Declarations(w *Writer, p *ir.Program, stage ir.StageKind, usage *ir.Usage) error
	// FunctionSignature renders the opening line of a user function, without the brace.
	FunctionSignature(fn *ir.Function) string
	// BeginStage opens the entry point of a stage.
	BeginStage(w *Writer, p *ir.Program, s *ir.Stage)
	// EndStage closes the entry point of a stage.
	EndStage(w *Writer, p *ir.Program, s *ir.Stage)
}

// Sources holds the generated text of each stage. Stages the program lacks are empty.
type Sources struct {
	Vertex   string
	Fragment string
	Compute  string
}

// Stage returns the source of stage k.
func (s *Sources) Stage(k ir.StageKind) string {
	switch k {
	case ir.StageVertex:
		return s.Vertex
	case ir.StageFragment:
		return s.Fragment
	}
	return s.Compute
}

func (s *Sources) set(k ir.StageKind, src string) {
	switch k {
	case ir.StageVertex:
		s.Vertex = src
	case ir.StageFragment:
		s.Fragment = src
	default:
		s.Compute = src
	}
}
