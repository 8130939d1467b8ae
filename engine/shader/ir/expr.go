package ir

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/common"
)

// Expr is a typed IR expression.
type Expr interface {
	// Type returns the value type the expression evaluates to.
	Type() Type
	expr()
}

// LiteralExpr is a scalar constant. Exactly one of the value fields is meaningful, selected by T.
type LiteralExpr struct {
	T     Type
	Float float32
	Int   int32
	Uint  uint32
	Bool  bool
}

// ConstructExpr builds a vector or matrix from its arguments.
type ConstructExpr struct {
	T    Type
	Args []Expr
}

// AttributeExpr reads a vertex input.
type AttributeExpr struct{ Attribute *Attribute }

// VaryingExpr reads (fragment) or writes (vertex) a varying.
type VaryingExpr struct{ Varying *Varying }

// OutputExpr is a fragment output, assignable only.
type OutputExpr struct{ Output *Output }

// UniformExpr reads a uniform. For uniform arrays it must be wrapped in an IndexExpr.
type UniformExpr struct{ Uniform *Uniform }

// LocalExpr reads or writes a local variable or parameter.
type LocalExpr struct{ Local *Local }

// BuiltinValue names a stage-provided value.
type BuiltinValue int

const (
	// BuiltinPosition is the clip-space position written by the vertex stage.
	BuiltinPosition BuiltinValue = iota
	BuiltinFragCoord
	BuiltinFrontFacing
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinGlobalInvocationID
)

// Type returns the IR type of the builtin value.
func (b BuiltinValue) Type() Type {
	switch b {
	case BuiltinPosition, BuiltinFragCoord:
		return TypeFloat4
	case BuiltinFrontFacing:
		return TypeBool
	case BuiltinVertexIndex, BuiltinInstanceIndex:
		return TypeInt
	}
	return TypeUint3
}

// Stage returns the only stage the builtin is available in.
func (b BuiltinValue) Stage() StageKind {
	switch b {
	case BuiltinPosition, BuiltinVertexIndex, BuiltinInstanceIndex:
		return StageVertex
	case BuiltinFragCoord, BuiltinFrontFacing:
		return StageFragment
	}
	return StageCompute
}

// BuiltinExpr references a BuiltinValue.
type BuiltinExpr struct{ Value BuiltinValue }

// IndexExpr indexes a vector, a matrix column, a local array or a uniform array.
type IndexExpr struct {
	Base  Expr
	Index Expr
}

// SwizzleExpr selects vector components with a pattern over "xyzw".
type SwizzleExpr struct {
	Base       Expr
	Components string
}

// CastExpr converts X to T component-wise.
type CastExpr struct {
	To Type
	X  Expr
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogicalAnd
	OpLogicalOr
)

// IsComparison reports whether op yields a boolean from two operands of equal type.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// IsLogical reports whether op combines two booleans.
func (op BinaryOp) IsLogical() bool {
	return op == OpLogicalAnd || op == OpLogicalOr
}

// BinaryExpr applies Op to L and R.
type BinaryExpr struct {
	Op   BinaryOp
	L, R Expr
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpBitNot
	OpNot
)

// UnaryExpr applies Op to X.
type UnaryExpr struct {
	Op UnaryOp
	X  Expr
}

// SampleExpr samples a texture with normalized coordinates. Element selects an entry of
// a sampler array; Lod is an optional explicit level of detail.
type SampleExpr struct {
	Sampler *Sampler
	Element Expr
	Coord   Expr
	Lod     Expr
}

// SampleDepthExpr performs a depth comparison against Ref.
type SampleDepthExpr struct {
	Sampler *Sampler
	Element Expr
	Coord   Expr
	Ref     Expr
}

// TexelFetchExpr reads a single texel with integer coordinates.
type TexelFetchExpr struct {
	Sampler *Sampler
	Element Expr
	Coord   Expr
	Lod     Expr
}

// TextureSizeExpr queries the dimensions of a mip level.
type TextureSizeExpr struct {
	Sampler *Sampler
	Element Expr
	Lod     Expr
}

// ImageLoadExpr reads a texel from a storage image.
type ImageLoadExpr struct {
	Storage *Storage
	Coord   Expr
}

// StorageElementExpr addresses one element of a storage buffer. It is assignable.
type StorageElementExpr struct {
	Storage *Storage
	Index   Expr
}

// CallExpr calls a user function.
type CallExpr struct {
	Function *Function
	Args     []Expr
}

// BuiltinCallExpr calls a builtin function.
type BuiltinCallExpr struct {
	Func BuiltinFunc
	Args []Expr
}

func (*LiteralExpr) expr()        {}
func (*ConstructExpr) expr()      {}
func (*AttributeExpr) expr()      {}
func (*VaryingExpr) expr()        {}
func (*OutputExpr) expr()         {}
func (*UniformExpr) expr()        {}
func (*LocalExpr) expr()          {}
func (*BuiltinExpr) expr()        {}
func (*IndexExpr) expr()          {}
func (*SwizzleExpr) expr()        {}
func (*CastExpr) expr()           {}
func (*BinaryExpr) expr()         {}
func (*UnaryExpr) expr()          {}
func (*SampleExpr) expr()         {}
func (*SampleDepthExpr) expr()    {}
func (*TexelFetchExpr) expr()     {}
func (*TextureSizeExpr) expr()    {}
func (*ImageLoadExpr) expr()      {}
func (*StorageElementExpr) expr() {}
func (*CallExpr) expr()           {}
func (*BuiltinCallExpr) expr()    {}

func (e *LiteralExpr) Type() Type        { return e.T }
func (e *ConstructExpr) Type() Type      { return e.T }
func (e *AttributeExpr) Type() Type      { return e.Attribute.Type }
func (e *VaryingExpr) Type() Type        { return e.Varying.Type }
func (e *OutputExpr) Type() Type         { return e.Output.Type }
func (e *UniformExpr) Type() Type        { return e.Uniform.Type }
func (e *LocalExpr) Type() Type          { return e.Local.Type }
func (e *BuiltinExpr) Type() Type        { return e.Value.Type() }
func (e *CastExpr) Type() Type           { return e.To }
func (e *SampleExpr) Type() Type         { return TypeFloat4 }
func (e *SampleDepthExpr) Type() Type    { return TypeFloat }
func (e *TexelFetchExpr) Type() Type     { return TypeFloat4 }
func (e *ImageLoadExpr) Type() Type      { return e.Storage.Format.TexelType() }
func (e *StorageElementExpr) Type() Type { return e.Storage.Elem }
func (e *CallExpr) Type() Type           { return e.Function.Return }
func (e *BuiltinCallExpr) Type() Type    { return e.Func.ResultType(e.Args) }

func (e *TextureSizeExpr) Type() Type {
	return VectorOf(common.ScalarInt, e.Sampler.Dim.SizeWidth())
}

func (e *IndexExpr) Type() Type {
	if isArray(e.Base) {
		return e.Base.Type()
	}
	t := e.Base.Type()
	if t.IsMatrix() {
		return t.Column()
	}
	return t.Component()
}

func (e *SwizzleExpr) Type() Type {
	return VectorOf(e.Base.Type().Scalar(), len(e.Components))
}

func (e *BinaryExpr) Type() Type {
	if e.Op.IsComparison() || e.Op.IsLogical() {
		return TypeBool
	}
	l, r := e.L.Type(), e.R.Type()
	if e.Op == OpMul {
		switch {
		case l.IsMatrix() && r.IsMatrix():
			return l
		case l.IsMatrix():
			return r
		case r.IsMatrix():
			return l
		}
	}
	if r.Components() > l.Components() && e.Op != OpShl && e.Op != OpShr {
		return r
	}
	return l
}

func (e *UnaryExpr) Type() Type {
	if e.Op == OpNot {
		return TypeBool
	}
	return e.X.Type()
}

// isArray reports whether e names an array value rather than a vector or matrix.
func isArray(e Expr) bool {
	switch v := e.(type) {
	case *UniformExpr:
		return v.Uniform.Count > 0
	case *LocalExpr:
		return v.Local.Len > 0
	}
	return false
}

// Float returns a float literal.
func Float(v float32) Expr { return &LiteralExpr{T: TypeFloat, Float: v} }

// Int returns a signed integer literal.
func Int(v int32) Expr { return &LiteralExpr{T: TypeInt, Int: v} }

// Uint returns an unsigned integer literal.
func Uint(v uint32) Expr { return &LiteralExpr{T: TypeUint, Uint: v} }

// Bool returns a boolean literal.
func Bool(v bool) Expr { return &LiteralExpr{T: TypeBool, Bool: v} }

// Vec constructs a vector or matrix of type t.
func Vec(t Type, args ...Expr) Expr { return &ConstructExpr{T: t, Args: args} }

// Ref returns the attribute as an expression.
func (a *Attribute) Ref() Expr { return &AttributeExpr{Attribute: a} }

// Ref returns the varying as an expression.
func (v *Varying) Ref() Expr { return &VaryingExpr{Varying: v} }

// Ref returns the output as an expression.
func (o *Output) Ref() Expr { return &OutputExpr{Output: o} }

// Ref returns the uniform as an expression.
func (u *Uniform) Ref() Expr { return &UniformExpr{Uniform: u} }

// At indexes a uniform array.
func (u *Uniform) At(i Expr) Expr {
	if u.Count == 0 {
		panic(fmt.Sprintf("ir: uniform `%s` is not an array", u.Name))
	}
	return &IndexExpr{Base: u.Ref(), Index: i}
}

// Ref returns the local as an expression.
func (l *Local) Ref() Expr { return &LocalExpr{Local: l} }

// At indexes a local array.
func (l *Local) At(i Expr) Expr { return &IndexExpr{Base: l.Ref(), Index: i} }

// Builtin references a stage-provided value.
func Builtin(b BuiltinValue) Expr { return &BuiltinExpr{Value: b} }

// Index indexes a vector or matrix.
func Index(base, i Expr) Expr { return &IndexExpr{Base: base, Index: i} }

// Swizzle selects components of base, e.g. Swizzle(v, "xy").
func Swizzle(base Expr, components string) Expr {
	if len(components) == 0 || len(components) > 4 {
		panic(fmt.Sprintf("ir: invalid swizzle %q", components))
	}
	for _, c := range components {
		switch c {
		case 'x', 'y', 'z', 'w':
		default:
			panic(fmt.Sprintf("ir: invalid swizzle %q", components))
		}
	}
	return &SwizzleExpr{Base: base, Components: components}
}

// Cast converts x to t.
func Cast(t Type, x Expr) Expr { return &CastExpr{To: t, X: x} }

// Binary applies op to l and r.
func Binary(op BinaryOp, l, r Expr) Expr { return &BinaryExpr{Op: op, L: l, R: r} }

func Add(l, r Expr) Expr { return Binary(OpAdd, l, r) }
func Sub(l, r Expr) Expr { return Binary(OpSub, l, r) }
func Mul(l, r Expr) Expr { return Binary(OpMul, l, r) }
func Div(l, r Expr) Expr { return Binary(OpDiv, l, r) }
func Mod(l, r Expr) Expr { return Binary(OpMod, l, r) }
func Lt(l, r Expr) Expr  { return Binary(OpLt, l, r) }
func Gt(l, r Expr) Expr  { return Binary(OpGt, l, r) }
func Eq(l, r Expr) Expr  { return Binary(OpEq, l, r) }
func And(l, r Expr) Expr { return Binary(OpLogicalAnd, l, r) }
func Or(l, r Expr) Expr  { return Binary(OpLogicalOr, l, r) }

// Neg negates x.
func Neg(x Expr) Expr { return &UnaryExpr{Op: OpNeg, X: x} }

// Not negates a boolean.
func Not(x Expr) Expr { return &UnaryExpr{Op: OpNot, X: x} }

// BitNot complements the bits of x.
func BitNot(x Expr) Expr { return &UnaryExpr{Op: OpBitNot, X: x} }

// Sample samples s at coord.
func Sample(s *Sampler, coord Expr) Expr { return &SampleExpr{Sampler: s, Coord: coord} }

// SampleLevel samples s at coord with an explicit level of detail.
func SampleLevel(s *Sampler, coord, lod Expr) Expr {
	return &SampleExpr{Sampler: s, Coord: coord, Lod: lod}
}

// SampleElement samples element i of a sampler array.
func SampleElement(s *Sampler, i, coord Expr) Expr {
	return &SampleExpr{Sampler: s, Element: i, Coord: coord}
}

// SampleDepth compares ref against the depth texture s at coord.
func SampleDepth(s *Sampler, coord, ref Expr) Expr {
	return &SampleDepthExpr{Sampler: s, Coord: coord, Ref: ref}
}

// TexelFetch reads one texel of s.
func TexelFetch(s *Sampler, coord, lod Expr) Expr {
	return &TexelFetchExpr{Sampler: s, Coord: coord, Lod: lod}
}

// TextureSize queries the size of mip level lod of s.
func TextureSize(s *Sampler, lod Expr) Expr { return &TextureSizeExpr{Sampler: s, Lod: lod} }

// ImageLoad reads a texel from the storage image st.
func ImageLoad(st *Storage, coord Expr) Expr { return &ImageLoadExpr{Storage: st, Coord: coord} }

// Element addresses element i of the storage buffer st.
func (st *Storage) Element(i Expr) Expr { return &StorageElementExpr{Storage: st, Index: i} }

// Call calls a builtin function.
func Call(fn BuiltinFunc, args ...Expr) Expr { return &BuiltinCallExpr{Func: fn, Args: args} }
