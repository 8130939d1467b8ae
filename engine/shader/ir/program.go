// Package ir defines the typed, backend-agnostic description of a GPU program.
//
// A Program is authored once through the builder methods below and is treated as
// immutable afterwards. Code generators and the resource-layout builder only read it.
package ir

import "fmt"

// ProgramKind distinguishes raster programs from compute programs.
type ProgramKind int

const (
	// ProgramRender requires a vertex and a fragment stage.
	ProgramRender ProgramKind = iota
	// ProgramCompute requires a compute stage.
	ProgramCompute
)

// Program is the root of the IR.
type Program struct {
	Name string
	Kind ProgramKind

	Attributes     []*Attribute
	Varyings       []*Varying
	Outputs        []*Output
	UniformBuffers []*UniformBuffer
	Samplers       []*Sampler
	Storages       []*Storage
	Functions      []*Function

	Vertex, Fragment, Compute *Stage
}

// Attribute is a vertex shader input.
type Attribute struct {
	Name string
	Type Type
	Rate InputRate
	// Location is the index of the attribute in declaration order.
	Location int
}

// Varying is a value written by the vertex stage and interpolated into the fragment stage.
type Varying struct {
	Name     string
	Type     Type
	Location int
	// Flat disables interpolation. Integer varyings are always flat.
	Flat bool
}

// Output is a fragment shader color output.
type Output struct {
	Name     string
	Type     Type
	Location int
}

// UniformBuffer groups uniforms that are uploaded together.
type UniformBuffer struct {
	Name    string
	Scope   Scope
	Members []*Uniform
}

// Uniform is one member of a UniformBuffer. Count > 0 declares a fixed-size array.
type Uniform struct {
	Name   string
	Type   Type
	Count  int
	Buffer *UniformBuffer
}

// Sampler is a sampled texture binding. ArrayLen > 0 declares an array of textures.
type Sampler struct {
	Name     string
	Dim      Dimension
	ArrayLen int
	// Depth marks a comparison (shadow) sampler over a depth texture.
	Depth bool
	Scope Scope
}

// StorageKind selects between storage images and storage buffers.
type StorageKind int

const (
	StorageImage StorageKind = iota
	StorageBuffer
)

// Storage is a read/write resource. Images carry a Format and Dim; buffers carry
// an element type and are exposed as a runtime-sized array of Elem.
type Storage struct {
	Name   string
	Kind   StorageKind
	Format Format
	Dim    Dimension
	Elem   Type
	Scope  Scope
}

// Stage is the body of one programmable stage.
type Stage struct {
	Kind StageKind
	Body *Block
	// WorkgroupSize is only meaningful for compute stages.
	WorkgroupSize [3]uint32
}

// Function is a user helper callable from stages and other functions.
type Function struct {
	Name   string
	Return Type
	Params []*Local
	Body   *Block
}

// Local is a function parameter or a block-scoped variable. Len > 0 declares a local array.
type Local struct {
	Name string
	Type Type
	Len  int
}

// NewProgram creates an empty render program with vertex and fragment stage bodies.
//
// Parameters:
//   - name: a debug name used as a label for generated sources and GPU objects
//
// Returns:
//   - *Program: the new program
func NewProgram(name string) *Program {
	return &Program{
		Name:     name,
		Kind:     ProgramRender,
		Vertex:   &Stage{Kind: StageVertex, Body: &Block{}},
		Fragment: &Stage{Kind: StageFragment, Body: &Block{}},
	}
}

// NewComputeProgram creates an empty compute program.
//
// Parameters:
//   - name: a debug name
//   - x, y, z: the workgroup size
//
// Returns:
//   - *Program: the new program
func NewComputeProgram(name string, x, y, z uint32) *Program {
	return &Program{
		Name:    name,
		Kind:    ProgramCompute,
		Compute: &Stage{Kind: StageCompute, Body: &Block{}, WorkgroupSize: [3]uint32{x, y, z}},
	}
}

// Stages returns the non-nil stages in pipeline order.
func (p *Program) Stages() []*Stage {
	var out []*Stage
	for _, s := range []*Stage{p.Vertex, p.Fragment, p.Compute} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Stage returns the stage of the given kind, or nil.
func (p *Program) Stage(k StageKind) *Stage {
	switch k {
	case StageVertex:
		return p.Vertex
	case StageFragment:
		return p.Fragment
	case StageCompute:
		return p.Compute
	}
	return nil
}

// Attribute declares a per-vertex input.
func (p *Program) Attribute(name string, t Type) *Attribute {
	return p.addAttribute(name, t, PerVertex)
}

// InstanceAttribute declares a per-instance input.
func (p *Program) InstanceAttribute(name string, t Type) *Attribute {
	return p.addAttribute(name, t, PerInstance)
}

func (p *Program) addAttribute(name string, t Type, rate InputRate) *Attribute {
	if t.IsMatrix() || t == TypeBool {
		panic(fmt.Sprintf("ir: attribute `%s` cannot have type %s", name, t))
	}
	a := &Attribute{Name: name, Type: t, Rate: rate, Location: len(p.Attributes)}
	p.Attributes = append(p.Attributes, a)
	return a
}

// Varying declares a vertex-to-fragment value.
func (p *Program) Varying(name string, t Type) *Varying {
	v := &Varying{Name: name, Type: t, Location: len(p.Varyings), Flat: t.IsInteger()}
	p.Varyings = append(p.Varyings, v)
	return v
}

// Output declares a fragment color output.
func (p *Program) Output(name string, t Type) *Output {
	o := &Output{Name: name, Type: t, Location: len(p.Outputs)}
	p.Outputs = append(p.Outputs, o)
	return o
}

// UniformBuffer declares a uniform buffer bound at the given scope.
func (p *Program) UniformBuffer(name string, scope Scope) *UniformBuffer {
	b := &UniformBuffer{Name: name, Scope: scope}
	p.UniformBuffers = append(p.UniformBuffers, b)
	return b
}

// Member appends a uniform of type t.
func (b *UniformBuffer) Member(name string, t Type) *Uniform {
	return b.Array(name, t, 0)
}

// Array appends a uniform array of n elements of type t.
func (b *UniformBuffer) Array(name string, t Type, n int) *Uniform {
	if !t.Valid() {
		panic(fmt.Sprintf("ir: uniform `%s` has invalid type %s", name, t))
	}
	u := &Uniform{Name: name, Type: t, Count: n, Buffer: b}
	b.Members = append(b.Members, u)
	return u
}

// Sampler declares a sampled texture.
func (p *Program) Sampler(name string, dim Dimension, scope Scope) *Sampler {
	return p.SamplerArray(name, dim, 0, scope)
}

// SamplerArray declares an array of n sampled textures.
func (p *Program) SamplerArray(name string, dim Dimension, n int, scope Scope) *Sampler {
	s := &Sampler{Name: name, Dim: dim, ArrayLen: n, Scope: scope}
	p.Samplers = append(p.Samplers, s)
	return s
}

// DepthSampler declares a comparison sampler over a depth texture.
func (p *Program) DepthSampler(name string, dim Dimension, scope Scope) *Sampler {
	s := p.SamplerArray(name, dim, 0, scope)
	s.Depth = true
	return s
}

// StorageImage declares a storage texture.
func (p *Program) StorageImage(name string, format Format, dim Dimension, scope Scope) *Storage {
	st := &Storage{Name: name, Kind: StorageImage, Format: format, Dim: dim, Scope: scope}
	p.Storages = append(p.Storages, st)
	return st
}

// StorageBuffer declares a runtime-sized storage array of elem.
func (p *Program) StorageBuffer(name string, elem Type, scope Scope) *Storage {
	st := &Storage{Name: name, Kind: StorageBuffer, Elem: elem, Scope: scope}
	p.Storages = append(p.Storages, st)
	return st
}

// Function declares a user function. Parameters are available through fn.Params.
func (p *Program) Function(name string, ret Type, params ...Param) *Function {
	fn := &Function{Name: name, Return: ret, Body: &Block{}}
	for _, prm := range params {
		fn.Params = append(fn.Params, &Local{Name: prm.Name, Type: prm.Type})
	}
	p.Functions = append(p.Functions, fn)
	return fn
}

// Param describes a function parameter.
type Param struct {
	Name string
	Type Type
}

// P is shorthand for a Param literal.
func P(name string, t Type) Param {
	return Param{Name: name, Type: t}
}

// Param returns the i-th parameter as an expression.
func (fn *Function) Param(i int) Expr {
	return fn.Params[i].Ref()
}

// Call builds a call expression to fn.
func (fn *Function) Call(args ...Expr) Expr {
	return &CallExpr{Function: fn, Args: args}
}
