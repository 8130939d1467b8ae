package ir

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/common"
)

// Type is the value type of an IR expression, attribute or uniform.
type Type int

const (
	TypeVoid Type = iota
	TypeBool
	TypeInt
	TypeInt2
	TypeInt3
	TypeInt4
	TypeUint
	TypeUint2
	TypeUint3
	TypeUint4
	TypeFloat
	TypeFloat2
	TypeFloat3
	TypeFloat4
	TypeMat3
	TypeMat4
)

var typeNames = map[Type]string{
	TypeVoid:   "void",
	TypeBool:   "bool",
	TypeInt:    "int",
	TypeInt2:   "int2",
	TypeInt3:   "int3",
	TypeInt4:   "int4",
	TypeUint:   "uint",
	TypeUint2:  "uint2",
	TypeUint3:  "uint3",
	TypeUint4:  "uint4",
	TypeFloat:  "float",
	TypeFloat2: "float2",
	TypeFloat3: "float3",
	TypeFloat4: "float4",
	TypeMat3:   "mat3",
	TypeMat4:   "mat4",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a known non-void type.
func (t Type) Valid() bool {
	return t > TypeVoid && t <= TypeMat4
}

// Scalar returns the component kind of t.
func (t Type) Scalar() common.Scalar {
	switch {
	case t == TypeBool:
		return common.ScalarBool
	case t >= TypeInt && t <= TypeInt4:
		return common.ScalarInt
	case t >= TypeUint && t <= TypeUint4:
		return common.ScalarUint
	}
	return common.ScalarFloat
}

// Rows returns the number of components per column.
func (t Type) Rows() int {
	switch t {
	case TypeVoid:
		return 0
	case TypeBool, TypeInt, TypeUint, TypeFloat:
		return 1
	case TypeInt2, TypeUint2, TypeFloat2:
		return 2
	case TypeInt3, TypeUint3, TypeFloat3, TypeMat3:
		return 3
	}
	return 4
}

// Cols returns the number of columns; 1 for scalars and vectors.
func (t Type) Cols() int {
	switch t {
	case TypeVoid:
		return 0
	case TypeMat3:
		return 3
	case TypeMat4:
		return 4
	}
	return 1
}

// Components returns Rows()*Cols().
func (t Type) Components() int {
	return t.Rows() * t.Cols()
}

// IsMatrix reports whether t is a matrix type.
func (t Type) IsMatrix() bool {
	return t == TypeMat3 || t == TypeMat4
}

// IsVector reports whether t is a vector of two or more components.
func (t Type) IsVector() bool {
	return !t.IsMatrix() && t.Rows() > 1
}

// IsScalar reports whether t is a single component.
func (t Type) IsScalar() bool {
	return t.Components() == 1
}

// IsInteger reports whether t has signed or unsigned integer components.
func (t Type) IsInteger() bool {
	s := t.Scalar()
	return t != TypeVoid && (s == common.ScalarInt || s == common.ScalarUint)
}

// Component returns the scalar type of t's components.
func (t Type) Component() Type {
	return VectorOf(t.Scalar(), 1)
}

// Column returns the column vector type of a matrix, or t itself.
func (t Type) Column() Type {
	if !t.IsMatrix() {
		return t
	}
	return VectorOf(common.ScalarFloat, t.Rows())
}

// VectorOf returns the vector type with n components of kind s. n == 1 yields the scalar type.
func VectorOf(s common.Scalar, n int) Type {
	if n < 1 || n > 4 {
		panic(fmt.Sprintf("ir: vector width %d out of range", n))
	}
	switch s {
	case common.ScalarBool:
		if n != 1 {
			panic("ir: boolean vectors are not supported")
		}
		return TypeBool
	case common.ScalarInt:
		return TypeInt + Type(n-1)
	case common.ScalarUint:
		return TypeUint + Type(n-1)
	}
	return TypeFloat + Type(n-1)
}

// Std140Align returns the base alignment of t in a std140 uniform block.
func (t Type) Std140Align() int {
	switch {
	case t.IsMatrix():
		return 16
	case t.Rows() == 1:
		return 4
	case t.Rows() == 2:
		return 8
	}
	return 16
}

// Std140Size returns the size in bytes of a single non-array t in a std140 block.
// Matrix columns are padded to 16 bytes.
func (t Type) Std140Size() int {
	if t.IsMatrix() {
		return 16 * t.Cols()
	}
	return 4 * t.Rows()
}

// Std140ArrayStride returns the distance between consecutive elements of an array of t.
// Every element is rounded up to a multiple of 16 bytes.
func (t Type) Std140ArrayStride() int {
	return common.AlignUp(t.Std140Size(), 16)
}

// Matches reports whether a value of the given shape can be stored into t.
//
// Parameters:
//   - v: the candidate value
//
// Returns:
//   - bool: true when component kind, rows and columns all agree
func (t Type) Matches(v common.Value) bool {
	s, rows, cols := v.Shape()
	return s == t.Scalar() && rows == t.Rows() && cols == t.Cols()
}

// Dimension is the shape of a sampled or storage texture.
type Dimension int

const (
	Dim2D Dimension = iota
	Dim1D
	Dim3D
	DimCube
	Dim1DArray
	Dim2DArray
	DimCubeArray
)

var dimensionNames = map[Dimension]string{
	Dim1D:        "1d",
	Dim2D:        "2d",
	Dim3D:        "3d",
	DimCube:      "cube",
	Dim1DArray:   "1d_array",
	Dim2DArray:   "2d_array",
	DimCubeArray: "cube_array",
}

func (d Dimension) String() string {
	if n, ok := dimensionNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// Layered reports whether d addresses texture array layers.
func (d Dimension) Layered() bool {
	return d == Dim1DArray || d == Dim2DArray || d == DimCubeArray
}

// CoordWidth returns the number of components of a normalized sampling coordinate for d.
func (d Dimension) CoordWidth() int {
	switch d {
	case Dim1D:
		return 1
	case Dim2D, Dim1DArray:
		return 2
	case Dim3D, DimCube, Dim2DArray:
		return 3
	}
	return 4
}

// TexelWidth returns the number of components of an integer texel coordinate for d.
func (d Dimension) TexelWidth() int {
	switch d {
	case Dim1D:
		return 1
	case Dim2D, Dim1DArray:
		return 2
	}
	return 3
}

// SizeWidth returns the number of components of a texture size query for d.
func (d Dimension) SizeWidth() int {
	switch d {
	case Dim1D:
		return 1
	case Dim2D, DimCube, Dim1DArray:
		return 2
	}
	return 3
}

// Format is a texel storage format used by storage textures and decoded texture data.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatRGBA16F
	FormatRGBA32F
	FormatR32F
	FormatR32I
	FormatR32UI
	FormatRGBA32I
	FormatRGBA32UI
	FormatDepth32F
)

var formatNames = map[Format]string{
	FormatRGBA8:    "rgba8",
	FormatRGBA16F:  "rgba16f",
	FormatRGBA32F:  "rgba32f",
	FormatR32F:     "r32f",
	FormatR32I:     "r32i",
	FormatR32UI:    "r32ui",
	FormatRGBA32I:  "rgba32i",
	FormatRGBA32UI: "rgba32ui",
	FormatDepth32F: "depth32f",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// TexelType returns the IR type produced by loading one texel of format f.
func (f Format) TexelType() Type {
	switch f {
	case FormatR32I, FormatRGBA32I:
		return TypeInt4
	case FormatR32UI, FormatRGBA32UI:
		return TypeUint4
	}
	return TypeFloat4
}

// BytesPerTexel returns the size of a single texel of format f.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRGBA8, FormatR32F, FormatR32I, FormatR32UI, FormatDepth32F:
		return 4
	case FormatRGBA16F:
		return 8
	}
	return 16
}

// Access is the derived read/write mode of a storage resource.
type Access int

const (
	AccessReadOnly Access = iota
	AccessWriteOnly
	AccessReadWrite
)

func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "read"
	case AccessWriteOnly:
		return "write"
	}
	return "read_write"
}

// Scope is the binding frequency of a resource. Its numeric value is the bind group index.
type Scope int

const (
	// ScopeView holds per-view data such as camera matrices.
	ScopeView Scope = iota
	// ScopePipeline holds per-pipeline/material data.
	ScopePipeline
	// ScopeMesh holds per-draw data such as model transforms.
	ScopeMesh
)

// Scopes lists every scope in bind group order.
var Scopes = [...]Scope{ScopeView, ScopePipeline, ScopeMesh}

func (s Scope) String() string {
	switch s {
	case ScopeView:
		return "view"
	case ScopePipeline:
		return "pipeline"
	case ScopeMesh:
		return "mesh"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// StageKind identifies a programmable pipeline stage.
type StageKind int

const (
	StageVertex StageKind = iota
	StageFragment
	StageCompute
)

func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	}
	return fmt.Sprintf("StageKind(%d)", int(k))
}

// StageSet is a bit set of StageKind values.
type StageSet uint8

// StagesOf builds a set from the given stage kinds.
func StagesOf(kinds ...StageKind) StageSet {
	var s StageSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// Has reports whether k is in the set.
func (s StageSet) Has(k StageKind) bool {
	return s&(1<<k) != 0
}

// Add returns s with k included.
func (s StageSet) Add(k StageKind) StageSet {
	return s | 1<<k
}

func (s StageSet) String() string {
	out := ""
	for _, k := range []StageKind{StageVertex, StageFragment, StageCompute} {
		if !s.Has(k) {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += k.String()
	}
	if out == "" {
		return "none"
	}
	return out
}

// InputRate selects how often a vertex attribute advances.
type InputRate int

const (
	PerVertex InputRate = iota
	PerInstance
)

func (r InputRate) String() string {
	if r == PerInstance {
		return "instance"
	}
	return "vertex"
}
