package common

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Scalar identifies the 32-bit component kind of a Value.
type Scalar int

const (
	ScalarFloat Scalar = iota
	ScalarInt
	ScalarUint
	ScalarBool
)

// String returns the lowercase name of the scalar kind.
func (s Scalar) String() string {
	switch s {
	case ScalarFloat:
		return "float"
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarBool:
		return "bool"
	}
	return "unknown"
}

// Value is implemented by every math type that can be written into GPU uniform memory.
// Components are 32 bits wide and laid out column-major. Matrices report Cols > 1 so the
// caller can place each column at its own stride (std140 pads every column to 16 bytes).
type Value interface {
	// Shape reports the component kind and the dimensions of the value.
	//
	// Returns:
	//   - Scalar: the component kind
	//   - int: the number of rows (components per column)
	//   - int: the number of columns (1 for scalars and vectors)
	Shape() (Scalar, int, int)

	// Words returns the raw 32-bit components in column-major order.
	//
	// Returns:
	//   - []uint32: rows*cols words
	Words() []uint32

	// WriteAt writes the value into buf starting at offset, placing consecutive columns
	// columnStride bytes apart.
	//
	// Parameters:
	//   - buf: destination byte slice
	//   - offset: byte offset of the first component
	//   - columnStride: byte distance between the starts of consecutive columns
	WriteAt(buf []byte, offset, columnStride int)
}

type (
	Float float32
	Int   int32
	Uint  uint32
	Bool  bool

	Vec2 [2]float32
	Vec3 [3]float32
	Vec4 [4]float32

	IVec2 [2]int32
	IVec3 [3]int32
	IVec4 [4]int32

	UVec2 [2]uint32
	UVec3 [3]uint32
	UVec4 [4]uint32

	// Mat3 is a column-major 3x3 matrix.
	Mat3 [9]float32
	// Mat4 is a column-major 4x4 matrix.
	Mat4 [16]float32
)

var (
	_ Value = Float(0)
	_ Value = Int(0)
	_ Value = Uint(0)
	_ Value = Bool(false)
	_ Value = Vec2{}
	_ Value = Vec3{}
	_ Value = Vec4{}
	_ Value = IVec2{}
	_ Value = IVec3{}
	_ Value = IVec4{}
	_ Value = UVec2{}
	_ Value = UVec3{}
	_ Value = UVec4{}
	_ Value = Mat3{}
	_ Value = Mat4{}
)

// WriteWords places words into buf as rows x cols little-endian 32-bit values.
//
// Parameters:
//   - buf: destination byte slice
//   - offset: byte offset of the first component
//   - rows: components per column
//   - columnStride: byte distance between consecutive columns
//   - words: column-major source words
func WriteWords(buf []byte, offset, rows, columnStride int, words []uint32) {
	for i, w := range words {
		col, row := i/rows, i%rows
		binary.LittleEndian.PutUint32(buf[offset+col*columnStride+row*4:], w)
	}
}

// ReadWords is the inverse of WriteWords.
//
// Parameters:
//   - buf: source byte slice
//   - offset: byte offset of the first component
//   - rows, cols: the dimensions of the value
//   - columnStride: byte distance between consecutive columns
//
// Returns:
//   - []uint32: rows*cols column-major words
func ReadWords(buf []byte, offset, rows, cols, columnStride int) []uint32 {
	words := make([]uint32, 0, rows*cols)
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			words = append(words, binary.LittleEndian.Uint32(buf[offset+col*columnStride+row*4:]))
		}
	}
	return words
}

func floatWords(v ...float32) []uint32 {
	out := make([]uint32, len(v))
	for i, f := range v {
		out[i] = math.Float32bits(f)
	}
	return out
}

func intWords(v ...int32) []uint32 {
	out := make([]uint32, len(v))
	for i, n := range v {
		out[i] = uint32(n)
	}
	return out
}

func (v Float) Shape() (Scalar, int, int) { return ScalarFloat, 1, 1 }
func (v Float) Words() []uint32           { return floatWords(float32(v)) }
func (v Float) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 1, columnStride, v.Words())
}

func (v Int) Shape() (Scalar, int, int) { return ScalarInt, 1, 1 }
func (v Int) Words() []uint32           { return intWords(int32(v)) }
func (v Int) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 1, columnStride, v.Words())
}

func (v Uint) Shape() (Scalar, int, int) { return ScalarUint, 1, 1 }
func (v Uint) Words() []uint32           { return []uint32{uint32(v)} }
func (v Uint) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 1, columnStride, v.Words())
}

func (v Bool) Shape() (Scalar, int, int) { return ScalarBool, 1, 1 }
func (v Bool) Words() []uint32 {
	if v {
		return []uint32{1}
	}
	return []uint32{0}
}
func (v Bool) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 1, columnStride, v.Words())
}

func (v Vec2) Shape() (Scalar, int, int) { return ScalarFloat, 2, 1 }
func (v Vec2) Words() []uint32           { return floatWords(v[:]...) }
func (v Vec2) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 2, columnStride, v.Words())
}

func (v Vec3) Shape() (Scalar, int, int) { return ScalarFloat, 3, 1 }
func (v Vec3) Words() []uint32           { return floatWords(v[:]...) }
func (v Vec3) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 3, columnStride, v.Words())
}

func (v Vec4) Shape() (Scalar, int, int) { return ScalarFloat, 4, 1 }
func (v Vec4) Words() []uint32           { return floatWords(v[:]...) }
func (v Vec4) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 4, columnStride, v.Words())
}

func (v IVec2) Shape() (Scalar, int, int) { return ScalarInt, 2, 1 }
func (v IVec2) Words() []uint32           { return intWords(v[:]...) }
func (v IVec2) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 2, columnStride, v.Words())
}

func (v IVec3) Shape() (Scalar, int, int) { return ScalarInt, 3, 1 }
func (v IVec3) Words() []uint32           { return intWords(v[:]...) }
func (v IVec3) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 3, columnStride, v.Words())
}

func (v IVec4) Shape() (Scalar, int, int) { return ScalarInt, 4, 1 }
func (v IVec4) Words() []uint32           { return intWords(v[:]...) }
func (v IVec4) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 4, columnStride, v.Words())
}

func (v UVec2) Shape() (Scalar, int, int) { return ScalarUint, 2, 1 }
func (v UVec2) Words() []uint32           { return append([]uint32(nil), v[:]...) }
func (v UVec2) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 2, columnStride, v.Words())
}

func (v UVec3) Shape() (Scalar, int, int) { return ScalarUint, 3, 1 }
func (v UVec3) Words() []uint32           { return append([]uint32(nil), v[:]...) }
func (v UVec3) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 3, columnStride, v.Words())
}

func (v UVec4) Shape() (Scalar, int, int) { return ScalarUint, 4, 1 }
func (v UVec4) Words() []uint32           { return append([]uint32(nil), v[:]...) }
func (v UVec4) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 4, columnStride, v.Words())
}

func (m Mat3) Shape() (Scalar, int, int) { return ScalarFloat, 3, 3 }
func (m Mat3) Words() []uint32           { return floatWords(m[:]...) }
func (m Mat3) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 3, columnStride, m.Words())
}

func (m Mat4) Shape() (Scalar, int, int) { return ScalarFloat, 4, 4 }
func (m Mat4) Words() []uint32           { return floatWords(m[:]...) }
func (m Mat4) WriteAt(buf []byte, offset, columnStride int) {
	WriteWords(buf, offset, 4, columnStride, m.Words())
}

// Decode rebuilds a value of type V from its column-major words, the inverse of Words.
//
// Parameters:
//   - words: at least rows*cols words for V
//
// Returns:
//   - V: the decoded value
func Decode[V Value](words []uint32) V {
	var v V
	switch p := any(&v).(type) {
	case *Float:
		*p = Float(math.Float32frombits(words[0]))
	case *Int:
		*p = Int(int32(words[0]))
	case *Uint:
		*p = Uint(words[0])
	case *Bool:
		*p = words[0] != 0
	case *Vec2:
		decodeFloats(p[:], words)
	case *Vec3:
		decodeFloats(p[:], words)
	case *Vec4:
		decodeFloats(p[:], words)
	case *Mat3:
		decodeFloats(p[:], words)
	case *Mat4:
		decodeFloats(p[:], words)
	case *IVec2:
		decodeInts(p[:], words)
	case *IVec3:
		decodeInts(p[:], words)
	case *IVec4:
		decodeInts(p[:], words)
	case *UVec2:
		copy(p[:], words)
	case *UVec3:
		copy(p[:], words)
	case *UVec4:
		copy(p[:], words)
	default:
		panic(fmt.Sprintf("common: cannot decode %T", v))
	}
	return v
}

func decodeFloats(dst []float32, words []uint32) {
	for i := range dst {
		dst[i] = math.Float32frombits(words[i])
	}
}

func decodeInts(dst []int32, words []uint32) {
	for i := range dst {
		dst[i] = int32(words[i])
	}
}
