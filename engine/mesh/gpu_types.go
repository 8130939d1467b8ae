package mesh

import (
	"encoding/binary"
	"math"
)

// VertexSize is the byte size of a marshalled Vertex.
const VertexSize = 48

// Vertex is the interleaved layout of a static mesh vertex.
type Vertex struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
	TexCoord [2]float32 // offset 24
	Color    [4]float32 // offset 32
}

// Marshal appends the little-endian bytes of v to buf.
func (v *Vertex) Marshal(buf []byte) []byte {
	buf = putFloats(buf, v.Position[:]...)
	buf = putFloats(buf, v.Normal[:]...)
	buf = putFloats(buf, v.TexCoord[:]...)
	return putFloats(buf, v.Color[:]...)
}

// SkinnedVertex extends Vertex with bone influences. The bone indices go to the integer
// stream, everything else to the float stream.
type SkinnedVertex struct {
	Vertex
	BoneIndices [4]uint32
	BoneWeights [4]float32
}

func putFloats(buf []byte, v ...float32) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func putUints(buf []byte, v ...uint32) []byte {
	for _, u := range v {
		buf = binary.LittleEndian.AppendUint32(buf, u)
	}
	return buf
}
