package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithVertices fills the float stream with static vertices and declares the position, normal,
// uv and color attributes.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - MeshBuilderOption: a function that sets the float stream
func WithVertices(vertices []Vertex) MeshBuilderOption {
	return func(m *mesh) {
		buf := make([]byte, 0, len(vertices)*VertexSize)
		for i := range vertices {
			buf = vertices[i].Marshal(buf)
		}
		m.streams[0] = stream{data: buf, stride: VertexSize}
		for _, a := range vertexAttributes {
			m.attributes[a.name] = attribute{MeshAttribute: layout.MeshAttribute{Type: a.t, Offset: a.offset}}
		}
	}
}

// WithSkinnedVertices fills both streams from skinned vertices. Bone weights follow the
// vertex in the float stream; bone indices make up the integer stream.
//
// Parameters:
//   - vertices: the skinned vertices
//
// Returns:
//   - MeshBuilderOption: a function that sets both streams
func WithSkinnedVertices(vertices []SkinnedVertex) MeshBuilderOption {
	return func(m *mesh) {
		floats := make([]byte, 0, len(vertices)*(VertexSize+16))
		ints := make([]byte, 0, len(vertices)*16)
		for i := range vertices {
			floats = vertices[i].Marshal(floats)
			floats = putFloats(floats, vertices[i].BoneWeights[:]...)
			ints = putUints(ints, vertices[i].BoneIndices[:]...)
		}
		m.streams[0] = stream{data: floats, stride: VertexSize + 16}
		m.streams[1] = stream{data: ints, stride: 16}
		for _, a := range vertexAttributes {
			m.attributes[a.name] = attribute{MeshAttribute: layout.MeshAttribute{Type: a.t, Offset: a.offset}}
		}
		m.attributes[AttributeBoneWeights] = attribute{MeshAttribute: layout.MeshAttribute{Type: ir.TypeFloat4, Offset: VertexSize}}
		m.attributes[AttributeBoneIndices] = attribute{MeshAttribute: layout.MeshAttribute{Type: ir.TypeUint4}, integer: true}
	}
}

// WithStream sets a raw interleaved stream. Attributes inside it are declared with WithAttribute.
//
// Parameters:
//   - integer: true for the integer stream
//   - stride: the byte distance between elements
//   - data: the stream bytes
//
// Returns:
//   - MeshBuilderOption: a function that sets the stream
func WithStream(integer bool, stride int, data []byte) MeshBuilderOption {
	return func(m *mesh) {
		if stride <= 0 {
			panic(fmt.Sprintf("mesh: %q stream stride %d", m.label, stride))
		}
		m.streams[index(integer)] = stream{data: append([]byte(nil), data...), stride: stride}
	}
}

// WithAttribute declares a named attribute. Integer types live in the integer stream.
//
// Parameters:
//   - name: the attribute name matched against program attributes
//   - t: the attribute type
//   - offset: the byte offset inside an element of its stream
//
// Returns:
//   - MeshBuilderOption: a function that declares the attribute
func WithAttribute(name string, t ir.Type, offset int) MeshBuilderOption {
	return func(m *mesh) {
		m.attributes[name] = attribute{MeshAttribute: layout.MeshAttribute{Type: t, Offset: offset}, integer: t.IsInteger()}
	}
}

// WithIndices sets the triangle indices.
//
// Parameters:
//   - indices: the indices
//
// Returns:
//   - MeshBuilderOption: a function that sets the indices
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = append([]uint32(nil), indices...)
	}
}
