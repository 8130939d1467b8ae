package mesh_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

func TestQuadAttributes(t *testing.T) {
	q := mesh.Quad("quad")
	assert.Equal(t, 4, q.Count())
	assert.Len(t, q.Indices(), 6)
	assert.Len(t, q.Stream(false), 4*mesh.VertexSize)
	assert.Nil(t, q.Stream(true))

	uv, ok := q.Attribute(mesh.AttributeUV)
	require.True(t, ok)
	assert.Equal(t, layout.MeshAttribute{Type: ir.TypeFloat2, Offset: 24, Stride: mesh.VertexSize}, uv)

	_, ok = q.Attribute("tangent")
	assert.False(t, ok)
}

func TestVertexMarshalIsLittleEndian(t *testing.T) {
	v := mesh.Vertex{Position: [3]float32{1, 2, 3}, Color: [4]float32{0, 0, 0, 0.5}}
	buf := v.Marshal(nil)
	require.Len(t, buf, mesh.VertexSize)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[44:])))
}

func TestSkinnedVerticesSplitStreams(t *testing.T) {
	m := mesh.NewMesh("skinned", mesh.WithSkinnedVertices([]mesh.SkinnedVertex{
		{BoneIndices: [4]uint32{1, 2, 3, 4}, BoneWeights: [4]float32{1, 0, 0, 0}},
		{BoneIndices: [4]uint32{5, 6, 7, 8}, BoneWeights: [4]float32{0.5, 0.5, 0, 0}},
	}))
	assert.Equal(t, 2, m.Count())
	assert.Len(t, m.Stream(false), 2*(mesh.VertexSize+16))
	assert.Len(t, m.Stream(true), 32)
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(m.Stream(true)[16:]))

	idx, ok := m.Attribute(mesh.AttributeBoneIndices)
	require.True(t, ok)
	assert.Equal(t, 16, idx.Stride)
	assert.True(t, idx.Type.IsInteger())

	w, _ := m.Attribute(mesh.AttributeBoneWeights)
	assert.Equal(t, mesh.VertexSize, w.Offset)
	assert.Equal(t, mesh.VertexSize+16, w.Stride)
}

func TestQuadSatisfiesLitProgram(t *testing.T) {
	vl, err := layout.BuildVertexLayout(irtest.Lit(), mesh.Quad("quad"), nil)
	require.NoError(t, err)
	require.Len(t, vl.Bindings, 1)
	assert.Equal(t, mesh.VertexSize, vl.Bindings[0].Stride)
	assert.Len(t, vl.Bindings[0].Attributes, 2)
}

func TestInstanceSet(t *testing.T) {
	offsets := make([]byte, 3*12)
	inst := mesh.NewMesh("offsets",
		mesh.WithStream(false, 12, offsets),
		mesh.WithAttribute("offset", ir.TypeFloat3, 0),
	)
	assert.Equal(t, 3, inst.Count())
	a, ok := inst.Attribute("offset")
	require.True(t, ok)
	assert.Equal(t, 12, a.Stride)

	v := inst.Version()
	inst.SetStream(false, make([]byte, 36))
	assert.Equal(t, v+1, inst.Version())
	assert.Panics(t, func() { inst.SetStream(false, make([]byte, 12)) })
}

func TestMismatchedStreamsPanic(t *testing.T) {
	assert.Panics(t, func() {
		mesh.NewMesh("bad", mesh.WithStream(false, 12, make([]byte, 24)), mesh.WithStream(true, 4, make([]byte, 12)))
	})
	assert.Panics(t, func() { mesh.NewMesh("ragged", mesh.WithStream(false, 12, make([]byte, 13))) })
}

func TestCube(t *testing.T) {
	c := mesh.Cube("cube")
	assert.Equal(t, 24, c.Count())
	assert.Len(t, c.Indices(), 36)
}
