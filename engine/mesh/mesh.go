// Package mesh holds CPU-side geometry: named vertex attributes laid out in one interleaved
// float stream and one interleaved integer stream, plus optional triangle indices. A Mesh is
// the attribute source a pipeline's vertex layout is matched against, and also serves as the
// per-instance data set of instanced draws.
package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// stream is one interleaved byte stream.
type stream struct {
	data   []byte
	stride int
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	label      string
	attributes map[string]attribute
	streams    [2]stream
	indices    []uint32
	count      int
	version    uint64
}

// attribute is a named attribute and the stream it lives in.
type attribute struct {
	layout.MeshAttribute
	integer bool
}

// Mesh is a geometry or instance data set.
type Mesh interface {
	layout.AttributeSource

	// Label returns the debug label.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Stream returns the interleaved bytes of the float or integer stream.
	//
	// Parameters:
	//   - integer: true for the integer stream
	//
	// Returns:
	//   - []byte: the stream bytes, nil when the stream is unused
	Stream(integer bool) []byte

	// Count returns the number of vertices, or instances for an instance set.
	//
	// Returns:
	//   - int: the element count
	Count() int

	// Indices returns the triangle indices, nil for non-indexed geometry.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// Version returns a counter bumped by every SetStream, so backends know to re-upload.
	//
	// Returns:
	//   - uint64: the content version
	Version() uint64

	// SetStream replaces the bytes of one stream. The stride and attributes are unchanged.
	//
	// Parameters:
	//   - integer: true for the integer stream
	//   - data: the new bytes, a whole number of elements long
	SetStream(integer bool, data []byte)
}

var _ Mesh = &mesh{}

// NewMesh creates a mesh from builder options. The element count is taken from the streams,
// which must agree.
//
// Parameters:
//   - label: a debug label
//   - options: a variadic list of MeshBuilderOption functions
//
// Returns:
//   - Mesh: the mesh
func NewMesh(label string, options ...MeshBuilderOption) Mesh {
	m := &mesh{label: label, attributes: map[string]attribute{}, version: 1}
	for _, opt := range options {
		opt(m)
	}
	m.count = -1
	for _, s := range m.streams {
		if s.stride == 0 {
			continue
		}
		if len(s.data)%s.stride != 0 {
			panic(fmt.Sprintf("mesh: %q stream of %d bytes is not a multiple of stride %d", label, len(s.data), s.stride))
		}
		n := len(s.data) / s.stride
		if m.count >= 0 && n != m.count {
			panic(fmt.Sprintf("mesh: %q streams hold %d and %d elements", label, m.count, n))
		}
		m.count = n
	}
	m.count = max(m.count, 0)
	for name, a := range m.attributes {
		a.Stride = m.streams[index(a.integer)].stride
		m.attributes[name] = a
	}
	return m
}

func index(integer bool) int {
	if integer {
		return 1
	}
	return 0
}

func (m *mesh) Label() string {
	return m.label
}

func (m *mesh) Attribute(name string) (layout.MeshAttribute, bool) {
	a, ok := m.attributes[name]
	return a.MeshAttribute, ok
}

func (m *mesh) Stream(integer bool) []byte {
	return m.streams[index(integer)].data
}

func (m *mesh) Count() int {
	return m.count
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) Version() uint64 {
	return m.version
}

func (m *mesh) SetStream(integer bool, data []byte) {
	s := &m.streams[index(integer)]
	if s.stride == 0 || len(data) != m.count*s.stride {
		panic(fmt.Sprintf("mesh: %q stream replacement of %d bytes, want %d", m.label, len(data), m.count*s.stride))
	}
	s.data = append(s.data[:0], data...)
	m.version++
}

// Attributes of the standard vertex layouts.
const (
	AttributePosition    = "position"
	AttributeNormal      = "normal"
	AttributeUV          = "uv"
	AttributeColor       = "color"
	AttributeBoneIndices = "bone_indices"
	AttributeBoneWeights = "bone_weights"
)

var vertexAttributes = []struct {
	name   string
	t      ir.Type
	offset int
}{
	{AttributePosition, ir.TypeFloat3, 0},
	{AttributeNormal, ir.TypeFloat3, 12},
	{AttributeUV, ir.TypeFloat2, 24},
	{AttributeColor, ir.TypeFloat4, 32},
}
