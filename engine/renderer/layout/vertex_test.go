package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

type attributes map[string]layout.MeshAttribute

func (a attributes) Attribute(name string) (layout.MeshAttribute, bool) {
	m, ok := a[name]
	return m, ok
}

func TestBuildVertexLayout(t *testing.T) {
	mesh := attributes{
		"position": {Type: ir.TypeFloat3, Offset: 0, Stride: 20},
		"uv":       {Type: ir.TypeFloat2, Offset: 12, Stride: 20},
	}
	vl, err := layout.BuildVertexLayout(irtest.Albedo(), mesh, nil)
	require.NoError(t, err)
	require.Len(t, vl.Bindings, 1)

	b := vl.Bindings[0]
	assert.Equal(t, ir.PerVertex, b.Rate)
	assert.False(t, b.Integer)
	assert.Equal(t, 20, b.Stride)
	assert.Equal(t, []layout.VertexAttribute{
		{Name: "position", Location: 0, Type: ir.TypeFloat3, Offset: 0},
		{Name: "uv", Location: 1, Type: ir.TypeFloat2, Offset: 12},
	}, b.Attributes)
}

func TestBuildVertexLayoutSplitsIntegerAndInstanceStreams(t *testing.T) {
	p := ir.NewProgram("skinned")
	p.Attribute("position", ir.TypeFloat3)
	p.Attribute("joints", ir.TypeUint4)
	p.InstanceAttribute("offset", ir.TypeFloat3)
	p.InstanceAttribute("layer", ir.TypeInt)

	mesh := attributes{
		"position": {Type: ir.TypeFloat3, Stride: 12},
		"joints":   {Type: ir.TypeUint4, Stride: 16},
	}
	instances := attributes{
		"offset": {Type: ir.TypeFloat3, Stride: 12},
		"layer":  {Type: ir.TypeInt, Stride: 4},
	}
	vl, err := layout.BuildVertexLayout(p, mesh, instances)
	require.NoError(t, err)
	require.Len(t, vl.Bindings, 4)

	assert.Equal(t, "position", vl.Bindings[0].Attributes[0].Name)
	assert.True(t, vl.Bindings[1].Integer)
	assert.Equal(t, 1, vl.Bindings[1].Attributes[0].Location)
	assert.Equal(t, ir.PerInstance, vl.Bindings[2].Rate)
	assert.Equal(t, "layer", vl.Bindings[3].Attributes[0].Name)
	for i, b := range vl.Bindings {
		assert.Equal(t, i, b.Index)
	}
}

func TestBuildVertexLayoutErrors(t *testing.T) {
	_, err := layout.BuildVertexLayout(irtest.Albedo(), attributes{"position": {Type: ir.TypeFloat3, Stride: 12}}, nil)
	require.ErrorIs(t, err, layout.ErrMissingAttribute)
	assert.Contains(t, err.Error(), "mesh missing required attribute `uv`")

	p := ir.NewProgram("instanced")
	p.InstanceAttribute("offset", ir.TypeFloat3)
	_, err = layout.BuildVertexLayout(p, attributes{}, nil)
	require.ErrorIs(t, err, layout.ErrMissingInstanceAttributes)

	mismatch := attributes{
		"position": {Type: ir.TypeInt3, Stride: 20},
		"uv":       {Type: ir.TypeFloat2, Offset: 12, Stride: 20},
	}
	_, err = layout.BuildVertexLayout(irtest.Albedo(), mismatch, nil)
	require.ErrorIs(t, err, layout.ErrAttributeType)

	strides := attributes{
		"position": {Type: ir.TypeFloat3, Stride: 12},
		"uv":       {Type: ir.TypeFloat2, Stride: 8},
	}
	_, err = layout.BuildVertexLayout(irtest.Albedo(), strides, nil)
	require.ErrorIs(t, err, layout.ErrStrideMismatch)
}

// pointerSource has a pointer receiver so a nil *pointerSource is a valid AttributeSource.
type pointerSource struct {
	attrs attributes
}

func (s *pointerSource) Attribute(name string) (layout.MeshAttribute, bool) {
	return s.attrs.Attribute(name)
}

func TestBuildVertexLayoutTypedNilSources(t *testing.T) {
	p := ir.NewProgram("instanced")
	p.Attribute("position", ir.TypeFloat3)
	p.InstanceAttribute("offset", ir.TypeFloat3)
	mesh := attributes{"position": {Type: ir.TypeFloat3, Stride: 12}}

	var missing *pointerSource
	_, err := layout.BuildVertexLayout(p, mesh, missing)
	require.ErrorIs(t, err, layout.ErrMissingInstanceAttributes)

	_, err = layout.BuildVertexLayout(p, attributes(nil), missing)
	require.ErrorIs(t, err, layout.ErrMissingAttribute)

	assert.True(t, layout.IsNil(nil))
	assert.True(t, layout.IsNil(missing))
	assert.False(t, layout.IsNil(mesh))
}
