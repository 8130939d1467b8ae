package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/glsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/wgsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

func TestTexturedGridGeneratesForBothBackends(t *testing.T) {
	p := texturedGrid()
	require.NoError(t, ir.Validate(p))

	layouts, err := layout.Build(p)
	require.NoError(t, err)

	w, err := wgsl.Generate(p, layouts)
	require.NoError(t, err)
	assert.Contains(t, w.Vertex, "uTime")
	assert.Contains(t, w.Fragment, "tAlbedo")

	g, err := glsl.Generate(p, glsl.WithVersion(330))
	require.NoError(t, err)
	assert.Contains(t, g.Vertex, "#version 330")
	assert.Contains(t, g.Vertex, "cell")
}

func TestGridInstances(t *testing.T) {
	m := gridInstances()
	assert.Equal(t, gridSize*gridSize, m.Count())
	a, ok := m.Attribute("cell")
	require.True(t, ok)
	assert.Equal(t, ir.TypeFloat3, a.Type)
	assert.Equal(t, 12, a.Stride)
}

func TestChecker(t *testing.T) {
	d := checker(4, 2)
	require.Len(t, d.Pixels, d.Size())
	assert.Equal(t, byte(255), d.Pixels[0])
	assert.Equal(t, byte(64), d.Pixels[2*4])
	assert.Equal(t, byte(64), d.Pixels[2*4*4])
	assert.Equal(t, byte(255), d.Pixels[(2*4+2)*4])
}

func TestNewSceneDerivesVertexLayout(t *testing.T) {
	s, err := newScene("")
	require.NoError(t, err)
	defer s.release()

	vl := s.pipeline.VertexLayout()
	require.NotNil(t, vl)
	var rates []ir.InputRate
	for _, b := range vl.Bindings {
		rates = append(rates, b.Rate)
	}
	assert.Contains(t, rates, ir.PerInstance)
	assert.NotPanics(t, func() { s.update(1.5) })
	assert.Equal(t, "textured_grid (16 instances)", s.String())
}
