package material_test

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/material"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

func albedoState(t *testing.T, label string) pipeline.State {
	t.Helper()
	p, err := pipeline.NewPipeline("albedo", pipeline.PipelineTypeRender, pipeline.WithProgram(irtest.Albedo()))
	require.NoError(t, err)
	return pipeline.NewState(p, pipeline.WithLabel(label))
}

func white() *resource.Texture {
	return resource.NewPrebufferedTexture("white", &resource.Data{Width: 1, Height: 1, Depth: 1, Pixels: []byte{255, 255, 255, 255}})
}

func TestMaterialAppliesOnSetup(t *testing.T) {
	state := albedoState(t, "red")
	tex := white()
	m := material.NewMaterial(state,
		material.WithBaseColor(common.Vec4{1, 0, 0, 1}),
		material.WithDiffuseTexture(tex),
	)
	assert.Equal(t, "red", m.Name())
	assert.Equal(t, "albedo", m.PipelineKey())
	assert.Equal(t, common.Vec4{1, 0, 0, 1}, m.BaseColor())
	assert.False(t, state.Valid())

	state.Setup()
	g := state.Group(ir.ScopePipeline)
	assert.Equal(t, common.Vec4{1, 0, 0, 1}, common.Decode[common.Vec4](g.Uniform("uColor", 0)))
	assert.Same(t, tex, g.Texture(1, 0))

	m.SetBaseColor(common.Vec4{0, 0, 1, 1})
	assert.Equal(t, common.Vec4{0, 0, 1, 1}, common.Decode[common.Vec4](g.Uniform("uColor", 0)))
	assert.Equal(t, common.Vec4{0, 0, 1, 1}, m.BaseColor())
}

func TestUndeclaredPropertiesStayOnTheMaterial(t *testing.T) {
	m := material.NewMaterial(albedoState(t, "plain"),
		material.WithName("plain"),
		material.WithMetallic(0.5),
		material.WithNormalTexture(white()),
	)
	assert.Equal(t, float32(0.5), m.Metallic())
	assert.Equal(t, float32(1), m.Roughness())
	m.SetRoughness(0.25)
	assert.Equal(t, float32(0.25), m.Roughness())
	assert.NotNil(t, m.NormalTexture())

	m.State().Setup()
	assert.True(t, m.State().Valid())
}

func TestSamplerSettingsReachTheGroup(t *testing.T) {
	state := albedoState(t, "nearest")
	s := common.DefaultSamplerSettings()
	s.MagFilter = wgpu.FilterModeNearest
	m := material.NewMaterial(state, material.WithSampler(s))

	state.Setup()
	assert.Equal(t, wgpu.FilterModeNearest, state.Group(ir.ScopePipeline).Sampler(1).MagFilter)

	s.AddressModeU = wgpu.AddressModeClampToEdge
	m.SetSampler(s)
	assert.Equal(t, wgpu.AddressModeClampToEdge, state.Group(ir.ScopePipeline).Sampler(1).AddressModeU)
}

func TestResourceNamesOverride(t *testing.T) {
	state := albedoState(t, "unbound")
	m := material.NewMaterial(state, material.WithResourceNames("", "", "", "", ""))
	m.SetBaseColor(common.Vec4{0, 1, 0, 1})
	m.SetDiffuseTexture(white())

	state.Setup()
	g := state.Group(ir.ScopePipeline)
	assert.Equal(t, common.Vec4{}, common.Decode[common.Vec4](g.Uniform("uColor", 0)))
	assert.Nil(t, g.Texture(1, 0))
	assert.Equal(t, common.Vec4{0, 1, 0, 1}, m.BaseColor())
}
