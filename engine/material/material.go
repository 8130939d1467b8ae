// Package material binds surface properties to the named resources of a pipeline state.
package material

import (
	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
)

// Default resource names. A program that declares them can be driven by a Material without
// further configuration.
const (
	DefaultColorUniform     = "uColor"
	DefaultMetallicUniform  = "uMetallic"
	DefaultRoughnessUniform = "uRoughness"
	DefaultDiffuseTexture   = "tAlbedo"
	DefaultNormalTexture    = "tNormal"
)

// material is the implementation of the Material interface.
type material struct {
	name  string
	state pipeline.State

	// Resource names, resolved against the state when the material is created.
	colorName, metallicName, roughnessName string
	diffuseName, normalName                string

	// Initial values, applied once the handles exist.
	baseColor       common.Vec4
	metallic        common.Float
	roughness       common.Float
	diffuseTexture  *resource.Texture
	normalTexture   *resource.Texture
	samplerSettings *common.SamplerSettings

	color      *binding.Binding[common.Vec4]
	metal      *binding.Binding[common.Float]
	rough      *binding.Binding[common.Float]
	diffuse    *binding.Binding[*resource.Texture]
	diffuseSmp *binding.Binding[common.SamplerSettings]
	normal     *binding.Binding[*resource.Texture]
}

// Material defines the interface for a render material: surface properties written through
// typed binding handles into the bind group data of one pipeline state.
//
// A property whose resource the state's program does not declare is kept on the material
// and never reaches the GPU. Setters may be called before the state is set up; values are
// cached and applied during setup.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// State retrieves the pipeline state this material writes into.
	//
	// Returns:
	//   - pipeline.State: the state passed to DrawCall
	State() pipeline.State

	// PipelineKey retrieves the key of the pipeline the state belongs to.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BaseColor retrieves the albedo RGBA color of the material.
	//
	// Returns:
	//   - common.Vec4: the base color
	BaseColor() common.Vec4

	// SetBaseColor sets the albedo RGBA color.
	//
	// Parameters:
	//   - c: the base color
	SetBaseColor(c common.Vec4)

	// Metallic retrieves the metallic factor. A value of 0.0 represents a dielectric surface,
	// 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// SetMetallic sets the metallic factor.
	SetMetallic(v float32)

	// Roughness retrieves the roughness factor. A value of 0.0 represents a perfectly smooth
	// surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// SetRoughness sets the roughness factor.
	SetRoughness(v float32)

	// DiffuseTexture retrieves the diffuse texture, or nil if none is set.
	//
	// Returns:
	//   - *resource.Texture: the diffuse texture, or nil
	DiffuseTexture() *resource.Texture

	// SetDiffuseTexture sets the diffuse texture.
	//
	// Parameters:
	//   - t: the texture
	SetDiffuseTexture(t *resource.Texture)

	// NormalTexture retrieves the normal map, or nil if none is set.
	//
	// Returns:
	//   - *resource.Texture: the normal map, or nil
	NormalTexture() *resource.Texture

	// SetNormalTexture sets the normal map.
	//
	// Parameters:
	//   - t: the texture
	SetNormalTexture(t *resource.Texture)

	// SetSampler sets the sampler settings used with the diffuse texture.
	//
	// Parameters:
	//   - s: the sampler settings
	SetSampler(s common.SamplerSettings)

	// Release releases the state's bind group data.
	Release()
}

var _ Material = &material{}

// NewMaterial creates a Material writing into state.
//
// Parameters:
//   - state: the pipeline state, set up or not
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(state pipeline.State, options ...MaterialBuilderOption) Material {
	m := &material{
		name:          state.Label(),
		state:         state,
		colorName:     DefaultColorUniform,
		metallicName:  DefaultMetallicUniform,
		roughnessName: DefaultRoughnessUniform,
		diffuseName:   DefaultDiffuseTexture,
		normalName:    DefaultNormalTexture,
		baseColor:     common.Vec4{1, 1, 1, 1},
		metallic:      0.0,
		roughness:     1.0,
	}
	for _, opt := range options {
		opt(m)
	}

	if m.declares(m.colorName) {
		m.color = binding.NewUniform[common.Vec4](state, m.colorName)
		m.color.Set(m.baseColor)
	}
	if m.declares(m.metallicName) {
		m.metal = binding.NewUniform[common.Float](state, m.metallicName)
		m.metal.Set(m.metallic)
	}
	if m.declares(m.roughnessName) {
		m.rough = binding.NewUniform[common.Float](state, m.roughnessName)
		m.rough.Set(m.roughness)
	}
	if m.declares(m.diffuseName) {
		m.diffuse = binding.NewTexture(state, m.diffuseName)
		m.diffuseSmp = binding.NewSampler(state, m.diffuseName)
		if m.diffuseTexture != nil {
			m.diffuse.Set(m.diffuseTexture)
		}
		if m.samplerSettings != nil {
			m.diffuseSmp.Set(*m.samplerSettings)
		}
	}
	if m.declares(m.normalName) {
		m.normal = binding.NewTexture(state, m.normalName)
		if m.normalTexture != nil {
			m.normal.Set(m.normalTexture)
		}
	}
	return m
}

func (m *material) declares(name string) bool {
	if name == "" {
		return false
	}
	_, e := m.state.Lookup(name)
	return e != nil
}

func (m *material) Name() string {
	return m.name
}

func (m *material) State() pipeline.State {
	return m.state
}

func (m *material) PipelineKey() string {
	return m.state.Pipeline().PipelineKey()
}

func (m *material) BaseColor() common.Vec4 {
	if m.color != nil {
		return m.color.Get()
	}
	return m.baseColor
}

func (m *material) SetBaseColor(c common.Vec4) {
	m.baseColor = c
	if m.color != nil {
		m.color.Set(c)
	}
}

func (m *material) Metallic() float32 {
	if m.metal != nil {
		return float32(m.metal.Get())
	}
	return float32(m.metallic)
}

func (m *material) SetMetallic(v float32) {
	m.metallic = common.Float(v)
	if m.metal != nil {
		m.metal.Set(m.metallic)
	}
}

func (m *material) Roughness() float32 {
	if m.rough != nil {
		return float32(m.rough.Get())
	}
	return float32(m.roughness)
}

func (m *material) SetRoughness(v float32) {
	m.roughness = common.Float(v)
	if m.rough != nil {
		m.rough.Set(m.roughness)
	}
}

func (m *material) DiffuseTexture() *resource.Texture {
	if m.diffuse != nil {
		return m.diffuse.Get()
	}
	return m.diffuseTexture
}

func (m *material) SetDiffuseTexture(t *resource.Texture) {
	m.diffuseTexture = t
	if m.diffuse != nil {
		m.diffuse.Set(t)
	}
}

func (m *material) NormalTexture() *resource.Texture {
	if m.normal != nil {
		return m.normal.Get()
	}
	return m.normalTexture
}

func (m *material) SetNormalTexture(t *resource.Texture) {
	m.normalTexture = t
	if m.normal != nil {
		m.normal.Set(t)
	}
}

func (m *material) SetSampler(s common.SamplerSettings) {
	m.samplerSettings = &s
	if m.diffuseSmp != nil {
		m.diffuseSmp.Set(s)
	}
}

func (m *material) Release() {
	m.state.Release()
}
