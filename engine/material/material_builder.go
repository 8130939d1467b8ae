package material

import (
	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material. It defaults to the
// state's label.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo RGBA color of the material.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color common.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = common.Float(metallic)
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = common.Float(roughness)
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse texture.
//
// Parameters:
//   - t: the diffuse texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(t *resource.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = t
	}
}

// WithNormalTexture is an option builder that sets the normal map.
//
// Parameters:
//   - t: the normal map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal texture option to a material
func WithNormalTexture(t *resource.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = t
	}
}

// WithSampler is an option builder that sets the sampler settings of the diffuse texture.
//
// Parameters:
//   - s: the sampler settings
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sampler option to a material
func WithSampler(s common.SamplerSettings) MaterialBuilderOption {
	return func(m *material) {
		m.samplerSettings = &s
	}
}

// WithResourceNames overrides the names the material's properties are bound to. An empty
// name leaves that property unbound.
//
// Parameters:
//   - color, metallic, roughness: uniform member names
//   - diffuse, normal: sampler names
//
// Returns:
//   - MaterialBuilderOption: a function that applies the names to a material
func WithResourceNames(color, metallic, roughness, diffuse, normal string) MaterialBuilderOption {
	return func(m *material) {
		m.colorName, m.metallicName, m.roughnessName = color, metallic, roughness
		m.diffuseName, m.normalName = diffuse, normal
	}
}
