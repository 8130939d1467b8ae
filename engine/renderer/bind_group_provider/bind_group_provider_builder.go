package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
)

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithUniformData seeds a uniform buffer entry with pre-packed std140 bytes.
// The data must be exactly the size of the entry.
//
// Parameters:
//   - binding: the binding index of a uniform buffer entry
//   - data: the buffer contents
//
// Returns:
//   - BindGroupProviderOption: a function that copies data into the entry
func WithUniformData(binding int, data []byte) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		slot := p.uniforms[binding]
		if slot == nil {
			panic(fmt.Sprintf("bind_group_provider: binding %d of %q is not a uniform buffer", binding, p.label))
		}
		if len(data) != len(slot.data) {
			panic(fmt.Sprintf("bind_group_provider: binding %d of %q holds %d bytes, got %d", binding, p.label, len(slot.data), len(data)))
		}
		copy(slot.data, data)
	}
}

// WithTexture binds a texture to one element of a texture entry.
//
// Parameters:
//   - binding: the binding index of a texture entry
//   - element: the array element
//   - t: the texture
//
// Returns:
//   - BindGroupProviderOption: a function that binds the texture
func WithTexture(binding, element int, t *resource.Texture) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetTexture(binding, element, t)
	}
}

// WithSampler sets the sampler settings of a texture entry.
//
// Parameters:
//   - binding: the binding index of a texture entry
//   - s: the sampler settings
//
// Returns:
//   - BindGroupProviderOption: a function that sets the sampler
func WithSampler(binding int, s common.SamplerSettings) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetSampler(binding, s)
	}
}
