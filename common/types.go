// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// SamplerSettings holds the configuration for a sampler bound alongside a texture.
// The webgpu enums are the shared vocabulary; the OpenGL device translates them to GL sampler parameters.
type SamplerSettings struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used for depth textures.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DefaultSamplerSettings returns linear filtering with repeat addressing.
func DefaultSamplerSettings() SamplerSettings {
	return SamplerSettings{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// WithDefaults fills the zero LOD clamp and anisotropy of s. Address and filter modes are kept
// as given; their zero values are repeat and nearest. Start from DefaultSamplerSettings for
// linear filtering.
//
// Returns:
//   - SamplerSettings: the completed settings
func (s SamplerSettings) WithDefaults() SamplerSettings {
	d := DefaultSamplerSettings()
	s.LodMaxClamp = Coalesce(s.LodMaxClamp, d.LodMaxClamp)
	s.MaxAnisotropy = Coalesce(s.MaxAnisotropy, d.MaxAnisotropy)
	return s
}
