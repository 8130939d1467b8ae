package wgpubinder

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

var viewDimensions = map[ir.Dimension]wgpu.TextureViewDimension{
	ir.Dim1D:        wgpu.TextureViewDimension1D,
	ir.Dim2D:        wgpu.TextureViewDimension2D,
	ir.Dim3D:        wgpu.TextureViewDimension3D,
	ir.DimCube:      wgpu.TextureViewDimensionCube,
	ir.Dim2DArray:   wgpu.TextureViewDimension2DArray,
	ir.DimCubeArray: wgpu.TextureViewDimensionCubeArray,
}

var texelFormats = map[ir.Format]wgpu.TextureFormat{
	ir.FormatRGBA8:    wgpu.TextureFormatRGBA8Unorm,
	ir.FormatRGBA16F:  wgpu.TextureFormatRGBA16Float,
	ir.FormatRGBA32F:  wgpu.TextureFormatRGBA32Float,
	ir.FormatR32F:     wgpu.TextureFormatR32Float,
	ir.FormatR32I:     wgpu.TextureFormatR32Sint,
	ir.FormatR32UI:    wgpu.TextureFormatR32Uint,
	ir.FormatRGBA32I:  wgpu.TextureFormatRGBA32Sint,
	ir.FormatRGBA32UI: wgpu.TextureFormatRGBA32Uint,
	ir.FormatDepth32F: wgpu.TextureFormatDepth32Float,
}

var storageAccess = map[ir.Access]wgpu.StorageTextureAccess{
	ir.AccessReadOnly:  wgpu.StorageTextureAccessReadOnly,
	ir.AccessWriteOnly: wgpu.StorageTextureAccessWriteOnly,
	ir.AccessReadWrite: wgpu.StorageTextureAccessReadWrite,
}

// TextureFormat returns the WebGPU format of f.
func TextureFormat(f ir.Format) (wgpu.TextureFormat, bool) {
	tf, ok := texelFormats[f]
	return tf, ok
}

// ViewDimension returns the WebGPU view dimension of d. WebGPU has no 1D array views.
func ViewDimension(d ir.Dimension) (wgpu.TextureViewDimension, bool) {
	vd, ok := viewDimensions[d]
	return vd, ok
}

// Visibility converts a stage set to WebGPU shader stage flags.
func Visibility(s ir.StageSet) wgpu.ShaderStage {
	var v wgpu.ShaderStage
	if s.Has(ir.StageVertex) {
		v |= wgpu.ShaderStageVertex
	}
	if s.Has(ir.StageFragment) {
		v |= wgpu.ShaderStageFragment
	}
	if s.Has(ir.StageCompute) {
		v |= wgpu.ShaderStageCompute
	}
	return v
}

// Descriptor converts a scope layout into a WebGPU bind group layout descriptor. Texture
// entries expand into a texture slot and a sampler slot, following Entry.WGPUSlots.
//
// Descriptor panics with ErrUnmappedType for sampler arrays, 1D array textures and storage
// formats WebGPU cannot bind.
//
// Parameters:
//   - label: the descriptor label
//   - g: the scope layout
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the descriptor, with entries in slot order
func Descriptor(label string, g *layout.BindGroupLayout) wgpu.BindGroupLayoutDescriptor {
	desc := wgpu.BindGroupLayoutDescriptor{Label: label}
	for i := range g.Entries {
		desc.Entries = append(desc.Entries, entries(&g.Entries[i])...)
	}
	return desc
}

func entries(e *layout.Entry) []wgpu.BindGroupLayoutEntry {
	slot, samplerSlot := e.WGPUSlots()
	visibility := Visibility(e.Stages)

	switch e.Kind {
	case layout.EntryUniformBuffer:
		le := wgpu.BindGroupLayoutEntry{Binding: slot, Visibility: visibility}
		le.Buffer.Type = wgpu.BufferBindingTypeUniform
		le.Buffer.MinBindingSize = uint64(e.Size)
		return []wgpu.BindGroupLayoutEntry{le}

	case layout.EntryTexture:
		if e.Count > 1 {
			panic(fmt.Errorf("wgpubinder: sampler array `%s`: %w", e.Name, ErrUnmappedType))
		}
		dim, ok := ViewDimension(e.Dim)
		if !ok {
			panic(fmt.Errorf("wgpubinder: sampler `%s` dimension %s: %w", e.Name, e.Dim, ErrUnmappedType))
		}
		tex := wgpu.BindGroupLayoutEntry{Binding: slot, Visibility: visibility}
		tex.Texture.ViewDimension = dim
		tex.Texture.SampleType = wgpu.TextureSampleTypeFloat
		smp := wgpu.BindGroupLayoutEntry{Binding: samplerSlot, Visibility: visibility}
		smp.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		if e.Depth {
			tex.Texture.SampleType = wgpu.TextureSampleTypeDepth
			smp.Sampler.Type = wgpu.SamplerBindingTypeComparison
		}
		return []wgpu.BindGroupLayoutEntry{tex, smp}

	case layout.EntryStorage:
		le := wgpu.BindGroupLayoutEntry{Binding: slot, Visibility: visibility}
		if e.StorageKind == ir.StorageBuffer {
			le.Buffer.Type = wgpu.BufferBindingTypeStorage
			if e.Access == ir.AccessReadOnly {
				le.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			}
			return []wgpu.BindGroupLayoutEntry{le}
		}
		format, ok := TextureFormat(e.Format)
		if !ok || e.Format == ir.FormatDepth32F {
			panic(fmt.Errorf("wgpubinder: storage image `%s` format %s: %w", e.Name, e.Format, ErrUnmappedType))
		}
		dim, ok := ViewDimension(e.Dim)
		if !ok || e.Dim == ir.DimCube || e.Dim == ir.DimCubeArray {
			panic(fmt.Errorf("wgpubinder: storage image `%s` dimension %s: %w", e.Name, e.Dim, ErrUnmappedType))
		}
		le.StorageTexture.Format = format
		le.StorageTexture.Access = storageAccess[e.Access]
		le.StorageTexture.ViewDimension = dim
		return []wgpu.BindGroupLayoutEntry{le}
	}
	panic(fmt.Sprintf("wgpubinder: unknown entry kind %s", e.Kind))
}
