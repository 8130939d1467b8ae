package wgpubinder

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shader/common"
)

// Device is the slice of a WebGPU device, queue and current pass that a binder drives. The
// renderer backend implements it over *wgpu.Device and *wgpu.Queue.
type Device interface {
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)
	ReleaseBindGroupLayout(l *wgpu.BindGroupLayout)
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)
	ReleaseBindGroup(bg *wgpu.BindGroup)
	CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error)
	ReleaseBuffer(buf *wgpu.Buffer)
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// Sampler returns a sampler for the given settings. Samplers are cached by the device, so
	// equal settings yield the same sampler.
	//
	// Parameters:
	//   - s: the sampler settings, with defaults applied
	//   - comparison: true for a depth comparison sampler
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler
	//   - error: a creation failure
	Sampler(s common.SamplerSettings, comparison bool) (*wgpu.Sampler, error)

	// SetBindGroup binds bg at index on the pass currently being recorded.
	SetBindGroup(index uint32, bg *wgpu.BindGroup)
}
