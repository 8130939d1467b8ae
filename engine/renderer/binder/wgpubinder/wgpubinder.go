// Package wgpubinder binds bind group data to a WebGPU render or compute pass. Each provider
// owns one wgpu.BindGroup per pipeline plus its uniform buffers; the bind group is rebuilt only
// when the set of resident resources behind it changes.
package wgpubinder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// ErrUnmappedType is the panic value when a layout entry has no WebGPU representation.
var ErrUnmappedType = errors.New("type has no WebGPU representation")

// Binder is a ResourceBinder that also exposes the bind group layouts the pipeline layout
// must be created from.
type Binder interface {
	binder.ResourceBinder

	// BindGroupLayouts returns one layout per bind group index up to the last non-empty scope.
	BindGroupLayouts() []*wgpu.BindGroupLayout
}

// group is the per-provider state of a WebGPU binder.
type group struct {
	provider bind_group_provider.BindGroupProvider
	buffers  map[int]*wgpu.Buffer
	uploaded map[int]uint64

	// entries collects this resolve's resources in slot order; built holds the entries the
	// current bind group was created from.
	entries   []wgpu.BindGroupEntry
	built     []wgpu.BindGroupEntry
	bindGroup *wgpu.BindGroup
}

// wgpuBinder is the unexported implementation of Binder.
type wgpuBinder struct {
	label  string
	dev    Device
	ctx    resource.Context
	logger *slog.Logger
	base   *binder.Base[*group]

	layouts []*wgpu.BindGroupLayout
	// slots is the number of WebGPU entries of each scope.
	slots [len(ir.Scopes)]int
	// empty holds a bind group for every empty scope below the last used one.
	empty map[ir.Scope]*wgpu.BindGroup
}

var _ Binder = &wgpuBinder{}

// New creates the bind group layouts of a pipeline and compiles its push lists.
//
// New panics with ErrUnmappedType for a layout entry WebGPU cannot express.
//
// Parameters:
//   - dev: the WebGPU device
//   - ctx: the residency context used to make textures and storage buffers resident
//   - layouts: the pipeline's layouts
//   - options: a variadic list of Option functions
//
// Returns:
//   - Binder: the compiled binder
//   - error: a bind group layout or empty bind group creation failure
func New(dev Device, ctx resource.Context, layouts *layout.Layouts, options ...Option) (Binder, error) {
	b := &wgpuBinder{
		label:  "pipeline",
		dev:    dev,
		ctx:    ctx,
		logger: slog.Default(),
		empty:  map[ir.Scope]*wgpu.BindGroup{},
	}
	for _, opt := range options {
		opt(b)
	}

	last := -1
	for _, s := range ir.Scopes {
		if !layouts.Group(s).Empty() {
			last = int(s)
		}
	}

	var pushes [len(ir.Scopes)][]binder.Push[*group]
	for _, s := range ir.Scopes[:last+1] {
		g := layouts.Group(s)
		desc := Descriptor(fmt.Sprintf("%s/%s", b.label, s), g)
		bgl, err := dev.CreateBindGroupLayout(&desc)
		if err != nil {
			b.releaseLayouts()
			return nil, fmt.Errorf("wgpubinder: create %s bind group layout: %w", s, err)
		}
		b.layouts = append(b.layouts, bgl)
		b.slots[s] = len(desc.Entries)

		if g.Empty() {
			bg, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  fmt.Sprintf("%s/%s empty", b.label, s),
				Layout: bgl,
			})
			if err != nil {
				b.releaseLayouts()
				return nil, fmt.Errorf("wgpubinder: create empty %s bind group: %w", s, err)
			}
			b.empty[s] = bg
			continue
		}

		slot := 0
		for i := range g.Entries {
			e := &g.Entries[i]
			pushes[s] = append(pushes[s], b.compile(e, slot))
			slot++
			if e.Kind == layout.EntryTexture {
				slot++
			}
		}
		pushes[s] = append(pushes[s], b.commit(s, bgl))
	}

	b.base = binder.NewBase(b.label, layouts, b, pushes, b.logger)
	b.logger.Debug("wgpu binder compiled", "pipeline", b.label, "bind_group_layouts", len(b.layouts))
	return b, nil
}

func (b *wgpuBinder) BindGroupLayouts() []*wgpu.BindGroupLayout {
	return b.layouts
}

func (b *wgpuBinder) Resolve(groups ...bind_group_provider.BindGroupProvider) bool {
	ready := b.base.Resolve(groups...)
	for s, bg := range b.empty {
		b.dev.SetBindGroup(uint32(s), bg)
	}
	return ready
}

func (b *wgpuBinder) Release() {
	b.base.Release()
	for s, bg := range b.empty {
		b.dev.ReleaseBindGroup(bg)
		delete(b.empty, s)
	}
	b.releaseLayouts()
}

func (b *wgpuBinder) releaseLayouts() {
	for _, l := range b.layouts {
		b.dev.ReleaseBindGroupLayout(l)
	}
	b.layouts = nil
}

func (b *wgpuBinder) Map(p bind_group_provider.BindGroupProvider) *group {
	return &group{
		provider: p,
		buffers:  map[int]*wgpu.Buffer{},
		uploaded: map[int]uint64{},
		entries:  make([]wgpu.BindGroupEntry, b.slots[p.Scope()]),
	}
}

func (b *wgpuBinder) Unmap(g *group) {
	if g.bindGroup != nil {
		b.dev.ReleaseBindGroup(g.bindGroup)
		g.bindGroup = nil
	}
	for binding, buf := range g.buffers {
		b.dev.ReleaseBuffer(buf)
		delete(g.buffers, binding)
	}
}

// compile returns the push of one entry. index is the position of the entry's first WebGPU
// slot in the scope's entry list.
func (b *wgpuBinder) compile(e *layout.Entry, index int) binder.Push[*group] {
	switch e.Kind {
	case layout.EntryUniformBuffer:
		return b.uniformBuffer(e, index)
	case layout.EntryTexture:
		return b.texture(e, index)
	case layout.EntryStorage:
		if e.StorageKind == ir.StorageImage {
			return b.storageImage(e, index)
		}
		return b.storageBuffer(e, index)
	}
	panic(fmt.Sprintf("wgpubinder: unknown entry kind %s", e.Kind))
}

func (b *wgpuBinder) uniformBuffer(e *layout.Entry, index int) binder.Push[*group] {
	binding, size, name := e.Binding, uint64(e.Size), e.Name
	slot, _ := e.WGPUSlots()
	return func(g *group) bool {
		g.entries[index] = wgpu.BindGroupEntry{Binding: slot}
		buf, ok := g.buffers[binding]
		if !ok {
			var err error
			buf, err = b.dev.CreateBuffer(&wgpu.BufferDescriptor{
				Label: g.provider.Label() + " " + name,
				Size:  size,
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				b.logger.Warn("uniform buffer creation failed", "pipeline", b.label, "buffer", name, "error", err)
				return false
			}
			g.buffers[binding] = buf
		}
		for _, w := range g.provider.StaleWrites(g.uploaded) {
			if w.Binding != binding {
				continue
			}
			w.Apply(g.uploaded, func(offset uint64, data []byte) {
				b.dev.WriteBuffer(buf, offset, data)
			})
		}
		g.entries[index] = wgpu.BindGroupEntry{Binding: slot, Buffer: buf, Size: wgpu.WholeSize}
		return true
	}
}

func (b *wgpuBinder) texture(e *layout.Entry, index int) binder.Push[*group] {
	binding, depth, name := e.Binding, e.Depth, e.Name
	slot, samplerSlot := e.WGPUSlots()
	return func(g *group) bool {
		g.entries[index] = wgpu.BindGroupEntry{Binding: slot}
		g.entries[index+1] = wgpu.BindGroupEntry{Binding: samplerSlot}

		smp, err := b.dev.Sampler(g.provider.Sampler(binding), depth)
		if err != nil {
			b.logger.Warn("sampler creation failed", "pipeline", b.label, "sampler", name, "error", err)
			return false
		}
		g.entries[index+1].Sampler = smp

		t := g.provider.Texture(binding, 0)
		if t == nil {
			return false
		}
		h, ok := b.ctx.RequestTexture(t)
		if !ok {
			return false
		}
		g.entries[index].TextureView = h.(*wgpu.TextureView)
		return true
	}
}

func (b *wgpuBinder) storageImage(e *layout.Entry, index int) binder.Push[*group] {
	binding := e.Binding
	slot, _ := e.WGPUSlots()
	return func(g *group) bool {
		g.entries[index] = wgpu.BindGroupEntry{Binding: slot}
		t := g.provider.StorageTexture(binding)
		if t == nil {
			return false
		}
		h, ok := b.ctx.RequestTexture(t)
		if !ok {
			return false
		}
		g.entries[index].TextureView = h.(*wgpu.TextureView)
		return true
	}
}

func (b *wgpuBinder) storageBuffer(e *layout.Entry, index int) binder.Push[*group] {
	binding := e.Binding
	slot, _ := e.WGPUSlots()
	return func(g *group) bool {
		g.entries[index] = wgpu.BindGroupEntry{Binding: slot}
		sb := g.provider.StorageBuffer(binding)
		if sb == nil {
			return false
		}
		h, ok := b.ctx.RequestStorageBuffer(sb)
		if !ok {
			return false
		}
		g.entries[index] = wgpu.BindGroupEntry{Binding: slot, Buffer: h.(*wgpu.Buffer), Size: wgpu.WholeSize}
		return true
	}
}

// commit runs after every entry push of scope s. It rebuilds the bind group when the
// collected resources differ from the ones it was built from, then binds it.
func (b *wgpuBinder) commit(s ir.Scope, bgl *wgpu.BindGroupLayout) binder.Push[*group] {
	return func(g *group) bool {
		for _, e := range g.entries {
			if e.Buffer == nil && e.TextureView == nil && e.Sampler == nil {
				return false
			}
		}
		if g.bindGroup == nil || !sameEntries(g.entries, g.built) {
			bg, err := b.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:   g.provider.Label() + " Bind Group",
				Layout:  bgl,
				Entries: g.entries,
			})
			if err != nil {
				b.logger.Warn("bind group creation failed", "pipeline", b.label, "group", g.provider.Label(), "error", err)
				return false
			}
			if g.bindGroup != nil {
				b.dev.ReleaseBindGroup(g.bindGroup)
			}
			g.bindGroup = bg
			g.built = append(g.built[:0], g.entries...)
		}
		b.dev.SetBindGroup(uint32(s), g.bindGroup)
		return true
	}
}

func sameEntries(a, b []wgpu.BindGroupEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Binding != b[i].Binding || a[i].Buffer != b[i].Buffer || a[i].TextureView != b[i].TextureView ||
			a[i].Sampler != b[i].Sampler || a[i].Offset != b[i].Offset || a[i].Size != b[i].Size {
			return false
		}
	}
	return true
}
