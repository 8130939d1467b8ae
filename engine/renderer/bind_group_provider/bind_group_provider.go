package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// uniformSlot is the CPU copy of one uniform buffer entry.
type uniformSlot struct {
	data  []byte
	dirty bool
	// revision counts writes; backends compare it against the revision they last uploaded.
	revision uint64
}

// textureSlot holds the textures and sampler settings of one texture entry.
type textureSlot struct {
	textures []*resource.Texture
	sampler  common.SamplerSettings
}

// storageSlot holds the resource bound to one storage entry. Exactly one field is used,
// selected by the entry's storage kind.
type storageSlot struct {
	texture *resource.Texture
	buffer  *resource.StorageBuffer
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// layout is the bind group layout this provider's data is shaped after.
	layout *layout.BindGroupLayout

	uniforms map[int]*uniformSlot
	textures map[int]*textureSlot
	storages map[int]*storageSlot

	// generation is bumped whenever a texture, sampler or storage reference changes.
	generation uint64
	released   bool
	onRelease  []func()
}

// BindGroupProvider is the mutable per-instance data bound to one bind group layout: a raw
// byte buffer and dirty flag per uniform buffer entry, and a resource reference plus sampler
// settings per texture or storage entry.
//
// The shape of the data always matches the layout it was created from. Any attempt to write
// data of a different shape, or to address an entry by the wrong kind, panics.
//
// Usage pattern:
//  1. A pipeline state creates one provider per scope from the pipeline's layouts
//  2. Binding handles write uniforms and references through the provider
//  3. The backend binder uploads dirty uniform data and clears the flag during Resolve
//  4. The state releases the provider with the pipeline instance
type BindGroupProvider interface {
	// Release drops every resource reference and runs the registered release hooks.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true after Release
	Released() bool

	// OnRelease registers fn to run when the provider is released. Binders use it to drop
	// their cached backend state for this provider.
	//
	// Parameters:
	//   - fn: the hook
	OnRelease(fn func())

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Scope returns the scope of the layout this provider is bound to.
	//
	// Returns:
	//   - ir.Scope: the bind group scope
	Scope() ir.Scope

	// Layout returns the layout this provider's data is shaped after.
	//
	// Returns:
	//   - *layout.BindGroupLayout: the shared, read-only layout
	Layout() *layout.BindGroupLayout

	// SetUniform writes one element of a uniform buffer member and marks the buffer dirty.
	// Panics when the member does not exist in this group, index is out of range, or v has a
	// different shape than the member.
	//
	// Parameters:
	//   - name: the member name
	//   - index: the array element, 0 for non-array members
	//   - v: the value
	SetUniform(name string, index int, v common.Value)

	// Uniform reads one element of a uniform buffer member back as raw words.
	//
	// Parameters:
	//   - name: the member name
	//   - index: the array element, 0 for non-array members
	//
	// Returns:
	//   - []uint32: the column-major words of the element
	Uniform(name string, index int) []uint32

	// UniformData returns the std140 bytes of a uniform buffer entry.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - []byte: the buffer contents, owned by the provider
	UniformData(binding int) []byte

	// Dirty reports whether a uniform buffer entry changed since its last upload.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - bool: true when an upload is pending
	Dirty(binding int) bool

	// ClearDirty marks a uniform buffer entry as uploaded.
	//
	// Parameters:
	//   - binding: the binding index
	ClearDirty(binding int)

	// MarkDirty forces the next resolve to upload a uniform buffer entry.
	//
	// Parameters:
	//   - binding: the binding index
	MarkDirty(binding int)

	// Revision returns a counter bumped on every write to a uniform buffer entry. Fresh
	// buffers start at revision 1 so that every backend copy uploads them once.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - uint64: the current revision
	Revision(binding int) uint64

	// StaleWrites returns one whole-buffer write per uniform buffer entry whose revision
	// differs from the one recorded in uploaded, in binding order.
	//
	// Parameters:
	//   - uploaded: the revision a backend copy last uploaded, keyed by binding
	//
	// Returns:
	//   - []BufferWrite: the pending writes
	StaleWrites(uploaded map[int]uint64) []BufferWrite

	// Texture returns one element of a texture entry, or nil when unset.
	//
	// Parameters:
	//   - binding: the binding index
	//   - element: the array element, 0 for non-array samplers
	//
	// Returns:
	//   - *resource.Texture: the bound texture or nil
	Texture(binding, element int) *resource.Texture

	// SetTexture binds a texture to one element of a texture entry.
	//
	// Parameters:
	//   - binding: the binding index
	//   - element: the array element, 0 for non-array samplers
	//   - t: the texture, or nil to unbind
	SetTexture(binding, element int, t *resource.Texture)

	// Sampler returns the sampler settings of a texture entry.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - common.SamplerSettings: the settings
	Sampler(binding int) common.SamplerSettings

	// SetSampler replaces the sampler settings of a texture entry.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the settings; a zero LOD clamp or anisotropy takes the default
	SetSampler(binding int, s common.SamplerSettings)

	// StorageTexture returns the texture bound to a storage image entry, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *resource.Texture: the bound texture or nil
	StorageTexture(binding int) *resource.Texture

	// SetStorageTexture binds a texture to a storage image entry.
	//
	// Parameters:
	//   - binding: the binding index
	//   - t: the texture, or nil to unbind
	SetStorageTexture(binding int, t *resource.Texture)

	// StorageBuffer returns the buffer bound to a storage buffer entry, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *resource.StorageBuffer: the bound buffer or nil
	StorageBuffer(binding int) *resource.StorageBuffer

	// SetStorageBuffer binds a buffer to a storage buffer entry.
	//
	// Parameters:
	//   - binding: the binding index
	//   - b: the buffer, or nil to unbind
	SetStorageBuffer(binding int, b *resource.StorageBuffer)

	// Generation returns a counter bumped whenever a texture, sampler or storage reference
	// changes. Backends that bake references into immutable objects rebuild them when it moves.
	//
	// Returns:
	//   - uint64: the current generation
	Generation() uint64
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider allocates data shaped after l. Uniform buffers start zeroed and dirty
// so their first resolve uploads them; texture entries start with default sampler settings.
//
// Parameters:
//   - label: a debug label
//   - l: the bind group layout
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider matching l
func NewBindGroupProvider(label string, l *layout.BindGroupLayout, options ...BindGroupProviderOption) BindGroupProvider {
	if l == nil {
		panic(fmt.Sprintf("bind_group_provider: provider %q requires a layout", label))
	}
	p := &bindGroupProvider{
		label:    label,
		layout:   l,
		uniforms: make(map[int]*uniformSlot),
		textures: make(map[int]*textureSlot),
		storages: make(map[int]*storageSlot),
	}
	for _, e := range l.Entries {
		switch e.Kind {
		case layout.EntryUniformBuffer:
			p.uniforms[e.Binding] = &uniformSlot{data: make([]byte, e.Size), dirty: true, revision: 1}
		case layout.EntryTexture:
			p.textures[e.Binding] = &textureSlot{
				textures: make([]*resource.Texture, max(e.Count, 1)),
				sampler:  common.DefaultSamplerSettings(),
			}
		case layout.EntryStorage:
			p.storages[e.Binding] = &storageSlot{}
		}
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Scope() ir.Scope {
	return p.layout.Scope
}

func (p *bindGroupProvider) Layout() *layout.BindGroupLayout {
	return p.layout
}

// entry returns the entry at binding, panicking unless it has kind k.
func (p *bindGroupProvider) entry(binding int, k layout.EntryKind) *layout.Entry {
	e := p.layout.Entry(binding)
	if e == nil {
		panic(fmt.Sprintf("bind_group_provider: %s group of %q has no binding %d", p.layout.Scope, p.label, binding))
	}
	if e.Kind != k {
		panic(fmt.Sprintf("bind_group_provider: binding %d (%s) of %q is a %s entry, not %s", binding, e.Name, p.label, e.Kind, k))
	}
	return e
}

// member finds a uniform member by name and checks the element index.
func (p *bindGroupProvider) member(name string, index int) (*layout.Entry, layout.Member) {
	e := p.layout.Lookup(name)
	if e == nil || e.Kind != layout.EntryUniformBuffer {
		panic(fmt.Sprintf("bind_group_provider: %s group of %q has no uniform `%s`", p.layout.Scope, p.label, name))
	}
	m, ok := e.Member(name)
	if !ok {
		panic(fmt.Sprintf("bind_group_provider: `%s` is a uniform buffer, not a member", name))
	}
	if index < 0 || index >= m.Elements() {
		panic(fmt.Sprintf("bind_group_provider: uniform `%s` index %d out of range [0, %d)", name, index, m.Elements()))
	}
	return e, m
}

func (p *bindGroupProvider) SetUniform(name string, index int, v common.Value) {
	e, m := p.member(name, index)
	if !m.Type.Matches(v) {
		s, rows, cols := v.Shape()
		panic(fmt.Sprintf("bind_group_provider: uniform `%s` is %s, got %T (%s %dx%d)", name, m.Type, v, s, rows, cols))
	}
	slot := p.uniforms[e.Binding]
	v.WriteAt(slot.data, m.ElementOffset(index), m.ColumnStride)
	slot.dirty = true
	slot.revision++
}

func (p *bindGroupProvider) Uniform(name string, index int) []uint32 {
	e, m := p.member(name, index)
	return common.ReadWords(p.uniforms[e.Binding].data, m.ElementOffset(index), m.Type.Rows(), m.Type.Cols(), m.ColumnStride)
}

func (p *bindGroupProvider) UniformData(binding int) []byte {
	p.entry(binding, layout.EntryUniformBuffer)
	return p.uniforms[binding].data
}

func (p *bindGroupProvider) Dirty(binding int) bool {
	p.entry(binding, layout.EntryUniformBuffer)
	return p.uniforms[binding].dirty
}

func (p *bindGroupProvider) ClearDirty(binding int) {
	p.entry(binding, layout.EntryUniformBuffer)
	p.uniforms[binding].dirty = false
}

func (p *bindGroupProvider) MarkDirty(binding int) {
	p.entry(binding, layout.EntryUniformBuffer)
	slot := p.uniforms[binding]
	slot.dirty = true
	slot.revision++
}

func (p *bindGroupProvider) Revision(binding int) uint64 {
	p.entry(binding, layout.EntryUniformBuffer)
	return p.uniforms[binding].revision
}

func (p *bindGroupProvider) StaleWrites(uploaded map[int]uint64) []BufferWrite {
	var writes []BufferWrite
	for _, e := range p.layout.Entries {
		if e.Kind != layout.EntryUniformBuffer {
			continue
		}
		if slot := p.uniforms[e.Binding]; uploaded[e.Binding] != slot.revision {
			writes = append(writes, BufferWrite{Provider: p, Binding: e.Binding, Revision: slot.revision, Data: slot.data})
		}
	}
	return writes
}

func (p *bindGroupProvider) textureSlot(binding, element int) *textureSlot {
	e := p.entry(binding, layout.EntryTexture)
	slot := p.textures[binding]
	if element < 0 || element >= len(slot.textures) {
		panic(fmt.Sprintf("bind_group_provider: texture `%s` element %d out of range [0, %d)", e.Name, element, len(slot.textures)))
	}
	return slot
}

func (p *bindGroupProvider) Texture(binding, element int) *resource.Texture {
	return p.textureSlot(binding, element).textures[element]
}

func (p *bindGroupProvider) SetTexture(binding, element int, t *resource.Texture) {
	slot := p.textureSlot(binding, element)
	if slot.textures[element] != t {
		slot.textures[element] = t
		p.generation++
	}
}

func (p *bindGroupProvider) Sampler(binding int) common.SamplerSettings {
	return p.textureSlot(binding, 0).sampler
}

func (p *bindGroupProvider) SetSampler(binding int, s common.SamplerSettings) {
	slot := p.textureSlot(binding, 0)
	s = s.WithDefaults()
	if slot.sampler != s {
		slot.sampler = s
		p.generation++
	}
}

func (p *bindGroupProvider) storageSlot(binding int, kind ir.StorageKind) *storageSlot {
	e := p.entry(binding, layout.EntryStorage)
	if e.StorageKind != kind {
		panic(fmt.Sprintf("bind_group_provider: storage `%s` is not a storage %s", e.Name, storageKindName(kind)))
	}
	return p.storages[binding]
}

func storageKindName(k ir.StorageKind) string {
	if k == ir.StorageImage {
		return "image"
	}
	return "buffer"
}

func (p *bindGroupProvider) StorageTexture(binding int) *resource.Texture {
	return p.storageSlot(binding, ir.StorageImage).texture
}

func (p *bindGroupProvider) SetStorageTexture(binding int, t *resource.Texture) {
	slot := p.storageSlot(binding, ir.StorageImage)
	if t != nil && t.Usage()&resource.UsageStorage == 0 {
		panic(fmt.Sprintf("bind_group_provider: texture %q is not usable as a storage image", t.Label()))
	}
	if slot.texture != t {
		slot.texture = t
		p.generation++
	}
}

func (p *bindGroupProvider) StorageBuffer(binding int) *resource.StorageBuffer {
	return p.storageSlot(binding, ir.StorageBuffer).buffer
}

func (p *bindGroupProvider) SetStorageBuffer(binding int, b *resource.StorageBuffer) {
	slot := p.storageSlot(binding, ir.StorageBuffer)
	if slot.buffer != b {
		slot.buffer = b
		p.generation++
	}
}

func (p *bindGroupProvider) Generation() uint64 {
	return p.generation
}

func (p *bindGroupProvider) Released() bool {
	return p.released
}

func (p *bindGroupProvider) OnRelease(fn func()) {
	p.onRelease = append(p.onRelease, fn)
}

func (p *bindGroupProvider) Release() {
	if p.released {
		return
	}
	p.released = true
	for _, fn := range p.onRelease {
		fn()
	}
	p.onRelease = nil
	for _, slot := range p.textures {
		clear(slot.textures)
	}
	for _, slot := range p.storages {
		slot.texture, slot.buffer = nil, nil
	}
}
