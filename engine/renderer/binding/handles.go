package binding

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

type provider = bind_group_provider.BindGroupProvider

func indexError(name string, i, n int) string {
	return fmt.Sprintf("binding: `%s` index %d out of range [0, %d)", name, i, n)
}

// lookup resolves name to an entry of kind k or panics.
func lookup(o Owner, name string, k layout.EntryKind) (*layout.BindGroupLayout, *layout.Entry) {
	g, e := o.Lookup(name)
	if e == nil {
		panic(fmt.Sprintf("binding: no resource named `%s`", name))
	}
	if e.Kind != k {
		panic(fmt.Sprintf("binding: `%s` is a %s entry, not %s", name, e.Kind, k))
	}
	return g, e
}

func uniformMember[V common.Value](o Owner, name string) (*layout.BindGroupLayout, layout.Member) {
	g, e := lookup(o, name, layout.EntryUniformBuffer)
	m, ok := e.Member(name)
	if !ok {
		panic(fmt.Sprintf("binding: `%s` is a uniform buffer; bind its members", name))
	}
	var zero V
	if !m.Type.Matches(zero) {
		panic(fmt.Sprintf("binding: uniform `%s` is %s, not %T", name, m.Type, zero))
	}
	return g, m
}

func readUniform[V common.Value](name string) reader[V] {
	return func(p provider, i int) V {
		return common.Decode[V](p.Uniform(name, i))
	}
}

func writeUniform[V common.Value](name string) writer[V] {
	return func(p provider, i int, v V) {
		p.SetUniform(name, i, v)
	}
}

// NewUniform creates a handle over a non-array uniform member. Writes are staged in the
// member's uniform buffer and uploaded through its dirty flag.
//
// Parameters:
//   - o: the owning state
//   - name: the member name
//
// Returns:
//   - *Binding[V]: the handle
func NewUniform[V common.Value](o Owner, name string) *Binding[V] {
	g, m := uniformMember[V](o, name)
	if m.Count > 0 {
		panic(fmt.Sprintf("binding: uniform `%s` is an array; use NewUniformArray", name))
	}
	return newBinding(o, name, g.Scope, readUniform[V](name), writeUniform[V](name))
}

// NewUniformArray creates a handle over an array uniform member.
//
// Parameters:
//   - o: the owning state
//   - name: the member name
//
// Returns:
//   - *ArrayBinding[V]: the handle, sized to the declared array length
func NewUniformArray[V common.Value](o Owner, name string) *ArrayBinding[V] {
	g, m := uniformMember[V](o, name)
	if m.Count == 0 {
		panic(fmt.Sprintf("binding: uniform `%s` is not an array; use NewUniform", name))
	}
	return newArrayBinding(o, name, g.Scope, m.Count, readUniform[V](name), writeUniform[V](name))
}

// NewTexture creates a handle over a non-array sampler.
//
// Parameters:
//   - o: the owning state
//   - name: the sampler name
//
// Returns:
//   - *Binding[*resource.Texture]: the handle
func NewTexture(o Owner, name string) *Binding[*resource.Texture] {
	g, e := lookup(o, name, layout.EntryTexture)
	if e.Count > 1 {
		panic(fmt.Sprintf("binding: sampler `%s` is an array; use NewTextureArray", name))
	}
	binding := e.Binding
	return newBinding[*resource.Texture](o, name, g.Scope,
		func(p provider, _ int) *resource.Texture { return p.Texture(binding, 0) },
		func(p provider, _ int, t *resource.Texture) { p.SetTexture(binding, 0, t) },
	)
}

// NewTextureArray creates a handle over a sampler array.
//
// Parameters:
//   - o: the owning state
//   - name: the sampler name
//
// Returns:
//   - *ArrayBinding[*resource.Texture]: the handle, sized to the declared array length
func NewTextureArray(o Owner, name string) *ArrayBinding[*resource.Texture] {
	g, e := lookup(o, name, layout.EntryTexture)
	binding := e.Binding
	return newArrayBinding[*resource.Texture](o, name, g.Scope, max(e.Count, 1),
		func(p provider, i int) *resource.Texture { return p.Texture(binding, i) },
		func(p provider, i int, t *resource.Texture) { p.SetTexture(binding, i, t) },
	)
}

// NewSampler creates a handle over the sampler settings of a texture entry.
//
// Parameters:
//   - o: the owning state
//   - name: the sampler name
//
// Returns:
//   - *Binding[common.SamplerSettings]: the handle
func NewSampler(o Owner, name string) *Binding[common.SamplerSettings] {
	g, e := lookup(o, name, layout.EntryTexture)
	binding := e.Binding
	return newBinding[common.SamplerSettings](o, name, g.Scope,
		func(p provider, _ int) common.SamplerSettings { return p.Sampler(binding) },
		func(p provider, _ int, s common.SamplerSettings) { p.SetSampler(binding, s) },
	)
}

// NewStorageTexture creates a handle over a storage image.
//
// Parameters:
//   - o: the owning state
//   - name: the storage image name
//
// Returns:
//   - *Binding[*resource.Texture]: the handle
func NewStorageTexture(o Owner, name string) *Binding[*resource.Texture] {
	g, e := lookup(o, name, layout.EntryStorage)
	if e.StorageKind != ir.StorageImage {
		panic(fmt.Sprintf("binding: storage `%s` is a buffer; use NewStorageBuffer", name))
	}
	binding := e.Binding
	return newBinding[*resource.Texture](o, name, g.Scope,
		func(p provider, _ int) *resource.Texture { return p.StorageTexture(binding) },
		func(p provider, _ int, t *resource.Texture) { p.SetStorageTexture(binding, t) },
	)
}

// NewStorageBuffer creates a handle over a storage buffer.
//
// Parameters:
//   - o: the owning state
//   - name: the storage buffer name
//
// Returns:
//   - *Binding[*resource.StorageBuffer]: the handle
func NewStorageBuffer(o Owner, name string) *Binding[*resource.StorageBuffer] {
	g, e := lookup(o, name, layout.EntryStorage)
	if e.StorageKind != ir.StorageBuffer {
		panic(fmt.Sprintf("binding: storage `%s` is an image; use NewStorageTexture", name))
	}
	binding := e.Binding
	return newBinding[*resource.StorageBuffer](o, name, g.Scope,
		func(p provider, _ int) *resource.StorageBuffer { return p.StorageBuffer(binding) },
		func(p provider, _ int, b *resource.StorageBuffer) { p.SetStorageBuffer(binding, b) },
	)
}
