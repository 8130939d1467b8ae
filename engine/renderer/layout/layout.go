// Package layout derives the backend-portable resource layout of an IR program: the
// vertex input layout and one bind group layout per scope (View, Pipeline, Mesh).
package layout

import (
	"fmt"
	"reflect"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// EntryKind is the kind of resource a bind group entry describes.
type EntryKind int

const (
	EntryUniformBuffer EntryKind = iota
	EntryTexture
	EntryStorage
)

func (k EntryKind) String() string {
	switch k {
	case EntryUniformBuffer:
		return "uniform_buffer"
	case EntryTexture:
		return "texture"
	case EntryStorage:
		return "storage"
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// Member is one uniform inside a uniform buffer entry, placed with std140 rules.
type Member struct {
	Name string
	Type ir.Type
	// Count is the array length, or 0 for a non-array member.
	Count int
	// Offset is the byte offset of the member (its first element) inside the buffer.
	Offset int
	// ArrayStride is the byte distance between array elements, 0 for non-arrays.
	ArrayStride int
	// ColumnStride is the byte distance between matrix columns, 0 for non-matrices.
	ColumnStride int
}

// Elements returns the number of addressable elements, at least one.
func (m Member) Elements() int {
	return max(m.Count, 1)
}

// ElementOffset returns the byte offset of element i.
func (m Member) ElementOffset(i int) int {
	return m.Offset + i*m.ArrayStride
}

// Entry is one binding slot in a bind group layout.
type Entry struct {
	Binding int
	Kind    EntryKind
	Name    string
	// Stages is the set of stages whose IR references the resource.
	Stages ir.StageSet

	// Members, Size and PlainUniforms describe uniform buffer entries.
	Members []Member
	Size    int
	// PlainUniforms marks a buffer whose members are bound as individual uniforms
	// because the target lacks uniform buffer objects.
	PlainUniforms bool

	// Dim, Count and Depth describe texture entries. Count is the number of textures bound
	// at this entry (the sampler array length, or 1).
	Dim   ir.Dimension
	Count int
	Depth bool

	// StorageKind, Format, Access and Elem describe storage entries; Dim is shared with textures.
	StorageKind ir.StorageKind
	Format      ir.Format
	Access      ir.Access
	Elem        ir.Type
}

// Member returns the member with the given name.
func (e *Entry) Member(name string) (Member, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// WGPUSlots returns the WebGPU binding numbers for this entry. WebGPU binds a texture and
// its sampler separately, so every logical entry owns two consecutive slots.
//
// Returns:
//   - uint32: the slot of the buffer, texture or storage resource
//   - uint32: the slot of the sampler (texture entries only)
func (e *Entry) WGPUSlots() (uint32, uint32) {
	return uint32(2 * e.Binding), uint32(2*e.Binding + 1)
}

// BindGroupLayout lists the entries of one scope in binding order.
type BindGroupLayout struct {
	Scope   ir.Scope
	Entries []Entry
}

// Entry returns the entry with the given binding index.
func (l *BindGroupLayout) Entry(binding int) *Entry {
	if binding < 0 || binding >= len(l.Entries) {
		return nil
	}
	return &l.Entries[binding]
}

// Lookup finds an entry by resource name. Uniform buffer members are found through their
// buffer; the returned entry is the owning buffer.
//
// Parameters:
//   - name: a uniform buffer, uniform member, sampler or storage name
//
// Returns:
//   - *Entry: the entry, or nil when the name is not bound in this group
func (l *BindGroupLayout) Lookup(name string) *Entry {
	for i := range l.Entries {
		e := &l.Entries[i]
		if e.Name == name {
			return e
		}
		if e.Kind == EntryUniformBuffer {
			if _, ok := e.Member(name); ok {
				return e
			}
		}
	}
	return nil
}

// Empty reports whether the group has no entries.
func (l *BindGroupLayout) Empty() bool {
	return len(l.Entries) == 0
}

// Equal reports whether two layouts are structurally identical.
func (l *BindGroupLayout) Equal(o *BindGroupLayout) bool {
	return reflect.DeepEqual(l, o)
}

// Layouts holds the bind group layouts of all scopes.
type Layouts struct {
	Groups [len(ir.Scopes)]*BindGroupLayout
}

// Group returns the layout of scope s.
func (l *Layouts) Group(s ir.Scope) *BindGroupLayout {
	return l.Groups[s]
}

// Lookup finds the group and entry that bind a resource name.
func (l *Layouts) Lookup(name string) (*BindGroupLayout, *Entry) {
	for _, g := range l.Groups {
		if e := g.Lookup(name); e != nil {
			return g, e
		}
	}
	return nil, nil
}

// Equal reports whether two layout sets are structurally identical.
func (l *Layouts) Equal(o *Layouts) bool {
	return reflect.DeepEqual(l, o)
}
