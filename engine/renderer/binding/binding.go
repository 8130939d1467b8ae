// Package binding provides typed handles over named resources of a pipeline state. A handle
// caches the last value it was given so application code can read and write it before the
// state's bind group data exists; once the state is set up, writes go straight through.
package binding

import (
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// Owner is the pipeline state a handle belongs to.
type Owner interface {
	// Valid reports whether the owner's bind group data has been set up.
	Valid() bool

	// Lookup finds the layout entry that binds a resource name. It is usable before setup.
	//
	// Parameters:
	//   - name: a uniform member, sampler or storage name
	//
	// Returns:
	//   - *layout.BindGroupLayout: the owning group, or nil
	//   - *layout.Entry: the entry, or nil
	Lookup(name string) (*layout.BindGroupLayout, *layout.Entry)

	// Group returns the bind group data of scope s. Only called while Valid.
	//
	// Parameters:
	//   - s: the scope
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the scope's data
	Group(s ir.Scope) bind_group_provider.BindGroupProvider

	// Track registers a handle to be applied whenever the owner sets up fresh data.
	//
	// Parameters:
	//   - a: the handle
	Track(a Applier)
}

// Applier copies a handle's cached value into freshly allocated bind group data.
type Applier interface {
	Apply()
}

type reader[T any] func(p bind_group_provider.BindGroupProvider, index int) T
type writer[T any] func(p bind_group_provider.BindGroupProvider, index int, v T)

// Binding is a typed handle over one named resource.
type Binding[T any] struct {
	owner  Owner
	name   string
	scope  ir.Scope
	read   reader[T]
	write  writer[T]
	cached T
	set    bool
}

var _ Applier = &Binding[int]{}

func newBinding[T any](o Owner, name string, scope ir.Scope, read reader[T], write writer[T]) *Binding[T] {
	b := &Binding[T]{owner: o, name: name, scope: scope, read: read, write: write}
	o.Track(b)
	return b
}

// Name returns the resource name the handle is bound to.
func (b *Binding[T]) Name() string {
	return b.name
}

// Get returns the handle's value. The cached value is refreshed from the bind group data
// only while the owner is valid.
//
// Returns:
//   - T: the current value
func (b *Binding[T]) Get() T {
	if b.owner.Valid() {
		b.cached = b.read(b.owner.Group(b.scope), 0)
	}
	return b.cached
}

// Set caches v and writes it through when the owner is valid.
//
// Parameters:
//   - v: the new value
func (b *Binding[T]) Set(v T) {
	b.cached, b.set = v, true
	if b.owner.Valid() {
		b.write(b.owner.Group(b.scope), 0, v)
	}
}

// Apply writes the cached value into the owner's bind group data. Handles that were never
// set leave the data untouched.
func (b *Binding[T]) Apply() {
	if b.set && b.owner.Valid() {
		b.write(b.owner.Group(b.scope), 0, b.cached)
	}
}

// ArrayBinding is a typed handle over an array resource: a uniform array or a sampler array.
type ArrayBinding[T any] struct {
	owner    Owner
	name     string
	scope    ir.Scope
	capacity int
	read     reader[T]
	write    writer[T]
	// cached and set always span capacity; n elements are addressable.
	cached []T
	set    []bool
	n      int
}

var _ Applier = &ArrayBinding[int]{}

func newArrayBinding[T any](o Owner, name string, scope ir.Scope, capacity int, read reader[T], write writer[T]) *ArrayBinding[T] {
	b := &ArrayBinding[T]{
		owner:    o,
		name:     name,
		scope:    scope,
		capacity: capacity,
		read:     read,
		write:    write,
		cached:   make([]T, capacity),
		set:      make([]bool, capacity),
		n:        capacity,
	}
	o.Track(b)
	return b
}

// Name returns the resource name the handle is bound to.
func (b *ArrayBinding[T]) Name() string {
	return b.name
}

// Len returns the number of addressable elements.
func (b *ArrayBinding[T]) Len() int {
	return b.n
}

// Cap returns the array length declared by the program.
func (b *ArrayBinding[T]) Cap() int {
	return b.capacity
}

func (b *ArrayBinding[T]) check(i int) {
	if i < 0 || i >= b.n {
		panic(indexError(b.name, i, b.n))
	}
}

// Get returns element i, refreshed from the bind group data while the owner is valid.
//
// Parameters:
//   - i: the element index
//
// Returns:
//   - T: the element value
func (b *ArrayBinding[T]) Get(i int) T {
	b.check(i)
	if b.owner.Valid() {
		b.cached[i] = b.read(b.owner.Group(b.scope), i)
	}
	return b.cached[i]
}

// Set caches element i and writes it through when the owner is valid.
//
// Parameters:
//   - i: the element index
//   - v: the new value
func (b *ArrayBinding[T]) Set(i int, v T) {
	b.check(i)
	b.cached[i], b.set[i] = v, true
	if b.owner.Valid() {
		b.write(b.owner.Group(b.scope), i, v)
	}
}

// Resize changes the number of addressable elements, keeping existing values. Elements
// added or dropped are set to def, so a shrunk array binds def past its new length. n may
// not exceed the declared array length.
//
// Parameters:
//   - n: the new length
//   - def: the value of added and dropped elements
func (b *ArrayBinding[T]) Resize(n int, def T) {
	if n < 0 || n > b.capacity {
		panic(indexError(b.name, n, b.capacity+1))
	}
	lo, hi := min(n, b.n), max(n, b.n)
	for i := lo; i < hi; i++ {
		b.cached[i], b.set[i] = def, true
		if b.owner.Valid() {
			b.write(b.owner.Group(b.scope), i, def)
		}
	}
	b.n = n
}

// Apply writes every set element into the owner's bind group data.
func (b *ArrayBinding[T]) Apply() {
	if !b.owner.Valid() {
		return
	}
	p := b.owner.Group(b.scope)
	for i, v := range b.cached {
		if b.set[i] {
			b.write(p, i, v)
		}
	}
}
