// Package binder resolves bind group data to backend binding slots. A backend binder is
// built once per compiled pipeline: it turns the pipeline's layouts into flat per-scope
// lists of push closures, then runs them against the current bind group data on every draw.
package binder

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// ResourceBinder binds the resources of one pipeline instance before a draw.
type ResourceBinder interface {
	// Resolve pushes every group's current values to the backend. Groups are processed in
	// View, Pipeline, Mesh order regardless of argument order, and every push runs even
	// after one reports not-ready so that pending textures keep loading.
	//
	// Parameters:
	//   - groups: the bind group data of the instance, at most one per scope
	//
	// Returns:
	//   - bool: true when every binding is ready and the draw may proceed
	Resolve(groups ...bind_group_provider.BindGroupProvider) bool

	// Release frees every backend object the binder created.
	Release()
}

// Push binds one entry of the active group. It reports whether the entry is ready.
type Push[M any] func(m M) bool

// Mapper creates and destroys the backend state kept for one provider.
type Mapper[M any] interface {
	// Map creates the backend state of p.
	Map(p bind_group_provider.BindGroupProvider) M
	// Unmap destroys state created by Map.
	Unmap(m M)
}

// Base implements ResourceBinder over a backend-specific mapped group type M. It keeps one
// mapped group per provider; since a Base belongs to one compiled pipeline the cache is keyed
// by the (provider, pipeline) pair.
type Base[M any] struct {
	label   string
	layouts *layout.Layouts
	mapper  Mapper[M]
	pushes  [len(ir.Scopes)][]Push[M]
	mapped  map[bind_group_provider.BindGroupProvider]M
	active  M
	logger  *slog.Logger
}

var _ ResourceBinder = &Base[int]{}

// NewBase creates a binder core.
//
// Parameters:
//   - label: a debug label, usually the pipeline key
//   - layouts: the pipeline's layouts; every resolved provider must match them
//   - mapper: the backend state factory
//   - pushes: the push list of each scope in ascending binding order
//   - logger: the logger, or nil for slog.Default()
//
// Returns:
//   - *Base[M]: the binder core
func NewBase[M any](label string, layouts *layout.Layouts, mapper Mapper[M], pushes [len(ir.Scopes)][]Push[M], logger *slog.Logger) *Base[M] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base[M]{
		label:   label,
		layouts: layouts,
		mapper:  mapper,
		pushes:  pushes,
		mapped:  map[bind_group_provider.BindGroupProvider]M{},
		logger:  logger,
	}
}

// Active returns the mapped group currently being pushed. Plain-uniform pushes read their
// values through it.
func (b *Base[M]) Active() M {
	return b.active
}

// Mapped returns the mapped group of p, creating it on first use.
//
// Parameters:
//   - p: the provider
//
// Returns:
//   - M: the mapped group
func (b *Base[M]) Mapped(p bind_group_provider.BindGroupProvider) M {
	if m, ok := b.mapped[p]; ok {
		return m
	}
	want := b.layouts.Group(p.Scope())
	if p.Layout() != want && !p.Layout().Equal(want) {
		panic(fmt.Sprintf("binder: %s group %q does not match the layout of %s", p.Scope(), p.Label(), b.label))
	}
	m := b.mapper.Map(p)
	b.mapped[p] = m
	p.OnRelease(func() { b.Forget(p) })
	b.logger.Debug("bind group mapped", "pipeline", b.label, "group", p.Label(), "scope", p.Scope().String())
	return m
}

// Forget destroys the mapped group of p, if any.
//
// Parameters:
//   - p: the provider
func (b *Base[M]) Forget(p bind_group_provider.BindGroupProvider) {
	m, ok := b.mapped[p]
	if !ok {
		return
	}
	delete(b.mapped, p)
	b.mapper.Unmap(m)
}

// Len returns the number of mapped groups.
func (b *Base[M]) Len() int {
	return len(b.mapped)
}

func (b *Base[M]) Resolve(groups ...bind_group_provider.BindGroupProvider) bool {
	ordered := slices.Clone(groups)
	ordered = slices.DeleteFunc(ordered, func(p bind_group_provider.BindGroupProvider) bool { return p == nil })
	slices.SortStableFunc(ordered, func(x, y bind_group_provider.BindGroupProvider) int {
		return int(x.Scope()) - int(y.Scope())
	})

	ready := true
	for _, p := range ordered {
		if p.Released() {
			b.logger.Warn("resolving a released bind group", "pipeline", b.label, "group", p.Label())
			ready = false
			continue
		}
		pushes := b.pushes[p.Scope()]
		if len(pushes) == 0 {
			continue
		}
		b.active = b.Mapped(p)
		for _, push := range pushes {
			ready = push(b.active) && ready
		}
	}
	var zero M
	b.active = zero
	return ready
}

func (b *Base[M]) Release() {
	for p, m := range b.mapped {
		delete(b.mapped, p)
		b.mapper.Unmap(m)
	}
}
