package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

type mapped struct {
	label string
}

type recordingMapper struct {
	mapped   []string
	unmapped []string
}

func (r *recordingMapper) Map(p bind_group_provider.BindGroupProvider) *mapped {
	r.mapped = append(r.mapped, p.Label())
	return &mapped{label: p.Label()}
}

func (r *recordingMapper) Unmap(m *mapped) {
	r.unmapped = append(r.unmapped, m.label)
}

type fixture struct {
	layouts *layout.Layouts
	mapper  *recordingMapper
	log     []string
	ready   map[string]bool
	base    *binder.Base[*mapped]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layouts, err := layout.Build(irtest.Lit())
	require.NoError(t, err)
	f := &fixture{layouts: layouts, mapper: &recordingMapper{}, ready: map[string]bool{}}

	var pushes [len(ir.Scopes)][]binder.Push[*mapped]
	for _, s := range ir.Scopes {
		for _, e := range layouts.Group(s).Entries {
			name := e.Name
			pushes[s] = append(pushes[s], func(m *mapped) bool {
				f.log = append(f.log, m.label+":"+name)
				r, ok := f.ready[name]
				return !ok || r
			})
		}
	}
	f.base = binder.NewBase("lit", layouts, f.mapper, pushes, nil)
	return f
}

func (f *fixture) groups() []bind_group_provider.BindGroupProvider {
	return []bind_group_provider.BindGroupProvider{
		bind_group_provider.NewBindGroupProvider("mesh", f.layouts.Group(ir.ScopeMesh)),
		bind_group_provider.NewBindGroupProvider("view", f.layouts.Group(ir.ScopeView)),
		bind_group_provider.NewBindGroupProvider("pipeline", f.layouts.Group(ir.ScopePipeline)),
	}
}

func TestResolveOrdersScopes(t *testing.T) {
	f := newFixture(t)
	groups := f.groups()

	assert.True(t, f.base.Resolve(groups...))
	assert.Equal(t, []string{"view:Camera", "pipeline:albedo", "mesh:Object"}, f.log)
	assert.Nil(t, f.base.Active())

	f.log = nil
	assert.True(t, f.base.Resolve(groups...))
	assert.Len(t, f.log, 3)
	assert.Equal(t, []string{"view", "pipeline", "mesh"}, f.mapper.mapped, "groups are mapped once in scope order")
}

func TestResolveRunsEveryPush(t *testing.T) {
	f := newFixture(t)
	f.ready["Camera"] = false

	assert.False(t, f.base.Resolve(f.groups()...))
	assert.Len(t, f.log, 3, "later groups still push after a not-ready binding")
}

func TestReleasedProvidersAreForgotten(t *testing.T) {
	f := newFixture(t)
	groups := f.groups()
	require.True(t, f.base.Resolve(groups...))
	require.Equal(t, 3, f.base.Len())

	groups[0].Release()
	assert.Equal(t, []string{"mesh"}, f.mapper.unmapped)
	assert.Equal(t, 2, f.base.Len())
	assert.False(t, f.base.Resolve(groups...))

	f.base.Release()
	assert.Equal(t, 0, f.base.Len())
	assert.ElementsMatch(t, []string{"mesh", "view", "pipeline"}, f.mapper.unmapped)
}

func TestResolveRejectsForeignLayouts(t *testing.T) {
	f := newFixture(t)
	other, err := layout.Build(irtest.Albedo())
	require.NoError(t, err)
	foreign := bind_group_provider.NewBindGroupProvider("material", other.Group(ir.ScopePipeline))
	assert.Panics(t, func() { f.base.Resolve(foreign) })
}
