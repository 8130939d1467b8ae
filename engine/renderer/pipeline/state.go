package pipeline

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// pendingUniform is an untyped uniform write waiting for Setup.
type pendingUniform struct {
	name  string
	index int
	value common.Value
}

// state is the implementation of the State interface.
type state struct {
	label    string
	pipeline Pipeline
	valid    bool

	groups [len(ir.Scopes)]bind_group_provider.BindGroupProvider
	// shared marks groups supplied with WithSharedGroup; they are not released with the state.
	shared [len(ir.Scopes)]bool

	handles []binding.Applier
	pending []pendingUniform
}

// State is one instance of a pipeline: the bind group data of every scope plus the typed
// handles that write into it. Handles may be created and written before Setup; their values
// are applied when the data is allocated.
type State interface {
	binding.Owner

	// Label returns the debug label of the state.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Pipeline returns the pipeline the state was created for.
	//
	// Returns:
	//   - Pipeline: the pipeline
	Pipeline() Pipeline

	// Setup allocates bind group data for every scope that has no shared group and applies
	// every pending handle value. Calling Setup on a valid state does nothing.
	Setup()

	// Groups returns the bind group data in scope order. Only valid after Setup.
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: one provider per scope
	Groups() []bind_group_provider.BindGroupProvider

	// SetUniform writes a uniform member without a typed handle. Panics when the name is
	// unknown or the shape of v does not match the member.
	//
	// Parameters:
	//   - name: the member name
	//   - v: the value
	SetUniform(name string, v common.Value)

	// SetUniformElement writes one element of an array uniform without a typed handle.
	//
	// Parameters:
	//   - name: the member name
	//   - index: the array element
	//   - v: the value
	SetUniformElement(name string, index int, v common.Value)

	// Release frees the bind group data owned by the state. Shared groups are left alone.
	// Handle values are kept so a later Setup restores them.
	Release()
}

var _ State = &state{}

// NewState creates an unset-up instance of p.
//
// Parameters:
//   - p: the pipeline
//   - options: a variadic list of StateOption functions
//
// Returns:
//   - State: the new state
func NewState(p Pipeline, options ...StateOption) State {
	if p == nil {
		panic("pipeline: state requires a pipeline")
	}
	s := &state{label: p.PipelineKey(), pipeline: p}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *state) Label() string {
	return s.label
}

func (s *state) Pipeline() Pipeline {
	return s.pipeline
}

func (s *state) Valid() bool {
	return s.valid
}

func (s *state) Lookup(name string) (*layout.BindGroupLayout, *layout.Entry) {
	return s.pipeline.Layouts().Lookup(name)
}

func (s *state) Group(scope ir.Scope) bind_group_provider.BindGroupProvider {
	return s.groups[scope]
}

func (s *state) Track(a binding.Applier) {
	s.handles = append(s.handles, a)
}

func (s *state) Setup() {
	if s.valid {
		return
	}
	layouts := s.pipeline.Layouts()
	for _, scope := range ir.Scopes {
		if s.shared[scope] {
			continue
		}
		s.groups[scope] = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s/%s", s.label, scope), layouts.Group(scope))
	}
	s.valid = true
	for _, h := range s.handles {
		h.Apply()
	}
	for _, u := range s.pending {
		s.write(u)
	}
}

func (s *state) Groups() []bind_group_provider.BindGroupProvider {
	if !s.valid {
		return nil
	}
	return slices.Clone(s.groups[:])
}

func (s *state) SetUniform(name string, v common.Value) {
	s.SetUniformElement(name, 0, v)
}

func (s *state) SetUniformElement(name string, index int, v common.Value) {
	g, e := s.Lookup(name)
	if e == nil || e.Kind != layout.EntryUniformBuffer {
		panic(fmt.Sprintf("pipeline: %s has no uniform `%s`", s.pipeline.PipelineKey(), name))
	}
	u := pendingUniform{name: name, index: index, value: v}
	if s.valid {
		s.write(u)
	} else if m, ok := e.Member(name); !ok || !m.Type.Matches(v) {
		panic(fmt.Sprintf("pipeline: uniform `%s` in %s group cannot hold %T", name, g.Scope, v))
	}
	for i, p := range s.pending {
		if p.name == name && p.index == index {
			s.pending[i] = u
			return
		}
	}
	s.pending = append(s.pending, u)
}

func (s *state) write(u pendingUniform) {
	g, _ := s.Lookup(u.name)
	s.groups[g.Scope].SetUniform(u.name, u.index, u.value)
}

func (s *state) Release() {
	for _, scope := range ir.Scopes {
		if !s.shared[scope] && s.groups[scope] != nil {
			s.groups[scope].Release()
			s.groups[scope] = nil
		}
	}
	s.valid = false
}
