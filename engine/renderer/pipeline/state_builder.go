package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
)

// StateOption is a functional option used to configure a State during construction.
type StateOption func(*state)

// WithLabel sets the debug label of the state and of the bind group data it allocates.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - StateOption: a function that sets the label
func WithLabel(label string) StateOption {
	return func(s *state) {
		s.label = label
	}
}

// WithSharedGroup makes the state bind an existing provider for the provider's scope instead
// of allocating its own, typically a View group shared by every state drawn with one camera.
// The provider's layout must equal the pipeline's layout for that scope.
//
// Parameters:
//   - p: the shared provider
//
// Returns:
//   - StateOption: a function that installs the shared group
func WithSharedGroup(p bind_group_provider.BindGroupProvider) StateOption {
	return func(s *state) {
		scope := p.Scope()
		if want := s.pipeline.Layouts().Group(scope); p.Layout() != want && !p.Layout().Equal(want) {
			panic(fmt.Sprintf("pipeline: shared %s group %q does not match the layout of %s", scope, p.Label(), s.pipeline.PipelineKey()))
		}
		s.groups[scope] = p
		s.shared[scope] = true
	}
}
