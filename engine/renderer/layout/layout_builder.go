package layout

// Capabilities describes the target features that change the shape of a layout.
type Capabilities struct {
	// UniformBuffers reports native uniform buffer object support. When false every
	// uniform buffer entry is flagged PlainUniforms.
	UniformBuffers bool
}

// DefaultCapabilities assumes a target with uniform buffer objects.
func DefaultCapabilities() Capabilities {
	return Capabilities{UniformBuffers: true}
}

type builder struct {
	caps Capabilities
}

// BuilderOption is a functional option used to configure Build.
type BuilderOption func(*builder)

// WithCapabilities sets the target capabilities used while deriving layouts.
//
// Parameters:
//   - caps: the target capabilities
//
// Returns:
//   - BuilderOption: a function that sets the capabilities
func WithCapabilities(caps Capabilities) BuilderOption {
	return func(b *builder) {
		b.caps = caps
	}
}
