package glsl

// GeneratorOption is a functional option used to configure the GLSL generator.
type GeneratorOption func(*generator)

// WithVersion sets the minimum `#version` directive. Programs that use storage resources
// or compute stages are raised to 430 regardless.
//
// Parameters:
//   - version: the GLSL version number, e.g. 330 or 410
//
// Returns:
//   - GeneratorOption: a function that sets the version
func WithVersion(version int) GeneratorOption {
	return func(g *generator) {
		g.version = version
	}
}

// WithUniformBuffers selects between std140 uniform blocks (true, the default) and plain
// uniform declarations for contexts without uniform buffer objects.
//
// Parameters:
//   - enabled: whether uniform blocks are emitted
//
// Returns:
//   - GeneratorOption: a function that sets uniform block emission
func WithUniformBuffers(enabled bool) GeneratorOption {
	return func(g *generator) {
		g.uniformBuffers = enabled
	}
}
