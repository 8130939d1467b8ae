package resource

// TextureOption is a functional option used to configure a Texture during construction.
type TextureOption func(*Texture)

// WithStrategy sets when the texture's loader runs.
//
// Parameters:
//   - s: the loading strategy, Async by default
//
// Returns:
//   - TextureOption: a function that sets the strategy
func WithStrategy(s Strategy) TextureOption {
	return func(t *Texture) {
		t.strategy = s
	}
}

// WithUsage sets how the texture may be bound.
//
// Parameters:
//   - u: a combination of UsageSampled and UsageStorage
//
// Returns:
//   - TextureOption: a function that sets the usage flags
func WithUsage(u Usage) TextureOption {
	return func(t *Texture) {
		t.usage = u
	}
}
