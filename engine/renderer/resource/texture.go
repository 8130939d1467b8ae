package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// Strategy selects when a texture's loader runs.
type Strategy int

const (
	// Async decodes on the context's worker pool; the data is installed by Context.Poll.
	Async Strategy = iota
	// Sync decodes on the render thread at the first request.
	Sync
	// Prebuffered textures are constructed with their data already decoded.
	Prebuffered
)

// State is the residency state of a texture.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Usage records how a texture is bound.
type Usage int

const (
	// UsageSampled textures are read through a sampler.
	UsageSampled Usage = 1 << iota
	// UsageStorage textures are bound as storage images.
	UsageStorage
)

// Texture is a backend-independent texture. Its decoded data is owned by the texture; the
// backend objects are owned by each Context that makes it resident.
//
// Textures are used from the render thread only. Async decoding hands its result back
// through the requesting Context.
type Texture struct {
	label    string
	loader   Loader
	strategy Strategy
	usage    Usage

	state State
	data  *Data
	err   error
}

// NewTexture creates a texture decoded by loader.
//
// Parameters:
//   - label: a debug label
//   - loader: the texture's loader
//   - options: a variadic list of TextureOption functions
//
// Returns:
//   - *Texture: the texture, NotLoaded unless prebuffered
func NewTexture(label string, loader Loader, options ...TextureOption) *Texture {
	if loader == nil {
		panic(fmt.Sprintf("resource: texture %q has no loader", label))
	}
	t := &Texture{label: label, loader: loader, strategy: Async, usage: UsageSampled}
	for _, opt := range options {
		opt(t)
	}
	if t.strategy == Prebuffered {
		t.decode()
	}
	return t
}

// NewPrebufferedTexture creates a texture from decoded data.
func NewPrebufferedTexture(label string, data *Data, options ...TextureOption) *Texture {
	return NewTexture(label, DataLoader{Data: data}, append(options, WithStrategy(Prebuffered))...)
}

// NewStorageTexture creates a zero-filled texture bindable as a storage image.
//
// Parameters:
//   - label: a debug label
//   - width, height: the texture size
//   - format: the texel format, one a storage image can use
//
// Returns:
//   - *Texture: the prebuffered storage texture
func NewStorageTexture(label string, width, height int, format ir.Format) *Texture {
	d := &Data{Width: width, Height: height, Depth: 1, Format: format}
	d.Pixels = make([]byte, d.Size())
	return NewPrebufferedTexture(label, d, WithUsage(UsageSampled|UsageStorage))
}

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Strategy returns the loading strategy.
func (t *Texture) Strategy() Strategy { return t.strategy }

// Usage returns the binding usage flags.
func (t *Texture) Usage() Usage { return t.usage }

// State returns the decode state. Residency in a context is reported by Context.State.
func (t *Texture) State() State { return t.state }

// Data returns the decoded data, or nil before decoding completes.
func (t *Texture) Data() *Data { return t.data }

// Err returns the decode failure of a Failed texture.
func (t *Texture) Err() error { return t.err }

// key identifies the data shared by textures in a residency cache.
func (t *Texture) key() any {
	if k, ok := t.loader.(Keyer); ok {
		if key := k.Key(); key != nil {
			return key
		}
	}
	return t.data
}

func (t *Texture) decode() {
	t.state = Loading
	t.install(t.loader.Load())
}

func (t *Texture) install(d *Data, err error) {
	if t.state != Loading {
		return
	}
	switch {
	case err != nil:
		t.state, t.err = Failed, err
	case d == nil || len(d.Pixels) < d.Size():
		t.state, t.err = Failed, fmt.Errorf("resource: texture %q decoded to incomplete data", t.label)
	default:
		t.state, t.data = Loaded, d
	}
}
