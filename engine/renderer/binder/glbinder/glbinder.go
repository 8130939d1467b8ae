// Package glbinder binds bind group data to an OpenGL program. Uniform buffers are attached to
// sequential uniform buffer slots, or degrade to plain uniforms when the program has no
// block of that name or the context lacks uniform buffer objects. Textures take consecutive
// texture units, storage images take image units and storage buffers take storage slots.
package glbinder

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/glsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

var (
	// ErrInsufficientCapability is the panic value when a layout needs a feature the context lacks.
	ErrInsufficientCapability = errors.New("insufficient backend capability")
	// ErrUnmappedType is the panic value when an IR type or format has no OpenGL representation.
	ErrUnmappedType = errors.New("type has no OpenGL representation")
)

// group is the per-provider state of a GL binder.
type group struct {
	provider bind_group_provider.BindGroupProvider
	// buffers holds the uniform buffer object of each block-mode entry, keyed by binding.
	buffers map[int]uint32
	// uploaded holds the provider revision each buffer was last filled with.
	uploaded map[int]uint64
}

type mapper struct {
	dev Device
}

func (m *mapper) Map(p bind_group_provider.BindGroupProvider) *group {
	return &group{provider: p, buffers: map[int]uint32{}, uploaded: map[int]uint64{}}
}

func (m *mapper) Unmap(g *group) {
	for binding, buf := range g.buffers {
		m.dev.DeleteBuffer(buf)
		delete(g.buffers, binding)
	}
}

// plainUniform is one uniform location written by a plain-mode push.
type plainUniform struct {
	name     string
	index    int
	location int32
	set      func(location int32, words []uint32)
}

// glBinder is the unexported implementation of binder.ResourceBinder for OpenGL.
type glBinder struct {
	label   string
	dev     Device
	ctx     resource.Context
	program uint32
	caps    Caps
	logger  *slog.Logger
	base    *binder.Base[*group]

	nextUniformSlot uint32
	nextTextureUnit uint32
	nextImageUnit   uint32
	nextStorageSlot uint32
	plainBuffers    []string
	blockBuffers    []string
}

var _ binder.ResourceBinder = &glBinder{}

// New compiles the binding table of program against layouts. Slot assignment and the
// one-time uniform setup (block bindings, sampler units) happen here; Resolve only pushes.
//
// New panics with ErrInsufficientCapability when the layouts use storage resources on a
// context below GL 4.3, and with ErrUnmappedType for a type the context cannot express.
//
// Parameters:
//   - dev: the OpenGL device
//   - ctx: the residency context used to make textures and storage buffers resident
//   - program: the linked GL program name
//   - layouts: the pipeline's layouts
//   - options: a variadic list of Option functions
//
// Returns:
//   - binder.ResourceBinder: the compiled binder
func New(dev Device, ctx resource.Context, program uint32, layouts *layout.Layouts, options ...Option) binder.ResourceBinder {
	b := &glBinder{
		label:   fmt.Sprintf("program %d", program),
		dev:     dev,
		ctx:     ctx,
		program: program,
		caps:    dev.Caps(),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(b)
	}

	dev.UseProgram(program)
	var pushes [len(ir.Scopes)][]binder.Push[*group]
	for _, s := range ir.Scopes {
		g := layouts.Group(s)
		for i := range g.Entries {
			pushes[s] = append(pushes[s], b.compile(&g.Entries[i]))
		}
	}
	b.base = binder.NewBase(b.label, layouts, &mapper{dev: dev}, pushes, b.logger)
	b.logger.Debug("gl binder compiled",
		"pipeline", b.label,
		"uniform_blocks", b.blockBuffers,
		"plain_buffers", b.plainBuffers,
		"texture_units", b.nextTextureUnit,
		"image_units", b.nextImageUnit,
		"storage_slots", b.nextStorageSlot,
	)
	return b
}

func (b *glBinder) Resolve(groups ...bind_group_provider.BindGroupProvider) bool {
	return b.base.Resolve(groups...)
}

func (b *glBinder) Release() {
	b.base.Release()
}

func (b *glBinder) compile(e *layout.Entry) binder.Push[*group] {
	switch e.Kind {
	case layout.EntryUniformBuffer:
		if push, ok := b.uniformBlock(e); ok {
			b.blockBuffers = append(b.blockBuffers, e.Name)
			return push
		}
		b.plainBuffers = append(b.plainBuffers, e.Name)
		return b.plainUniforms(e)
	case layout.EntryTexture:
		return b.texture(e)
	case layout.EntryStorage:
		if !b.caps.SupportsStorage() {
			panic(fmt.Errorf("glbinder: storage `%s` needs GL 4.3, context is %d: %w", e.Name, b.caps.Version, ErrInsufficientCapability))
		}
		if e.StorageKind == ir.StorageImage {
			return b.storageImage(e)
		}
		return b.storageBuffer(e)
	}
	panic(fmt.Sprintf("glbinder: unknown entry kind %s", e.Kind))
}

// uniformBlock binds a uniform buffer entry to the next uniform buffer slot. It reports false
// when the entry must fall back to plain uniforms.
func (b *glBinder) uniformBlock(e *layout.Entry) (binder.Push[*group], bool) {
	if e.PlainUniforms || !b.caps.UniformBuffers {
		return nil, false
	}
	index, ok := b.dev.UniformBlockIndex(b.program, e.Name)
	if !ok {
		b.logger.Debug("uniform block not found, using plain uniforms", "pipeline", b.label, "block", e.Name)
		return nil, false
	}
	slot := b.nextUniformSlot
	b.nextUniformSlot++
	b.dev.UniformBlockBinding(b.program, index, slot)

	binding := e.Binding
	return func(g *group) bool {
		buf, ok := g.buffers[binding]
		if !ok {
			buf = b.dev.CreateBuffer()
			g.buffers[binding] = buf
		}
		for _, w := range g.provider.StaleWrites(g.uploaded) {
			if w.Binding != binding {
				continue
			}
			w.Apply(g.uploaded, func(_ uint64, data []byte) {
				b.dev.BufferData(BufferUniform, buf, data)
			})
		}
		b.dev.BindBufferBase(BufferUniform, slot, buf)
		return true
	}, true
}

// plainUniforms resolves one location per member element and pushes every value each draw,
// reading the active group.
func (b *glBinder) plainUniforms(e *layout.Entry) binder.Push[*group] {
	var uniforms []plainUniform
	for _, m := range e.Members {
		set := b.setter(m.Type)
		for i := 0; i < m.Elements(); i++ {
			name := m.Name
			if m.Count > 0 {
				name = fmt.Sprintf("%s[%d]", m.Name, i)
			}
			loc := b.dev.UniformLocation(b.program, name)
			if loc < 0 {
				continue
			}
			uniforms = append(uniforms, plainUniform{name: m.Name, index: i, location: loc, set: set})
		}
	}
	binding := e.Binding
	return func(*group) bool {
		active := b.base.Active()
		for _, u := range uniforms {
			u.set(u.location, active.provider.Uniform(u.name, u.index))
		}
		active.provider.ClearDirty(binding)
		return true
	}
}

// setter returns the typed uniform call for t.
func (b *glBinder) setter(t ir.Type) func(int32, []uint32) {
	switch {
	case t == ir.TypeBool:
		return func(loc int32, w []uint32) { b.dev.Uniform1i(loc, int32(w[0])) }
	case t.IsMatrix():
		size := t.Cols()
		return func(loc int32, w []uint32) { b.dev.UniformMatrix(loc, size, floats(w)) }
	case t.Valid() && t.Scalar() == common.ScalarFloat:
		width := t.Rows()
		return func(loc int32, w []uint32) { b.dev.UniformFloats(loc, width, floats(w)) }
	case t.Valid() && t.Scalar() == common.ScalarInt:
		width := t.Rows()
		return func(loc int32, w []uint32) { b.dev.UniformInts(loc, width, ints(w)) }
	case t.Valid() && t.Scalar() == common.ScalarUint:
		width := t.Rows()
		return func(loc int32, w []uint32) { b.dev.UniformUints(loc, width, w) }
	}
	panic(fmt.Errorf("glbinder: uniform type %s: %w", t, ErrUnmappedType))
}

func floats(words []uint32) []float32 {
	out := make([]float32, len(words))
	for i, w := range words {
		out[i] = math.Float32frombits(w)
	}
	return out
}

func ints(words []uint32) []int32 {
	out := make([]int32, len(words))
	for i, w := range words {
		out[i] = int32(w)
	}
	return out
}

// texture assigns consecutive texture units to every element of a texture entry and points
// the sampler uniforms at them once.
func (b *glBinder) texture(e *layout.Entry) binder.Push[*group] {
	count := max(e.Count, 1)
	first := b.nextTextureUnit
	b.nextTextureUnit += uint32(count)
	for i := 0; i < count; i++ {
		name := e.Name
		if e.Count > 1 {
			name = fmt.Sprintf("%s[%d]", e.Name, i)
		}
		if loc := b.dev.UniformLocation(b.program, name); loc >= 0 {
			b.dev.Uniform1i(loc, int32(first)+int32(i))
		}
	}

	binding, dim := e.Binding, e.Dim
	return func(g *group) bool {
		ready := true
		sampler := g.provider.Sampler(binding)
		for i := 0; i < count; i++ {
			t := g.provider.Texture(binding, i)
			if t == nil {
				ready = false
				continue
			}
			h, ok := b.ctx.RequestTexture(t)
			if !ok {
				ready = false
				continue
			}
			b.dev.BindTextureUnit(first+uint32(i), dim, h.(uint32), sampler)
		}
		return ready
	}
}

func (b *glBinder) storageImage(e *layout.Entry) binder.Push[*group] {
	if e.Format == ir.FormatDepth32F {
		panic(fmt.Errorf("glbinder: storage image `%s` format %s: %w", e.Name, e.Format, ErrUnmappedType))
	}
	unit := b.nextImageUnit
	b.nextImageUnit++
	if loc := b.dev.UniformLocation(b.program, e.Name); loc >= 0 {
		b.dev.Uniform1i(loc, int32(unit))
	}

	binding, access, format := e.Binding, e.Access, e.Format
	return func(g *group) bool {
		t := g.provider.StorageTexture(binding)
		if t == nil {
			return false
		}
		h, ok := b.ctx.RequestTexture(t)
		if !ok {
			return false
		}
		b.dev.BindImageTexture(unit, h.(uint32), access, format)
		return true
	}
}

func (b *glBinder) storageBuffer(e *layout.Entry) binder.Push[*group] {
	slot := b.nextStorageSlot
	b.nextStorageSlot++
	if index, ok := b.dev.StorageBlockIndex(b.program, glsl.BlockName(e.Name)); ok {
		b.dev.StorageBlockBinding(b.program, index, slot)
	}

	binding := e.Binding
	return func(g *group) bool {
		sb := g.provider.StorageBuffer(binding)
		if sb == nil {
			return false
		}
		h, ok := b.ctx.RequestStorageBuffer(sb)
		if !ok {
			return false
		}
		b.dev.BindBufferBase(BufferStorage, slot, h.(uint32))
		return true
	}
}
