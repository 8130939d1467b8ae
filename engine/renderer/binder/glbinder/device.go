package glbinder

import (
	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// BufferTarget selects the indexed binding point a buffer is attached to.
type BufferTarget int

const (
	BufferUniform BufferTarget = iota
	BufferStorage
)

// Caps describes the OpenGL context a binder targets.
type Caps struct {
	// Version is the context version times one hundred plus the minor version times ten,
	// e.g. 330 or 430.
	Version int
	// UniformBuffers reports uniform buffer object support.
	UniformBuffers bool
}

// SupportsStorage reports whether storage images and buffers are available (GL 4.3).
func (c Caps) SupportsStorage() bool {
	return c.Version >= 430
}

// Device is the subset of the OpenGL API a binder drives. Programs, buffers and textures are
// GL object names. It is implemented over go-gl by the gldevice package and by recording
// fakes in tests.
type Device interface {
	// Caps returns the capabilities of the current context.
	Caps() Caps

	// UseProgram makes program current.
	UseProgram(program uint32)

	// UniformBlockIndex returns the index of a named uniform block, false when the program
	// has no such block.
	UniformBlockIndex(program uint32, name string) (uint32, bool)
	// UniformBlockBinding assigns a uniform block to an indexed uniform buffer slot.
	UniformBlockBinding(program, block, slot uint32)
	// StorageBlockIndex returns the index of a named shader storage block.
	StorageBlockIndex(program uint32, name string) (uint32, bool)
	// StorageBlockBinding assigns a shader storage block to an indexed storage buffer slot.
	StorageBlockBinding(program, block, slot uint32)
	// UniformLocation returns the location of a plain uniform, -1 when it is inactive.
	UniformLocation(program uint32, name string) int32

	// CreateBuffer creates a buffer object.
	CreateBuffer() uint32
	// DeleteBuffer destroys a buffer object.
	DeleteBuffer(buffer uint32)
	// BufferData replaces the contents of buffer.
	BufferData(target BufferTarget, buffer uint32, data []byte)
	// BindBufferBase binds buffer to an indexed slot of target.
	BindBufferBase(target BufferTarget, slot, buffer uint32)

	// Uniform1i sets an int, bool or sampler uniform.
	Uniform1i(location int32, v int32)
	// UniformFloats sets a float vector uniform of width 1 to 4.
	UniformFloats(location int32, width int, v []float32)
	// UniformInts sets an int vector uniform of width 1 to 4.
	UniformInts(location int32, width int, v []int32)
	// UniformUints sets a uint vector uniform of width 1 to 4.
	UniformUints(location int32, width int, v []uint32)
	// UniformMatrix sets a square float matrix uniform of size 3 or 4.
	UniformMatrix(location int32, size int, v []float32)

	// BindTextureUnit binds texture and a sampler object built from s to a texture unit.
	BindTextureUnit(unit uint32, dim ir.Dimension, texture uint32, s common.SamplerSettings)
	// BindImageTexture binds level 0 of texture to an image unit.
	BindImageTexture(unit uint32, texture uint32, access ir.Access, format ir.Format)
}
