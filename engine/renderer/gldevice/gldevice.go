// Package gldevice implements the OpenGL device the GL binder and the GL renderer backend
// drive, over go-gl 4.3 core. Every method must be called on the thread that owns the
// current GL context.
package gldevice

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/glbinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

var (
	// ErrCompile is returned when a shader fails to compile or a program fails to link.
	ErrCompile = errors.New("shader compilation failed")
	// ErrUnsupportedFormat is returned when texture data uses a format OpenGL cannot store.
	ErrUnsupportedFormat = errors.New("unsupported texture format")
)

// RenderState is the fixed-function state a draw is issued with.
type RenderState struct {
	DepthTest, DepthWrite bool
	DepthBias             int32
	DepthBiasSlopeScale   float32
	// Blend is nil when blending is disabled.
	Blend     *wgpu.BlendState
	CullMode  wgpu.CullMode
	FrontFace wgpu.FrontFace
	WriteMask wgpu.ColorWriteMask
}

// VertexArray is a vertex array object together with the buffers feeding it.
type VertexArray struct {
	vao        uint32
	buffers    []uint32
	indices    uint32
	indexCount int32
}

// Device is the GL binder device plus the program, geometry and draw calls of the renderer
// backend, and the uploader of the resource context.
type Device interface {
	glbinder.Device
	resource.Uploader

	// CompileProgram compiles and links the non-empty stage sources.
	//
	// Parameters:
	//   - label: a debug label used in errors
	//   - sources: the generated GLSL
	//
	// Returns:
	//   - uint32: the program name
	//   - error: wraps ErrCompile with the driver's info log
	CompileProgram(label string, sources *codegen.Sources) (uint32, error)

	// DeleteProgram destroys a program created by CompileProgram.
	DeleteProgram(program uint32)

	// CreateVertexArray uploads one buffer per binding of vl and records the attribute
	// pointers. streams holds the bytes of each binding in binding order.
	//
	// Parameters:
	//   - vl: the vertex layout
	//   - streams: the bytes of each binding
	//   - indices: the triangle indices, nil for non-indexed geometry
	//
	// Returns:
	//   - *VertexArray: the vertex array
	CreateVertexArray(vl *layout.VertexLayout, streams [][]byte, indices []uint32) *VertexArray

	// UpdateVertexBuffer replaces the contents of one binding of va.
	UpdateVertexBuffer(va *VertexArray, binding int, data []byte)

	// DeleteVertexArray destroys va and its buffers.
	DeleteVertexArray(va *VertexArray)

	// ApplyState sets the fixed-function state of the next draws.
	ApplyState(s RenderState)

	// Draw issues an instanced draw of va with the current program.
	//
	// Parameters:
	//   - va: the vertex array
	//   - topology: the primitive topology
	//   - count: vertices to draw when va has no indices
	//   - instances: the instance count, at least 1
	Draw(va *VertexArray, topology wgpu.PrimitiveTopology, count, instances int)

	// Dispatch runs the current compute program and waits for its image and storage writes
	// to become visible.
	Dispatch(x, y, z uint32)

	// Clear sets the viewport and clears the default framebuffer.
	Clear(width, height int, color wgpu.Color)

	// Release destroys every sampler object the device created.
	Release()
}

// device is the implementation of the Device interface.
type device struct {
	caps     glbinder.Caps
	logger   *slog.Logger
	version  int
	ubo      *bool
	samplers map[common.SamplerSettings]uint32
}

var _ Device = &device{}

// New initialises go-gl against the current context and detects its capabilities.
//
// Parameters:
//   - options: a variadic list of Option functions
//
// Returns:
//   - Device: the device
//   - error: a go-gl initialisation failure
func New(options ...Option) (Device, error) {
	d := &device{
		logger:   slog.Default(),
		samplers: map[common.SamplerSettings]uint32{},
	}
	for _, opt := range options {
		opt(d)
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gldevice: init: %w", err)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	d.caps = detectCaps(int(major), int(minor), d.version, d.ubo)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	d.logger.Debug("gl device initialised",
		"driver", gl.GoStr(gl.GetString(gl.VERSION)),
		"version", d.caps.Version,
		"uniformBuffers", d.caps.UniformBuffers,
	)
	return d, nil
}

// detectCaps derives the capabilities of a context, applying the configured overrides.
func detectCaps(major, minor, version int, ubo *bool) glbinder.Caps {
	c := glbinder.Caps{Version: major*100 + minor*10}
	if version > 0 && version < c.Version {
		c.Version = version
	}
	c.UniformBuffers = c.Version >= 310
	if ubo != nil {
		c.UniformBuffers = c.UniformBuffers && *ubo
	}
	return c
}

func (d *device) Caps() glbinder.Caps {
	return d.caps
}

func (d *device) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *device) UniformBlockIndex(program uint32, name string) (uint32, bool) {
	idx := gl.GetUniformBlockIndex(program, gl.Str(name+"\x00"))
	return idx, idx != gl.INVALID_INDEX
}

func (d *device) UniformBlockBinding(program, block, slot uint32) {
	gl.UniformBlockBinding(program, block, slot)
}

func (d *device) StorageBlockIndex(program uint32, name string) (uint32, bool) {
	idx := gl.GetProgramResourceIndex(program, gl.SHADER_STORAGE_BLOCK, gl.Str(name+"\x00"))
	return idx, idx != gl.INVALID_INDEX
}

func (d *device) StorageBlockBinding(program, block, slot uint32) {
	gl.ShaderStorageBlockBinding(program, block, slot)
}

func (d *device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *device) CreateBuffer() uint32 {
	var b uint32
	gl.GenBuffers(1, &b)
	return b
}

func (d *device) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (d *device) BufferData(target glbinder.BufferTarget, buffer uint32, data []byte) {
	t := bufferTarget(target)
	gl.BindBuffer(t, buffer)
	gl.BufferData(t, len(data), bytesPtr(data), gl.DYNAMIC_DRAW)
}

func (d *device) BindBufferBase(target glbinder.BufferTarget, slot, buffer uint32) {
	gl.BindBufferBase(bufferTarget(target), slot, buffer)
}

func (d *device) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *device) UniformFloats(location int32, width int, v []float32) {
	if len(v) == 0 {
		return
	}
	n := int32(len(v) / width)
	switch width {
	case 1:
		gl.Uniform1fv(location, n, &v[0])
	case 2:
		gl.Uniform2fv(location, n, &v[0])
	case 3:
		gl.Uniform3fv(location, n, &v[0])
	default:
		gl.Uniform4fv(location, n, &v[0])
	}
}

func (d *device) UniformInts(location int32, width int, v []int32) {
	if len(v) == 0 {
		return
	}
	n := int32(len(v) / width)
	switch width {
	case 1:
		gl.Uniform1iv(location, n, &v[0])
	case 2:
		gl.Uniform2iv(location, n, &v[0])
	case 3:
		gl.Uniform3iv(location, n, &v[0])
	default:
		gl.Uniform4iv(location, n, &v[0])
	}
}

func (d *device) UniformUints(location int32, width int, v []uint32) {
	if len(v) == 0 {
		return
	}
	n := int32(len(v) / width)
	switch width {
	case 1:
		gl.Uniform1uiv(location, n, &v[0])
	case 2:
		gl.Uniform2uiv(location, n, &v[0])
	case 3:
		gl.Uniform3uiv(location, n, &v[0])
	default:
		gl.Uniform4uiv(location, n, &v[0])
	}
}

func (d *device) UniformMatrix(location int32, size int, v []float32) {
	if len(v) == 0 {
		return
	}
	n := int32(len(v) / (size * size))
	if size == 3 {
		gl.UniformMatrix3fv(location, n, false, &v[0])
		return
	}
	gl.UniformMatrix4fv(location, n, false, &v[0])
}

func (d *device) BindTextureUnit(unit uint32, dim ir.Dimension, texture uint32, s common.SamplerSettings) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(textureTarget(dim), texture)
	gl.BindSampler(unit, d.sampler(s))
}

func (d *device) BindImageTexture(unit uint32, texture uint32, access ir.Access, format ir.Format) {
	f, ok := texelFormats[format]
	if !ok {
		panic(fmt.Sprintf("gldevice: image unit %d bound with format %s", unit, format))
	}
	gl.BindImageTexture(unit, texture, 0, true, 0, imageAccess(access), f.internal)
}

// sampler returns the cached sampler object for s, creating it on first use.
func (d *device) sampler(s common.SamplerSettings) uint32 {
	if id, ok := d.samplers[s]; ok {
		return id
	}
	var id uint32
	gl.GenSamplers(1, &id)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_S, addressMode(s.AddressModeU))
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_T, addressMode(s.AddressModeV))
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_R, addressMode(s.AddressModeW))
	gl.SamplerParameteri(id, gl.TEXTURE_MAG_FILTER, magFilter(s.MagFilter))
	gl.SamplerParameteri(id, gl.TEXTURE_MIN_FILTER, minFilter(s.MinFilter, s.MipmapFilter))
	gl.SamplerParameterf(id, gl.TEXTURE_MIN_LOD, s.LodMinClamp)
	gl.SamplerParameterf(id, gl.TEXTURE_MAX_LOD, s.LodMaxClamp)
	if fn, ok := compareFunc(s.Compare); ok {
		gl.SamplerParameteri(id, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.SamplerParameteri(id, gl.TEXTURE_COMPARE_FUNC, fn)
	}
	d.samplers[s] = id
	return id
}

func (d *device) Release() {
	for s, id := range d.samplers {
		gl.DeleteSamplers(1, &id)
		delete(d.samplers, s)
	}
}

// bytesPtr returns a pointer to the first byte of data, nil for empty data.
func bytesPtr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
