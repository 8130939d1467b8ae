package gldevice

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

func (d *device) CreateVertexArray(vl *layout.VertexLayout, streams [][]byte, indices []uint32) *VertexArray {
	va := &VertexArray{}
	gl.GenVertexArrays(1, &va.vao)
	gl.BindVertexArray(va.vao)

	if vl != nil {
		if len(streams) != len(vl.Bindings) {
			panic("gldevice: vertex array needs one stream per binding")
		}
		va.buffers = make([]uint32, len(vl.Bindings))
		gl.GenBuffers(int32(len(va.buffers)), &va.buffers[0])
		for i, b := range vl.Bindings {
			gl.BindBuffer(gl.ARRAY_BUFFER, va.buffers[i])
			gl.BufferData(gl.ARRAY_BUFFER, len(streams[i]), bytesPtr(streams[i]), gl.DYNAMIC_DRAW)
			for _, a := range b.Attributes {
				pointAttribute(a, int32(b.Stride), b.Rate == ir.PerInstance)
			}
		}
	}
	if len(indices) > 0 {
		gl.GenBuffers(1, &va.indices)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.indices)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
		va.indexCount = int32(len(indices))
	}
	gl.BindVertexArray(0)
	return va
}

// pointAttribute records the pointer of a, one location per matrix column.
func pointAttribute(a layout.VertexAttribute, stride int32, perInstance bool) {
	size, xtype := attributeType(a.Type)
	column := int(size) * 4
	for c := range a.Type.Cols() {
		loc := uint32(a.Location + c)
		offset := gl.PtrOffset(a.Offset + c*column)
		gl.EnableVertexAttribArray(loc)
		if a.Type.IsInteger() {
			gl.VertexAttribIPointer(loc, size, xtype, stride, offset)
		} else {
			gl.VertexAttribPointer(loc, size, xtype, false, stride, offset)
		}
		if perInstance {
			gl.VertexAttribDivisor(loc, 1)
		}
	}
}

func (d *device) UpdateVertexBuffer(va *VertexArray, binding int, data []byte) {
	gl.BindBuffer(gl.ARRAY_BUFFER, va.buffers[binding])
	gl.BufferData(gl.ARRAY_BUFFER, len(data), bytesPtr(data), gl.DYNAMIC_DRAW)
}

func (d *device) DeleteVertexArray(va *VertexArray) {
	if len(va.buffers) > 0 {
		gl.DeleteBuffers(int32(len(va.buffers)), &va.buffers[0])
	}
	if va.indices != 0 {
		gl.DeleteBuffers(1, &va.indices)
	}
	gl.DeleteVertexArrays(1, &va.vao)
	*va = VertexArray{}
}

func (d *device) ApplyState(s RenderState) {
	if s.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(s.DepthWrite)

	if s.DepthBias != 0 || s.DepthBiasSlopeScale != 0 {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(s.DepthBiasSlopeScale, float32(s.DepthBias))
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}

	if b := s.Blend; b != nil {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(
			blendFactor(b.Color.SrcFactor), blendFactor(b.Color.DstFactor),
			blendFactor(b.Alpha.SrcFactor), blendFactor(b.Alpha.DstFactor),
		)
		gl.BlendEquationSeparate(blendOperation(b.Color.Operation), blendOperation(b.Alpha.Operation))
	} else {
		gl.Disable(gl.BLEND)
	}

	switch s.CullMode {
	case wgpu.CullModeFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case wgpu.CullModeBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	default:
		gl.Disable(gl.CULL_FACE)
	}
	if s.FrontFace == wgpu.FrontFaceCW {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}

	m := s.WriteMask
	gl.ColorMask(m&wgpu.ColorWriteMaskRed != 0, m&wgpu.ColorWriteMaskGreen != 0, m&wgpu.ColorWriteMaskBlue != 0, m&wgpu.ColorWriteMaskAlpha != 0)
}

func (d *device) Draw(va *VertexArray, topology wgpu.PrimitiveTopology, count, instances int) {
	mode := primitiveMode(topology)
	gl.BindVertexArray(va.vao)
	if va.indexCount > 0 {
		gl.DrawElementsInstanced(mode, va.indexCount, gl.UNSIGNED_INT, nil, int32(max(instances, 1)))
	} else {
		gl.DrawArraysInstanced(mode, 0, int32(count), int32(max(instances, 1)))
	}
	gl.BindVertexArray(0)
}

func (d *device) Dispatch(x, y, z uint32) {
	gl.DispatchCompute(x, y, z)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.SHADER_STORAGE_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
}

func (d *device) Clear(width, height int, color wgpu.Color) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.DepthMask(true)
	gl.ColorMask(true, true, true, true)
	gl.ClearColor(float32(color.R), float32(color.G), float32(color.B), float32(color.A))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}
