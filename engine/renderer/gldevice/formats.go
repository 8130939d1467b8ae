package gldevice

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/glbinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// texelFormat is the sized internal format and the client-side pixel layout of an ir.Format.
type texelFormat struct {
	internal uint32
	format   uint32
	xtype    uint32
	// filterable formats get a mipmap chain when sampled.
	filterable bool
}

var texelFormats = map[ir.Format]texelFormat{
	ir.FormatRGBA8:    {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, true},
	ir.FormatRGBA16F:  {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, true},
	ir.FormatRGBA32F:  {gl.RGBA32F, gl.RGBA, gl.FLOAT, false},
	ir.FormatR32F:     {gl.R32F, gl.RED, gl.FLOAT, false},
	ir.FormatR32I:     {gl.R32I, gl.RED_INTEGER, gl.INT, false},
	ir.FormatR32UI:    {gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, false},
	ir.FormatRGBA32I:  {gl.RGBA32I, gl.RGBA_INTEGER, gl.INT, false},
	ir.FormatRGBA32UI: {gl.RGBA32UI, gl.RGBA_INTEGER, gl.UNSIGNED_INT, false},
	ir.FormatDepth32F: {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT, false},
}

func textureTarget(d ir.Dimension) uint32 {
	switch d {
	case ir.Dim1D:
		return gl.TEXTURE_1D
	case ir.Dim3D:
		return gl.TEXTURE_3D
	case ir.DimCube:
		return gl.TEXTURE_CUBE_MAP
	case ir.Dim1DArray:
		return gl.TEXTURE_1D_ARRAY
	case ir.Dim2DArray:
		return gl.TEXTURE_2D_ARRAY
	case ir.DimCubeArray:
		return gl.TEXTURE_CUBE_MAP_ARRAY
	}
	return gl.TEXTURE_2D
}

func bufferTarget(t glbinder.BufferTarget) uint32 {
	if t == glbinder.BufferStorage {
		return gl.SHADER_STORAGE_BUFFER
	}
	return gl.UNIFORM_BUFFER
}

func imageAccess(a ir.Access) uint32 {
	switch a {
	case ir.AccessWriteOnly:
		return gl.WRITE_ONLY
	case ir.AccessReadWrite:
		return gl.READ_WRITE
	}
	return gl.READ_ONLY
}

func addressMode(m wgpu.AddressMode) int32 {
	switch m {
	case wgpu.AddressModeClampToEdge:
		return gl.CLAMP_TO_EDGE
	case wgpu.AddressModeMirrorRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.REPEAT
}

func magFilter(f wgpu.FilterMode) int32 {
	if f == wgpu.FilterModeNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

// minFilter folds the minification and mipmap filters into one GL filter.
func minFilter(f wgpu.FilterMode, mip wgpu.MipmapFilterMode) int32 {
	switch {
	case f == wgpu.FilterModeNearest && mip == wgpu.MipmapFilterModeNearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case f == wgpu.FilterModeNearest:
		return gl.NEAREST_MIPMAP_LINEAR
	case mip == wgpu.MipmapFilterModeNearest:
		return gl.LINEAR_MIPMAP_NEAREST
	}
	return gl.LINEAR_MIPMAP_LINEAR
}

// compareFunc returns the depth comparison of a comparison sampler, false for plain samplers.
func compareFunc(c wgpu.CompareFunction) (int32, bool) {
	switch c {
	case wgpu.CompareFunctionNever:
		return gl.NEVER, true
	case wgpu.CompareFunctionLess:
		return gl.LESS, true
	case wgpu.CompareFunctionEqual:
		return gl.EQUAL, true
	case wgpu.CompareFunctionLessEqual:
		return gl.LEQUAL, true
	case wgpu.CompareFunctionGreater:
		return gl.GREATER, true
	case wgpu.CompareFunctionNotEqual:
		return gl.NOTEQUAL, true
	case wgpu.CompareFunctionGreaterEqual:
		return gl.GEQUAL, true
	case wgpu.CompareFunctionAlways:
		return gl.ALWAYS, true
	}
	return 0, false
}

// attributeType returns the component count and GL component type of one attribute column.
func attributeType(t ir.Type) (int32, uint32) {
	n := int32(t.Rows())
	switch t.Scalar() {
	case common.ScalarInt:
		return n, gl.INT
	case common.ScalarUint:
		return n, gl.UNSIGNED_INT
	}
	return n, gl.FLOAT
}

func primitiveMode(t wgpu.PrimitiveTopology) uint32 {
	switch t {
	case wgpu.PrimitiveTopologyPointList:
		return gl.POINTS
	case wgpu.PrimitiveTopologyLineList:
		return gl.LINES
	case wgpu.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP
	case wgpu.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

func blendFactor(f wgpu.BlendFactor) uint32 {
	switch f {
	case wgpu.BlendFactorZero:
		return gl.ZERO
	case wgpu.BlendFactorSrc:
		return gl.SRC_COLOR
	case wgpu.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR
	case wgpu.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case wgpu.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case wgpu.BlendFactorDst:
		return gl.DST_COLOR
	case wgpu.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR
	case wgpu.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case wgpu.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case wgpu.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	}
	return gl.ONE
}

func blendOperation(op wgpu.BlendOperation) uint32 {
	switch op {
	case wgpu.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT
	case wgpu.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case wgpu.BlendOperationMin:
		return gl.MIN
	case wgpu.BlendOperationMax:
		return gl.MAX
	}
	return gl.FUNC_ADD
}

var shaderTypes = map[ir.StageKind]uint32{
	ir.StageVertex:   gl.VERTEX_SHADER,
	ir.StageFragment: gl.FRAGMENT_SHADER,
	ir.StageCompute:  gl.COMPUTE_SHADER,
}
