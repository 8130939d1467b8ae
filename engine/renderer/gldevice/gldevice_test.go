package gldevice

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/glbinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

func TestDetectCaps(t *testing.T) {
	assert.Equal(t, glbinder.Caps{Version: 460, UniformBuffers: true}, detectCaps(4, 6, 0, nil))
	assert.Equal(t, glbinder.Caps{Version: 330, UniformBuffers: true}, detectCaps(4, 6, 330, nil))
	assert.Equal(t, glbinder.Caps{Version: 300}, detectCaps(3, 0, 0, nil))

	off := false
	c := detectCaps(4, 3, 0, &off)
	assert.False(t, c.UniformBuffers)
	assert.True(t, c.SupportsStorage())

	on := true
	assert.False(t, detectCaps(3, 0, 0, &on).UniformBuffers, "an override never enables a missing feature")
	assert.Equal(t, 430, detectCaps(4, 3, 450, nil).Version, "the version cap never raises the context version")
}

func TestEveryFormatHasATexelLayout(t *testing.T) {
	for _, f := range []ir.Format{
		ir.FormatRGBA8, ir.FormatRGBA16F, ir.FormatRGBA32F, ir.FormatR32F, ir.FormatR32I,
		ir.FormatR32UI, ir.FormatRGBA32I, ir.FormatRGBA32UI, ir.FormatDepth32F,
	} {
		_, ok := texelFormats[f]
		assert.True(t, ok, f.String())
	}
	assert.Equal(t, uint32(gl.RED_INTEGER), texelFormats[ir.FormatR32UI].format)
}

func TestSamplerTranslation(t *testing.T) {
	assert.Equal(t, int32(gl.CLAMP_TO_EDGE), addressMode(wgpu.AddressModeClampToEdge))
	assert.Equal(t, int32(gl.MIRRORED_REPEAT), addressMode(wgpu.AddressModeMirrorRepeat))
	assert.Equal(t, int32(gl.REPEAT), addressMode(wgpu.AddressModeRepeat))

	assert.Equal(t, int32(gl.NEAREST), magFilter(wgpu.FilterModeNearest))
	assert.Equal(t, int32(gl.LINEAR_MIPMAP_LINEAR), minFilter(wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear))
	assert.Equal(t, int32(gl.NEAREST_MIPMAP_NEAREST), minFilter(wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest))
	assert.Equal(t, int32(gl.LINEAR_MIPMAP_NEAREST), minFilter(wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest))

	fn, ok := compareFunc(wgpu.CompareFunctionLessEqual)
	assert.True(t, ok)
	assert.Equal(t, int32(gl.LEQUAL), fn)
	_, ok = compareFunc(wgpu.CompareFunctionUndefined)
	assert.False(t, ok)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, uint32(gl.TEXTURE_2D), textureTarget(ir.Dim2D))
	assert.Equal(t, uint32(gl.TEXTURE_CUBE_MAP), textureTarget(ir.DimCube))
	assert.Equal(t, uint32(gl.TEXTURE_2D_ARRAY), textureTarget(ir.Dim2DArray))
	assert.Equal(t, uint32(gl.SHADER_STORAGE_BUFFER), bufferTarget(glbinder.BufferStorage))
	assert.Equal(t, uint32(gl.UNIFORM_BUFFER), bufferTarget(glbinder.BufferUniform))
	assert.Equal(t, uint32(gl.WRITE_ONLY), imageAccess(ir.AccessWriteOnly))
	assert.Equal(t, uint32(gl.READ_ONLY), imageAccess(ir.AccessReadOnly))
}

func TestAttributeType(t *testing.T) {
	n, xtype := attributeType(ir.TypeUint4)
	assert.Equal(t, int32(4), n)
	assert.Equal(t, uint32(gl.UNSIGNED_INT), xtype)

	n, xtype = attributeType(ir.TypeMat4)
	assert.Equal(t, int32(4), n, "matrices are fed one column per location")
	assert.Equal(t, uint32(gl.FLOAT), xtype)

	n, _ = attributeType(ir.TypeFloat2)
	assert.Equal(t, int32(2), n)
}

func TestMipLevels(t *testing.T) {
	assert.Equal(t, int32(1), mipLevels(1, 1))
	assert.Equal(t, int32(9), mipLevels(256, 16))
	assert.Equal(t, int32(9), mipLevels(300, 300))
}

func TestBlendTranslation(t *testing.T) {
	assert.Equal(t, uint32(gl.ONE_MINUS_SRC_ALPHA), blendFactor(wgpu.BlendFactorOneMinusSrcAlpha))
	assert.Equal(t, uint32(gl.ONE), blendFactor(wgpu.BlendFactorOne))
	assert.Equal(t, uint32(gl.FUNC_REVERSE_SUBTRACT), blendOperation(wgpu.BlendOperationReverseSubtract))
	assert.Equal(t, uint32(gl.TRIANGLE_STRIP), primitiveMode(wgpu.PrimitiveTopologyTriangleStrip))
	assert.Equal(t, uint32(gl.TRIANGLES), primitiveMode(wgpu.PrimitiveTopologyTriangleList))
}
