package gldevice

import (
	"fmt"
	"math/bits"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// mipLevels returns the length of a full mipmap chain for a width by height texture.
func mipLevels(width, height int) int32 {
	return int32(bits.Len(uint(max(width, height, 1))))
}

func (d *device) UploadTexture(data *resource.Data, usage resource.Usage) (resource.Handle, error) {
	f, ok := texelFormats[data.Format]
	if !ok {
		return nil, fmt.Errorf("gldevice: %s: %w", data.Format, ErrUnsupportedFormat)
	}
	if len(data.Pixels) != 0 && len(data.Pixels) != data.Size() {
		return nil, fmt.Errorf("gldevice: texture data holds %d bytes, want %d", len(data.Pixels), data.Size())
	}

	levels := int32(1)
	if f.filterable && usage&resource.UsageStorage == 0 && data.Dim != ir.Dim3D {
		levels = mipLevels(data.Width, data.Height)
	}
	w, h, depth := int32(data.Width), int32(data.Height), int32(max(data.Depth, 1))
	target := textureTarget(data.Dim)
	pixels := bytesPtr(data.Pixels)

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(target, tex)
	switch data.Dim {
	case ir.Dim1D:
		gl.TexStorage1D(target, levels, f.internal, w)
		if pixels != nil {
			gl.TexSubImage1D(target, 0, 0, w, f.format, f.xtype, pixels)
		}
	case ir.Dim1DArray:
		gl.TexStorage2D(target, levels, f.internal, w, depth)
		if pixels != nil {
			gl.TexSubImage2D(target, 0, 0, 0, w, depth, f.format, f.xtype, pixels)
		}
	case ir.Dim2D:
		gl.TexStorage2D(target, levels, f.internal, w, h)
		if pixels != nil {
			gl.TexSubImage2D(target, 0, 0, 0, w, h, f.format, f.xtype, pixels)
		}
	case ir.DimCube:
		gl.TexStorage2D(target, levels, f.internal, w, h)
		if pixels != nil {
			face := data.Width * data.Height * data.Format.BytesPerTexel()
			for i := range 6 {
				gl.TexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, 0, 0, w, h, f.format, f.xtype, gl.Ptr(data.Pixels[i*face:]))
			}
		}
	default:
		gl.TexStorage3D(target, levels, f.internal, w, h, depth)
		if pixels != nil {
			gl.TexSubImage3D(target, 0, 0, 0, 0, w, h, depth, f.format, f.xtype, pixels)
		}
	}
	if levels > 1 && pixels != nil {
		gl.GenerateMipmap(target)
	}
	gl.BindTexture(target, 0)

	d.logger.Debug("gl texture uploaded", "texture", tex, "format", data.Format, "dim", data.Dim, "levels", levels)
	return tex, nil
}

func (d *device) ReleaseTexture(h resource.Handle) {
	tex := h.(uint32)
	gl.DeleteTextures(1, &tex)
}

func (d *device) UploadBuffer(data []byte) (resource.Handle, error) {
	if !d.caps.SupportsStorage() {
		return nil, fmt.Errorf("gldevice: storage buffers need GL 4.3, context is %d", d.caps.Version)
	}
	var b uint32
	gl.GenBuffers(1, &b)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(data), bytesPtr(data), gl.DYNAMIC_DRAW)
	return b, nil
}

func (d *device) UpdateBuffer(h resource.Handle, data []byte) (resource.Handle, error) {
	b := h.(uint32)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(data), bytesPtr(data), gl.DYNAMIC_DRAW)
	return b, nil
}

func (d *device) ReleaseBuffer(h resource.Handle) {
	b := h.(uint32)
	gl.DeleteBuffers(1, &b)
}
