// Package resource manages GPU-resident textures and storage buffers: decoding through
// loaders, asynchronous loading on a worker pool, and a per-context residency cache that
// shares one backend object between every user of the same decoded data.
package resource

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// Data is decoded texel data ready for upload.
type Data struct {
	Width, Height int
	// Depth is the number of layers, slices or cube faces, 1 for flat textures.
	Depth  int
	// Dim is the texture shape; the zero value is a plain 2D texture.
	Dim    ir.Dimension
	Format ir.Format
	Pixels []byte
}

// Size returns the expected byte length of Pixels.
func (d *Data) Size() int {
	return d.Width * d.Height * max(d.Depth, 1) * d.Format.BytesPerTexel()
}

// Loader produces decoded texture data. Load may be called from a worker goroutine.
type Loader interface {
	// Load decodes the texture.
	//
	// Returns:
	//   - *Data: the decoded data
	//   - error: a read or decode failure
	Load() (*Data, error)
}

// Keyer is implemented by loaders whose output can be shared between textures. Textures
// whose loaders report equal keys share one resident backend object per context.
type Keyer interface {
	Key() any
}

// FileLoader decodes an image file. PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
type FileLoader struct {
	Path string
}

var _ Loader = FileLoader{}
var _ Keyer = FileLoader{}

func (l FileLoader) Load() (*Data, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", l.Path, err)
	}
	d, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("resource: decode %s: %w", l.Path, err)
	}
	return d, nil
}

func (l FileLoader) Key() any { return "file:" + l.Path }

// BytesLoader decodes an encoded image held in memory.
type BytesLoader struct {
	Bytes []byte
}

var _ Loader = BytesLoader{}

func (l BytesLoader) Load() (*Data, error) {
	d, err := decode(l.Bytes)
	if err != nil {
		return nil, fmt.Errorf("resource: decode image bytes: %w", err)
	}
	return d, nil
}

// DataLoader returns already decoded data.
type DataLoader struct {
	Data *Data
}

var _ Loader = DataLoader{}
var _ Keyer = DataLoader{}

func (l DataLoader) Load() (*Data, error) {
	if l.Data == nil {
		return nil, fmt.Errorf("resource: data loader has no data")
	}
	return l.Data, nil
}

func (l DataLoader) Key() any { return l.Data }

// decode converts any registered image format into tightly packed RGBA8.
func decode(raw []byte) (*Data, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Data{
		Width:  b.Dx(),
		Height: b.Dy(),
		Depth:  1,
		Format: ir.FormatRGBA8,
		Pixels: rgba.Pix,
	}, nil
}
