package main

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/material"
	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

const (
	pipelineKey = "textured_grid"
	gridSize    = 4
)

// texturedGrid draws one textured quad per grid cell, each instance shifted by its cell offset
// and swayed by the frame time.
func texturedGrid() *ir.Program {
	p := ir.NewProgram("textured_grid")
	pos := p.Attribute(mesh.AttributePosition, ir.TypeFloat3)
	uv := p.Attribute(mesh.AttributeUV, ir.TypeFloat2)
	cell := p.InstanceAttribute("cell", ir.TypeFloat3)
	vUV := p.Varying("v_uv", ir.TypeFloat2)
	color := p.Output("color", ir.TypeFloat4)

	view := p.UniformBuffer("View", ir.ScopeView)
	uTime := view.Member("uTime", ir.TypeFloat)
	uScale := view.Member("uScale", ir.TypeFloat)

	mat := p.UniformBuffer("Material", ir.ScopePipeline)
	uColor := mat.Member(material.DefaultColorUniform, ir.TypeFloat4)
	tAlbedo := p.Sampler(material.DefaultDiffuseTexture, ir.Dim2D, ir.ScopePipeline)

	sway := ir.Mul(ir.Call(ir.FnSin, ir.Add(uTime.Ref(), ir.Swizzle(cell.Ref(), "x"))), ir.Float(0.05))
	world := ir.Mul(ir.Add(pos.Ref(), cell.Ref()), uScale.Ref())
	p.Vertex.Body.Assign(ir.Builtin(ir.BuiltinPosition), ir.Vec(ir.TypeFloat4,
		ir.Swizzle(world, "x"),
		ir.Add(ir.Swizzle(world, "y"), sway),
		ir.Float(0),
		ir.Float(1),
	))
	p.Vertex.Body.Assign(vUV.Ref(), uv.Ref())
	p.Fragment.Body.Assign(color.Ref(), ir.Mul(uColor.Ref(), ir.Sample(tAlbedo, vUV.Ref())))
	return p
}

// gridInstances returns gridSize*gridSize offsets centred on the origin.
func gridInstances() mesh.Mesh {
	offsets := make([]common.Vec3, 0, gridSize*gridSize)
	for y := range gridSize {
		for x := range gridSize {
			offsets = append(offsets, common.Vec3{
				float32(x) - float32(gridSize-1)/2,
				float32(y) - float32(gridSize-1)/2,
				0,
			})
		}
	}
	return mesh.NewMesh("grid",
		mesh.WithStream(false, 12, common.SliceToBytes(offsets)),
		mesh.WithAttribute("cell", ir.TypeFloat3, 0),
	)
}

// checker returns a size x size RGBA8 checkerboard with cells px texels wide.
func checker(size, px int) *resource.Data {
	d := &resource.Data{Width: size, Height: size, Depth: 1, Format: ir.FormatRGBA8}
	d.Pixels = make([]byte, 0, d.Size())
	for y := range size {
		for x := range size {
			v := byte(64)
			if (x/px+y/px)%2 == 0 {
				v = 255
			}
			d.Pixels = append(d.Pixels, v, v, v, 255)
		}
	}
	return d
}

// scene is everything one frame of the demo draws.
type scene struct {
	pipeline  pipeline.Pipeline
	state     pipeline.State
	material  material.Material
	quad      mesh.Mesh
	instances mesh.Mesh

	time  *binding.Binding[common.Float]
	scale *binding.Binding[common.Float]
}

// newScene builds the grid pipeline and its state. texture is a file path, or empty for the
// built-in checkerboard.
func newScene(texture string) (*scene, error) {
	quad := mesh.Quad("quad")
	instances := gridInstances()
	p, err := pipeline.NewPipeline(pipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithProgram(texturedGrid()),
		pipeline.WithMesh(quad, instances),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithBlendEnabled(true),
	)
	if err != nil {
		return nil, err
	}

	var tex *resource.Texture
	if texture != "" {
		tex = resource.NewTexture(texture, resource.FileLoader{Path: texture})
	} else {
		tex = resource.NewPrebufferedTexture("checker", checker(256, 32))
	}

	state := pipeline.NewState(p, pipeline.WithLabel("grid"))
	s := &scene{
		pipeline:  p,
		state:     state,
		quad:      quad,
		instances: instances,
		material: material.NewMaterial(state,
			material.WithName("grid"),
			material.WithBaseColor(common.Vec4{1, 0.9, 0.8, 1}),
			material.WithDiffuseTexture(tex),
		),
		time:  binding.NewUniform[common.Float](state, "uTime"),
		scale: binding.NewUniform[common.Float](state, "uScale"),
	}
	s.scale.Set(1.0 / gridSize)
	return s, nil
}

// update advances the animated uniforms to t seconds.
func (s *scene) update(t float64) {
	s.time.Set(common.Float(t))
	hue := float32(0.5 + 0.5*math.Sin(t))
	s.material.SetBaseColor(common.Vec4{1, hue, 1 - hue, 1})
}

func (s *scene) String() string {
	return fmt.Sprintf("%s (%d instances)", s.pipeline.PipelineKey(), s.instances.Count())
}

func (s *scene) release() {
	s.material.Release()
	s.state.Release()
}
