package wgsl

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// Entry point names used by the WebGPU pipeline descriptors.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
	ComputeEntryPoint  = "cs_main"
)

func (g *generator) Header(w *codegen.Writer, p *ir.Program, stage ir.StageKind) {
	g.stage = stage
	g.inEntry = false
	g.swizzles = map[string]swizzleTarget{}
	g.temps = 0
	w.Line("// %s: %s stage", p.Name, stage)
	w.Blank()
}

// entry finds the layout entry of a named resource, failing when the layouts were built
// for a different program.
func (g *generator) entry(scope ir.Scope, name string) (*layout.Entry, error) {
	e := g.layouts.Group(scope).Lookup(name)
	if e == nil {
		return nil, fmt.Errorf("wgsl: resource `%s` missing from %s layout", name, scope)
	}
	return e, nil
}

func (g *generator) Declarations(w *codegen.Writer, p *ir.Program, stage ir.StageKind, usage *ir.Usage) error {
	if p.Kind == ir.ProgramRender {
		g.stageStructs(w, p)
	}

	for _, b := range p.UniformBuffers {
		if len(b.Members) == 0 || !usage.BufferStages(b).Has(stage) {
			continue
		}
		e, err := g.entry(b.Scope, b.Name)
		if err != nil {
			return err
		}
		slot, _ := e.WGPUSlots()
		w.Line("struct %s {", b.Name)
		w.Indent()
		for _, m := range b.Members {
			w.Line("%s: %s,", m.Name, uniformStorageType(m))
		}
		w.Dedent()
		w.Line("};")
		w.Line("@group(%d) @binding(%d) var<uniform> %s: %s;", int(b.Scope), slot, instanceName(b), b.Name)
		w.Blank()
	}

	for _, s := range p.Samplers {
		if !usage.SamplerStages(s).Has(stage) {
			continue
		}
		if s.ArrayLen > 0 {
			return fmt.Errorf("sampler array `%s`: %w", s.Name, codegen.ErrUnsupported)
		}
		dim, ok := textureDims[s.Dim]
		if !ok {
			return fmt.Errorf("sampler `%s` dimension %s: %w", s.Name, s.Dim, codegen.ErrUnsupported)
		}
		e, err := g.entry(s.Scope, s.Name)
		if err != nil {
			return err
		}
		texSlot, samplerSlot := e.WGPUSlots()
		if s.Depth {
			w.Line("@group(%d) @binding(%d) var %s: texture_depth_%s;", int(s.Scope), texSlot, s.Name, dim)
			w.Line("@group(%d) @binding(%d) var %s_sampler: sampler_comparison;", int(s.Scope), samplerSlot, s.Name)
			continue
		}
		w.Line("@group(%d) @binding(%d) var %s: texture_%s<f32>;", int(s.Scope), texSlot, s.Name, dim)
		w.Line("@group(%d) @binding(%d) var %s_sampler: sampler;", int(s.Scope), samplerSlot, s.Name)
	}

	for _, st := range p.Storages {
		if !usage.StorageStages(st).Has(stage) {
			continue
		}
		e, err := g.entry(st.Scope, st.Name)
		if err != nil {
			return err
		}
		slot, _ := e.WGPUSlots()
		switch st.Kind {
		case ir.StorageImage:
			format, ok := texelFormats[st.Format]
			if !ok {
				return fmt.Errorf("storage image `%s` format %s: %w", st.Name, st.Format, codegen.ErrUnsupported)
			}
			dim, ok := textureDims[st.Dim]
			if !ok || st.Dim == ir.DimCube || st.Dim == ir.DimCubeArray {
				return fmt.Errorf("storage image `%s` dimension %s: %w", st.Name, st.Dim, codegen.ErrUnsupported)
			}
			w.Line("@group(%d) @binding(%d) var %s: texture_storage_%s<%s, %s>;", int(st.Scope), slot, st.Name, dim, format, textureAccess(e.Access))
		case ir.StorageBuffer:
			access := "read_write"
			if e.Access == ir.AccessReadOnly {
				access = "read"
			}
			w.Line("@group(%d) @binding(%d) var<storage, %s> %s: array<%s>;", int(st.Scope), slot, access, st.Name, TypeName(st.Elem))
		}
	}
	w.Blank()
	return nil
}

func textureAccess(a ir.Access) string {
	switch a {
	case ir.AccessReadOnly:
		return "read"
	case ir.AccessWriteOnly:
		return "write"
	}
	return "read_write"
}

// stageStructs declares the interface structs shared by the vertex and fragment entry points.
func (g *generator) stageStructs(w *codegen.Writer, p *ir.Program) {
	if g.stage == ir.StageVertex {
		w.Line("struct VertexInput {")
		w.Indent()
		for _, a := range p.Attributes {
			w.Line("@location(%d) %s: %s,", a.Location, a.Name, TypeName(a.Type))
		}
		w.Line("@builtin(vertex_index) vertex_index: u32,")
		w.Line("@builtin(instance_index) instance_index: u32,")
		w.Dedent()
		w.Line("};")
		w.Blank()
	}

	w.Line("struct VertexOutput {")
	w.Indent()
	w.Line("@builtin(position) position: vec4<f32>,")
	for _, v := range p.Varyings {
		interp := ""
		if v.Flat || v.Type.IsInteger() {
			interp = " @interpolate(flat)"
		}
		w.Line("@location(%d)%s %s: %s,", v.Location, interp, v.Name, TypeName(v.Type))
	}
	w.Dedent()
	w.Line("};")
	w.Blank()

	if g.stage == ir.StageFragment && len(p.Outputs) > 0 {
		w.Line("struct FragmentOutput {")
		w.Indent()
		for _, o := range p.Outputs {
			w.Line("@location(%d) %s: %s,", o.Location, o.Name, TypeName(o.Type))
		}
		w.Dedent()
		w.Line("};")
		w.Blank()
	}
}

func (g *generator) BeginStage(w *codegen.Writer, p *ir.Program, s *ir.Stage) {
	g.inEntry = true
	switch s.Kind {
	case ir.StageVertex:
		g.hasOutput = true
		w.Line("@vertex")
		w.Line("fn %s(input: VertexInput) -> VertexOutput {", VertexEntryPoint)
		w.Indent()
		w.Line("var output: VertexOutput;")
		w.Dedent()
	case ir.StageFragment:
		g.hasOutput = len(p.Outputs) > 0
		w.Line("@fragment")
		if g.hasOutput {
			w.Line("fn %s(input: VertexOutput, @builtin(front_facing) front_facing: bool) -> FragmentOutput {", FragmentEntryPoint)
			w.Indent()
			w.Line("var output: FragmentOutput;")
			w.Dedent()
		} else {
			w.Line("fn %s(input: VertexOutput, @builtin(front_facing) front_facing: bool) {", FragmentEntryPoint)
		}
	case ir.StageCompute:
		g.hasOutput = false
		ws := s.WorkgroupSize
		w.Line("@compute @workgroup_size(%d, %d, %d)", max(ws[0], 1), max(ws[1], 1), max(ws[2], 1))
		w.Line("fn %s(@builtin(global_invocation_id) global_id: vec3<u32>) {", ComputeEntryPoint)
	}
}

func (g *generator) EndStage(w *codegen.Writer, _ *ir.Program, _ *ir.Stage) {
	if g.hasOutput {
		w.Indent()
		w.Line("return output;")
		w.Dedent()
	}
	w.Line("}")
	g.inEntry = false
}
