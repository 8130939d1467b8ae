package layout

import (
	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// Build derives the bind group layouts of p for every scope. The result depends only on p
// and the options, so calling Build twice yields Equal layouts.
//
// Binding indices are assigned per group in declaration order: uniform buffers first,
// then textures, then storage resources.
//
// Parameters:
//   - p: the program
//   - opts: a variadic list of BuilderOption functions
//
// Returns:
//   - *Layouts: one layout per scope (empty scopes yield empty layouts)
//   - error: wraps ir.ErrMissingStage or another validation failure
func Build(p *ir.Program, opts ...BuilderOption) (*Layouts, error) {
	b := &builder{caps: DefaultCapabilities()}
	for _, opt := range opts {
		opt(b)
	}
	if err := ir.Validate(p); err != nil {
		return nil, err
	}
	usage := ir.Analyze(p)

	out := &Layouts{}
	for _, scope := range ir.Scopes {
		out.Groups[scope] = b.group(p, usage, scope)
	}
	return out, nil
}

func (b *builder) group(p *ir.Program, usage *ir.Usage, scope ir.Scope) *BindGroupLayout {
	g := &BindGroupLayout{Scope: scope, Entries: []Entry{}}
	next := func() int { return len(g.Entries) }

	for _, ub := range p.UniformBuffers {
		if ub.Scope != scope || len(ub.Members) == 0 {
			continue
		}
		members, size := std140(ub.Members)
		g.Entries = append(g.Entries, Entry{
			Binding:       next(),
			Kind:          EntryUniformBuffer,
			Name:          ub.Name,
			Stages:        usage.BufferStages(ub),
			Members:       members,
			Size:          size,
			PlainUniforms: !b.caps.UniformBuffers,
		})
	}
	for _, s := range p.Samplers {
		if s.Scope != scope {
			continue
		}
		g.Entries = append(g.Entries, Entry{
			Binding: next(),
			Kind:    EntryTexture,
			Name:    s.Name,
			Stages:  usage.SamplerStages(s),
			Dim:     s.Dim,
			Count:   max(s.ArrayLen, 1),
			Depth:   s.Depth,
		})
	}
	for _, st := range p.Storages {
		if st.Scope != scope {
			continue
		}
		g.Entries = append(g.Entries, Entry{
			Binding:     next(),
			Kind:        EntryStorage,
			Name:        st.Name,
			Stages:      usage.StorageStages(st),
			Dim:         st.Dim,
			Count:       1,
			StorageKind: st.Kind,
			Format:      st.Format,
			Access:      usage.StorageAccess(st),
			Elem:        st.Elem,
		})
	}
	return g
}

// std140 places members with std140 rules and returns them with the padded block size.
func std140(uniforms []*ir.Uniform) ([]Member, int) {
	members := make([]Member, 0, len(uniforms))
	offset := 0
	for _, u := range uniforms {
		m := Member{Name: u.Name, Type: u.Type, Count: u.Count}
		align := u.Type.Std140Align()
		size := u.Type.Std140Size()
		if u.Count > 0 {
			align = 16
			m.ArrayStride = u.Type.Std140ArrayStride()
			size = m.ArrayStride * u.Count
		}
		if u.Type.IsMatrix() {
			m.ColumnStride = 16
		}
		offset = common.AlignUp(offset, align)
		m.Offset = offset
		offset += size
		members = append(members, m)
	}
	return members, common.AlignUp(offset, 16)
}
