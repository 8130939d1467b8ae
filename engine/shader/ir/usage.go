package ir

// refs records the resources one block references directly.
type refs struct {
	buffers  map[*UniformBuffer]bool
	uniforms map[*Uniform]bool
	samplers map[*Sampler]bool
	storages map[*Storage]bool
	reads    map[*Storage]bool
	writes   map[*Storage]bool
	// calls lists direct callees in first-call order.
	calls []*Function
}

func newRefs() *refs {
	return &refs{
		buffers:  map[*UniformBuffer]bool{},
		uniforms: map[*Uniform]bool{},
		samplers: map[*Sampler]bool{},
		storages: map[*Storage]bool{},
		reads:    map[*Storage]bool{},
		writes:   map[*Storage]bool{},
	}
}

func collect(b *Block) *refs {
	r := newRefs()
	seen := map[*Function]bool{}
	WalkFuncs(b, func(op Op) {
		if st, ok := op.(*ImageStoreOp); ok {
			r.storages[st.Storage] = true
			r.writes[st.Storage] = true
		}
	}, func(e Expr, write bool) {
		switch x := e.(type) {
		case *UniformExpr:
			r.uniforms[x.Uniform] = true
			r.buffers[x.Uniform.Buffer] = true
		case *SampleExpr:
			r.samplers[x.Sampler] = true
		case *SampleDepthExpr:
			r.samplers[x.Sampler] = true
		case *TexelFetchExpr:
			r.samplers[x.Sampler] = true
		case *TextureSizeExpr:
			r.samplers[x.Sampler] = true
		case *ImageLoadExpr:
			r.storages[x.Storage] = true
			r.reads[x.Storage] = true
		case *StorageElementExpr:
			r.storages[x.Storage] = true
			if write {
				r.writes[x.Storage] = true
			} else {
				r.reads[x.Storage] = true
			}
		case *CallExpr:
			if !seen[x.Function] {
				seen[x.Function] = true
				r.calls = append(r.calls, x.Function)
			}
		}
	})
	return r
}

func (r *refs) merge(o *refs) {
	for k := range o.buffers {
		r.buffers[k] = true
	}
	for k := range o.uniforms {
		r.uniforms[k] = true
	}
	for k := range o.samplers {
		r.samplers[k] = true
	}
	for k := range o.storages {
		r.storages[k] = true
	}
	for k := range o.reads {
		r.reads[k] = true
	}
	for k := range o.writes {
		r.writes[k] = true
	}
}

// Usage is the result of analysing which stages reference which resources.
// References made inside user functions count for every stage that reaches them.
type Usage struct {
	direct    map[*Function]*refs
	stage     map[StageKind]*refs
	reachable map[StageKind]map[*Function]bool
	all       *refs
}

// Analyze computes resource usage for every stage of p.
//
// Parameters:
//   - p: the program to analyse
//
// Returns:
//   - *Usage: the per-stage usage tables
func Analyze(p *Program) *Usage {
	u := &Usage{
		direct:    map[*Function]*refs{},
		stage:     map[StageKind]*refs{},
		reachable: map[StageKind]map[*Function]bool{},
		all:       newRefs(),
	}
	for _, fn := range p.Functions {
		u.direct[fn] = collect(fn.Body)
	}
	for _, s := range p.Stages() {
		r := collect(s.Body)
		reached := map[*Function]bool{}
		var visit func(calls []*Function)
		visit = func(calls []*Function) {
			for _, fn := range calls {
				if reached[fn] {
					continue
				}
				reached[fn] = true
				d, ok := u.direct[fn]
				if !ok {
					// Callee not registered on the program; analyse it on demand.
					d = collect(fn.Body)
					u.direct[fn] = d
				}
				r.merge(d)
				visit(d.calls)
			}
		}
		visit(r.calls)
		u.stage[s.Kind] = r
		u.reachable[s.Kind] = reached
		u.all.merge(r)
	}
	return u
}

// Callees returns the direct callees of fn in first-call order.
func (u *Usage) Callees(fn *Function) []*Function {
	if d, ok := u.direct[fn]; ok {
		return d.calls
	}
	return collect(fn.Body).calls
}

// Reaches reports whether stage k calls fn directly or transitively.
func (u *Usage) Reaches(k StageKind, fn *Function) bool {
	return u.reachable[k][fn]
}

func (u *Usage) stagesWhere(pred func(r *refs) bool) StageSet {
	var set StageSet
	for k, r := range u.stage {
		if pred(r) {
			set = set.Add(k)
		}
	}
	return set
}

// BufferStages returns the stages that reference any member of b.
func (u *Usage) BufferStages(b *UniformBuffer) StageSet {
	return u.stagesWhere(func(r *refs) bool { return r.buffers[b] })
}

// UniformStages returns the stages that reference x.
func (u *Usage) UniformStages(x *Uniform) StageSet {
	return u.stagesWhere(func(r *refs) bool { return r.uniforms[x] })
}

// SamplerStages returns the stages that sample s.
func (u *Usage) SamplerStages(s *Sampler) StageSet {
	return u.stagesWhere(func(r *refs) bool { return r.samplers[s] })
}

// StorageStages returns the stages that touch st.
func (u *Usage) StorageStages(st *Storage) StageSet {
	return u.stagesWhere(func(r *refs) bool { return r.storages[st] })
}

// StorageAccess derives the access mode of st from every read and write in the program.
// A storage resource that is never referenced is read-only.
func (u *Usage) StorageAccess(st *Storage) Access {
	read, written := u.all.reads[st], u.all.writes[st]
	switch {
	case read && written:
		return AccessReadWrite
	case written:
		return AccessWriteOnly
	}
	return AccessReadOnly
}
