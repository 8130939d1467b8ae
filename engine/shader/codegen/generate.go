package codegen

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

var (
	// ErrUnhandledOp is returned for a statement kind the driver does not know.
	ErrUnhandledOp = errors.New("unhandled op kind")
	// ErrUnhandledExpr is returned for an expression type the driver does not know.
	ErrUnhandledExpr = errors.New("unhandled expression")
	// ErrUnsupported is returned by generators for IR the backend cannot express.
	ErrUnsupported = errors.New("unsupported by backend")
)

// Generate validates p and renders every stage with gen.
//
// Parameters:
//   - p: the program to generate
//   - gen: the backend generator
//
// Returns:
//   - *Sources: the per-stage source text
//   - error: a validation, ordering or generation failure
func Generate(p *ir.Program, gen Generator) (*Sources, error) {
	if err := ir.Validate(p); err != nil {
		return nil, err
	}
	usage := ir.Analyze(p)
	order, err := SortFunctions(p, usage)
	if err != nil {
		return nil, err
	}

	out := &Sources{}
	for _, s := range p.Stages() {
		w := &Writer{}
		gen.Header(w, p, s.Kind)
		if err := gen.Declarations(w, p, s.Kind, usage); err != nil {
			return nil, fmt.Errorf("codegen: %s %s declarations: %w", p.Name, s.Kind, err)
		}
		e := &emitter{gen: gen, w: w}
		for _, fn := range order {
			if !usage.Reaches(s.Kind, fn) {
				continue
			}
			w.Line("%s {", gen.FunctionSignature(fn))
			if err := w.Nested(func() error { return e.block(fn.Body) }); err != nil {
				return nil, fmt.Errorf("codegen: %s function %s: %w", p.Name, fn.Name, err)
			}
			w.Line("}")
			w.Blank()
		}
		gen.BeginStage(w, p, s)
		if err := w.Nested(func() error { return e.block(s.Body) }); err != nil {
			return nil, fmt.Errorf("codegen: %s %s stage: %w", p.Name, s.Kind, err)
		}
		gen.EndStage(w, p, s)
		out.set(s.Kind, w.String())
	}
	return out, nil
}

// emitter renders blocks and expressions for one stage source.
type emitter struct {
	gen Generator
	w   *Writer
}

func (e *emitter) block(b *ir.Block) error {
	if b == nil {
		return nil
	}
	for _, op := range b.Ops {
		if err := e.op(op); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) body(b *ir.Block) func() error {
	return func() error { return e.block(b) }
}

func (e *emitter) op(op ir.Op) error {
	switch op.Kind() {
	case ir.OpDeclare:
		o := op.(*ir.DeclareOp)
		var init *Operand
		if o.Init != nil {
			v, err := e.expr(o.Init)
			if err != nil {
				return err
			}
			init = &v
		}
		e.gen.DeclareVar(e.w, o.Local, init)
	case ir.OpDeclareArray:
		e.gen.DeclareArray(e.w, op.(*ir.DeclareArrayOp).Local)
	case ir.OpAssign:
		o := op.(*ir.AssignOp)
		target, err := e.target(o.Target)
		if err != nil {
			return err
		}
		value, err := e.expr(o.Value)
		if err != nil {
			return err
		}
		e.gen.Assign(e.w, target.Code, value)
	case ir.OpCompoundAssign:
		o := op.(*ir.CompoundAssignOp)
		target, err := e.target(o.Target)
		if err != nil {
			return err
		}
		value, err := e.expr(o.Value)
		if err != nil {
			return err
		}
		e.gen.CompoundAssign(e.w, o.Op, target, value)
	case ir.OpIf:
		o := op.(*ir.IfOp)
		cond, err := e.expr(o.Cond)
		if err != nil {
			return err
		}
		var els func() error
		if o.Else != nil && len(o.Else.Ops) > 0 {
			els = e.body(o.Else)
		}
		return e.gen.If(e.w, cond.Code, e.body(o.Then), els)
	case ir.OpFor:
		o := op.(*ir.ForOp)
		from, err := e.expr(o.From)
		if err != nil {
			return err
		}
		to, err := e.expr(o.To)
		if err != nil {
			return err
		}
		return e.gen.For(e.w, o.Var, from, to, e.body(o.Body))
	case ir.OpWhile:
		o := op.(*ir.WhileOp)
		cond, err := e.expr(o.Cond)
		if err != nil {
			return err
		}
		return e.gen.While(e.w, cond.Code, e.body(o.Body))
	case ir.OpDoWhile:
		o := op.(*ir.DoWhileOp)
		cond, err := e.expr(o.Cond)
		if err != nil {
			return err
		}
		return e.gen.DoWhile(e.w, cond.Code, e.body(o.Body))
	case ir.OpBreak:
		e.gen.Break(e.w)
	case ir.OpContinue:
		e.gen.Continue(e.w)
	case ir.OpDiscard:
		e.gen.Discard(e.w)
	case ir.OpReturn:
		o := op.(*ir.ReturnOp)
		var value *Operand
		if o.Value != nil {
			v, err := e.expr(o.Value)
			if err != nil {
				return err
			}
			value = &v
		}
		e.gen.Return(e.w, value)
	case ir.OpBlock:
		return e.gen.Block(e.w, e.body(op.(*ir.BlockOp).Body))
	case ir.OpImageStore:
		o := op.(*ir.ImageStoreOp)
		coord, err := e.expr(o.Coord)
		if err != nil {
			return err
		}
		value, err := e.expr(o.Value)
		if err != nil {
			return err
		}
		e.gen.ImageStore(e.w, o.Storage, coord, value)
	case ir.OpExpr:
		x, err := e.expr(op.(*ir.ExprOp).X)
		if err != nil {
			return err
		}
		e.gen.ExprStatement(e.w, x)
	default:
		return fmt.Errorf("%w: %v (%T)", ErrUnhandledOp, op.Kind(), op)
	}
	return nil
}

// target renders an assignment location.
func (e *emitter) target(x ir.Expr) (Operand, error) {
	return e.render(x, true)
}

func (e *emitter) expr(x ir.Expr) (Operand, error) {
	return e.render(x, false)
}

func (e *emitter) exprs(xs []ir.Expr) ([]Operand, error) {
	out := make([]Operand, len(xs))
	for i, x := range xs {
		v, err := e.expr(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *emitter) optional(x ir.Expr) (*Operand, error) {
	if x == nil {
		return nil, nil
	}
	v, err := e.expr(x)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (e *emitter) render(x ir.Expr, write bool) (Operand, error) {
	g := e.gen
	t := x.Type()
	done := func(code string) (Operand, error) { return Operand{Code: code, Type: t}, nil }

	switch v := x.(type) {
	case *ir.LiteralExpr:
		switch v.T {
		case ir.TypeFloat:
			return done(g.Float(v.Float))
		case ir.TypeInt:
			return done(g.Int(v.Int))
		case ir.TypeUint:
			return done(g.Uint(v.Uint))
		case ir.TypeBool:
			return done(g.Bool(v.Bool))
		}
		return Operand{}, fmt.Errorf("%w: literal of type %s", ErrUnhandledExpr, v.T)
	case *ir.ConstructExpr:
		args, err := e.exprs(v.Args)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Construct(v.T, args))
	case *ir.AttributeExpr:
		return done(g.Attribute(v.Attribute))
	case *ir.VaryingExpr:
		return done(g.Varying(v.Varying))
	case *ir.OutputExpr:
		return done(g.Output(v.Output))
	case *ir.UniformExpr:
		return done(g.Uniform(v.Uniform))
	case *ir.LocalExpr:
		return done(g.Local(v.Local))
	case *ir.BuiltinExpr:
		return done(g.BuiltinValue(v.Value))
	case *ir.IndexExpr:
		idx, err := e.expr(v.Index)
		if err != nil {
			return Operand{}, err
		}
		if u, ok := v.Base.(*ir.UniformExpr); ok && u.Uniform.Count > 0 {
			return done(g.UniformElement(u.Uniform, idx))
		}
		base, err := e.render(v.Base, write)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Index(base, idx, write))
	case *ir.SwizzleExpr:
		base, err := e.render(v.Base, write)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Swizzle(base, v.Components, write))
	case *ir.CastExpr:
		inner, err := e.expr(v.X)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Cast(v.To, inner))
	case *ir.BinaryExpr:
		l, err := e.expr(v.L)
		if err != nil {
			return Operand{}, err
		}
		r, err := e.expr(v.R)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Binary(v.Op, l, r))
	case *ir.UnaryExpr:
		inner, err := e.expr(v.X)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Unary(v.Op, inner))
	case *ir.SampleExpr:
		elem, err := e.optional(v.Element)
		if err != nil {
			return Operand{}, err
		}
		coord, err := e.expr(v.Coord)
		if err != nil {
			return Operand{}, err
		}
		lod, err := e.optional(v.Lod)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Sample(v.Sampler, elem, coord, lod))
	case *ir.SampleDepthExpr:
		elem, err := e.optional(v.Element)
		if err != nil {
			return Operand{}, err
		}
		coord, err := e.expr(v.Coord)
		if err != nil {
			return Operand{}, err
		}
		ref, err := e.expr(v.Ref)
		if err != nil {
			return Operand{}, err
		}
		return done(g.SampleDepth(v.Sampler, elem, coord, ref))
	case *ir.TexelFetchExpr:
		elem, err := e.optional(v.Element)
		if err != nil {
			return Operand{}, err
		}
		coord, err := e.expr(v.Coord)
		if err != nil {
			return Operand{}, err
		}
		lod, err := e.expr(v.Lod)
		if err != nil {
			return Operand{}, err
		}
		return done(g.TexelFetch(v.Sampler, elem, coord, lod))
	case *ir.TextureSizeExpr:
		elem, err := e.optional(v.Element)
		if err != nil {
			return Operand{}, err
		}
		lod, err := e.expr(v.Lod)
		if err != nil {
			return Operand{}, err
		}
		return done(g.TextureSize(v.Sampler, elem, lod))
	case *ir.ImageLoadExpr:
		coord, err := e.expr(v.Coord)
		if err != nil {
			return Operand{}, err
		}
		return done(g.ImageLoad(v.Storage, coord))
	case *ir.StorageElementExpr:
		idx, err := e.expr(v.Index)
		if err != nil {
			return Operand{}, err
		}
		return done(g.StorageElement(v.Storage, idx, write))
	case *ir.CallExpr:
		args, err := e.exprs(v.Args)
		if err != nil {
			return Operand{}, err
		}
		return done(g.Call(v.Function, args))
	case *ir.BuiltinCallExpr:
		args, err := e.exprs(v.Args)
		if err != nil {
			return Operand{}, err
		}
		code, err := g.Builtin(v.Func, args)
		if err != nil {
			return Operand{}, err
		}
		return done(code)
	}
	return Operand{}, fmt.Errorf("%w: %T", ErrUnhandledExpr, x)
}
