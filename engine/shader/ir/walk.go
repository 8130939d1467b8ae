package ir

// Visitor receives every statement and expression reachable from a block.
type Visitor interface {
	// VisitOp is called for each statement before its children.
	VisitOp(op Op)
	// VisitExpr is called for each expression. write is set for the expressions that form
	// the storage location of an assignment; index operands inside a target are reads.
	VisitExpr(e Expr, write bool)
}

// Walk traverses b depth-first in program order. Calls are not followed into callee bodies.
//
// Parameters:
//   - b: the block to traverse, may be nil
//   - v: the visitor
func Walk(b *Block, v Visitor) {
	if b == nil {
		return
	}
	for _, op := range b.Ops {
		walkOp(op, v)
	}
}

func walkOp(op Op, v Visitor) {
	v.VisitOp(op)
	switch o := op.(type) {
	case *DeclareOp:
		walkExpr(o.Init, v)
	case *AssignOp:
		walkTarget(o.Target, v)
		walkExpr(o.Value, v)
	case *CompoundAssignOp:
		walkExpr(o.Target, v)
		walkTarget(o.Target, v)
		walkExpr(o.Value, v)
	case *IfOp:
		walkExpr(o.Cond, v)
		Walk(o.Then, v)
		Walk(o.Else, v)
	case *ForOp:
		walkExpr(o.From, v)
		walkExpr(o.To, v)
		Walk(o.Body, v)
	case *WhileOp:
		walkExpr(o.Cond, v)
		Walk(o.Body, v)
	case *DoWhileOp:
		Walk(o.Body, v)
		walkExpr(o.Cond, v)
	case *ReturnOp:
		walkExpr(o.Value, v)
	case *BlockOp:
		Walk(o.Body, v)
	case *ImageStoreOp:
		walkExpr(o.Coord, v)
		walkExpr(o.Value, v)
	case *ExprOp:
		walkExpr(o.X, v)
	}
}

// walkTarget visits the location chain of an assignment target as writes.
func walkTarget(e Expr, v Visitor) {
	v.VisitExpr(e, true)
	switch x := e.(type) {
	case *IndexExpr:
		walkTarget(x.Base, v)
		walkExpr(x.Index, v)
	case *SwizzleExpr:
		walkTarget(x.Base, v)
	case *StorageElementExpr:
		walkExpr(x.Index, v)
	}
}

func walkExpr(e Expr, v Visitor) {
	if e == nil {
		return
	}
	v.VisitExpr(e, false)
	switch x := e.(type) {
	case *ConstructExpr:
		walkExprs(x.Args, v)
	case *IndexExpr:
		walkExpr(x.Base, v)
		walkExpr(x.Index, v)
	case *SwizzleExpr:
		walkExpr(x.Base, v)
	case *CastExpr:
		walkExpr(x.X, v)
	case *BinaryExpr:
		walkExpr(x.L, v)
		walkExpr(x.R, v)
	case *UnaryExpr:
		walkExpr(x.X, v)
	case *SampleExpr:
		walkExpr(x.Element, v)
		walkExpr(x.Coord, v)
		walkExpr(x.Lod, v)
	case *SampleDepthExpr:
		walkExpr(x.Element, v)
		walkExpr(x.Coord, v)
		walkExpr(x.Ref, v)
	case *TexelFetchExpr:
		walkExpr(x.Element, v)
		walkExpr(x.Coord, v)
		walkExpr(x.Lod, v)
	case *TextureSizeExpr:
		walkExpr(x.Element, v)
		walkExpr(x.Lod, v)
	case *ImageLoadExpr:
		walkExpr(x.Coord, v)
	case *StorageElementExpr:
		walkExpr(x.Index, v)
	case *CallExpr:
		walkExprs(x.Args, v)
	case *BuiltinCallExpr:
		walkExprs(x.Args, v)
	}
}

func walkExprs(es []Expr, v Visitor) {
	for _, e := range es {
		walkExpr(e, v)
	}
}

// visitorFuncs adapts plain functions to Visitor.
type visitorFuncs struct {
	op   func(Op)
	expr func(Expr, bool)
}

func (f visitorFuncs) VisitOp(op Op) {
	if f.op != nil {
		f.op(op)
	}
}

func (f visitorFuncs) VisitExpr(e Expr, write bool) {
	if f.expr != nil {
		f.expr(e, write)
	}
}

// WalkFuncs is Walk for callers that only need closures.
func WalkFuncs(b *Block, onOp func(Op), onExpr func(e Expr, write bool)) {
	Walk(b, visitorFuncs{op: onOp, expr: onExpr})
}
