package ir

import "fmt"

// OpKind discriminates statements. Code generators dispatch on it from a single switch.
type OpKind int

const (
	OpDeclare OpKind = iota
	OpDeclareArray
	OpAssign
	OpCompoundAssign
	OpIf
	OpFor
	OpWhile
	OpDoWhile
	OpBreak
	OpContinue
	OpDiscard
	OpReturn
	OpBlock
	OpImageStore
	OpExpr
)

var opKindNames = map[OpKind]string{
	OpDeclare:        "declare",
	OpDeclareArray:   "declare_array",
	OpAssign:         "assign",
	OpCompoundAssign: "compound_assign",
	OpIf:             "if",
	OpFor:            "for",
	OpWhile:          "while",
	OpDoWhile:        "do_while",
	OpBreak:          "break",
	OpContinue:       "continue",
	OpDiscard:        "discard",
	OpReturn:         "return",
	OpBlock:          "block",
	OpImageStore:     "image_store",
	OpExpr:           "expr",
}

func (k OpKind) String() string {
	if n, ok := opKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one IR statement.
type Op interface {
	Kind() OpKind
}

// Block is an ordered list of statements forming a lexical scope.
type Block struct {
	Ops []Op
}

type (
	// DeclareOp declares Local with an optional initializer.
	DeclareOp struct {
		Local *Local
		Init  Expr
	}
	// DeclareArrayOp declares a fixed-size local array.
	DeclareArrayOp struct {
		Local *Local
	}
	// AssignOp stores Value into Target.
	AssignOp struct {
		Target, Value Expr
	}
	// CompoundAssignOp performs Target = Target <Op> Value.
	CompoundAssignOp struct {
		Op            BinaryOp
		Target, Value Expr
	}
	// IfOp runs Then when Cond holds, otherwise Else (which may be empty).
	IfOp struct {
		Cond Expr
		Then *Block
		Else *Block
	}
	// ForOp iterates Var over [From, To) in steps of one.
	ForOp struct {
		Var      *Local
		From, To Expr
		Body     *Block
	}
	// WhileOp tests Cond before each iteration.
	WhileOp struct {
		Cond Expr
		Body *Block
	}
	// DoWhileOp tests Cond after each iteration.
	DoWhileOp struct {
		Cond Expr
		Body *Block
	}
	BreakOp    struct{}
	ContinueOp struct{}
	DiscardOp  struct{}
	// ReturnOp leaves the current function or stage, optionally with a value.
	ReturnOp struct {
		Value Expr
	}
	// BlockOp opens a nested scope.
	BlockOp struct {
		Body *Block
	}
	// ImageStoreOp writes Value to a storage image texel.
	ImageStoreOp struct {
		Storage      *Storage
		Coord, Value Expr
	}
	// ExprOp evaluates X for its side effects.
	ExprOp struct {
		X Expr
	}
)

func (*DeclareOp) Kind() OpKind        { return OpDeclare }
func (*DeclareArrayOp) Kind() OpKind   { return OpDeclareArray }
func (*AssignOp) Kind() OpKind         { return OpAssign }
func (*CompoundAssignOp) Kind() OpKind { return OpCompoundAssign }
func (*IfOp) Kind() OpKind             { return OpIf }
func (*ForOp) Kind() OpKind            { return OpFor }
func (*WhileOp) Kind() OpKind          { return OpWhile }
func (*DoWhileOp) Kind() OpKind        { return OpDoWhile }
func (*BreakOp) Kind() OpKind          { return OpBreak }
func (*ContinueOp) Kind() OpKind       { return OpContinue }
func (*DiscardOp) Kind() OpKind        { return OpDiscard }
func (*ReturnOp) Kind() OpKind         { return OpReturn }
func (*BlockOp) Kind() OpKind          { return OpBlock }
func (*ImageStoreOp) Kind() OpKind     { return OpImageStore }
func (*ExprOp) Kind() OpKind           { return OpExpr }

func (b *Block) add(op Op) {
	b.Ops = append(b.Ops, op)
}

// Declare declares a local of type t. init may be nil.
func (b *Block) Declare(name string, t Type, init Expr) *Local {
	l := &Local{Name: name, Type: t}
	b.add(&DeclareOp{Local: l, Init: init})
	return l
}

// Let declares a local typed after its initializer.
func (b *Block) Let(name string, init Expr) *Local {
	return b.Declare(name, init.Type(), init)
}

// DeclareArray declares a local array of n elements of t.
func (b *Block) DeclareArray(name string, t Type, n int) *Local {
	if n <= 0 {
		panic(fmt.Sprintf("ir: local array `%s` must have a positive length", name))
	}
	l := &Local{Name: name, Type: t, Len: n}
	b.add(&DeclareArrayOp{Local: l})
	return l
}

// Assign stores value into target.
func (b *Block) Assign(target, value Expr) {
	b.add(&AssignOp{Target: target, Value: value})
}

// CompoundAssign performs target = target op value.
func (b *Block) CompoundAssign(op BinaryOp, target, value Expr) {
	b.add(&CompoundAssignOp{Op: op, Target: target, Value: value})
}

// If appends a conditional and returns its then-branch.
func (b *Block) If(cond Expr) *Block {
	then, _ := b.IfElse(cond)
	return then
}

// IfElse appends a conditional and returns both branches.
func (b *Block) IfElse(cond Expr) (*Block, *Block) {
	op := &IfOp{Cond: cond, Then: &Block{}, Else: &Block{}}
	b.add(op)
	return op.Then, op.Else
}

// For appends a counted loop over [from, to) and returns the loop variable and body.
func (b *Block) For(name string, from, to Expr) (*Local, *Block) {
	op := &ForOp{Var: &Local{Name: name, Type: from.Type()}, From: from, To: to, Body: &Block{}}
	b.add(op)
	return op.Var, op.Body
}

// While appends a pre-tested loop.
func (b *Block) While(cond Expr) *Block {
	op := &WhileOp{Cond: cond, Body: &Block{}}
	b.add(op)
	return op.Body
}

// DoWhile appends a post-tested loop.
func (b *Block) DoWhile(cond Expr) *Block {
	op := &DoWhileOp{Cond: cond, Body: &Block{}}
	b.add(op)
	return op.Body
}

func (b *Block) Break()    { b.add(&BreakOp{}) }
func (b *Block) Continue() { b.add(&ContinueOp{}) }
func (b *Block) Discard()  { b.add(&DiscardOp{}) }

// Return leaves the enclosing function or stage. value may be nil.
func (b *Block) Return(value Expr) {
	b.add(&ReturnOp{Value: value})
}

// Scope appends a nested block and returns it.
func (b *Block) Scope() *Block {
	op := &BlockOp{Body: &Block{}}
	b.add(op)
	return op.Body
}

// ImageStore writes value into the storage image st.
func (b *Block) ImageStore(st *Storage, coord, value Expr) {
	b.add(&ImageStoreOp{Storage: st, Coord: coord, Value: value})
}

// Eval evaluates x as a statement.
func (b *Block) Eval(x Expr) {
	b.add(&ExprOp{X: x})
}
