package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/glsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

type unknownOp struct{}

func (unknownOp) Kind() ir.OpKind { return ir.OpKind(99) }

func TestGenerateUnhandledOp(t *testing.T) {
	p := irtest.Lit()
	p.Fragment.Body.Ops = append(p.Fragment.Body.Ops, unknownOp{})

	_, err := codegen.Generate(p, glsl.NewGenerator())
	require.ErrorIs(t, err, codegen.ErrUnhandledOp)
	assert.Contains(t, err.Error(), "OpKind(99)")
}

func TestGenerateValidatesFirst(t *testing.T) {
	p := irtest.Lit()
	p.Vertex = nil
	_, err := codegen.Generate(p, glsl.NewGenerator())
	require.ErrorIs(t, err, ir.ErrMissingStage)
}

func TestGenerateParenthesizesBinaries(t *testing.T) {
	p := ir.NewProgram("precedence")
	color := p.Output("color", ir.TypeFloat4)
	x := p.Fragment.Body.Let("x", ir.Mul(ir.Add(ir.Float(1), ir.Float(2)), ir.Float(3)))
	p.Fragment.Body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, x.Ref(), x.Ref(), x.Ref(), ir.Float(1)))

	src, err := codegen.Generate(p, glsl.NewGenerator())
	require.NoError(t, err)
	assert.Contains(t, src.Fragment, "float x = ((1.0 + 2.0) * 3.0);")
}

func TestGenerateEmitsReachableFunctionsInOrder(t *testing.T) {
	p := ir.NewProgram("helpers")
	color := p.Output("color", ir.TypeFloat4)
	outer := p.Function("outer", ir.TypeFloat, ir.P("v", ir.TypeFloat))
	inner := p.Function("inner", ir.TypeFloat, ir.P("v", ir.TypeFloat))
	vertexOnly := p.Function("vertex_only", ir.TypeFloat)
	outer.Body.Return(inner.Call(outer.Param(0)))
	inner.Body.Return(ir.Call(ir.FnSqrt, inner.Param(0)))
	vertexOnly.Body.Return(ir.Float(1))

	p.Vertex.Body.Assign(ir.Builtin(ir.BuiltinPosition), ir.Vec(ir.TypeFloat4, vertexOnly.Call(), ir.Float(0), ir.Float(0), ir.Float(1)))
	p.Fragment.Body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, outer.Call(ir.Float(4)), ir.Float(0), ir.Float(0), ir.Float(1)))

	src, err := codegen.Generate(p, glsl.NewGenerator())
	require.NoError(t, err)

	innerAt := strings.Index(src.Fragment, "float inner(float v) {")
	outerAt := strings.Index(src.Fragment, "float outer(float v) {")
	require.GreaterOrEqual(t, innerAt, 0)
	require.Greater(t, outerAt, innerAt)
	assert.NotContains(t, src.Fragment, "vertex_only")
	assert.Contains(t, src.Vertex, "float vertex_only() {")
	assert.NotContains(t, src.Vertex, "outer")
}

func TestGenerateControlFlow(t *testing.T) {
	p := ir.NewProgram("flow")
	color := p.Output("color", ir.TypeFloat4)
	body := p.Fragment.Body
	acc := body.Declare("acc", ir.TypeFloat, ir.Float(0))
	i, loop := body.For("i", ir.Int(0), ir.Int(4))
	then := loop.If(ir.Eq(i.Ref(), ir.Int(2)))
	then.Continue()
	loop.CompoundAssign(ir.OpAdd, acc.Ref(), ir.Cast(ir.TypeFloat, i.Ref()))
	dw := body.DoWhile(ir.Lt(acc.Ref(), ir.Float(10)))
	dw.Assign(acc.Ref(), ir.Mul(acc.Ref(), ir.Float(2)))
	kill := body.If(ir.Gt(acc.Ref(), ir.Float(100)))
	kill.Discard()
	body.Assign(color.Ref(), ir.Vec(ir.TypeFloat4, acc.Ref(), ir.Float(0), ir.Float(0), ir.Float(1)))

	src, err := codegen.Generate(p, glsl.NewGenerator())
	require.NoError(t, err)
	want := []string{
		"    float acc = 0.0;",
		"    for (int i = 0; i < 4; i++) {",
		"        if ((i == 2)) {",
		"            continue;",
		"        acc += float(i);",
		"    do {",
		"        acc = (acc * 2.0);",
		"    } while ((acc < 10.0));",
		"        discard;",
	}
	for _, line := range want {
		assert.Contains(t, src.Fragment, line+"\n")
	}
}
