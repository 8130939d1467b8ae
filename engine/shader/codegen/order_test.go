package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

func names(fns []*ir.Function) []string {
	out := make([]string, len(fns))
	for i, fn := range fns {
		out[i] = fn.Name
	}
	return out
}

func TestSortFunctionsCalleesFirst(t *testing.T) {
	p := ir.NewProgram("order")
	// Declared caller-first on purpose.
	shade := p.Function("shade", ir.TypeFloat, ir.P("x", ir.TypeFloat))
	square := p.Function("square", ir.TypeFloat, ir.P("x", ir.TypeFloat))
	unused := p.Function("unused", ir.TypeFloat)
	shade.Body.Return(ir.Add(square.Call(shade.Param(0)), ir.Float(1)))
	square.Body.Return(ir.Mul(square.Param(0), square.Param(0)))
	unused.Body.Return(ir.Float(0))

	order, err := codegen.SortFunctions(p, ir.Analyze(p))
	require.NoError(t, err)
	assert.Equal(t, []string{"square", "shade", "unused"}, names(order))
}

func TestSortFunctionsCycle(t *testing.T) {
	p := ir.NewProgram("cycle")
	a := p.Function("a", ir.TypeFloat)
	b := p.Function("b", ir.TypeFloat)
	a.Body.Return(b.Call())
	b.Body.Return(a.Call())

	_, err := codegen.SortFunctions(p, ir.Analyze(p))
	require.ErrorIs(t, err, codegen.ErrCircularDependency)
	assert.Contains(t, err.Error(), "a -> b -> a")
}
