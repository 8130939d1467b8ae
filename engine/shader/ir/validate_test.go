package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir/irtest"
)

func TestValidateAcceptsFixtures(t *testing.T) {
	for _, p := range []*ir.Program{irtest.Lit(), irtest.Scalars(), irtest.Blur()} {
		assert.NoError(t, ir.Validate(p), p.Name)
	}
}

func TestValidateMissingStage(t *testing.T) {
	p := irtest.Lit()
	p.Fragment = nil
	err := ir.Validate(p)
	require.ErrorIs(t, err, ir.ErrMissingStage)
	assert.Contains(t, err.Error(), "fragment")

	c := ir.NewComputeProgram("empty", 1, 1, 1)
	c.Compute = nil
	require.ErrorIs(t, ir.Validate(c), ir.ErrMissingStage)
}

func TestValidateDuplicateName(t *testing.T) {
	p := irtest.Lit()
	p.Sampler("tint", ir.Dim2D, ir.ScopePipeline)
	require.ErrorIs(t, ir.Validate(p), ir.ErrDuplicateName)
}

func TestValidateFunctionReferences(t *testing.T) {
	p := irtest.Lit()
	fn := p.Function("leak", ir.TypeFloat2)
	fn.Body.Return(p.Attributes[1].Ref())
	require.ErrorIs(t, ir.Validate(p), ir.ErrStageOnlyReference)

	q := irtest.Lit()
	fn = q.Function("coord", ir.TypeFloat4)
	fn.Body.Return(ir.Builtin(ir.BuiltinFragCoord))
	require.ErrorIs(t, ir.Validate(q), ir.ErrStageOnlyReference)
}

func TestValidateBuiltinStage(t *testing.T) {
	p := irtest.Lit()
	p.Vertex.Body.Eval(ir.Builtin(ir.BuiltinFrontFacing))
	require.ErrorIs(t, ir.Validate(p), ir.ErrInvalidBuiltin)
}

func TestValidateArity(t *testing.T) {
	p := irtest.Lit()
	p.Fragment.Body.Eval(ir.Call(ir.FnClamp, ir.Float(1)))
	require.ErrorIs(t, ir.Validate(p), ir.ErrArity)
}

func TestAttributePanicsOnMatrix(t *testing.T) {
	p := ir.NewProgram("bad")
	require.Panics(t, func() { p.Attribute("m", ir.TypeMat4) })
}
