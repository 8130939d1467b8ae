package wgsl

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// builtinFunc renders one builtin.
type builtinFunc func(args []codegen.Operand) string

func named(name string) builtinFunc {
	return func(args []codegen.Operand) string {
		return fmt.Sprintf("%s(%s)", name, join(args))
	}
}

// splat renders name with every scalar argument widened to the widest vector argument.
// WGSL, unlike GLSL, has no mixed vector/scalar overloads for these functions.
func splat(name string) builtinFunc {
	return func(args []codegen.Operand) string {
		return fmt.Sprintf("%s(%s)", name, join(widen(args)))
	}
}

func widen(args []codegen.Operand) []codegen.Operand {
	width := 1
	for _, a := range args {
		width = max(width, a.Type.Rows())
	}
	if width == 1 {
		return args
	}
	out := make([]codegen.Operand, len(args))
	for i, a := range args {
		if a.Type.IsScalar() {
			t := ir.VectorOf(a.Type.Scalar(), width)
			a = codegen.Operand{Code: fmt.Sprintf("%s(%s)", TypeName(t), a.Code), Type: t}
		}
		out[i] = a
	}
	return out
}

func mod(args []codegen.Operand) string {
	args = widen(args)
	l, r := args[0], args[1]
	if l.Type.IsInteger() {
		return fmt.Sprintf("(%s %% %s)", l.Code, r.Code)
	}
	return fmt.Sprintf("(%s - (%s * floor((%s / %s))))", l.Code, r.Code, l.Code, r.Code)
}

var builtins = map[ir.BuiltinFunc]builtinFunc{
	ir.FnAbs:         named("abs"),
	ir.FnSign:        named("sign"),
	ir.FnFloor:       named("floor"),
	ir.FnCeil:        named("ceil"),
	ir.FnFract:       named("fract"),
	ir.FnSqrt:        named("sqrt"),
	ir.FnInverseSqrt: named("inverseSqrt"),
	ir.FnExp:         named("exp"),
	ir.FnExp2:        named("exp2"),
	ir.FnLog:         named("log"),
	ir.FnLog2:        named("log2"),
	ir.FnSin:         named("sin"),
	ir.FnCos:         named("cos"),
	ir.FnTan:         named("tan"),
	ir.FnAsin:        named("asin"),
	ir.FnAcos:        named("acos"),
	ir.FnAtan:        named("atan"),
	ir.FnAtan2:       named("atan2"),
	ir.FnPow:         splat("pow"),
	ir.FnMin:         splat("min"),
	ir.FnMax:         splat("max"),
	ir.FnClamp:       splat("clamp"),
	ir.FnMix:         splat("mix"),
	ir.FnStep:        splat("step"),
	ir.FnSmoothstep:  splat("smoothstep"),
	ir.FnMod:         mod,
	ir.FnLength:      named("length"),
	ir.FnDistance:    named("distance"),
	ir.FnDot:         named("dot"),
	ir.FnCross:       named("cross"),
	ir.FnNormalize:   named("normalize"),
	ir.FnReflect:     named("reflect"),
}

func (g *generator) Builtin(fn ir.BuiltinFunc, args []codegen.Operand) (string, error) {
	render, ok := builtins[fn]
	if !ok {
		return "", fmt.Errorf("wgsl: builtin %s: %w", fn, codegen.ErrUnsupported)
	}
	return render(args), nil
}
