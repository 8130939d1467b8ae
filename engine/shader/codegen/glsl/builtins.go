package glsl

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// builtinFunc renders one builtin. GLSL overloads every supported builtin for scalars and
// vectors natively, including mixed vector/scalar forms of min, max, clamp, mix and mod.
type builtinFunc func(args []codegen.Operand) string

func named(name string) builtinFunc {
	return func(args []codegen.Operand) string {
		return fmt.Sprintf("%s(%s)", name, join(args))
	}
}

var builtins = map[ir.BuiltinFunc]builtinFunc{
	ir.FnAbs:         named("abs"),
	ir.FnSign:        named("sign"),
	ir.FnFloor:       named("floor"),
	ir.FnCeil:        named("ceil"),
	ir.FnFract:       named("fract"),
	ir.FnSqrt:        named("sqrt"),
	ir.FnInverseSqrt: named("inversesqrt"),
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
	ir.FnAtan2:       named("atan"),
	ir.FnPow:         named("pow"),
	ir.FnMin:         named("min"),
	ir.FnMax:         named("max"),
	ir.FnClamp:       named("clamp"),
	ir.FnMix:         named("mix"),
	ir.FnStep:        named("step"),
	ir.FnSmoothstep:  named("smoothstep"),
	ir.FnMod:         named("mod"),
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
		return "", fmt.Errorf("glsl: builtin %s: %w", fn, codegen.ErrUnsupported)
	}
	if fn == ir.FnMod && args[0].Type.IsInteger() {
		return fmt.Sprintf("(%s %% %s)", args[0].Code, args[1].Code), nil
	}
	return render(args), nil
}
