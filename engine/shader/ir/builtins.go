package ir

import "fmt"

// BuiltinFunc is a builtin math function.
type BuiltinFunc int

const (
	FnAbs BuiltinFunc = iota
	FnSign
	FnFloor
	FnCeil
	FnFract
	FnSqrt
	FnInverseSqrt
	FnExp
	FnExp2
	FnLog
	FnLog2
	FnSin
	FnCos
	FnTan
	FnAsin
	FnAcos
	FnAtan
	FnAtan2
	FnPow
	FnMin
	FnMax
	FnClamp
	FnMix
	FnStep
	FnSmoothstep
	FnMod
	FnLength
	FnDistance
	FnDot
	FnCross
	FnNormalize
	FnReflect
)

type builtinInfo struct {
	name  string
	arity int
	// scalarResult is set for reductions that always return a single component.
	scalarResult bool
}

var builtinTable = map[BuiltinFunc]builtinInfo{
	FnAbs:         {"abs", 1, false},
	FnSign:        {"sign", 1, false},
	FnFloor:       {"floor", 1, false},
	FnCeil:        {"ceil", 1, false},
	FnFract:       {"fract", 1, false},
	FnSqrt:        {"sqrt", 1, false},
	FnInverseSqrt: {"inverseSqrt", 1, false},
	FnExp:         {"exp", 1, false},
	FnExp2:        {"exp2", 1, false},
	FnLog:         {"log", 1, false},
	FnLog2:        {"log2", 1, false},
	FnSin:         {"sin", 1, false},
	FnCos:         {"cos", 1, false},
	FnTan:         {"tan", 1, false},
	FnAsin:        {"asin", 1, false},
	FnAcos:        {"acos", 1, false},
	FnAtan:        {"atan", 1, false},
	FnAtan2:       {"atan2", 2, false},
	FnPow:         {"pow", 2, false},
	FnMin:         {"min", 2, false},
	FnMax:         {"max", 2, false},
	FnClamp:       {"clamp", 3, false},
	FnMix:         {"mix", 3, false},
	FnStep:        {"step", 2, false},
	FnSmoothstep:  {"smoothstep", 3, false},
	FnMod:         {"mod", 2, false},
	FnLength:      {"length", 1, true},
	FnDistance:    {"distance", 2, true},
	FnDot:         {"dot", 2, true},
	FnCross:       {"cross", 2, false},
	FnNormalize:   {"normalize", 1, false},
	FnReflect:     {"reflect", 2, false},
}

func (f BuiltinFunc) String() string {
	if info, ok := builtinTable[f]; ok {
		return info.name
	}
	return fmt.Sprintf("BuiltinFunc(%d)", int(f))
}

// Arity returns the number of arguments f takes, or -1 for an unknown function.
func (f BuiltinFunc) Arity() int {
	if info, ok := builtinTable[f]; ok {
		return info.arity
	}
	return -1
}

// ResultType returns the type of f applied to args. Component-wise functions take the
// widest argument type so that mixed vector/scalar calls yield the vector type.
func (f BuiltinFunc) ResultType(args []Expr) Type {
	if len(args) == 0 {
		return TypeVoid
	}
	widest := args[0].Type()
	for _, a := range args[1:] {
		if t := a.Type(); t.Components() > widest.Components() {
			widest = t
		}
	}
	if info, ok := builtinTable[f]; ok && info.scalarResult {
		return widest.Component()
	}
	if f == FnStep {
		// step(edge, x) follows x.
		return args[len(args)-1].Type()
	}
	return widest
}
