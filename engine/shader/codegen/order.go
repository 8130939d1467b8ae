package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// ErrCircularDependency is returned when user functions call each other in a cycle.
var ErrCircularDependency = errors.New("circular function dependency")

// SortFunctions orders the program's user functions so each appears after all of its
// callees. Functions keep declaration order wherever the call graph allows it.
//
// Parameters:
//   - p: the program whose functions are sorted
//   - usage: the program's usage tables, used for call edges
//
// Returns:
//   - []*ir.Function: callee-first order containing every declared and called function
//   - error: wraps ErrCircularDependency naming the cycle
func SortFunctions(p *ir.Program, usage *ir.Usage) ([]*ir.Function, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[*ir.Function]int{}
	var order []*ir.Function
	var path []*ir.Function

	var visit func(fn *ir.Function) error
	visit = func(fn *ir.Function) error {
		switch state[fn] {
		case done:
			return nil
		case visiting:
			return cycleError(path, fn)
		}
		state[fn] = visiting
		path = append(path, fn)
		for _, callee := range usage.Callees(fn) {
			if err := visit(callee); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[fn] = done
		order = append(order, fn)
		return nil
	}

	for _, fn := range p.Functions {
		if err := visit(fn); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func cycleError(path []*ir.Function, repeat *ir.Function) error {
	start := 0
	for i, fn := range path {
		if fn == repeat {
			start = i
			break
		}
	}
	names := make([]string, 0, len(path)-start+1)
	for _, fn := range path[start:] {
		names = append(names, fn.Name)
	}
	names = append(names, repeat.Name)
	return fmt.Errorf("codegen: %w: %s", ErrCircularDependency, strings.Join(names, " -> "))
}
