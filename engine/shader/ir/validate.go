package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStage is returned when a program lacks a stage its kind requires.
	ErrMissingStage = errors.New("missing required stage")
	// ErrDuplicateName is returned when two bindable resources share a name.
	ErrDuplicateName = errors.New("duplicate resource name")
	// ErrStageOnlyReference is returned when a user function references a stage input or output.
	ErrStageOnlyReference = errors.New("stage-only reference in function")
	// ErrInvalidBuiltin is returned when a builtin value is used outside its stage.
	ErrInvalidBuiltin = errors.New("builtin value used outside its stage")
	// ErrArity is returned when a builtin function is called with the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")
)

// Validate checks the structural rules every consumer of the IR relies on.
//
// Parameters:
//   - p: the program to check
//
// Returns:
//   - error: the first violation found, wrapping one of the Err* sentinels
func Validate(p *Program) error {
	switch p.Kind {
	case ProgramRender:
		if p.Vertex == nil {
			return fmt.Errorf("ir: render program %q has no vertex stage: %w", p.Name, ErrMissingStage)
		}
		if p.Fragment == nil {
			return fmt.Errorf("ir: render program %q has no fragment stage: %w", p.Name, ErrMissingStage)
		}
	case ProgramCompute:
		if p.Compute == nil {
			return fmt.Errorf("ir: compute program %q has no compute stage: %w", p.Name, ErrMissingStage)
		}
	}

	names := map[string]bool{}
	claim := func(name string) error {
		if names[name] {
			return fmt.Errorf("ir: program %q declares `%s` twice: %w", p.Name, name, ErrDuplicateName)
		}
		names[name] = true
		return nil
	}
	for _, b := range p.UniformBuffers {
		if err := claim(b.Name); err != nil {
			return err
		}
		for _, m := range b.Members {
			if err := claim(m.Name); err != nil {
				return err
			}
		}
	}
	for _, s := range p.Samplers {
		if err := claim(s.Name); err != nil {
			return err
		}
	}
	for _, st := range p.Storages {
		if err := claim(st.Name); err != nil {
			return err
		}
	}

	for _, fn := range p.Functions {
		if err := checkBlock(fn.Body, nil, fn.Name); err != nil {
			return err
		}
	}
	for _, s := range p.Stages() {
		k := s.Kind
		if err := checkBlock(s.Body, &k, k.String()+" stage"); err != nil {
			return err
		}
	}
	return nil
}

// checkBlock validates references inside b. stage is nil for user function bodies.
func checkBlock(b *Block, stage *StageKind, where string) error {
	var err error
	fail := func(e error) {
		if err == nil {
			err = e
		}
	}
	WalkFuncs(b, nil, func(e Expr, _ bool) {
		switch x := e.(type) {
		case *AttributeExpr, *VaryingExpr, *OutputExpr:
			if stage == nil {
				fail(fmt.Errorf("ir: %s references a stage input or output: %w", where, ErrStageOnlyReference))
			}
		case *BuiltinExpr:
			if stage == nil {
				fail(fmt.Errorf("ir: %s references builtin %d: %w", where, x.Value, ErrStageOnlyReference))
			} else if x.Value.Stage() != *stage {
				fail(fmt.Errorf("ir: %s references a %s builtin: %w", where, x.Value.Stage(), ErrInvalidBuiltin))
			}
		case *BuiltinCallExpr:
			if n := x.Func.Arity(); n != len(x.Args) {
				fail(fmt.Errorf("ir: %s calls %s with %d arguments, want %d: %w", where, x.Func, len(x.Args), n, ErrArity))
			}
		}
	})
	return err
}
