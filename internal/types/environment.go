package types

import (
	"fmt"

	"github.com/samber/lo"
)

// Environment is the flat variable mapping shared by all statements of a run.
type Environment struct {
	Variables map[string]any
	Constants map[string]bool
}

func NewEnvironment() *Environment {
	return &Environment{
		Variables: map[string]any{},
		Constants: map[string]bool{},
	}
}

func (env *Environment) Get(key string) (any, bool) {
	v, ok := env.Variables[key]
	return v, ok
}

func (env *Environment) Set(key string, value any) error {
	if env.Constants[key] {
		return &Error{
			Tag: ReassignmentErrorTag,
			Err: fmt.Errorf("cannot assign to constant %q", key),
		}
	}
	env.Variables[key] = value
	return nil
}

func (env *Environment) SetConstant(key string, value any) error {
	if err := env.Set(key, value); err != nil {
		return err
	}
	env.Constants[key] = true
	return nil
}

func (env *Environment) ShallowClone() *Environment {
	return &Environment{
		Variables: lo.Assign(map[string]any{}, env.Variables),
		Constants: lo.Assign(map[string]bool{}, env.Constants),
	}
}
