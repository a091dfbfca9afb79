package validation

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// compiled "on" expressions, shared by every rule using the same source
var conditionCache sync.Map

// evalCondition evaluates an expression condition such as
// `data.status == "draft" && !newRecord` against the validation context.
func evalCondition(source string, ctx *Context) (bool, error) {
	program, err := compileCondition(source)
	if err != nil {
		return false, err
	}

	data := ctx.Data
	if data == nil {
		data = map[string]any{}
	}
	env := map[string]any{
		"data":      data,
		"newRecord": ctx.NewRecord,
		"field":     ctx.Field,
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating condition %q: %w", source, err)
	}

	applies, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned %T, expected bool", source, out)
	}
	return applies, nil
}

func compileCondition(source string) (*vm.Program, error) {
	if cached, ok := conditionCache.Load(source); ok {
		return cached.(*vm.Program), nil
	}

	program, err := expr.Compile(source, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling condition %q: %w", source, err)
	}

	conditionCache.Store(source, program)
	return program, nil
}
