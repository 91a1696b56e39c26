// Package equality compiles expr-lang expressions into leaf-equality
// predicates for the diff engine. The expression sees the two compared
// values as "a" and "b" and must evaluate to a bool:
//
//	eq, err := equality.Compile(`float(a) == float(b)`)
//	changes := libdiff.Diff(cur, upd, &libdiff.Options{Equal: eq})
package equality

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Compile builds an equality predicate from src. A runtime evaluation
// error makes the predicate report unequal.
func Compile(src string) (func(a, b any) bool, error) {
	prg, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return func(a, b any) bool {
		res, err := run(prg, a, b)
		if err != nil {
			return false
		}
		return res
	}, nil
}

func run(prg *vm.Program, a, b any) (bool, error) {
	res, err := expr.Run(prg, map[string]any{"a": a, "b": b})
	if err != nil {
		return false, err
	}
	v, _ := res.(bool)
	return v, nil
}
