package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/typepool"
)

// witnessFromArgs builds the TypeParam -> witness-type map CheckWhereClauses
// needs, from a generic call site's already-unified argument types: each
// parameter whose declared annotation names a type parameter directly
// (e.g. `x: T`) contributes that argument's resolved type as T's witness.
// Called from inferApp at every direct call of a registered declaration.
func witnessFromArgs(c *Checker, fn *ast.FuncDecl, argTys []typepool.Idx) map[string]typepool.Idx {
	witness := make(map[string]typepool.Idx, len(fn.TypeParams))
	for i, p := range fn.Params {
		if i >= len(argTys) {
			break
		}
		if isTypeParam(fn, p.Type) {
			witness[p.Type] = c.Engine.Resolve(argTys[i])
		}
	}
	return witness
}

func isTypeParam(fn *ast.FuncDecl, name string) bool {
	for _, tp := range fn.TypeParams {
		if tp == name {
			return true
		}
	}
	return false
}

// CheckWhereClauses verifies spec §4.2's where-clause rule: at each call
// site of a generic function, after unifying arguments, each declared
// `T: Trait` constraint is checked against the trait registry using the
// type that instantiated T (the "witness type"). Failure reports
// TraitBoundNotSatisfied with the witness type and every impl that does
// satisfy the trait (for the affirmative "these types work instead"
// half of the diagnostic).
func (c *Checker) CheckWhereClauses(fn *ast.FuncDecl, witness map[string]typepool.Idx, at ast.Expr) {
	for _, wb := range fn.Where {
		ty, ok := witness[wb.TypeParam]
		if !ok {
			continue
		}
		resolved := c.Engine.Resolve(ty)
		name, ok := structNameOf(c.Pool, resolved)
		if !ok {
			// Primitive or otherwise unnamed witnesses are checked by
			// name against a synthetic registry entry name, e.g. "Int".
			name = c.Pool.String(resolved)
		}
		if c.Traits.Implements(wb.Trait, name) {
			continue
		}
		satisfying := c.Traits.ImplsSatisfying(wb.Trait)
		d := diag.New(diag.E3002TraitBoundNotSatisfied, toSpan(at),
			fmt.Sprintf("%s requires %s: %s, but %s does not implement %s", fn.Name, wb.TypeParam, wb.Trait, name, wb.Trait))
		if len(satisfying) > 0 {
			names := ""
			for i, impl := range satisfying {
				if i > 0 {
					names += ", "
				}
				names += impl.SelfType
			}
			d.WithNote(fmt.Sprintf("types that do implement %s: %s", wb.Trait, names))
		}
		c.Diags.Add(d)
	}
}
