package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/typepool"
)

// checkCapabilities implements spec §4.2's capability checking: at a
// call site, the callee's declared `uses` set must be a subset of the
// caller's declared-plus-currently-provided set.
func (c *Checker) checkCapabilities(at ast.Expr, calleeUses []string) {
	for _, cap := range calleeUses {
		if c.provided[cap] || c.declaredUses[cap] {
			continue
		}
		c.Diags.Add(diag.New(diag.E3010CapabilityUnsatisfied, toSpan(at),
			fmt.Sprintf("capability %q is required here but not declared or provided", cap)).
			WithSuggestion(fmt.Sprintf("declare `uses %s` on the enclosing function, or wrap the call in `with %s = <provider> in ...`", cap, cap)))
	}
}

// withCapability scopes cap as provided for the duration of fn — the
// `with cap = provider in body` construct (spec §4.2).
func (c *Checker) withCapability(cap string, fn func()) {
	was := c.provided[cap]
	c.provided[cap] = true
	fn()
	c.provided[cap] = was
}

// CheckFuncDecl type-checks a top-level function against its
// already-resolved parameter and return types: binds parameters,
// installs the function's declared uses set so checkCapabilities can
// validate call sites reached from its body, and checks the body
// against the declared return type. paramTypes must have one entry per
// fn.Params, in order (the caller -- the one compilation unit owning
// the Pool -- resolves each ast.ParamDecl.Type annotation before
// calling this).
func (c *Checker) CheckFuncDecl(fn *ast.FuncDecl, paramTypes []typepool.Idx, retTy typepool.Idx, env *Env) {
	savedUses := c.declaredUses
	c.declaredUses = make(map[string]bool, len(fn.Uses))
	for _, u := range fn.Uses {
		c.declaredUses[u] = true
	}
	defer func() { c.declaredUses = savedUses }()

	fnEnv := env.Child()
	for i, p := range fn.Params {
		fnEnv.BindMono(p.Name, paramTypes[i])
	}

	c.Check(fn.Body, retTy, fmt.Sprintf("return type of %s", fn.Name), fnEnv)
}
