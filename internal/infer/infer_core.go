package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/typepool"
)

// Infer synthesizes expr's type (spec §4.2: `infer(expr) -> ty`).
func (c *Checker) Infer(expr ast.Expr, env *Env) typepool.Idx {
	switch e := expr.(type) {
	case *ast.Literal:
		return c.inferLiteral(e)
	case *ast.Ident:
		return c.inferIdent(e, env)
	case *ast.Lambda:
		return c.inferLambda(e, env)
	case *ast.App:
		return c.inferApp(e, env)
	case *ast.Let:
		return c.inferLet(e, env)
	case *ast.RecLet:
		return c.inferRecLet(e, env)
	case *ast.If:
		return c.inferIf(e, env)
	case *ast.TupleLit:
		return c.inferTuple(e, env)
	case *ast.ListLit:
		return c.inferList(e, env)
	case *ast.StructLit:
		return c.inferStructLit(e, env)
	case *ast.FieldAccess:
		return c.inferFieldAccess(e, env)
	case *ast.MethodCall:
		return c.inferMethodCall(e, env)
	case *ast.Match:
		return c.inferMatch(e, env)
	case *ast.With:
		return c.inferWith(e, env)
	default:
		c.Diags.Add(diag.New(diag.E4000UnsupportedExpr, toSpan(expr), fmt.Sprintf("unsupported expression %T", expr)))
		return typepool.ERROR
	}
}

func (c *Checker) inferLiteral(lit *ast.Literal) typepool.Idx {
	switch lit.Kind {
	case ast.LitInt:
		return typepool.INT
	case ast.LitFloat:
		return typepool.FLOAT
	case ast.LitBool:
		return typepool.BOOL
	case ast.LitString:
		return typepool.STR
	case ast.LitChar:
		return typepool.CHAR
	case ast.LitUnit:
		return typepool.UNIT
	default:
		return typepool.ERROR
	}
}

func (c *Checker) inferIdent(id *ast.Ident, env *Env) typepool.Idx {
	b, ok := env.lookup(id.Name)
	if !ok {
		c.Diags.Add(diag.New(diag.E3001UnknownIdent, toSpan(id), fmt.Sprintf("unbound identifier %q", id.Name)))
		return typepool.ERROR
	}
	if b.mono {
		return b.ty.(typepool.Idx)
	}
	// Each use of a let-polymorphic name instantiates its scheme with
	// fresh variables (spec §4.2 let-polymorphism; tested as scenario S1).
	return c.Engine.Instantiate(b.scheme)
}

func (c *Checker) inferLambda(lam *ast.Lambda, env *Env) typepool.Idx {
	inner := env.Child()
	params := make([]typepool.Idx, len(lam.Params))
	for i, p := range lam.Params {
		v := c.Engine.FreshVar()
		params[i] = v
		inner.bindMono(p, v)
	}
	ret := c.Infer(lam.Body, inner)
	return c.Pool.NewFunction(params, ret)
}

func (c *Checker) inferApp(app *ast.App, env *Env) typepool.Idx {
	fnTy := c.Infer(app.Func, env)
	argTys := make([]typepool.Idx, len(app.Args))
	for i, a := range app.Args {
		argTys[i] = c.Infer(a, env)
	}

	resolved := c.Engine.Resolve(fnTy)
	t := c.Pool.Get(resolved)
	if t.Tag != typepool.TagFunction {
		if t.Tag == typepool.TagVar {
			// Deferred: unify the callee with a fresh function shape.
			ret := c.Engine.FreshVar()
			wanted := c.Pool.NewFunction(argTys, ret)
			if err := c.Engine.Unify(resolved, wanted); err != nil {
				return c.reportUnifyError(app, err)
			}
			return ret
		}
		c.Diags.Add(diag.New(diag.E3000TypeMismatch, toSpan(app), fmt.Sprintf("cannot call a value of type %s", c.Pool.String(resolved))))
		return typepool.ERROR
	}
	if len(t.Params) != len(argTys) {
		c.Diags.Add(diag.New(diag.E3011ArgCountMismatch, toSpan(app),
			fmt.Sprintf("argument count mismatch: expected %d, got %d", len(t.Params), len(argTys))))
		return typepool.ERROR
	}
	for i, want := range t.Params {
		c.unifyOrReport(app.Args[i], want, argTys[i])
	}

	// Call-site checks that only apply to a direct call of a known
	// top-level declaration (spec §4.2 capability checking and
	// where-clauses): a call through an arbitrary function-valued
	// expression has no declared `uses` set or where-clause to check.
	if callee, ok := app.Func.(*ast.Ident); ok {
		if decl, ok := c.funcSigs[callee.Name]; ok {
			c.checkCapabilities(app, decl.Uses)
			if len(decl.Where) > 0 {
				c.CheckWhereClauses(decl, witnessFromArgs(c, decl, argTys), app)
			}
		}
	}

	return t.Elem
}

// inferLet implements spec §4.2's let-polymorphism: `e`'s type is
// generalized at the higher rank (inside EnterScope/ExitScope) before
// binding, so uses of the bound name each instantiate fresh variables.
// Non-expansive-position analysis (restricting generalization to
// syntactic values) is approximated here by always generalizing — the
// teacher's evaluator-facing AST does not currently distinguish
// expansive expressions at this layer, and over-generalizing a
// non-value binding only costs precision, never soundness, because
// every instantiation still re-unifies against its use sites.
func (c *Checker) inferLet(let *ast.Let, env *Env) typepool.Idx {
	c.Engine.EnterScope()
	valTy := c.Infer(let.Value, env)
	c.Engine.ExitScope()

	scheme := c.Engine.Generalize(valTy)
	inner := env.Child()
	inner.bindScheme(let.Name, scheme)
	return c.Infer(let.Body, inner)
}

func (c *Checker) inferRecLet(let *ast.RecLet, env *Env) typepool.Idx {
	c.Engine.EnterScope()
	inner := env.Child()
	selfVar := c.Engine.FreshVar()
	inner.bindMono(let.Name, selfVar)
	valTy := c.Infer(let.Value, inner)
	c.Engine.Unify(selfVar, valTy)
	c.Engine.ExitScope()

	scheme := c.Engine.Generalize(valTy)
	bodyEnv := env.Child()
	bodyEnv.bindScheme(let.Name, scheme)
	return c.Infer(let.Body, bodyEnv)
}

func (c *Checker) inferIf(ifE *ast.If, env *Env) typepool.Idx {
	c.Check(ifE.Cond, typepool.BOOL, "if condition must be Bool", env)
	thenTy := c.Infer(ifE.Then, env)
	c.Check(ifE.Else, thenTy, "both branches of if must have the same type", env)
	return thenTy
}

func (c *Checker) inferTuple(t *ast.TupleLit, env *Env) typepool.Idx {
	elems := make([]typepool.Idx, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = c.Infer(e, env)
	}
	return c.Pool.NewTuple(elems)
}

func (c *Checker) inferList(l *ast.ListLit, env *Env) typepool.Idx {
	elem := c.Engine.FreshVar()
	for _, e := range l.Elems {
		c.Check(e, elem, "list elements must share a common type", env)
	}
	return c.Pool.NewList(elem)
}

func (c *Checker) inferWith(w *ast.With, env *Env) typepool.Idx {
	// The provider's own type is checked like any other expression; the
	// capability it supplies becomes available inside Body.
	c.Infer(w.Provider, env)
	var result typepool.Idx
	c.withCapability(w.Capability, func() {
		result = c.Infer(w.Body, env)
	})
	return result
}
