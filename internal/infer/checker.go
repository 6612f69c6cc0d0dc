// Package infer implements the bidirectional Type Inference Engine of
// spec §4.2: Hindley-Milner with let-polymorphism over the unify.Engine,
// struct/enum resolution via registry.TypeRegistry, trait-bound and
// capability checking, and rich diagnostics.
//
// Grounded on the teacher's typechecker_core.go
// (sunholo-data-ailang/internal/types) for the infer/check split and
// environment-threading style, and on
// original_source/compiler/ori_types/src/infer/mod.rs for the bidirectional
// infer/check entrypoints and context-stack diagnostics this package
// ports from Rust to Go.
package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
	"github.com/oriproj/ori/internal/unify"
)

// checkingFrame is one entry of the context stack (spec §4.2: "Maintains
// a context stack (checking, expected_because reasons)").
type checkingFrame struct {
	expected typepool.Idx
	because  string
}

// Checker is the bidirectional type checker. One Checker is used for a
// whole compilation unit; Infer/Check calls share its Pool, Engine, and
// diagnostic accumulator.
type Checker struct {
	Pool    *typepool.Pool
	Engine  *unify.Engine
	Types   *registry.TypeRegistry
	Traits  *registry.TraitRegistry
	Diags   diag.Accumulator
	stack   []checkingFrame
	provided map[string]bool // capabilities currently provided by an enclosing `with`
	declaredUses map[string]bool // the enclosing function's declared `uses` set
	funcSigs map[string]*ast.FuncDecl // name -> declaration, for call-site where-clause/capability checks
}

func NewChecker(pool *typepool.Pool, types *registry.TypeRegistry, traits *registry.TraitRegistry) *Checker {
	return &Checker{
		Pool:     pool,
		Engine:   unify.New(pool),
		Types:    types,
		Traits:   traits,
		provided: make(map[string]bool),
		funcSigs: make(map[string]*ast.FuncDecl),
	}
}

// RegisterFuncDecl records decl's declared `uses` set and where-clause
// bounds so that a later call site naming decl.Name by plain identifier
// can check them (spec §4.2 capability checking and where-clauses). The
// pipeline's signature-binding pass calls this once per top-level
// declaration, alongside binding the declaration's function type into
// the global environment.
func (c *Checker) RegisterFuncDecl(decl *ast.FuncDecl) {
	c.funcSigs[decl.Name] = decl
}

func (c *Checker) pushExpected(expected typepool.Idx, because string) {
	c.stack = append(c.stack, checkingFrame{expected: expected, because: because})
}

func (c *Checker) popExpected() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func (c *Checker) currentReason() string {
	if len(c.stack) == 0 {
		return ""
	}
	return c.stack[len(c.stack)-1].because
}

// reportUnifyError converts a unify.Error into a rich diag.Diagnostic
// using the structural problem-diff (spec §4.2, §7).
func (c *Checker) reportUnifyError(sp ast.Expr, err error) typepool.Idx {
	span := toSpan(sp)
	uerr, ok := err.(*unify.Error)
	if !ok {
		c.Diags.Add(diag.New(diagCodeFor(nil), span, err.Error()))
		return typepool.ERROR
	}
	d := diagCodeFor(uerr)
	expectedStr := c.Pool.String(c.Engine.Resolve(uerr.Expected))
	foundStr := c.Pool.String(c.Engine.Resolve(uerr.Found))
	msg := fmt.Sprintf("expected %s, found %s", expectedStr, foundStr)
	diagd := diag.New(d, span, msg)
	if reason := c.currentReason(); reason != "" {
		diagd.WithNote(reason)
	}
	for _, s := range problemDiff(c.Pool, c.Engine, uerr.Expected, uerr.Found) {
		diagd.WithSuggestion(s)
	}
	c.Diags.Add(diagd)
	return typepool.ERROR
}

func diagCodeFor(e *unify.Error) diag.Code {
	if e == nil {
		return diag.E3000TypeMismatch
	}
	switch e.Kind {
	case unify.InfiniteType:
		return diag.E3008InfiniteType
	case unify.RigidMismatch, unify.RigidRigidMismatch:
		return diag.E3009RigidMismatch
	case unify.ArgCountMismatch:
		return diag.E3011ArgCountMismatch
	case unify.TupleLengthMismatch:
		return diag.E3012TupleLengthMismatch
	default:
		return diag.E3000TypeMismatch
	}
}

func toSpan(e ast.Expr) diag.Span {
	if e == nil {
		return diag.Span{}
	}
	return e.Span()
}

// unifyOrReport unifies a against b, emitting a diagnostic (and
// returning ERROR) on failure rather than propagating a Go error,
// matching spec §7's "accumulation over fast-fail."
func (c *Checker) unifyOrReport(at ast.Expr, expected, found typepool.Idx) typepool.Idx {
	if err := c.Engine.Unify(expected, found); err != nil {
		return c.reportUnifyError(at, err)
	}
	return found
}

// Check verifies expr against expected, per spec §4.2: `check(expr,
// expected, origin) -> ()`.
func (c *Checker) Check(expr ast.Expr, expected typepool.Idx, origin string, env *Env) {
	c.pushExpected(expected, origin)
	defer c.popExpected()

	found := c.Infer(expr, env)
	c.unifyOrReport(expr, expected, found)
}
