package infer

import (
	"testing"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

func newTestChecker() *Checker {
	pool := typepool.New()
	return NewChecker(pool, registry.NewTypeRegistry(), registry.NewTraitRegistry())
}

// TestHMIdPolymorphismThroughLet is spec §8.2 scenario S1, exercised
// through the full Checker rather than the unify engine directly:
// `let id = \x -> x in (id 1, id true)` must type as (Int, Bool).
func TestHMIdPolymorphismThroughLet(t *testing.T) {
	c := newTestChecker()
	env := NewEnv()

	idLambda := &ast.Lambda{Params: []string{"x"}, Body: &ast.Ident{Name: "x"}}
	tup := &ast.TupleLit{Elems: []ast.Expr{
		&ast.App{Func: &ast.Ident{Name: "id"}, Args: []ast.Expr{&ast.Literal{Kind: ast.LitInt, Int: 1}}},
		&ast.App{Func: &ast.Ident{Name: "id"}, Args: []ast.Expr{&ast.Literal{Kind: ast.LitBool, Bool: true}}},
	}}
	letExpr := &ast.Let{Name: "id", Value: idLambda, Body: tup}

	ty := c.Infer(letExpr, env)
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected errors: %+v", c.Diags.All())
	}
	resolved := c.Pool.Get(c.Engine.Resolve(ty))
	if resolved.Tag != typepool.TagTuple || len(resolved.Params) != 2 {
		t.Fatalf("expected a 2-tuple, got %s", c.Pool.String(ty))
	}
	if c.Engine.Resolve(resolved.Params[0]) != typepool.INT {
		t.Fatal("expected first element Int")
	}
	if c.Engine.Resolve(resolved.Params[1]) != typepool.BOOL {
		t.Fatal("expected second element Bool")
	}
}

// TestStructLiteralWithGenerics is spec §8.2 scenario S2: Box<T> = {
// value: T }; Box { value: 42 } must infer Applied("Box", [Int]).
func TestStructLiteralWithGenerics(t *testing.T) {
	c := newTestChecker()
	env := NewEnv()

	tvar := c.Pool.NewRigidVar("T")
	c.Types.Define(&registry.TypeEntry{
		Name:       "Box",
		Idx:        c.Pool.NewNamed("Box"),
		Kind:       registry.KindStruct,
		Fields:     []registry.FieldDef{{Name: "value", Ty: tvar}},
		TypeParams: []string{"T"},
	})

	lit := &ast.StructLit{TypeName: "Box", Fields: []ast.FieldValue{
		{Name: "value", Value: &ast.Literal{Kind: ast.LitInt, Int: 42}},
	}}
	ty := c.Infer(lit, env)
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected errors: %+v", c.Diags.All())
	}
	resolved := c.Pool.Get(c.Engine.Resolve(ty))
	if resolved.Tag != typepool.TagApplied || resolved.Name != "Box" {
		t.Fatalf("expected Applied(Box, ...), got %s", c.Pool.String(ty))
	}
	if c.Engine.Resolve(resolved.Params[0]) != typepool.INT {
		t.Fatalf("expected Box<Int>, got %s", c.Pool.String(ty))
	}
}

func TestStructLiteralMissingFieldDiagnosed(t *testing.T) {
	c := newTestChecker()
	env := NewEnv()
	c.Types.Define(&registry.TypeEntry{
		Name: "Point",
		Idx:  c.Pool.NewNamed("Point"),
		Kind: registry.KindStruct,
		Fields: []registry.FieldDef{
			{Name: "x", Ty: typepool.INT},
			{Name: "y", Ty: typepool.INT},
		},
	})
	lit := &ast.StructLit{TypeName: "Point", Fields: []ast.FieldValue{
		{Name: "x", Value: &ast.Literal{Kind: ast.LitInt, Int: 1}},
	}}
	c.Infer(lit, env)
	found := false
	for _, d := range c.Diags.All() {
		if d.Code == diag.E3003MissingField {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a missing-field diagnostic")
	}
}

func TestCapabilityUnsatisfiedDiagnosed(t *testing.T) {
	c := newTestChecker()
	body := &ast.Literal{Kind: ast.LitUnit}
	c.declaredUses = map[string]bool{} // function declares no capabilities
	c.checkCapabilities(body, []string{"FS"})
	if !c.Diags.HasErrors() {
		t.Fatal("expected capability-unsatisfied diagnostic")
	}
}

// TestCapabilityUnsatisfiedThroughCall exercises the real call-inference
// path (inferApp), not checkCapabilities directly: calling a registered
// function whose declared `uses` set is not satisfied at the call site
// must produce E3010CapabilityUnsatisfied without any explicit `with`.
func TestCapabilityUnsatisfiedThroughCall(t *testing.T) {
	c := newTestChecker()
	env := NewEnv()

	readFile := &ast.FuncDecl{Name: "readFile", Uses: []string{"FS"}}
	c.RegisterFuncDecl(readFile)
	env.BindMono("readFile", c.Pool.NewFunction(nil, typepool.STR))

	call := &ast.App{Func: &ast.Ident{Name: "readFile"}}
	c.Infer(call, env)

	found := false
	for _, d := range c.Diags.All() {
		if d.Code == diag.E3010CapabilityUnsatisfied {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a capability-unsatisfied diagnostic from the real call path")
	}
}

// TestCapabilitySatisfiedThroughCallWithProvider is the positive
// counterpart: a `with FS = ... in readFile()` call must not diagnose.
func TestCapabilitySatisfiedThroughCallWithProvider(t *testing.T) {
	c := newTestChecker()
	env := NewEnv()

	readFile := &ast.FuncDecl{Name: "readFile", Uses: []string{"FS"}}
	c.RegisterFuncDecl(readFile)
	env.BindMono("readFile", c.Pool.NewFunction(nil, typepool.STR))

	withExpr := &ast.With{
		Capability: "FS",
		Provider:   &ast.Literal{Kind: ast.LitUnit},
		Body:       &ast.App{Func: &ast.Ident{Name: "readFile"}},
	}
	c.Infer(withExpr, env)
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected errors: %+v", c.Diags.All())
	}
}

// TestWhereClauseNotSatisfiedThroughCall exercises CheckWhereClauses
// wired into the real call-inference path (inferApp): calling a
// registered generic function whose where-clause names a trait the
// witness type does not implement must produce
// E3002TraitBoundNotSatisfied.
func TestWhereClauseNotSatisfiedThroughCall(t *testing.T) {
	c := newTestChecker()
	env := NewEnv()

	tvar := c.Pool.NewRigidVar("T")
	show := &ast.FuncDecl{
		Name:       "show",
		TypeParams: []string{"T"},
		Where:      []ast.WhereBound{{TypeParam: "T", Trait: "Printable"}},
		Params:     []ast.ParamDecl{{Name: "x", Type: "T"}},
	}
	c.RegisterFuncDecl(show)
	env.BindMono("show", c.Pool.NewFunction([]typepool.Idx{tvar}, typepool.UNIT))

	call := &ast.App{Func: &ast.Ident{Name: "show"}, Args: []ast.Expr{&ast.Literal{Kind: ast.LitInt, Int: 42}}}
	c.Infer(call, env)

	found := false
	for _, d := range c.Diags.All() {
		if d.Code == diag.E3002TraitBoundNotSatisfied {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a trait-bound-not-satisfied diagnostic from the real call path")
	}
}

func TestWithScopesCapability(t *testing.T) {
	c := newTestChecker()
	c.declaredUses = map[string]bool{}
	called := false
	c.withCapability("FS", func() {
		called = c.provided["FS"]
	})
	if !called {
		t.Fatal("expected capability to be provided inside with-block")
	}
	if c.provided["FS"] {
		t.Fatal("expected capability to be unscoped after with-block")
	}
}
