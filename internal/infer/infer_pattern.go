package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// inferMatch type-checks a match expression: infers the scrutinee,
// checks every arm's pattern against it (binding pattern variables into
// a per-arm scope), checks guards as Bool, and unifies all arm bodies to
// a common result type.
func (c *Checker) inferMatch(m *ast.Match, env *Env) typepool.Idx {
	scrutTy := c.Infer(m.Scrutinee, env)
	result := c.Engine.FreshVar()
	for _, arm := range m.Arms {
		armEnv := env.Child()
		c.bindPattern(arm.Pattern, scrutTy, armEnv, toSpan(m.Scrutinee))
		if arm.Guard != nil {
			c.Check(arm.Guard, typepool.BOOL, "match guard must be Bool", armEnv)
		}
		bodyTy := c.Infer(arm.Body, armEnv)
		c.unifyOrReport(arm.Body, result, bodyTy)
	}
	return result
}

// bindPattern implements spec §4.2's pattern rule: inference produces
// bindings pushed into env; tuple, struct, list, Option, Result, and
// variant patterns decompose the scrutinee type, unifying each
// sub-pattern with the corresponding projection.
func (c *Checker) bindPattern(pat ast.Pattern, scrutTy typepool.Idx, env *Env, at diag.Span) {
	scrutTy = c.Engine.Resolve(scrutTy)
	switch p := pat.(type) {
	case ast.WildcardPat:
		// no binding

	case ast.BindPat:
		env.bindMono(p.Name, scrutTy)

	case ast.LiteralPat:
		lit := p.Lit
		c.unifyTypeWithLiteral(lit, scrutTy, at)

	case ast.TuplePat:
		t := c.Pool.Get(scrutTy)
		if t.Tag != typepool.TagTuple || len(t.Params) != len(p.Elems) {
			c.Diags.Add(diag.New(diag.E3012TupleLengthMismatch, at,
				fmt.Sprintf("pattern expects a %d-tuple, scrutinee is %s", len(p.Elems), c.Pool.String(scrutTy))))
			for _, sub := range p.Elems {
				c.bindPattern(sub, typepool.ERROR, env, at)
			}
			return
		}
		for i, sub := range p.Elems {
			c.bindPattern(sub, t.Params[i], env, at)
		}

	case ast.StructPat:
		entry, ok := c.Types.Lookup(p.TypeName)
		if !ok || entry.Kind != registry.KindStruct {
			c.Diags.Add(diag.New(diag.E3006NotAStruct, at, fmt.Sprintf("%q is not a struct type", p.TypeName)))
			return
		}
		for _, fp := range p.Fields {
			fd, ok := entry.Field(fp.Name)
			if !ok {
				c.Diags.Add(diag.New(diag.E3005UndefinedField, at, fmt.Sprintf("%s has no field %q", p.TypeName, fp.Name)))
				continue
			}
			c.bindPattern(fp.Pattern, fd.Ty, env, at)
		}

	case ast.VariantPat:
		entry, ok := c.Types.Lookup(p.EnumName)
		if !ok || entry.Kind != registry.KindEnum {
			c.Diags.Add(diag.New(diag.E3006NotAStruct, at, fmt.Sprintf("%q is not an enum type", p.EnumName)))
			return
		}
		variant, _, ok := entry.Variant(p.VariantName)
		if !ok {
			c.Diags.Add(diag.New(diag.E3005UndefinedField, at, fmt.Sprintf("%s has no variant %q", p.EnumName, p.VariantName)))
			return
		}
		if len(variant.Payload) != len(p.Payload) {
			c.Diags.Add(diag.New(diag.E3011ArgCountMismatch, at,
				fmt.Sprintf("%s.%s expects %d payload value(s), pattern has %d", p.EnumName, p.VariantName, len(variant.Payload), len(p.Payload))))
			return
		}
		for i, sub := range p.Payload {
			c.bindPattern(sub, variant.Payload[i], env, at)
		}

	case ast.ListPat:
		t := c.Pool.Get(scrutTy)
		elem := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagList {
			elem = t.Elem
		}
		for _, sub := range p.Elems {
			c.bindPattern(sub, elem, env, at)
		}
		if p.Rest != nil {
			env.bindMono(*p.Rest, scrutTy)
		}

	case ast.OptionSomePat:
		t := c.Pool.Get(scrutTy)
		inner := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagOption {
			inner = t.Elem
		}
		c.bindPattern(p.Inner, inner, env, at)

	case ast.OptionNonePat:
		// no binding

	case ast.ResultOkPat:
		t := c.Pool.Get(scrutTy)
		inner := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagResult {
			inner = t.Elem
		}
		c.bindPattern(p.Inner, inner, env, at)

	case ast.ResultErrPat:
		t := c.Pool.Get(scrutTy)
		inner := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagResult {
			inner = t.Elem2
		}
		c.bindPattern(p.Inner, inner, env, at)

	default:
		c.Diags.Add(diag.New(diag.E4001UnsupportedPattern, at, fmt.Sprintf("unsupported pattern %T", pat)))
	}
}

func (c *Checker) unifyTypeWithLiteral(lit ast.Literal, scrutTy typepool.Idx, at diag.Span) {
	var want typepool.Idx
	switch lit.Kind {
	case ast.LitInt:
		want = typepool.INT
	case ast.LitFloat:
		want = typepool.FLOAT
	case ast.LitBool:
		want = typepool.BOOL
	case ast.LitString:
		want = typepool.STR
	case ast.LitChar:
		want = typepool.CHAR
	default:
		want = typepool.UNIT
	}
	if err := c.Engine.Unify(want, scrutTy); err != nil {
		c.Diags.Add(diag.New(diag.E3000TypeMismatch, at, fmt.Sprintf("pattern literal type does not match scrutinee: expected %s, found %s", c.Pool.String(scrutTy), c.Pool.String(want))))
	}
}
