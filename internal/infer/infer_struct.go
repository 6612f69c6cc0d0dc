package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// inferStructLit implements spec §4.2's struct-literal rule: resolve the
// struct name, allocate fresh vars per generic type parameter, substitute
// those into declared field types, unify each provided field's inferred
// type against the expected substituted type, detect duplicate/unknown/
// missing fields (unless a spread covers the gaps), and return either
// Named(name) (no type params) or Applied(name, freshvars).
//
// Tested by spec §8.2 scenario S2 (Box<T> = {value: T}; Box{value: 42}
// must infer Applied("Box", [Int])).
func (c *Checker) inferStructLit(lit *ast.StructLit, env *Env) typepool.Idx {
	entry, ok := c.Types.Lookup(lit.TypeName)
	if !ok || entry.Kind != registry.KindStruct {
		c.Diags.Add(diag.New(diag.E3006NotAStruct, toSpan(lit), fmt.Sprintf("%q is not a struct type", lit.TypeName)))
		return typepool.ERROR
	}

	fresh := make(map[string]typepool.Idx, len(entry.TypeParams))
	freshList := make([]typepool.Idx, len(entry.TypeParams))
	for i, p := range entry.TypeParams {
		v := c.Engine.FreshVar()
		fresh[p] = v
		freshList[i] = v
	}
	substitute := func(ty typepool.Idx) typepool.Idx {
		return substituteNamedParams(c.Pool, ty, fresh)
	}

	seen := make(map[string]bool, len(lit.Fields))
	for _, fv := range lit.Fields {
		if seen[fv.Name] {
			c.Diags.Add(diag.New(diag.E3004DuplicateField, toSpan(lit), fmt.Sprintf("duplicate field %q in %s literal", fv.Name, lit.TypeName)))
			continue
		}
		seen[fv.Name] = true
		fd, ok := entry.Field(fv.Name)
		if !ok {
			c.Diags.Add(diag.New(diag.E3005UndefinedField, toSpan(lit), fmt.Sprintf("%s has no field %q", lit.TypeName, fv.Name)))
			continue
		}
		valTy := c.Infer(fv.Value, env)
		c.unifyOrReport(fv.Value, substitute(fd.Ty), valTy)
	}

	if lit.Spread != nil {
		// A spread covers any field not explicitly provided; unify its
		// type with the (substituted) target struct type.
		spreadTarget := entry.Idx
		if len(freshList) > 0 {
			spreadTarget = c.Pool.NewApplied(lit.TypeName, freshList)
		}
		spreadTy := c.Infer(lit.Spread, env)
		c.unifyOrReport(lit.Spread, spreadTarget, spreadTy)
	} else {
		for _, fd := range entry.Fields {
			if !seen[fd.Name] {
				c.Diags.Add(diag.New(diag.E3003MissingField, toSpan(lit), fmt.Sprintf("missing field %q in %s literal", fd.Name, lit.TypeName)))
			}
		}
	}

	if len(freshList) == 0 {
		return c.Pool.NewNamed(lit.TypeName)
	}
	return c.Pool.NewApplied(lit.TypeName, freshList)
}

// substituteNamedParams replaces RigidVar leaves matching a generic
// parameter's name with the corresponding fresh variable. Declared
// field types reference the struct's own type parameters as RigidVars
// allocated when the struct was registered; this walk substitutes each
// occurrence the same way unify.Engine's scheme substitution does.
func substituteNamedParams(pool *typepool.Pool, ty typepool.Idx, fresh map[string]typepool.Idx) typepool.Idx {
	t := pool.Get(ty)
	if t.Tag == typepool.TagRigidVar {
		if v, ok := fresh[t.Name]; ok {
			return v
		}
		return ty
	}
	switch t.Tag {
	case typepool.TagApplied:
		args := make([]typepool.Idx, len(t.Params))
		for i, a := range t.Params {
			args[i] = substituteNamedParams(pool, a, fresh)
		}
		return pool.NewApplied(t.Name, args)
	case typepool.TagTuple:
		elems := make([]typepool.Idx, len(t.Params))
		for i, a := range t.Params {
			elems[i] = substituteNamedParams(pool, a, fresh)
		}
		return pool.NewTuple(elems)
	case typepool.TagFunction:
		params := make([]typepool.Idx, len(t.Params))
		for i, a := range t.Params {
			params[i] = substituteNamedParams(pool, a, fresh)
		}
		return pool.NewFunction(params, substituteNamedParams(pool, t.Elem, fresh))
	case typepool.TagList:
		return pool.NewList(substituteNamedParams(pool, t.Elem, fresh))
	case typepool.TagOption:
		return pool.NewOption(substituteNamedParams(pool, t.Elem, fresh))
	case typepool.TagSet:
		return pool.NewSet(substituteNamedParams(pool, t.Elem, fresh))
	case typepool.TagRange:
		return pool.NewRange(substituteNamedParams(pool, t.Elem, fresh))
	case typepool.TagChannel:
		return pool.NewChannel(substituteNamedParams(pool, t.Elem, fresh))
	case typepool.TagMap:
		return pool.NewMap(substituteNamedParams(pool, t.Elem, fresh), substituteNamedParams(pool, t.Elem2, fresh))
	case typepool.TagResult:
		return pool.NewResult(substituteNamedParams(pool, t.Elem, fresh), substituteNamedParams(pool, t.Elem2, fresh))
	default:
		return ty
	}
}

// inferFieldAccess implements spec §4.2's field-access rule: numeric
// names index tuples positionally; Named/Applied receivers look up the
// field in the registry and substitute type parameters; an unresolved
// Var defers via a fresh variable; anything else yields the ERROR
// sentinel silently so method resolution gets a chance to diagnose
// (spec: "Non-field-bearing types return the ERROR sentinel silently").
func (c *Checker) inferFieldAccess(fa *ast.FieldAccess, env *Env) typepool.Idx {
	recvTy := c.Engine.Resolve(c.Infer(fa.Receiver, env))
	t := c.Pool.Get(recvTy)

	if t.Tag == typepool.TagTuple {
		idx, err := parseTupleIndex(fa.Field)
		if err != nil || idx < 0 || idx >= len(t.Params) {
			c.Diags.Add(diag.New(diag.E3005UndefinedField, toSpan(fa), fmt.Sprintf("tuple has no field %q", fa.Field)))
			return typepool.ERROR
		}
		return t.Params[idx]
	}

	if t.Tag == typepool.TagVar {
		return c.Engine.FreshVar()
	}

	name := ""
	var typeArgs []typepool.Idx
	switch t.Tag {
	case typepool.TagNamed:
		name = t.Name
	case typepool.TagApplied:
		name = t.Name
		typeArgs = t.Params
	default:
		return typepool.ERROR
	}

	entry, ok := c.Types.Lookup(name)
	if !ok || entry.Kind != registry.KindStruct {
		return typepool.ERROR
	}
	fd, ok := entry.Field(fa.Field)
	if !ok {
		c.Diags.Add(diag.New(diag.E3005UndefinedField, toSpan(fa), fmt.Sprintf("%s has no field %q", name, fa.Field)))
		return typepool.ERROR
	}
	if len(typeArgs) == 0 {
		return fd.Ty
	}
	fresh := make(map[string]typepool.Idx, len(entry.TypeParams))
	for i, p := range entry.TypeParams {
		if i < len(typeArgs) {
			fresh[p] = typeArgs[i]
		}
	}
	return substituteNamedParams(c.Pool, fd.Ty, fresh)
}

func parseTupleIndex(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty field name")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not numeric")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
