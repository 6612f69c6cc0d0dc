package unify

import "github.com/oriproj/ori/internal/typepool"

// Scheme is a generalized (polymorphic) type: a list of quantified
// BoundVar slots plus the body type referencing them. Produced by
// Generalize, consumed by Instantiate (spec §4.1).
type Scheme struct {
	Quantified []typepool.Idx // BoundVar idx values, in binding order
	Body       typepool.Idx
}

// Generalize promotes every free Var in ty whose rank exceeds the
// engine's current rank to a BoundVar slot in a fresh Scheme (spec
// §4.1, §4.2 let-polymorphism). Monomorphic types (no variable exceeds
// the current rank) come back as a Scheme with no quantifiers and an
// unchanged Body — callers can still treat it uniformly via Instantiate.
//
// Grounded on the level-based generalize() in _examples/mafm-poly
// (wdamron/poly): a variable whose level is greater than the
// let-binding's level becomes quantified, everything else is free.
func (e *Engine) Generalize(ty typepool.Idx) *Scheme {
	seen := make(map[typepool.Idx]typepool.Idx) // Var Idx -> BoundVar Idx
	var order []typepool.Idx
	var walk func(idx typepool.Idx)
	walk = func(idx typepool.Idx) {
		idx = e.Resolve(idx)
		t := e.Pool.Get(idx)
		switch t.Tag {
		case typepool.TagVar:
			if t.Rank > e.rank {
				if _, ok := seen[idx]; !ok {
					bv := e.Pool.NewBoundVar(uint32(len(order)), "")
					seen[idx] = bv
					order = append(order, idx)
					// The Var itself is left unlinked; seen maps it to
					// this BoundVar, and substituteVarsWithBound applies
					// that mapping when Body is rebuilt.
				}
			}
		case typepool.TagApplied, typepool.TagTuple, typepool.TagFunction:
			for _, c := range t.Params {
				walk(c)
			}
			if t.Elem != typepool.Invalid {
				walk(t.Elem)
			}
		case typepool.TagList, typepool.TagOption, typepool.TagSet, typepool.TagRange, typepool.TagChannel:
			walk(t.Elem)
		case typepool.TagMap, typepool.TagResult:
			walk(t.Elem)
			walk(t.Elem2)
		case typepool.TagProjection:
			walk(t.Base)
		}
	}
	walk(ty)

	if len(order) == 0 {
		return &Scheme{Body: ty}
	}

	quant := make([]typepool.Idx, len(order))
	for i, v := range order {
		quant[i] = seen[v]
	}
	body := e.substituteVarsWithBound(ty, seen)
	return &Scheme{Quantified: quant, Body: body}
}

// substituteVarsWithBound rebuilds ty replacing every Var present in
// replace with its BoundVar placeholder, leaving everything else
// structurally shared (types are immutable once built, so sharing
// subtrees that don't mention a generalized variable is safe and
// cheap).
func (e *Engine) substituteVarsWithBound(ty typepool.Idx, replace map[typepool.Idx]typepool.Idx) typepool.Idx {
	ty = e.Resolve(ty)
	if bv, ok := replace[ty]; ok {
		return bv
	}
	t := e.Pool.Get(ty)
	switch t.Tag {
	case typepool.TagApplied:
		args := make([]typepool.Idx, len(t.Params))
		changed := false
		for i, c := range t.Params {
			args[i] = e.substituteVarsWithBound(c, replace)
			changed = changed || args[i] != c
		}
		if !changed {
			return ty
		}
		return e.Pool.NewApplied(t.Name, args)
	case typepool.TagTuple:
		elems := make([]typepool.Idx, len(t.Params))
		for i, c := range t.Params {
			elems[i] = e.substituteVarsWithBound(c, replace)
		}
		return e.Pool.NewTuple(elems)
	case typepool.TagFunction:
		params := make([]typepool.Idx, len(t.Params))
		for i, c := range t.Params {
			params[i] = e.substituteVarsWithBound(c, replace)
		}
		ret := e.substituteVarsWithBound(t.Elem, replace)
		return e.Pool.NewFunction(params, ret)
	case typepool.TagList:
		return e.Pool.NewList(e.substituteVarsWithBound(t.Elem, replace))
	case typepool.TagOption:
		return e.Pool.NewOption(e.substituteVarsWithBound(t.Elem, replace))
	case typepool.TagSet:
		return e.Pool.NewSet(e.substituteVarsWithBound(t.Elem, replace))
	case typepool.TagRange:
		return e.Pool.NewRange(e.substituteVarsWithBound(t.Elem, replace))
	case typepool.TagChannel:
		return e.Pool.NewChannel(e.substituteVarsWithBound(t.Elem, replace))
	case typepool.TagMap:
		return e.Pool.NewMap(e.substituteVarsWithBound(t.Elem, replace), e.substituteVarsWithBound(t.Elem2, replace))
	case typepool.TagResult:
		return e.Pool.NewResult(e.substituteVarsWithBound(t.Elem, replace), e.substituteVarsWithBound(t.Elem2, replace))
	case typepool.TagProjection:
		return e.Pool.NewProjection(e.substituteVarsWithBound(t.Base, replace), t.TraitName, t.AssocName)
	default:
		return ty
	}
}

// Instantiate allocates fresh Vars for every BoundVar quantified by the
// scheme and substitutes them into the body (spec §4.1).
func (e *Engine) Instantiate(s *Scheme) typepool.Idx {
	if len(s.Quantified) == 0 {
		return s.Body
	}
	fresh := make(map[typepool.Idx]typepool.Idx, len(s.Quantified))
	for _, bv := range s.Quantified {
		fresh[bv] = e.FreshVar()
	}
	return e.substituteBoundWithVars(s.Body, fresh)
}

func (e *Engine) substituteBoundWithVars(ty typepool.Idx, fresh map[typepool.Idx]typepool.Idx) typepool.Idx {
	if v, ok := fresh[ty]; ok {
		return v
	}
	t := e.Pool.Get(ty)
	switch t.Tag {
	case typepool.TagApplied:
		args := make([]typepool.Idx, len(t.Params))
		for i, c := range t.Params {
			args[i] = e.substituteBoundWithVars(c, fresh)
		}
		return e.Pool.NewApplied(t.Name, args)
	case typepool.TagTuple:
		elems := make([]typepool.Idx, len(t.Params))
		for i, c := range t.Params {
			elems[i] = e.substituteBoundWithVars(c, fresh)
		}
		return e.Pool.NewTuple(elems)
	case typepool.TagFunction:
		params := make([]typepool.Idx, len(t.Params))
		for i, c := range t.Params {
			params[i] = e.substituteBoundWithVars(c, fresh)
		}
		ret := e.substituteBoundWithVars(t.Elem, fresh)
		return e.Pool.NewFunction(params, ret)
	case typepool.TagList:
		return e.Pool.NewList(e.substituteBoundWithVars(t.Elem, fresh))
	case typepool.TagOption:
		return e.Pool.NewOption(e.substituteBoundWithVars(t.Elem, fresh))
	case typepool.TagSet:
		return e.Pool.NewSet(e.substituteBoundWithVars(t.Elem, fresh))
	case typepool.TagRange:
		return e.Pool.NewRange(e.substituteBoundWithVars(t.Elem, fresh))
	case typepool.TagChannel:
		return e.Pool.NewChannel(e.substituteBoundWithVars(t.Elem, fresh))
	case typepool.TagMap:
		return e.Pool.NewMap(e.substituteBoundWithVars(t.Elem, fresh), e.substituteBoundWithVars(t.Elem2, fresh))
	case typepool.TagResult:
		return e.Pool.NewResult(e.substituteBoundWithVars(t.Elem, fresh), e.substituteBoundWithVars(t.Elem2, fresh))
	case typepool.TagProjection:
		return e.Pool.NewProjection(e.substituteBoundWithVars(t.Base, fresh), t.TraitName, t.AssocName)
	default:
		return ty
	}
}
