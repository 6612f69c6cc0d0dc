package unify

import "github.com/oriproj/ori/internal/typepool"

// Unify attempts to unify a and b, mutating the Pool's Var links in
// place. On success both a and b denote the same resolved type. Follows
// the algorithm of spec §4.1 step-by-step.
func (e *Engine) Unify(a, b typepool.Idx) error {
	a = e.Resolve(a)
	b = e.Resolve(b)

	// 1. Pool identity shortcut.
	if a == b {
		return nil
	}

	// 2. Error propagation: ERROR unifies with anything.
	if a == typepool.ERROR || b == typepool.ERROR {
		return nil
	}

	ta := e.Pool.Get(a)
	tb := e.Pool.Get(b)

	// 3. Var cases (either side).
	if ta.Tag == typepool.TagVar {
		if e.occurs(a, b) {
			return &Error{Kind: InfiniteType, Expected: a, Found: b}
		}
		e.link(a, b)
		return nil
	}
	if tb.Tag == typepool.TagVar {
		if e.occurs(b, a) {
			return &Error{Kind: InfiniteType, Expected: b, Found: a}
		}
		e.link(b, a)
		return nil
	}

	// 4. Rigid variables unify only with themselves (already excluded
	// by the a == b check above, so any RigidVar reaching here fails).
	if ta.Tag == typepool.TagRigidVar || tb.Tag == typepool.TagRigidVar {
		if ta.Tag == typepool.TagRigidVar && tb.Tag == typepool.TagRigidVar {
			return &Error{Kind: RigidRigidMismatch, Expected: a, Found: b}
		}
		return &Error{Kind: RigidMismatch, Expected: a, Found: b}
	}

	if ta.Tag != tb.Tag {
		return mismatch(a, b, "type shapes differ")
	}

	// 5. Structural recursion by Tag.
	switch ta.Tag {
	case typepool.TagPrimitive:
		return mismatch(a, b, "distinct primitive types")

	case typepool.TagNamed:
		if ta.Name != tb.Name {
			return mismatch(a, b, "named types differ")
		}
		return nil

	case typepool.TagApplied:
		if ta.Name != tb.Name {
			return mismatch(a, b, "named types differ")
		}
		if len(ta.Params) != len(tb.Params) {
			return &Error{Kind: ArgCountMismatch, Expected: a, Found: b}
		}
		for i := range ta.Params {
			if err := e.Unify(ta.Params[i], tb.Params[i]); err != nil {
				return err
			}
		}
		return nil

	case typepool.TagFunction:
		if len(ta.Params) != len(tb.Params) {
			return &Error{Kind: ArgCountMismatch, Expected: a, Found: b}
		}
		for i := range ta.Params {
			if err := e.Unify(ta.Params[i], tb.Params[i]); err != nil {
				return err
			}
		}
		return e.Unify(ta.Elem, tb.Elem)

	case typepool.TagTuple:
		if len(ta.Params) != len(tb.Params) {
			return &Error{Kind: TupleLengthMismatch, Expected: a, Found: b}
		}
		for i := range ta.Params {
			if err := e.Unify(ta.Params[i], tb.Params[i]); err != nil {
				return err
			}
		}
		return nil

	case typepool.TagList, typepool.TagOption, typepool.TagSet, typepool.TagRange, typepool.TagChannel:
		return e.Unify(ta.Elem, tb.Elem)

	case typepool.TagMap:
		if err := e.Unify(ta.Elem, tb.Elem); err != nil {
			return err
		}
		return e.Unify(ta.Elem2, tb.Elem2)

	case typepool.TagResult:
		if err := e.Unify(ta.Elem, tb.Elem); err != nil {
			return err
		}
		return e.Unify(ta.Elem2, tb.Elem2)

	case typepool.TagProjection:
		if ta.TraitName != tb.TraitName || ta.AssocName != tb.AssocName {
			return mismatch(a, b, "associated-type projections differ")
		}
		return e.Unify(ta.Base, tb.Base)

	case typepool.TagModuleNamespace:
		if ta.Name != tb.Name {
			return mismatch(a, b, "module namespaces differ")
		}
		return nil

	default:
		return mismatch(a, b, "unsupported type shape in unification")
	}
}
