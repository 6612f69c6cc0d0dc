// Package unify implements the Unification Engine (spec §4.1): union-find
// over type variables with ranks, path compression, occurs check, and
// let-generalization/instantiation.
//
// Grounded on the level-based generalization in _examples/mafm-poly
// (wdamron/poly's InferenceContext, which threads a `level int` through
// infer/unify exactly as spec §3.2's `rank` counter does) and on the
// teacher's union-find-free substitution-map Unifier
// (sunholo-data-ailang/internal/types/unification.go) reworked here into
// genuine union-find over typepool.Idx, per spec §3.1's "Var with a link
// is transparent" invariant.
package unify

import "github.com/oriproj/ori/internal/typepool"

// Engine owns the Pool, the current rank (scope depth), and — implicitly —
// the substitution, which lives as Link fields inside Var cells in the
// Pool (spec §3.2).
type Engine struct {
	Pool *typepool.Pool
	rank uint32
}

// New creates a unification Engine over pool, starting at rank 0.
func New(pool *typepool.Pool) *Engine {
	return &Engine{Pool: pool}
}

// FreshVar allocates a type variable at the engine's current rank.
func (e *Engine) FreshVar() typepool.Idx {
	return e.Pool.NewVar(e.rank)
}

// FreshRigidVar allocates a rigid (non-unifiable) generic parameter.
func (e *Engine) FreshRigidVar(name string) typepool.Idx {
	return e.Pool.NewRigidVar(name)
}

// EnterScope increases the rank, bracketing a new let-binding scope.
func (e *Engine) EnterScope() { e.rank++ }

// ExitScope decreases the rank. Types allocated inside the exited scope
// are not retroactively changed; EnterScope/ExitScope only gate what
// Generalize is willing to quantify (spec §3.2).
func (e *Engine) ExitScope() {
	if e.rank > 0 {
		e.rank--
	}
}

// Rank returns the engine's current scope depth.
func (e *Engine) Rank() uint32 { return e.rank }

// Resolve walks a Var's link chain to its terminal, compressing the
// path so every Var visited is rebound directly to the terminal (spec
// §4.1: "resolve walks link chains... with path compression"). Resolve
// is idempotent: Resolve(Resolve(t)) == Resolve(t) (spec §8.1 invariant 2).
func (e *Engine) Resolve(idx typepool.Idx) typepool.Idx {
	t := e.Pool.Get(idx)
	if t.Tag != typepool.TagVar || t.Link == typepool.Invalid {
		return idx
	}
	// Walk to the terminal.
	chain := []typepool.Idx{idx}
	cur := t.Link
	for {
		ct := e.Pool.Get(cur)
		if ct.Tag != typepool.TagVar || ct.Link == typepool.Invalid {
			break
		}
		chain = append(chain, cur)
		cur = ct.Link
	}
	terminal := cur
	// Path compression: rebind every Var on the chain directly to terminal.
	for _, v := range chain {
		vt := e.Pool.Get(v)
		vt.Link = terminal
		e.Pool.Set(v, vt)
	}
	return terminal
}

// link binds `from` (a Var) to `to`, updating from's effective rank to
// the minimum of its own rank and the minimum rank among to's free
// variables — this keeps a variable bound at an outer (lower-rank)
// scope from silently absorbing a type that only makes sense at an
// inner scope (preventing quantifier leakage, spec §3.2).
func (e *Engine) link(from, to typepool.Idx) {
	ft := e.Pool.Get(from)
	minRank := ft.Rank
	if r, ok := e.minFreeRank(to); ok && r < minRank {
		minRank = r
	}
	ft.Link = to
	ft.Rank = minRank
	e.Pool.Set(from, ft)
}

// minFreeRank returns the minimum rank among free (unlinked) Vars
// reachable from idx, used by link to avoid quantifier leakage.
func (e *Engine) minFreeRank(idx typepool.Idx) (uint32, bool) {
	idx = e.Resolve(idx)
	t := e.Pool.Get(idx)
	switch t.Tag {
	case typepool.TagVar:
		return t.Rank, true
	case typepool.TagApplied, typepool.TagTuple, typepool.TagFunction:
		best, found := uint32(0), false
		children := append(append([]typepool.Idx(nil), t.Params...), t.Elem)
		for _, c := range children {
			if c == typepool.Invalid {
				continue
			}
			if r, ok := e.minFreeRank(c); ok {
				if !found || r < best {
					best, found = r, true
				}
			}
		}
		return best, found
	case typepool.TagList, typepool.TagOption, typepool.TagSet, typepool.TagRange, typepool.TagChannel:
		return e.minFreeRank(t.Elem)
	case typepool.TagMap, typepool.TagResult:
		r1, ok1 := e.minFreeRank(t.Elem)
		r2, ok2 := e.minFreeRank(t.Elem2)
		switch {
		case ok1 && ok2:
			if r1 < r2 {
				return r1, true
			}
			return r2, true
		case ok1:
			return r1, true
		case ok2:
			return r2, true
		default:
			return 0, false
		}
	case typepool.TagProjection:
		return e.minFreeRank(t.Base)
	default:
		return 0, false
	}
}

// occurs reports whether the Var `v` appears free within idx — the
// occurs check (spec §4.1 step 3; tested by spec §8.1 invariant 4).
func (e *Engine) occurs(v, idx typepool.Idx) bool {
	idx = e.Resolve(idx)
	if idx == v {
		return true
	}
	t := e.Pool.Get(idx)
	switch t.Tag {
	case typepool.TagApplied, typepool.TagTuple, typepool.TagFunction:
		for _, c := range t.Params {
			if e.occurs(v, c) {
				return true
			}
		}
		if t.Elem != typepool.Invalid && e.occurs(v, t.Elem) {
			return true
		}
		return false
	case typepool.TagList, typepool.TagOption, typepool.TagSet, typepool.TagRange, typepool.TagChannel:
		return e.occurs(v, t.Elem)
	case typepool.TagMap, typepool.TagResult:
		return e.occurs(v, t.Elem) || e.occurs(v, t.Elem2)
	case typepool.TagProjection:
		return e.occurs(v, t.Base)
	default:
		return false
	}
}
