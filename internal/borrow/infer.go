// Package borrow implements parameter ownership refinement over ARC IR
// (spec §4.4): owned reference-typed parameters that are only ever read
// (never stored, forwarded into another owned position, or written into
// a field) are downgraded from Owned to Borrowed, so that RC insertion
// never has to dup/drop them.
//
// Grounded on original_source/compiler/ori_arc's borrow module: a
// monotonic fixpoint over the call graph, starting every parameter
// optimistically Borrowed and tightening it to Owned only on concrete
// evidence of consumption — the "assume Borrowed, tighten on
// counter-evidence" rule spec §9 calls out for recursive groups. Run
// uniformly over the whole program (rather than computing strongly
// connected components first) this converges to the same fixpoint for
// acyclic call graphs and remains correct, if occasionally slower to
// settle, for mutually recursive ones — a simplification documented in
// the design notes.
package borrow

import "github.com/oriproj/ori/internal/arcir"

// Infer mutates every function's Params in place, setting Ownership to
// arcir.Owned or arcir.Borrowed once the fixpoint over fns is reached.
// fns must contain every function that might be called from another
// (unknown callees are treated conservatively as consuming their
// arguments).
func Infer(fns []*arcir.ArcFunction) {
	byName := make(map[string]*arcir.ArcFunction, len(fns))
	for _, fn := range fns {
		byName[fn.Name] = fn
	}

	owned := make(map[string][]bool, len(fns))
	for _, fn := range fns {
		owned[fn.Name] = make([]bool, len(fn.Params))
	}

	for {
		changed := false
		for _, fn := range fns {
			st := owned[fn.Name]
			paramIdx := make(map[arcir.ArcVarId]int, len(fn.Params))
			for i, p := range fn.Params {
				paramIdx[p.Var] = i
			}

			mark := func(v arcir.ArcVarId) {
				if i, ok := paramIdx[v]; ok && !st[i] {
					st[i] = true
					changed = true
				}
			}

			for bi := range fn.Blocks {
				b := &fn.Blocks[bi]
				for ii := range b.Body {
					instr := &b.Body[ii]
					for _, v := range consumedVars(instr, byName, owned) {
						mark(v)
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	for _, fn := range fns {
		st := owned[fn.Name]
		for i := range fn.Params {
			if st[i] {
				fn.Params[i].Ownership = arcir.Owned
			} else {
				fn.Params[i].Ownership = arcir.Borrowed
			}
		}
	}
}

// consumedVars returns the variables instr consumes — passes into
// another Owned position, stores into a constructor, or writes into an
// owned field (spec §4.4).
func consumedVars(instr *arcir.ArcInstr, byName map[string]*arcir.ArcFunction, owned map[string][]bool) []arcir.ArcVarId {
	switch instr.Kind {
	case arcir.ILet:
		if instr.Value.Kind == arcir.ValueVar {
			// x = y rebinds y under a second, independently owned name.
			return []arcir.ArcVarId{instr.Value.Var}
		}
		return nil
	case arcir.IApply:
		callee, known := byName[instr.Func]
		var out []arcir.ArcVarId
		for i, a := range instr.Args {
			if !known || i >= len(callee.Params) || owned[callee.Name][i] {
				out = append(out, a)
			}
		}
		return out
	case arcir.IApplyIndirect:
		// Target unknown at this point: conservatively treat closure and
		// every argument as consumed.
		return append([]arcir.ArcVarId{instr.Closure}, instr.Args...)
	case arcir.IPartialApply, arcir.IConstruct:
		return append([]arcir.ArcVarId(nil), instr.Args...)
	case arcir.ISet:
		return []arcir.ArcVarId{instr.Value1}
	default:
		return nil
	}
}

// Derived is the refined, per-variable ownership classification used by
// RC elimination's ownership-aware phase (spec §4.6 phase 4).
type Derived struct {
	Kind   DerivedKind
	Source arcir.ArcVarId // meaningful when Kind == BorrowedFromSource
}

type DerivedKind int

const (
	OwnedVar DerivedKind = iota
	BorrowedFromSource
)

// InferDerived computes, for every variable defined in fn, whether it is
// a plain owned value or a borrow projected from another still-tracked
// variable (currently: the result of a Project instruction borrows from
// its base). Indexed by arcir.ArcVarId; callers must bounds-check against
// len(fn.VarTypes).
func InferDerived(fn *arcir.ArcFunction) []Derived {
	out := make([]Derived, len(fn.VarTypes))
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		for ii := range b.Body {
			instr := &b.Body[ii]
			if instr.Kind == arcir.IProject {
				out[instr.Dst] = Derived{Kind: BorrowedFromSource, Source: instr.Value1}
			}
		}
	}
	return out
}
