// Package reuse implements Perceus-style constructor memory reuse over
// ARC IR (spec §4.7): when a Construct whose declared type matches an
// earlier RcDec's variable type appears in the same block, the dead
// allocation's memory is reset and threaded through as a reuse token
// instead of paying for a fresh allocation.
//
// Grounded on original_source/compiler/ori_arc's reuse stage, which
// runs between RC insertion and RC elimination in the documented
// pipeline order (07 rc_insert -> 09 reuse -> 08 rc_elim): reuse
// candidates are matched on the RC-inserted IR. The later elimination
// pass matches only RcInc/RcDec pairs; it leaves the Reset/Reuse pairs
// this pass introduces untouched.
package reuse

import (
	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/typepool"
)

// Apply rewrites every block of fn in place: each Construct matched
// against an earlier, still-available RcDec of a variable with the same
// type (spec §4.7: "same size class") becomes a Reset+Reuse pair
// instead of a fresh Construct. Matching never crosses an instruction
// that reads the decremented variable — the safety invariant from spec
// §4.7 ("not read after the Reset except through the Reuse token").
// Returns the number of Reset/Reuse pairs introduced.
func Apply(fn *arcir.ArcFunction) int {
	total := 0
	for bi := range fn.Blocks {
		total += applyBlock(fn, &fn.Blocks[bi])
	}
	return total
}

type pendingReset struct {
	pos int // index into out where the Reset now lives
	v   arcir.ArcVarId
}

func applyBlock(fn *arcir.ArcFunction, b *arcir.ArcBlock) int {
	var available []pendingReset
	var out []arcir.ArcInstr
	matches := 0
	nextToken := arcir.ArcVarId(len(fn.VarTypes))

	invalidate := func(v arcir.ArcVarId) {
		for i := len(available) - 1; i >= 0; i-- {
			if available[i].v == v {
				available = append(available[:i], available[i+1:]...)
			}
		}
	}

	for _, instr := range b.Body {
		switch instr.Kind {
		case arcir.IRcDec:
			available = append(available, pendingReset{pos: len(out), v: instr.Var})
			out = append(out, instr)

		case arcir.IConstruct:
			matchIdx := -1
			for i := len(available) - 1; i >= 0; i-- {
				if fn.VarType(available[i].v) == instr.Ty {
					matchIdx = i
					break
				}
			}
			if matchIdx < 0 {
				out = append(out, instr)
				continue
			}

			m := available[matchIdx]
			available = append(available[:matchIdx], available[matchIdx+1:]...)

			token := nextToken
			nextToken++
			out[m.pos] = arcir.ArcInstr{Kind: arcir.IReset, Value1: m.v, Token: token}
			out = append(out, arcir.ArcInstr{
				Kind:  arcir.IReuse,
				Dst:   instr.Dst,
				Ty:    instr.Ty,
				Ctor:  instr.Ctor,
				Args:  instr.Args,
				Token: token,
			})
			matches++

		default:
			// Any instruction reading a pending-reset variable (besides
			// the bookkeeping above) might still observe its identity,
			// so it can no longer be reused.
			for _, used := range instr.UsedVars() {
				invalidate(used)
			}
			out = append(out, instr)
		}
	}

	b.Body = out
	// Freshly minted tokens carry no ARC-relevant type of their own (the
	// Reset/Reuse expansion threads a raw null-or-pointer value, tested
	// with IsShared); record Bool as a harmless placeholder so VarTypes
	// stays dense and in bounds for every emitted ArcVarId.
	for v := arcir.ArcVarId(len(fn.VarTypes)); v < nextToken; v++ {
		fn.VarTypes = append(fn.VarTypes, typepool.BOOL)
	}
	return matches
}
