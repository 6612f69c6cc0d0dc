// Package rcelim implements RC elimination over ARC IR (spec §4.6):
// iterated removal of redundant RcInc/RcDec pairs left behind by RC
// insertion and constructor reuse.
//
// Ported from original_source/compiler/ori_arc/src/rc_elim/mod.rs,
// which documents the four phases implemented here and the safety
// argument behind each (an Inc...Dec pair, Inc strictly before Dec in
// program order, is removable; Dec...Inc is never safe to remove since
// the Dec may have freed the value). References cited by the source —
// Swift's ARCMatchingSet, the Koka/Perceus paper §3.2, Lean 4's borrow
// analysis — describe the same family of passes.
package rcelim

import (
	"sort"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/borrow"
)

// candidate is a matched RcInc/RcDec pair eligible for removal.
type candidate struct {
	var_           arcir.ArcVarId
	block          int
	incPos, decPos int
}

// topDownState / bottomUpState mirror the two-state lattices the
// intra-block passes track per variable.
type tdState struct {
	incPos  int
	mightBe bool
}

type buState struct {
	decPos  int
	mightBe bool
}

// Eliminate runs the base elimination (phases 1-2: intra-block
// bidirectional dataflow plus single-predecessor cross-block pairs),
// iterated to a fixpoint, and returns the number of pairs removed.
func Eliminate(fn *arcir.ArcFunction) int {
	total := 0
	for {
		intra := eliminateOnce(fn)
		cross := eliminateCrossBlockPairs(fn)
		n := intra + cross
		if n == 0 {
			break
		}
		total += n
	}
	return total
}

// EliminateDataflow extends Eliminate with the ownership-aware phase (4)
// and the multi-predecessor join phase (3), using derived per-variable
// ownership from the borrow package. Returns the total pairs eliminated,
// including the base Eliminate pass.
func EliminateDataflow(fn *arcir.ArcFunction, derived []borrow.Derived) int {
	base := Eliminate(fn)

	ownershipEliminated := 0
	removals := map[int]map[int]bool{}
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		for ii, instr := range b.Body {
			var v arcir.ArcVarId
			switch {
			case instr.Kind == arcir.IRcInc && instr.Count == 1:
				v = instr.Var
			case instr.Kind == arcir.IRcDec:
				v = instr.Var
			default:
				continue
			}
			if int(v) >= len(derived) || derived[v].Kind != borrow.BorrowedFromSource {
				continue
			}
			source := derived[v].Source
			sourceDecremented := false
			for _, prior := range b.Body[:ii] {
				if prior.Kind == arcir.IRcDec && prior.Var == source {
					sourceDecremented = true
					break
				}
			}
			if !sourceDecremented {
				addRemoval(removals, bi, ii)
				ownershipEliminated++
			}
		}
	}
	if len(removals) > 0 {
		removeByIndex(fn, removals)
	}

	join := eliminateJoinPairs(fn)

	return base + ownershipEliminated + join
}

// eliminateOnce runs one round of intra-block bidirectional elimination
// and applies whatever it finds. Returns the number of pairs removed.
func eliminateOnce(fn *arcir.ArcFunction) int {
	var candidates []candidate
	for bi := range fn.Blocks {
		body := fn.Blocks[bi].Body
		topDownBlockPass(bi, body, &candidates)
		bottomUpBlockPass(bi, body, &candidates)
	}
	if len(candidates) == 0 {
		return 0
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.block != b.block {
			return a.block < b.block
		}
		if a.incPos != b.incPos {
			return a.incPos < b.incPos
		}
		return a.decPos < b.decPos
	})
	dedup := candidates[:0]
	for i, c := range candidates {
		if i > 0 {
			p := dedup[len(dedup)-1]
			if p.block == c.block && p.incPos == c.incPos && p.decPos == c.decPos {
				continue
			}
		}
		dedup = append(dedup, c)
	}

	return applyEliminations(fn, dedup)
}

func topDownBlockPass(blockIdx int, body []arcir.ArcInstr, candidates *[]candidate) {
	state := map[arcir.ArcVarId]tdState{}
	for j, instr := range body {
		switch {
		case instr.Kind == arcir.IRcInc:
			if instr.Count == 1 {
				state[instr.Var] = tdState{incPos: j}
			} else {
				invalidateTD(state, instr.Var)
			}
		case instr.Kind == arcir.IRcDec:
			if s, ok := state[instr.Var]; ok && !s.mightBe {
				*candidates = append(*candidates, candidate{instr.Var, blockIdx, s.incPos, j})
			}
			delete(state, instr.Var)
		default:
			for _, used := range instr.UsedVars() {
				invalidateTD(state, used)
			}
		}
	}
}

func invalidateTD(state map[arcir.ArcVarId]tdState, v arcir.ArcVarId) {
	if s, ok := state[v]; ok && !s.mightBe {
		s.mightBe = true
		state[v] = s
	}
}

func bottomUpBlockPass(blockIdx int, body []arcir.ArcInstr, candidates *[]candidate) {
	state := map[arcir.ArcVarId]buState{}
	for j := len(body) - 1; j >= 0; j-- {
		instr := body[j]
		switch {
		case instr.Kind == arcir.IRcDec:
			state[instr.Var] = buState{decPos: j}
		case instr.Kind == arcir.IRcInc:
			if instr.Count == 1 {
				if s, ok := state[instr.Var]; ok && !s.mightBe {
					*candidates = append(*candidates, candidate{instr.Var, blockIdx, j, s.decPos})
				}
				delete(state, instr.Var)
			} else {
				invalidateBU(state, instr.Var)
			}
		default:
			for _, used := range instr.UsedVars() {
				invalidateBU(state, used)
			}
		}
	}
}

func invalidateBU(state map[arcir.ArcVarId]buState, v arcir.ArcVarId) {
	if s, ok := state[v]; ok && !s.mightBe {
		s.mightBe = true
		state[v] = s
	}
}

func applyEliminations(fn *arcir.ArcFunction, candidates []candidate) int {
	removals := map[int]map[int]bool{}
	for _, c := range candidates {
		addRemoval(removals, c.block, c.incPos)
		addRemoval(removals, c.block, c.decPos)
	}
	removeByIndex(fn, removals)
	return len(candidates)
}

func addRemoval(removals map[int]map[int]bool, block, pos int) {
	set, ok := removals[block]
	if !ok {
		set = map[int]bool{}
		removals[block] = set
	}
	set[pos] = true
}

func removeByIndex(fn *arcir.ArcFunction, removals map[int]map[int]bool) {
	for blockIdx, remove := range removals {
		b := &fn.Blocks[blockIdx]
		old := b.Body
		out := make([]arcir.ArcInstr, 0, len(old)-len(remove))
		for i, instr := range old {
			if !remove[i] {
				out = append(out, instr)
			}
		}
		b.Body = out
	}
}

// eliminateCrossBlockPairs removes RcInc(x) trailing a block P / RcDec(x)
// leading its sole successor B, where neither P's terminator nor
// anything between the Inc and P's end uses x, and nothing between B's
// start and the Dec uses x either (spec §4.6 phase 2).
func eliminateCrossBlockPairs(fn *arcir.ArcFunction) int {
	preds := fn.Predecessors()
	var removals []struct{ block, pos int }

	for blockIdx := range fn.Blocks {
		bid := arcir.ArcBlockId(blockIdx)
		ps := preds[bid]
		if len(ps) != 1 || ps[0] == bid {
			continue
		}
		predIdx := int(ps[0])

		succBody := fn.Blocks[blockIdx].Body
		var leadingDecs []struct {
			pos int
			v   arcir.ArcVarId
		}
		for j, instr := range succBody {
			if instr.Kind != arcir.IRcDec {
				break
			}
			leadingDecs = append(leadingDecs, struct {
				pos int
				v   arcir.ArcVarId
			}{j, instr.Var})
		}
		if len(leadingDecs) == 0 {
			continue
		}

		termUses := map[arcir.ArcVarId]bool{}
		for _, v := range fn.Blocks[predIdx].Terminator.UsedVars() {
			termUses[v] = true
		}
		predBody := fn.Blocks[predIdx].Body

		for _, ld := range leadingDecs {
			if termUses[ld.v] {
				continue
			}
			incPos := -1
			for j := len(predBody) - 1; j >= 0; j-- {
				other := predBody[j]
				if other.Kind == arcir.IRcInc && other.Var == ld.v && other.Count == 1 {
					incPos = j
					break
				}
				if usesVar(&other, ld.v) {
					break
				}
			}
			if incPos >= 0 {
				removals = append(removals,
					struct{ block, pos int }{predIdx, incPos},
					struct{ block, pos int }{blockIdx, ld.pos},
				)
			}
		}
	}

	if len(removals) == 0 {
		return 0
	}
	byBlock := map[int]map[int]bool{}
	for _, r := range removals {
		addRemoval(byBlock, r.block, r.pos)
	}
	removeByIndex(fn, byBlock)
	return len(removals) / 2
}

func usesVar(instr *arcir.ArcInstr, v arcir.ArcVarId) bool {
	for _, u := range instr.UsedVars() {
		if u == v {
			return true
		}
	}
	return false
}

// eliminateJoinPairs implements phase 3: forward dataflow over
// available trailing RcIncs, intersected at multi-predecessor joins.
func eliminateJoinPairs(fn *arcir.ArcFunction) int {
	preds := fn.Predecessors()
	numBlocks := len(fn.Blocks)

	availableOut := make([]map[arcir.ArcVarId]bool, numBlocks)
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		termUses := map[arcir.ArcVarId]bool{}
		for _, v := range b.Terminator.UsedVars() {
			termUses[v] = true
		}
		trailing := map[arcir.ArcVarId]bool{}
		for j := len(b.Body) - 1; j >= 0; j-- {
			instr := b.Body[j]
			switch {
			case instr.Kind == arcir.IRcInc && instr.Count == 1 && !termUses[instr.Var]:
				trailing[instr.Var] = true
			case instr.Kind == arcir.IRcDec:
				delete(trailing, instr.Var)
			default:
				for _, used := range instr.UsedVars() {
					delete(trailing, used)
				}
			}
		}
		availableOut[bi] = trailing
	}

	var removals []struct{ block, pos int }
	for blockIdx := range fn.Blocks {
		bid := arcir.ArcBlockId(blockIdx)
		blockPreds := preds[bid]
		if len(blockPreds) < 2 {
			continue
		}

		var available map[arcir.ArcVarId]bool
		for _, p := range blockPreds {
			out := availableOut[p]
			if available == nil {
				available = map[arcir.ArcVarId]bool{}
				for v := range out {
					available[v] = true
				}
				continue
			}
			for v := range available {
				if !out[v] {
					delete(available, v)
				}
			}
		}
		if len(available) == 0 {
			continue
		}

		body := fn.Blocks[blockIdx].Body
		for j, instr := range body {
			if instr.Kind != arcir.IRcDec {
				break
			}
			if !available[instr.Var] {
				continue
			}
			removals = append(removals, struct{ block, pos int }{blockIdx, j})
			for _, p := range blockPreds {
				predBody := fn.Blocks[p].Body
				for pi := len(predBody) - 1; pi >= 0; pi-- {
					if predBody[pi].Kind == arcir.IRcInc && predBody[pi].Var == instr.Var && predBody[pi].Count == 1 {
						removals = append(removals, struct{ block, pos int }{int(p), pi})
						break
					}
				}
			}
		}
	}

	if len(removals) == 0 {
		return 0
	}
	byBlock := map[int]map[int]bool{}
	for _, r := range removals {
		addRemoval(byBlock, r.block, r.pos)
	}
	removeByIndex(fn, byBlock)
	return len(removals) / 3
}
