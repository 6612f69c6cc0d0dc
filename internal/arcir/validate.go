package arcir

import "fmt"

// Validate checks the structural invariants of spec §3.5: every
// variable has a unique defining site, the entry block is never a jump
// target of another block, and every terminator's successors exist.
func Validate(fn *ArcFunction) error {
	defined := make(map[ArcVarId]bool)
	for _, p := range fn.Params {
		if defined[p.Var] {
			return fmt.Errorf("%s: parameter %d redefines variable %d", fn.Name, p.Var, p.Var)
		}
		defined[p.Var] = true
	}
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		for _, p := range b.Params {
			if defined[p.Var] {
				return fmt.Errorf("%s: block %d param redefines variable %d", fn.Name, b.ID, p.Var)
			}
			defined[p.Var] = true
		}
		for ii := range b.Body {
			instr := &b.Body[ii]
			if dst, ok := instr.Defines(); ok {
				if defined[dst] {
					return fmt.Errorf("%s: block %d instr %d redefines variable %d", fn.Name, b.ID, ii, dst)
				}
				defined[dst] = true
			}
		}
		for _, succ := range b.Terminator.Successors() {
			if int(succ) >= len(fn.Blocks) {
				return fmt.Errorf("%s: block %d terminator targets out-of-range block %d", fn.Name, b.ID, succ)
			}
			if succ == fn.Entry {
				return fmt.Errorf("%s: entry block %d may not be a jump target (from block %d)", fn.Name, fn.Entry, b.ID)
			}
		}
	}
	return nil
}
