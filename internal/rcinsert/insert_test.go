package rcinsert

import (
	"testing"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/typepool"
)

func countKind(body []arcir.ArcInstr, k arcir.InstrKind) int {
	n := 0
	for _, i := range body {
		if i.Kind == k {
			n++
		}
	}
	return n
}

// f(x: Owned Box) { g(x); h(x) } — x flows into two owned call positions,
// so the first use needs a dup (RcInc) and the var is consumed exactly once
// for real by the second (no matching use after, so no trailing RcDec).
func TestDupInsertedWhenValueReusedAcrossOwnedCalls(t *testing.T) {
	boxTy := typepool.New().NewNamed("Box")
	fn := &arcir.ArcFunction{
		Name:     "f",
		Params:   []arcir.ArcParam{{Var: 0, Ty: boxTy, Ownership: arcir.Owned}},
		VarTypes: []typepool.Idx{boxTy, typepool.UNIT, typepool.UNIT},
		Entry:    0,
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IApply, Dst: 1, Ty: typepool.UNIT, Func: "g", Args: []arcir.ArcVarId{0}},
				{Kind: arcir.IApply, Dst: 2, Ty: typepool.UNIT, Func: "h", Args: []arcir.ArcVarId{0}},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 2},
		}},
	}
	unknown := func(string, int) (bool, bool) { return false, false }
	Insert(fn, unknown)

	body := fn.Blocks[0].Body
	if got := countKind(body, arcir.IRcInc); got != 1 {
		t.Fatalf("expected exactly 1 RcInc, got %d in %+v", got, body)
	}
	if got := countKind(body, arcir.IRcDec); got != 0 {
		t.Fatalf("expected 0 RcDec (x is consumed, not left dangling), got %d", got)
	}
}

// f(x: Owned Box) { y = Project(x, 0); return y } — x is produced (as a
// parameter) and never passed to an owned position, so it must be
// explicitly dropped since it's never consumed by anything.
func TestDeadOwnedParamGetsDrop(t *testing.T) {
	boxTy := typepool.New().NewNamed("Box")
	fn := &arcir.ArcFunction{
		Name:     "f",
		Params:   []arcir.ArcParam{{Var: 0, Ty: boxTy, Ownership: arcir.Owned}},
		VarTypes: []typepool.Idx{boxTy, typepool.INT},
		Entry:    0,
		Blocks: []arcir.ArcBlock{{
			ID:         0,
			Body:       []arcir.ArcInstr{{Kind: arcir.IProject, Dst: 1, Ty: typepool.INT, Value1: 0, Field: 0}},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	unknown := func(string, int) (bool, bool) { return false, false }
	Insert(fn, unknown)

	body := fn.Blocks[0].Body
	if got := countKind(body, arcir.IRcDec); got != 1 {
		t.Fatalf("expected exactly 1 RcDec for the dead param, got %d in %+v", got, body)
	}
}

// A Borrowed parameter must never receive a trailing RcDec even when it
// is never used at all (unlike an Owned dead parameter).
func TestBorrowedParamNeverDropped(t *testing.T) {
	fn := &arcir.ArcFunction{
		Name:     "f",
		Params:   []arcir.ArcParam{{Var: 0, Ty: typepool.STR, Ownership: arcir.Borrowed}},
		VarTypes: []typepool.Idx{typepool.STR, typepool.UNIT},
		Entry:    0,
		Blocks: []arcir.ArcBlock{{
			ID:         0,
			Body:       []arcir.ArcInstr{{Kind: arcir.ILet, Dst: 1, Ty: typepool.UNIT, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: arcir.LitValue{Kind: arcir.LitUnit}}}},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	unknown := func(string, int) (bool, bool) { return false, false }
	Insert(fn, unknown)

	if got := countKind(fn.Blocks[0].Body, arcir.IRcDec); got != 0 {
		t.Fatalf("expected 0 RcDec for unused borrowed param, got %d", got)
	}
}
