package reuse

import (
	"testing"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/typepool"
)

func structTy(p *typepool.Pool, name string) typepool.Idx { return p.NewNamed(name) }

// RcDec(x) directly followed by a Construct of the same type: rewritten
// into a Reset/Reuse pair, no intervening observation of x.
func TestReuseMatchesSameTypeConstruct(t *testing.T) {
	pool := typepool.New()
	pairTy := structTy(pool, "Pair")

	fn := &arcir.ArcFunction{
		Name:     "f",
		VarTypes: []typepool.Idx{pairTy, typepool.INT, typepool.INT, pairTy},
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IRcDec, Var: 0},
				{Kind: arcir.IConstruct, Dst: 3, Ty: pairTy, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Pair"}, Args: []arcir.ArcVarId{1, 2}},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 3},
		}},
	}

	n := Apply(fn)
	if n != 1 {
		t.Fatalf("expected 1 reuse pair, got %d", n)
	}
	body := fn.Blocks[0].Body
	if len(body) != 2 || body[0].Kind != arcir.IReset || body[1].Kind != arcir.IReuse {
		t.Fatalf("expected [Reset, Reuse], got %+v", body)
	}
	if body[0].Token != body[1].Token {
		t.Fatalf("expected Reset and Reuse to share a token, got %d vs %d", body[0].Token, body[1].Token)
	}
	if body[1].Dst != 3 {
		t.Fatalf("expected Reuse to preserve the original destination, got %d", body[1].Dst)
	}
}

// A Construct of a different type than the preceding RcDec must not be
// rewritten.
func TestReuseSkipsDifferentType(t *testing.T) {
	pool := typepool.New()
	pairTy := structTy(pool, "Pair")
	otherTy := structTy(pool, "Other")

	fn := &arcir.ArcFunction{
		Name:     "f",
		VarTypes: []typepool.Idx{pairTy, otherTy},
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IRcDec, Var: 0},
				{Kind: arcir.IConstruct, Dst: 1, Ty: otherTy, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Other"}},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}

	n := Apply(fn)
	if n != 0 {
		t.Fatalf("expected 0 reuse pairs, got %d", n)
	}
	if fn.Blocks[0].Body[1].Kind != arcir.IConstruct {
		t.Fatalf("expected the Construct to survive untouched, got %+v", fn.Blocks[0].Body[1])
	}
}

// Reading the decremented variable again (e.g. via Project) before the
// matching Construct invalidates reuse — the safety invariant.
func TestReuseInvalidatedByInterveningRead(t *testing.T) {
	pool := typepool.New()
	pairTy := structTy(pool, "Pair")

	fn := &arcir.ArcFunction{
		Name:     "f",
		VarTypes: []typepool.Idx{pairTy, typepool.INT, pairTy},
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IRcDec, Var: 0},
				{Kind: arcir.IProject, Dst: 1, Value1: 0, Field: 0},
				{Kind: arcir.IConstruct, Dst: 2, Ty: pairTy, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Pair"}},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 2},
		}},
	}

	n := Apply(fn)
	if n != 0 {
		t.Fatalf("expected 0 reuse pairs after an intervening read of x, got %d", n)
	}
}
