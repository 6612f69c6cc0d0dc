package borrow

import (
	"testing"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/typepool"
)

// readOnly(x) { y = Project(x, 0); return y } never consumes x: expect Borrowed.
func TestReadOnlyParamDowngradedToBorrowed(t *testing.T) {
	fn := &arcir.ArcFunction{
		Name:   "readOnly",
		Params: []arcir.ArcParam{{Var: 0, Ty: typepool.STR, Ownership: arcir.Owned}},
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IProject, Dst: 1, Ty: typepool.STR, Value1: 0, Field: 0},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	Infer([]*arcir.ArcFunction{fn})
	if fn.Params[0].Ownership != arcir.Borrowed {
		t.Fatalf("expected param 0 Borrowed, got %v", fn.Params[0].Ownership)
	}
}

// consuming(x) { construct Pair(x, x) } stores x into a constructor: expect Owned.
func TestConstructedParamStaysOwned(t *testing.T) {
	fn := &arcir.ArcFunction{
		Name:   "consuming",
		Params: []arcir.ArcParam{{Var: 0, Ty: typepool.STR, Ownership: arcir.Owned}},
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IConstruct, Dst: 1, Ty: typepool.STR, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Pair"}, Args: []arcir.ArcVarId{0, 0}},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	Infer([]*arcir.ArcFunction{fn})
	if fn.Params[0].Ownership != arcir.Owned {
		t.Fatalf("expected param 0 Owned, got %v", fn.Params[0].Ownership)
	}
}

// Interprocedural propagation: f calls g passing its param through, and g
// stores its param in a constructor. g's param is Owned directly, and f's
// is tightened to Owned through the call. Both must converge to Owned.
func TestMutualRecursionConvergesToOwned(t *testing.T) {
	f := &arcir.ArcFunction{
		Name:   "f",
		Params: []arcir.ArcParam{{Var: 0, Ty: typepool.STR}},
		Blocks: []arcir.ArcBlock{{
			ID:         0,
			Body:       []arcir.ArcInstr{{Kind: arcir.IApply, Dst: 1, Func: "g", Args: []arcir.ArcVarId{0}}},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	g := &arcir.ArcFunction{
		Name:   "g",
		Params: []arcir.ArcParam{{Var: 0, Ty: typepool.STR}},
		Blocks: []arcir.ArcBlock{{
			ID: 0,
			Body: []arcir.ArcInstr{
				{Kind: arcir.IConstruct, Dst: 1, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Box"}, Args: []arcir.ArcVarId{0}},
			},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	Infer([]*arcir.ArcFunction{f, g})
	if g.Params[0].Ownership != arcir.Owned {
		t.Fatalf("expected g's param Owned, got %v", g.Params[0].Ownership)
	}
	if f.Params[0].Ownership != arcir.Owned {
		t.Fatalf("expected f's param Owned (tightened via g), got %v", f.Params[0].Ownership)
	}
}

func TestInferDerivedTracksProjectionSource(t *testing.T) {
	fn := &arcir.ArcFunction{
		Name:     "proj",
		VarTypes: []typepool.Idx{typepool.STR, typepool.INT},
		Blocks: []arcir.ArcBlock{{
			ID:         0,
			Body:       []arcir.ArcInstr{{Kind: arcir.IProject, Dst: 1, Value1: 0, Field: 0}},
			Terminator: arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1},
		}},
	}
	derived := InferDerived(fn)
	if derived[1].Kind != BorrowedFromSource || derived[1].Source != 0 {
		t.Fatalf("expected var 1 BorrowedFromSource(0), got %+v", derived[1])
	}
}
