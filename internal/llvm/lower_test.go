package llvm

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/llvm/irwriter"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// TestLowerFunctionPhiFromBranchJoin builds `choose(b, x, y)`-shaped control flow:
// entry branches on a bool param, both arms jump to a join block that
// takes the chosen value as a phi'd block parameter.
func TestLowerFunctionPhiFromBranchJoin(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()

	b := arcir.NewBuilder("choose", []arcir.ArcParam{
		{Var: 0, Ty: typepool.BOOL},
		{Var: 1, Ty: typepool.INT},
		{Var: 2, Ty: typepool.INT},
	}, typepool.INT)

	joinParam := arcir.ArcVarId(3)
	thenBlk := b.NewBlock(nil)
	elseBlk := b.NewBlock(nil)
	join := b.NewBlock([]arcir.BlockParam{{Var: joinParam, Ty: typepool.INT}})

	b.Terminate(arcir.ArcTerminator{Kind: arcir.TBranch, Cond: 0, ThenBlock: thenBlk, ElseBlock: elseBlk})

	b.SetCurrent(thenBlk)
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TJump, Target: join, Args: []arcir.ArcVarId{1}})

	b.SetCurrent(elseBlk)
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TJump, Target: join, Args: []arcir.ArcVarId{2}})

	b.SetCurrent(join)
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: joinParam})

	fn := b.Finish()

	mod := irwriter.NewModule("test")
	LowerFunction(mod, fn, []string{"main"}, pool, types)
	out := mod.String()

	if !strings.Contains(out, "define i64 @_ori_main$choose(i1 %0, i64 %1, i64 %2)") {
		t.Fatalf("missing function signature:\n%s", out)
	}
	if !strings.Contains(out, "br i1 %0, label %bb1, label %bb2") {
		t.Fatalf("missing branch terminator:\n%s", out)
	}
	if !strings.Contains(out, "%3 = phi i64 [ %1, %bb1 ], [ %2, %bb2 ]") {
		t.Fatalf("missing phi node joining both arms:\n%s", out)
	}
	if !strings.Contains(out, "ret i64 %3") {
		t.Fatalf("missing return of the joined value:\n%s", out)
	}
}

// TestLowerFunctionConstantModuleGoldenIR golden-tests the full rendered
// LLVM IR text for a trivial function returning a literal, catching
// unintended changes to the module preamble, signature, or instruction
// formatting that a substring assertion like the test above would miss.
func TestLowerFunctionConstantModuleGoldenIR(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()

	b := arcir.NewBuilder("answer", nil, typepool.INT)
	b.Emit(arcir.ArcInstr{
		Kind: arcir.ILet,
		Dst:  0,
		Ty:   typepool.INT,
		Value: arcir.ArcValue{
			Kind:    arcir.ValueLiteral,
			Literal: arcir.LitValue{Kind: arcir.LitInt, Int: 42},
		},
	})
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 0})
	fn := b.Finish()

	mod := irwriter.NewModule("golden")
	LowerFunction(mod, fn, []string{"main"}, pool, types)

	snaps.MatchSnapshot(t, mod.String())
}

func TestLowerFunctionInvokeGetsPersonality(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()

	b := arcir.NewBuilder("may_throw", []arcir.ArcParam{{Var: 0, Ty: typepool.INT}}, typepool.INT)
	normal := b.NewBlock(nil)
	unwind := b.NewBlock(nil)
	b.Terminate(arcir.ArcTerminator{
		Kind: arcir.TInvoke, InvokeDst: 0, InvokeTy: typepool.INT, InvokeFunc: "_ori_main$risky",
		NormalBlock: normal, UnwindBlock: unwind,
	})
	b.SetCurrent(normal)
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 0})
	b.SetCurrent(unwind)
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TResume, ReturnValue: 0})
	fn := b.Finish()

	mod := irwriter.NewModule("test")
	LowerFunction(mod, fn, []string{"main"}, pool, types)
	out := mod.String()

	if !strings.Contains(out, "personality ptr @rust_eh_personality") {
		t.Fatalf("expected personality attribute, got:\n%s", out)
	}
	if !strings.Contains(out, "invoke i64 @_ori_main$risky() to label %bb1 unwind label %bb2") {
		t.Fatalf("expected invoke terminator, got:\n%s", out)
	}
	if !strings.Contains(out, "resume i64 %0") {
		t.Fatalf("expected resume terminator, got:\n%s", out)
	}
}
