package arcir

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oriproj/ori/internal/typepool"
)

func TestValidateRejectsEntryAsJumpTarget(t *testing.T) {
	fn := &ArcFunction{
		Name:  "f",
		Entry: 0,
		Blocks: []ArcBlock{
			{ID: 0, Terminator: ArcTerminator{Kind: TJump, Target: 1}},
			{ID: 1, Terminator: ArcTerminator{Kind: TJump, Target: 0}},
		},
	}
	if err := Validate(fn); err == nil {
		t.Fatal("expected validation error for entry-as-jump-target")
	}
}

func TestValidateAcceptsWellFormedFunction(t *testing.T) {
	b := NewBuilder("f", []ArcParam{{Var: 0, Ty: typepool.INT, Ownership: Owned}}, typepool.INT)
	b.Terminate(ArcTerminator{Kind: TReturn, ReturnValue: 0})
	fn := b.Finish()
	if err := Validate(fn); err != nil {
		t.Fatalf("expected valid function, got %v", err)
	}
}

func TestValidateRejectsDoubleDefinition(t *testing.T) {
	fn := &ArcFunction{
		Name:  "f",
		Entry: 0,
		Blocks: []ArcBlock{
			{ID: 0, Body: []ArcInstr{
				{Kind: ILet, Dst: 1, Ty: typepool.INT, Value: ArcValue{Kind: ValueLiteral, Literal: LitValue{Kind: LitInt, Int: 1}}},
				{Kind: ILet, Dst: 1, Ty: typepool.INT, Value: ArcValue{Kind: ValueLiteral, Literal: LitValue{Kind: LitInt, Int: 2}}},
			}, Terminator: ArcTerminator{Kind: TReturn, ReturnValue: 1}},
		},
	}
	if err := Validate(fn); err == nil {
		t.Fatal("expected validation error for double-defined variable")
	}
}

func TestBuilderProducesStructurallyIdenticalFunctions(t *testing.T) {
	build := func() *ArcFunction {
		b := NewBuilder("f", []ArcParam{{Var: 0, Ty: typepool.INT, Ownership: Owned}}, typepool.INT)
		b.Terminate(ArcTerminator{Kind: TReturn, ReturnValue: 0})
		return b.Finish()
	}
	first, second := build(), build()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("two builds of the same function should be structurally identical (-first +second):\n%s", diff)
	}
}
