// Package arcir implements the ARC IR (spec §3.5): a basic-block,
// SSA-like intermediate representation shared by borrow inference, RC
// insertion, RC elimination, and constructor reuse.
//
// Ported directly from original_source/compiler/ori_arc/src/ir.rs (the
// Rust `ArcFunction`/`ArcBlock`/`ArcInstr`/`ArcTerminator` hierarchy),
// following the teacher's preference (sunholo-data-ailang) for small
// tagged Go structs over generated code, and spec §9's "use arenas +
// integer handles" guidance for VarId/BlockId.
package arcir

import "github.com/oriproj/ori/internal/typepool"

// ArcVarId identifies a unique SSA-like value within one ArcFunction.
type ArcVarId uint32

// ArcBlockId identifies a basic block within one ArcFunction.
type ArcBlockId uint32

// Ownership is a parameter's refinement state (spec §3.5, §4.4).
type Ownership int

const (
	Owned Ownership = iota
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "borrowed"
	}
	return "owned"
}

// LitValue is a literal constant value in the ARC IR.
type LitValue struct {
	Kind LitKind
	Int  int64
	Flt  uint64 // bit pattern, to keep LitValue comparable
	Bool bool
	Str  string
	Chr  rune
	Unit struct{}
}

type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitChar
	LitUnit
)

// PrimOpKind distinguishes binary from unary primitive operations.
type PrimOpKind int

const (
	PrimBinary PrimOpKind = iota
	PrimUnary
)

// PrimOp wraps a binary or unary operator name (owned by the external
// AST package in the real compiler; here a plain string is enough for
// the ARC-level passes, which never interpret the operator itself).
type PrimOp struct {
	Kind PrimOpKind
	Op   string
}

// ArcValue is the right-hand side of a Let instruction.
type ArcValue struct {
	Var     ArcVarId
	Literal LitValue
	PrimOp  PrimOp
	PrimArgs []ArcVarId
	Kind    ArcValueKind
}

type ArcValueKind int

const (
	ValueVar ArcValueKind = iota
	ValueLiteral
	ValuePrimOp
)

// CtorKind enumerates constructor shapes (spec §3.5).
type CtorKind struct {
	Kind    CtorTag
	Name    string // Struct name / Closure func
	Variant uint32 // EnumVariant index
}

type CtorTag int

const (
	CtorStruct CtorTag = iota
	CtorEnumVariant
	CtorTuple
	CtorListLiteral
	CtorMapLiteral
	CtorSetLiteral
	CtorClosure
)

// ArcParam is a function parameter with an ownership annotation (spec
// §3.5; ownership starts Owned and is refined by borrow inference,
// spec §4.4).
type ArcParam struct {
	Var       ArcVarId
	Ty        typepool.Idx
	Ownership Ownership
}
