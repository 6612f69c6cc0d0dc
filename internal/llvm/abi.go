package llvm

import (
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// ParamAbi describes how one function parameter is passed (spec §4.8).
type ParamAbi struct {
	Direct bool   // true: by value in registers; false: by pointer
	Type   string // literal LLVM type (Direct) or pointee type (by-pointer)
}

// ReturnKind distinguishes the three return-passing strategies (spec §4.8).
type ReturnKind int

const (
	RetVoid ReturnKind = iota
	RetDirect
	RetSret
)

// FunctionAbi is the computed parameter/return-passing strategy for one
// function (spec §4.8). When Return is RetSret, the sret pointer is
// conventionally parameter index 0 carrying `noalias` and `sret(ty)`
// attributes -- callers building the signature append it themselves,
// since only derived-trait synthesis (derive.go) currently builds
// signatures from a FunctionAbi.
type FunctionAbi struct {
	Params      []ParamAbi
	Return      ReturnKind
	RetLLVMType string
}

// directPassMaxBytes is the largest aggregate passed by value rather
// than through an sret-annotated pointer: two 64-bit registers, the
// classification threshold real ABIs (e.g. System V x86-64) use for
// "does this struct fit in RAX:RDX". Spec §4.8 only says "small
// aggregates pass direct; large aggregates use sret" without a number;
// this is the Open Question decision (recorded in DESIGN.md).
const directPassMaxBytes = 16

// ByteSize computes the literal LLVM-level size of idx, recursing
// through tuple elements and struct fields. Ordinary RC-managed named
// types collapse to a single pointer (8 bytes) everywhere *except*
// inside derived-trait synthesis, which asks ByteSize about the literal
// struct shape directly (see package doc).
func ByteSize(types *registry.TypeRegistry, pool *typepool.Pool, idx typepool.Idx) int {
	switch idx {
	case typepool.INT, typepool.FLOAT, typepool.DURATION, typepool.SIZE:
		return 8
	case typepool.BOOL, typepool.BYTE:
		return 1
	case typepool.CHAR:
		return 4
	case typepool.UNIT:
		return 0
	case typepool.STR:
		return 16
	case typepool.ORDERING:
		return 1
	}
	t := pool.Get(idx)
	switch t.Tag {
	case typepool.TagTuple:
		total := 0
		for _, f := range t.Params {
			total += ByteSize(types, pool, f)
		}
		return total
	case typepool.TagNamed, typepool.TagApplied:
		if entry, ok := types.Lookup(t.Name); ok && entry.Kind == registry.KindStruct {
			total := 0
			for _, f := range entry.Fields {
				total += ByteSize(types, pool, f.Ty)
			}
			return total
		}
		return 8 // enum / newtype / alias / unresolved: RC pointer
	default:
		return 8
	}
}

// ComputeAbi computes the FunctionAbi for a literal-value signature
// (spec §4.8's ABI paragraph). Used by derive.go; ordinary ArcFunction
// lowering never calls this since its parameters/returns are always
// pointer-represented (trivially direct, pointer-sized).
func ComputeAbi(types *registry.TypeRegistry, pool *typepool.Pool, paramTypes []typepool.Idx, retType typepool.Idx) FunctionAbi {
	abi := FunctionAbi{Params: make([]ParamAbi, len(paramTypes))}
	for i, p := range paramTypes {
		direct := ByteSize(types, pool, p) <= directPassMaxBytes
		abi.Params[i] = ParamAbi{Direct: direct, Type: LiteralTypeRef(types, pool, p)}
	}
	switch {
	case retType == typepool.UNIT:
		abi.Return = RetVoid
	case ByteSize(types, pool, retType) > directPassMaxBytes:
		abi.Return = RetSret
		abi.RetLLVMType = LiteralTypeRef(types, pool, retType)
	default:
		abi.Return = RetDirect
		abi.RetLLVMType = LiteralTypeRef(types, pool, retType)
	}
	return abi
}
