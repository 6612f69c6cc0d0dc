// Package llvm implements LLVM-IR lowering (spec §4.8): ABI computation,
// ArcFunction-to-textual-IR translation, derived-trait synthesis, and EH
// scaffolding. It emits the `.ll` textual format through
// internal/llvm/irwriter rather than binding the LLVM C API, per
// SPEC_FULL.md §4.8's "linker invocation details... out of scope"
// framing.
//
// Two value representations coexist here, matching the two places
// struct-shaped data shows up:
//
//   - Ordinary ArcFunction-lowered code (internal/lower's output) always
//     sees structs/enums/lists/... as a single `ptr` to an
//     ori_rc_alloc-provided heap box (spec §4.8's Construct recipe,
//     spec §6's runtime ABI). RcInc/RcDec/IsShared only make sense
//     against that pointer. See LLVMTypeOf.
//   - Derived-trait method synthesis (spec §4.8's derivation recipes)
//     operates on the literal field values of Self directly -- "Clone...
//     (ABI sret handles large structs)" only makes sense if Self can be
//     a genuine multi-field aggregate rather than an opaque pointer. See
//     LiteralTypeRef/StructDecl and abi.go's ComputeAbi.
package llvm

import (
	"fmt"
	"strings"

	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// LLVMTypeOf renders idx as ordinary ArcFunction-lowered code sees it.
func LLVMTypeOf(idx typepool.Idx) string {
	switch idx {
	case typepool.INT, typepool.DURATION, typepool.SIZE:
		return "i64"
	case typepool.FLOAT:
		return "double"
	case typepool.BOOL:
		return "i1"
	case typepool.BYTE:
		return "i8"
	case typepool.CHAR:
		return "i32"
	case typepool.UNIT:
		return "void"
	case typepool.STR:
		return "%ori.str"
	case typepool.ORDERING:
		return "i8"
	default:
		return "ptr"
	}
}

// LiteralTypeRef renders idx as its literal aggregate shape: struct types
// reference their declared name (`%Point`), tuples expand anonymously
// (`{ i64, i64 }`), everything else falls back to LLVMTypeOf. Used by
// derived-trait synthesis, ComputeAbi, and construct.go's tuple layouts.
func LiteralTypeRef(types *registry.TypeRegistry, pool *typepool.Pool, idx typepool.Idx) string {
	if idx == typepool.STR {
		return "%ori.str"
	}
	t := pool.Get(idx)
	switch t.Tag {
	case typepool.TagTuple:
		parts := make([]string, len(t.Params))
		for i, f := range t.Params {
			parts[i] = LiteralTypeRef(types, pool, f)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case typepool.TagNamed, typepool.TagApplied:
		if entry, ok := types.Lookup(t.Name); ok && entry.Kind == registry.KindStruct {
			return "%" + entry.Name
		}
		return "ptr"
	default:
		return LLVMTypeOf(idx)
	}
}

// StructDecl renders the `%Name = type { ... }` declaration for a struct
// registry entry, used both by derived-trait synthesis and by ordinary
// Construct lowering (which still needs the literal layout to compute
// field offsets even though the ArcVarId holding it is a ptr).
func StructDecl(types *registry.TypeRegistry, pool *typepool.Pool, entry *registry.TypeEntry) string {
	parts := make([]string, len(entry.Fields))
	for i, f := range entry.Fields {
		parts[i] = LiteralTypeRef(types, pool, f.Ty)
	}
	return fmt.Sprintf("%%%s = type { %s }", entry.Name, strings.Join(parts, ", "))
}
