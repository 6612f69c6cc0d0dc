// Package typepool implements the type Pool (spec §3.1): an interned,
// tagged store of types with O(1) structural equality via stable handles.
//
// Grounded on github.com/wdamron/poly's types.Type arena (_examples/mafm-poly)
// and on original_source/compiler/ori_types for the Tag/Idx vocabulary;
// realized here as a flat-vector arena of integer handles, the idiomatic
// Go answer to "cyclic graphs of named types" (spec §9: "use arenas +
// integer handles so all pointers are indices into flat vectors").
package typepool

// Idx is a 32-bit interned handle into the Pool. Two structurally equal
// types always share the same Idx (spec §3.1 invariant 1).
type Idx uint32

// Reserved, pre-allocated handles for primitive types (spec §3.1).
// These are stable across every Pool instance: index 0..N map to the
// same primitive regardless of what else gets interned later.
const (
	Invalid Idx = iota
	INT
	FLOAT
	BOOL
	STR
	CHAR
	BYTE
	UNIT
	NEVER
	ERROR
	ORDERING
	DURATION
	SIZE

	firstDynamicIdx
)

// Tag identifies the shape of a type (spec §3.1).
type Tag int

const (
	TagPrimitive Tag = iota
	TagVar
	TagBoundVar
	TagRigidVar
	TagNamed
	TagApplied
	TagList
	TagOption
	TagResult
	TagMap
	TagSet
	TagRange
	TagChannel
	TagTuple
	TagFunction
	TagProjection
	TagModuleNamespace
)

func (t Tag) String() string {
	switch t {
	case TagPrimitive:
		return "Primitive"
	case TagVar:
		return "Var"
	case TagBoundVar:
		return "BoundVar"
	case TagRigidVar:
		return "RigidVar"
	case TagNamed:
		return "Named"
	case TagApplied:
		return "Applied"
	case TagList:
		return "List"
	case TagOption:
		return "Option"
	case TagResult:
		return "Result"
	case TagMap:
		return "Map"
	case TagSet:
		return "Set"
	case TagRange:
		return "Range"
	case TagChannel:
		return "Channel"
	case TagTuple:
		return "Tuple"
	case TagFunction:
		return "Function"
	case TagProjection:
		return "Projection"
	case TagModuleNamespace:
		return "ModuleNamespace"
	default:
		return "?"
	}
}

var primitiveNames = map[Idx]string{
	INT: "Int", FLOAT: "Float", BOOL: "Bool", STR: "Str", CHAR: "Char",
	BYTE: "Byte", UNIT: "Unit", NEVER: "Never", ERROR: "<error>",
	ORDERING: "Ordering", DURATION: "Duration", SIZE: "Size",
}
