package typepool

// Type is the shape stored at a Pool slot. Which fields are meaningful
// depends on Tag — this is the Go analogue of the original Rust `enum
// TypeKind` (spec §9: "tagged variants... plus capability sets... no
// vtables").
type Type struct {
	Tag Tag

	// Var / BoundVar / RigidVar.
	VarID uint32 // stable identity for this variable
	Rank  uint32 // scope depth at allocation (HM let-generalization)
	Link  Idx    // union-find link; Invalid means unlinked (Var only)
	Name  string // RigidVar/BoundVar display name; Named/Projection/ModuleNamespace name

	// Named / Applied.
	Params []Idx // Applied type arguments; Function params; Tuple elements

	// Single-inner-type shapes: List, Option, Set, Range, Channel use Elem
	// as the element type; Function uses Elem as the return type.
	Elem Idx

	// Map: Elem = key type, Elem2 = value type. Result: Elem = Ok, Elem2 = Err.
	Elem2 Idx

	// Projection: Self.AssocName under TraitName.
	TraitName string
	AssocName string
	Base      Idx // Projection base type
}

// IsPrimitive reports whether idx names one of the fixed primitive handles.
func IsPrimitive(idx Idx) bool {
	_, ok := primitiveNames[idx]
	return ok
}

// IsRefCounted reports whether values of this type are heap-allocated and
// managed by ARC (spec §3.5, §4.4-§4.6). All non-primitive shapes qualify;
// the fixed primitive handles (including Str — strings carry their own
// runtime-managed buffer rather than generic RcInc/RcDec traffic, spec §6's
// `ori_str_*` runtime symbols) do not.
func IsRefCounted(idx Idx) bool {
	return idx != Invalid && !IsPrimitive(idx)
}
