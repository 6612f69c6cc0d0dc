package llvm

import (
	"fmt"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// Value representation notes (see types.go's package doc): structs and
// tuples get a typed literal layout (each field keeps its own LLVM
// type, offsets from the registry/tuple shape); enum variants, list
// literals, and map/set literals share one "word array" layout --
// `{ i64 tag, ptr payload }` for enums, a bare `ptr` to an array of i64
// slots for lists/maps/sets -- where every element is coerced to a
// 64-bit word (emitToWord/emitFromWord) regardless of its real type.
// This keeps a uniform, variant-agnostic box shape without needing a
// concrete LLVM struct type per enum variant.

func (fl *funcLowerer) literalAggregateType(idx typepool.Idx) string {
	t := fl.pool.Get(idx)
	if t.Tag == typepool.TagNamed || t.Tag == typepool.TagApplied {
		if entry, ok := fl.types.Lookup(t.Name); ok && entry.Kind == registry.KindStruct {
			fl.mod.DeclareStruct(entry.Name, StructDecl(fl.types, fl.pool, entry))
		}
	}
	return LiteralTypeRef(fl.types, fl.pool, idx)
}

func (fl *funcLowerer) enumEntry(idx typepool.Idx) (*registry.TypeEntry, bool) {
	t := fl.pool.Get(idx)
	if t.Tag != typepool.TagNamed && t.Tag != typepool.TagApplied {
		return nil, false
	}
	entry, ok := fl.types.Lookup(t.Name)
	if !ok || entry.Kind != registry.KindEnum {
		return nil, false
	}
	return entry, true
}

func (fl *funcLowerer) lowerProject(instr *arcir.ArcInstr) {
	srcTy := fl.fn.VarType(instr.Value1)
	if _, ok := fl.enumEntry(srcTy); ok {
		fl.projectEnumPayload(instr)
		return
	}
	literalTy := fl.literalAggregateType(srcTy)
	dstTy := LLVMTypeOf(fl.fn.VarType(instr.Dst))
	gep := fl.freshLabel("proj")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d", gep, literalTy, varRef(instr.Value1), instr.Field))
	fl.f.Emit(fmt.Sprintf("%s = load %s, ptr %%%s", varRef(instr.Dst), dstTy, gep))
}

// projectEnumPayload reads the Field'th word out of the variant's
// payload array and converts it back to the destination's real type.
func (fl *funcLowerer) projectEnumPayload(instr *arcir.ArcInstr) {
	payloadGep := fl.freshLabel("payloadslot")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 1", payloadGep, varRef(instr.Value1)))
	payloadPtr := fl.freshLabel("payload")
	fl.f.Emit(fmt.Sprintf("%%%s = load ptr, ptr %%%s", payloadPtr, payloadGep))
	wordGep := fl.freshLabel("wordslot")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds i64, ptr %%%s, i64 %d", wordGep, payloadPtr, instr.Field))
	word := fl.freshLabel("word")
	fl.f.Emit(fmt.Sprintf("%%%s = load i64, ptr %%%s", word, wordGep))
	fl.emitFromWord(varRef(instr.Dst), "%"+word, LLVMTypeOf(fl.fn.VarType(instr.Dst)))
}

// emitToWord coerces v's value into a 64-bit word, boxing it one level
// deeper first if it doesn't already fit (only %ori.str, at 16 bytes,
// needs that).
func (fl *funcLowerer) emitToWord(v arcir.ArcVarId) string {
	ty := LLVMTypeOf(fl.fn.VarType(v))
	switch ty {
	case "i64":
		return varRef(v)
	case "i1", "i8", "i32":
		tmp := fl.freshLabel("word")
		fl.f.Emit(fmt.Sprintf("%%%s = zext %s %s to i64", tmp, ty, varRef(v)))
		return "%" + tmp
	case "double":
		tmp := fl.freshLabel("word")
		fl.f.Emit(fmt.Sprintf("%%%s = bitcast double %s to i64", tmp, varRef(v)))
		return "%" + tmp
	case "%ori.str":
		box := fl.freshLabel("strbox")
		fl.f.Emit(fmt.Sprintf("%%%s = call ptr @%s(i64 16)", box, declare(fl.mod, rtRcAlloc)))
		fl.f.Emit(fmt.Sprintf("store %%ori.str %s, ptr %%%s", varRef(v), box))
		tmp := fl.freshLabel("word")
		fl.f.Emit(fmt.Sprintf("%%%s = ptrtoint ptr %%%s to i64", tmp, box))
		return "%" + tmp
	case "void":
		return "0"
	default: // "ptr"
		tmp := fl.freshLabel("word")
		fl.f.Emit(fmt.Sprintf("%%%s = ptrtoint ptr %s to i64", tmp, varRef(v)))
		return "%" + tmp
	}
}

// emitFromWord converts a 64-bit word back into ty, writing the result
// into dst (an already-named "%N" register, not freshly allocated).
func (fl *funcLowerer) emitFromWord(dst, wordReg, ty string) {
	switch ty {
	case "i64":
		fl.f.Emit(fmt.Sprintf("%s = select i1 true, i64 %s, i64 %s", dst, wordReg, wordReg))
	case "i1", "i8", "i32":
		fl.f.Emit(fmt.Sprintf("%s = trunc i64 %s to %s", dst, wordReg, ty))
	case "double":
		fl.f.Emit(fmt.Sprintf("%s = bitcast i64 %s to double", dst, wordReg))
	case "%ori.str":
		box := fl.freshLabel("strbox")
		fl.f.Emit(fmt.Sprintf("%%%s = inttoptr i64 %s to ptr", box, wordReg))
		fl.f.Emit(fmt.Sprintf("%s = load %%ori.str, ptr %%%s", dst, box))
	case "void":
		// Nothing to materialize.
	default: // "ptr"
		fl.f.Emit(fmt.Sprintf("%s = inttoptr i64 %s to ptr", dst, wordReg))
	}
}

func (fl *funcLowerer) lowerConstruct(instr *arcir.ArcInstr) {
	fl.constructInto(varRef(instr.Dst), instr)
}

func (fl *funcLowerer) constructInto(dst string, instr *arcir.ArcInstr) {
	switch instr.Ctor.Kind {
	case arcir.CtorStruct:
		fl.constructStructInto(dst, instr)
	case arcir.CtorTuple:
		fl.constructTupleInto(dst, instr)
	case arcir.CtorEnumVariant:
		fl.constructEnumVariantInto(dst, instr)
	case arcir.CtorClosure:
		fl.constructClosureInto(dst, instr)
	default: // CtorListLiteral, CtorMapLiteral, CtorSetLiteral
		fl.constructListLikeInto(dst, instr)
	}
}

func (fl *funcLowerer) constructStructInto(dst string, instr *arcir.ArcInstr) {
	entry, ok := fl.types.Lookup(instr.Ctor.Name)
	if !ok {
		panic(fmt.Sprintf("llvm: Construct references unregistered struct %q", instr.Ctor.Name))
	}
	fl.mod.DeclareStruct(entry.Name, StructDecl(fl.types, fl.pool, entry))
	literalTy := "%" + entry.Name
	size := ByteSize(fl.types, fl.pool, instr.Ty)
	fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(i64 %d)", dst, declare(fl.mod, rtRcAlloc), size))
	fl.storeFieldsTyped(dst, literalTy, instr.Args)
}

func (fl *funcLowerer) constructTupleInto(dst string, instr *arcir.ArcInstr) {
	literalTy := fl.literalAggregateType(instr.Ty)
	size := ByteSize(fl.types, fl.pool, instr.Ty)
	fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(i64 %d)", dst, declare(fl.mod, rtRcAlloc), size))
	fl.storeFieldsTyped(dst, literalTy, instr.Args)
}

func (fl *funcLowerer) storeFieldsTyped(base, literalTy string, args []arcir.ArcVarId) {
	for i, a := range args {
		fieldTy := LLVMTypeOf(fl.fn.VarType(a))
		gep := fl.freshLabel("field")
		fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d", gep, literalTy, base, i))
		fl.f.Emit(fmt.Sprintf("store %s %s, ptr %%%s", fieldTy, varRef(a), gep))
	}
}

func (fl *funcLowerer) storeWordsInto(base string, args []arcir.ArcVarId) {
	for i, a := range args {
		word := fl.emitToWord(a)
		gep := fl.freshLabel("slot")
		fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds i64, ptr %s, i64 %d", gep, base, i))
		fl.f.Emit(fmt.Sprintf("store i64 %s, ptr %%%s", word, gep))
	}
}

func (fl *funcLowerer) constructEnumVariantInto(dst string, instr *arcir.ArcInstr) {
	var payload string
	if len(instr.Args) == 0 {
		payload = "null"
	} else {
		data := fl.freshLabel("payload")
		fl.f.Emit(fmt.Sprintf("%%%s = call ptr @%s(i64 %d)", data, declare(fl.mod, rtListAllocData), len(instr.Args)))
		fl.storeWordsInto("%"+data, instr.Args)
		payload = "%" + data
	}
	fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(i64 16)", dst, declare(fl.mod, rtRcAlloc)))
	tagGep := fl.freshLabel("tagslot")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 0", tagGep, dst))
	fl.f.Emit(fmt.Sprintf("store i64 %d, ptr %%%s", instr.Ctor.Variant, tagGep))
	payloadGep := fl.freshLabel("payloadslot")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 1", payloadGep, dst))
	fl.f.Emit(fmt.Sprintf("store ptr %s, ptr %%%s", payload, payloadGep))
}

// constructClosureInto materializes a reference to a zero-capture
// top-level function as a plain pointer value (internal/lower's
// documented simplification: closures carry no explicit free-variable
// list, see its DESIGN.md entry). `getelementptr i8, ptr @f, i64 0` is
// the standard idiom for turning a global's address into an SSA value
// without a meaningless self-bitcast.
func (fl *funcLowerer) constructClosureInto(dst string, instr *arcir.ArcInstr) {
	target := symbolName(instr.Ctor.Name, fl.modulePath)
	fl.f.Emit(fmt.Sprintf("%s = getelementptr i8, ptr @%s, i64 0", dst, target))
}

// constructListLikeInto covers CtorListLiteral/CtorMapLiteral/
// CtorSetLiteral. Spec §6's runtime ABI only names list constructors
// (ori_list_new/alloc_data); map and set literals reuse the same
// word-array boxing pending dedicated ori_map_new/ori_set_new runtime
// entries (documented in DESIGN.md).
func (fl *funcLowerer) constructListLikeInto(dst string, instr *arcir.ArcInstr) {
	n := len(instr.Args)
	data := fl.freshLabel("data")
	fl.f.Emit(fmt.Sprintf("%%%s = call ptr @%s(i64 %d)", data, declare(fl.mod, rtListAllocData), n))
	fl.storeWordsInto("%"+data, instr.Args)
	fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(ptr %%%s, i64 %d)", dst, declare(fl.mod, rtListNew), data, n))
}

// lowerSet/lowerSetTag handle the ISet/ISetTag vocabulary defensively;
// no current pass emits them as standalone ArcInstrs (IReuse's in-place
// branch is synthesized directly by emitInPlaceStore below), but they
// are part of the instruction set spec §3.5 defines.
func (fl *funcLowerer) lowerSet(instr *arcir.ArcInstr) {
	word := fl.emitToWord(instr.Value1)
	gep := fl.freshLabel("setslot")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds i64, ptr %s, i64 %d", gep, varRef(instr.Var), instr.Field))
	fl.f.Emit(fmt.Sprintf("store i64 %s, ptr %%%s", word, gep))
}

func (fl *funcLowerer) lowerSetTag(instr *arcir.ArcInstr) {
	gep := fl.freshLabel("tagslot")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 0", gep, varRef(instr.Var)))
	fl.f.Emit(fmt.Sprintf("store i64 %d, ptr %%%s", instr.Tag, gep))
}

// lowerReset expands Reset per spec §4.7's prose: check whether x is
// uniquely owned; if shared, decrement it and hand Reuse a null token
// (forcing a fresh allocation); otherwise pass x's own pointer through
// as the token to reuse in place.
func (fl *funcLowerer) lowerReset(instr *arcir.ArcInstr) {
	sharedLbl := fl.freshLabel("reset.shared")
	keepLbl := fl.freshLabel("reset.keep")
	joinLbl := fl.freshLabel("reset.join")

	shared := fl.freshLabel("isshared")
	fl.f.Emit(fmt.Sprintf("%%%s = call i1 @%s(ptr %s)", shared, declare(fl.mod, rtRcIsShared), varRef(instr.Value1)))
	fl.f.Emit(fmt.Sprintf("br i1 %%%s, label %%%s, label %%%s", shared, sharedLbl, keepLbl))

	fl.f.NewBlock(sharedLbl)
	fl.f.Emit(fmt.Sprintf("call void @%s(ptr %s)", declare(fl.mod, rtRcDec), varRef(instr.Value1)))
	fl.f.Emit(fmt.Sprintf("br label %%%s", joinLbl))

	fl.f.NewBlock(keepLbl)
	fl.f.Emit(fmt.Sprintf("br label %%%s", joinLbl))

	fl.f.NewBlock(joinLbl)
	fl.f.Emit(fmt.Sprintf("%s = phi ptr [ null, %%%s ], [ %s, %%%s ]", varRef(instr.Token), sharedLbl, varRef(instr.Value1), keepLbl))
}

// lowerReuse expands Reuse per spec §4.7: a null token means the unique
// owner was shared away, so allocate fresh exactly as Construct would;
// a non-null token is the reset object's own pointer, so we overwrite
// its fields in place instead of allocating.
func (fl *funcLowerer) lowerReuse(instr *arcir.ArcInstr) {
	allocLbl := fl.freshLabel("reuse.alloc")
	inplaceLbl := fl.freshLabel("reuse.inplace")
	joinLbl := fl.freshLabel("reuse.join")

	isnull := fl.freshLabel("tokennull")
	fl.f.Emit(fmt.Sprintf("%%%s = icmp eq ptr %s, null", isnull, varRef(instr.Token)))
	fl.f.Emit(fmt.Sprintf("br i1 %%%s, label %%%s, label %%%s", isnull, allocLbl, inplaceLbl))

	fl.f.NewBlock(allocLbl)
	allocDst := fl.freshLabel("reusealloc")
	fl.constructInto("%"+allocDst, instr)
	fl.f.Emit(fmt.Sprintf("br label %%%s", joinLbl))

	fl.f.NewBlock(inplaceLbl)
	fl.emitInPlaceStore(instr)
	fl.f.Emit(fmt.Sprintf("br label %%%s", joinLbl))

	fl.f.NewBlock(joinLbl)
	fl.f.Emit(fmt.Sprintf("%s = phi ptr [ %%%s, %%%s ], [ %s, %%%s ]", varRef(instr.Dst), allocDst, allocLbl, varRef(instr.Token), inplaceLbl))
}

func (fl *funcLowerer) emitInPlaceStore(instr *arcir.ArcInstr) {
	base := varRef(instr.Token)
	switch instr.Ctor.Kind {
	case arcir.CtorStruct:
		entry, ok := fl.types.Lookup(instr.Ctor.Name)
		if !ok {
			panic(fmt.Sprintf("llvm: Reuse references unregistered struct %q", instr.Ctor.Name))
		}
		fl.mod.DeclareStruct(entry.Name, StructDecl(fl.types, fl.pool, entry))
		fl.storeFieldsTyped(base, "%"+entry.Name, instr.Args)
	case arcir.CtorTuple:
		fl.storeFieldsTyped(base, fl.literalAggregateType(instr.Ty), instr.Args)
	case arcir.CtorEnumVariant:
		tagGep := fl.freshLabel("tagslot")
		fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 0", tagGep, base))
		fl.f.Emit(fmt.Sprintf("store i64 %d, ptr %%%s", instr.Ctor.Variant, tagGep))
		payloadGep := fl.freshLabel("payloadslot")
		fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 1", payloadGep, base))
		payloadPtr := fl.freshLabel("payload")
		fl.f.Emit(fmt.Sprintf("%%%s = load ptr, ptr %%%s", payloadPtr, payloadGep))
		fl.storeWordsInto("%"+payloadPtr, instr.Args)
	default:
		fl.storeWordsInto(base, instr.Args)
	}
}
