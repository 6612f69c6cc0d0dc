package llvm

import (
	"fmt"

	"github.com/oriproj/ori/internal/arcir"
)

// lowerPrimOp realizes the fixed PrimOp vocabulary internal/lower emits
// (see lower.go's emitPatternTest/boolOp): the string-operator escape
// hatch arcir's own doc comment calls out as "never interpreted by the
// ARC-level passes themselves" -- this is the stage that finally
// interprets it.
func (fl *funcLowerer) lowerPrimOp(dst arcir.ArcVarId, op arcir.PrimOp, args []arcir.ArcVarId) {
	switch op.Op {
	case "variant_tag":
		fl.lowerVariantTag(dst, args[0])
	case "list_len":
		fl.f.Emit(fmt.Sprintf("%s = call i64 @%s(ptr %s)", varRef(dst), declare(fl.mod, rtListLen), varRef(args[0])))
	case "list_nth":
		fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(ptr %s, i64 %s)", varRef(dst), declare(fl.mod, rtListNth), varRef(args[0]), varRef(args[1])))
	case "option_is_some":
		fl.f.Emit(fmt.Sprintf("%s = call i1 @%s(ptr %s)", varRef(dst), declare(fl.mod, rtOptionIsSome), varRef(args[0])))
	case "option_unwrap":
		fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(ptr %s)", varRef(dst), declare(fl.mod, rtOptionUnwrap), varRef(args[0])))
	case "result_is_ok":
		fl.f.Emit(fmt.Sprintf("%s = call i1 @%s(ptr %s)", varRef(dst), declare(fl.mod, rtResultIsOk), varRef(args[0])))
	case "result_unwrap_ok":
		fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(ptr %s)", varRef(dst), declare(fl.mod, rtResultUnwrapOk), varRef(args[0])))
	case "result_unwrap_err":
		fl.f.Emit(fmt.Sprintf("%s = call ptr @%s(ptr %s)", varRef(dst), declare(fl.mod, rtResultUnwrapErr), varRef(args[0])))
	case "&&":
		fl.f.Emit(fmt.Sprintf("%s = and i1 %s, %s", varRef(dst), varRef(args[0]), varRef(args[1])))
	case ">=":
		fl.f.Emit(fmt.Sprintf("%s = icmp sge i64 %s, %s", varRef(dst), varRef(args[0]), varRef(args[1])))
	case "==":
		fl.lowerEquals(dst, args[0], args[1])
	default:
		panic(fmt.Sprintf("llvm: unhandled PrimOp %q", op.Op))
	}
}

// lowerVariantTag reads the discriminant word stored at offset 0 of an
// enum box (see construct.go's enum layout: { i64 tag, ptr payload }).
func (fl *funcLowerer) lowerVariantTag(dst arcir.ArcVarId, box arcir.ArcVarId) {
	tmp := fl.freshLabel("tag")
	fl.f.Emit(fmt.Sprintf("%%%s = getelementptr inbounds { i64, ptr }, ptr %s, i32 0, i32 0", tmp, varRef(box)))
	fl.f.Emit(fmt.Sprintf("%s = load i64, ptr %%%s", varRef(dst), tmp))
}

// lowerEquals compares two operands of like type. String comparisons go
// through the runtime (spec §6's ori_str_eq); everything else the
// PrimOp vocabulary produces (ints, bools -- literal/test comparisons
// inside match-arm lowering) uses a plain icmp.
func (fl *funcLowerer) lowerEquals(dst, a, b arcir.ArcVarId) {
	ty := LLVMTypeOf(fl.fn.VarType(a))
	if ty == "%ori.str" {
		fl.f.Emit(fmt.Sprintf("%s = call i1 @%s(%%ori.str %s, %%ori.str %s)", varRef(dst), declare(fl.mod, rtStrEq), varRef(a), varRef(b)))
		return
	}
	if ty == "double" {
		fl.f.Emit(fmt.Sprintf("%s = fcmp oeq double %s, %s", varRef(dst), varRef(a), varRef(b)))
		return
	}
	fl.f.Emit(fmt.Sprintf("%s = icmp eq %s %s, %s", varRef(dst), ty, varRef(a), varRef(b)))
}
