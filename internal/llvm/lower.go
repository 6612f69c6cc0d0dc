package llvm

import (
	"fmt"
	"strings"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/llvm/irwriter"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// funcLowerer holds the per-function state needed while translating one
// ArcFunction to LLVM IR text: the destination irwriter.Function, the
// source ArcFunction (for VarType lookups), a module-wide declarer for
// struct/extern decls, and a counter for synthetic sub-block labels
// (Reset/Reuse expansion, see construct.go).
type funcLowerer struct {
	mod        *irwriter.Module
	f          *irwriter.Function
	fn         *arcir.ArcFunction
	pool       *typepool.Pool
	types      *registry.TypeRegistry
	modulePath []string

	synthetic int
}

// LowerFunction translates one ArcFunction into a textual LLVM function
// definition, appended to mod (spec §4.8: "Two-phase per-module:
// declare-all then define-all" -- callers run LowerFunction once per
// ArcFunction after any shared struct/extern declarations are settled).
func LowerFunction(mod *irwriter.Module, fn *arcir.ArcFunction, modulePath []string, pool *typepool.Pool, types *registry.TypeRegistry) {
	symbol := symbolName(fn.Name, modulePath)

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", LLVMTypeOf(p.Ty), varRef(p.Var))
	}
	retType := LLVMTypeOf(fn.ReturnType)

	f := mod.NewFunction(symbol)
	f.SetSignature(fmt.Sprintf("define %s @%s(%s)", retType, symbol, strings.Join(params, ", ")))
	if functionHasInvoke(fn) {
		f.Personality = fmt.Sprintf("personality ptr @%s", declare(mod, ehPersonality))
	}

	fl := &funcLowerer{mod: mod, f: f, fn: fn, pool: pool, types: types, modulePath: modulePath}
	incoming := fl.incomingBlockArgs()

	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		f.NewBlock(blockLabel(b.ID))
		fl.emitPhis(b, incoming[b.ID])
		for i := range b.Body {
			fl.lowerInstr(&b.Body[i])
		}
		fl.lowerTerminator(&b.Terminator)
	}
}

func functionHasInvoke(fn *arcir.ArcFunction) bool {
	for _, b := range fn.Blocks {
		if b.Terminator.Kind == arcir.TInvoke {
			return true
		}
	}
	return false
}

func blockLabel(id arcir.ArcBlockId) string { return fmt.Sprintf("bb%d", id) }

func varRef(v arcir.ArcVarId) string { return fmt.Sprintf("%%%d", v) }

func (fl *funcLowerer) freshLabel(prefix string) string {
	fl.synthetic++
	return fmt.Sprintf("%s.%d", prefix, fl.synthetic)
}

// incomingEdge is one Jump terminator's contribution to a target block's
// phi nodes: the predecessor label and the Args it passed.
type incomingEdge struct {
	predLabel string
	args      []arcir.ArcVarId
}

// incomingBlockArgs scans every TJump terminator in the function and
// groups them by target block, so each target's block Params can be
// turned into phi nodes (spec §3.5's block-parameter / SSA-join model:
// only Jump carries Args in this IR -- Branch's two successors are plain
// blocks that each end in a Jump to the real join point, see
// internal/lower's lowerIf).
func (fl *funcLowerer) incomingBlockArgs() map[arcir.ArcBlockId][]incomingEdge {
	out := make(map[arcir.ArcBlockId][]incomingEdge)
	for bi := range fl.fn.Blocks {
		b := &fl.fn.Blocks[bi]
		if b.Terminator.Kind == arcir.TJump {
			out[b.Terminator.Target] = append(out[b.Terminator.Target], incomingEdge{
				predLabel: blockLabel(b.ID),
				args:      b.Terminator.Args,
			})
		}
	}
	return out
}

func (fl *funcLowerer) emitPhis(b *arcir.ArcBlock, edges []incomingEdge) {
	for paramIdx, p := range b.Params {
		if len(edges) == 0 {
			continue // entry block or dead block: no predecessors to phi from
		}
		ty := LLVMTypeOf(p.Ty)
		pairs := make([]string, len(edges))
		for i, e := range edges {
			pairs[i] = fmt.Sprintf("[ %s, %%%s ]", varRef(e.args[paramIdx]), e.predLabel)
		}
		fl.f.Emit(fmt.Sprintf("%s = phi %s %s", varRef(p.Var), ty, strings.Join(pairs, ", ")))
	}
}

func (fl *funcLowerer) lowerInstr(instr *arcir.ArcInstr) {
	switch instr.Kind {
	case arcir.ILet:
		fl.lowerLet(instr)
	case arcir.IApply:
		fl.lowerApply(instr)
	case arcir.IApplyIndirect:
		fl.lowerApplyIndirect(instr)
	case arcir.IPartialApply:
		fl.lowerPartialApply(instr)
	case arcir.IProject:
		fl.lowerProject(instr)
	case arcir.IConstruct:
		fl.lowerConstruct(instr)
	case arcir.IRcInc:
		fl.f.Emit(fmt.Sprintf("call void @%s(ptr %s, i64 %d)", declare(fl.mod, rtRcInc), varRef(instr.Var), max1(instr.Count)))
	case arcir.IRcDec:
		fl.f.Emit(fmt.Sprintf("call void @%s(ptr %s)", declare(fl.mod, rtRcDec), varRef(instr.Var)))
	case arcir.IIsShared:
		fl.f.Emit(fmt.Sprintf("%s = call i1 @%s(ptr %s)", varRef(instr.Dst), declare(fl.mod, rtRcIsShared), varRef(instr.Var)))
	case arcir.ISet:
		fl.lowerSet(instr)
	case arcir.ISetTag:
		fl.lowerSetTag(instr)
	case arcir.IReset:
		fl.lowerReset(instr)
	case arcir.IReuse:
		fl.lowerReuse(instr)
	default:
		panic(fmt.Sprintf("llvm: unhandled ArcInstr kind %v", instr.Kind))
	}
}

func max1(count uint32) uint32 {
	if count == 0 {
		return 1
	}
	return count
}

func (fl *funcLowerer) lowerLet(instr *arcir.ArcInstr) {
	ty := LLVMTypeOf(fl.fn.VarType(instr.Dst))
	switch instr.Value.Kind {
	case arcir.ValueVar:
		// Identity copy: `select i1 true, T %src, T %src` is valid for
		// every first-class LLVM type (scalars, ptr, and the %ori.str
		// aggregate alike), so one template covers every case.
		fl.f.Emit(fmt.Sprintf("%s = select i1 true, %s %s, %s %s", varRef(instr.Dst), ty, varRef(instr.Value.Var), ty, varRef(instr.Value.Var)))
	case arcir.ValueLiteral:
		fl.lowerLiteral(instr.Dst, instr.Value.Literal)
	case arcir.ValuePrimOp:
		fl.lowerPrimOp(instr.Dst, instr.Value.PrimOp, instr.Value.PrimArgs)
	}
}

func (fl *funcLowerer) lowerLiteral(dst arcir.ArcVarId, lit arcir.LitValue) {
	switch lit.Kind {
	case arcir.LitInt:
		fl.f.Emit(fmt.Sprintf("%s = add i64 0, %d", varRef(dst), lit.Int))
	case arcir.LitFloat:
		fl.f.Emit(fmt.Sprintf("%s = fadd double 0.0, %s", varRef(dst), formatFloatBits(lit.Flt)))
	case arcir.LitBool:
		fl.f.Emit(fmt.Sprintf("%s = or i1 false, %t", varRef(dst), lit.Bool))
	case arcir.LitChar:
		fl.f.Emit(fmt.Sprintf("%s = add i32 0, %d", varRef(dst), lit.Chr))
	case arcir.LitString:
		fl.lowerStringLiteral(dst, lit.Str)
	case arcir.LitUnit:
		// Unit carries no runtime representation (LLVMTypeOf(UNIT) ==
		// "void"); nothing to materialize.
	}
}

func (fl *funcLowerer) lowerStringLiteral(dst arcir.ArcVarId, s string) {
	tmp := fl.freshLabel("str")
	name := "." + tmp
	fl.mod.DeclareGlobal(name, fmt.Sprintf(`@%s = private unnamed_addr constant [%d x i8] c"%s"`, name, len(s), escapeLLVMString(s)))
	fl.f.Emit(fmt.Sprintf("%%%s = insertvalue %%ori.str undef, i64 %d, 0", tmp, len(s)))
	fl.f.Emit(fmt.Sprintf("%s = insertvalue %%ori.str %%%s, ptr @%s, 1", varRef(dst), tmp, name))
}

func escapeLLVMString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			fmt.Fprintf(&b, "\\%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func formatFloatBits(bits uint64) string {
	return fmt.Sprintf("0x%016X", bits)
}

func (fl *funcLowerer) lowerApply(instr *arcir.ArcInstr) {
	args := fl.renderArgs(instr.Args)
	dstTy := LLVMTypeOf(fl.fn.VarType(instr.Dst))
	if dstTy == "void" {
		fl.f.Emit(fmt.Sprintf("call void @%s(%s)", instr.Func, args))
		return
	}
	fl.f.Emit(fmt.Sprintf("%s = call %s @%s(%s)", varRef(instr.Dst), dstTy, instr.Func, args))
}

func (fl *funcLowerer) lowerApplyIndirect(instr *arcir.ArcInstr) {
	args := fl.renderArgs(instr.Args)
	dstTy := LLVMTypeOf(fl.fn.VarType(instr.Dst))
	if dstTy == "void" {
		fl.f.Emit(fmt.Sprintf("call void %s(%s)", varRef(instr.Closure), args))
		return
	}
	fl.f.Emit(fmt.Sprintf("%s = call %s %s(%s)", varRef(instr.Dst), dstTy, varRef(instr.Closure), args))
}

// lowerPartialApply: partial application is expected to have already
// been resolved into a closure Construct by internal/lower (see
// lowerLambda); reaching this stage means that resolution was skipped,
// which is an internal invariant violation (spec §7: E4002) rather than
// something to silently miscompile.
func (fl *funcLowerer) lowerPartialApply(instr *arcir.ArcInstr) {
	fl.f.Emit(fmt.Sprintf("call void @%s(%%ori.str zeroinitializer)", declare(fl.mod, rtPanic)))
	_ = instr
}

func (fl *funcLowerer) renderArgs(args []arcir.ArcVarId) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s %s", LLVMTypeOf(fl.fn.VarType(a)), varRef(a))
	}
	return strings.Join(parts, ", ")
}

func (fl *funcLowerer) lowerTerminator(t *arcir.ArcTerminator) {
	switch t.Kind {
	case arcir.TReturn:
		ty := LLVMTypeOf(fl.fn.ReturnType)
		if ty == "void" {
			fl.f.Emit("ret void")
			return
		}
		fl.f.Emit(fmt.Sprintf("ret %s %s", ty, varRef(t.ReturnValue)))
	case arcir.TJump:
		fl.f.Emit(fmt.Sprintf("br label %%%s", blockLabel(t.Target)))
	case arcir.TBranch:
		fl.f.Emit(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", varRef(t.Cond), blockLabel(t.ThenBlock), blockLabel(t.ElseBlock)))
	case arcir.TSwitch:
		fl.lowerSwitch(t)
	case arcir.TInvoke:
		fl.lowerInvoke(t)
	case arcir.TResume:
		ty := LLVMTypeOf(fl.fn.VarType(t.ReturnValue))
		fl.f.Emit(fmt.Sprintf("resume %s %s", ty, varRef(t.ReturnValue)))
	case arcir.TUnreachable:
		fl.f.Emit("unreachable")
	}
}

func (fl *funcLowerer) lowerSwitch(t *arcir.ArcTerminator) {
	cases := make([]string, len(t.Cases))
	for i, c := range t.Cases {
		cases[i] = fmt.Sprintf("i64 %d, label %%%s", c.Value, blockLabel(c.Target))
	}
	fl.f.Emit(fmt.Sprintf("switch i64 %s, label %%%s [ %s ]", varRef(t.Scrutinee), blockLabel(t.Default), strings.Join(cases, " ")))
}

func (fl *funcLowerer) lowerInvoke(t *arcir.ArcTerminator) {
	args := fl.renderArgs(t.InvokeArgs)
	dstTy := LLVMTypeOf(t.InvokeTy)
	assign := ""
	if dstTy != "void" {
		assign = varRef(t.InvokeDst) + " = "
	}
	fl.f.Emit(fmt.Sprintf("%sinvoke %s @%s(%s) to label %%%s unwind label %%%s",
		assign, dstTy, t.InvokeFunc, args, blockLabel(t.NormalBlock), blockLabel(t.UnwindBlock)))
}
