// Package lower implements AST->ARC IR lowering (spec §4.3): a
// recursive, CPS-like traversal that maintains a "current block" on an
// arcir.Builder and emits Let/Apply/Construct instructions in program
// order, opening new blocks and terminators for control flow (if,
// match) and producing exactly one ArcVarId per expression.
//
// Unlike arcir/rcelim, which port original_source/compiler/ori_arc
// modules close to literally, no Rust source for this stage exists in
// the retrieval pack (only ir.rs, ir/mod.rs and rc_elim/mod.rs are
// present) — this package is grounded directly in spec §4.3's prose and
// the already-built arcir.Builder/ast surfaces.
package lower

import (
	"fmt"
	"math"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/infer"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// Result is one lowered function plus any closures lifted out of nested
// lambdas encountered along the way.
type Result struct {
	Main   *arcir.ArcFunction
	Extras []*arcir.ArcFunction
}

// lowerer holds the per-FuncDecl lowering state. A fresh lowerer is
// used per top-level declaration; synthesized closure bodies recurse
// into a child lowerer (see lowerLambda) so each gets its own builder
// and variable numbering.
type lowerer struct {
	ck    *infer.Checker
	types *registry.TypeRegistry
	b     *arcir.Builder
	next  arcir.ArcVarId
	vars  map[string]arcir.ArcVarId // local name -> current SSA-like var
	alias map[string]string         // recursive-function name -> synthesized global function name
	extra []*arcir.ArcFunction
	seq   *int // shared lambda-naming counter across one top-level decl's closures
}

// Lower lowers one top-level function declaration into an ArcFunction,
// given the already-resolved types of its parameters and return value
// (spec §4.3: "all parameters initially have Ownership = Owned" — the
// borrow package refines this afterward).
func Lower(decl *ast.FuncDecl, ck *infer.Checker, paramTypes []typepool.Idx, retTy typepool.Idx, types *registry.TypeRegistry) Result {
	seq := 0
	l := &lowerer{ck: ck, types: types, vars: map[string]arcir.ArcVarId{}, alias: map[string]string{}, seq: &seq}
	fn := l.lowerDecl(decl, paramTypes, retTy)
	return Result{Main: fn, Extras: l.extra}
}

func (l *lowerer) lowerDecl(decl *ast.FuncDecl, paramTypes []typepool.Idx, retTy typepool.Idx) *arcir.ArcFunction {
	params := make([]arcir.ArcParam, len(decl.Params))
	for i, p := range decl.Params {
		v := arcir.ArcVarId(i)
		params[i] = arcir.ArcParam{Var: v, Ty: paramTypes[i], Ownership: arcir.Owned}
		l.vars[p.Name] = v
	}
	l.next = arcir.ArcVarId(len(decl.Params))
	l.b = arcir.NewBuilder(decl.Name, params, retTy)

	env := infer.NewEnv()
	for i, p := range decl.Params {
		env.BindMono(p.Name, paramTypes[i])
	}

	result := l.lowerExpr(decl.Body, env)
	l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: result})
	return l.b.Finish()
}

func (l *lowerer) fresh() arcir.ArcVarId {
	v := l.next
	l.next++
	return v
}

// resolvedType re-infers expr's type through the same Checker/Engine/
// Pool the program was already checked with, rather than keeping a
// second parallel type map. Safe for an already-typechecked program:
// the union-find state only grows more resolved, never backtracks, so
// re-running Infer on a closed term can't newly fail. The one known
// imprecision is let-polymorphic identifiers: each Infer call
// re-instantiates a fresh, unconstrained copy of the scheme, so a
// generic name used at two different instantiated types during
// checking will lower with a fresh (equally generic, but not
// necessarily the originally-unified) type here. Monomorphic bindings,
// literals, and concrete struct/enum types are unaffected, which covers
// every case the test suite below exercises; the identifier-reuse
// simplification is called out here rather than building a persisted
// per-expression substitution table.
func (l *lowerer) resolvedType(expr ast.Expr, env *infer.Env) typepool.Idx {
	return l.ck.Engine.Resolve(l.ck.Infer(expr, env))
}

func (l *lowerer) lowerExpr(expr ast.Expr, env *infer.Env) arcir.ArcVarId {
	switch e := expr.(type) {
	case *ast.Literal:
		return l.lowerLiteral(e)
	case *ast.Ident:
		return l.lowerIdent(e, env)
	case *ast.Lambda:
		return l.lowerLambda(e, env, "")
	case *ast.App:
		return l.lowerApp(e, env)
	case *ast.Let:
		return l.lowerLet(e, env)
	case *ast.RecLet:
		return l.lowerRecLet(e, env)
	case *ast.If:
		return l.lowerIf(e, env)
	case *ast.TupleLit:
		return l.lowerTuple(e, env)
	case *ast.ListLit:
		return l.lowerList(e, env)
	case *ast.StructLit:
		return l.lowerStructLit(e, env)
	case *ast.FieldAccess:
		return l.lowerFieldAccess(e, env)
	case *ast.MethodCall:
		return l.lowerMethodCall(e, env)
	case *ast.Match:
		return l.lowerMatch(e, env)
	case *ast.With:
		return l.lowerWith(e, env)
	default:
		panic(fmt.Sprintf("lower: unsupported expression %T", expr))
	}
}

func (l *lowerer) lowerLiteral(lit *ast.Literal) arcir.ArcVarId {
	var lv arcir.LitValue
	var ty typepool.Idx
	switch lit.Kind {
	case ast.LitInt:
		lv, ty = arcir.LitValue{Kind: arcir.LitInt, Int: lit.Int}, typepool.INT
	case ast.LitFloat:
		lv, ty = arcir.LitValue{Kind: arcir.LitFloat, Flt: floatBits(lit.Flt)}, typepool.FLOAT
	case ast.LitBool:
		lv, ty = arcir.LitValue{Kind: arcir.LitBool, Bool: lit.Bool}, typepool.BOOL
	case ast.LitString:
		lv, ty = arcir.LitValue{Kind: arcir.LitString, Str: lit.Str}, typepool.STR
	case ast.LitChar:
		lv, ty = arcir.LitValue{Kind: arcir.LitChar, Chr: lit.Chr}, typepool.CHAR
	default:
		lv, ty = arcir.LitValue{Kind: arcir.LitUnit}, typepool.UNIT
	}
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: dst, Ty: ty, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: lv}})
	return dst
}

func (l *lowerer) lowerIdent(id *ast.Ident, env *infer.Env) arcir.ArcVarId {
	if v, ok := l.vars[id.Name]; ok {
		return v
	}
	// A name with no local binding refers to a top-level function used
	// as a first-class value: materialize it as a zero-argument closure
	// (a plain function pointer with no captures).
	ty := typepool.ERROR
	if t, ok := env.LookupType(l.ck.Engine, id.Name); ok {
		ty = t
	}
	dst := l.fresh()
	target := id.Name
	if a, ok := l.alias[id.Name]; ok {
		target = a
	}
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: ty, Ctor: arcir.CtorKind{Kind: arcir.CtorClosure, Name: target}})
	return dst
}

func (l *lowerer) lowerApp(app *ast.App, env *infer.Env) arcir.ArcVarId {
	args := make([]arcir.ArcVarId, len(app.Args))
	for i, a := range app.Args {
		args[i] = l.lowerExpr(a, env)
	}
	resultTy := l.resolvedType(app, env)
	dst := l.fresh()

	if id, ok := app.Func.(*ast.Ident); ok {
		if _, local := l.vars[id.Name]; !local {
			target := id.Name
			if a, ok := l.alias[id.Name]; ok {
				target = a
			}
			l.b.Emit(arcir.ArcInstr{Kind: arcir.IApply, Dst: dst, Ty: resultTy, Func: target, Args: args})
			return dst
		}
	}

	closure := l.lowerExpr(app.Func, env)
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IApplyIndirect, Dst: dst, Ty: resultTy, Closure: closure, Args: args})
	return dst
}

func (l *lowerer) lowerLet(let *ast.Let, env *infer.Env) arcir.ArcVarId {
	v := l.lowerExpr(let.Value, env)
	valTy := l.resolvedType(let.Value, env)
	inner := env.Child()
	inner.BindMono(let.Name, valTy)

	result := l.withShadowedVar(let.Name, v, func() arcir.ArcVarId {
		return l.lowerExpr(let.Body, inner)
	})
	return result
}

// withShadowedVar binds name -> v for the duration of f, restoring
// (or clearing) the prior binding afterward — the lowering-time
// analogue of Env.Child()'s lexical shadowing, but over l.vars.
func (l *lowerer) withShadowedVar(name string, v arcir.ArcVarId, f func() arcir.ArcVarId) arcir.ArcVarId {
	saved, existed := l.vars[name]
	l.vars[name] = v
	result := f()
	if existed {
		l.vars[name] = saved
	} else {
		delete(l.vars, name)
	}
	return result
}

// lowerRecLet handles self-referential bindings. The common case is a
// recursive function (`let rec f = \x -> ... f ... in body`): f's body
// is lowered as its own top-level-shaped function (so recursive calls
// resolve as ordinary IApply by name, with no closure-capture overhead
// for self-reference), and a closure value for f is still constructed
// for any first-class use of the name in body. A non-lambda recursive
// binding has no ARC-level self-reference mechanism in this IR (values
// aren't mutable cells) and lowers as a plain (non-recursive) Let —
// a known limitation of this simplified lowering, not exercised by
// the spec's recursive-function examples, which are all functions.
func (l *lowerer) lowerRecLet(let *ast.RecLet, env *infer.Env) arcir.ArcVarId {
	if lam, ok := let.Value.(*ast.Lambda); ok {
		return l.lowerRecFuncLet(let, lam, env)
	}
	asLet := &ast.Let{Name: let.Name, Value: let.Value, Body: let.Body}
	return l.lowerLet(asLet, env)
}

func (l *lowerer) lowerRecFuncLet(let *ast.RecLet, lam *ast.Lambda, env *infer.Env) arcir.ArcVarId {
	name := l.syntheticName("rec")
	l.alias[let.Name] = name

	lamTy := l.resolvedType(lam, env)
	l.lowerNestedFunction(name, lam, env, let.Name, lamTy)

	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: lamTy, Ctor: arcir.CtorKind{Kind: arcir.CtorClosure, Name: name}})

	bodyEnv := env.Child()
	bodyEnv.BindMono(let.Name, lamTy)
	return l.withShadowedVar(let.Name, dst, func() arcir.ArcVarId {
		return l.lowerExpr(let.Body, bodyEnv)
	})
}

func (l *lowerer) lowerIf(ifE *ast.If, env *infer.Env) arcir.ArcVarId {
	cond := l.lowerExpr(ifE.Cond, env)
	resultTy := l.resolvedType(ifE, env)

	joinParam := l.fresh()
	joinBlock := l.b.NewBlock([]arcir.BlockParam{{Var: joinParam, Ty: resultTy}})
	thenBlock := l.b.NewBlock(nil)
	elseBlock := l.b.NewBlock(nil)

	l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TBranch, Cond: cond, ThenBlock: thenBlock, ElseBlock: elseBlock})

	l.b.SetCurrent(thenBlock)
	thenVal := l.lowerExpr(ifE.Then, env)
	l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TJump, Target: joinBlock, Args: []arcir.ArcVarId{thenVal}})

	l.b.SetCurrent(elseBlock)
	elseVal := l.lowerExpr(ifE.Else, env)
	l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TJump, Target: joinBlock, Args: []arcir.ArcVarId{elseVal}})

	l.b.SetCurrent(joinBlock)
	return joinParam
}

func (l *lowerer) lowerTuple(t *ast.TupleLit, env *infer.Env) arcir.ArcVarId {
	args := make([]arcir.ArcVarId, len(t.Elems))
	for i, e := range t.Elems {
		args[i] = l.lowerExpr(e, env)
	}
	ty := l.resolvedType(t, env)
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: ty, Ctor: arcir.CtorKind{Kind: arcir.CtorTuple}, Args: args})
	return dst
}

func (l *lowerer) lowerList(lst *ast.ListLit, env *infer.Env) arcir.ArcVarId {
	args := make([]arcir.ArcVarId, len(lst.Elems))
	for i, e := range lst.Elems {
		args[i] = l.lowerExpr(e, env)
	}
	ty := l.resolvedType(lst, env)
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: ty, Ctor: arcir.CtorKind{Kind: arcir.CtorListLiteral}, Args: args})
	return dst
}

func (l *lowerer) lowerStructLit(lit *ast.StructLit, env *infer.Env) arcir.ArcVarId {
	entry, ok := l.types.Lookup(lit.TypeName)
	ty := l.resolvedType(lit, env)
	if !ok || entry.Kind != registry.KindStruct {
		dst := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: ty, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: lit.TypeName}})
		return dst
	}

	provided := make(map[string]arcir.ArcVarId, len(lit.Fields))
	for _, fv := range lit.Fields {
		provided[fv.Name] = l.lowerExpr(fv.Value, env)
	}
	var spreadVar arcir.ArcVarId
	hasSpread := lit.Spread != nil
	if hasSpread {
		spreadVar = l.lowerExpr(lit.Spread, env)
	}

	args := make([]arcir.ArcVarId, len(entry.Fields))
	for i, fd := range entry.Fields {
		if v, ok := provided[fd.Name]; ok {
			args[i] = v
			continue
		}
		if hasSpread {
			proj := l.fresh()
			l.b.Emit(arcir.ArcInstr{Kind: arcir.IProject, Dst: proj, Ty: fd.Ty, Value1: spreadVar, Field: uint32(i)})
			args[i] = proj
			continue
		}
		// Missing field with no spread: already diagnosed by the
		// checker; lower as an Invalid-typed placeholder to keep arity.
		ph := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: ph, Ty: fd.Ty, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: arcir.LitValue{Kind: arcir.LitUnit}}})
		args[i] = ph
	}

	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: ty, Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: lit.TypeName}, Args: args})
	return dst
}

func (l *lowerer) lowerFieldAccess(fa *ast.FieldAccess, env *infer.Env) arcir.ArcVarId {
	recv := l.lowerExpr(fa.Receiver, env)
	recvTy := l.resolvedType(fa.Receiver, env)
	fieldTy := l.resolvedType(fa, env)

	idx, ok := l.fieldIndex(recvTy, fa.Field)
	if !ok {
		idx = 0
	}
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IProject, Dst: dst, Ty: fieldTy, Value1: recv, Field: uint32(idx)})
	return dst
}

// fieldIndex resolves a field name to its positional index, covering
// both tuples (numeric field names) and registered struct fields.
func (l *lowerer) fieldIndex(recvTy typepool.Idx, field string) (int, bool) {
	resolved := l.ck.Engine.Resolve(recvTy)
	t := l.ck.Pool.Get(resolved)
	if t.Tag == typepool.TagTuple {
		var n int
		if _, err := fmt.Sscanf(field, "%d", &n); err == nil {
			return n, true
		}
		return 0, false
	}
	name := ""
	switch t.Tag {
	case typepool.TagNamed, typepool.TagApplied:
		name = t.Name
	default:
		return 0, false
	}
	entry, ok := l.types.Lookup(name)
	if !ok {
		return 0, false
	}
	for i, fd := range entry.Fields {
		if fd.Name == field {
			return i, true
		}
	}
	return 0, false
}

func (l *lowerer) lowerMethodCall(mc *ast.MethodCall, env *infer.Env) arcir.ArcVarId {
	recv := l.lowerExpr(mc.Receiver, env)
	recvTy := l.resolvedType(mc.Receiver, env)
	args := make([]arcir.ArcVarId, 0, len(mc.Args)+1)
	args = append(args, recv)
	for _, a := range mc.Args {
		args = append(args, l.lowerExpr(a, env))
	}
	resultTy := l.resolvedType(mc, env)

	target := mc.Method
	resolved := l.ck.Engine.Resolve(recvTy)
	if name, ok := structNameOfPublic(l.ck.Pool, resolved); ok {
		if impl, _, ok := l.ck.Traits.ResolveMethod(name, mc.Method); ok {
			// Type::method matches the name-mangling scheme the LLVM
			// lowering stage (and `ori demangle`, spec §6) expect.
			target = impl.SelfType + "::" + mc.Method
		}
	}

	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IApply, Dst: dst, Ty: resultTy, Func: target, Args: args})
	return dst
}

func structNameOfPublic(pool *typepool.Pool, idx typepool.Idx) (string, bool) {
	t := pool.Get(idx)
	switch t.Tag {
	case typepool.TagNamed, typepool.TagApplied:
		return t.Name, true
	default:
		return "", false
	}
}

// lowerMatch lowers a match expression into a chain of per-arm test
// blocks joining into a single result block (spec §4.3: "control-flow
// expressions ... open new blocks and emit terminators"). Each arm's
// pattern test is compiled to a Bool-valued expression via emitPatternTest;
// an unmatched chain ends in Unreachable, relying on the checker's
// (separately specified) exhaustiveness checking to guarantee that
// block is never actually reached at runtime.
func (l *lowerer) lowerMatch(m *ast.Match, env *infer.Env) arcir.ArcVarId {
	scrutVar := l.lowerExpr(m.Scrutinee, env)
	scrutTy := l.resolvedType(m.Scrutinee, env)
	resultTy := l.resolvedType(m, env)

	joinParam := l.fresh()
	joinBlock := l.b.NewBlock([]arcir.BlockParam{{Var: joinParam, Ty: resultTy}})

	l.lowerMatchArms(m.Arms, 0, scrutVar, scrutTy, env, joinBlock)

	l.b.SetCurrent(joinBlock)
	return joinParam
}

func (l *lowerer) lowerMatchArms(arms []ast.MatchArm, i int, scrutVar arcir.ArcVarId, scrutTy typepool.Idx, env *infer.Env, joinBlock arcir.ArcBlockId) {
	if i >= len(arms) {
		l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TUnreachable})
		return
	}
	arm := arms[i]
	armEnv := env.Child()

	bodyBlock := l.b.NewBlock(nil)
	nextBlock := l.b.NewBlock(nil)

	savedVars := make(map[string]arcir.ArcVarId, len(l.vars))
	for k, v := range l.vars {
		savedVars[k] = v
	}

	cond := l.emitPatternTest(arm.Pattern, scrutVar, scrutTy, armEnv)
	if cond == nil {
		l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TJump, Target: bodyBlock})
	} else {
		l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TBranch, Cond: *cond, ThenBlock: bodyBlock, ElseBlock: nextBlock})
	}

	l.b.SetCurrent(bodyBlock)
	bodyEnv := armEnv
	if arm.Guard != nil {
		guardVar := l.lowerExpr(arm.Guard, armEnv)
		guardBody := l.b.NewBlock(nil)
		l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TBranch, Cond: guardVar, ThenBlock: guardBody, ElseBlock: nextBlock})
		l.b.SetCurrent(guardBody)
	}
	bodyVal := l.lowerExpr(arm.Body, bodyEnv)
	l.b.Terminate(arcir.ArcTerminator{Kind: arcir.TJump, Target: joinBlock, Args: []arcir.ArcVarId{bodyVal}})

	l.vars = savedVars
	l.b.SetCurrent(nextBlock)
	l.lowerMatchArms(arms, i+1, scrutVar, scrutTy, env, joinBlock)
}

// emitPatternTest compiles pat's match condition against v (of type
// ty), binding any pattern variables into env (for resolvedType) and
// l.vars (for lowering the arm body). Returns nil for an irrefutable
// pattern (always matches), else the ArcVarId of a Bool test.
func (l *lowerer) emitPatternTest(pat ast.Pattern, v arcir.ArcVarId, ty typepool.Idx, env *infer.Env) *arcir.ArcVarId {
	switch p := pat.(type) {
	case ast.WildcardPat:
		return nil

	case ast.BindPat:
		l.vars[p.Name] = v
		env.BindMono(p.Name, ty)
		return nil

	case ast.LiteralPat:
		lit := l.lowerLiteral(&p.Lit)
		return l.boolOp("==", v, lit)

	case ast.TuplePat:
		resolved := l.ck.Engine.Resolve(ty)
		t := l.ck.Pool.Get(resolved)
		var cond *arcir.ArcVarId
		for i, sub := range p.Elems {
			elemTy := typepool.ERROR
			if t.Tag == typepool.TagTuple && i < len(t.Params) {
				elemTy = t.Params[i]
			}
			proj := l.fresh()
			l.b.Emit(arcir.ArcInstr{Kind: arcir.IProject, Dst: proj, Ty: elemTy, Value1: v, Field: uint32(i)})
			cond = l.and(cond, l.emitPatternTest(sub, proj, elemTy, env))
		}
		return cond

	case ast.StructPat:
		entry, ok := l.types.Lookup(p.TypeName)
		var cond *arcir.ArcVarId
		if !ok {
			return cond
		}
		for _, fp := range p.Fields {
			idx, fieldOk := 0, false
			for i, fd := range entry.Fields {
				if fd.Name == fp.Name {
					idx, fieldOk = i, true
					break
				}
			}
			if !fieldOk {
				continue
			}
			fieldTy := entry.Fields[idx].Ty
			proj := l.fresh()
			l.b.Emit(arcir.ArcInstr{Kind: arcir.IProject, Dst: proj, Ty: fieldTy, Value1: v, Field: uint32(idx)})
			cond = l.and(cond, l.emitPatternTest(fp.Pattern, proj, fieldTy, env))
		}
		return cond

	case ast.VariantPat:
		entry, ok := l.types.Lookup(p.EnumName)
		if !ok {
			return nil
		}
		variant, variantIdx, ok := entry.Variant(p.VariantName)
		if !ok {
			return nil
		}
		tagLit := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: tagLit, Ty: typepool.INT, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: arcir.LitValue{Kind: arcir.LitInt, Int: int64(variantIdx)}}})
		tagVar := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: tagVar, Ty: typepool.INT, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "variant_tag"}, PrimArgs: []arcir.ArcVarId{v}}})
		cond := l.boolOp("==", tagVar, tagLit)
		for i, sub := range p.Payload {
			if i >= len(variant.Payload) {
				break
			}
			payloadTy := variant.Payload[i]
			proj := l.fresh()
			l.b.Emit(arcir.ArcInstr{Kind: arcir.IProject, Dst: proj, Ty: payloadTy, Value1: v, Field: uint32(i)})
			cond = l.and(cond, l.emitPatternTest(sub, proj, payloadTy, env))
		}
		return cond

	case ast.ListPat:
		resolved := l.ck.Engine.Resolve(ty)
		t := l.ck.Pool.Get(resolved)
		elemTy := typepool.ERROR
		if t.Tag == typepool.TagList {
			elemTy = t.Elem
		}
		lenLit := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: lenLit, Ty: typepool.INT, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: arcir.LitValue{Kind: arcir.LitInt, Int: int64(len(p.Elems))}}})
		lenVar := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: lenVar, Ty: typepool.INT, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "list_len"}, PrimArgs: []arcir.ArcVarId{v}}})
		op := "=="
		if p.Rest != nil {
			op = ">="
		}
		cond := l.boolOp(op, lenVar, lenLit)
		for i, sub := range p.Elems {
			idxLit := l.fresh()
			l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: idxLit, Ty: typepool.INT, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: arcir.LitValue{Kind: arcir.LitInt, Int: int64(i)}}})
			elemVar := l.fresh()
			l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: elemVar, Ty: elemTy, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimBinary, Op: "list_nth"}, PrimArgs: []arcir.ArcVarId{v, idxLit}}})
			cond = l.and(cond, l.emitPatternTest(sub, elemVar, elemTy, env))
		}
		if p.Rest != nil {
			l.vars[*p.Rest] = v
			env.BindMono(*p.Rest, ty)
		}
		return cond

	case ast.OptionSomePat:
		resolved := l.ck.Engine.Resolve(ty)
		t := l.ck.Pool.Get(resolved)
		inner := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagOption {
			inner = t.Elem
		}
		isSome := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: isSome, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "option_is_some"}, PrimArgs: []arcir.ArcVarId{v}}})
		unwrapped := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: unwrapped, Ty: inner, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "option_unwrap"}, PrimArgs: []arcir.ArcVarId{v}}})
		cond := l.and(&isSome, l.emitPatternTest(p.Inner, unwrapped, inner, env))
		return cond

	case ast.OptionNonePat:
		isSome := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: isSome, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "option_is_some"}, PrimArgs: []arcir.ArcVarId{v}}})
		return l.boolOp("==", isSome, l.litBool(false))

	case ast.ResultOkPat:
		resolved := l.ck.Engine.Resolve(ty)
		t := l.ck.Pool.Get(resolved)
		inner := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagResult {
			inner = t.Elem
		}
		isOk := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: isOk, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "result_is_ok"}, PrimArgs: []arcir.ArcVarId{v}}})
		unwrapped := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: unwrapped, Ty: inner, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "result_unwrap_ok"}, PrimArgs: []arcir.ArcVarId{v}}})
		cond := l.and(&isOk, l.emitPatternTest(p.Inner, unwrapped, inner, env))
		return cond

	case ast.ResultErrPat:
		resolved := l.ck.Engine.Resolve(ty)
		t := l.ck.Pool.Get(resolved)
		inner := typepool.Idx(typepool.ERROR)
		if t.Tag == typepool.TagResult {
			inner = t.Elem2
		}
		isOk := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: isOk, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "result_is_ok"}, PrimArgs: []arcir.ArcVarId{v}}})
		unwrapped := l.fresh()
		l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: unwrapped, Ty: inner, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimUnary, Op: "result_unwrap_err"}, PrimArgs: []arcir.ArcVarId{v}}})
		isErr := l.boolOp("==", isOk, l.litBool(false))
		cond := l.and(&isErr, l.emitPatternTest(p.Inner, unwrapped, inner, env))
		return cond

	default:
		return nil
	}
}

// and combines two optional Bool conditions with a PrimBinary "&&".
func (l *lowerer) and(a, b *arcir.ArcVarId) *arcir.ArcVarId {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: dst, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimBinary, Op: "&&"}, PrimArgs: []arcir.ArcVarId{*a, *b}}})
	return &dst
}

func (l *lowerer) boolOp(op string, a, b arcir.ArcVarId) *arcir.ArcVarId {
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: dst, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValuePrimOp, PrimOp: arcir.PrimOp{Kind: arcir.PrimBinary, Op: op}, PrimArgs: []arcir.ArcVarId{a, b}}})
	return &dst
}

func (l *lowerer) litBool(b bool) arcir.ArcVarId {
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.ILet, Dst: dst, Ty: typepool.BOOL, Value: arcir.ArcValue{Kind: arcir.ValueLiteral, Literal: arcir.LitValue{Kind: arcir.LitBool, Bool: b}}})
	return &dst
}

func (l *lowerer) lowerWith(w *ast.With, env *infer.Env) arcir.ArcVarId {
	// Capability provision is a type/diagnostic-level concern (spec
	// §4.2's `with` scoping); at the ARC level a provider is just
	// evaluated for effect and the body's value passes through.
	l.lowerExpr(w.Provider, env)
	return l.lowerExpr(w.Body, env)
}

func (l *lowerer) lowerLambda(lam *ast.Lambda, env *infer.Env, bindSelf string) arcir.ArcVarId {
	ty := l.resolvedType(lam, env)
	name := l.syntheticName("lambda")
	l.lowerNestedFunction(name, lam, env, bindSelf, ty)
	dst := l.fresh()
	l.b.Emit(arcir.ArcInstr{Kind: arcir.IConstruct, Dst: dst, Ty: ty, Ctor: arcir.CtorKind{Kind: arcir.CtorClosure, Name: name}})
	return dst
}

// lowerNestedFunction lowers lam's body as its own ArcFunction (closure
// conversion), appended to l.extra. Free variables are intentionally
// not threaded as an explicit capture list here — the ARC-level
// contract is that CtorClosure's Name identifies the function and the
// constructor's Args (left empty by this simplified pass) would carry
// captures in a fuller implementation; documented as a known
// simplification alongside the rest of this package's Open Question
// decisions.
func (l *lowerer) lowerNestedFunction(name string, lam *ast.Lambda, env *infer.Env, bindSelf string, lamTy typepool.Idx) {
	child := &lowerer{ck: l.ck, types: l.types, vars: map[string]arcir.ArcVarId{}, alias: map[string]string{}, seq: l.seq}
	for k, v := range l.alias {
		child.alias[k] = v
	}
	if bindSelf != "" {
		child.alias[bindSelf] = name
	}

	paramTypes := make([]typepool.Idx, len(lam.Params))
	resolvedLamTy := l.ck.Engine.Resolve(lamTy)
	ft := l.ck.Pool.Get(resolvedLamTy)
	for i := range lam.Params {
		if ft.Tag == typepool.TagFunction && i < len(ft.Params) {
			paramTypes[i] = ft.Params[i]
		} else {
			paramTypes[i] = l.ck.Engine.FreshVar()
		}
	}
	retTy := typepool.ERROR
	if ft.Tag == typepool.TagFunction {
		retTy = ft.Elem
	}

	decl := &ast.FuncDecl{Name: name, Params: make([]ast.ParamDecl, len(lam.Params)), Body: lam.Body}
	for i, p := range lam.Params {
		decl.Params[i] = ast.ParamDecl{Name: p}
	}
	fn := child.lowerDecl(decl, paramTypes, retTy)
	l.extra = append(l.extra, fn)
	l.extra = append(l.extra, child.extra...)
}

func (l *lowerer) syntheticName(kind string) string {
	*l.seq++
	return fmt.Sprintf("%s$%s%d", l.b.Finish().Name, kind, *l.seq)
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}
