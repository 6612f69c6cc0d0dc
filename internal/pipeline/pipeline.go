// Package pipeline wires the type checker, ARC lowering/optimization
// passes, and LLVM code generation together into one per-compilation-unit
// driver: parse -> check -> lower -> optimize -> codegen.
//
// Grounded on the teacher's Config/Source/Result/PhaseTimings shape
// (sunholo-data-ailang/internal/pipeline/pipeline.go's runSingle phase
// structure), adapted from its parse/elaborate/typecheck/lower/link/
// evaluate chain to this compiler's parse/check/lower/optimize/codegen
// chain. The lexer/parser surface grammar is an explicit out-of-scope
// external collaborator, so parsing is delegated through the Frontend
// interface rather than implemented here -- the same named-interface
// pattern internal/llvm uses for Toolchain/JITRunner.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/borrow"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/infer"
	"github.com/oriproj/ori/internal/llvm"
	"github.com/oriproj/ori/internal/llvm/irwriter"
	"github.com/oriproj/ori/internal/lower"
	"github.com/oriproj/ori/internal/rcelim"
	"github.com/oriproj/ori/internal/rcinsert"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/reuse"
	"github.com/oriproj/ori/internal/typepool"
)

// Frontend turns raw source text into the declarations this pipeline
// consumes. It is the named seam standing in for the lexer/parser
// surface grammar (spec's own opening scope boundary: "the front-end
// produces a typed AST with an interner; this [package] consumes it").
type Frontend interface {
	// ParseUnit parses one source file into its top-level function
	// declarations. Struct/enum/trait/impl definitions are expected to
	// already be registered into Config's TypeRegistry/TraitRegistry by
	// the time a unit reaches this pipeline.
	ParseUnit(path string, source []byte) ([]*ast.FuncDecl, error)
}

// Config holds the shared state one build uses across every compiled
// file: the interned type Pool and the Type/Trait registries populated
// by declaration processing upstream of this package, plus the
// Frontend collaborator and the module path new symbols mangle under.
type Config struct {
	Frontend   Frontend
	Pool       *typepool.Pool
	Types      *registry.TypeRegistry
	Traits     *registry.TraitRegistry
	ModulePath []string
}

// Source is one compilation unit's raw input.
type Source struct {
	Path    string
	Content []byte
}

// Result is one compiled unit's output: the rendered LLVM module text
// plus diagnostics and per-phase timings.
type Result struct {
	Module       *irwriter.Module
	Diagnostics  []*diag.Diagnostic
	PhaseTimings map[string]int64 // milliseconds, keyed by phase name
}

// CompileUnit runs one source file through parse -> check -> lower ->
// optimize -> codegen, returning the rendered module and any
// diagnostics. A non-nil error only ever comes from the Frontend; type
// errors are reported as diagnostics on Result, matching the rest of
// this module's diag.Accumulator convention.
func CompileUnit(cfg Config, src Source) (*Result, error) {
	result := &Result{PhaseTimings: make(map[string]int64)}

	start := time.Now()
	decls, err := cfg.Frontend.ParseUnit(src.Path, src.Content)
	result.PhaseTimings["parse"] = time.Since(start).Milliseconds()
	if err != nil {
		return result, fmt.Errorf("parsing %s: %w", src.Path, err)
	}

	ck := infer.NewChecker(cfg.Pool, cfg.Types, cfg.Traits)
	globalEnv := infer.NewEnv()

	start = time.Now()
	units := make([]*funcUnit, 0, len(decls))
	for _, decl := range decls {
		u, err := resolveFuncUnit(ck, decl)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, diag.New(diag.E3001UnknownIdent, diag.Span{File: src.Path}, err.Error()))
			continue
		}
		units = append(units, u)
		// Bind every unit's signature before checking any body, so
		// mutually- and forward-referencing top-level functions resolve
		// each other the same as a backward reference would.
		globalEnv.BindMono(decl.Name, ck.Pool.NewFunction(u.paramTypes, u.retTy))
		// Record the declaration itself so a call site naming it directly
		// can check its where-clause bounds and declared uses set (spec
		// §4.2 where-clauses and capability checking).
		ck.RegisterFuncDecl(decl)
	}
	for _, u := range units {
		ck.CheckFuncDecl(u.decl, u.paramTypes, u.retTy, globalEnv)
	}
	result.PhaseTimings["check"] = time.Since(start).Milliseconds()
	result.Diagnostics = append(result.Diagnostics, ck.Diags.All()...)
	if ck.Diags.HasErrors() {
		return result, nil
	}

	start = time.Now()
	var fns []*arcir.ArcFunction
	for _, u := range units {
		lowered := lower.Lower(u.decl, ck, u.paramTypes, u.retTy, cfg.Types)
		fns = append(fns, lowered.Main)
		fns = append(fns, lowered.Extras...)
	}
	result.PhaseTimings["lower"] = time.Since(start).Milliseconds()

	start = time.Now()
	optimize(fns)
	result.PhaseTimings["optimize"] = time.Since(start).Milliseconds()

	start = time.Now()
	mod := irwriter.NewModule(src.Path)
	for _, fn := range fns {
		llvm.LowerFunction(mod, fn, cfg.ModulePath, cfg.Pool, cfg.Types)
	}
	for _, entry := range cfg.Types.All() {
		if len(entry.Derives) > 0 {
			llvm.DeriveFunctions(mod, cfg.ModulePath, cfg.Pool, cfg.Types, entry)
		}
	}
	result.PhaseTimings["codegen"] = time.Since(start).Milliseconds()
	result.Module = mod

	return result, nil
}

// funcUnit pairs a parsed declaration with its annotation-resolved
// parameter and return types, computed once so check/lower/optimize
// all see the exact same typepool.Idx values.
type funcUnit struct {
	decl       *ast.FuncDecl
	paramTypes []typepool.Idx
	retTy      typepool.Idx
}

func resolveFuncUnit(ck *infer.Checker, decl *ast.FuncDecl) (*funcUnit, error) {
	rigid := make(map[string]typepool.Idx, len(decl.TypeParams))
	for _, tp := range decl.TypeParams {
		rigid[tp] = ck.Pool.NewRigidVar(tp)
	}
	freshVar := func() typepool.Idx { return ck.Engine.FreshVar() }

	paramTypes := make([]typepool.Idx, len(decl.Params))
	for i, p := range decl.Params {
		idx, err := resolveAnnotation(p.Type, ck.Pool, ck.Types, rigid, freshVar)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", decl.Name, p.Name, err)
		}
		paramTypes[i] = idx
	}

	// A FuncDecl carries no dedicated return-type field distinct from its
	// body; the return type is whatever the body checks against, so an
	// uninferred retTy always starts life as a fresh variable here and is
	// narrowed by CheckFuncDecl's c.Check call against the body.
	return &funcUnit{decl: decl, paramTypes: paramTypes, retTy: freshVar()}, nil
}

// optimize runs the whole-program borrow analysis followed by the
// per-function rc-insertion/reuse/elimination passes, in the order
// spec §4.4-§4.7 fix: borrow inference first (it needs every function's
// body to decide parameter ownership), then per-function passes that
// each depend on the previous one's output.
func optimize(fns []*arcir.ArcFunction) {
	borrow.Infer(fns)

	byName := make(map[string]*arcir.ArcFunction, len(fns))
	for _, fn := range fns {
		byName[fn.Name] = fn
	}
	paramOwned := func(funcName string, argIdx int) (owned bool, known bool) {
		fn, ok := byName[funcName]
		if !ok || argIdx >= len(fn.Params) {
			return false, false
		}
		return fn.Params[argIdx].Ownership == arcir.Owned, true
	}

	// Sort by name so a multi-function unit optimizes in a deterministic
	// order regardless of how lowering appended to fns.
	sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })

	for _, fn := range fns {
		rcinsert.Insert(fn, paramOwned)
	}
	for _, fn := range fns {
		reuse.Apply(fn)
		derived := borrow.InferDerived(fn)
		rcelim.EliminateDataflow(fn, derived)
	}
}
