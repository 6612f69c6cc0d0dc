package infer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oriproj/ori/internal/ast"
	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// builtinHardwired are the print/builtin names that win method dispatch
// unconditionally at priority 1 (spec §4.2).
var builtinHardwired = map[string]typepool.Idx{
	"print": typepool.UNIT,
}

// collectionMethods are handled by the interpreter at priority 6 (spec
// §4.2) — the type checker only needs to know their signature shape
// well enough to type the call; the interpreter (an external
// collaborator, spec §1) supplies the actual evaluation.
var collectionMethods = map[string]bool{
	"map": true, "filter": true, "fold": true, "forEach": true,
	"flatMap": true, "reduce": true, "collect": true,
}

// builtinContainerMethods are priority-7 built-ins on primitives and
// containers with fixed signatures relative to the receiver type.
var builtinContainerMethods = map[string]func(pool *typepool.Pool, recv typepool.Idx) typepool.Idx{
	"len": func(pool *typepool.Pool, recv typepool.Idx) typepool.Idx { return typepool.INT },
	"isEmpty": func(pool *typepool.Pool, recv typepool.Idx) typepool.Idx { return typepool.BOOL },
	"toString": func(pool *typepool.Pool, recv typepool.Idx) typepool.Idx { return typepool.STR },
}

// inferMethodCall implements spec §4.2's method-dispatch priority order.
// First hit wins; otherwise NoSuchMethod with similar-name suggestions.
func (c *Checker) inferMethodCall(mc *ast.MethodCall, env *Env) typepool.Idx {
	recvTy := c.Engine.Resolve(c.Infer(mc.Receiver, env))
	argTys := make([]typepool.Idx, len(mc.Args))
	for i, a := range mc.Args {
		argTys[i] = c.Infer(a, env)
	}

	// Priority 1: print/builtin hard-wired names.
	if ret, ok := builtinHardwired[mc.Method]; ok {
		return ret
	}

	// Priority 2: TypeName.method static calls. Receiver surfaces as a
	// ModuleNamespace-tagged reference when the parser resolved it to a
	// type name rather than a value (an external-collaborator concern;
	// we only react to the tag here).
	if t := c.Pool.Get(recvTy); t.Tag == typepool.TagModuleNamespace {
		if impl, sig, ok := c.Traits.ResolveMethod(t.Name, mc.Method); ok {
			return c.applyMethodSig(mc, impl.SelfType, sig, argTys)
		}
	}

	// Priority 3: callable-field access on struct fields (a field whose
	// declared type is itself a Function).
	if fieldTy, ok := c.tryCallableField(recvTy, mc.Method); ok {
		return c.applyFunctionValue(mc, fieldTy, argTys)
	}

	// Priorities 4, 5, 8: inherent methods, derived-trait methods, and
	// trait default methods — all funnel through the trait registry's
	// single memoized ResolveMethod, which already encodes "inherent
	// wins over trait impl" (spec priority 4 before 5/8).
	if selfName, ok := structNameOf(c.Pool, recvTy); ok {
		if _, sig, ok := c.Traits.ResolveMethod(selfName, mc.Method); ok {
			return c.applyMethodSig(mc, selfName, sig, argTys)
		}
	}

	// Priority 6: collection methods needing the interpreter — type
	// checker only validates arity loosely and returns a fresh result
	// variable; the interpreter enforces the rest at runtime.
	if collectionMethods[mc.Method] {
		return c.Engine.FreshVar()
	}

	// Priority 7: built-in methods on primitives/containers.
	if f, ok := builtinContainerMethods[mc.Method]; ok {
		return f(c.Pool, recvTy)
	}

	c.Diags.Add(c.noSuchMethod(mc, recvTy))
	return typepool.ERROR
}

func (c *Checker) applyMethodSig(mc *ast.MethodCall, selfType string, sig registry.MethodSig, argTys []typepool.Idx) typepool.Idx {
	params := sig.Params
	if len(params) != len(argTys) {
		c.Diags.Add(diag.New(diag.E3011ArgCountMismatch, toSpan(mc),
			fmt.Sprintf("%s.%s expects %d argument(s), got %d", selfType, mc.Method, len(params), len(argTys))))
		return typepool.ERROR
	}
	for i, want := range params {
		c.unifyOrReport(mc.Args[i], want, argTys[i])
	}
	return sig.Return
}

func (c *Checker) applyFunctionValue(mc *ast.MethodCall, fnTy typepool.Idx, argTys []typepool.Idx) typepool.Idx {
	t := c.Pool.Get(c.Engine.Resolve(fnTy))
	if t.Tag != typepool.TagFunction {
		return typepool.ERROR
	}
	if len(t.Params) != len(argTys) {
		c.Diags.Add(diag.New(diag.E3011ArgCountMismatch, toSpan(mc),
			fmt.Sprintf("argument count mismatch: expected %d, got %d", len(t.Params), len(argTys))))
		return typepool.ERROR
	}
	for i, want := range t.Params {
		c.unifyOrReport(mc.Args[i], want, argTys[i])
	}
	return t.Elem
}

func (c *Checker) tryCallableField(recvTy typepool.Idx, field string) (typepool.Idx, bool) {
	name, ok := structNameOf(c.Pool, recvTy)
	if !ok {
		return typepool.Invalid, false
	}
	entry, ok := c.Types.Lookup(name)
	if !ok {
		return typepool.Invalid, false
	}
	fd, ok := entry.Field(field)
	if !ok {
		return typepool.Invalid, false
	}
	if c.Pool.Get(fd.Ty).Tag != typepool.TagFunction {
		return typepool.Invalid, false
	}
	return fd.Ty, true
}

func structNameOf(pool *typepool.Pool, idx typepool.Idx) (string, bool) {
	t := pool.Get(idx)
	switch t.Tag {
	case typepool.TagNamed, typepool.TagApplied:
		return t.Name, true
	default:
		return "", false
	}
}

func (c *Checker) noSuchMethod(mc *ast.MethodCall, recvTy typepool.Idx) *diag.Diagnostic {
	recvName, _ := structNameOf(c.Pool, recvTy)
	msg := fmt.Sprintf("no method %q found on %s", mc.Method, c.Pool.String(recvTy))
	d := diag.New(diag.E3013NoSuchMethod, toSpan(mc), msg)
	if suggestion := suggestSimilarMethod(c, recvName, mc.Method); suggestion != "" {
		d.WithSuggestion(fmt.Sprintf("did you mean %q?", suggestion))
	}
	return d
}

// suggestSimilarMethod finds the closest-named known method by edit
// distance, among builtins, container methods, and any impls for the
// receiver's type.
func suggestSimilarMethod(c *Checker, selfType, attempted string) string {
	candidates := map[string]bool{}
	for name := range builtinHardwired {
		candidates[name] = true
	}
	for name := range builtinContainerMethods {
		candidates[name] = true
	}
	for name := range collectionMethods {
		candidates[name] = true
	}
	best, bestDist := "", -1
	names := make([]string, 0, len(candidates))
	for n := range candidates {
		names = append(names, n)
	}
	sort.Strings(names) // deterministic tie-break
	for _, n := range names {
		d := levenshtein(strings.ToLower(n), strings.ToLower(attempted))
		if bestDist == -1 || d < bestDist {
			best, bestDist = n, d
		}
	}
	if bestDist >= 0 && bestDist <= 2 {
		return best
	}
	return ""
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
