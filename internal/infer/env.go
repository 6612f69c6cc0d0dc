package infer

import (
	"github.com/oriproj/ori/internal/typepool"
	"github.com/oriproj/ori/internal/unify"
)

// binding is either a monomorphic type or a polymorphic scheme. Mirrors
// the teacher's TypeEnv (sunholo-data-ailang/internal/types/env.go),
// which stores `interface{}` bindings that are either Type or *Scheme;
// we keep that shape but make the two cases explicit.
type binding struct {
	mono   bool
	ty     interface{} // typepool.Idx when mono
	scheme *unify.Scheme
}

// Env is a chained lexical scope, as in the teacher's TypeEnv.
type Env struct {
	bindings map[string]binding
	parent   *Env
}

func NewEnv() *Env {
	return &Env{bindings: make(map[string]binding)}
}

// Child opens a new nested scope.
func (e *Env) Child() *Env {
	return &Env{bindings: make(map[string]binding), parent: e}
}

func (e *Env) bindMono(name string, ty interface{}) {
	e.bindings[name] = binding{mono: true, ty: ty}
}

func (e *Env) bindScheme(name string, s *unify.Scheme) {
	e.bindings[name] = binding{mono: false, scheme: s}
}

func (e *Env) lookup(name string) (binding, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.bindings[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// BindMono exposes monomorphic binding to other packages (internal/lower
// needs to seed a function's parameter scope the same way the checker
// does, without duplicating Env's chaining logic).
func (e *Env) BindMono(name string, ty typepool.Idx) { e.bindMono(name, ty) }

// LookupType resolves name to a concrete type the way inferIdent does:
// monomorphic bindings return as-is, let-polymorphic ones instantiate a
// fresh copy of the scheme. Exposed for internal/lower, which re-infers
// expression types against the same Engine/Pool the checker already
// solved rather than keeping its own parallel type map.
func (e *Env) LookupType(eng *unify.Engine, name string) (typepool.Idx, bool) {
	b, ok := e.lookup(name)
	if !ok {
		return typepool.Invalid, false
	}
	if b.mono {
		return b.ty.(typepool.Idx), true
	}
	return eng.Instantiate(b.scheme), true
}
