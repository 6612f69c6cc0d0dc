package registry

import (
	"fmt"

	"github.com/oriproj/ori/internal/typepool"
)

// MethodSig is one method in a trait definition or impl.
type MethodSig struct {
	Name       string
	Params     []typepool.Idx
	Return     typepool.Idx
	HasDefault bool
}

// TraitDef is a trait definition (spec §3.4).
type TraitDef struct {
	Name        string
	TypeParams  []string
	SuperTraits []string
	Methods     []MethodSig
	AssocTypes  []string
}

func (t *TraitDef) Method(name string) (MethodSig, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSig{}, false
}

// implKey identifies an impl by (trait, self type name). Self type is
// keyed by its TypeRegistry name rather than its Idx so that Applied
// instantiations of the same generic type share one coherence slot,
// matching spec §3.4's "(trait_name, self_ty)" pairing.
type implKey struct {
	trait string
	self  string
}

// Impl is a trait implementation (or, when Trait == "", an inherent impl).
type Impl struct {
	Trait      string
	SelfType   string
	Methods    map[string]MethodSig
	AssocTypes map[string]typepool.Idx
	Span       string // opaque source-location tag for coherence diagnostics
}

// CoherenceError reports a duplicate impl for the same (trait, self) pair
// (spec §3.4 invariant, tested by spec §8.2 scenario S3).
type CoherenceError struct {
	Trait      string
	SelfType   string
	FirstSpan  string
	SecondSpan string
}

func (e *CoherenceError) Error() string {
	return fmt.Sprintf("conflicting impl of %s for %s (first at %s, second at %s)",
		e.Trait, e.SelfType, e.FirstSpan, e.SecondSpan)
}

// TraitRegistry stores trait definitions, impls, and a per-lookup method
// resolution cache (spec §3.4).
type TraitRegistry struct {
	traits map[string]*TraitDef
	impls  map[implKey]*Impl

	// methodCache memoizes resolution of (selfTypeName, methodName) to
	// the impl that satisfies it, per spec §3.4: "a per-lookup cache
	// memoizes method resolution keyed by (self_ty, method_name)."
	methodCache map[[2]string]*Impl
}

func NewTraitRegistry() *TraitRegistry {
	return &TraitRegistry{
		traits:      make(map[string]*TraitDef),
		impls:       make(map[implKey]*Impl),
		methodCache: make(map[[2]string]*Impl),
	}
}

func (r *TraitRegistry) DefineTrait(t *TraitDef) { r.traits[t.Name] = t }

func (r *TraitRegistry) Trait(name string) (*TraitDef, bool) {
	t, ok := r.traits[name]
	return t, ok
}

// AddImpl registers a trait impl, enforcing the coherence invariant: at
// most one impl per (trait, self_ty). trait == "" registers an inherent
// impl, which additionally may not redefine a method already defined by
// another inherent impl for the same type (spec §3.4).
func (r *TraitRegistry) AddImpl(impl *Impl) error {
	key := implKey{trait: impl.Trait, self: impl.SelfType}
	if existing, ok := r.impls[key]; ok {
		if impl.Trait == "" {
			for name := range impl.Methods {
				if _, redefined := existing.Methods[name]; redefined {
					return fmt.Errorf("inherent impl for %s redefines method %q already defined at %s",
						impl.SelfType, name, existing.Span)
				}
			}
			// Merge additional inherent methods into the existing impl
			// rather than rejecting — inherent impls for a type may be
			// split across the source the way Rust's are.
			for name, m := range impl.Methods {
				existing.Methods[name] = m
			}
			return nil
		}
		return &CoherenceError{Trait: impl.Trait, SelfType: impl.SelfType, FirstSpan: existing.Span, SecondSpan: impl.Span}
	}
	r.impls[key] = impl
	// Invalidate any cached negative/positive resolution for this type —
	// a new impl can change method-dispatch outcomes.
	for k := range r.methodCache {
		if k[0] == impl.SelfType {
			delete(r.methodCache, k)
		}
	}
	return nil
}

// Implements reports whether selfType has an impl of trait.
func (r *TraitRegistry) Implements(trait, selfType string) bool {
	_, ok := r.impls[implKey{trait: trait, self: selfType}]
	return ok
}

// ImplsSatisfying returns every registered impl that implements trait,
// for the "witness type and an enumeration of impls that do satisfy"
// part of spec §4.2's TraitBoundNotSatisfied diagnostic.
func (r *TraitRegistry) ImplsSatisfying(trait string) []*Impl {
	var out []*Impl
	for k, impl := range r.impls {
		if k.trait == trait {
			out = append(out, impl)
		}
	}
	return out
}

// ResolveMethod implements spec §4.2's method-dispatch priority for the
// two registry-owned steps: user-defined inherent methods (priority 4)
// and derived/trait-impl methods (priorities 5 and 8). The caller (the
// inference engine) handles the other priority steps (builtins, static
// calls, callable fields, collection/builtin methods) before falling
// back here. Memoizes on (selfType, methodName).
func (r *TraitRegistry) ResolveMethod(selfType, methodName string) (*Impl, MethodSig, bool) {
	cacheKey := [2]string{selfType, methodName}
	if cached, ok := r.methodCache[cacheKey]; ok {
		if cached == nil {
			return nil, MethodSig{}, false
		}
		m, _ := cached.Methods[methodName]
		return cached, m, true
	}

	// Priority: inherent impl first.
	if inherent, ok := r.impls[implKey{trait: "", self: selfType}]; ok {
		if m, ok := inherent.Methods[methodName]; ok {
			r.methodCache[cacheKey] = inherent
			return inherent, m, true
		}
	}
	// Then any trait impl (including defaulted methods) for this type.
	for k, impl := range r.impls {
		if k.self != selfType || k.trait == "" {
			continue
		}
		if m, ok := impl.Methods[methodName]; ok {
			r.methodCache[cacheKey] = impl
			return impl, m, true
		}
		// Trait default methods: present on the trait definition but not
		// overridden in the impl.
		if td, ok := r.traits[k.trait]; ok {
			if m, ok := td.Method(methodName); ok && m.HasDefault {
				r.methodCache[cacheKey] = impl
				return impl, m, true
			}
		}
	}
	r.methodCache[cacheKey] = nil
	return nil, MethodSig{}, false
}
