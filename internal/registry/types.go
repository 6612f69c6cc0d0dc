// Package registry implements the Type Registry and Trait Registry (spec
// §3.3, §3.4, §4.2's trait-bound/coherence machinery): named-type
// definitions (structs, enums, newtypes, aliases), trait definitions,
// impl coherence, and method resolution with a per-lookup cache.
//
// Grounded on the teacher's TypeEnv chain (sunholo-data-ailang/internal
// /types/env.go) for environment-style lookup, generalized here into two
// registries keyed by name/pair as spec §3.3–§3.4 describe, and on
// original_source/compiler/ori_typeck/src/registry/trait_registry.rs for
// the coherence and method-resolution-cache shape.
package registry

import (
	"sort"

	"github.com/oriproj/ori/internal/typepool"
)

// FieldDef is one field of a struct (or tuple-like variant payload).
type FieldDef struct {
	Name string
	Ty   typepool.Idx
}

// VariantDef is one enum variant.
type VariantDef struct {
	Name        string
	Payload     []typepool.Idx
	Discriminant uint64
}

// Kind distinguishes what a named type actually is.
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
	KindNewtype
	KindAlias
)

// TypeEntry is a registry record for one named type (spec §3.3).
type TypeEntry struct {
	Name       string
	Idx        typepool.Idx
	Kind       Kind
	Fields     []FieldDef   // Struct
	Variants   []VariantDef // Enum
	Inner      typepool.Idx // Newtype
	Target     typepool.Idx // Alias
	TypeParams []string
	Derives    []string // `#[derive(...)]` trait names (spec §4.8)
}

// TypeRegistry maps named types to their entries.
type TypeRegistry struct {
	entries map[string]*TypeEntry
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{entries: make(map[string]*TypeEntry)}
}

func (r *TypeRegistry) Define(e *TypeEntry) { r.entries[e.Name] = e }

func (r *TypeRegistry) Lookup(name string) (*TypeEntry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// All returns every defined entry, sorted by name for deterministic
// iteration (callers that need to walk the whole registry -- e.g. to
// synthesize derived-trait methods for every struct -- should not depend
// on Go's randomized map order).
func (r *TypeRegistry) All() []*TypeEntry {
	out := make([]*TypeEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Field looks up a field by name within a struct entry.
func (e *TypeEntry) Field(name string) (FieldDef, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Variant looks up an enum variant by name.
func (e *TypeEntry) Variant(name string) (VariantDef, int, bool) {
	for i, v := range e.Variants {
		if v.Name == name {
			return v, i, true
		}
	}
	return VariantDef{}, -1, false
}
