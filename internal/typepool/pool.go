package typepool

import (
	"fmt"
	"strings"
)

// Pool is a process-local, per-compilation interning store for types.
// It guarantees that two structurally equal types constructed through
// its public API receive the same Idx (spec §3.1, invariant 1; tested
// in pool_test.go as TestPoolIdentityNamed and TestPoolIdentityApplied,
// spec §8.1 invariant 1).
type Pool struct {
	types  []Type
	intern map[string]Idx // structural key -> Idx, for all interned (non-Var) tags
	nextID uint32
}

// New creates a Pool with the fixed primitive handles pre-allocated.
func New() *Pool {
	p := &Pool{
		types:  make([]Type, firstDynamicIdx),
		intern: make(map[string]Idx),
	}
	for idx, name := range primitiveNames {
		p.types[idx] = Type{Tag: TagPrimitive, Name: name}
	}
	return p
}

func (p *Pool) alloc(t Type) Idx {
	idx := Idx(len(p.types))
	p.types = append(p.types, t)
	return idx
}

// Get returns the stored Type for idx.
func (p *Pool) Get(idx Idx) Type {
	return p.types[idx]
}

// Set overwrites the stored Type at idx (used by the unification engine
// to install a union-find link or rank update).
func (p *Pool) Set(idx Idx, t Type) {
	p.types[idx] = t
}

// internKeyed returns the existing Idx for key if present, otherwise
// allocates t fresh and remembers it under key. This is what gives the
// Pool its "Idx equality implies structural equality" guarantee for all
// tags that are built via this helper.
func (p *Pool) internKeyed(key string, t Type) Idx {
	if idx, ok := p.intern[key]; ok {
		return idx
	}
	idx := p.alloc(t)
	p.intern[key] = idx
	return idx
}

// NewVar allocates a fresh, distinct type variable at the given rank.
// Variables are never interned — each call returns a new Idx even if an
// identical-looking variable already exists, matching the semantics of
// `fresh_var()` in spec §4.1.
func (p *Pool) NewVar(rank uint32) Idx {
	p.nextID++
	return p.alloc(Type{Tag: TagVar, VarID: p.nextID, Rank: rank, Link: Invalid})
}

// NewRigidVar allocates a fresh rigid (generic parameter) variable. Like
// NewVar, never interned: two rigid vars of the same name from different
// instantiation sites are distinct.
func (p *Pool) NewRigidVar(name string) Idx {
	p.nextID++
	return p.alloc(Type{Tag: TagRigidVar, VarID: p.nextID, Name: name, Link: Invalid})
}

// NewBoundVar allocates a scheme-bound quantifier slot (only meaningful
// inside a Scheme produced by generalize; see unify.Scheme).
func (p *Pool) NewBoundVar(ordinal uint32, name string) Idx {
	return p.alloc(Type{Tag: TagBoundVar, VarID: ordinal, Name: name})
}

// NewNamed interns a reference to a registry-defined type by name with
// no type arguments (the monomorphic case of spec §4.2's struct-literal
// rule).
func (p *Pool) NewNamed(name string) Idx {
	return p.internKeyed("Named:"+name, Type{Tag: TagNamed, Name: name})
}

// NewApplied interns Name<args...>.
func (p *Pool) NewApplied(name string, args []Idx) Idx {
	if len(args) == 0 {
		return p.NewNamed(name)
	}
	return p.internKeyed("Applied:"+name+":"+joinIdx(args), Type{Tag: TagApplied, Name: name, Params: append([]Idx(nil), args...)})
}

func (p *Pool) NewList(elem Idx) Idx {
	return p.internKeyed("List:"+keyOf(elem), Type{Tag: TagList, Elem: elem})
}

func (p *Pool) NewOption(elem Idx) Idx {
	return p.internKeyed("Option:"+keyOf(elem), Type{Tag: TagOption, Elem: elem})
}

func (p *Pool) NewResult(ok, err Idx) Idx {
	return p.internKeyed("Result:"+keyOf(ok)+","+keyOf(err), Type{Tag: TagResult, Elem: ok, Elem2: err})
}

func (p *Pool) NewMap(key, val Idx) Idx {
	return p.internKeyed("Map:"+keyOf(key)+","+keyOf(val), Type{Tag: TagMap, Elem: key, Elem2: val})
}

func (p *Pool) NewSet(elem Idx) Idx {
	return p.internKeyed("Set:"+keyOf(elem), Type{Tag: TagSet, Elem: elem})
}

func (p *Pool) NewRange(elem Idx) Idx {
	return p.internKeyed("Range:"+keyOf(elem), Type{Tag: TagRange, Elem: elem})
}

func (p *Pool) NewChannel(elem Idx) Idx {
	return p.internKeyed("Channel:"+keyOf(elem), Type{Tag: TagChannel, Elem: elem})
}

func (p *Pool) NewTuple(elems []Idx) Idx {
	return p.internKeyed("Tuple:"+joinIdx(elems), Type{Tag: TagTuple, Params: append([]Idx(nil), elems...)})
}

func (p *Pool) NewFunction(params []Idx, ret Idx) Idx {
	return p.internKeyed("Function:"+joinIdx(params)+"->"+keyOf(ret), Type{Tag: TagFunction, Params: append([]Idx(nil), params...), Elem: ret})
}

func (p *Pool) NewProjection(base Idx, traitName, assocName string) Idx {
	return p.internKeyed(fmt.Sprintf("Projection:%s:%s:%s", keyOf(base), traitName, assocName),
		Type{Tag: TagProjection, Base: base, TraitName: traitName, AssocName: assocName})
}

func (p *Pool) NewModuleNamespace(name string) Idx {
	return p.internKeyed("ModuleNamespace:"+name, Type{Tag: TagModuleNamespace, Name: name})
}

func keyOf(idx Idx) string { return fmt.Sprintf("%d", idx) }

func joinIdx(xs []Idx) string {
	var b strings.Builder
	for i, x := range xs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(keyOf(x))
	}
	return b.String()
}

// String renders idx for diagnostics. Does not resolve Var links — callers
// that want a resolved display string should call unify.Engine.Resolve
// first.
func (p *Pool) String(idx Idx) string {
	t := p.Get(idx)
	switch t.Tag {
	case TagPrimitive:
		return t.Name
	case TagVar:
		if t.Link != Invalid {
			return p.String(t.Link)
		}
		return fmt.Sprintf("_%d", t.VarID)
	case TagBoundVar:
		if t.Name != "" {
			return t.Name
		}
		return fmt.Sprintf("t%d", t.VarID)
	case TagRigidVar:
		return t.Name
	case TagNamed:
		return t.Name
	case TagApplied:
		parts := make([]string, len(t.Params))
		for i, a := range t.Params {
			parts[i] = p.String(a)
		}
		return t.Name + "<" + strings.Join(parts, ", ") + ">"
	case TagList:
		return "[" + p.String(t.Elem) + "]"
	case TagOption:
		return "Option<" + p.String(t.Elem) + ">"
	case TagResult:
		return "Result<" + p.String(t.Elem) + ", " + p.String(t.Elem2) + ">"
	case TagMap:
		return "Map<" + p.String(t.Elem) + ", " + p.String(t.Elem2) + ">"
	case TagSet:
		return "Set<" + p.String(t.Elem) + ">"
	case TagRange:
		return "Range<" + p.String(t.Elem) + ">"
	case TagChannel:
		return "Channel<" + p.String(t.Elem) + ">"
	case TagTuple:
		parts := make([]string, len(t.Params))
		for i, a := range t.Params {
			parts[i] = p.String(a)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TagFunction:
		parts := make([]string, len(t.Params))
		for i, a := range t.Params {
			parts[i] = p.String(a)
		}
		ret := p.String(t.Elem)
		if len(parts) == 1 {
			return parts[0] + " -> " + ret
		}
		return "(" + strings.Join(parts, ", ") + ") -> " + ret
	case TagProjection:
		return p.String(t.Base) + "." + t.AssocName
	case TagModuleNamespace:
		return "module " + t.Name
	default:
		return "<?>"
	}
}
