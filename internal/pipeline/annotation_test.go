package pipeline

import (
	"testing"

	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

func TestResolveAnnotationPrimitivesAndAliases(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	for _, tc := range []struct {
		raw  string
		want typepool.Idx
	}{
		{"Int", typepool.INT},
		{"Bool", typepool.BOOL},
		{"Str", typepool.STR},
		{"String", typepool.STR},
		{"Unit", typepool.UNIT},
	} {
		got, err := resolveAnnotation(tc.raw, pool, types, nil, nil)
		if err != nil {
			t.Fatalf("resolveAnnotation(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("resolveAnnotation(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestResolveAnnotationEmptyUsesFreshVar(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	calls := 0
	fresh := func() typepool.Idx { calls++; return typepool.Idx(1000 + calls) }
	idx, err := resolveAnnotation("", pool, types, nil, fresh)
	if err != nil {
		t.Fatalf("resolveAnnotation: %v", err)
	}
	if calls != 1 || idx != typepool.Idx(1001) {
		t.Fatalf("expected freshVar to be called once, got calls=%d idx=%v", calls, idx)
	}
}

func TestResolveAnnotationBuiltinGenerics(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()

	listTy, err := resolveAnnotation("List<Int>", pool, types, nil, nil)
	if err != nil {
		t.Fatalf("List<Int>: %v", err)
	}
	if listTy != pool.NewList(typepool.INT) {
		t.Fatalf("expected interned List<Int>, got %v", listTy)
	}

	resultTy, err := resolveAnnotation("Result<Int, Str>", pool, types, nil, nil)
	if err != nil {
		t.Fatalf("Result<Int, Str>: %v", err)
	}
	if resultTy != pool.NewResult(typepool.INT, typepool.STR) {
		t.Fatalf("expected interned Result<Int, Str>, got %v", resultTy)
	}
}

func TestResolveAnnotationTupleAndFunction(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()

	tupleTy, err := resolveAnnotation("(Int, Bool)", pool, types, nil, nil)
	if err != nil {
		t.Fatalf("(Int, Bool): %v", err)
	}
	if tupleTy != pool.NewTuple([]typepool.Idx{typepool.INT, typepool.BOOL}) {
		t.Fatalf("expected interned tuple, got %v", tupleTy)
	}

	fnTy, err := resolveAnnotation("(Int, Int) -> Bool", pool, types, nil, nil)
	if err != nil {
		t.Fatalf("function annotation: %v", err)
	}
	if fnTy != pool.NewFunction([]typepool.Idx{typepool.INT, typepool.INT}, typepool.BOOL) {
		t.Fatalf("expected interned function type, got %v", fnTy)
	}
}

func TestResolveAnnotationRigidTypeParam(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	rv := pool.NewRigidVar("T")
	rigid := map[string]typepool.Idx{"T": rv}

	got, err := resolveAnnotation("T", pool, types, rigid, nil)
	if err != nil {
		t.Fatalf("resolveAnnotation(T): %v", err)
	}
	if got != rv {
		t.Fatalf("expected rigid var T, got %v", got)
	}

	listOfT, err := resolveAnnotation("List<T>", pool, types, rigid, nil)
	if err != nil {
		t.Fatalf("resolveAnnotation(List<T>): %v", err)
	}
	if listOfT != pool.NewList(rv) {
		t.Fatalf("expected List<T>, got %v", listOfT)
	}
}

func TestResolveAnnotationUserDefinedStruct(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	types.Define(&registry.TypeEntry{Name: "Box", Kind: registry.KindStruct, TypeParams: []string{"T"}})

	got, err := resolveAnnotation("Box<Int>", pool, types, nil, nil)
	if err != nil {
		t.Fatalf("resolveAnnotation(Box<Int>): %v", err)
	}
	if got != pool.NewApplied("Box", []typepool.Idx{typepool.INT}) {
		t.Fatalf("expected Applied(Box, [Int]), got %v", got)
	}

	if _, err := resolveAnnotation("Box", pool, types, nil, nil); err == nil {
		t.Fatalf("expected arity mismatch error for bare Box")
	}
}

func TestResolveAnnotationUnknownNameErrors(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	if _, err := resolveAnnotation("Frobnicator", pool, types, nil, nil); err == nil {
		t.Fatalf("expected error for unknown type name")
	}
}
