package typepool

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPoolIdentityNamed(t *testing.T) {
	p := New()
	if p.NewNamed("Point") != p.NewNamed("Point") {
		t.Fatal("expected structurally-equal Named types to share an Idx")
	}
}

func TestPoolIdentityApplied(t *testing.T) {
	p := New()
	a := p.NewApplied("Box", []Idx{INT})
	b := p.NewApplied("Box", []Idx{INT})
	if a != b {
		t.Fatalf("expected Box<Int> to intern to the same Idx, got %d and %d", a, b)
	}
	c := p.NewApplied("Box", []Idx{BOOL})
	if a == c {
		t.Fatal("expected Box<Int> and Box<Bool> to differ")
	}
}

func TestPoolFreshVarsAreDistinct(t *testing.T) {
	p := New()
	v1 := p.NewVar(0)
	v2 := p.NewVar(0)
	if v1 == v2 {
		t.Fatal("expected two fresh vars to have distinct Idx values")
	}
}

func TestPoolFunctionInterning(t *testing.T) {
	p := New()
	f1 := p.NewFunction([]Idx{INT, BOOL}, STR)
	f2 := p.NewFunction([]Idx{INT, BOOL}, STR)
	if f1 != f2 {
		t.Fatal("expected identical function types to intern identically")
	}
}

func TestPoolFunctionTypeStructuralShape(t *testing.T) {
	p := New()
	f := p.NewFunction([]Idx{INT, BOOL}, STR)
	got := p.Get(f)
	want := Type{Tag: TagFunction, Params: []Idx{INT, BOOL}, Elem: STR}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("function type shape mismatch (-want +got):\n%s", diff)
	}
}

func TestPoolStringRendersPrimitives(t *testing.T) {
	p := New()
	if got := p.String(INT); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}
