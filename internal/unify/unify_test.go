package unify

import (
	"testing"

	"github.com/oriproj/ori/internal/typepool"
)

func TestResolveIdempotent(t *testing.T) {
	pool := typepool.New()
	e := New(pool)
	v := e.FreshVar()
	if err := e.Unify(v, typepool.INT); err != nil {
		t.Fatal(err)
	}
	r1 := e.Resolve(v)
	r2 := e.Resolve(r1)
	if r1 != r2 {
		t.Fatalf("resolve not idempotent: %d vs %d", r1, r2)
	}
}

func TestUnifySymmetry(t *testing.T) {
	pool := typepool.New()
	e1 := New(pool)
	a := e1.FreshVar()
	err1 := e1.Unify(a, typepool.BOOL)

	pool2 := typepool.New()
	e2 := New(pool2)
	b := e2.FreshVar()
	err2 := e2.Unify(typepool.BOOL, b)

	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("asymmetric unification results: %v vs %v", err1, err2)
	}
}

func TestOccursCheck(t *testing.T) {
	pool := typepool.New()
	e := New(pool)
	v := e.FreshVar()
	list := pool.NewList(v)
	if err := e.Unify(v, list); err == nil {
		t.Fatal("expected InfiniteType error")
	} else if uerr, ok := err.(*Error); !ok || uerr.Kind != InfiniteType {
		t.Fatalf("expected InfiniteType, got %v", err)
	}
}

func TestRigidVarsOnlyUnifyWithThemselves(t *testing.T) {
	pool := typepool.New()
	e := New(pool)
	r1 := e.FreshRigidVar("T")
	if err := e.Unify(r1, typepool.INT); err == nil {
		t.Fatal("expected rigid var to reject concrete type")
	}
	r2 := e.FreshRigidVar("T")
	if err := e.Unify(r1, r2); err == nil {
		t.Fatal("expected two distinct rigid vars to fail to unify")
	}
	if err := e.Unify(r1, r1); err != nil {
		t.Fatalf("expected rigid var to unify with itself: %v", err)
	}
}

func TestGeneralizeMonotonicity(t *testing.T) {
	pool := typepool.New()
	e := New(pool)

	outer := e.FreshVar() // rank 0
	e.EnterScope()        // rank 1
	inner := e.FreshVar()
	fn := pool.NewFunction([]typepool.Idx{inner}, outer)
	e.ExitScope() // back to rank 0: only `inner` (rank 1) exceeds it
	scheme := e.Generalize(fn)
	if len(scheme.Quantified) != 1 {
		t.Fatalf("expected exactly one quantified variable (the inner one), got %d", len(scheme.Quantified))
	}
}

func TestInstantiateFreshensEachTime(t *testing.T) {
	pool := typepool.New()
	e := New(pool)

	e.EnterScope()
	v := e.FreshVar()
	fn := pool.NewFunction([]typepool.Idx{v}, v)
	e.ExitScope()
	scheme := e.Generalize(fn)

	i1 := e.Instantiate(scheme)
	i2 := e.Instantiate(scheme)
	if i1 == i2 {
		t.Fatal("expected two instantiations to allocate distinct fresh variables")
	}
}

// TestHMIdPolymorphism is spec §8.2 scenario S1: `let id = \x -> x in
// (id 1, id true)` must type as (Int, Bool), with id's scheme generalized
// and each use instantiated independently.
func TestHMIdPolymorphism(t *testing.T) {
	pool := typepool.New()
	e := New(pool)

	e.EnterScope()
	x := e.FreshVar()
	idTy := pool.NewFunction([]typepool.Idx{x}, x)
	e.ExitScope()
	scheme := e.Generalize(idTy)

	use1 := e.Instantiate(scheme)
	use2 := e.Instantiate(scheme)

	t1 := pool.Get(use1)
	if err := e.Unify(t1.Params[0], typepool.INT); err != nil {
		t.Fatalf("unify int use: %v", err)
	}
	t2 := pool.Get(use2)
	if err := e.Unify(t2.Params[0], typepool.BOOL); err != nil {
		t.Fatalf("unify bool use: %v", err)
	}

	if e.Resolve(t1.Elem) != typepool.INT {
		t.Fatal("expected first use to resolve to Int")
	}
	if e.Resolve(t2.Elem) != typepool.BOOL {
		t.Fatal("expected second use to resolve to Bool")
	}
}
