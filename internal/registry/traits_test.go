package registry

import "testing"

// TestCoherenceRejectsSecondImpl is spec §8.2 scenario S3: two impls of
// Printable for Point must be rejected with a CoherenceError carrying
// both spans.
func TestCoherenceRejectsSecondImpl(t *testing.T) {
	r := NewTraitRegistry()
	first := &Impl{Trait: "Printable", SelfType: "Point", Methods: map[string]MethodSig{}, Span: "line 10"}
	if err := r.AddImpl(first); err != nil {
		t.Fatalf("first impl should register cleanly: %v", err)
	}
	second := &Impl{Trait: "Printable", SelfType: "Point", Methods: map[string]MethodSig{}, Span: "line 20"}
	err := r.AddImpl(second)
	if err == nil {
		t.Fatal("expected coherence error on duplicate impl")
	}
	ce, ok := err.(*CoherenceError)
	if !ok {
		t.Fatalf("expected *CoherenceError, got %T", err)
	}
	if ce.FirstSpan != "line 10" || ce.SecondSpan != "line 20" {
		t.Fatalf("expected both spans carried, got %+v", ce)
	}
}

func TestInherentImplCannotRedefineMethod(t *testing.T) {
	r := NewTraitRegistry()
	first := &Impl{SelfType: "Point", Methods: map[string]MethodSig{"dist": {Name: "dist"}}, Span: "a"}
	if err := r.AddImpl(first); err != nil {
		t.Fatal(err)
	}
	second := &Impl{SelfType: "Point", Methods: map[string]MethodSig{"dist": {Name: "dist"}}, Span: "b"}
	if err := r.AddImpl(second); err == nil {
		t.Fatal("expected rejection of redefined inherent method")
	}
}

func TestResolveMethodCachesResult(t *testing.T) {
	r := NewTraitRegistry()
	_ = r.AddImpl(&Impl{SelfType: "Point", Methods: map[string]MethodSig{"dist": {Name: "dist"}}, Span: "a"})

	impl, sig, ok := r.ResolveMethod("Point", "dist")
	if !ok || impl == nil || sig.Name != "dist" {
		t.Fatal("expected method resolution to succeed")
	}
	// Second call should hit the cache and return the same impl.
	impl2, _, ok2 := r.ResolveMethod("Point", "dist")
	if !ok2 || impl2 != impl {
		t.Fatal("expected cached resolution to return same impl pointer")
	}
}

func TestResolveMethodMissReturnsNotFound(t *testing.T) {
	r := NewTraitRegistry()
	if _, _, ok := r.ResolveMethod("Nowhere", "whatever"); ok {
		t.Fatal("expected no method found")
	}
}
