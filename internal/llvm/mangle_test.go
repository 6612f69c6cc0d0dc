package llvm

import "testing"

func TestMangleTopLevelFunction(t *testing.T) {
	if got := Mangle([]string{"main"}, "add"); got != "_ori_main$add" {
		t.Fatalf("got %q", got)
	}
}

func TestMangleNestedModule(t *testing.T) {
	if got := Mangle([]string{"parent", "child"}, "run"); got != "_ori_parent$child$run" {
		t.Fatalf("got %q", got)
	}
}

func TestDemangleRoundTrips(t *testing.T) {
	sym := Mangle([]string{"parent", "child"}, "run")
	path, fn, ok := Demangle(sym)
	if !ok {
		t.Fatalf("expected ok")
	}
	if fn != "run" {
		t.Fatalf("expected function 'run', got %q", fn)
	}
	if len(path) != 2 || path[0] != "parent" || path[1] != "child" {
		t.Fatalf("expected module path [parent child], got %v", path)
	}
}

func TestDemangleRejectsUnmangledSymbol(t *testing.T) {
	if _, _, ok := Demangle("main"); ok {
		t.Fatalf("expected Demangle to reject a plain symbol")
	}
}

func TestSymbolNameForMethodCall(t *testing.T) {
	if got := symbolName("Point::eq", []string{"main"}); got != "_ori_main$Point$eq" {
		t.Fatalf("got %q", got)
	}
}
