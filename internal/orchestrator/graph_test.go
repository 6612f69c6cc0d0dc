package orchestrator

import (
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// extractFixture parses a txtar archive (one source file per "-- name
// --" section) and materializes it under t.TempDir(), returning that
// directory. Multi-file dependency-graph fixtures read far more clearly
// as one txtar block than as a sequence of writeFile calls.
func extractFixture(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	a := txtar.Parse([]byte(archive))
	if err := txtar.Write(a, dir); err != nil {
		t.Fatalf("txtar.Write: %v", err)
	}
	return dir
}

func TestBuildGraphResolvesDirectAndModFallback(t *testing.T) {
	dir := extractFixture(t, `
-- util.ori --
fn helper() -> Int { 1 }
-- widgets/mod.ori --
fn widget() -> Int { 2 }
-- main.ori --
use "./util"
use "./widgets"

fn main() -> Int { helper() + widget() }
`)
	entry := filepath.Join(dir, "main.ori")

	items, err := BuildGraph(entry, nil)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	var mainItem *WorkItem
	for _, it := range items {
		if filepath.Base(it.Path) == "main.ori" {
			mainItem = it
		}
	}
	if mainItem == nil {
		t.Fatalf("main.ori not found among items")
	}
	if len(mainItem.Dependencies) != 2 {
		t.Fatalf("expected main.ori to have 2 dependencies, got %v", mainItem.Dependencies)
	}
	for _, it := range items {
		if it.ContentHash == "" {
			t.Fatalf("item %s missing content hash", it.Path)
		}
	}
}

func TestBuildGraphDetectsCycle(t *testing.T) {
	dir := extractFixture(t, `
-- a.ori --
use "./b"
fn a() -> Int { b() }
-- b.ori --
use "./a"
fn b() -> Int { a() }
`)
	entry := filepath.Join(dir, "a.ori")

	_, err := BuildGraph(entry, nil)
	if err == nil {
		t.Fatalf("expected cycle error, got nil")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
}

func TestBuildGraphMissingDependencyIsNotFoundError(t *testing.T) {
	dir := extractFixture(t, `
-- main.ori --
use "./missing"
fn main() -> Int { 0 }
`)
	entry := filepath.Join(dir, "main.ori")

	_, err := BuildGraph(entry, nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func TestTopologicalOrderIsDeterministic(t *testing.T) {
	dir := extractFixture(t, `
-- c.ori --
fn c() -> Int { 3 }
-- b.ori --
use "./c"
fn b() -> Int { c() }
-- a.ori --
use "./b"
fn a() -> Int { b() }
`)
	entry := filepath.Join(dir, "a.ori")

	items1, err := BuildGraph(entry, nil)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	order1, err := topologicalOrder(items1)
	if err != nil {
		t.Fatalf("topologicalOrder: %v", err)
	}

	items2, err := BuildGraph(entry, nil)
	if err != nil {
		t.Fatalf("BuildGraph (second run): %v", err)
	}
	order2, err := topologicalOrder(items2)
	if err != nil {
		t.Fatalf("topologicalOrder (second run): %v", err)
	}

	if len(order1) != 3 || len(order2) != 3 {
		t.Fatalf("expected 3-element orders, got %v / %v", order1, order2)
	}
	for i := range order1 {
		if order1[i] != order2[i] {
			t.Fatalf("non-deterministic order: %v vs %v", order1, order2)
		}
	}
	// c has no dependencies so it must precede both b and a.
	if indexOf(order1, order1[0]) != 0 || filepath.Base(order1[0]) != "c.ori" {
		t.Fatalf("expected c.ori first in topological order, got %v", order1)
	}
}
