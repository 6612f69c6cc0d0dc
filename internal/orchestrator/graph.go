// Package orchestrator builds a multi-file dependency graph from "use"
// statements, schedules parallel compilation with dependency-aware work
// stealing and failure cascade, and collects build statistics.
package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// WorkItem is one file in a compilation plan.
type WorkItem struct {
	Path         string
	ContentHash  string
	Dependencies []string

	// Priority is the count of transitive dependents reachable from this
	// item; a higher count is scheduled first among otherwise-ready items,
	// since unlocking it frees more downstream work sooner.
	Priority int
}

// SourceScanner extracts the "use" paths a source file declares. The
// lexer/parser surface grammar is named by interface only (an external
// collaborator, out of this port's scope); DefaultScanner is a
// regexp-based stand-in sufficient to exercise the dependency graph and
// worker pool without a full front end.
type SourceScanner interface {
	ScanUses(path string, content []byte) ([]string, error)
}

// useRe matches `use "./path"`, optionally followed by `{ names }` or
// `as alias`, per spec's import grammar; only the path capture matters
// for graph construction.
var useRe = regexp.MustCompile(`(?m)^\s*use\s+"([^"]+)"`)

// DefaultScanner recognizes `use "..."` lines without a lexer/parser.
type DefaultScanner struct{}

func (DefaultScanner) ScanUses(_ string, content []byte) ([]string, error) {
	matches := useRe.FindAllSubmatch(content, -1)
	uses := make([]string, 0, len(matches))
	for _, m := range matches {
		uses = append(uses, string(m[1]))
	}
	return uses, nil
}

// resolveUse resolves a "use" path relative to the directory of the file
// that declares it, preferring "./name.ori" and falling back to
// "./name/mod.ori".
func resolveUse(fromDir, use string) (string, error) {
	direct := filepath.Join(fromDir, use+".ori")
	if st, err := os.Stat(direct); err == nil && !st.IsDir() {
		return filepath.Clean(direct), nil
	}
	modFile := filepath.Join(fromDir, use, "mod.ori")
	if st, err := os.Stat(modFile); err == nil && !st.IsDir() {
		return filepath.Clean(modFile), nil
	}
	return "", &NotFoundError{Path: use, From: fromDir}
}

// BuildGraph walks "use" statements transitively from entryPath, producing
// one WorkItem per reachable file with a content hash and canonicalized
// dependency paths. Cycles are detected via a loading stack of paths
// currently being walked; revisiting a path still on the stack is a hard
// error naming the cycle. A nil scanner uses DefaultScanner.
func BuildGraph(entryPath string, scanner SourceScanner) ([]*WorkItem, error) {
	if scanner == nil {
		scanner = DefaultScanner{}
	}
	entryPath, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, err
	}
	entryPath = filepath.Clean(entryPath)

	items := make(map[string]*WorkItem)
	var stack []string
	onStack := make(map[string]bool)

	var visit func(path string) error
	visit = func(path string) error {
		if _, ok := items[path]; ok {
			return nil
		}
		if onStack[path] {
			i := indexOf(stack, path)
			cycle := append(append([]string{}, stack[i:]...), path)
			return &CycleError{Cycle: cycle}
		}
		stack = append(stack, path)
		onStack[path] = true
		defer func() {
			stack = stack[:len(stack)-1]
			delete(onStack, path)
		}()

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		hash := sha256.Sum256(content)

		uses, err := scanner.ScanUses(path, content)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}

		dir := filepath.Dir(path)
		deps := make([]string, 0, len(uses))
		for _, u := range uses {
			depPath, err := resolveUse(dir, u)
			if err != nil {
				return err
			}
			deps = append(deps, depPath)
		}
		sort.Strings(deps)

		items[path] = &WorkItem{Path: path, ContentHash: hex.EncodeToString(hash[:]), Dependencies: deps}

		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(entryPath); err != nil {
		return nil, err
	}

	out := make([]*WorkItem, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	assignPriorities(out)
	return out, nil
}

// assignPriorities sets each item's Priority to the number of distinct
// transitive dependents reachable from it.
func assignPriorities(items []*WorkItem) {
	dependents := make(map[string][]string, len(items))
	for _, it := range items {
		for _, dep := range it.Dependencies {
			dependents[dep] = append(dependents[dep], it.Path)
		}
	}
	for _, it := range items {
		seen := map[string]bool{it.Path: true}
		queue := append([]string{}, dependents[it.Path]...)
		count := 0
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if seen[cur] {
				continue
			}
			seen[cur] = true
			count++
			queue = append(queue, dependents[cur]...)
		}
		it.Priority = count
	}
}

// topologicalOrder produces a topological order over items via Kahn's
// algorithm, tie-breaking by source path at every step so that identical
// input files and dependency edges always yield the same sequence.
func topologicalOrder(items []*WorkItem) ([]string, error) {
	indeg := make(map[string]int, len(items))
	adj := make(map[string][]string)
	for _, it := range items {
		if _, ok := indeg[it.Path]; !ok {
			indeg[it.Path] = 0
		}
	}
	for _, it := range items {
		for _, dep := range it.Dependencies {
			adj[dep] = append(adj[dep], it.Path)
			indeg[it.Path]++
		}
	}
	for _, list := range adj {
		sort.Strings(list)
	}

	var frontier []string
	for path, d := range indeg {
		if d == 0 {
			frontier = append(frontier, path)
		}
	}
	sort.Strings(frontier)

	order := make([]string, 0, len(items))
	for len(frontier) > 0 {
		sort.Strings(frontier)
		cur := frontier[0]
		frontier = frontier[1:]
		order = append(order, cur)
		for _, n := range adj[cur] {
			indeg[n]--
			if indeg[n] == 0 {
				frontier = append(frontier, n)
			}
		}
	}
	if len(order) != len(items) {
		return nil, &CycleError{Cycle: []string{"<residual cycle in topologicalOrder>"}}
	}
	return order, nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
