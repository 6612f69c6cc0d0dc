package orchestrator

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// CompilationPlan is the scheduling state shared by the build
// orchestrator's worker pool. Every item is in exactly one of ready,
// pending, completed, failed. Completing a path decrements every
// dependent's unsatisfied-dep counter; a counter reaching zero migrates
// that dependent from pending to ready. Failing a path cascades failure
// to every transitive dependent via BFS over the reverse-dependency
// index. All state lives behind a single mutex with a condvar, per the
// build orchestrator's coarse-exclusion design -- critical sections here
// are short queue manipulations; the expensive compile step runs outside
// the lock entirely (see Run in worker.go).
type CompilationPlan struct {
	mu   sync.Mutex
	cond *sync.Cond

	RunID uuid.UUID

	items map[string]*WorkItem
	order []string

	ready      []string
	pending    map[string]bool
	completed  map[string]bool
	failed     map[string]bool
	remaining  map[string]int
	dependents map[string][]string
}

// NewPlan builds a CompilationPlan from a dependency graph's work items.
func NewPlan(items []*WorkItem) (*CompilationPlan, error) {
	p := &CompilationPlan{
		RunID:      uuid.New(),
		items:      make(map[string]*WorkItem, len(items)),
		pending:    make(map[string]bool),
		completed:  make(map[string]bool),
		failed:     make(map[string]bool),
		remaining:  make(map[string]int),
		dependents: make(map[string][]string),
	}
	p.cond = sync.NewCond(&p.mu)

	for _, it := range items {
		p.items[it.Path] = it
	}
	for _, it := range items {
		for _, dep := range it.Dependencies {
			if _, ok := p.items[dep]; !ok {
				return nil, &NotFoundError{Path: dep, From: it.Path}
			}
			p.dependents[dep] = append(p.dependents[dep], it.Path)
		}
	}
	for _, deps := range p.dependents {
		sort.Strings(deps)
	}

	order, err := topologicalOrder(items)
	if err != nil {
		return nil, err
	}
	p.order = order

	for _, path := range order {
		n := len(p.items[path].Dependencies)
		p.remaining[path] = n
		if n == 0 {
			p.insertReadyLocked(path)
		} else {
			p.pending[path] = true
		}
	}
	return p, nil
}

// TopologicalOrder returns the deterministic topological order computed
// at construction time.
func (p *CompilationPlan) TopologicalOrder() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len reports the number of items in the plan.
func (p *CompilationPlan) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// TakeNext blocks until a ready item is available or the plan is
// complete (ready and pending both empty), matching spec's worker loop
// step 5/6. The returned bool is false once there is no more work.
func (p *CompilationPlan) TakeNext() (*WorkItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.ready) == 0 && !p.doneLocked() {
		p.cond.Wait()
	}
	if len(p.ready) == 0 {
		return nil, false
	}
	path := p.ready[0]
	p.ready = p.ready[1:]
	return p.items[path], true
}

// Complete marks path successfully compiled, moving any dependent whose
// counter reaches zero from pending to ready.
func (p *CompilationPlan) Complete(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed[path] = true
	for _, dep := range p.dependents[path] {
		if p.failed[dep] || p.completed[dep] {
			continue
		}
		p.remaining[dep]--
		if p.remaining[dep] == 0 && p.pending[dep] {
			delete(p.pending, dep)
			p.insertReadyLocked(dep)
		}
	}
	p.cond.Broadcast()
}

// MarkFailed marks path failed and cascades failure to every transitive
// dependent via BFS over the reverse-dependency index; none of them can
// ever succeed without it.
func (p *CompilationPlan) MarkFailed(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cascadeFailLocked(path)
	p.cond.Broadcast()
}

func (p *CompilationPlan) cascadeFailLocked(path string) {
	queue := []string{path}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if p.failed[cur] {
			continue
		}
		p.failed[cur] = true
		delete(p.pending, cur)
		p.removeReadyLocked(cur)
		queue = append(queue, p.dependents[cur]...)
	}
}

func (p *CompilationPlan) doneLocked() bool {
	return len(p.ready) == 0 && len(p.pending) == 0
}

// Done reports whether the plan has no more ready or pending work.
func (p *CompilationPlan) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneLocked()
}

// Snapshot returns sorted copies of the completed and failed path sets.
func (p *CompilationPlan) Snapshot() (completed, failed []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for path := range p.completed {
		completed = append(completed, path)
	}
	for path := range p.failed {
		failed = append(failed, path)
	}
	sort.Strings(completed)
	sort.Strings(failed)
	return
}

func (p *CompilationPlan) insertReadyLocked(path string) {
	p.ready = append(p.ready, path)
	sort.Slice(p.ready, func(i, j int) bool {
		pi, pj := p.items[p.ready[i]], p.items[p.ready[j]]
		if pi.Priority != pj.Priority {
			return pi.Priority > pj.Priority
		}
		return p.ready[i] < p.ready[j]
	})
}

func (p *CompilationPlan) removeReadyLocked(path string) {
	for i, r := range p.ready {
		if r == path {
			p.ready = append(p.ready[:i], p.ready[i+1:]...)
			return
		}
	}
}
