package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CompileFunc compiles a single file identified by its WorkItem. A
// returned error (or a panic, recovered per spec's poisoning-is-
// recoverable guidance) marks the item -- and transitively every item
// that depends on it -- failed; a nil error marks it complete.
type CompileFunc func(ctx context.Context, item *WorkItem) error

// Run drives the build orchestrator's worker loop: CompilationPlan
// remains the actual scheduling authority; errgroup.SetLimit(jobs) only
// bounds how many compiles run concurrently and surfaces the first
// internal (non-build) error from the dispatch loop itself. jobs <= 1 or
// a single-item plan takes the sequential fast path.
func Run(ctx context.Context, plan *CompilationPlan, jobs int, compile CompileFunc) error {
	if jobs < 1 {
		jobs = 1
	}
	if jobs == 1 || plan.Len() <= 1 {
		return runSequential(ctx, plan, compile)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for {
		item, ok := plan.TakeNext()
		if !ok {
			break
		}
		item := item
		g.Go(func() error {
			runOne(gctx, plan, item, compile)
			return nil
		})
	}
	return g.Wait()
}

func runSequential(ctx context.Context, plan *CompilationPlan, compile CompileFunc) error {
	for {
		item, ok := plan.TakeNext()
		if !ok {
			return nil
		}
		runOne(ctx, plan, item, compile)
	}
}

// runOne compiles item outside any plan lock, then reports the outcome
// back into the plan. A panicking compile is treated as a build failure
// for that item rather than crashing the worker.
func runOne(ctx context.Context, plan *CompilationPlan, item *WorkItem, compile CompileFunc) {
	failed := true
	defer func() {
		recover()
		if failed {
			plan.MarkFailed(item.Path)
		}
	}()
	if err := compile(ctx, item); err != nil {
		return
	}
	failed = false
	plan.Complete(item.Path)
}
