package orchestrator

import (
	"fmt"
	"strings"
)

// CycleError reports a circular "use" dependency. Cycle lists the path
// chain from the repeated path back to itself.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}

// NotFoundError reports a "use" path that could not be resolved to a file
// under either of the spec's two candidate forms.
type NotFoundError struct {
	Path string
	From string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot resolve %q (used from %s)", e.Path, e.From)
}
