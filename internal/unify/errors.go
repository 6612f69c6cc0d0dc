package unify

import (
	"fmt"

	"github.com/oriproj/ori/internal/typepool"
)

// FailureKind enumerates the unification failure modes of spec §4.1.
type FailureKind int

const (
	InfiniteType FailureKind = iota
	RigidMismatch
	RigidRigidMismatch
	TypeMismatch
	ArgCountMismatch
	TupleLengthMismatch
)

func (k FailureKind) String() string {
	switch k {
	case InfiniteType:
		return "InfiniteType"
	case RigidMismatch:
		return "RigidMismatch"
	case RigidRigidMismatch:
		return "RigidRigidMismatch"
	case TypeMismatch:
		return "TypeMismatch"
	case ArgCountMismatch:
		return "ArgCountMismatch"
	case TupleLengthMismatch:
		return "TupleLengthMismatch"
	default:
		return "UnknownFailure"
	}
}

// Error is the structured failure returned by Unify. Expected/Found are
// left as typepool.Idx (not strings) so callers — in particular the
// inference engine's problem-diff machinery — can re-resolve and render
// them with full context.
type Error struct {
	Kind     FailureKind
	Expected typepool.Idx
	Found    typepool.Idx
	Detail   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return e.Kind.String()
}

func mismatch(expected, found typepool.Idx, detail string) *Error {
	return &Error{Kind: TypeMismatch, Expected: expected, Found: found, Detail: detail}
}
