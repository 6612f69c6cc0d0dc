package llvm

import (
	"context"
	"io"
)

// EmitKind selects what --emit should produce (spec §6).
type EmitKind int

const (
	EmitLLVMIR EmitKind = iota
	EmitAsm
	EmitObj
	EmitBin
)

// Toolchain shells out to an external assembler/linker (`llc`/`clang`
// in the real backend) to turn textual LLVM IR into asm/obj/bin output.
// Linker invocation details and target-triple registry contents are an
// explicit out-of-scope boundary (spec §4.8/§6); this interface is the
// named collaborator standing in for that boundary so the rest of the
// package never needs to know how the conversion actually happens.
type Toolchain interface {
	// Emit compiles the textual LLVM IR in ir (a rendered irwriter.Module)
	// for the given target triple, writing EmitKind-shaped output to out.
	Emit(ctx context.Context, ir string, targetTriple string, kind EmitKind, out io.Writer) error
}

// JITRunner executes a compiled module's test wrappers in-process,
// reporting one result per wrapper (spec §4.8's "JIT mode").
//
// The real backend captures `ori_panic` calls from JIT-compiled code
// with a setjmp/longjmp harness: ori_panic stashes the message and
// longjmps back to the test wrapper, which turns that into a failure
// report rather than crashing the host process. Go has no setjmp
// equivalent that can unwind out of foreign-compiled machine code, so
// this interface only documents that contract -- implementations used
// as test doubles in this module simulate it with ordinary
// panic/recover around a Go stand-in for the wrapper, which is NOT
// bit-identical to catching a longjmp out of JIT-compiled native code.
// A real JITRunner backing this interface must do the actual
// setjmp/longjmp dance itself; nothing in this package claims to.
type JITRunner interface {
	// RunTest invokes the named test wrapper symbol and reports whether
	// it passed, capturing any panic message ori_panic would have raised.
	RunTest(ctx context.Context, symbol string) (TestResult, error)
}

// TestResult is one JIT test wrapper's outcome.
type TestResult struct {
	Symbol       string
	Passed       bool
	PanicMessage string
}
