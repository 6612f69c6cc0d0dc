package llvm

import (
	"bytes"
	"context"
	"io"
	"testing"
)

// fakeToolchain stands in for the real llc/clang collaborator in tests,
// recording the last Emit request.
type fakeToolchain struct {
	lastIR     string
	lastTarget string
	lastKind   EmitKind
}

var _ Toolchain = (*fakeToolchain)(nil)

func (f *fakeToolchain) Emit(_ context.Context, ir, targetTriple string, kind EmitKind, out io.Writer) error {
	f.lastIR, f.lastTarget, f.lastKind = ir, targetTriple, kind
	_, err := out.Write([]byte("stub-output"))
	return err
}

func TestToolchainEmitRecordsRequest(t *testing.T) {
	var tc fakeToolchain
	var buf bytes.Buffer
	if err := tc.Emit(context.Background(), "; ir text", "x86_64-unknown-linux-gnu", EmitObj, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.lastTarget != "x86_64-unknown-linux-gnu" {
		t.Fatalf("target not recorded: %q", tc.lastTarget)
	}
	if tc.lastKind != EmitObj {
		t.Fatalf("expected EmitObj, got %v", tc.lastKind)
	}
	if buf.String() != "stub-output" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

// fakeJITRunner simulates the setjmp/longjmp-equivalent contract with
// ordinary panic/recover, as JITRunner's doc comment says a test double
// may -- this is not claimed to be bit-identical to the real backend.
type fakeJITRunner struct {
	panicking map[string]string
}

var _ JITRunner = (*fakeJITRunner)(nil)

func (r *fakeJITRunner) RunTest(_ context.Context, symbol string) (result TestResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = TestResult{Symbol: symbol, Passed: false, PanicMessage: rec.(string)}
		}
	}()
	if msg, ok := r.panicking[symbol]; ok {
		panic(msg)
	}
	return TestResult{Symbol: symbol, Passed: true}, nil
}

func TestJITRunnerCapturesPanicAsFailure(t *testing.T) {
	r := &fakeJITRunner{panicking: map[string]string{"_ori_main$test_boom": "assertion failed"}}

	ok, err := r.RunTest(context.Background(), "_ori_main$test_fine")
	if err != nil || !ok.Passed {
		t.Fatalf("expected pass, got %+v err=%v", ok, err)
	}

	failed, err := r.RunTest(context.Background(), "_ori_main$test_boom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failed.Passed || failed.PanicMessage != "assertion failed" {
		t.Fatalf("expected captured panic, got %+v", failed)
	}
}

func TestEmitKindConstantsAreDistinct(t *testing.T) {
	kinds := map[EmitKind]bool{EmitLLVMIR: true, EmitAsm: true, EmitObj: true, EmitBin: true}
	if len(kinds) != 4 {
		t.Fatalf("expected 4 distinct EmitKind values, got %d", len(kinds))
	}
}
