package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/oriproj/ori/internal/llvm"
)

// execToolchain shells out to clang to turn textual LLVM IR into
// asm/obj/bin output, the concrete implementation standing behind
// llvm.Toolchain. Linker invocation details are an explicit
// out-of-scope external collaborator (spec §4.8/§6); this type only
// demonstrates the seam's contract with the most ordinary possible
// os/exec plumbing, not a general cross-compilation driver.
type execToolchain struct {
	// Optimize selects -O2 over -O0, set from the build command's
	// --release flag.
	Optimize bool
}

func (t execToolchain) Emit(ctx context.Context, ir string, targetTriple string, kind llvm.EmitKind, out io.Writer) error {
	tmpOut, err := os.CreateTemp("", "ori-emit-*")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	tmpOutPath := tmpOut.Name()
	tmpOut.Close()
	defer os.Remove(tmpOutPath)

	args := []string{"-x", "ir", "-", "-o", tmpOutPath}
	if targetTriple != "" {
		args = append(args, "-target", targetTriple)
	}
	if t.Optimize {
		args = append(args, "-O2")
	} else {
		args = append(args, "-O0")
	}
	switch kind {
	case llvm.EmitAsm:
		args = append(args, "-S")
	case llvm.EmitObj:
		args = append(args, "-c")
	case llvm.EmitLLVMIR:
		args = append(args, "-S", "-emit-llvm")
	case llvm.EmitBin:
		// default: compile and link to an executable.
	}

	cmd := exec.CommandContext(ctx, "clang", args...)
	cmd.Stdin = strings.NewReader(ir)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clang %v: %w", args, err)
	}

	data, err := os.ReadFile(tmpOutPath)
	if err != nil {
		return fmt.Errorf("reading clang output: %w", err)
	}
	_, err = out.Write(data)
	return err
}
