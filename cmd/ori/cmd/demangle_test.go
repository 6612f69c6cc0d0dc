package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oriproj/ori/internal/llvm"
)

func TestRunDemanglePlainOutput(t *testing.T) {
	symbol := llvm.Mangle([]string{"collections", "list"}, "push")

	demangleJSON = false
	defer func() { demangleJSON = false }()

	var buf bytes.Buffer
	demangleCmd.SetOut(&buf)
	if err := runDemangle(demangleCmd, []string{symbol}); err != nil {
		t.Fatalf("runDemangle: %v", err)
	}
	if got := buf.String(); got != "collections::list::push\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRunDemangleJSONOutput(t *testing.T) {
	symbol := llvm.Mangle([]string{"io"}, "read")

	demangleJSON = true
	defer func() { demangleJSON = false }()

	var buf bytes.Buffer
	demangleCmd.SetOut(&buf)
	if err := runDemangle(demangleCmd, []string{symbol}); err != nil {
		t.Fatalf("runDemangle: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"function":"read"`) {
		t.Fatalf("expected function field in JSON output, got %q", out)
	}
	if !strings.Contains(out, `"modulePath":["io"]`) {
		t.Fatalf("expected modulePath field in JSON output, got %q", out)
	}
}

func TestRunDemangleRejectsNonOriSymbol(t *testing.T) {
	demangleJSON = false
	var buf bytes.Buffer
	demangleCmd.SetOut(&buf)
	err := runDemangle(demangleCmd, []string{"not_a_mangled_symbol"})
	if err == nil {
		t.Fatal("expected an error for a non-Ori-mangled symbol")
	}
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("expected a *usageError, got %T", err)
	}
}
