package cmd

import (
	"testing"

	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/llvm"
)

func TestEmitKindForKnownKinds(t *testing.T) {
	cases := map[string]llvm.EmitKind{
		"obj":     llvm.EmitObj,
		"asm":     llvm.EmitAsm,
		"llvm-ir": llvm.EmitLLVMIR,
		"bin":     llvm.EmitBin,
	}
	for s, want := range cases {
		got, err := emitKindFor(s)
		if err != nil {
			t.Fatalf("emitKindFor(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("emitKindFor(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestEmitKindForUnknownIsUsageError(t *testing.T) {
	_, err := emitKindFor("object-file")
	if err == nil {
		t.Fatal("expected an error for an unknown --emit kind")
	}
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("expected a *usageError, got %T", err)
	}
}

func TestArtifactName(t *testing.T) {
	cases := map[string]string{
		"/a/b/main.ori": "main",
		"foo.ori":       "foo",
		"/no/ext/bare":  "bare",
		"./rel/mod.ori": "mod",
	}
	for in, want := range cases {
		if got := artifactName(in); got != want {
			t.Fatalf("artifactName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestModulePathForIsSingleSegment(t *testing.T) {
	got := modulePathFor("/some/dir/widgets.ori")
	if len(got) != 1 || got[0] != "widgets" {
		t.Fatalf("modulePathFor = %v, want [widgets]", got)
	}
}

func TestDefaultExt(t *testing.T) {
	cases := map[llvm.EmitKind]string{
		llvm.EmitObj:    ".o",
		llvm.EmitAsm:    ".s",
		llvm.EmitBin:    "",
		llvm.EmitLLVMIR: ".ll",
	}
	for kind, want := range cases {
		if got := defaultExt(kind); got != want {
			t.Fatalf("defaultExt(%v) = %q, want %q", kind, got, want)
		}
	}
}

func TestHasErrorsDetectsErrorSeverityOnly(t *testing.T) {
	warnOnly := []*diag.Diagnostic{
		{Severity: diag.SeverityWarning},
	}
	if hasErrors(warnOnly) {
		t.Fatal("warnings alone should not count as build errors")
	}

	withError := []*diag.Diagnostic{
		{Severity: diag.SeverityWarning},
		{Severity: diag.SeverityError},
	}
	if !hasErrors(withError) {
		t.Fatal("expected hasErrors to detect the SeverityError diagnostic")
	}
}
