package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestTargetAddListRemoveRoundTrip(t *testing.T) {
	chdirTemp(t)

	if err := targetAddCmd.RunE(targetAddCmd, []string{"riscv64-unknown-linux-gnu"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	var buf bytes.Buffer
	targetListCmd.SetOut(&buf)
	if err := targetListCmd.RunE(targetListCmd, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), "* riscv64-unknown-linux-gnu") {
		t.Fatalf("expected newly-added target marked installed, got %q", buf.String())
	}

	if err := targetRemoveCmd.RunE(targetRemoveCmd, []string{"riscv64-unknown-linux-gnu"}); err != nil {
		t.Fatalf("remove: %v", err)
	}

	buf.Reset()
	targetListCmd.SetOut(&buf)
	if err := targetListCmd.RunE(targetListCmd, nil); err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if strings.Contains(buf.String(), "riscv64-unknown-linux-gnu") {
		t.Fatalf("expected removed target to be gone, got %q", buf.String())
	}
}

func TestTargetRemoveUnknownIsUsageError(t *testing.T) {
	chdirTemp(t)

	err := targetRemoveCmd.RunE(targetRemoveCmd, []string{"nonexistent-triple"})
	if err == nil {
		t.Fatal("expected an error removing an unknown triple")
	}
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("expected a *usageError, got %T", err)
	}
}

func TestTargetsInstalledFlag(t *testing.T) {
	chdirTemp(t)

	if err := targetAddCmd.RunE(targetAddCmd, []string{"x86_64-unknown-linux-gnu"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	targetsInstalledOnly = true
	defer func() { targetsInstalledOnly = false }()

	var buf bytes.Buffer
	targetsCmd.SetOut(&buf)
	if err := targetsCmd.RunE(targetsCmd, nil); err != nil {
		t.Fatalf("targets --installed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || lines[0] != "x86_64-unknown-linux-gnu" {
		t.Fatalf("expected exactly the installed target, got %v", lines)
	}
}
