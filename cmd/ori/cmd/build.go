package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oriproj/ori/internal/diag"
	"github.com/oriproj/ori/internal/llvm"
	"github.com/oriproj/ori/internal/orchestrator"
	"github.com/oriproj/ori/internal/pipeline"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

var (
	buildOutput  string
	buildOutDir  string
	buildRelease bool
	buildEmit    string
	buildTarget  string
	buildWasm    bool
	buildJobs    int
)

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file path (entry unit only)")
	buildCmd.Flags().StringVar(&buildOutDir, "out-dir", ".", "directory for per-file LLVM IR artifacts")
	buildCmd.Flags().BoolVar(&buildRelease, "release", false, "optimize the emitted artifact")
	buildCmd.Flags().StringVar(&buildEmit, "emit", "llvm-ir", "artifact kind: obj|asm|llvm-ir|bin")
	buildCmd.Flags().StringVar(&buildTarget, "target", "", "target triple (defaults to host)")
	buildCmd.Flags().BoolVar(&buildWasm, "wasm", false, "shorthand for --target=wasm32-unknown-unknown")
	buildCmd.Flags().IntVar(&buildJobs, "jobs", 1, "maximum concurrent file compilations")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile an Ori source file and its dependencies",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func emitKindFor(s string) (llvm.EmitKind, error) {
	switch s {
	case "obj":
		return llvm.EmitObj, nil
	case "asm":
		return llvm.EmitAsm, nil
	case "llvm-ir":
		return llvm.EmitLLVMIR, nil
	case "bin":
		return llvm.EmitBin, nil
	default:
		return 0, newUsageError("unknown --emit kind %q (want obj, asm, llvm-ir, or bin)", s)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	entry := args[0]
	kind, err := emitKindFor(buildEmit)
	if err != nil {
		return err
	}

	target := buildTarget
	if buildWasm {
		target = "wasm32-unknown-unknown"
	}

	items, err := orchestrator.BuildGraph(entry, nil)
	if err != nil {
		return fmt.Errorf("building dependency graph: %w", err)
	}
	plan, err := orchestrator.NewPlan(items)
	if err != nil {
		return fmt.Errorf("scheduling build: %w", err)
	}

	entryAbs, err := filepath.Abs(entry)
	if err != nil {
		return err
	}
	entryAbs = filepath.Clean(entryAbs)

	pool := typepool.New()
	types := registry.NewTypeRegistry()
	traits := registry.NewTraitRegistry()
	cfg := pipeline.Config{
		Frontend: unimplementedFrontend{},
		Pool:     pool,
		Types:    types,
		Traits:   traits,
	}

	if err := os.MkdirAll(buildOutDir, 0o755); err != nil {
		return fmt.Errorf("creating --out-dir %s: %w", buildOutDir, err)
	}

	var diags []*diag.Diagnostic
	var entryResult *pipeline.Result
	stats := orchestrator.NewBuildStats(plan.RunID.String())

	compile := func(ctx context.Context, item *orchestrator.WorkItem) error {
		start := time.Now()
		content, err := os.ReadFile(item.Path)
		if err != nil {
			stats.RecordFailure()
			return err
		}
		cfg.ModulePath = modulePathFor(item.Path)
		result, err := pipeline.CompileUnit(cfg, pipeline.Source{Path: item.Path, Content: content})
		if err != nil {
			stats.RecordFailure()
			return err
		}
		diags = append(diags, result.Diagnostics...)
		if hasErrors(result.Diagnostics) {
			stats.RecordFailure()
			return fmt.Errorf("%s: compilation failed", item.Path)
		}

		irPath := filepath.Join(buildOutDir, artifactName(item.Path)+".ll")
		if err := os.WriteFile(irPath, []byte(result.Module.String()), 0o644); err != nil {
			stats.RecordFailure()
			return fmt.Errorf("writing %s: %w", irPath, err)
		}
		if item.Path == entryAbs {
			entryResult = result
		}
		stats.RecordSuccess(time.Since(start))
		return nil
	}

	runErr := orchestrator.Run(cmd.Context(), plan, buildJobs, compile)

	snap := stats.Snapshot()
	slog.Debug("build run complete", "run_id", snap.RunID, "files_built", snap.FilesBuilt,
		"files_failed", snap.FilesFailed, "duration", snap.Duration)

	for _, d := range diags {
		fmt.Fprint(os.Stderr, d.Render(false))
	}
	_, failed := plan.Snapshot()
	if len(failed) > 0 || runErr != nil {
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("build failed: %d file(s) did not compile", len(failed))
	}

	if kind == llvm.EmitLLVMIR {
		return nil
	}
	if entryResult == nil {
		return fmt.Errorf("%s: entry unit was not compiled", entry)
	}

	out := buildOutput
	if out == "" {
		out = filepath.Join(buildOutDir, artifactName(entryAbs)+defaultExt(kind))
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	tc := execToolchain{Optimize: buildRelease}
	if err := tc.Emit(cmd.Context(), entryResult.Module.String(), target, kind, f); err != nil {
		return fmt.Errorf("emitting %s: %w", out, err)
	}
	return nil
}

func hasErrors(diags []*diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

func artifactName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func modulePathFor(path string) []string {
	return []string{artifactName(path)}
}

func defaultExt(kind llvm.EmitKind) string {
	switch kind {
	case llvm.EmitObj:
		return ".o"
	case llvm.EmitAsm:
		return ".s"
	case llvm.EmitBin:
		return ""
	default:
		return ".ll"
	}
}
