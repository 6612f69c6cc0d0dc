// Package cmd implements the `ori` command-line surface (spec §6):
// build, target management, installed-target listing, and symbol
// demangling. CLI argument parsing itself is an explicit out-of-scope
// external collaborator (spec §1); cobra is the concrete library this
// module and the rest of the retrieval pack reach for, so this package
// is the thin, ordinary wiring around it rather than a hand-rolled flag
// parser.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ori",
	Short: "Ori compiler and build orchestrator",
	Long: `ori compiles Ori source files ahead-of-time to native or WebAssembly
object code via LLVM IR, with dependency-aware parallel compilation
across multi-file programs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostic logging")
}

// Execute runs the root command, returning the process exit code (spec
// §6: 0 success, 1 compilation failure, 2 usage error).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if _, ok := err.(*usageError); ok {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks a RunE failure as a usage error (exit code 2) rather
// than a compilation failure (exit code 1).
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
