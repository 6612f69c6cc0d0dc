package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/oriproj/ori/internal/llvm"
)

var demangleJSON bool

var demangleCmd = &cobra.Command{
	Use:   "demangle <symbol>",
	Short: "Demangle a mangled Ori symbol name",
	Args:  cobra.ExactArgs(1),
	RunE:  runDemangle,
}

func init() {
	demangleCmd.Flags().BoolVar(&demangleJSON, "json", false, "emit the result as JSON")
	rootCmd.AddCommand(demangleCmd)
}

func runDemangle(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	modulePath, function, ok := llvm.Demangle(symbol)
	if !ok {
		return newUsageError("%s: not an Ori-mangled symbol", symbol)
	}

	if !demangleJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "%s::%s\n", strings.Join(modulePath, "::"), function)
		return nil
	}

	out := "{}"
	var err error
	out, err = sjson.Set(out, "symbol", symbol)
	if err != nil {
		return err
	}
	out, err = sjson.Set(out, "modulePath", modulePath)
	if err != nil {
		return err
	}
	out, err = sjson.Set(out, "function", function)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
