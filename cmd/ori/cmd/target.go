package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oriproj/ori/internal/targetreg"
)

// targetRegistryPath returns the on-disk location of the target
// registry, a single targets.yaml alongside wherever the user invokes
// `ori` from -- this tool has no installed config directory of its own.
func targetRegistryPath() string {
	return filepath.Join(".", "targets.yaml")
}

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage known target triples",
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known target triple",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := targetreg.Load(targetRegistryPath())
		if err != nil {
			return err
		}
		for _, e := range reg.Targets {
			mark := " "
			if e.Installed {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, e.Triple)
		}
		return nil
	},
}

var targetAddCmd = &cobra.Command{
	Use:   "add <triple>",
	Short: "Mark a target triple installed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := targetRegistryPath()
		reg, err := targetreg.Load(path)
		if err != nil {
			return err
		}
		reg.Add(args[0])
		return reg.Save(path)
	},
}

var targetRemoveCmd = &cobra.Command{
	Use:   "remove <triple>",
	Short: "Remove a target triple from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := targetRegistryPath()
		reg, err := targetreg.Load(path)
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0]); err != nil {
			return newUsageError("%s", err)
		}
		return reg.Save(path)
	},
}

var targetsInstalledOnly bool

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List known target triples (only installed ones with --installed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := targetreg.Load(targetRegistryPath())
		if err != nil {
			return err
		}
		entries := reg.Targets
		if targetsInstalledOnly {
			entries = reg.Installed()
		}
		for _, e := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), e.Triple)
		}
		return nil
	},
}

func init() {
	targetCmd.AddCommand(targetListCmd, targetAddCmd, targetRemoveCmd)
	rootCmd.AddCommand(targetCmd)

	targetsCmd.Flags().BoolVar(&targetsInstalledOnly, "installed", false, "only list targets marked installed")
	rootCmd.AddCommand(targetsCmd)
}
