package cmd

import (
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <module>...",
		Short: "List the types and members of binary modules",
		Long: `Decompile each module and print its types and members. Debug symbols are
loaded from the sidecar file next to the module when present.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := newUI(cmd)

			registry := newRegistry()
			defer cleanupRegistry(registry)

			for _, path := range parsePaths(args) {
				if _, err := registry.Load(ctx, path); err != nil {
					return err
				}
			}

			for _, mod := range registry.Modules() {
				ui.DisplayModule(ctx, mod.Tree(), mod.HasDebugSymbols())
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newInspectCmd())
}
