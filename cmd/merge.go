package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	m "github.com/pavzaj/visualmutator/internal/model"
)

var mergeDestFlag string

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <module>... --dest <dir>",
		Short: "Replace loaded modules with patched builds and write them out",
		Long: `Load the given modules, then replace each one with the code model of the
module of the same name found in --patch files, and write every module into
--dest keeping the debug symbols of the original.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			patches, err := cmd.Flags().GetStringArray(patchFlagName)
			if err != nil {
				return err
			}

			if mergeDestFlag == "" {
				return errors.New("--" + destFlagName + " is required")
			}

			registry := newRegistry()
			defer cleanupRegistry(registry)

			for _, path := range parsePaths(args) {
				if _, err := registry.Load(ctx, path); err != nil {
					return err
				}
			}

			trees := make([]*m.ModuleTree, 0, len(patches))

			for _, patch := range parsePaths(patches) {
				tree, err := moduleCodec.Decompile(ctx, patch, nil)
				if err != nil {
					return fmt.Errorf("failed to read patch %s: %w", patch, err)
				}

				trees = append(trees, tree)
			}

			if err := registry.Merge(trees...); err != nil {
				return err
			}

			for _, mod := range registry.Modules() {
				dest := m.Path(filepath.Join(mergeDestFlag, mod.Path.Base()))
				if err := registry.Persist(ctx, mod, dest); err != nil {
					return err
				}

				cmd.Printf("Wrote %s to %s\n", mod.Name, dest)
			}

			return nil
		},
	}

	cmd.Flags().StringArray(patchFlagName, nil, "patched module replacing the loaded module of the same name (can be repeated)")
	cmd.Flags().StringVar(&mergeDestFlag, destFlagName, "", "directory the merged modules are written to")

	return cmd
}

func init() {
	rootCmd.AddCommand(newMergeCmd())
}
