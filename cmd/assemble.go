package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pavzaj/visualmutator/internal/adapter"
	m "github.com/pavzaj/visualmutator/internal/model"
)

func newAssembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble <source.yaml> <module>",
		Short: "Assemble a module from its YAML code model",
		Long: `Read a code model written as YAML (name, version and types with their
fields, methods, properties and events) and write it as a binary module.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source, dest := m.Path(args[0]), m.Path(args[1])

			tree, err := readModuleSource(appFs, source)
			if err != nil {
				return err
			}

			err = adapter.WriteFileAtomic(appFs, dest, func(w io.Writer) error {
				return moduleCodec.Write(ctx, tree, w, nil, nil)
			})
			if err != nil {
				slog.Error("Failed to assemble module", "source", source, "path", dest, "error", err)
				return fmt.Errorf("failed to write module %s: %w", dest, err)
			}

			cmd.Printf("Assembled module %s (%d types) into %s\n", tree.Name, len(tree.AllTypes()), dest)

			return nil
		},
	}
}

func readModuleSource(fs afero.Fs, path m.Path) (*m.ModuleTree, error) {
	content, err := afero.ReadFile(fs, string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	tree, err := readModuleSourceBytes(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tree, nil
}

// readModuleSourceBytes parses a YAML code model and links its elements.
func readModuleSourceBytes(content []byte) (*m.ModuleTree, error) {
	var tree m.ModuleTree
	if err := yaml.Unmarshal(content, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse module source: %w", err)
	}

	if tree.Name == "" {
		return nil, errors.New("module source has no name")
	}

	tree.Link()

	return &tree, nil
}

func init() {
	rootCmd.AddCommand(newAssembleCmd())
}
