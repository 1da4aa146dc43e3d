package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <tests.yaml>",
		Short: "Show the tests selected by a test tree and the filter that runs them",
		Long: `Read a namespace/class/method test tree with included flags and print the
selected tests together with the minimal filter expression covering them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			forest, err := testTreeStore.LoadForest(ctx, m.Path(args[0]))
			if err != nil {
				return err
			}

			newUI(cmd).DisplaySelection(ctx, domain.GetIncludedTests(forest))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newSelectCmd())
}
