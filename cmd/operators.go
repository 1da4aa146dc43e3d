package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pavzaj/visualmutator/internal/domain/operators"
)

func newOperatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List the available mutation operators",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			newUI(cmd).DisplayOperators(cmd.Context(), operators.All())
		},
	}
}

func init() {
	rootCmd.AddCommand(newOperatorsCmd())
}
