package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the configuration version, the build version and the Go version used to build vmut.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("config version\t", currentConfigVersion)

			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("version: unknown")
				return
			}

			cmd.Println("tool version\t", info.Main.Version)
			cmd.Println("go version\t", info.GoVersion)
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
