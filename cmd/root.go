// Package cmd provides the root command and CLI setup for vmut.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavzaj/visualmutator/internal/adapter"
	"github.com/pavzaj/visualmutator/internal/controller"
	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

var appFs afero.Fs
var moduleCodec adapter.ModuleCodec
var symbolStore adapter.DebugSymbolStore
var treeCopier adapter.TreeCopier
var testTreeStore adapter.TestTreeStore
var metricsRegistry *prometheus.Registry
var metrics *domain.Metrics

// newUI builds the presenter for a command; tests swap it out.
var newUI = func(cmd *cobra.Command) controller.UI {
	return controller.NewSimpleUI(cmd)
}

// outputDirFlag is a root-level flag shared by commands that write modules.
var outputDirFlag string

var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	initDependencies(afero.NewOsFs())
}

// initDependencies wires the codec services on top of fs.
func initDependencies(fs afero.Fs) {
	appFs = fs
	moduleCodec = adapter.NewMsgpackModuleCodec(fs)
	symbolStore = adapter.NewYAMLDebugSymbolStore(fs)
	treeCopier = adapter.NewStructuralCopier()
	testTreeStore = adapter.NewYAMLTestTreeStore(fs)
	metricsRegistry = prometheus.NewRegistry()
	metrics = domain.NewMetrics(metricsRegistry)
}

// newRegistry returns an empty module registry using the configured debug
// symbol extensions.
func newRegistry() domain.ModuleRegistry {
	return domain.NewModuleRegistry(
		appFs,
		moduleCodec,
		symbolStore,
		treeCopier,
		domain.WithDebugExtensions(
			viper.GetString(debugReadExtensionKey),
			viper.GetString(debugWriteExtensionKey),
		),
		domain.WithMetrics(metrics),
	)
}

// cleanupRegistry releases registry resources, logging instead of failing the command.
func cleanupRegistry(registry domain.ModuleRegistry) {
	if err := registry.Cleanup(); err != nil {
		slog.Warn("Failed to clean up module registry", "error", err)
	}
}

const rootLongDescription = `vmut is a mutation testing tool for compiled modules. It decompiles a
binary module into an editable code model, produces one mutated copy per
mutation point, writes each copy back to disk together with its debug
symbols, and runs a minimal selection of tests against every mutant.

Modules are located next to their debug symbols (` + domain.DefaultDebugReadExtension + ` sidecar files);
mutants are written with ` + domain.DefaultDebugWriteExtension + ` symbols.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vmut",
		Short: "Mutation testing for compiled modules",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

// newRootCmd returns a root command with its persistent flags configured.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for produced mutants",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
