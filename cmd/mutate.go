package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavzaj/visualmutator/internal/adapter"
	"github.com/pavzaj/visualmutator/internal/controller"
	"github.com/pavzaj/visualmutator/internal/domain"
	"github.com/pavzaj/visualmutator/internal/domain/operators"
	m "github.com/pavzaj/visualmutator/internal/model"
)

var runParallelFlag int
var operatorsFlag []string
var testsFlag string
var testCommandFlag string
var testTimeoutFlag int64
var diffFlag bool
var metricsTextfileFlag string

const mutateLongDescription = `Produce one mutant per mutation point of the module and write each one,
with its debug symbols, under <output>/<operator>/<mutant id>/.

With --tests the selected tests of the given test tree are run against every
mutant through --test-command. The command may reference the mutant with
{binary} and the test filter with {filter}, e.g.

  vmut mutate bin/Calc.vmod --tests tests.yaml \
    --test-command "dotnet test Calc.Tests.dll --filter {filter}"`

// mutateOptions holds the resolved settings of one mutate run.
type mutateOptions struct {
	Output          m.Path
	Operators       []string
	Parallel        int
	Tests           m.Path
	HarnessCommand  []string
	HarnessTimeout  time.Duration
	Diff            bool
	MetricsTextfile string
}

func mutateOptionsFromConfig() mutateOptions {
	return mutateOptions{
		Output:          m.Path(viper.GetString(outputFlagName)),
		Operators:       viper.GetStringSlice(operatorsConfigKey),
		Parallel:        viper.GetInt(runParallelConfigKey),
		Tests:           m.Path(viper.GetString(testsConfigKey)),
		HarnessCommand:  harnessCommand(),
		HarnessTimeout:  harnessTimeout(),
		Diff:            viper.GetBool(diffConfigKey),
		MetricsTextfile: viper.GetString(metricsTextfileKey),
	}
}

func newMutateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mutate <module>",
		Short: "Produce mutants of a module and test them",
		Long:  mutateLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(cmd.Context(), newUI(cmd), m.Path(args[0]), mutateOptionsFromConfig())
		},
	}

	configureMutateFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newMutateCmd())
}

func configureMutateFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers for producing and testing mutants")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().StringSliceVar(&operatorsFlag, operatorsFlagName, viper.GetStringSlice(operatorsConfigKey), "mutation operators to apply (default: all)")
	bindFlagToConfig(cmd.Flags().Lookup(operatorsFlagName), operatorsConfigKey)

	cmd.Flags().StringVarP(&testsFlag, testsFlagName, "t", viper.GetString(testsConfigKey), "test tree selecting the tests to run against mutants")
	bindFlagToConfig(cmd.Flags().Lookup(testsFlagName), testsConfigKey)

	cmd.Flags().StringVar(&testCommandFlag, testCommandFlagName, viper.GetString(harnessCommandKey), "test harness command line")
	bindFlagToConfig(cmd.Flags().Lookup(testCommandFlagName), harnessCommandKey)

	cmd.Flags().Int64Var(&testTimeoutFlag, testTimeoutFlagName, viper.GetInt64(harnessTimeoutKey), "seconds before a harness run is aborted (0 disables)")
	bindFlagToConfig(cmd.Flags().Lookup(testTimeoutFlagName), harnessTimeoutKey)

	cmd.Flags().BoolVar(&diffFlag, diffFlagName, viper.GetBool(diffConfigKey), "print the code difference of every mutant that was not killed")
	bindFlagToConfig(cmd.Flags().Lookup(diffFlagName), diffConfigKey)

	cmd.Flags().StringVar(&metricsTextfileFlag, metricsFlagName, viper.GetString(metricsTextfileKey), "write registry metrics to this file in Prometheus text format")
	bindFlagToConfig(cmd.Flags().Lookup(metricsFlagName), metricsTextfileKey)
}

func runMutate(ctx context.Context, ui controller.UI, path m.Path, opts mutateOptions) error {
	ops, err := operators.ByName(opts.Operators)
	if err != nil {
		return err
	}

	if opts.Tests != "" && len(opts.HarnessCommand) == 0 {
		return fmt.Errorf("--%s requires --%s: %w", testsFlagName, testCommandFlagName, adapter.ErrNoHarness)
	}

	registry := newRegistry()
	defer cleanupRegistry(registry)

	mod, err := registry.Load(ctx, path)
	if err != nil {
		return err
	}

	mutants, produceErr := domain.NewMutantProducer(registry, metrics).Produce(ctx, domain.ProduceArgs{
		Module:    mod,
		Operators: ops,
		OutputDir: opts.Output,
		Threads:   opts.Parallel,
	})
	if produceErr != nil {
		slog.Error("Some mutants could not be written", "module", mod.Name, "error", produceErr)
	}

	if opts.Tests != "" {
		mutants, err = testMutants(ctx, ui, mutants, opts)
		if err != nil {
			return err
		}
	}

	ui.DisplayMutants(ctx, mutants)

	if opts.Diff {
		if err := displayDifferences(ctx, ui, registry, mod, mutants); err != nil {
			return err
		}
	}

	if opts.Tests != "" {
		ui.DisplayMutationScore(ctx, domain.MutationScore(mutants))
	}

	if opts.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsTextfile, metricsRegistry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return produceErr
}

func testMutants(ctx context.Context, ui controller.UI, mutants []m.Mutant, opts mutateOptions) ([]m.Mutant, error) {
	forest, err := testTreeStore.LoadForest(ctx, opts.Tests)
	if err != nil {
		return nil, err
	}

	selection := domain.GetIncludedTests(forest)
	ui.DisplaySelection(ctx, selection)

	runner := adapter.NewLocalTestRunnerAdapter(opts.HarnessCommand, opts.HarnessTimeout)

	return domain.NewEvaluator(runner).EvaluateAll(ctx, mutants, selection, opts.Parallel), nil
}

// displayDifferences diffs every mutant that was not killed against a fresh
// decompile of the module, so the baseline never reflects in-memory edits.
func displayDifferences(ctx context.Context, ui controller.UI, registry domain.ModuleRegistry, mod *domain.Module, mutants []m.Mutant) error {
	baseline, err := registry.CloneWithFreshDecompile(ctx, mod)
	if err != nil {
		return err
	}

	defer func() {
		if err := baseline.Release(); err != nil {
			slog.Warn("Failed to release baseline module", "module", baseline.Name, "error", err)
		}
	}()

	for _, mutant := range mutants {
		if mutant.Path == "" || mutant.Status == m.MutantKilled {
			continue
		}

		diff, err := mutantDifference(ctx, baseline.Tree(), mutant)
		if err != nil {
			slog.Error("Failed to diff mutant", "mutant", mutant.ID, "path", mutant.Path, "error", err)
			continue
		}

		ui.DisplayDifference(ctx, controller.MutantDifference{Mutant: mutant, Difference: diff})
	}

	return nil
}

// mutantDifference loads a persisted mutant together with the debug symbols
// written next to it and diffs it against baseline.
func mutantDifference(ctx context.Context, baseline *m.ModuleTree, mutant m.Mutant) (domain.CodeWithDifference, error) {
	writeExt := viper.GetString(debugWriteExtensionKey)

	registry := domain.NewModuleRegistry(
		appFs,
		moduleCodec,
		symbolStore,
		treeCopier,
		domain.WithDebugExtensions(writeExt, writeExt),
		domain.WithMetrics(metrics),
	)
	defer cleanupRegistry(registry)

	loaded, err := registry.Load(ctx, mutant.Path)
	if err != nil {
		return domain.CodeWithDifference{}, err
	}

	return domain.CreateDifferenceListing(baseline, loaded.Tree())
}
