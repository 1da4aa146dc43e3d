package domain

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/pavzaj/visualmutator/internal/adapter"
	m "github.com/pavzaj/visualmutator/internal/model"
)

// Evaluator runs the selected tests against produced mutants.
type Evaluator interface {
	// Evaluate tests one mutant. Mutants that were not created successfully
	// are returned unchanged.
	Evaluate(ctx context.Context, mutant m.Mutant, selection m.SelectedTests) m.Mutant
	// EvaluateAll tests mutants with up to threads harness runs at a time.
	EvaluateAll(ctx context.Context, mutants []m.Mutant, selection m.SelectedTests, threads int) []m.Mutant
}

type evaluator struct {
	testAdapter adapter.TestRunnerAdapter
}

// NewEvaluator constructs an Evaluator backed by the provided harness adapter.
func NewEvaluator(testAdapter adapter.TestRunnerAdapter) Evaluator {
	return &evaluator{testAdapter: testAdapter}
}

func (e *evaluator) Evaluate(ctx context.Context, mutant m.Mutant, selection m.SelectedTests) m.Mutant {
	if mutant.Status != m.MutantCreated {
		return mutant
	}

	if len(selection.MinimalClosure) == 0 {
		mutant.Status = m.MutantSurvived
		return mutant
	}

	if err := ctx.Err(); err != nil {
		mutant.Status = m.MutantAborted
		mutant.Err = err

		return mutant
	}

	workDir := m.Path(filepath.Dir(string(mutant.Path)))

	output, err := e.testAdapter.RunTests(ctx, workDir, mutant.Path, FilterExpression(selection.MinimalClosure))
	mutant.Status, mutant.Err = classifyRun(ctx, err)

	slog.Debug("Tested mutant", "mutant", mutant.ID, "status", mutant.Status.String(), "output", output)

	return mutant
}

func classifyRun(ctx context.Context, err error) (m.MutantStatus, error) {
	if err == nil {
		return m.MutantSurvived, nil
	}

	if ctx.Err() != nil {
		return m.MutantAborted, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return m.MutantKilled, nil
	}

	return m.MutantAborted, err
}

func (e *evaluator) EvaluateAll(ctx context.Context, mutants []m.Mutant, selection m.SelectedTests, threads int) []m.Mutant {
	results := make([]m.Mutant, len(mutants))

	var group errgroup.Group
	if threads > 0 {
		group.SetLimit(threads)
	}

	for i, mutant := range mutants {
		group.Go(func() error {
			results[i] = e.Evaluate(ctx, mutant, selection)
			return nil
		})
	}

	_ = group.Wait()

	return results
}
