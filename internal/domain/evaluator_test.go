package domain

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pavzaj/visualmutator/internal/adapter/mocks"
	m "github.com/pavzaj/visualmutator/internal/model"
)

func exitError(t *testing.T) error {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	err := exec.Command("sh", "-c", "exit 1").Run()
	require.Error(t, err)

	return err
}

var testSelection = m.SelectedTests{
	Tests:          []m.TestID{{Class: "N3.C1", Method: "p"}},
	MinimalClosure: []string{"N1", "N3.C1"},
}

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		runErr     func(t *testing.T) error
		wantStatus m.MutantStatus
		wantErr    bool
	}{
		{"passing tests survive", func(*testing.T) error { return nil }, m.MutantSurvived, false},
		{"failing tests kill", exitError, m.MutantKilled, false},
		{"harness error aborts", func(*testing.T) error { return errors.New("executable not found") }, m.MutantAborted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runErr := tt.runErr(t)

			runner := mocks.NewMockTestRunnerAdapter(t)
			runner.On("RunTests", mock.Anything, m.Path("/out/AOR/1"), m.Path("/out/AOR/1/Calc.vmod"), "N1,N3.C1").
				Return("output", runErr)

			got := NewEvaluator(runner).Evaluate(context.Background(), m.Mutant{
				ID:     "1",
				Path:   "/out/AOR/1/Calc.vmod",
				Status: m.MutantCreated,
			}, testSelection)

			assert.Equal(t, tt.wantStatus, got.Status)

			if tt.wantErr {
				assert.Error(t, got.Err)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}
}

func TestEvaluator_EmptySelectionSurvives(t *testing.T) {
	runner := mocks.NewMockTestRunnerAdapter(t)

	got := NewEvaluator(runner).Evaluate(context.Background(), m.Mutant{Status: m.MutantCreated}, m.SelectedTests{MinimalClosure: []string{}})
	assert.Equal(t, m.MutantSurvived, got.Status)
	runner.AssertNotCalled(t, "RunTests")
}

func TestEvaluator_SkipsAbortedMutants(t *testing.T) {
	runner := mocks.NewMockTestRunnerAdapter(t)
	boom := errors.New("boom")

	got := NewEvaluator(runner).Evaluate(context.Background(), m.Mutant{Status: m.MutantAborted, Err: boom}, testSelection)
	assert.Equal(t, m.MutantAborted, got.Status)
	assert.ErrorIs(t, got.Err, boom)
}

func TestEvaluator_CanceledContext(t *testing.T) {
	runner := mocks.NewMockTestRunnerAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewEvaluator(runner).Evaluate(ctx, m.Mutant{Status: m.MutantCreated, Path: "/x/Calc.vmod"}, testSelection)
	assert.Equal(t, m.MutantAborted, got.Status)
	assert.ErrorIs(t, got.Err, context.Canceled)
}

func TestEvaluator_EvaluateAllKeepsOrder(t *testing.T) {
	runner := mocks.NewMockTestRunnerAdapter(t)
	runner.On("RunTests", mock.Anything, mock.Anything, m.Path("/out/a/Calc.vmod"), mock.Anything).Return("", nil)
	runner.On("RunTests", mock.Anything, mock.Anything, m.Path("/out/b/Calc.vmod"), mock.Anything).Return("", errors.New("crashed"))

	mutants := []m.Mutant{
		{ID: "a", Path: "/out/a/Calc.vmod", Status: m.MutantCreated},
		{ID: "b", Path: "/out/b/Calc.vmod", Status: m.MutantCreated},
		{ID: "c", Status: m.MutantAborted},
	}

	got := NewEvaluator(runner).EvaluateAll(context.Background(), mutants, testSelection, 2)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, m.MutantSurvived, got[0].Status)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, m.MutantAborted, got[1].Status)
	assert.Equal(t, "c", got[2].ID)
	assert.Equal(t, m.MutantAborted, got[2].Status)
}
