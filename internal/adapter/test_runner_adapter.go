package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// Placeholders expanded in harness command arguments.
const (
	BinaryPlaceholder = "{binary}"
	FilterPlaceholder = "{filter}"
)

// ErrNoHarness reports that no test harness command was configured.
var ErrNoHarness = errors.New("no test harness command configured")

// TestRunnerAdapter abstracts running the external test harness against a mutant.
type TestRunnerAdapter interface {
	// RunTests executes the harness for binary, restricted to filter.
	// Returns the combined stdout/stderr output and any error; a non-nil
	// error with output means the harness ran and reported failures.
	RunTests(ctx context.Context, workDir, binary m.Path, filter string) (output string, err error)
}

// LocalTestRunnerAdapter runs the harness as a local process.
type LocalTestRunnerAdapter struct {
	command []string
	timeout time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter. command is the
// harness argv; {binary} and {filter} inside arguments are replaced per run.
// A zero timeout means no limit beyond the caller's context.
func NewLocalTestRunnerAdapter(command []string, timeout time.Duration) *LocalTestRunnerAdapter {
	return &LocalTestRunnerAdapter{command: command, timeout: timeout}
}

// RunTests implements TestRunnerAdapter.
func (a *LocalTestRunnerAdapter) RunTests(ctx context.Context, workDir, binary m.Path, filter string) (string, error) {
	if len(a.command) == 0 {
		return "", ErrNoHarness
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	replacer := strings.NewReplacer(BinaryPlaceholder, string(binary), FilterPlaceholder, filter)

	args := make([]string, 0, len(a.command)-1)
	for _, arg := range a.command[1:] {
		args = append(args, replacer.Replace(arg))
	}

	// #nosec G204 - the harness command comes from the user's own configuration
	cmd := exec.CommandContext(ctx, a.command[0], args...)
	cmd.Dir = string(workDir)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String() + stderr.String()

	if err != nil && ctx.Err() != nil {
		return output, fmt.Errorf("harness run aborted: %w", ctx.Err())
	}

	return output, err
}
