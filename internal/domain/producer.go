package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// Operator finds mutation targets in a code model and applies a single
// mutation to an element resolved in a copy of that model.
type Operator interface {
	Name() string
	Description() string
	// FindTargets lists the mutation points of tree. Target elements belong
	// to tree and must not be modified.
	FindTargets(tree *m.ModuleTree) []MutationTarget
	// Apply performs target's mutation on element, the counterpart of
	// target.Element inside a copy.
	Apply(element m.Element, target MutationTarget) error
}

// MutationTarget is one mutation point found by an operator.
type MutationTarget struct {
	Element     m.Element
	Instruction int // index into the method body, -1 when not instruction-level
	Original    string
	Replacement string
	Description string
}

// ProduceArgs contains the arguments for producing mutants.
type ProduceArgs struct {
	Module    *Module
	Operators []Operator
	OutputDir m.Path
	Threads   int
}

// MutantProducer turns a registered module into persisted mutants, one
// isolated clone per mutant.
type MutantProducer interface {
	Produce(ctx context.Context, args ProduceArgs) ([]m.Mutant, error)
}

type mutantProducer struct {
	registry ModuleRegistry
	metrics  *Metrics
}

// NewMutantProducer constructs a MutantProducer working on registry.
func NewMutantProducer(registry ModuleRegistry, metrics *Metrics) MutantProducer {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &mutantProducer{registry: registry, metrics: metrics}
}

type mutationJob struct {
	op     Operator
	target MutationTarget
	ref    m.ElementReference
}

// Produce captures every target of every operator against the module's
// canonical tree, then builds the mutants in parallel. A mutant whose copy is
// corrupt or whose target cannot be resolved is aborted and the run goes on.
// Write failures abort their mutant too and are returned joined.
func (p *mutantProducer) Produce(ctx context.Context, args ProduceArgs) ([]m.Mutant, error) {
	if args.Module == nil {
		return nil, notRegistered(nil)
	}

	tree := args.Module.Tree()
	if tree == nil {
		return nil, notRegistered(args.Module)
	}

	jobs, err := collectJobs(tree, args.Operators)
	if err != nil {
		return nil, err
	}

	slog.Info("Producing mutants", "module", args.Module.Name, "count", len(jobs), "threads", args.Threads)

	mutants := make([]m.Mutant, len(jobs))

	var (
		writeErrs []error
		errsMutex sync.Mutex
	)

	var group errgroup.Group
	if args.Threads > 0 {
		group.SetLimit(args.Threads)
	}

	for i, job := range jobs {
		group.Go(func() error {
			mutant, err := p.produceOne(ctx, args, job)
			mutants[i] = mutant

			if err != nil {
				errsMutex.Lock()

				writeErrs = append(writeErrs, err)

				errsMutex.Unlock()
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return mutants, err
	}

	return mutants, errors.Join(writeErrs...)
}

func collectJobs(tree *m.ModuleTree, operators []Operator) ([]mutationJob, error) {
	var jobs []mutationJob

	for _, op := range operators {
		for _, target := range op.FindTargets(tree) {
			ref, err := Capture(target.Element)
			if err != nil {
				return nil, fmt.Errorf("failed to capture target of %s: %w", op.Name(), err)
			}

			jobs = append(jobs, mutationJob{op: op, target: target, ref: ref})
		}
	}

	return jobs, nil
}

// produceOne builds a single mutant. The returned error is non-nil only for
// write failures, which the caller reports.
func (p *mutantProducer) produceOne(ctx context.Context, args ProduceArgs, job mutationJob) (m.Mutant, error) {
	mutant := m.Mutant{
		ID:          uuid.NewString(),
		Operator:    job.op.Name(),
		Target:      job.ref,
		Description: job.target.Description,
		Status:      m.MutantCreated,
	}

	aborted := func(err error) m.Mutant {
		mutant.Status = m.MutantAborted
		mutant.Err = err
		p.metrics.record(opMutant, err)

		return mutant
	}

	if err := ctx.Err(); err != nil {
		return aborted(err), nil
	}

	clone, err := p.registry.Clone(ctx, args.Module)
	if err != nil {
		slog.Error("Aborting mutant: module copy failed", "mutant", mutant.ID, "target", job.ref.String(), "error", err)
		return aborted(err), nil
	}

	element, err := Resolve(job.ref, clone)
	if err != nil {
		slog.Error("Aborting mutant: target not resolvable in copy", "mutant", mutant.ID, "target", job.ref.String(), "error", err)
		return aborted(err), nil
	}

	if err := job.op.Apply(element, job.target); err != nil {
		slog.Error("Aborting mutant: mutation failed", "mutant", mutant.ID, "operator", job.op.Name(), "error", err)
		return aborted(err), nil
	}

	dest := m.Path(filepath.Join(string(args.OutputDir), job.op.Name(), mutant.ID, args.Module.Path.Base()))

	if err := p.registry.PersistTree(ctx, args.Module, clone, dest); err != nil {
		return aborted(err), fmt.Errorf("mutant %s: %w", mutant.ID, err)
	}

	mutant.Path = dest
	p.metrics.record(opMutant, nil)

	slog.Debug("Produced mutant", "mutant", mutant.ID, "operator", job.op.Name(), "path", dest)

	return mutant, nil
}
