package pipeline

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/normalize"
	"github.com/dvloznov/cdi-bonus/internal/payout"
)

// Step represents a single step in the accrual pipeline.
type Step interface {
	Execute(ctx context.Context, state *RunState) error
}

// RunState holds the shared state across all pipeline steps. Each step reads
// the previous step's output and writes its own; nothing is mutated after the
// producing step finishes.
type RunState struct {
	Cutoff civil.Date
	RunID  string

	EventRows []*bq.WalletEventRow
	Events    []normalize.Event
	Movements []accrual.DailyMovement
	Dense     []accrual.DenseDailyRow
	Balances  []accrual.BalanceRow
	Stability []accrual.StabilityRow
	Rates     []accrual.RateEntry
	Accruals  []accrual.AccrualRow
	Payouts   []payout.Record

	Summary bq.RunSummary
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially. The first failing step
// aborts the batch; there is no row-level skip-and-continue for integrity
// violations.
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Deps wires the pipeline to its collaborators. Repositories enter as
// interfaces so tests run against mocks.
type Deps struct {
	Events  bq.EventRepository
	Rates   bq.RateRepository
	Payouts bq.PayoutRepository
	Runs    bq.RunRepository

	Params accrual.Params

	// Now stamps payout event times; overridable in tests. Defaults to
	// time.Now when nil.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// NewAccrualPipeline creates the standard pipeline for one accrual batch.
func NewAccrualPipeline(deps *Deps) *Pipeline {
	return NewPipeline(
		&LoadEventsStep{deps: deps},
		&NormalizeStep{},
		&AggregateStep{},
		&DensifyStep{},
		&AccumulateStep{},
		&StabilityStep{deps: deps},
		&LoadRatesStep{deps: deps},
		&AccrueStep{},
		&FormatPayoutsStep{deps: deps},
		&InsertPayoutsStep{deps: deps},
	)
}

// RunAccrualBatch computes and persists one interest accrual batch up to
// cutoff. It records the run in the bookkeeping table: RUNNING at start,
// SUCCESS with a summary at the end, FAILED with the full violation report
// when any stage aborts. Returns the run id alongside the summary so callers
// can reference the run in exports and logs.
func RunAccrualBatch(ctx context.Context, deps *Deps, cutoff civil.Date) (string, bq.RunSummary, error) {
	log := logger.FromContext(ctx)

	runID, err := deps.Runs.StartAccrualRun(ctx, cutoff)
	if err != nil {
		return "", bq.RunSummary{}, fmt.Errorf("RunAccrualBatch: starting run: %w", err)
	}

	ctx = logger.WithContext(ctx, logger.WithRun(log, runID))

	state := &RunState{Cutoff: cutoff, RunID: runID}
	if err := NewAccrualPipeline(deps).Execute(ctx, state); err != nil {
		deps.Runs.MarkAccrualRunFailed(ctx, runID, err)
		return runID, bq.RunSummary{}, err
	}

	if err := deps.Runs.MarkAccrualRunSucceeded(ctx, runID, state.Summary); err != nil {
		return runID, state.Summary, fmt.Errorf("RunAccrualBatch: marking run succeeded: %w", err)
	}

	return runID, state.Summary, nil
}
