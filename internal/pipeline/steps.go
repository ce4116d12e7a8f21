package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/normalize"
	"github.com/dvloznov/cdi-bonus/internal/payout"
)

// LoadEventsStep pulls all wallet ledger events up to the batch cutoff.
type LoadEventsStep struct {
	deps *Deps
}

func (s *LoadEventsStep) Execute(ctx context.Context, state *RunState) error {
	log := logger.FromContext(ctx)

	rows, err := s.deps.Events.ListWalletEvents(ctx, state.Cutoff)
	if err != nil {
		return fmt.Errorf("LoadEventsStep: %w", err)
	}

	state.EventRows = rows
	log.Info().Int("events", len(rows)).Str("cutoff", state.Cutoff.String()).Msg("loaded wallet events")
	return nil
}

// NormalizeStep converts raw BigQuery rows into typed events, aborting the
// batch on any missing required column.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *RunState) error {
	raws := make([]normalize.RawEvent, 0, len(state.EventRows))
	for _, row := range state.EventRows {
		raws = append(raws, row.ToRawEvent())
	}

	events, err := normalize.Normalize(raws)
	if err != nil {
		return fmt.Errorf("NormalizeStep: %w", err)
	}

	state.Events = events
	state.Summary.EventsProcessed = len(events)
	return nil
}

// AggregateStep filters eligible change-capture operations and collapses
// events into per-account per-day net movements.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *RunState) error {
	state.Movements = normalize.EligibleDailyMovements(state.Events)
	log := logger.FromContext(ctx)
	log.Info().Int("movements", len(state.Movements)).Msg("aggregated daily movements")
	return nil
}

// DensifyStep expands the sparse movements to one row per account per day
// across the full batch window, then checks timeline integrity.
type DensifyStep struct{}

func (s *DensifyStep) Execute(ctx context.Context, state *RunState) error {
	dense, err := accrual.Densify(state.Movements)
	if err != nil {
		return fmt.Errorf("DensifyStep: %w", err)
	}
	if err := accrual.ValidateDenseTimeline(dense); err != nil {
		return fmt.Errorf("DensifyStep: %w", err)
	}

	state.Dense = dense
	return nil
}

// AccumulateStep turns daily movements into running end-of-day balances.
type AccumulateStep struct{}

func (s *AccumulateStep) Execute(ctx context.Context, state *RunState) error {
	balances := accrual.AccumulateBalances(state.Dense)
	if err := accrual.ValidateBalances(balances, state.Dense); err != nil {
		return fmt.Errorf("AccumulateStep: %w", err)
	}

	state.Balances = balances
	return nil
}

// StabilityStep computes the day-over-day stable amount above the threshold.
type StabilityStep struct {
	deps *Deps
}

func (s *StabilityStep) Execute(ctx context.Context, state *RunState) error {
	state.Stability = accrual.DetectStability(state.Balances, s.deps.Params.Threshold)
	return nil
}

// LoadRatesStep fetches the CDI rate table and validates it before use.
type LoadRatesStep struct {
	deps *Deps
}

func (s *LoadRatesStep) Execute(ctx context.Context, state *RunState) error {
	rows, err := s.deps.Rates.ListCDIRates(ctx)
	if err != nil {
		return fmt.Errorf("LoadRatesStep: %w", err)
	}

	rates := make([]accrual.RateEntry, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, row.ToEntry())
	}
	if err := accrual.ValidateRates(rates); err != nil {
		return fmt.Errorf("LoadRatesStep: %w", err)
	}

	state.Rates = rates
	log := logger.FromContext(ctx)
	log.Info().Int("rates", len(rates)).Msg("loaded cdi rates")
	return nil
}

// AccrueStep joins stable amounts against daily rates. Days with no
// published rate earn nothing and drop out of the accrual set.
type AccrueStep struct{}

func (s *AccrueStep) Execute(ctx context.Context, state *RunState) error {
	accruals := accrual.ApplyRates(state.Stability, state.Rates)
	if err := accrual.ValidateAccruals(accruals); err != nil {
		return fmt.Errorf("AccrueStep: %w", err)
	}

	if dropped := len(state.Stability) - len(accruals); dropped > 0 {
		log := logger.FromContext(ctx)
		log.Warn().Int("rows", dropped).Msg("dropped stability rows with no matching rate")
	}

	state.Accruals = accruals
	return nil
}

// FormatPayoutsStep rounds accrued interest to payable amounts and shapes
// the credit records for the ledger.
type FormatPayoutsStep struct {
	deps *Deps
}

func (s *FormatPayoutsStep) Execute(ctx context.Context, state *RunState) error {
	state.Payouts = payout.FormatRecords(state.Accruals, s.deps.Params, s.deps.now())

	total := decimal.Zero
	for _, rec := range state.Payouts {
		total = total.Add(rec.Amount)
	}
	state.Summary.PayoutsInserted = len(state.Payouts)
	state.Summary.TotalInterest = total
	return nil
}

// InsertPayoutsStep writes the interest credits back to BigQuery.
type InsertPayoutsStep struct {
	deps *Deps
}

func (s *InsertPayoutsStep) Execute(ctx context.Context, state *RunState) error {
	log := logger.FromContext(ctx)
	if len(state.Payouts) == 0 {
		log.Info().Msg("no payouts to insert")
		return nil
	}

	rows := make([]*bq.PayoutRow, 0, len(state.Payouts))
	for _, rec := range state.Payouts {
		rows = append(rows, bq.NewPayoutRow(rec, state.RunID))
	}
	if err := s.deps.Payouts.InsertPayouts(ctx, rows); err != nil {
		return fmt.Errorf("InsertPayoutsStep: %w", err)
	}

	log.Info().
		Int("payouts", len(rows)).
		Str("total_interest", state.Summary.TotalInterest.String()).
		Msg("inserted interest payouts")
	return nil
}
