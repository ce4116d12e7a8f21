package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
	infra "github.com/dvloznov/cdi-bonus/internal/infra/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/pipeline"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	projectID := flag.String("project", "", "GCP project id (defaults to the wallet project)")
	datasetID := flag.String("dataset", "", "BigQuery dataset id (defaults to wallet)")
	cutoffFlag := flag.String("cutoff", "", "batch cutoff date YYYY-MM-DD (defaults to yesterday UTC)")
	thresholdFlag := flag.String("threshold", "", "stability threshold override, e.g. 100")
	minPayoutFlag := flag.String("min-payout", "", "minimum rounded credit worth a ledger entry, e.g. 0.01")
	flag.Parse()

	cutoff := civil.DateOf(time.Now().UTC()).AddDays(-1)
	if *cutoffFlag != "" {
		parsed, err := civil.ParseDate(*cutoffFlag)
		if err != nil {
			log.Fatal().Err(err).Str("cutoff", *cutoffFlag).Msg("Invalid --cutoff date")
		}
		cutoff = parsed
	}

	params := accrual.DefaultParams()
	if *thresholdFlag != "" {
		threshold, err := decimal.NewFromString(*thresholdFlag)
		if err != nil {
			log.Fatal().Err(err).Str("threshold", *thresholdFlag).Msg("Invalid --threshold value")
		}
		params.Threshold = threshold
	}
	if *minPayoutFlag != "" {
		minPayout, err := decimal.NewFromString(*minPayoutFlag)
		if err != nil {
			log.Fatal().Err(err).Str("min_payout", *minPayoutFlag).Msg("Invalid --min-payout value")
		}
		params.MinPayout = minPayout
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.NewBigQueryLedgerRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	deps := &pipeline.Deps{
		Events:  repo,
		Rates:   repo,
		Payouts: repo,
		Runs:    repo,
		Params:  params,
	}

	log.Info().Str("cutoff", cutoff.String()).Msg("Starting accrual batch")

	runID, summary, err := pipeline.RunAccrualBatch(ctx, deps, cutoff)
	if err != nil {
		log.Fatal().Err(err).Str("run_id", runID).Msg("Accrual batch failed")
	}

	fmt.Printf("Accrual run %s completed: %d events, %d payouts, %s total interest.\n",
		runID, summary.EventsProcessed, summary.PayoutsInserted, summary.TotalInterest.StringFixed(params.PayoutScale))
}
