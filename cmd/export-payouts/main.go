package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/cdi-bonus/internal/gcsuploader"
	infra "github.com/dvloznov/cdi-bonus/internal/infra/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/payout"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	runID := flag.String("run", "", "accrual run id to export")
	out := flag.String("out", "", "output path for the CSV (defaults to <run>.csv)")
	bucket := flag.String("bucket", "", "optional GCS bucket to upload the CSV to")
	projectID := flag.String("project", "", "GCP project id (defaults to the wallet project)")
	datasetID := flag.String("dataset", "", "BigQuery dataset id (defaults to wallet)")
	flag.Parse()

	if *runID == "" {
		log.Fatal().Msg("Error: --run is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.NewBigQueryLedgerRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	rows, err := repo.QueryPayoutsByRun(ctx, *runID)
	if err != nil {
		log.Fatal().Err(err).Str("run_id", *runID).Msg("Failed to query payouts")
	}
	if len(rows) == 0 {
		log.Fatal().Str("run_id", *runID).Msg("No payouts found for run")
	}

	records := make([]payout.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord())
	}

	data, err := payout.ExportCSV(records)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render CSV")
	}

	path := *out
	if path == "" {
		path = *runID + ".csv"
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write CSV")
	}

	if *bucket != "" {
		object := "payouts/" + *runID + ".csv"
		if err := gcsuploader.UploadBytes(ctx, *bucket, object, data); err != nil {
			log.Fatal().Err(err).Str("bucket", *bucket).Msg("Failed to upload CSV to GCS")
		}
		log.Info().Str("uri", "gs://"+*bucket+"/"+object).Msg("Uploaded payout export")
	}

	fmt.Printf("Exported %d payouts for run %s to %s.\n", len(records), *runID, path)
}
