package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/gcsuploader"
	infra "github.com/dvloznov/cdi-bonus/internal/infra/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/rates"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	source := flag.String("source", "", "rate sheet CSV: a local path or a gs:// URI")
	projectID := flag.String("project", "", "GCP project id (defaults to the wallet project)")
	datasetID := flag.String("dataset", "", "BigQuery dataset id (defaults to wallet)")
	flag.Parse()

	if *source == "" {
		log.Fatal().Msg("Error: --source is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	var data []byte
	var err error
	if strings.HasPrefix(*source, "gs://") {
		data, err = gcsuploader.FetchFromGCS(ctx, *source)
	} else {
		data, err = os.ReadFile(*source)
	}
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Failed to read rate sheet")
	}

	entries, err := rates.ParseCSV(bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Rate sheet rejected")
	}

	repo, err := infra.NewBigQueryLedgerRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	rows := make([]*bq.CDIRateRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, bq.NewCDIRateRow(e))
	}
	if err := repo.InsertCDIRates(ctx, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert CDI rates")
	}

	fmt.Printf("Loaded %d CDI rates from %s.\n", len(rows), *source)
}
