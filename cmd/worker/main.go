package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
	infra "github.com/dvloznov/cdi-bonus/internal/infra/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/jobs"
	"github.com/dvloznov/cdi-bonus/internal/jobs/inmemory"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/pipeline"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting accrual worker service")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = logger.WithContext(ctx, log)

	repo, err := infra.NewBigQueryLedgerRepository(ctx, "", "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	deps := &pipeline.Deps{
		Events:  repo,
		Rates:   repo,
		Payouts: repo,
		Runs:    repo,
		Params:  accrual.DefaultParams(),
	}

	// Create job handler that processes accrual run jobs
	handler := func(ctx context.Context, job jobs.Job) error {
		runJob, ok := job.(*jobs.AccrualRunJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		cutoff, err := civil.ParseDate(runJob.CutoffDate)
		if err != nil {
			return fmt.Errorf("invalid cutoff date %q: %w", runJob.CutoffDate, err)
		}

		log.Info().
			Str("job_id", runJob.JobID).
			Str("cutoff", runJob.CutoffDate).
			Str("requested_by", runJob.RequestedBy).
			Msg("Processing accrual run job")

		runID, summary, err := pipeline.RunAccrualBatch(ctx, deps, cutoff)
		runJob.RunID = runID
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", runJob.JobID).
				Str("run_id", runID).
				Msg("Accrual batch failed")
			return err
		}

		log.Info().
			Str("job_id", runJob.JobID).
			Str("run_id", runID).
			Int("payouts", summary.PayoutsInserted).
			Msg("Accrual batch completed successfully")

		return nil
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Close the queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
