package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
	"github.com/dvloznov/cdi-bonus/internal/api/handlers"
	"github.com/dvloznov/cdi-bonus/internal/api/middleware"
	infraBQ "github.com/dvloznov/cdi-bonus/internal/infra/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/jobs"
	"github.com/dvloznov/cdi-bonus/internal/jobs/inmemory"
	"github.com/dvloznov/cdi-bonus/internal/logger"
	"github.com/dvloznov/cdi-bonus/internal/pipeline"
)

func main() {
	// Parse command-line flags
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		projectID = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project id (or set GCP_PROJECT env)")
		datasetID = flag.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset id (or set BQ_DATASET env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Initialize repositories
	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewBigQueryLedgerRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	deps := &pipeline.Deps{
		Events:  repo,
		Rates:   repo,
		Payouts: repo,
		Runs:    repo,
		Params:  accrual.DefaultParams(),
	}

	// Create job handler for processing accrual runs
	jobHandler := func(ctx context.Context, job jobs.Job) error {
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

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	runsHandler := handlers.NewRunsHandler(repo, repo, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Accrual run endpoints
	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			runsHandler.ListRuns(w, r)
		case http.MethodPost:
			runsHandler.EnqueueRun(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		// Extract run ID from /api/runs/{id}/payouts
		rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		runID, ok := strings.CutSuffix(rest, "/payouts")
		if !ok || runID == "" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		runsHandler.ListRunPayouts(w, r, runID)
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
