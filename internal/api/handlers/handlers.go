package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/cdi-bonus/internal/api/middleware"
	"github.com/dvloznov/cdi-bonus/internal/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/jobs"
)

// RunsHandler handles accrual run endpoints.
type RunsHandler struct {
	runs      bigquery.RunRepository
	payouts   bigquery.PayoutRepository
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRunsHandler creates a new accrual runs handler.
func NewRunsHandler(runs bigquery.RunRepository, payouts bigquery.PayoutRepository, publisher jobs.Publisher, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		runs:      runs,
		payouts:   payouts,
		publisher: publisher,
		log:       log,
	}
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs, err := h.runs.ListAccrualRuns(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accrual runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accrual runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// EnqueueRun handles POST /api/runs
func (h *RunsHandler) EnqueueRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CutoffDate  string `json:"cutoff_date"`
		RequestedBy string `json:"requested_by"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cutoff := req.CutoffDate
	if cutoff == "" {
		cutoff = civil.DateOf(time.Now().UTC()).AddDays(-1).String()
	} else if _, err := civil.ParseDate(cutoff); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "cutoff_date must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()

	job := &jobs.AccrualRunJob{
		CutoffDate:  cutoff,
		RequestedBy: req.RequestedBy,
	}

	if err := h.publisher.PublishAccrualRun(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue accrual run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue accrual run")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("cutoff", cutoff).Msg("Accrual run enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"cutoff_date": cutoff,
		"status":      string(job.Status),
	})
}

// ListRunPayouts handles GET /api/runs/{id}/payouts
func (h *RunsHandler) ListRunPayouts(w http.ResponseWriter, r *http.Request, runID string) {
	ctx := r.Context()

	payouts, err := h.payouts.QueryPayoutsByRun(ctx, runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to query payouts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query payouts")
		return
	}

	if payouts == nil {
		payouts = []*bigquery.PayoutRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"payouts": payouts,
		"count":   len(payouts),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
