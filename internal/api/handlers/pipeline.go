package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ftsfr/wrds-crsp-compustat/internal/scheduler"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// JobRunner is satisfied by *scheduler.Scheduler
type JobRunner interface {
	RunJob(jobName string) (scheduler.JobResult, error)
	GetJobStats() map[string]scheduler.JobStats
}

// PipelineHandler exposes scheduled job status and manual triggers
type PipelineHandler struct {
	jobs   JobRunner
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(jobs JobRunner, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		jobs:   jobs,
		logger: log,
	}
}

// GetJobs returns per-job statistics
// GET /api/pipeline/jobs
func (h *PipelineHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// RunJob runs a job now and waits for it
// POST /api/pipeline/jobs/{name}/run
func (h *PipelineHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	result, err := h.jobs.RunJob(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job":     name,
		"success": result.Success,
	}).Info("Job triggered via API")

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
		if result.Skipped {
			status = http.StatusConflict
		}
	}
	respondJSON(w, status, result)
}
