package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/monitor"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/runner"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
)

// JobHandler handles training job HTTP requests and the status
// callback endpoint the execution system reports into
type JobHandler struct {
	monitor  *monitor.Monitor
	jobs     storage.JobStore
	projects storage.ProjectStore
	log      *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(m *monitor.Monitor, jobs storage.JobStore, projects storage.ProjectStore, log *zap.Logger) *JobHandler {
	return &JobHandler{monitor: m, jobs: jobs, projects: projects, log: log}
}

// SubmitJobRequest represents the request to submit a training job
type SubmitJobRequest struct {
	// ScriptVersion 0 means the project's current head version.
	ScriptVersion int     `json:"script_version" validate:"min=0"`
	MachineType   string  `json:"machine_type" validate:"required"`
	MaxHours      float64 `json:"max_hours" validate:"required,gt=0"`
	TaskType      string  `json:"task_type" validate:"required,oneof=classification regression clustering"`
}

// SubmitJob handles POST /v1/projects/{projectId}/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req SubmitJobRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	version := req.ScriptVersion
	if version == 0 {
		p, err := h.projects.GetProject(r.Context(), projectID)
		if err != nil {
			writeError(w, err)
			return
		}
		if p.ScriptVersion == 0 {
			writeError(w, apperrors.Validation("project %s has no committed script", projectID))
			return
		}
		version = p.ScriptVersion
	}

	job, err := h.monitor.Submit(r.Context(), projectID, version, req.MachineType, req.MaxHours, models.TaskType(req.TaskType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// GetJob handles GET /v1/jobs/{jobId}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ActiveJob handles GET /v1/projects/{projectId}/jobs/active
func (h *JobHandler) ActiveJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.ActiveJob(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetLogs handles GET /v1/jobs/{jobId}/logs
func (h *JobHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	lines, err := h.jobs.GetLogs(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"lines":  lines,
	})
}

// ListEvents handles GET /v1/jobs/{jobId}/events
func (h *JobHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, apperrors.Validation("invalid limit %q", s))
			return
		}
		limit = n
	}

	evs, err := h.jobs.ListJobEvents(r.Context(), jobID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"events": evs,
	})
}

// CancelJob handles POST /v1/jobs/{jobId}/cancel. Cancellation is
// cooperative: the call returns as soon as the request is recorded, the
// job turns failed/user_cancelled when the execution system confirms.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	if err := h.monitor.Cancel(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("cancel requested", zap.String("job_id", jobID))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"state":  "cancel_pending",
	})
}

// StatusCallbackRequest is one status report from the execution system
type StatusCallbackRequest struct {
	JobID        string          `json:"job_id" validate:"required"`
	Status       string          `json:"status" validate:"omitempty,oneof=pending provisioning running succeeded failed"`
	Seq          int64           `json:"seq"`
	Logs         []string        `json:"logs"`
	Metrics      *models.Metrics `json:"metrics"`
	Reason       string          `json:"reason"`
	RuntimeHours float64         `json:"runtime_hours"`
}

// StatusCallback handles POST /v1/runner/callback
func (h *JobHandler) StatusCallback(w http.ResponseWriter, r *http.Request) {
	var req StatusCallbackRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err := h.monitor.OnStatusUpdate(r.Context(), runner.StatusUpdate{
		JobID:        req.JobID,
		Status:       models.JobStatus(req.Status),
		Seq:          req.Seq,
		Logs:         req.Logs,
		Metrics:      req.Metrics,
		Reason:       req.Reason,
		RuntimeHours: req.RuntimeHours,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
