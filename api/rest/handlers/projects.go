package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/dataset"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/events"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/workflow"
)

const maxDatasetBytes = 64 << 20

// ProjectHandler handles project and workflow HTTP requests
type ProjectHandler struct {
	projects storage.ProjectStore
	bus      *events.Bus
	log      *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects storage.ProjectStore, bus *events.Bus, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, bus: bus, log: log}
}

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=120"`
	Tier   string `json:"tier" validate:"required,oneof=free pro enterprise"`
}

// CreateProject handles POST /v1/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	p := &models.Project{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Name:      req.Name,
		Tier:      models.Tier(req.Tier),
		Workflow:  workflow.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.projects.CreateProject(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("tier", string(p.Tier)))
	writeJSON(w, http.StatusCreated, p)
}

// GetProject handles GET /v1/projects/{projectId}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.GetProject(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// WorkflowResponse is the workflow state with its derived stage
type WorkflowResponse struct {
	Stage    models.WorkflowStage `json:"stage"`
	StepName string               `json:"step_name,omitempty"`
	models.WorkflowState
}

func workflowResponse(ws models.WorkflowState) WorkflowResponse {
	resp := WorkflowResponse{Stage: workflow.Stage(ws), WorkflowState: ws}
	if ws.Step != nil {
		resp.StepName = ws.Step.Name()
	}
	return resp
}

// GetWorkflow handles GET /v1/projects/{projectId}/workflow
func (h *ProjectHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.GetProject(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workflowResponse(p.Workflow))
}

// ResetWorkflow handles POST /v1/projects/{projectId}/workflow/reset.
// The project goes back to the upload step; the attached dataset is
// detached so a fresh upload is required.
func (h *ProjectHandler) ResetWorkflow(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	ws := workflow.Reset(p.Workflow)
	if err := h.projects.UpdateWorkflow(r.Context(), projectID, ws); err != nil {
		writeError(w, err)
		return
	}
	if err := h.projects.SetDataset(r.Context(), projectID, nil); err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("workflow reset", zap.String("project_id", projectID))
	h.bus.Publish(events.ProjectTopic(projectID), events.Event{
		Type:      events.TypeWorkflowAdvanced,
		ProjectID: projectID,
		Payload:   ws,
	})
	writeJSON(w, http.StatusOK, workflowResponse(ws))
}

// UploadDatasetResponse reports the ingested dataset and whether an
// identical prior upload was reused
type UploadDatasetResponse struct {
	Dataset  *models.Dataset  `json:"dataset"`
	Reused   bool             `json:"reused"`
	Workflow WorkflowResponse `json:"workflow"`
}

// UploadDataset handles POST /v1/projects/{projectId}/dataset. The raw
// CSV content is the request body; the filename comes from the
// X-Filename header. Re-uploading byte-identical content keeps the
// existing dataset version instead of minting a new one.
func (h *ProjectHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := r.Header.Get("X-Filename")
	if filename == "" {
		filename = "dataset.csv"
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDatasetBytes))
	if err != nil {
		writeError(w, apperrors.Validation("reading upload: %v", err))
		return
	}

	ds, err := dataset.Ingest(content, filename)
	if err != nil {
		ws := workflow.Fail(p.Workflow, err.Error())
		if uerr := h.projects.UpdateWorkflow(r.Context(), projectID, ws); uerr != nil {
			h.log.Error("record workflow failure", zap.String("project_id", projectID), zap.Error(uerr))
		}
		writeError(w, err)
		return
	}

	reused := p.Dataset != nil && p.Dataset.ContentHash == ds.ContentHash
	if reused {
		ds = p.Dataset
	} else {
		if err := h.projects.SetDataset(r.Context(), projectID, ds); err != nil {
			writeError(w, err)
			return
		}
	}

	// Upload and schema inference both complete here, so the workflow
	// lands on the config step.
	ws, err := workflow.AdvanceTo(p.Workflow, models.StepConfig)
	if err != nil {
		// Already past config: a replacement upload does not move the
		// workflow backwards.
		ws = p.Workflow
	}
	ws.DatasetReused = reused
	if err := h.projects.UpdateWorkflow(r.Context(), projectID, ws); err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("dataset uploaded",
		zap.String("project_id", projectID),
		zap.String("version_id", ds.VersionID),
		zap.Int("rows", ds.RowCount),
		zap.Bool("reused", reused))
	h.bus.Publish(events.ProjectTopic(projectID), events.Event{
		Type:      events.TypeWorkflowAdvanced,
		ProjectID: projectID,
		Payload:   ws,
	})
	writeJSON(w, http.StatusOK, UploadDatasetResponse{
		Dataset:  ds,
		Reused:   reused,
		Workflow: workflowResponse(ws),
	})
}
