package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/deploy"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
)

// ModelHandler handles model promotion and visibility HTTP requests
type ModelHandler struct {
	registrar *deploy.Registrar
	records   storage.ModelStore
	log       *zap.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(registrar *deploy.Registrar, records storage.ModelStore, log *zap.Logger) *ModelHandler {
	return &ModelHandler{registrar: registrar, records: records, log: log}
}

// PromoteRequest represents the request to promote a job's output
type PromoteRequest struct {
	JobID string `json:"job_id" validate:"required"`
}

// Promote handles POST /v1/projects/{projectId}/models
func (h *ModelHandler) Promote(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req PromoteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.registrar.Promote(r.Context(), projectID, req.JobID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("model promoted",
		zap.String("project_id", projectID),
		zap.String("job_id", req.JobID),
		zap.String("model_id", rec.ID))
	writeJSON(w, http.StatusCreated, rec)
}

// GetModel handles GET /v1/models/{modelId}
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.GetModel(r.Context(), mux.Vars(r)["modelId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SetVisibilityRequest represents the request to change model visibility
type SetVisibilityRequest struct {
	Visibility string `json:"visibility" validate:"required,oneof=private public"`
}

// SetVisibility handles PUT /v1/models/{modelId}/visibility
func (h *ModelHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["modelId"]

	var req SetVisibilityRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.registrar.SetVisibility(r.Context(), modelID, models.Visibility(req.Visibility)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"model_id":   modelID,
		"visibility": req.Visibility,
	})
}
