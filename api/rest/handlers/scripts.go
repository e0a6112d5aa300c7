package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/diffmerge"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/sanitizer"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/versioning"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/workflow"
)

// ScriptHandler handles script version and suggestion HTTP requests
type ScriptHandler struct {
	scripts     *versioning.Store
	projects    storage.ProjectStore
	suggestions storage.SuggestionStore
	scanner     *sanitizer.Scanner
	log         *zap.Logger
}

// NewScriptHandler creates a new script handler
func NewScriptHandler(
	scripts *versioning.Store,
	projects storage.ProjectStore,
	suggestions storage.SuggestionStore,
	scanner *sanitizer.Scanner,
	log *zap.Logger,
) *ScriptHandler {
	return &ScriptHandler{
		scripts:     scripts,
		projects:    projects,
		suggestions: suggestions,
		scanner:     scanner,
		log:         log,
	}
}

// CommitScriptRequest represents the request to commit a script version
type CommitScriptRequest struct {
	Script string `json:"script" validate:"required"`
}

// CommitScript handles POST /v1/projects/{projectId}/script
func (h *ScriptHandler) CommitScript(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req CommitScriptRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sv, err := h.scripts.Commit(r.Context(), projectID, req.Script, models.OriginUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.advanceToScriptStep(r, projectID)
	writeJSON(w, http.StatusCreated, sv)
}

// GetScript handles GET /v1/projects/{projectId}/script/{version}
func (h *ScriptHandler) GetScript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version, err := strconv.Atoi(vars["version"])
	if err != nil {
		writeError(w, apperrors.Validation("invalid version %q", vars["version"]))
		return
	}

	sv, err := h.scripts.Get(r.Context(), vars["projectId"], version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// LatestScript handles GET /v1/projects/{projectId}/script
func (h *ScriptHandler) LatestScript(w http.ResponseWriter, r *http.Request) {
	sv, err := h.scripts.Latest(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// DiffResponse carries a positional line diff between two versions
type DiffResponse struct {
	From  int                  `json:"from"`
	To    int                  `json:"to"`
	Lines []diffmerge.DiffLine `json:"lines"`
}

// DiffScripts handles GET /v1/projects/{projectId}/script/{version}/diff/{other}
func (h *ScriptHandler) DiffScripts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	from, err := strconv.Atoi(vars["version"])
	if err != nil {
		writeError(w, apperrors.Validation("invalid version %q", vars["version"]))
		return
	}
	to, err := strconv.Atoi(vars["other"])
	if err != nil {
		writeError(w, apperrors.Validation("invalid version %q", vars["other"]))
		return
	}

	a, err := h.scripts.Get(r.Context(), vars["projectId"], from)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := h.scripts.Get(r.Context(), vars["projectId"], to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DiffResponse{
		From:  from,
		To:    to,
		Lines: diffmerge.Diff(a.Script, b.Script),
	})
}

// CreateSuggestionRequest represents an AI suggestion to register
type CreateSuggestionRequest struct {
	Rationale string `json:"rationale" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Summary   string `json:"summary"`
}

// CreateSuggestion handles POST /v1/projects/{projectId}/suggestions.
// The code is scanned on intake; the verdict is stored with the
// suggestion and returned to the caller.
func (h *ScriptHandler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req CreateSuggestionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	scan := h.scanner.Scan(req.Code)
	sg := &models.Suggestion{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		Rationale:     req.Rationale,
		Code:          req.Code,
		TargetVersion: p.ScriptVersion,
		Scan:          &scan,
		Summary:       req.Summary,
		CreatedAt:     time.Now(),
	}
	if err := h.suggestions.CreateSuggestion(r.Context(), sg); err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("suggestion registered",
		zap.String("project_id", projectID),
		zap.String("suggestion_id", sg.ID),
		zap.Bool("safe", scan.Safe))
	writeJSON(w, http.StatusCreated, sg)
}

// GetSuggestion handles GET /v1/projects/{projectId}/suggestions/{suggestionId}
func (h *ScriptHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sg, err := h.suggestions.GetSuggestion(r.Context(), vars["projectId"], vars["suggestionId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

// ApplySuggestionRequest represents the request to apply a suggestion
type ApplySuggestionRequest struct {
	// Override applies the suggestion despite sanitizer blockers.
	Override bool `json:"override"`
}

// ApplySuggestion handles POST /v1/projects/{projectId}/suggestions/{suggestionId}/apply.
// The suggestion code is merged into the latest script and committed as
// a new AI-origin version. Blocked suggestions require override.
func (h *ScriptHandler) ApplySuggestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	projectID, suggestionID := vars["projectId"], vars["suggestionId"]

	var req ApplySuggestionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sg, err := h.suggestions.GetSuggestion(r.Context(), projectID, suggestionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if sg.Applied {
		writeError(w, apperrors.Conflict("suggestion %s already applied", suggestionID))
		return
	}
	if sg.Scan != nil && !sg.Scan.Safe && !req.Override {
		writeError(w, apperrors.Security("suggestion %s has %d blocker finding(s); set override to apply anyway",
			suggestionID, len(sg.Scan.Blockers)))
		return
	}

	current := ""
	if latest, err := h.scripts.Latest(r.Context(), projectID); err == nil {
		current = latest.Script
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		writeError(w, err)
		return
	}

	merged := diffmerge.Merge(current, sg.Code)
	sv, err := h.scripts.Commit(r.Context(), projectID, merged, models.OriginAI)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.suggestions.MarkSuggestionApplied(r.Context(), projectID, suggestionID, sv.Version); err != nil {
		writeError(w, err)
		return
	}

	h.advanceToScriptStep(r, projectID)
	h.log.Info("suggestion applied",
		zap.String("project_id", projectID),
		zap.String("suggestion_id", suggestionID),
		zap.Int("version", sv.Version),
		zap.Bool("override", req.Override))
	writeJSON(w, http.StatusCreated, sv)
}

// advanceToScriptStep moves the workflow onto the script step after a
// commit. A workflow already past that step is left alone.
func (h *ScriptHandler) advanceToScriptStep(r *http.Request, projectID string) {
	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		return
	}
	ws, err := workflow.AdvanceTo(p.Workflow, models.StepScript)
	if err != nil {
		return
	}
	if err := h.projects.UpdateWorkflow(r.Context(), projectID, ws); err != nil {
		h.log.Error("advance workflow", zap.String("project_id", projectID), zap.Error(err))
	}
}
