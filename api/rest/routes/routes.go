package routes

import (
	"github.com/gorilla/mux"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/api/rest/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	projectHandler *handlers.ProjectHandler,
	scriptHandler *handlers.ScriptHandler,
	jobHandler *handlers.JobHandler,
	modelHandler *handlers.ModelHandler,
) {
	api := r.PathPrefix("/v1").Subrouter()

	// Project and workflow endpoints
	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.GetProject).Methods("GET")
	api.HandleFunc("/projects/{projectId}/workflow", projectHandler.GetWorkflow).Methods("GET")
	api.HandleFunc("/projects/{projectId}/workflow/reset", projectHandler.ResetWorkflow).Methods("POST")
	api.HandleFunc("/projects/{projectId}/dataset", projectHandler.UploadDataset).Methods("POST")

	// Script version endpoints
	api.HandleFunc("/projects/{projectId}/script", scriptHandler.CommitScript).Methods("POST")
	api.HandleFunc("/projects/{projectId}/script", scriptHandler.LatestScript).Methods("GET")
	api.HandleFunc("/projects/{projectId}/script/{version}", scriptHandler.GetScript).Methods("GET")
	api.HandleFunc("/projects/{projectId}/script/{version}/diff/{other}", scriptHandler.DiffScripts).Methods("GET")

	// Suggestion endpoints
	api.HandleFunc("/projects/{projectId}/suggestions", scriptHandler.CreateSuggestion).Methods("POST")
	api.HandleFunc("/projects/{projectId}/suggestions/{suggestionId}", scriptHandler.GetSuggestion).Methods("GET")
	api.HandleFunc("/projects/{projectId}/suggestions/{suggestionId}/apply", scriptHandler.ApplySuggestion).Methods("POST")

	// Job endpoints
	api.HandleFunc("/projects/{projectId}/jobs", jobHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/projects/{projectId}/jobs/active", jobHandler.ActiveJob).Methods("GET")
	api.HandleFunc("/jobs/{jobId}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{jobId}/logs", jobHandler.GetLogs).Methods("GET")
	api.HandleFunc("/jobs/{jobId}/events", jobHandler.ListEvents).Methods("GET")
	api.HandleFunc("/jobs/{jobId}/cancel", jobHandler.CancelJob).Methods("POST")

	// Status callback from the execution system
	api.HandleFunc("/runner/callback", jobHandler.StatusCallback).Methods("POST")

	// Model endpoints
	api.HandleFunc("/projects/{projectId}/models", modelHandler.Promote).Methods("POST")
	api.HandleFunc("/models/{modelId}", modelHandler.GetModel).Methods("GET")
	api.HandleFunc("/models/{modelId}/visibility", modelHandler.SetVisibility).Methods("PUT")
}
