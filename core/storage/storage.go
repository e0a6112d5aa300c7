// Package storage defines the store interfaces the orchestration core
// depends on. Implementations: core/repository (Postgres) and
// core/storage/memory (in-process, used in dev mode and tests).
package storage

import (
	"context"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// ProjectStore persists projects, their workflow state and dataset
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateWorkflow(ctx context.Context, projectID string, ws models.WorkflowState) error
	// SetDataset attaches a dataset version; nil detaches the current one.
	SetDataset(ctx context.Context, projectID string, ds *models.Dataset) error
	// UpdateScriptHead records the current script text and version number.
	UpdateScriptHead(ctx context.Context, projectID string, version int, text string) error
}

// ScriptStore persists immutable script versions. CommitScript assigns
// the next version number (strictly last+1, gap-free) and is the
// serialization point for concurrent commits on one project.
type ScriptStore interface {
	CommitScript(ctx context.Context, sv *models.ScriptVersion) error
	GetScript(ctx context.Context, projectID string, version int) (*models.ScriptVersion, error)
	LatestScript(ctx context.Context, projectID string) (*models.ScriptVersion, error)
}

// JobStore persists jobs, their append-only logs and transition events.
// CreateJob atomically enforces the single-active-job-per-project rule
// and returns a conflict error when another active job exists.
type JobStore interface {
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ActiveJob(ctx context.Context, projectID string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, from, to models.JobStatus, reason string) error
	SetJobExternalID(ctx context.Context, jobID, externalID string) error
	SetJobCosts(ctx context.Context, jobID string, estimated *float64, hourly float64, actual *float64) error
	SetJobMetrics(ctx context.Context, jobID string, m *models.Metrics) error
	// AppendLogs appends lines under the given sequence token. Tokens at
	// or below the last applied one are deduplicated; applied reports
	// whether the delta was new.
	AppendLogs(ctx context.Context, jobID string, seq int64, lines []string) (applied bool, err error)
	GetLogs(ctx context.Context, jobID string) ([]models.LogLine, error)
	ListJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error)
}

// SuggestionStore persists AI suggestions and their scan verdicts
type SuggestionStore interface {
	CreateSuggestion(ctx context.Context, s *models.Suggestion) error
	GetSuggestion(ctx context.Context, projectID, id string) (*models.Suggestion, error)
	MarkSuggestionApplied(ctx context.Context, projectID, id string, version int) error
}

// ModelStore persists deployable model records
type ModelStore interface {
	CreateModel(ctx context.Context, m *models.ModelRecord) error
	GetModel(ctx context.Context, id string) (*models.ModelRecord, error)
	SetModelVisibility(ctx context.Context, id string, v models.Visibility) error
}

// Store bundles every store interface for wiring convenience
type Store interface {
	ProjectStore
	ScriptStore
	JobStore
	SuggestionStore
	ModelStore
}
