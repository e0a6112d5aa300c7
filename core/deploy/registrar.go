// Package deploy promotes succeeded training jobs into deployable
// model records.
package deploy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/events"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/workflow"
)

// Registrar turns a succeeded job plus its script version into an
// immutable ModelRecord
type Registrar struct {
	jobs      storage.JobStore
	projects  storage.ProjectStore
	modelRecs storage.ModelStore
	bus       *events.Bus
	log       *zap.Logger
}

// NewRegistrar creates a deployment registrar
func NewRegistrar(
	jobs storage.JobStore,
	projects storage.ProjectStore,
	modelRecs storage.ModelStore,
	bus *events.Bus,
	log *zap.Logger,
) *Registrar {
	return &Registrar{
		jobs:      jobs,
		projects:  projects,
		modelRecs: modelRecs,
		bus:       bus,
		log:       log,
	}
}

// Promote captures the job's script version, metrics and the feature
// columns of the dataset version it trained on as a deployable record.
// Only a succeeded job with metrics is eligible. Visibility defaults
// to private.
func (r *Registrar) Promote(ctx context.Context, projectID, jobID string) (*models.ModelRecord, error) {
	job, err := r.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ProjectID != projectID {
		return nil, apperrors.NotFound("job %s for project %s", jobID, projectID)
	}
	if job.Status != models.JobStatusSucceeded {
		return nil, apperrors.Validation("job %s is %s, only succeeded jobs can be promoted", jobID, job.Status)
	}
	if job.Metrics.Empty() {
		return nil, apperrors.Validation("job %s has no metrics", jobID)
	}

	project, err := r.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// The job carries the dataset version it trained on; the feature
	// list comes from that version, not from whatever is attached now.
	var features []string
	if project.Dataset != nil && project.Dataset.VersionID == job.DatasetVersionID {
		features = project.Dataset.FeatureColumns()
	}

	record := &models.ModelRecord{
		ID:               uuid.New().String(),
		ProjectID:        projectID,
		JobID:            jobID,
		ScriptVersion:    job.ScriptVersion,
		DatasetVersionID: job.DatasetVersionID,
		Metrics:          *job.Metrics,
		FeatureColumns:   features,
		Visibility:       models.VisibilityPrivate,
		CreatedAt:        time.Now(),
	}
	if err := r.modelRecs.CreateModel(ctx, record); err != nil {
		return nil, err
	}

	ws, err := workflow.AdvanceTo(project.Workflow, models.StepDeployed)
	if err == nil {
		if err := r.projects.UpdateWorkflow(ctx, projectID, ws); err != nil {
			r.log.Warn("workflow not advanced to deployed",
				zap.String("project_id", projectID), zap.Error(err))
		}
	}

	r.bus.Publish(events.ProjectTopic(projectID), events.Event{
		Type:      events.TypeModelPromoted,
		ProjectID: projectID,
		JobID:     jobID,
		Payload:   record.ID,
	})
	r.log.Info("model promoted",
		zap.String("model_id", record.ID),
		zap.String("project_id", projectID),
		zap.String("job_id", jobID),
		zap.Int("script_version", job.ScriptVersion))
	return record, nil
}

// SetVisibility flips a model's visibility. Pure metadata change; the
// underlying script and job records are untouched.
func (r *Registrar) SetVisibility(ctx context.Context, modelID string, v models.Visibility) error {
	if v != models.VisibilityPrivate && v != models.VisibilityPublic {
		return apperrors.Validation("invalid visibility %q", v)
	}
	return r.modelRecs.SetModelVisibility(ctx, modelID, v)
}
