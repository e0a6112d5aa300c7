package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject creates a new project
func (r *ProjectRepository) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (
			id, user_id, name, tier, script, script_version,
			workflow_step, workflow_status, workflow_error, dataset_reused,
			workflow_updated_at, dataset_json, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	datasetJSON, err := marshalDataset(p.Dataset)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Tier,
		p.Script,
		p.ScriptVersion,
		stepValue(p.Workflow.Step),
		p.Workflow.Status,
		p.Workflow.Error,
		p.Workflow.DatasetReused,
		p.Workflow.UpdatedAt,
		datasetJSON,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("project %s already exists", p.ID)
		}
		return err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := `
		SELECT id, user_id, name, tier, script, script_version,
			workflow_step, workflow_status, workflow_error, dataset_reused,
			workflow_updated_at, dataset_json, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var p models.Project
	var step sql.NullInt64
	var datasetJSON sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Tier,
		&p.Script,
		&p.ScriptVersion,
		&step,
		&p.Workflow.Status,
		&p.Workflow.Error,
		&p.Workflow.DatasetReused,
		&p.Workflow.UpdatedAt,
		&datasetJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("project %s", id)
	}
	if err != nil {
		return nil, err
	}

	if step.Valid {
		s := models.WorkflowStep(step.Int64)
		p.Workflow.Step = &s
	}
	if datasetJSON.Valid && datasetJSON.String != "" {
		var ds models.Dataset
		if err := json.Unmarshal([]byte(datasetJSON.String), &ds); err == nil {
			p.Dataset = &ds
		}
	}
	return &p, nil
}

// UpdateWorkflow stores the workflow state of a project
func (r *ProjectRepository) UpdateWorkflow(ctx context.Context, projectID string, ws models.WorkflowState) error {
	query := `
		UPDATE projects
		SET workflow_step = $1, workflow_status = $2, workflow_error = $3,
			dataset_reused = $4, workflow_updated_at = $5, updated_at = NOW()
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		stepValue(ws.Step), ws.Status, ws.Error, ws.DatasetReused, ws.UpdatedAt, projectID)
	if err != nil {
		return err
	}
	return requireRow(res, "project %s", projectID)
}

// SetDataset attaches a dataset version to a project; nil detaches
func (r *ProjectRepository) SetDataset(ctx context.Context, projectID string, ds *models.Dataset) error {
	datasetJSON, err := marshalDataset(ds)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET dataset_json = $1, updated_at = NOW() WHERE id = $2`,
		datasetJSON, projectID)
	if err != nil {
		return err
	}
	return requireRow(res, "project %s", projectID)
}

// UpdateScriptHead records the current script text and version
func (r *ProjectRepository) UpdateScriptHead(ctx context.Context, projectID string, version int, text string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET script = $1, script_version = $2, updated_at = NOW() WHERE id = $3`,
		text, version, projectID)
	if err != nil {
		return err
	}
	return requireRow(res, "project %s", projectID)
}

func marshalDataset(ds *models.Dataset) (interface{}, error) {
	if ds == nil {
		return nil, nil
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func stepValue(step *models.WorkflowStep) interface{} {
	if step == nil {
		return nil
	}
	return int(*step)
}

func requireRow(res sql.Result, format string, args ...interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound(format, args...)
	}
	return nil
}
