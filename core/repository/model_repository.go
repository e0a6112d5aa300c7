package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// ModelRepository handles database operations for deployable models
type ModelRepository struct {
	db *DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// CreateModel stores an immutable model record
func (r *ModelRepository) CreateModel(ctx context.Context, m *models.ModelRecord) error {
	metricsJSON, err := json.Marshal(m.Metrics)
	if err != nil {
		return err
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO models (
			id, project_id, job_id, script_version, dataset_version_id,
			metrics_json, feature_columns, visibility, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.ProjectID, m.JobID, m.ScriptVersion, m.DatasetVersionID,
		string(metricsJSON), pq.Array(m.FeatureColumns), m.Visibility, m.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return apperrors.Conflict("model %s already exists", m.ID)
	}
	return err
}

// GetModel retrieves a model record by id
func (r *ModelRepository) GetModel(ctx context.Context, id string) (*models.ModelRecord, error) {
	var m models.ModelRecord
	var metricsJSON string
	var features pq.StringArray

	err := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, job_id, script_version, dataset_version_id,
			metrics_json, feature_columns, visibility, created_at
		FROM models
		WHERE id = $1
	`, id).Scan(
		&m.ID,
		&m.ProjectID,
		&m.JobID,
		&m.ScriptVersion,
		&m.DatasetVersionID,
		&metricsJSON,
		&features,
		&m.Visibility,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("model %s", id)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metricsJSON), &m.Metrics); err != nil {
		return nil, err
	}
	m.FeatureColumns = []string(features)
	return &m, nil
}

// SetModelVisibility flips a model's visibility flag
func (r *ModelRepository) SetModelVisibility(ctx context.Context, id string, v models.Visibility) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE models SET visibility = $1 WHERE id = $2`, v, id)
	if err != nil {
		return err
	}
	return requireRow(res, "model %s", id)
}
