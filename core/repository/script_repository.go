package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// ScriptRepository handles database operations for script versions
type ScriptRepository struct {
	db *DB
}

// NewScriptRepository creates a new script repository
func NewScriptRepository(db *DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// CommitScript allocates the next version number for the project and
// stores the script immutably. The highest existing version row is
// locked for the duration of the transaction; two commits racing on a
// project's first version fall back to the primary-key constraint and
// surface as a conflict the caller may retry.
func (r *ScriptRepository) CommitScript(ctx context.Context, sv *models.ScriptVersion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx, `
		SELECT version FROM script_versions
		WHERE project_id = $1
		ORDER BY version DESC
		LIMIT 1
		FOR UPDATE
	`, sv.ProjectID).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	sv.Version = last + 1
	if sv.CreatedAt.IsZero() {
		sv.CreatedAt = time.Now()
	}

	var duration interface{}
	if sv.TrainingDuration != nil {
		duration = sv.TrainingDuration.Seconds()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO script_versions (
			project_id, version, script, generated_by,
			metrics_summary, training_duration_seconds, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sv.ProjectID, sv.Version, sv.Script, sv.GeneratedBy,
		sv.MetricsSummary, duration, sv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("concurrent script commit for project %s", sv.ProjectID)
		}
		return err
	}

	return tx.Commit()
}

// GetScript returns a specific script version
func (r *ScriptRepository) GetScript(ctx context.Context, projectID string, version int) (*models.ScriptVersion, error) {
	return r.scanOne(ctx, `
		SELECT project_id, version, script, generated_by,
			metrics_summary, training_duration_seconds, created_at
		FROM script_versions
		WHERE project_id = $1 AND version = $2
	`, projectID, version)
}

// LatestScript returns the highest-numbered script version
func (r *ScriptRepository) LatestScript(ctx context.Context, projectID string) (*models.ScriptVersion, error) {
	return r.scanOne(ctx, `
		SELECT project_id, version, script, generated_by,
			metrics_summary, training_duration_seconds, created_at
		FROM script_versions
		WHERE project_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, projectID)
}

func (r *ScriptRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.ScriptVersion, error) {
	var sv models.ScriptVersion
	var duration sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&sv.ProjectID,
		&sv.Version,
		&sv.Script,
		&sv.GeneratedBy,
		&sv.MetricsSummary,
		&duration,
		&sv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("script version not found")
	}
	if err != nil {
		return nil, err
	}

	if duration.Valid {
		d := time.Duration(duration.Float64 * float64(time.Second))
		sv.TrainingDuration = &d
	}
	return &sv, nil
}
