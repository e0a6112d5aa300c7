package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// SuggestionRepository handles database operations for AI suggestions
type SuggestionRepository struct {
	db *DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// CreateSuggestion stores a suggestion with its scan verdict
func (r *SuggestionRepository) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	var scanJSON interface{}
	if s.Scan != nil {
		data, err := json.Marshal(s.Scan)
		if err != nil {
			return err
		}
		scanJSON = string(data)
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suggestions (
			id, project_id, rationale, code, target_version,
			scan_json, summary, applied, applied_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.ProjectID, s.Rationale, s.Code, s.TargetVersion,
		scanJSON, s.Summary, s.Applied, s.AppliedVersion, s.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return apperrors.Conflict("suggestion %s already exists", s.ID)
	}
	return err
}

// GetSuggestion retrieves a suggestion by project and id
func (r *SuggestionRepository) GetSuggestion(ctx context.Context, projectID, id string) (*models.Suggestion, error) {
	var s models.Suggestion
	var scanJSON sql.NullString
	var appliedVersion sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, rationale, code, target_version,
			scan_json, summary, applied, applied_version, created_at
		FROM suggestions
		WHERE project_id = $1 AND id = $2
	`, projectID, id).Scan(
		&s.ID,
		&s.ProjectID,
		&s.Rationale,
		&s.Code,
		&s.TargetVersion,
		&scanJSON,
		&s.Summary,
		&s.Applied,
		&appliedVersion,
		&s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("suggestion %s for project %s", id, projectID)
	}
	if err != nil {
		return nil, err
	}

	if scanJSON.Valid && scanJSON.String != "" {
		var report models.ScanReport
		if err := json.Unmarshal([]byte(scanJSON.String), &report); err == nil {
			s.Scan = &report
		}
	}
	if appliedVersion.Valid {
		v := int(appliedVersion.Int64)
		s.AppliedVersion = &v
	}
	return &s, nil
}

// MarkSuggestionApplied records the script version a suggestion
// produced. A suggestion is consumed exactly once.
func (r *SuggestionRepository) MarkSuggestionApplied(ctx context.Context, projectID, id string, version int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE suggestions
		SET applied = TRUE, applied_version = $1
		WHERE project_id = $2 AND id = $3 AND applied = FALSE
	`, version, projectID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Conflict("suggestion %s already applied or missing", id)
	}
	return nil
}
