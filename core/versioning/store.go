// Package versioning provides append-only, versioned storage of a
// project's training script.
package versioning

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
)

// Store commits and serves immutable script versions. Version numbers
// are strictly monotonic and gap-free per project; the underlying
// ScriptStore is the serialization point for concurrent commits.
type Store struct {
	scripts  storage.ScriptStore
	projects storage.ProjectStore
	log      *zap.Logger
}

// NewStore creates a script version store
func NewStore(scripts storage.ScriptStore, projects storage.ProjectStore, log *zap.Logger) *Store {
	return &Store{scripts: scripts, projects: projects, log: log}
}

// Commit stores text as the next version for the project and moves the
// project's script head to it. The allocated number is last+1 even
// after failed attempts; numbers are never reused.
func (s *Store) Commit(ctx context.Context, projectID, text string, generatedBy models.ScriptOrigin) (*models.ScriptVersion, error) {
	if text == "" {
		return nil, apperrors.Validation("script text is empty")
	}

	sv := &models.ScriptVersion{
		ProjectID:   projectID,
		Script:      text,
		GeneratedBy: generatedBy,
		CreatedAt:   time.Now(),
	}
	if err := s.scripts.CommitScript(ctx, sv); err != nil {
		return nil, err
	}

	if err := s.projects.UpdateScriptHead(ctx, projectID, sv.Version, text); err != nil {
		return nil, err
	}

	s.log.Info("script version committed",
		zap.String("project_id", projectID),
		zap.Int("version", sv.Version),
		zap.String("generated_by", string(generatedBy)))
	return sv, nil
}

// Get returns a specific script version
func (s *Store) Get(ctx context.Context, projectID string, version int) (*models.ScriptVersion, error) {
	return s.scripts.GetScript(ctx, projectID, version)
}

// Latest returns the highest-numbered script version
func (s *Store) Latest(ctx context.Context, projectID string) (*models.ScriptVersion, error) {
	return s.scripts.LatestScript(ctx, projectID)
}
