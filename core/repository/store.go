package repository

// Store bundles the repositories into one storage.Store implementation
type Store struct {
	*ProjectRepository
	*ScriptRepository
	*JobRepository
	*SuggestionRepository
	*ModelRepository
}

// NewStore creates the full Postgres-backed store
func NewStore(db *DB) *Store {
	return &Store{
		ProjectRepository:    NewProjectRepository(db),
		ScriptRepository:     NewScriptRepository(db),
		JobRepository:        NewJobRepository(db),
		SuggestionRepository: NewSuggestionRepository(db),
		ModelRepository:      NewModelRepository(db),
	}
}
