package models

import "time"

// Visibility controls who can see a deployed model
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ModelRecord is an immutable deployable record produced by promoting a
// succeeded job together with the script version that trained it.
type ModelRecord struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	JobID            string     `json:"job_id"`
	ScriptVersion    int        `json:"script_version"`
	DatasetVersionID string     `json:"dataset_version_id"`
	Metrics          Metrics    `json:"metrics"`
	FeatureColumns   []string   `json:"feature_columns"`
	Visibility       Visibility `json:"visibility"`
	CreatedAt        time.Time  `json:"created_at"`
}
