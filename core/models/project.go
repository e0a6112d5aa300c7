package models

import "time"

// Project represents one AutoML project owned by a single user
type Project struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	Tier          Tier          `json:"tier"`
	Script        string        `json:"script,omitempty"` // current script text (head of version history)
	ScriptVersion int           `json:"script_version"`   // current script version number, 0 until first commit
	Workflow      WorkflowState `json:"workflow"`
	Dataset       *Dataset      `json:"dataset,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Tier represents the subscription tier of a project owner
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// WorkflowStep is one of the seven ordered pipeline steps
type WorkflowStep int

const (
	StepUpload   WorkflowStep = 1
	StepSchema   WorkflowStep = 2
	StepConfig   WorkflowStep = 3
	StepScript   WorkflowStep = 4
	StepTraining WorkflowStep = 5
	StepComplete WorkflowStep = 6
	StepDeployed WorkflowStep = 7
)

// Name returns the canonical name of a workflow step
func (s WorkflowStep) Name() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepSchema:
		return "schema"
	case StepConfig:
		return "config"
	case StepScript:
		return "script"
	case StepTraining:
		return "training"
	case StepComplete:
		return "complete"
	case StepDeployed:
		return "deployed"
	}
	return "unknown"
}

// WorkflowStage is the coarse pipeline stage derived from the step
type WorkflowStage string

const (
	StageUpload     WorkflowStage = "upload"
	StageProcessing WorkflowStage = "processing"
	StageTraining   WorkflowStage = "training"
	StageReady      WorkflowStage = "ready"
	StageError      WorkflowStage = "error"
)

// WorkflowStatus represents the outcome of the current workflow step
type WorkflowStatus string

const (
	WorkflowPending WorkflowStatus = "pending"
	WorkflowSuccess WorkflowStatus = "success"
	WorkflowError   WorkflowStatus = "error"
)

// WorkflowState tracks a project's progress through the pipeline.
// Step is nil only when Status is error before any step was reached.
type WorkflowState struct {
	Step          *WorkflowStep  `json:"step,omitempty"`
	Status        WorkflowStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	DatasetReused bool           `json:"dataset_reused,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ColumnType is the inferred type of a dataset column
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
	ColumnDatetime    ColumnType = "datetime"
)

// Column describes one dataset column
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Dataset represents an uploaded dataset. Immutable once attached to a
// project version; replacing it starts a new VersionID.
type Dataset struct {
	VersionID   string    `json:"version_id"`
	Filename    string    `json:"filename"`
	Columns     []Column  `json:"columns"`
	RowCount    int       `json:"row_count"`
	ContentHash string    `json:"content_hash"` // sha256 of raw content, used for upload dedup
	StorageURI  string    `json:"storage_uri,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FeatureColumns returns the column names of a dataset
func (d *Dataset) FeatureColumns() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}
