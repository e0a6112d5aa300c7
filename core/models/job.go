package models

import "time"

// Job represents one remote training execution, bound to exactly one
// script version. At most one job per project may be active
// (pending, provisioning or running) at any time.
type Job struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	ScriptVersion    int        `json:"script_version"`
	DatasetVersionID string     `json:"dataset_version_id"`
	ExternalID       string     `json:"external_id,omitempty"` // id assigned by the external execution system
	Status           JobStatus  `json:"status"`
	MachineType      string     `json:"machine_type"`
	Tier             Tier       `json:"tier"`
	TaskType         TaskType   `json:"task_type"`
	MaxHours         float64    `json:"max_hours"`
	HourlyCost       float64    `json:"hourly_cost"`
	EstimatedCost    *float64   `json:"estimated_cost,omitempty"`
	ActualCost       *float64   `json:"actual_cost,omitempty"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	LogSeq           int64      `json:"log_seq"` // highest log sequence token applied
	Metrics          *Metrics   `json:"metrics,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusPending      JobStatus = "pending"
	JobStatusProvisioning JobStatus = "provisioning"
	JobStatusRunning      JobStatus = "running"
	JobStatusSucceeded    JobStatus = "succeeded"
	JobStatusFailed       JobStatus = "failed"
)

// Active reports whether the status counts against the
// one-active-job-per-project rule
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusProvisioning || s == JobStatusRunning
}

// Terminal reports whether the status is final
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Failure reason codes reported on failed jobs
const (
	ReasonUserCancelled    = "user_cancelled"
	ReasonValidationFailed = "validation_failed"
	ReasonInfraFailure     = "infra_failure"
	ReasonDeadlineExceeded = "deadline_exceeded"
)

// TaskType is the kind of ML task a job trains for
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskRegression     TaskType = "regression"
	TaskClustering     TaskType = "clustering"
)

// Metrics holds training metrics reported by the execution system.
// Fields for the different task types are stored side by side; a job
// normally fills only the group matching its task type.
type Metrics struct {
	TaskType  TaskType `json:"task_type,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Precision *float64 `json:"precision,omitempty"`
	Recall    *float64 `json:"recall,omitempty"`
	F1        *float64 `json:"f1,omitempty"`

	RMSE *float64 `json:"rmse,omitempty"`
	MAE  *float64 `json:"mae,omitempty"`
	R2   *float64 `json:"r2,omitempty"`

	Silhouette    *float64 `json:"silhouette,omitempty"`
	DaviesBouldin *float64 `json:"davies_bouldin,omitempty"`
}

// Empty reports whether no metric field is set
func (m *Metrics) Empty() bool {
	if m == nil {
		return true
	}
	for _, v := range []*float64{
		m.Accuracy, m.Precision, m.Recall, m.F1,
		m.RMSE, m.MAE, m.R2,
		m.Silhouette, m.DaviesBouldin,
	} {
		if v != nil {
			return false
		}
	}
	return true
}

// LogLine is one line of a job's append-only log sequence
type LogLine struct {
	Seq  int64     `json:"seq"`
	Line string    `json:"line"`
	At   time.Time `json:"at"`
}

// JobEvent represents a state transition event for a job
type JobEvent struct {
	ID         int64      `json:"id"`
	JobID      string     `json:"job_id"`
	At         time.Time  `json:"at"`
	FromStatus *JobStatus `json:"from_status,omitempty"`
	ToStatus   JobStatus  `json:"to_status"`
	Reason     string     `json:"reason,omitempty"`
}
