package models

import "time"

// ScriptOrigin records who produced a script version
type ScriptOrigin string

const (
	OriginUser ScriptOrigin = "user"
	OriginAI   ScriptOrigin = "ai"
)

// ScriptVersion is an immutable snapshot of a project's training script.
// Version numbers are monotonic per project, starting at 1, never reused.
type ScriptVersion struct {
	ProjectID        string         `json:"project_id"`
	Version          int            `json:"version"`
	Script           string         `json:"script"`
	GeneratedBy      ScriptOrigin   `json:"generated_by"`
	MetricsSummary   string         `json:"metrics_summary,omitempty"`
	TrainingDuration *time.Duration `json:"training_duration,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// FindingSeverity classifies a sanitizer finding
type FindingSeverity string

const (
	SeverityWarning FindingSeverity = "warning"
	SeverityBlocker FindingSeverity = "blocker"
)

// Finding is one sanitizer hit in a suggestion's code
type Finding struct {
	Rule     string          `json:"rule"`
	Severity FindingSeverity `json:"severity"`
	Line     int             `json:"line,omitempty"` // 1-based, 0 when the rule applies to the whole snippet
	Message  string          `json:"message"`
}

// ScanReport is the sanitization verdict for a suggestion
type ScanReport struct {
	Safe     bool      `json:"safe"`
	Warnings []Finding `json:"warnings,omitempty"`
	Blockers []Finding `json:"blockers,omitempty"`
}

// Suggestion is an AI-proposed code change awaiting sanitization and merge.
// Consumed exactly once: either applied into a new script version or rejected.
type Suggestion struct {
	ID             string      `json:"id"`
	ProjectID      string      `json:"project_id"`
	Rationale      string      `json:"rationale"`
	Code           string      `json:"code"`
	TargetVersion  int         `json:"target_version"` // script version the suggestion was generated against
	Scan           *ScanReport `json:"scan,omitempty"`
	Summary        string      `json:"summary,omitempty"`
	Applied        bool        `json:"applied"`
	AppliedVersion *int        `json:"applied_version,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
