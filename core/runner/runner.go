// Package runner defines the boundary to the external job-execution
// system and a local in-process implementation for dev and tests.
package runner

import (
	"context"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// Spec is what the execution system needs to run one training job
type Spec struct {
	JobID       string
	MachineType string
	Script      string
	DatasetURI  string
	MaxHours    float64
}

// StatusUpdate is one callback from the execution system. Seq is a
// monotonically increasing sequence token per job; log deltas with a
// stale token are duplicates and must be discarded by the consumer.
type StatusUpdate struct {
	JobID        string
	Status       models.JobStatus
	Seq          int64
	Logs         []string
	Metrics      *models.Metrics
	Reason       string
	RuntimeHours float64
}

// Sink consumes status updates emitted by a runner
type Sink func(ctx context.Context, upd StatusUpdate) error

// Runner submits and cancels jobs on the external execution system.
// Cancellation is cooperative: the runner confirms by emitting a
// terminal status update, which may take arbitrary time.
type Runner interface {
	SubmitJob(ctx context.Context, spec Spec) (externalID string, err error)
	CancelJob(ctx context.Context, externalID string) error
}
