// Package workflow implements the seven-step pipeline state machine a
// project passes through from dataset upload to deployment. The machine
// does not decide when to advance; it is driven by explicit calls from
// the components whose work completed.
package workflow

import (
	"time"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// Outcome is the result of the work behind a step transition
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// New returns the initial workflow state for a fresh project
func New() models.WorkflowState {
	step := models.StepUpload
	return models.WorkflowState{
		Step:      &step,
		Status:    models.WorkflowPending,
		UpdatedAt: time.Now(),
	}
}

// Advance moves the workflow one step forward on success, or freezes the
// current step with an error status and message otherwise. Step values
// never decrease while the status is success.
func Advance(ws models.WorkflowState, outcome Outcome, errMsg string) (models.WorkflowState, error) {
	if outcome == OutcomeError {
		return Fail(ws, errMsg), nil
	}

	if ws.Step == nil {
		return ws, apperrors.Validation("workflow has no current step")
	}
	current := *ws.Step
	if current >= models.StepDeployed {
		return ws, apperrors.Validation("workflow already at final step %d", current)
	}

	next := current + 1
	ws.Step = &next
	ws.Status = models.WorkflowSuccess
	ws.Error = ""
	ws.UpdatedAt = time.Now()
	return ws, nil
}

// AdvanceTo moves the workflow forward to a specific step. Moving
// backwards is rejected; the caller resets instead.
func AdvanceTo(ws models.WorkflowState, step models.WorkflowStep) (models.WorkflowState, error) {
	if step < models.StepUpload || step > models.StepDeployed {
		return ws, apperrors.Validation("invalid workflow step %d", step)
	}
	if ws.Step != nil && step < *ws.Step {
		return ws, apperrors.Conflict("workflow step cannot move backwards (%d -> %d)", *ws.Step, step)
	}
	ws.Step = &step
	ws.Status = models.WorkflowSuccess
	ws.Error = ""
	ws.UpdatedAt = time.Now()
	return ws, nil
}

// Fail freezes the workflow at its current step with an error message
func Fail(ws models.WorkflowState, msg string) models.WorkflowState {
	ws.Status = models.WorkflowError
	ws.Error = msg
	ws.UpdatedAt = time.Now()
	return ws
}

// Reset returns the workflow to step 1. Dataset-derived fields are
// cleared by the caller; script history is untouched.
func Reset(ws models.WorkflowState) models.WorkflowState {
	step := models.StepUpload
	ws.Step = &step
	ws.Status = models.WorkflowPending
	ws.Error = ""
	ws.DatasetReused = false
	ws.UpdatedAt = time.Now()
	return ws
}

// Stage derives the coarse pipeline stage from the workflow state, so
// the two can never disagree.
func Stage(ws models.WorkflowState) models.WorkflowStage {
	if ws.Status == models.WorkflowError {
		return models.StageError
	}
	if ws.Step == nil {
		return models.StageUpload
	}
	switch *ws.Step {
	case models.StepUpload:
		return models.StageUpload
	case models.StepSchema, models.StepConfig, models.StepScript:
		return models.StageProcessing
	case models.StepTraining:
		return models.StageTraining
	default:
		return models.StageReady
	}
}
