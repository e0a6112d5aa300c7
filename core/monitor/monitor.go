// Package monitor supervises remote training jobs: submission under
// cost policy, status/log callbacks from the execution system, and
// cooperative cancellation. One job per project may be active; the
// store enforces that atomically at submit time.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/events"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/policy"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/runner"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/workflow"
)

// legal job status transitions; the only permitted skips are straight
// to failed before the job ever runs
var allowedTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusPending:      {models.JobStatusProvisioning, models.JobStatusFailed},
	models.JobStatusProvisioning: {models.JobStatusRunning, models.JobStatusFailed},
	models.JobStatusRunning:      {models.JobStatusSucceeded, models.JobStatusFailed},
}

// Monitor supervises one active job per project
type Monitor struct {
	jobs     storage.JobStore
	projects storage.ProjectStore
	scripts  storage.ScriptStore
	enforcer *policy.Enforcer
	bus      *events.Bus
	log      *zap.Logger

	run runner.Runner

	mu            sync.Mutex
	jobLocks      map[string]*sync.Mutex
	cancelPending map[string]bool
}

// NewMonitor creates a job monitor. The runner is attached afterwards
// via SetRunner because a local runner needs the monitor as its sink.
func NewMonitor(
	jobs storage.JobStore,
	projects storage.ProjectStore,
	scripts storage.ScriptStore,
	enforcer *policy.Enforcer,
	bus *events.Bus,
	log *zap.Logger,
) *Monitor {
	return &Monitor{
		jobs:          jobs,
		projects:      projects,
		scripts:       scripts,
		enforcer:      enforcer,
		bus:           bus,
		log:           log,
		jobLocks:      make(map[string]*sync.Mutex),
		cancelPending: make(map[string]bool),
	}
}

// SetRunner attaches the execution backend
func (m *Monitor) SetRunner(r runner.Runner) { m.run = r }

// Submit creates and hands off a training job for the given script
// version. It fails with a conflict when an active job exists, and
// with a validation error when the tier policy rejects the request;
// a job created before a validation failure is marked failed, its
// number is not reused.
func (m *Monitor) Submit(ctx context.Context, projectID string, scriptVersion int, machineType string, maxHours float64, taskType models.TaskType) (*models.Job, error) {
	project, err := m.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Dataset == nil {
		return nil, apperrors.Validation("project %s has no dataset attached", projectID)
	}

	script, err := m.scripts.GetScript(ctx, projectID, scriptVersion)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:               uuid.New().String(),
		ProjectID:        projectID,
		ScriptVersion:    script.Version,
		DatasetVersionID: project.Dataset.VersionID,
		Status:           models.JobStatusPending,
		MachineType:      machineType,
		Tier:             project.Tier,
		TaskType:         taskType,
		MaxHours:         maxHours,
		CreatedAt:        time.Now(),
	}
	if err := m.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	estimate, err := m.enforcer.Estimate(project.Tier, machineType, maxHours)
	if err != nil {
		m.failJob(ctx, job, models.ReasonValidationFailed, err.Error())
		return nil, err
	}
	job.HourlyCost = estimate.HourlyCost
	job.EstimatedCost = &estimate.EstimatedMaxCost
	if err := m.jobs.SetJobCosts(ctx, job.ID, &estimate.EstimatedMaxCost, estimate.HourlyCost, nil); err != nil {
		return nil, err
	}

	externalID, err := m.run.SubmitJob(ctx, runner.Spec{
		JobID:       job.ID,
		MachineType: machineType,
		Script:      script.Script,
		DatasetURI:  project.Dataset.StorageURI,
		MaxHours:    maxHours,
	})
	if err != nil {
		m.failJob(ctx, job, models.ReasonInfraFailure, "job handoff failed")
		return nil, apperrors.Wrap(apperrors.KindExternal, err, "submit job to execution system")
	}

	if err := m.jobs.SetJobExternalID(ctx, job.ID, externalID); err != nil {
		return nil, err
	}
	if err := m.jobs.UpdateJobStatus(ctx, job.ID, models.JobStatusPending, models.JobStatusProvisioning, "handed_off"); err != nil {
		return nil, err
	}
	job.ExternalID = externalID
	job.Status = models.JobStatusProvisioning

	if err := m.advanceWorkflowTo(ctx, projectID, models.StepTraining); err != nil {
		m.log.Warn("workflow not advanced to training", zap.String("project_id", projectID), zap.Error(err))
	}

	m.publishStatus(job.ProjectID, job.ID, models.JobStatusProvisioning)
	m.log.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("project_id", projectID),
		zap.String("machine_type", machineType),
		zap.Float64("estimated_max_cost", estimate.EstimatedMaxCost))
	return job, nil
}

// OnStatusUpdate applies one callback from the execution system. Log
// deltas are appended idempotently (stale sequence tokens are dropped),
// and updates arriving after a terminal state are discarded entirely.
// Safe to call concurrently with Cancel; the two serialize per job.
func (m *Monitor) OnStatusUpdate(ctx context.Context, upd runner.StatusUpdate) error {
	lock := m.lockFor(upd.JobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.jobs.GetJob(ctx, upd.JobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		m.log.Debug("discarding update for terminal job",
			zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
		return nil
	}

	cancelling := m.isCancelPending(job.ID)

	if len(upd.Logs) > 0 {
		applied, err := m.jobs.AppendLogs(ctx, job.ID, upd.Seq, upd.Logs)
		if err != nil {
			return err
		}
		if applied {
			m.bus.Publish(events.JobTopic(job.ID), events.Event{
				Type:      events.TypeJobLogsAppended,
				ProjectID: job.ProjectID,
				JobID:     job.ID,
				Payload:   upd.Logs,
			})
		}
	}

	if upd.Metrics != nil {
		if err := m.jobs.SetJobMetrics(ctx, job.ID, upd.Metrics); err != nil {
			return err
		}
	}

	if upd.Status == "" || upd.Status == job.Status {
		return nil
	}

	// While a cancel awaits confirmation the job holds its pre-cancel
	// status; only the terminal confirmation moves it.
	if cancelling && !upd.Status.Terminal() {
		m.log.Debug("discarding progress update while cancel pending",
			zap.String("job_id", job.ID), zap.String("status", string(upd.Status)))
		return nil
	}

	if !transitionAllowed(job.Status, upd.Status) {
		return apperrors.Conflict("job %s cannot move %s -> %s", job.ID, job.Status, upd.Status)
	}

	reason := upd.Reason
	switch upd.Status {
	case models.JobStatusSucceeded:
		if reason == "" {
			reason = "training_complete"
		}
	case models.JobStatusFailed:
		if cancelling {
			reason = models.ReasonUserCancelled
		} else if reason == "" {
			reason = models.ReasonInfraFailure
		}
	}

	if err := m.jobs.UpdateJobStatus(ctx, job.ID, job.Status, upd.Status, reason); err != nil {
		return err
	}
	if upd.Status.Terminal() {
		m.clearCancelPending(job.ID)
		if upd.RuntimeHours > 0 && job.HourlyCost > 0 {
			actual := job.HourlyCost * upd.RuntimeHours
			if err := m.jobs.SetJobCosts(ctx, job.ID, nil, 0, &actual); err != nil {
				m.log.Warn("actual cost not recorded", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}

	switch upd.Status {
	case models.JobStatusSucceeded:
		if err := m.advanceWorkflowTo(ctx, job.ProjectID, models.StepComplete); err != nil {
			m.log.Warn("workflow not advanced to complete",
				zap.String("project_id", job.ProjectID), zap.Error(err))
		}
	case models.JobStatusFailed:
		m.failWorkflow(ctx, job.ProjectID, "training job failed: "+reason)
	}

	m.publishStatus(job.ProjectID, job.ID, upd.Status)
	m.log.Info("job status updated",
		zap.String("job_id", job.ID),
		zap.String("from", string(job.Status)),
		zap.String("to", string(upd.Status)),
		zap.String("reason", reason))
	return nil
}

// Cancel requests cancellation of a job. The job keeps its current
// status until the execution system confirms, at which point it is
// forced to failed with reason user_cancelled. A job that was never
// handed off is failed immediately.
func (m *Monitor) Cancel(ctx context.Context, jobID string) error {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return apperrors.Conflict("job %s already finished with status %s", jobID, job.Status)
	}

	m.setCancelPending(jobID)

	if job.ExternalID == "" {
		// Never reached the execution system; nothing to wait for.
		if err := m.jobs.UpdateJobStatus(ctx, jobID, job.Status, models.JobStatusFailed, models.ReasonUserCancelled); err != nil {
			return err
		}
		m.clearCancelPending(jobID)
		m.failWorkflow(ctx, job.ProjectID, "training cancelled by user")
		m.publishStatus(job.ProjectID, jobID, models.JobStatusFailed)
		return nil
	}

	if err := m.run.CancelJob(ctx, job.ExternalID); err != nil {
		return apperrors.Wrap(apperrors.KindExternal, err, "cancel job on execution system")
	}
	m.log.Info("cancel requested", zap.String("job_id", jobID))
	return nil
}

func (m *Monitor) failJob(ctx context.Context, job *models.Job, reason, msg string) {
	if err := m.jobs.UpdateJobStatus(ctx, job.ID, job.Status, models.JobStatusFailed, reason); err != nil {
		m.log.Error("job not marked failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	job.Status = models.JobStatusFailed
	m.failWorkflow(ctx, job.ProjectID, msg)
	m.publishStatus(job.ProjectID, job.ID, models.JobStatusFailed)
}

func (m *Monitor) advanceWorkflowTo(ctx context.Context, projectID string, step models.WorkflowStep) error {
	project, err := m.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	ws, err := workflow.AdvanceTo(project.Workflow, step)
	if err != nil {
		return err
	}
	if err := m.projects.UpdateWorkflow(ctx, projectID, ws); err != nil {
		return err
	}
	m.bus.Publish(events.ProjectTopic(projectID), events.Event{
		Type:      events.TypeWorkflowAdvanced,
		ProjectID: projectID,
		Payload:   step.Name(),
	})
	return nil
}

func (m *Monitor) failWorkflow(ctx context.Context, projectID, msg string) {
	project, err := m.projects.GetProject(ctx, projectID)
	if err != nil {
		m.log.Error("workflow not failed", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	ws := workflow.Fail(project.Workflow, msg)
	if err := m.projects.UpdateWorkflow(ctx, projectID, ws); err != nil {
		m.log.Error("workflow not failed", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	m.bus.Publish(events.ProjectTopic(projectID), events.Event{
		Type:      events.TypeWorkflowFailed,
		ProjectID: projectID,
		Payload:   msg,
	})
}

func (m *Monitor) publishStatus(projectID, jobID string, status models.JobStatus) {
	ev := events.Event{
		Type:      events.TypeJobStatusChanged,
		ProjectID: projectID,
		JobID:     jobID,
		Payload:   string(status),
	}
	m.bus.Publish(events.JobTopic(jobID), ev)
	m.bus.Publish(events.ProjectTopic(projectID), ev)
}

func (m *Monitor) lockFor(jobID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.jobLocks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		m.jobLocks[jobID] = lock
	}
	return lock
}

func (m *Monitor) isCancelPending(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelPending[jobID]
}

func (m *Monitor) setCancelPending(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelPending[jobID] = true
}

func (m *Monitor) clearCancelPending(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancelPending, jobID)
}

func transitionAllowed(from, to models.JobStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
