// Package memory is the in-process Store implementation. It backs the
// dev storage mode and the test suites; the locking mirrors the
// serialization the Postgres implementation gets from transactions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

type jobRecord struct {
	job    models.Job
	logs   []models.LogLine
	events []models.JobEvent
}

// Store keeps every collection in locked maps
type Store struct {
	mu          sync.Mutex
	projects    map[string]*models.Project
	scripts     map[string][]*models.ScriptVersion // projectID -> versions ordered by number
	jobs        map[string]*jobRecord              // jobID -> record
	projectJobs map[string][]string                // projectID -> jobIDs in creation order
	suggestions map[string]map[string]*models.Suggestion
	modelRecs   map[string]*models.ModelRecord
	eventSeq    int64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		projects:    make(map[string]*models.Project),
		scripts:     make(map[string][]*models.ScriptVersion),
		jobs:        make(map[string]*jobRecord),
		projectJobs: make(map[string][]string),
		suggestions: make(map[string]map[string]*models.Suggestion),
		modelRecs:   make(map[string]*models.ModelRecord),
	}
}

// --- ProjectStore ---

func (s *Store) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return apperrors.Conflict("project %s already exists", p.ID)
	}
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *Store) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, apperrors.NotFound("project %s", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdateWorkflow(_ context.Context, projectID string, ws models.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return apperrors.NotFound("project %s", projectID)
	}
	p.Workflow = ws
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetDataset(_ context.Context, projectID string, ds *models.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return apperrors.NotFound("project %s", projectID)
	}
	p.Dataset = ds
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateScriptHead(_ context.Context, projectID string, version int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return apperrors.NotFound("project %s", projectID)
	}
	p.Script = text
	p.ScriptVersion = version
	p.UpdatedAt = time.Now()
	return nil
}

// --- ScriptStore ---

func (s *Store) CommitScript(_ context.Context, sv *models.ScriptVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[sv.ProjectID]; !ok {
		return apperrors.NotFound("project %s", sv.ProjectID)
	}

	versions := s.scripts[sv.ProjectID]
	next := 1
	if n := len(versions); n > 0 {
		next = versions[n-1].Version + 1
	}
	sv.Version = next
	if sv.CreatedAt.IsZero() {
		sv.CreatedAt = time.Now()
	}

	cp := *sv
	s.scripts[sv.ProjectID] = append(versions, &cp)
	return nil
}

func (s *Store) GetScript(_ context.Context, projectID string, version int) (*models.ScriptVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sv := range s.scripts[projectID] {
		if sv.Version == version {
			cp := *sv
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("script version %d for project %s", version, projectID)
}

func (s *Store) LatestScript(_ context.Context, projectID string) (*models.ScriptVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.scripts[projectID]
	if len(versions) == 0 {
		return nil, apperrors.NotFound("no script versions for project %s", projectID)
	}
	cp := *versions[len(versions)-1]
	return &cp, nil
}

// --- JobStore ---

func (s *Store) CreateJob(_ context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[j.ProjectID]; !ok {
		return apperrors.NotFound("project %s", j.ProjectID)
	}
	for _, id := range s.projectJobs[j.ProjectID] {
		if s.jobs[id].job.Status.Active() {
			return apperrors.Conflict("an active training job already exists for project %s", j.ProjectID)
		}
	}

	now := time.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now

	rec := &jobRecord{job: *j}
	s.jobs[j.ID] = rec
	s.projectJobs[j.ProjectID] = append(s.projectJobs[j.ProjectID], j.ID)
	s.appendEventLocked(rec, nil, j.Status, "job_created")
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFound("job %s", jobID)
	}
	cp := rec.job
	return &cp, nil
}

func (s *Store) ActiveJob(_ context.Context, projectID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.projectJobs[projectID] {
		if s.jobs[id].job.Status.Active() {
			cp := s.jobs[id].job
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateJobStatus(_ context.Context, jobID string, from, to models.JobStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return apperrors.NotFound("job %s", jobID)
	}
	if rec.job.Status != from {
		return apperrors.Conflict("job %s is %s, not %s", jobID, rec.job.Status, from)
	}

	now := time.Now()
	rec.job.Status = to
	rec.job.UpdatedAt = now
	if reason != "" && to == models.JobStatusFailed {
		rec.job.FailureReason = reason
	}
	if to == models.JobStatusRunning && rec.job.StartedAt == nil {
		rec.job.StartedAt = &now
	}
	if to.Terminal() && rec.job.CompletedAt == nil {
		rec.job.CompletedAt = &now
	}
	s.appendEventLocked(rec, &from, to, reason)
	return nil
}

func (s *Store) SetJobExternalID(_ context.Context, jobID, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return apperrors.NotFound("job %s", jobID)
	}
	rec.job.ExternalID = externalID
	rec.job.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetJobCosts(_ context.Context, jobID string, estimated *float64, hourly float64, actual *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return apperrors.NotFound("job %s", jobID)
	}
	if estimated != nil {
		v := *estimated
		rec.job.EstimatedCost = &v
	}
	if hourly > 0 {
		rec.job.HourlyCost = hourly
	}
	if actual != nil {
		v := *actual
		rec.job.ActualCost = &v
	}
	rec.job.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetJobMetrics(_ context.Context, jobID string, m *models.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return apperrors.NotFound("job %s", jobID)
	}
	if m != nil {
		cp := *m
		rec.job.Metrics = &cp
	}
	rec.job.UpdatedAt = time.Now()
	return nil
}

func (s *Store) AppendLogs(_ context.Context, jobID string, seq int64, lines []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return false, apperrors.NotFound("job %s", jobID)
	}
	if seq <= rec.job.LogSeq {
		return false, nil
	}

	now := time.Now()
	for _, line := range lines {
		rec.logs = append(rec.logs, models.LogLine{Seq: seq, Line: line, At: now})
	}
	rec.job.LogSeq = seq
	rec.job.UpdatedAt = now
	return true, nil
}

func (s *Store) GetLogs(_ context.Context, jobID string) ([]models.LogLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFound("job %s", jobID)
	}
	out := make([]models.LogLine, len(rec.logs))
	copy(out, rec.logs)
	return out, nil
}

func (s *Store) ListJobEvents(_ context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFound("job %s", jobID)
	}

	out := make([]models.JobEvent, len(rec.events))
	copy(out, rec.events)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) appendEventLocked(rec *jobRecord, from *models.JobStatus, to models.JobStatus, reason string) {
	s.eventSeq++
	var fromCopy *models.JobStatus
	if from != nil {
		f := *from
		fromCopy = &f
	}
	rec.events = append(rec.events, models.JobEvent{
		ID:         s.eventSeq,
		JobID:      rec.job.ID,
		At:         time.Now(),
		FromStatus: fromCopy,
		ToStatus:   to,
		Reason:     reason,
	})
}

// --- SuggestionStore ---

func (s *Store) CreateSuggestion(_ context.Context, sg *models.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[sg.ProjectID]; !ok {
		return apperrors.NotFound("project %s", sg.ProjectID)
	}
	if s.suggestions[sg.ProjectID] == nil {
		s.suggestions[sg.ProjectID] = make(map[string]*models.Suggestion)
	}
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = time.Now()
	}
	cp := *sg
	s.suggestions[sg.ProjectID][sg.ID] = &cp
	return nil
}

func (s *Store) GetSuggestion(_ context.Context, projectID, id string) (*models.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.suggestions[projectID][id]
	if !ok {
		return nil, apperrors.NotFound("suggestion %s for project %s", id, projectID)
	}
	cp := *sg
	return &cp, nil
}

func (s *Store) MarkSuggestionApplied(_ context.Context, projectID, id string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.suggestions[projectID][id]
	if !ok {
		return apperrors.NotFound("suggestion %s for project %s", id, projectID)
	}
	if sg.Applied {
		return apperrors.Conflict("suggestion %s already applied", id)
	}
	sg.Applied = true
	sg.AppliedVersion = &version
	return nil
}

// --- ModelStore ---

func (s *Store) CreateModel(_ context.Context, m *models.ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.modelRecs[m.ID]; ok {
		return apperrors.Conflict("model %s already exists", m.ID)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cp := *m
	s.modelRecs[m.ID] = &cp
	return nil
}

func (s *Store) GetModel(_ context.Context, id string) (*models.ModelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modelRecs[id]
	if !ok {
		return nil, apperrors.NotFound("model %s", id)
	}
	cp := *m
	return &cp, nil
}

func (s *Store) SetModelVisibility(_ context.Context, id string, v models.Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modelRecs[id]
	if !ok {
		return apperrors.NotFound("model %s", id)
	}
	m.Visibility = v
	return nil
}
