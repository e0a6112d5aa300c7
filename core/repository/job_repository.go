package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// JobRepository handles database operations for jobs, their logs and
// transition events
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `
	id, project_id, script_version, dataset_version_id, external_id,
	status, machine_type, tier, task_type, max_hours, hourly_cost,
	estimated_cost, actual_cost, failure_reason, log_seq, metrics_json,
	created_at, started_at, completed_at, updated_at`

// CreateJob creates a new job. The partial unique index on active
// statuses makes the single-active-job-per-project rule atomic at
// insert time.
func (r *JobRepository) CreateJob(ctx context.Context, j *models.Job) error {
	query := `
		INSERT INTO jobs (
			id, project_id, script_version, dataset_version_id, external_id,
			status, machine_type, tier, task_type, max_hours, hourly_cost,
			estimated_cost, actual_cost, failure_reason, log_seq, metrics_json,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
	`

	metricsJSON, err := marshalMetrics(j.Metrics)
	if err != nil {
		return err
	}

	now := time.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	_, err = r.db.ExecContext(ctx, query,
		j.ID,
		j.ProjectID,
		j.ScriptVersion,
		j.DatasetVersionID,
		j.ExternalID,
		j.Status,
		j.MachineType,
		j.Tier,
		j.TaskType,
		j.MaxHours,
		j.HourlyCost,
		j.EstimatedCost,
		j.ActualCost,
		j.FailureReason,
		j.LogSeq,
		metricsJSON,
		j.CreatedAt,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("an active training job already exists for project %s", j.ProjectID)
		}
		return err
	}
	j.UpdatedAt = now

	return r.createJobEvent(ctx, j.ID, nil, j.Status, "job_created")
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("job %s", jobID)
	}
	return job, err
}

// ActiveJob returns the project's active job, or nil when none exists
func (r *JobRepository) ActiveJob(ctx context.Context, projectID string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+jobColumns+`
		FROM jobs
		WHERE project_id = $1 AND status IN ('pending', 'provisioning', 'running')
	`, projectID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// UpdateJobStatus transitions a job and appends the matching event in
// one transaction. The from-status guard rejects stale transitions.
func (r *JobRepository) UpdateJobStatus(ctx context.Context, jobID string, from, to models.JobStatus, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE jobs
		SET status = $1,
			failure_reason = CASE WHEN $1 = 'failed' AND $2 <> '' THEN $2 ELSE failure_reason END,
			started_at = CASE WHEN $1 = 'running' AND started_at IS NULL THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $1 IN ('succeeded', 'failed') AND completed_at IS NULL THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	res, err := tx.ExecContext(ctx, query, to, reason, jobID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Conflict("job %s is not in status %s", jobID, from)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_events (job_id, from_status, to_status, reason)
		VALUES ($1, $2, $3, $4)
	`, jobID, string(from), to, reason)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SetJobExternalID records the id the execution system assigned
func (r *JobRepository) SetJobExternalID(ctx context.Context, jobID, externalID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET external_id = $1, updated_at = NOW() WHERE id = $2`,
		externalID, jobID)
	if err != nil {
		return err
	}
	return requireRow(res, "job %s", jobID)
}

// SetJobCosts updates the advisory and post-hoc cost figures
func (r *JobRepository) SetJobCosts(ctx context.Context, jobID string, estimated *float64, hourly float64, actual *float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET estimated_cost = COALESCE($1, estimated_cost),
			hourly_cost = CASE WHEN $2 > 0 THEN $2 ELSE hourly_cost END,
			actual_cost = COALESCE($3, actual_cost),
			updated_at = NOW()
		WHERE id = $4
	`, estimated, hourly, actual, jobID)
	if err != nil {
		return err
	}
	return requireRow(res, "job %s", jobID)
}

// SetJobMetrics stores the reported training metrics
func (r *JobRepository) SetJobMetrics(ctx context.Context, jobID string, m *models.Metrics) error {
	metricsJSON, err := marshalMetrics(m)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET metrics_json = $1, updated_at = NOW() WHERE id = $2`,
		metricsJSON, jobID)
	if err != nil {
		return err
	}
	return requireRow(res, "job %s", jobID)
}

// AppendLogs appends a log delta under its sequence token. The job row
// is locked so a duplicate delivery and a fresh delta serialize; stale
// tokens are dropped without touching the log.
func (r *JobRepository) AppendLogs(ctx context.Context, jobID string, seq int64, lines []string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var lastSeq int64
	err = tx.QueryRowContext(ctx,
		`SELECT log_seq FROM jobs WHERE id = $1 FOR UPDATE`, jobID).Scan(&lastSeq)
	if err == sql.ErrNoRows {
		return false, apperrors.NotFound("job %s", jobID)
	}
	if err != nil {
		return false, err
	}
	if seq <= lastSeq {
		return false, tx.Commit()
	}

	for i, line := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO job_logs (job_id, seq, ordinal, line) VALUES ($1, $2, $3, $4)
		`, jobID, seq, i, line)
		if err != nil {
			return false, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET log_seq = $1, updated_at = NOW() WHERE id = $2`, seq, jobID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// GetLogs returns a job's log lines in append order
func (r *JobRepository) GetLogs(ctx context.Context, jobID string) ([]models.LogLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, line, at FROM job_logs
		WHERE job_id = $1
		ORDER BY seq, ordinal
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.LogLine
	for rows.Next() {
		var l models.LogLine
		if err := rows.Scan(&l.Seq, &l.Line, &l.At); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListJobEvents retrieves the most recent events for a job
func (r *JobRepository) ListJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, at, from_status, to_status, reason
		FROM job_events
		WHERE job_id = $1
		ORDER BY at DESC
		LIMIT $2
	`, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.JobEvent
	for rows.Next() {
		var ev models.JobEvent
		var fromStatus sql.NullString
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.At, &fromStatus, &ev.ToStatus, &ev.Reason); err != nil {
			return nil, err
		}
		if fromStatus.Valid {
			status := models.JobStatus(fromStatus.String)
			ev.FromStatus = &status
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *JobRepository) createJobEvent(ctx context.Context, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string) error {
	var from interface{}
	if fromStatus != nil {
		from = string(*fromStatus)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_events (job_id, from_status, to_status, reason)
		VALUES ($1, $2, $3, $4)
	`, jobID, from, toStatus, reason)
	return err
}

func marshalMetrics(m *models.Metrics) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func scanJob(row *sql.Row) (*models.Job, error) {
	var j models.Job
	var startedAt, completedAt sql.NullTime
	var estimated, actual sql.NullFloat64
	var metricsJSON sql.NullString

	err := row.Scan(
		&j.ID,
		&j.ProjectID,
		&j.ScriptVersion,
		&j.DatasetVersionID,
		&j.ExternalID,
		&j.Status,
		&j.MachineType,
		&j.Tier,
		&j.TaskType,
		&j.MaxHours,
		&j.HourlyCost,
		&estimated,
		&actual,
		&j.FailureReason,
		&j.LogSeq,
		&metricsJSON,
		&j.CreatedAt,
		&startedAt,
		&completedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		j.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		j.CompletedAt = &completedAt.Time
	}
	if estimated.Valid {
		j.EstimatedCost = &estimated.Float64
	}
	if actual.Valid {
		j.ActualCost = &actual.Float64
	}
	if metricsJSON.Valid && metricsJSON.String != "" {
		var m models.Metrics
		if err := json.Unmarshal([]byte(metricsJSON.String), &m); err == nil {
			j.Metrics = &m
		}
	}
	return &j, nil
}
