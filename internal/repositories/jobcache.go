package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"vidx/internal/models"
)

// JobCacheRepository stores the last-seen snapshot of each job.
//
// The poller mirrors poll responses here best-effort; readers treat the
// contents as possibly stale.
type JobCacheRepository struct {
	db *sql.DB
}

// NewJobCacheRepository creates a JobCacheRepository with the given database connection
func NewJobCacheRepository(db *sql.DB) *JobCacheRepository {
	return &JobCacheRepository{db: db}
}

// Upsert inserts or replaces the snapshot for job.ID.
func (r *JobCacheRepository) Upsert(job models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}

	query := `
		INSERT INTO job_cache (id, status, video_path, progress, current_stage, current_stage_details, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, video_path = excluded.video_path,
			progress = excluded.progress, current_stage = excluded.current_stage,
			current_stage_details = excluded.current_stage_details, error = excluded.error,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, job.ID, string(job.Status), job.VideoPath, job.Progress,
		job.CurrentStage, job.CurrentStageDetails, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert job snapshot: %w", err)
	}

	return nil
}

// Get retrieves a cached snapshot by job id.
func (r *JobCacheRepository) Get(id string) (*models.Job, error) {
	query := `
		SELECT id, status, video_path, progress, current_stage, current_stage_details, error, created_at, updated_at
		FROM job_cache WHERE id = ?
	`

	job, err := scanJob(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job not cached: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job snapshot: %w", err)
	}

	return job, nil
}

// List retrieves all cached snapshots, most recently created first.
func (r *JobCacheRepository) List() ([]models.Job, error) {
	query := `
		SELECT id, status, video_path, progress, current_stage, current_stage_details, error, created_at, updated_at
		FROM job_cache ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query job snapshots: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job snapshot: %w", err)
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// Delete removes a cached snapshot. Missing ids are not an error.
func (r *JobCacheRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM job_cache WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job snapshot: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job     models.Job
		status  string
		details sql.NullString
		jobErr  sql.NullString
	)

	err := row.Scan(&job.ID, &status, &job.VideoPath, &job.Progress, &job.CurrentStage,
		&details, &jobErr, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.Status = models.Status(status)
	if details.Valid {
		job.CurrentStageDetails = details.String
	}
	if jobErr.Valid {
		job.Error = jobErr.String
	}

	return &job, nil
}
