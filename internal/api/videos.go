// Video and job endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"vidx/internal/models"
	"vidx/internal/shared"
)

// jobCreated is the payload of upload/process/analyze calls.
type jobCreated struct {
	JobID string `json:"job_id"`
}

// UploadVideo uploads the file at path as multipart form data and returns
// the created job id.
//
// Files over the client's upload limit are rejected here, before any
// network call.
func (c *Client) UploadVideo(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if info.Size() > c.uploadLimit {
		return "", fmt.Errorf("%w: file exceeds the %dMB upload limit", shared.ErrValidation, c.uploadLimit>>20)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	defer f.Close()

	var created jobCreated
	if err := c.upload(ctx, "/api/videos/upload", "video", filepath.Base(path), f, &created); err != nil {
		return "", err
	}
	return created.JobID, nil
}

type processRequest struct {
	VideoPath string `json:"video_path"`
	models.ProcessingParams
}

// ProcessVideo starts a processing job for an already-uploaded video.
func (c *Client) ProcessVideo(ctx context.Context, videoPath string, params models.ProcessingParams) (string, error) {
	var created jobCreated
	body := processRequest{VideoPath: videoPath, ProcessingParams: params}
	if err := c.do(ctx, http.MethodPost, "/api/videos/process", body, &created); err != nil {
		return "", err
	}
	return created.JobID, nil
}

type analyzeRequest struct {
	VideoPath string `json:"video_path"`
	models.AnalysisParams
}

// AnalyzeVideo starts an analysis job for an already-uploaded video.
func (c *Client) AnalyzeVideo(ctx context.Context, videoPath string, params models.AnalysisParams) (string, error) {
	var created jobCreated
	body := analyzeRequest{VideoPath: videoPath, AnalysisParams: params}
	if err := c.do(ctx, http.MethodPost, "/api/videos/analyze", body, &created); err != nil {
		return "", err
	}
	return created.JobID, nil
}

// ActiveJobs fetches the current active-jobs snapshot.
func (c *Client) ActiveJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/active", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Job fetches a single job by id.
func (c *Client) Job(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelJob requests cancellation of a job.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+id+"/cancel", nil, nil)
}

// PrioritizeJob moves a job up or down in the queue.
func (c *Client) PrioritizeJob(ctx context.Context, id, direction string) error {
	if direction != "up" && direction != "down" {
		return fmt.Errorf("%w: direction must be 'up' or 'down'", shared.ErrInvalidArgument)
	}
	return c.do(ctx, http.MethodPost, "/api/jobs/"+id+"/priority", map[string]string{"direction": direction}, nil)
}
