package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"vidx/internal/models"
	"vidx/internal/shared"
)

// videoExtensions are the file extensions treated as uploadable video.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
}

// BulkUploadOpts contains configuration for bulk uploads.
type BulkUploadOpts struct {
	NumWorkers int                      // Concurrent workers (default: 3)
	RateLimit  float64                  // Uploads per second (default: 1)
	Process    bool                     // Start a processing job after each upload
	Params     models.ProcessingParams  // Processing knobs when Process is set
}

// FileUploadResult is the outcome for a single file.
type FileUploadResult struct {
	Path         string `json:"path"`
	UploadJobID  string `json:"upload_job_id,omitempty"`
	ProcessJobID string `json:"process_job_id,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
}

// BulkUploadResult summarizes a bulk upload run.
type BulkUploadResult struct {
	TotalFiles        int                `json:"total_files"`
	SuccessfulUploads int                `json:"successful_uploads"`
	FailedUploads     int                `json:"failed_uploads"`
	Results           []FileUploadResult `json:"results"`
}

// CollectVideos expands the given paths into a sorted list of video files.
// Directories are walked recursively; non-video files are skipped.
func CollectVideos(paths []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !info.IsDir() {
			if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil, fmt.Errorf("%w: %s is not a video file", shared.ErrInvalidArgument, path)
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !videoExtensions[strings.ToLower(filepath.Ext(p))] {
				return nil
			}
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// BulkUpload uploads multiple video files concurrently with rate limiting and progress tracking.
//
// It implements a worker pool pattern: files are fanned out to NumWorkers
// goroutines, each upload gated by a shared rate limiter. Partial failures
// are collected per file rather than aborting the run.
func (e *UploadEngine) BulkUpload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	paths []string,
	opts BulkUploadOpts,
) (*BulkUploadResult, error) {
	files, err := CollectVideos(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no video files found", shared.ErrInvalidArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	e.sendProgress(prog, scanUpdate(len(files)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(files))
	results := make(chan FileUploadResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.uploadWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BulkUploadResult{
		TotalFiles: len(files),
		Results:    make([]FileUploadResult, 0, len(files)),
	}

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulUploads++
			e.sendProgress(prog, uploadCompletedUpdate(completed, len(files), res.Path, res.UploadJobID))
			if res.ProcessJobID != "" {
				e.sendProgress(prog, processStartedUpdate(completed, len(files), res.Path, res.ProcessJobID))
			}
		} else {
			result.FailedUploads++
			e.sendProgress(prog, uploadFailedUpdate(completed, len(files), res.Path, res.Error))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Path < result.Results[j].Path
	})

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// uploadWorker is a worker goroutine that uploads files from the jobs channel.
func (e *UploadEngine) uploadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- FileUploadResult,
	opts BulkUploadOpts,
) {
	defer wg.Done()

	for path := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- FileUploadResult{Path: path, Error: err}
			continue
		}

		results <- e.uploadSingleFile(ctx, path, opts)
	}
}

// uploadSingleFile uploads one file and optionally starts processing.
func (e *UploadEngine) uploadSingleFile(ctx context.Context, path string, opts BulkUploadOpts) FileUploadResult {
	result := FileUploadResult{Path: path}

	jobID, err := e.client.UploadVideo(ctx, path)
	if err != nil {
		result.Error = fmt.Errorf("upload failed: %w", err)
		return result
	}
	result.UploadJobID = jobID
	result.Success = true

	if opts.Process {
		processID, err := e.client.ProcessVideo(ctx, path, opts.Params)
		if err != nil {
			// The upload stands even when processing cannot start.
			e.logger.Warn("failed to start processing", "path", path, "error", err)
			return result
		}
		result.ProcessJobID = processID
	}

	return result
}
