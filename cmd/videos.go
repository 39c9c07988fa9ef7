package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"vidx/internal/models"
	"vidx/internal/shared"
	"vidx/internal/tasks"
)

// VideoUpload uploads a local file and optionally watches the created job.
func (r *Runner) VideoUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: video path", shared.ErrMissingArgument)
	}

	r.logger.Info("uploading video", "path", path)

	id, err := r.client.UploadVideo(ctx, path)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			return fmt.Errorf("upload rejected: %w", err)
		}
		return fmt.Errorf("upload failed: %w", err)
	}

	r.writePlain("✓ Uploaded, job %s created\n", id)
	if cmd.Bool("watch") {
		return r.watchJob(ctx, id)
	}
	return nil
}

// VideoProcess starts a processing job for an uploaded video.
func (r *Runner) VideoProcess(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: video path", shared.ErrMissingArgument)
	}

	params := models.ProcessingParams{
		Style:          cmd.String("style"),
		Strength:       cmd.Float("strength"),
		Transitions:    cmd.String("transitions"),
		DetectScenes:   cmd.Bool("detect-scenes"),
		AnalyzeContent: cmd.Bool("analyze-content"),
		OptimizeScenes: cmd.Bool("optimize-scenes"),
	}

	r.logger.Info("starting processing", "path", path, "style", params.Style)

	id, err := r.client.ProcessVideo(ctx, path, params)
	if err != nil {
		return fmt.Errorf("failed to start processing: %w", err)
	}

	r.writePlain("✓ Processing job %s created\n", id)
	if cmd.Bool("watch") {
		return r.watchJob(ctx, id)
	}
	return nil
}

// VideoAnalyze starts an analysis job for an uploaded video.
func (r *Runner) VideoAnalyze(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: video path", shared.ErrMissingArgument)
	}

	params := models.AnalysisParams{
		DetectScenes:        cmd.Bool("detect-scenes"),
		AnalyzeContent:      cmd.Bool("analyze-content"),
		AnalyzeMotion:       cmd.Bool("motion"),
		AnalyzeContinuity:   cmd.Bool("continuity"),
		MinObjectContinuity: cmd.Float("min-continuity"),
	}

	r.logger.Info("starting analysis", "path", path)

	id, err := r.client.AnalyzeVideo(ctx, path, params)
	if err != nil {
		return fmt.Errorf("failed to start analysis: %w", err)
	}

	r.writePlain("✓ Analysis job %s created\n", id)
	if cmd.Bool("watch") {
		return r.watchJob(ctx, id)
	}
	return nil
}

// VideoBulkUpload uploads every video under a path through the worker pool,
// streaming progress lines as they arrive.
func (r *Runner) VideoBulkUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a file or directory", shared.ErrMissingArgument)
	}

	engine := tasks.NewUploadEngine(r.client, r.logger)

	prog := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.BulkUpload(ctx, prog, []string{path}, tasks.BulkUploadOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Process:    cmd.Bool("process"),
		Params:     models.ProcessingParams{Style: cmd.String("style")},
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Uploaded %d/%d files", result.SuccessfulUploads, result.TotalFiles)
	if result.FailedUploads > 0 {
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  ✗ %s: %v\n", res.Path, res.Error)
			}
		}
		return fmt.Errorf("%d uploads failed", result.FailedUploads)
	}
	return nil
}
