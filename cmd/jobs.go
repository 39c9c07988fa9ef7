package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"vidx/internal/formatter"
	"vidx/internal/models"
	"vidx/internal/shared"
)

// JobsList prints the active-jobs list. When the backend is unreachable it
// falls back to the last snapshots cached locally.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	jobList, err := r.client.ActiveJobs(ctx)
	cached := false
	if err != nil {
		if !errors.Is(err, shared.ErrNetwork) || r.jobCache == nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		r.logger.Warn("backend unreachable, using cached snapshots", "error", err)
		if jobList, err = r.jobCache.List(); err != nil {
			return fmt.Errorf("failed to read job cache: %w", err)
		}
		cached = true
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobList, cmd.Bool("pretty"))
	}

	if cached {
		r.writePlain("(offline, showing last known state)\n")
	}
	if len(jobList) == 0 {
		return r.writePlain("No active jobs\n")
	}

	r.writePlainHeader(fmt.Sprintf("Active jobs (%d)", len(jobList)))
	for _, j := range jobList {
		r.writePlain("%s\n", formatJobLine(j))
	}
	return nil
}

// JobsStatus prints a single job.
func (r *Runner) JobsStatus(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	job, err := r.client.Job(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("job %s not found: %w", id, err)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(job, cmd.Bool("pretty"))
	}

	r.writePlainHeader(filepath.Base(job.VideoPath))
	r.writePlain("ID:       %s\n", job.ID)
	r.writePlain("Status:   %s\n", job.Status)
	r.writePlain("Progress: %.0f%%\n", job.Progress)
	if job.CurrentStage != "" {
		r.writePlain("Stage:    %s\n", job.CurrentStage)
	}
	if job.Error != "" {
		r.writePlain("Error:    %s\n", job.Error)
	}
	if job.Result != nil && job.Result.OutputPath != "" {
		r.writePlain("Output:   %s\n", job.Result.OutputPath)
	}
	return nil
}

// JobsWatch polls a job on the configured interval until it reaches a
// terminal status, printing each change.
func (r *Runner) JobsWatch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}
	return r.watchJob(ctx, id)
}

func (r *Runner) watchJob(ctx context.Context, id string) error {
	ticker := time.NewTicker(r.pollInterval())
	defer ticker.Stop()

	var last *models.Job
	for {
		job, err := r.client.Job(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNetwork) {
				r.logger.Warn("refresh failed, retrying", "error", err)
			} else {
				return err
			}
		} else if last == nil || job.Status != last.Status || job.Progress != last.Progress {
			// Out-of-order responses never move a job backwards.
			if last == nil || last.Status.CanTransition(job.Status) {
				last = job
				r.writePlain("%s\n", formatJobLine(*job))
			}
		}

		if last != nil && last.Status.Terminal() {
			if last.Status == models.StatusFailed {
				return fmt.Errorf("job failed: %s", last.Error)
			}
			if last.Result != nil && last.Result.OutputPath != "" {
				r.writePlain("✓ Output: %s\n", last.Result.OutputPath)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// JobsCancel requests cancellation of a job.
func (r *Runner) JobsCancel(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	if err := r.client.CancelJob(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	r.logger.Info("cancellation requested", "job", id)
	return r.writePlain("✓ Cancellation requested for %s\n", id)
}

// JobsPriority moves a queued job up or down.
func (r *Runner) JobsPriority(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	direction := cmd.StringArg("direction")
	if id == "" || direction == "" {
		return fmt.Errorf("%w: usage: vidx jobs priority <id> <up|down>", shared.ErrMissingArgument)
	}

	if err := r.client.PrioritizeJob(ctx, id, direction); err != nil {
		return err
	}
	return r.writePlain("✓ Job %s moved %s\n", id, direction)
}

func formatJobLine(j models.Job) string {
	name := filepath.Base(j.VideoPath)
	switch j.Status {
	case models.StatusProcessing:
		line := fmt.Sprintf("◐ %s  %s %.0f%%", name, j.Status, j.Progress)
		if j.CurrentStage != "" {
			line = fmt.Sprintf("%s  (%s)", line, j.CurrentStage)
		}
		return line
	case models.StatusFailed:
		return fmt.Sprintf("✗ %s  failed: %s", name, j.Error)
	case models.StatusCompleted:
		return fmt.Sprintf("● %s  completed", name)
	default:
		return fmt.Sprintf("○ %s  %s", name, j.Status)
	}
}

// JobsExport writes the active-jobs list to a file in the requested format.
func (r *Runner) JobsExport(ctx context.Context, cmd *cli.Command) error {
	jobList, err := r.client.ActiveJobs(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNetwork) || r.jobCache == nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		r.logger.Warn("backend unreachable, exporting cached snapshots", "error", err)
		if jobList, err = r.jobCache.List(); err != nil {
			return fmt.Errorf("failed to read job cache: %w", err)
		}
	}

	path, err := formatter.WriteExport(jobList, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d jobs to %s\n", len(jobList), path)
}
