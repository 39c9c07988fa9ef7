package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"vidx/internal/jobs"
	"vidx/internal/shared"
	"vidx/internal/ui"
)

// TUI launches the interactive dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/vidx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	r.session.Restore(ctx)

	bus := r.bus
	var cache jobs.JobCache
	if r.jobCache != nil {
		cache = r.jobCache
	}
	poller := jobs.NewPoller(r.client, cache, fileLogger, r.pollInterval())

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(pollCtx)
	}()

	model := ui.NewModel(ctx, r.session, poller, bus)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, runErr := p.Run()

	cancel()
	<-done
	bus.Close()

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}
