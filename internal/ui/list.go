package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"

	"vidx/internal/models"
)

var _ list.Item = jobItem{}

// jobItem wraps [models.Job] to implement [list.Item].
type jobItem struct {
	job models.Job
}

func (i jobItem) FilterValue() string { return filepath.Base(i.job.VideoPath) }
func (i jobItem) Title() string {
	return fmt.Sprintf("%s %s", statusGlyph(i.job.Status), filepath.Base(i.job.VideoPath))
}

func (i jobItem) Description() string {
	desc := string(i.job.Status)
	switch {
	case i.job.Status == models.StatusProcessing && i.job.CurrentStage != "":
		desc = fmt.Sprintf("%s • %s • %.0f%%", desc, i.job.CurrentStage, i.job.Progress)
	case i.job.Status == models.StatusProcessing:
		desc = fmt.Sprintf("%s • %.0f%%", desc, i.job.Progress)
	case i.job.Status == models.StatusFailed && i.job.Error != "":
		desc = fmt.Sprintf("%s • %s", desc, i.job.Error)
	}
	return desc
}

func statusGlyph(s models.Status) string {
	switch s {
	case models.StatusPending:
		return "○"
	case models.StatusProcessing:
		return "◐"
	case models.StatusCompleted:
		return "●"
	case models.StatusFailed:
		return "✗"
	default:
		return "?"
	}
}
