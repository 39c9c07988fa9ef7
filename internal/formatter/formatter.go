// package formatter provides functions to export job reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vidx/internal/models"
	"vidx/internal/shared"
)

// ExportToCSV converts a job list to CSV format with columns: ID, Video, Status, Progress, Stage, Error, Created, Updated
func ExportToCSV(jobs []models.Job) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Video", "Status", "Progress", "Stage", "Error", "Created", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, job := range jobs {
		record := []string{
			job.ID,
			job.VideoPath,
			string(job.Status),
			strconv.FormatFloat(job.Progress, 'f', 2, 64),
			job.CurrentStage,
			job.Error,
			job.CreatedAt,
			job.UpdatedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a job list to a Markdown table under the given title.
func ExportToMarkdown(jobs []models.Job, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Jobs"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "Total: %d\n\n", len(jobs))
	buf.WriteString("| Video | Status | Progress | Stage | Error |\n")
	buf.WriteString("|-------|--------|----------|-------|-------|\n")

	for _, job := range jobs {
		fmt.Fprintf(&buf, "| %s | %s | %.0f%% | %s | %s |\n",
			escapePipes(filepath.Base(job.VideoPath)),
			job.Status,
			job.Progress,
			escapePipes(job.CurrentStage),
			escapePipes(job.Error),
		)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a job list to aligned plain text, one job per line.
func ExportToText(jobs []models.Job) ([]byte, error) {
	var buf bytes.Buffer

	for _, job := range jobs {
		fmt.Fprintf(&buf, "%-10s %-40s %.0f%%", job.Status, filepath.Base(job.VideoPath), job.Progress)
		if job.Error != "" {
			fmt.Fprintf(&buf, "  (%s)", job.Error)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// WriteExport renders jobs in the requested format and writes the result to
// path, returning the path written. Format is one of csv, markdown, txt.
func WriteExport(jobs []models.Job, format, path string) (string, error) {
	var data []byte
	var err error

	switch strings.ToLower(format) {
	case "csv":
		data, err = ExportToCSV(jobs)
	case "markdown", "md":
		data, err = ExportToMarkdown(jobs, "Jobs")
	case "txt", "text":
		data, err = ExportToText(jobs)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
