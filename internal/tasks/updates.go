package tasks

import (
	"fmt"
	"path/filepath"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanFiles Phase = iota
	UploadFile
	StartProcess
)

func (p Phase) String() string {
	switch p {
	case ScanFiles:
		return "scan_files"
	case UploadFile:
		return "upload_file"
	case StartProcess:
		return "start_process"
	default:
		return ""
	}
}

func scanUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Found %d video files", total),
	}
}

func uploadingUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading: %s...", step, total, filepath.Base(path)),
	}
}

func uploadCompletedUpdate(step, total int, path, jobID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (job %s)", step, total, filepath.Base(path), jobID),
		Data:    jobID,
	}
}

func uploadFailedUpdate(step, total int, path string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, filepath.Base(path), err),
	}
}

func processStartedUpdate(step, total int, path, jobID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartProcess,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Processing started: %s (job %s)", step, total, filepath.Base(path), jobID),
		Data:    jobID,
	}
}
