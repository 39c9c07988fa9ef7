package tasks

import (
	"github.com/charmbracelet/log"

	"vidx/internal/api"
	"vidx/internal/shared"
)

// UploadEngine coordinates multi-file uploads against the backend.
type UploadEngine struct {
	client *api.Client
	logger *log.Logger
}

// NewUploadEngine creates an UploadEngine over the given client.
func NewUploadEngine(client *api.Client, logger *log.Logger) *UploadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &UploadEngine{client: client, logger: logger}
}

// sendProgress delivers an update without blocking; a slow consumer drops
// updates rather than stalling the operation.
func (e *UploadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
