// Package tasks orchestrates multi-file operations against the backend with real-time progress reporting.
//
// # Core Operation
//
// [UploadEngine.BulkUpload] uploads a batch of local video files:
//   - Scans the requested paths (files or directories) for video files
//   - Uploads them through a bounded worker pool with rate limiting
//   - Optionally starts a processing job for each successful upload
//   - Returns per-file results including the created job ids
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
