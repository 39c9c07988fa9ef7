package models

// Status is the lifecycle state of a processing job.
//
// Transitions move forward only: pending → processing → completed|failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions occur from this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known job statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// rank orders statuses along the forward-only lifecycle.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Terminal statuses accept no transitions; a status may always
// "transition" to itself (repeated poll responses).
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// JobResult holds the output of a completed job.
type JobResult struct {
	OutputPath string `json:"output_path"`
	Scenes     []any  `json:"scenes"`
}

// Job represents a processing job as reported by the backend.
//
// Timestamps are kept as the backend's string form; the client orders and
// displays them but never does arithmetic on them.
type Job struct {
	ID                  string     `json:"id"`
	Status              Status     `json:"status"`
	VideoPath           string     `json:"video_path"`
	Progress            float64    `json:"progress"` // percent, 0 to 100
	CurrentStage        string     `json:"current_stage"`
	CurrentStageDetails string     `json:"current_stage_details,omitempty"`
	Error               string     `json:"error,omitempty"`
	Result              *JobResult `json:"result,omitempty"`
	CreatedAt           string     `json:"created_at"`
	UpdatedAt           string     `json:"updated_at"`
}

// Preferences is the per-user settings sub-object. Updates replace the whole
// sub-object, never individual fields.
type Preferences struct {
	Theme                      string  `json:"theme"`
	DefaultStyle               string  `json:"defaultStyle"`
	DefaultStrength            float64 `json:"defaultStrength"`
	DefaultQualityThreshold    float64 `json:"defaultQualityThreshold"`
	DefaultImportanceThreshold float64 `json:"defaultImportanceThreshold"`
	EnableMotionAnalysis       bool    `json:"enableMotionAnalysis"`
	EnableContinuityAnalysis   bool    `json:"enableContinuityAnalysis"`
}

// User represents the authenticated account.
type User struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	EmailVerified bool        `json:"isEmailVerified"`
	Preferences   Preferences `json:"preferences"`
}

// ProcessingParams are the knobs sent with process requests.
type ProcessingParams struct {
	Style                  string  `json:"style"`
	Strength               float64 `json:"strength"`
	Transitions            string  `json:"transitions"`
	DetectScenes           bool    `json:"detect_scenes"`
	AnalyzeContent         bool    `json:"analyze_content"`
	OptimizeScenes         bool    `json:"optimize_scenes"`
	MinQualityThreshold    float64 `json:"min_quality_threshold"`
	MinImportanceThreshold float64 `json:"min_importance_threshold"`
	AnalyzeMotion          bool    `json:"analyze_motion"`
	AnalyzeContinuity      bool    `json:"analyze_continuity"`
	MinObjectContinuity    float64 `json:"min_object_continuity"`
}

// AnalysisParams are the knobs sent with analyze requests.
type AnalysisParams struct {
	DetectScenes        bool    `json:"detect_scenes"`
	AnalyzeContent      bool    `json:"analyze_content"`
	AnalyzeMotion       bool    `json:"analyze_motion"`
	AnalyzeContinuity   bool    `json:"analyze_continuity"`
	MinObjectContinuity float64 `json:"min_object_continuity"`
}
