package dto

import "time"

// LessonPlanRequest describes the structured lesson plan form.
type LessonPlanRequest struct {
	Subject    string   `json:"subject" validate:"required,max=128"`
	Topic      string   `json:"topic" validate:"required,max=255"`
	Grade      string   `json:"grade" validate:"required,max=16"`
	Objectives []string `json:"objectives" validate:"required,min=1,max=10,dive,required,max=255"`
	Language   string   `json:"language" validate:"required,max=64"`
}

// WorksheetRequest asks for differentiated worksheets from a textbook photo.
type WorksheetRequest struct {
	ImageURL string   `json:"image_url" validate:"required,url"`
	Grades   []string `json:"grades" validate:"required,min=1,max=5,dive,required,max=16"`
	Language string   `json:"language" validate:"omitempty,max=64"`
}

// VisualAidRequest asks for a simple blackboard-friendly drawing.
type VisualAidRequest struct {
	Description string `json:"description" validate:"required,max=1024"`
}

// ExplanationRequest asks for a localized explanation of a free-text question.
type ExplanationRequest struct {
	Prompt   string `json:"prompt" validate:"required,max=2048"`
	Language string `json:"language" validate:"required,max=64"`
}

// GenerationResponse returns the generated content plus an optional non-fatal
// warning when the best-effort history write failed.
type GenerationResponse struct {
	Kind     string `json:"kind"`
	Content  string `json:"content,omitempty"`
	AssetURL string `json:"asset_url,omitempty"`
	RecordID *uint  `json:"record_id,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// GenerationHistoryItem is one entry in a teacher's generation history.
type GenerationHistoryItem struct {
	ID        uint      `json:"id"`
	Kind      string    `json:"kind"`
	Language  string    `json:"language,omitempty"`
	Output    string    `json:"output"`
	AssetURL  string    `json:"asset_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
