package models

import (
	"time"

	"gorm.io/datatypes"
)

// GenerationKind enumerates the content types the AI assistant can produce.
type GenerationKind string

const (
	// GenerationLessonPlan is a structured lesson plan.
	GenerationLessonPlan GenerationKind = "lesson_plan"
	// GenerationWorksheet is a set of differentiated worksheets from a textbook photo.
	GenerationWorksheet GenerationKind = "worksheet"
	// GenerationVisualAid is a generated blackboard-friendly image.
	GenerationVisualAid GenerationKind = "visual_aid"
	// GenerationExplanation is a localized free-text explanation.
	GenerationExplanation GenerationKind = "explanation"
)

// GenerationRecord is the per-teacher history entry written after a successful
// content generation. Writes are best effort; reads degrade to an empty list.
type GenerationRecord struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	TeacherID uint              `gorm:"not null;index" json:"teacher_id"`
	Kind      GenerationKind    `gorm:"size:32;not null;index" json:"kind"`
	Language  string            `gorm:"size:64" json:"language,omitempty"`
	Params    datatypes.JSONMap `json:"params"`
	Output    string            `gorm:"type:text" json:"output"`
	AssetURL  string            `gorm:"size:1024" json:"asset_url,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
