package ai

import "context"

// LessonPlanInput contains the structured lesson plan form fields.
type LessonPlanInput struct {
	Subject    string
	Topic      string
	Grade      string
	Objectives []string
	Language   string
}

// WorksheetInput contains a textbook page image plus the grade levels the
// worksheets should be differentiated for.
type WorksheetInput struct {
	ImageURL string
	Grades   []string
	Language string
}

// VisualAidInput describes a simple line drawing for a blackboard.
type VisualAidInput struct {
	Description string
}

// ExplanationInput is a free-text question to answer in a local language.
type ExplanationInput struct {
	Prompt   string
	Language string
}

// Image is a generated image payload returned by the model.
type Image struct {
	B64Data  string
	MimeType string
}

// Generator describes an AI model capable of producing classroom content.
type Generator interface {
	LessonPlan(ctx context.Context, input LessonPlanInput) (string, error)
	Worksheets(ctx context.Context, input WorksheetInput) (map[string]string, error)
	VisualAid(ctx context.Context, input VisualAidInput) (Image, error)
	Explain(ctx context.Context, input ExplanationInput) (string, error)
}
