package ai

import (
	"context"
	"fmt"
)

// AnthropicConfig placeholder for anthropic integration configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicGenerator is a stub implementation that can be expanded once the SDK is available.
type AnthropicGenerator struct{}

// NewAnthropicGenerator constructs a new stub generator.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return &AnthropicGenerator{}, nil
}

// LessonPlan is not yet implemented for Anthropic models.
func (a *AnthropicGenerator) LessonPlan(ctx context.Context, input LessonPlanInput) (string, error) {
	return "", fmt.Errorf("anthropic generator not implemented")
}

// Worksheets is not yet implemented for Anthropic models.
func (a *AnthropicGenerator) Worksheets(ctx context.Context, input WorksheetInput) (map[string]string, error) {
	return nil, fmt.Errorf("anthropic generator not implemented")
}

// VisualAid is not yet implemented for Anthropic models.
func (a *AnthropicGenerator) VisualAid(ctx context.Context, input VisualAidInput) (Image, error) {
	return Image{}, fmt.Errorf("anthropic generator not implemented")
}

// Explain is not yet implemented for Anthropic models.
func (a *AnthropicGenerator) Explain(ctx context.Context, input ExplanationInput) (string, error) {
	return "", fmt.Errorf("anthropic generator not implemented")
}
