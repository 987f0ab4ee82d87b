package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sahayak",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of AI content generation requests",
	}, []string{"kind", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of AI content generation failures",
	}, []string{"kind", "model"})
)

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	ImageModel  string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator implements Generator against the OpenAI chat and image APIs.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.ImageModel == "" {
		cfg.ImageModel = "dall-e-3"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/sahayak-labs/sahayak-api/pkg/ai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGenerator{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// LessonPlan produces a structured lesson plan in the requested language.
func (g *OpenAIGenerator) LessonPlan(parent context.Context, input LessonPlanInput) (string, error) {
	prompt := strings.Builder{}
	prompt.WriteString("Create a lesson plan.\n\n## Subject\n")
	prompt.WriteString(input.Subject)
	prompt.WriteString("\n\n## Topic\n")
	prompt.WriteString(input.Topic)
	prompt.WriteString("\n\n## Grade\n")
	prompt.WriteString(input.Grade)
	prompt.WriteString("\n\n## Learning Objectives\n")
	for _, objective := range input.Objectives {
		prompt.WriteString("- ")
		prompt.WriteString(objective)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n## Language\n")
	prompt.WriteString(input.Language)

	return g.complete(parent, "lesson_plan", lessonPlanSystemPrompt(), nil, prompt.String())
}

// Worksheets produces one worksheet per requested grade from a textbook photo.
func (g *OpenAIGenerator) Worksheets(parent context.Context, input WorksheetInput) (map[string]string, error) {
	prompt := strings.Builder{}
	prompt.WriteString("Generate one worksheet per grade from the attached textbook page.\n\n## Grades\n")
	prompt.WriteString(strings.Join(input.Grades, ", "))
	if input.Language != "" {
		prompt.WriteString("\n\n## Language\n")
		prompt.WriteString(input.Language)
	}
	prompt.WriteString("\nReturn a JSON object keyed by grade.")

	content, err := g.complete(parent, "worksheet", worksheetSystemPrompt(), &input.ImageURL, prompt.String())
	if err != nil {
		return nil, err
	}

	var sheets map[string]string
	if err := json.Unmarshal([]byte(content), &sheets); err != nil {
		return nil, fmt.Errorf("parse worksheet json: %w", err)
	}

	return sheets, nil
}

// VisualAid generates a simple line drawing suited for copying onto a blackboard.
func (g *OpenAIGenerator) VisualAid(parent context.Context, input VisualAidInput) (Image, error) {
	ctx, span := g.tracer.Start(parent, "openai.visual_aid", trace.WithAttributes(
		attribute.String("model", g.cfg.ImageModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:          g.cfg.ImageModel,
		Prompt:         visualAidPrompt(input.Description),
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	aiDuration.WithLabelValues("visual_aid", g.cfg.ImageModel).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("visual_aid", g.cfg.ImageModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Image{}, fmt.Errorf("openai image: %w", err)
	}

	if len(resp.Data) == 0 {
		err := fmt.Errorf("no image data returned from openai")
		aiFailures.WithLabelValues("visual_aid", g.cfg.ImageModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Image{}, err
	}

	return Image{B64Data: resp.Data[0].B64JSON, MimeType: "image/png"}, nil
}

// Explain answers a free-text question in the requested language.
func (g *OpenAIGenerator) Explain(parent context.Context, input ExplanationInput) (string, error) {
	prompt := fmt.Sprintf("## Question\n%s\n\n## Language\n%s", input.Prompt, input.Language)
	return g.complete(parent, "explanation", explanationSystemPrompt(), nil, prompt)
}

func (g *OpenAIGenerator) complete(parent context.Context, kind, system string, imageURL *string, prompt string) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai."+kind, trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	userMessage := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}
	if imageURL != nil {
		userMessage = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: *imageURL}},
			},
		}
	}

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			userMessage,
		},
	}
	if kind == "worksheet" {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(kind, g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(kind, g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai %s: %w", kind, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(kind, g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func lessonPlanSystemPrompt() string {
	return "You are an experienced teacher's assistant for multi-grade, low-resource classrooms. Produce a practical lesson p" +
		"lan with timing, materials available in a rural classroom, and activities. Write entirely in the requested language."
}

func worksheetSystemPrompt() string {
	return "You create differentiated worksheets from a photographed textbook page. Respond with a JSON object whose keys are" +
		" the requested grades and whose values are complete worksheet texts adapted to each grade's level."
}

func explanationSystemPrompt() string {
	return "You explain concepts to village teachers and students using simple words and analogies from everyday rural life. " +
		"Answer entirely in the requested language."
}

func visualAidPrompt(description string) string {
	return fmt.Sprintf("A simple black and white line drawing, easy to replicate on a blackboard with chalk, no shading, no te"+
		"xt labels: %s", description)
}
