package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/pkg/ai"
)

// ErrPromptEmpty indicates the free-text input was empty after sanitization.
var ErrPromptEmpty = errors.New("prompt empty after sanitization")

// ContentService runs the content generation forms against the AI provider
// and records best-effort history entries.
type ContentService interface {
	LessonPlan(ctx context.Context, teacherID uint, req dto.LessonPlanRequest) (dto.GenerationResponse, error)
	Worksheets(ctx context.Context, teacherID uint, req dto.WorksheetRequest) (dto.GenerationResponse, error)
	VisualAid(ctx context.Context, teacherID uint, req dto.VisualAidRequest) (dto.GenerationResponse, error)
	Explain(ctx context.Context, teacherID uint, req dto.ExplanationRequest) (dto.GenerationResponse, error)
	History(ctx context.Context, teacherID uint, limit int) ([]dto.GenerationHistoryItem, error)
}

type contentService struct {
	generator ai.Generator
	history   HistoryService
	storage   FileStorage
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewContentService constructs the content generation service.
func NewContentService(generator ai.Generator, history HistoryService, storage FileStorage, validate *validator.Validate, logger zerolog.Logger) ContentService {
	return &contentService{
		generator: generator,
		history:   history,
		storage:   storage,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "content_service").Logger(),
		tracer:    otel.Tracer("github.com/sahayak-labs/sahayak-api/internal/service"),
	}
}

func (s *contentService) LessonPlan(parent context.Context, teacherID uint, req dto.LessonPlanRequest) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GenerationResponse{}, err
	}

	ctx, span := s.tracer.Start(parent, "content.lesson_plan", trace.WithAttributes(
		attribute.String("subject", req.Subject),
		attribute.String("grade", req.Grade),
	))
	defer span.End()

	content, err := s.generator.LessonPlan(ctx, ai.LessonPlanInput{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Grade:      req.Grade,
		Objectives: req.Objectives,
		Language:   req.Language,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GenerationResponse{}, err
	}

	return s.finish(ctx, teacherID, models.GenerationLessonPlan, req.Language, map[string]interface{}{
		"subject": req.Subject,
		"topic":   req.Topic,
		"grade":   req.Grade,
	}, content, "")
}

func (s *contentService) Worksheets(parent context.Context, teacherID uint, req dto.WorksheetRequest) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GenerationResponse{}, err
	}

	ctx, span := s.tracer.Start(parent, "content.worksheets", trace.WithAttributes(
		attribute.Int("grades", len(req.Grades)),
	))
	defer span.End()

	sheets, err := s.generator.Worksheets(ctx, ai.WorksheetInput{
		ImageURL: req.ImageURL,
		Grades:   req.Grades,
		Language: req.Language,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GenerationResponse{}, err
	}

	encoded, err := json.Marshal(sheets)
	if err != nil {
		return dto.GenerationResponse{}, fmt.Errorf("encode worksheets: %w", err)
	}

	return s.finish(ctx, teacherID, models.GenerationWorksheet, req.Language, map[string]interface{}{
		"image_url": req.ImageURL,
		"grades":    strings.Join(req.Grades, ","),
	}, string(encoded), "")
}

func (s *contentService) VisualAid(parent context.Context, teacherID uint, req dto.VisualAidRequest) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GenerationResponse{}, err
	}

	description := strings.TrimSpace(s.sanitizer.Sanitize(req.Description))
	if description == "" {
		return dto.GenerationResponse{}, ErrPromptEmpty
	}

	ctx, span := s.tracer.Start(parent, "content.visual_aid")
	defer span.End()

	image, err := s.generator.VisualAid(ctx, ai.VisualAidInput{Description: description})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GenerationResponse{}, err
	}

	decoded, err := base64.StdEncoding.DecodeString(image.B64Data)
	if err != nil {
		return dto.GenerationResponse{}, fmt.Errorf("decode generated image: %w", err)
	}

	name := fmt.Sprintf("visual-aid-%d-%d.png", teacherID, time.Now().Unix())
	assetURL, err := s.storage.Upload(ctx, name, bytes.NewReader(decoded))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GenerationResponse{}, fmt.Errorf("store visual aid: %w", err)
	}

	return s.finish(ctx, teacherID, models.GenerationVisualAid, "", map[string]interface{}{
		"description": description,
	}, "", assetURL)
}

func (s *contentService) Explain(parent context.Context, teacherID uint, req dto.ExplanationRequest) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GenerationResponse{}, err
	}

	prompt := strings.TrimSpace(s.sanitizer.Sanitize(req.Prompt))
	if prompt == "" {
		return dto.GenerationResponse{}, ErrPromptEmpty
	}

	ctx, span := s.tracer.Start(parent, "content.explain", trace.WithAttributes(
		attribute.String("language", req.Language),
	))
	defer span.End()

	content, err := s.generator.Explain(ctx, ai.ExplanationInput{Prompt: prompt, Language: req.Language})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GenerationResponse{}, err
	}

	return s.finish(ctx, teacherID, models.GenerationExplanation, req.Language, map[string]interface{}{
		"prompt": prompt,
	}, content, "")
}

func (s *contentService) History(ctx context.Context, teacherID uint, limit int) ([]dto.GenerationHistoryItem, error) {
	return s.history.ListForTeacher(ctx, teacherID, limit)
}

// finish records the best-effort history entry. A failed write downgrades to
// a warning on the response so the operator sees it without losing the
// generated content.
func (s *contentService) finish(ctx context.Context, teacherID uint, kind models.GenerationKind, language string, params map[string]interface{}, content, assetURL string) (dto.GenerationResponse, error) {
	response := dto.GenerationResponse{
		Kind:     string(kind),
		Content:  content,
		AssetURL: assetURL,
	}

	recordID, err := s.history.Record(ctx, teacherID, kind, language, params, content, assetURL)
	if err != nil {
		response.Warning = fmt.Sprintf("content generated but history write failed: %v", err)
		return response, nil
	}

	response.RecordID = recordID
	return response, nil
}
