package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
	"github.com/sahayak-labs/sahayak-api/internal/service"
	"github.com/sahayak-labs/sahayak-api/internal/utils"
)

// ContentHandler exposes the AI content generation forms and the generation
// history feed. All routes require an authenticated teacher.
type ContentHandler struct {
	service  service.ContentService
	teachers repository.TeacherRepository
	logger   zerolog.Logger
}

// NewContentHandler constructs a content handler.
func NewContentHandler(service service.ContentService, teachers repository.TeacherRepository, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service:  service,
		teachers: teachers,
		logger:   logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register binds content generation routes.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Post("/lesson-plan", h.lessonPlan)
	router.Post("/worksheets", h.worksheets)
	router.Post("/visual-aid", h.visualAid)
	router.Post("/explain", h.explain)
	router.Get("/history", h.history)
}

func (h *ContentHandler) lessonPlan(c *fiber.Ctx) error {
	teacherID, ok := h.teacherID(c)
	if !ok {
		return nil
	}

	var req dto.LessonPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.LessonPlan(c.Context(), teacherID, req)
	return h.respond(c, result, err, "lesson plan generated")
}

func (h *ContentHandler) worksheets(c *fiber.Ctx) error {
	teacherID, ok := h.teacherID(c)
	if !ok {
		return nil
	}

	var req dto.WorksheetRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Worksheets(c.Context(), teacherID, req)
	return h.respond(c, result, err, "worksheets generated")
}

func (h *ContentHandler) visualAid(c *fiber.Ctx) error {
	teacherID, ok := h.teacherID(c)
	if !ok {
		return nil
	}

	var req dto.VisualAidRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.VisualAid(c.Context(), teacherID, req)
	return h.respond(c, result, err, "visual aid generated")
}

func (h *ContentHandler) explain(c *fiber.Ctx) error {
	teacherID, ok := h.teacherID(c)
	if !ok {
		return nil
	}

	var req dto.ExplanationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Explain(c.Context(), teacherID, req)
	return h.respond(c, result, err, "explanation generated")
}

func (h *ContentHandler) history(c *fiber.Ctx) error {
	teacherID, ok := h.teacherID(c)
	if !ok {
		return nil
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	items, err := h.service.History(c.Context(), teacherID, limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("history fetch failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "history fetch failed")
	}

	return utils.OK(c, items, "generation history", fiber.Map{"count": len(items)})
}

// teacherID resolves the caller's teacher profile ID. When it returns false
// the error response has already been written.
func (h *ContentHandler) teacherID(c *fiber.Ctx) (uint, bool) {
	uid := userUIDFromContext(c)
	if uid == "" {
		_ = utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		return 0, false
	}

	teacher, err := h.teachers.GetByAuthUID(c.Context(), uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = utils.SendError(c, fiber.StatusForbidden, "teacher profile required")
			return 0, false
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("teacher lookup failed")
		_ = utils.SendError(c, fiber.StatusInternalServerError, "teacher lookup failed")
		return 0, false
	}

	return teacher.ID, true
}

func (h *ContentHandler) respond(c *fiber.Ctx, result dto.GenerationResponse, err error, message string) error {
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, service.ErrPromptEmpty):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("content generation failed")
			return utils.SendError(c, fiber.StatusBadGateway, "content generation failed")
		}
	}

	if result.Warning != "" {
		requestLogger(h.logger, c).Warn().Str("warning", result.Warning).Msg("generation completed with warning")
	}
	return utils.SendSuccess(c, message, result)
}
