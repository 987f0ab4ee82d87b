package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/service"
	"github.com/sahayak-labs/sahayak-api/internal/utils"
)

// ClassroomHandler exposes classroom management and membership routes.
type ClassroomHandler struct {
	service service.ClassroomService
	uploads service.UploadService
	logger  zerolog.Logger
}

// NewClassroomHandler constructs a classroom handler.
func NewClassroomHandler(service service.ClassroomService, uploads service.UploadService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		service: service,
		uploads: uploads,
		logger:  logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register binds classroom routes.
func (h *ClassroomHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Post("/:id/join", h.join)
	router.Get("/:id/materials", h.materials)
}

func (h *ClassroomHandler) list(c *fiber.Ctx) error {
	classrooms, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("classroom list failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "classroom list failed")
	}

	return utils.OK(c, classrooms, "classrooms", fiber.Map{"count": len(classrooms)})
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	var req dto.ClassroomCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Create(c.Context(), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClassroomExists):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("classroom create failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "classroom create failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "classroom created", classroom)
}

func (h *ClassroomHandler) join(c *fiber.Ctx) error {
	uid := userUIDFromContext(c)
	if uid == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid classroom id")
	}

	profile, err := h.service.Join(c.Context(), uid, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassroomNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrProfileNotFound):
			return utils.SendError(c, fiber.StatusForbidden, "teacher profile required")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("classroom join failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "classroom join failed")
		}
	}

	return utils.SendSuccess(c, "classroom joined", profile)
}

func (h *ClassroomHandler) materials(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid classroom id")
	}

	materials, err := h.uploads.ListForClassroom(c.Context(), id)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("material list failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "material list failed")
	}

	return utils.OK(c, materials, "classroom materials", fiber.Map{"count": len(materials)})
}
