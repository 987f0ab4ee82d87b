package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/service"
	"github.com/sahayak-labs/sahayak-api/internal/utils"
)

// UploadHandler handles teaching material uploads and sharing.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires material routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("/", h.upload)
	router.Get("/mine", h.listMine)
	router.Patch("/:id/share", h.share)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	uid := userUIDFromContext(c)
	if uid == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	classroomIDs, err := parseClassroomIDs(c.FormValue("classroom_ids"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid classroom_ids")
	}

	material, err := h.service.Upload(c.Context(), uid, file, classroomIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrUploadTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "upload failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material uploaded", material)
}

func (h *UploadHandler) listMine(c *fiber.Ctx) error {
	uid := userUIDFromContext(c)
	if uid == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	materials, err := h.service.ListByUploader(c.Context(), uid)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("material list failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "material list failed")
	}

	return utils.OK(c, materials, "materials", fiber.Map{"count": len(materials)})
}

func (h *UploadHandler) share(c *fiber.Ctx) error {
	uid := userUIDFromContext(c)
	if uid == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid material id")
	}

	var req dto.MaterialShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	material, err := h.service.Share(c.Context(), id, uid, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMaterialNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotUploader):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("material share failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "material share failed")
		}
	}

	return utils.SendSuccess(c, "material shared", material)
}

func parseClassroomIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}

	var ids []uint
	for _, part := range splitAndTrim(raw) {
		parsed, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(parsed))
	}
	return ids, nil
}
