package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/service"
	"github.com/sahayak-labs/sahayak-api/internal/utils"
)

// AdminBatchHandler exposes the bulk account generation and cleanup console.
// Batch runs execute synchronously and detached from the request context:
// an in-flight run cannot be cancelled by the client disconnecting.
type AdminBatchHandler struct {
	service service.BatchService
	logger  zerolog.Logger
}

// NewAdminBatchHandler constructs the admin batch handler.
func NewAdminBatchHandler(service service.BatchService, logger zerolog.Logger) *AdminBatchHandler {
	return &AdminBatchHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_batch_handler").Logger(),
	}
}

// Register binds the batch console routes.
func (h *AdminBatchHandler) Register(router fiber.Router) {
	router.Post("/students", h.generateStudents)
	router.Post("/teachers", h.generateTeachers)
	router.Post("/cleanup", h.cleanup)
	router.Get("/status", h.status)

	router.Use("/logs/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/logs/ws", websocket.New(h.streamLogs))
}

func (h *AdminBatchHandler) generateStudents(c *fiber.Ctx) error {
	var req dto.StudentBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	job, err := h.service.GenerateStudents(context.WithoutCancel(c.Context()), userUIDFromContext(c), req)
	if err != nil {
		return h.batchError(c, err)
	}

	return utils.SendSuccess(c, "student generation finished", job)
}

func (h *AdminBatchHandler) generateTeachers(c *fiber.Ctx) error {
	var req dto.TeacherBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	job, err := h.service.GenerateTeachers(context.WithoutCancel(c.Context()), userUIDFromContext(c), req)
	if err != nil {
		return h.batchError(c, err)
	}

	return utils.SendSuccess(c, "teacher generation finished", job)
}

func (h *AdminBatchHandler) cleanup(c *fiber.Ctx) error {
	var req dto.CleanupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Confirm {
		return utils.SendError(c, fiber.StatusBadRequest, "cleanup requires explicit confirmation")
	}

	job, summary, err := h.service.Cleanup(context.WithoutCancel(c.Context()), userUIDFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrBatchInProgress) {
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("cleanup failed")
		return utils.Fail(c, fiber.StatusInternalServerError, "cleanup failed", fiber.Map{
			"job":     job,
			"summary": summary,
		})
	}

	return utils.OK(c, job, "cleanup finished", fiber.Map{
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
	})
}

func (h *AdminBatchHandler) status(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "batch status", h.service.Snapshot())
}

// streamLogs pushes batch log lines over the socket as they are appended. The
// current snapshot log is replayed first so late subscribers see the full run.
func (h *AdminBatchHandler) streamLogs(conn *websocket.Conn) {
	lines, unsubscribe := h.service.SubscribeLog()
	defer unsubscribe()

	snapshot := h.service.Snapshot()
	for _, line := range snapshot.Log {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			_ = conn.Close()
			return
		}
	}

	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("batch log stream connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				_ = conn.Close()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			_ = conn.Close()
			return
		}
	}
}

func (h *AdminBatchHandler) batchError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBatchInProgress):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("batch failed to start")
		return utils.Fail(c, fiber.StatusInternalServerError, "batch failed to start", fiber.Map{
			"job": h.service.Snapshot(),
		})
	}
}
