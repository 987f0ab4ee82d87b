package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahayak-labs/sahayak-api/internal/config"
	"github.com/sahayak-labs/sahayak-api/internal/handler"
	"github.com/sahayak-labs/sahayak-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ContentHandler      *handler.ContentHandler
	ClassroomHandler    *handler.ClassroomHandler
	UploadHandler       *handler.UploadHandler
	NotificationHandler *handler.NotificationHandler
	AdminBatchHandler   *handler.AdminBatchHandler
	MetricsHandler      fiber.Handler
	JWTMiddleware       fiber.Handler
	AdminConsoleEnabled func() bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)

		profile := api.Group("/auth", jwtMiddleware)
		deps.AuthHandler.RegisterProtected(profile)
	}

	if deps.ContentHandler != nil {
		content := api.Group("/content",
			jwtMiddleware,
			middleware.RequireRole("teacher"),
			middleware.RateLimit("content", 10, time.Minute),
		)
		deps.ContentHandler.Register(content)
	}

	if deps.ClassroomHandler != nil {
		classrooms := api.Group("/classrooms", jwtMiddleware)
		deps.ClassroomHandler.Register(classrooms)
	}

	if deps.UploadHandler != nil {
		materials := api.Group("/materials", jwtMiddleware, middleware.RequireRole("teacher"))
		deps.UploadHandler.Register(materials)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// The batch console stays dark unless explicitly enabled, and even then
	// requires an authenticated admin.
	if deps.AdminBatchHandler != nil {
		adminBatch := app.Group("/api/admin/batch",
			middleware.AdminConsoleGate(deps.AdminConsoleEnabled),
			jwtMiddleware,
			middleware.RequireRole("admin"),
		)
		deps.AdminBatchHandler.Register(adminBatch)
	}
}
