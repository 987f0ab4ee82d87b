package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahayak-labs/sahayak-api/internal/utils"
)

// AdminConsoleGate hides the bulk account console unless it is explicitly
// enabled for the environment. The flag is evaluated per request so a config
// reload takes effect without a restart.
func AdminConsoleGate(enabled func() bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if enabled == nil || !enabled() {
			return utils.SendError(c, fiber.StatusForbidden, "admin console disabled")
		}
		return c.Next()
	}
}
