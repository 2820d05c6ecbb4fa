package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/config"
)

const AdminKey = "is_admin"

// AdminAuth allows only users on the configured admin allowlist through.
func AdminAuth(cfg *config.Config) fiber.Handler {
	admins := make(map[int64]struct{}, len(cfg.App.AdminIDs))
	for _, id := range cfg.App.AdminIDs {
		admins[id] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		if _, ok := admins[userID]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "access denied",
			})
		}

		c.Locals(AdminKey, true)

		return c.Next()
	}
}

// IsAdmin checks if the current user passed the admin guard.
func IsAdmin(c *fiber.Ctx) bool {
	isAdmin, ok := c.Locals(AdminKey).(bool)
	return ok && isAdmin
}
