package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/middleware"
	"github.com/spendwise/backend/internal/repository"
	"github.com/spendwise/backend/internal/service"
)

// GetMe returns the authenticated user's profile, provisioning the row on
// first contact.
func (h *Handler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	user, err := h.userSvc.Get(c.Context(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = h.userSvc.GetOrCreate(c.Context(), service.Profile{ID: userID})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load user",
		})
	}

	return c.JSON(user)
}
